package database

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/logs"
)

// Connect ouvre la connexion Postgres (Supabase)
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connexion postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("pool postgres: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)

	return db, nil
}

// Migrate crée ou met à jour les tables, dans l'ordre des dépendances
func Migrate(db *gorm.DB, models ...interface{}) error {
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("migration %T: %w", m, err)
		}
	}
	return nil
}

// WithTx exécute fn dans une transaction. Toute erreur retournée par fn
// provoque un rollback et remonte telle quelle.
func WithTx(ctx context.Context, db *gorm.DB, reason string, fn func(tx *gorm.DB) error) error {
	logs.LogJSON("DEBUG", "Starting transaction", map[string]interface{}{"reason": reason})

	err := db.WithContext(ctx).Transaction(fn)
	if err != nil {
		logs.LogJSON("DEBUG", "Transaction rolled back", map[string]interface{}{
			"reason": reason,
			"error":  err.Error(),
		})
		return err
	}

	logs.LogJSON("DEBUG", "Transaction committed", map[string]interface{}{"reason": reason})
	return nil
}
