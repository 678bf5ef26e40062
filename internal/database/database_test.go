package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	// Setup mock database
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	// Configure GORM with mock
	dialector := postgres.New(postgres.Config{
		Conn:                 mockDB,
		DriverName:           "postgres",
		PreferSimpleProtocol: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	assert.NoError(t, err)
	return db, mock
}

func TestWithTx(t *testing.T) {
	tests := []struct {
		name      string
		fnErr     error
		expectErr bool
	}{
		{name: "Commit on success"},
		{name: "Rollback on error", fnErr: errors.New("not the owner"), expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)

			mock.ExpectBegin()
			mock.ExpectExec(`UPDATE "posts"`).WillReturnResult(sqlmock.NewResult(0, 1))
			if tt.expectErr {
				mock.ExpectRollback()
			} else {
				mock.ExpectCommit()
			}

			err := WithTx(context.Background(), db, "test", func(tx *gorm.DB) error {
				if err := tx.Exec(`UPDATE "posts" SET title = ? WHERE id = ?`, "Hi", "p1").Error; err != nil {
					return err
				}
				return tt.fnErr
			})

			if tt.expectErr {
				assert.ErrorIs(t, err, tt.fnErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
