package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/auth"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/config"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/database"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/events"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/feed"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/logs"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/server"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/storage"
)

func main() {
	// .env facultatif
	_ = godotenv.Load()

	logCfg := logs.ConfigFromEnv()
	lg, err := logs.Init(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	if !logCfg.Dev {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg := config.LoadConfig()
	if cfg.DBUrl == "" {
		logs.LogJSON("FATAL", "SUPABASE_DB_URL or DATABASE_URL is required", nil)
	}
	if cfg.JWTSecret == "" {
		logs.LogJSON("FATAL", "JWT_SECRET is required", nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DBUrl, logCfg.Dev)
	if err != nil {
		logs.LogJSON("FATAL", "Database connection failed", map[string]interface{}{"error": err.Error()})
	}
	if err := database.Migrate(db, server.Models()...); err != nil {
		logs.LogJSON("FATAL", "Database migration failed", map[string]interface{}{"error": err.Error()})
	}

	deps := server.Deps{
		DB:        db,
		JWTSecret: cfg.JWTSecret,
		Broker:    events.NewBroker(0),
		Feed: feed.Options{
			DefaultLimit: cfg.FeedDefaultLimit,
			MaxLimit:     cfg.FeedMaxLimit,
		},
	}

	if cfg.Supabase != "" {
		deps.Provider = auth.NewProvider(cfg.Supabase, cfg.SupabaseAnonKey)
	}

	if cfg.AWSBucket != "" {
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.AWSBucket,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			logs.LogJSON("ERROR", "S3 unavailable, avatar upload disabled", map[string]interface{}{"error": err.Error()})
		} else {
			deps.Uploader = s3
		}
	}

	if cfg.RedisAddr != "" {
		rdb, err := database.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			logs.LogJSON("ERROR", "Redis unavailable, feed events stay local", map[string]interface{}{"error": err.Error()})
		} else {
			defer rdb.Close()
			publisher, err := events.StartRelay(ctx, rdb, cfg.RedisChannel, deps.Broker)
			if err != nil {
				logs.LogJSON("ERROR", "Redis subscription failed, feed events stay local", map[string]interface{}{"error": err.Error()})
			}
			deps.Publisher = publisher
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Les flux SSE se terminent dès le début de l'arrêt
	srv.RegisterOnShutdown(deps.Broker.Close)

	go func() {
		logs.LogJSON("INFO", "Server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.LogJSON("FATAL", "HTTP server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	logs.LogJSON("INFO", "Shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logs.LogJSON("WARN", "HTTP server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logs.LogJSON("INFO", "Goodbye", nil)
}
