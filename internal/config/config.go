package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port      string
	DBUrl     string
	JWTSecret string

	// Fournisseur d'identité (Supabase)
	Supabase        string
	SupabaseAnonKey string

	AWSRegion          string
	AWSBucket          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	RedisAddr    string
	RedisChannel string

	FeedDefaultLimit int
	FeedMaxLimit     int
}

func LoadConfig() *Config {
	dbURL := os.Getenv("SUPABASE_DB_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		DBUrl:     dbURL,
		JWTSecret: os.Getenv("JWT_SECRET"),

		Supabase:        os.Getenv("NEXT_PUBLIC_SUPABASE_URL"),
		SupabaseAnonKey: os.Getenv("SUPABASE_ANON_KEY"),

		AWSRegion:          os.Getenv("AWS_REGION"),
		AWSBucket:          os.Getenv("AWS_BUCKET_NAME"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),

		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RedisChannel: getEnv("REDIS_FEED_CHANNEL", "feed-events"),

		FeedDefaultLimit: getEnvInt("FEED_DEFAULT_LIMIT", 50),
		FeedMaxLimit:     getEnvInt("FEED_MAX_LIMIT", 100),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt ignore les valeurs invalides ou <= 0
func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
