package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/logs"
)

// ConnectRedis ouvre le client Redis et vérifie la connexion
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connexion redis %s: %w", addr, err)
	}

	logs.LogJSON("INFO", "Connected to Redis", map[string]interface{}{"addr": addr})
	return client, nil
}
