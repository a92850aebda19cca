package db

import (
	"context"
	"crypto/tls"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tabledadrian/adrian-backend/internal/config"
)

// NewRedisClient returns nil when no address is configured or the server does
// not answer a ping. Callers treat nil as "cache and rate limit disabled".
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil
	}
	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[redis] addr=%s ping failed, continuing without redis: %v", addr, err)
		_ = client.Close()
		return nil
	}
	return client
}
