// Package redis locks distribuidos (redislock) y caché de zonas sobre go-redis.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/weight-dispute-api/pkg/config"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
)

// Connect abre el cliente y reintenta el ping con backoff exponencial (tope 30 s) hasta que venza ctx.
func Connect(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*goredis.Client, error) {
	attempt := 0
	for {
		attempt++
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: 50,
		})
		err := client.Ping(ctx).Err()
		if err == nil {
			log.Info().Str("addr", cfg.Addr).Int("attempt", attempt).Msg("conectado a redis")
			return client, nil
		}
		_ = client.Close()

		wait := time.Second * time.Duration(1<<min(attempt, 5))
		if wait > 30*time.Second {
			wait = 30 * time.Second
		}
		log.Warn().Err(err).Str("addr", cfg.Addr).Int("attempt", attempt).Dur("retry_in", wait).Msg("redis no disponible")
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("conectar redis %s: %w", cfg.Addr, err)
		case <-time.After(wait):
		}
	}
}
