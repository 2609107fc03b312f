package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
)

var _ ports.ZoneCache = (*ZoneCache)(nil)

const zonePrefix = "wd:zone:"

// ZoneCache zonas resueltas por par origen/destino.
type ZoneCache struct {
	rdb *goredis.Client
}

func NewZoneCache(rdb *goredis.Client) *ZoneCache {
	return &ZoneCache{rdb: rdb}
}

func (c *ZoneCache) Get(ctx context.Context, key string) (entity.Zone, bool, error) {
	val, err := c.rdb.Get(ctx, zonePrefix+key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	z := entity.Zone(val)
	if !z.Valid() {
		return "", false, nil
	}
	return z, true, nil
}

func (c *ZoneCache) Set(ctx context.Context, key string, zone entity.Zone, ttl time.Duration) error {
	return c.rdb.Set(ctx, zonePrefix+key, string(zone), ttl).Err()
}
