package redis

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
)

var _ ports.Locker = (*Locker)(nil)

const (
	lockPrefix  = "wd:lock:"
	lockBackoff = 50 * time.Millisecond
	// defaultWait espera máxima si el contexto no trae deadline.
	defaultWait = 10 * time.Second
)

// Locker exclusión mutua entre réplicas. El TTL protege contra procesos caídos con el lock tomado.
type Locker struct {
	client *redislock.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewLocker(rdb *goredis.Client, ttl time.Duration, log *logger.Logger) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{client: redislock.New(rdb), ttl: ttl, log: log}
}

// Lock reintenta hasta el deadline de ctx (o defaultWait). Devuelve domain.ErrLockNotObtained si no lo consigue.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	waitCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, defaultWait)
		defer cancel()
	}

	lock, err := l.client.Obtain(waitCtx, lockPrefix+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(lockBackoff),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, domain.ErrLockNotObtained
		}
		return nil, err
	}
	return func() {
		// contexto propio: el del llamador puede estar cancelado al liberar
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el lock")
		}
	}, nil
}
