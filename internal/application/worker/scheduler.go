// Package worker ejecuta los trabajos periódicos del motor (barrido de vencidas,
// reenvíos atascados, liquidaciones pendientes y análisis de fraude).
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/domain"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
)

// Job trabajo periódico; Run devuelve cuántos elementos procesó.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (int, error)
}

// Scheduler corre cada Job en su propia goroutine hasta que se cancela el contexto.
// Con Locker cada iteración toma "job:<nombre>" para que una sola instancia la ejecute.
type Scheduler struct {
	jobs    []Job
	locker  ports.Locker
	lockTTL time.Duration
	log     *logger.Logger
}

func NewScheduler(locker ports.Locker, log *logger.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, locker: locker, lockTTL: 200 * time.Millisecond, log: log}
}

// Add registra un trabajo; los intervalos no positivos lo desactivan.
func (s *Scheduler) Add(j Job) *Scheduler {
	s.jobs = append(s.jobs, j)
	return s
}

// Run bloquea hasta que ctx se cancela y todos los trabajos terminan su iteración en curso.
func (s *Scheduler) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, j := range s.jobs {
		j := j
		if j.Interval <= 0 || j.Run == nil {
			s.log.Info().Str("job", j.Name).Msg("trabajo periódico desactivado")
			continue
		}
		g.Go(func() error { return s.loop(gctx, j) })
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Scheduler) loop(ctx context.Context, j Job) error {
	s.log.Info().Str("job", j.Name).Dur("interval", j.Interval).Msg("trabajo periódico iniciado")
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Str("job", j.Name).Msg("trabajo periódico detenido")
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx, j)
		}
	}
}

// RunOnce ejecuta una iteración; los errores y pánicos se registran y no detienen el ciclo.
func (s *Scheduler) RunOnce(ctx context.Context, j Job) (n int, err error) {
	if s.locker != nil {
		lctx, cancel := context.WithTimeout(ctx, s.lockTTL)
		unlock, lerr := s.locker.Lock(lctx, "job:"+j.Name)
		cancel()
		if errors.Is(lerr, domain.ErrLockNotObtained) {
			s.log.Debug().Str("job", j.Name).Msg("otra instancia ejecuta el trabajo")
			return 0, nil
		}
		if lerr != nil {
			s.log.Error().Err(lerr).Str("job", j.Name).Msg("no se pudo tomar el candado del trabajo")
			return 0, lerr
		}
		defer unlock()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pánico en %s: %v", j.Name, r)
			s.log.Error().Str("job", j.Name).Interface("panic", r).Msg("trabajo periódico abortado")
		}
	}()

	start := time.Now()
	n, err = j.Run(ctx)
	ev := s.log.Debug()
	if n > 0 {
		ev = s.log.Info()
	}
	if err != nil && ctx.Err() == nil {
		ev = s.log.Error().Err(err)
	}
	ev.Str("job", j.Name).Int("processed", n).Dur("took", time.Since(start)).Msg("iteración de trabajo periódico")
	return n, err
}
