package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/weight-dispute-api/internal/infrastructure/memory"
	"github.com/jhoicas/weight-dispute-api/pkg/config"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
)

func memoryConfig(t *testing.T) *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "test", Name: "weight-dispute-api"},
		DB:      config.DBConfig{Driver: "memory"},
		Storage: config.StorageConfig{LocalDir: t.TempDir()},
		Redis:   config.RedisConfig{ZoneTTL: time.Hour},
		Dispute: config.DisputeConfig{
			ThresholdPercent:   5,
			GracePeriod:        7 * 24 * time.Hour,
			HighValueAmount:    500,
			SweepInterval:      time.Minute,
			SubmissionAttempts: 3,
			DimDivisor:         5000,
		},
		Fraud: config.FraudConfig{Window: 30 * 24 * time.Hour, ScoreThreshold: 0.7, Workers: 2, MinDisputes: 5, BulkThreshold: 10},
	}
}

func TestBuild_Memoria(t *testing.T) {
	c, err := Build(context.Background(), memoryConfig(t), logger.Nop())
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &memory.Store{}, c.Repos.Tx)
	assert.IsType(t, &memory.Locker{}, c.Locker)
	assert.NotNil(t, c.Manager)
	assert.NotNil(t, c.Detector)
	assert.NotNil(t, c.Reconciler)
	assert.NotNil(t, c.Analyzer)
	assert.NotNil(t, c.Shipments)
	assert.ElementsMatch(t, []string{"json", "xlsx", "pdf"}, c.Reconciler.Formats())
	assert.NotNil(t, c.Scheduler(logger.Nop()))

	eff, err := c.Settings.Effective(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 5.0, eff.ThresholdPercent)
}

func TestBuild_DriverInvalido(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.DB.Driver = "mysql"
	_, err := Build(context.Background(), cfg, logger.Nop())
	require.Error(t, err)
}
