package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePairs(t *testing.T) {
	got := ParsePairs(" Velocity=api, ekart = email ,invalido, =x,delhivery=xml")
	assert.Equal(t, map[string]string{
		"velocity":  "api",
		"ekart":     "email",
		"delhivery": "xml",
	}, got)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("DISPUTE_THRESHOLD_PERCENT", "7.5")
	t.Setenv("DISPUTE_GRACE_PERIOD", "48h")
	t.Setenv("WEBHOOK_TOKENS", "velocity=abc")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.Equal(t, 7.5, cfg.Dispute.ThresholdPercent)
	assert.Equal(t, 48*time.Hour, cfg.Dispute.GracePeriod)
	assert.Equal(t, 3, cfg.Dispute.SubmissionAttempts)
	assert.Equal(t, 0.7, cfg.Fraud.ScoreThreshold)
	assert.Equal(t, 30*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, 30*time.Minute, cfg.Redis.JobLockTTL)
	assert.Equal(t, "abc", cfg.Webhook.Tokens["velocity"])
}

func TestLoad_DriverInvalido(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	_, err := Load()
	require.Error(t, err)
}
