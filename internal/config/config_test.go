package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{EnvLogLevel, EnvCapacity, EnvQueueType, EnvRedisAddr, EnvRedisMaxLen, EnvStressRate} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 100, cfg.Queue.Capacity)
	assert.Equal(t, "concurrent", cfg.Queue.Type)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, int64(1000), cfg.Redis.MaxLen)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvCapacity, "16")
	t.Setenv(EnvQueueType, "sequential")
	t.Setenv(EnvRedisAddr, "localhost:6379")
	t.Setenv(EnvRedisDB, "2")
	t.Setenv(EnvRedisMaxLen, "50")
	t.Setenv(EnvRedisTimeout, "2s")
	t.Setenv(EnvStressWorkers, "4")
	t.Setenv(EnvStressIterations, "1000")
	t.Setenv(EnvStressRate, "250.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 16, cfg.Queue.Capacity)
	assert.Equal(t, "sequential", cfg.Queue.Type)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, int64(50), cfg.Redis.MaxLen)
	assert.Equal(t, 2*time.Second, cfg.Redis.WriteTimeout)
	assert.Equal(t, 4, cfg.Stress.Workers)
	assert.Equal(t, 1000, cfg.Stress.Iterations)
	assert.InDelta(t, 250.5, cfg.Stress.Rate, 0.001)

	assert.Equal(t, logrus.DebugLevel, cfg.NewLogger().GetLevel())
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		EnvLogLevel:     "loud",
		EnvCapacity:     "many",
		EnvRedisTimeout: "soon",
		EnvStressRate:   "fast",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Queue.Capacity = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Queue.Type = "blocking"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Stress.Rate = -1
	assert.Error(t, cfg.Validate())
}
