package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultServerMode, cfg.Server.Mode)
	assert.Equal(t, DefaultMinYear, cfg.Pipeline.Window.MinYear)
	assert.Equal(t, DefaultMaxYear, cfg.Pipeline.Window.MaxYear)
	assert.Equal(t, DefaultAlpha, cfg.Pipeline.Alpha)
	assert.Equal(t, DefaultScoreWindowYears, cfg.Pipeline.ScoreWindowYears)
	assert.Equal(t, "disrupt:", cfg.Redis.KeyPrefix)
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Pipeline.Alpha = 0.25
	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 0.25, cfg.Pipeline.Alpha)
}

func TestApplyDefaults_NilConfigDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}
