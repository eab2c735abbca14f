package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 4, cfg.Game.MaxPlayers)
	assert.Equal(t, 2, cfg.Game.MinForceStart)
	assert.Equal(t, 30, cfg.Game.RoundTicks)
	assert.Equal(t, time.Second, cfg.Game.TickInterval)
	assert.Equal(t, 800, cfg.Canvas.Width)
	assert.Equal(t, 600, cfg.Canvas.Height)
	assert.False(t, cfg.AI.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("GAME_MAX_PLAYERS", "8")
	t.Setenv("GAME_TICK_INTERVAL", "250ms")
	t.Setenv("AI_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, 8, cfg.Game.MaxPlayers)
	assert.Equal(t, 250*time.Millisecond, cfg.Game.TickInterval)
	assert.True(t, cfg.AI.Enabled)
}

func TestGetDuration_BareSecondsAndGarbage(t *testing.T) {
	t.Setenv("AI_STAGE_TIMEOUT", "90")
	cfg := Load()
	assert.Equal(t, 90*time.Second, cfg.AI.StageTimeout)

	t.Setenv("AI_STAGE_TIMEOUT", "soon")
	cfg = Load()
	assert.Equal(t, 60*time.Second, cfg.AI.StageTimeout)
}
