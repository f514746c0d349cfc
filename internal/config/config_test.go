package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalYAML = `
server:
  addr: ":8080"
db:
  dsn: "postgres://localhost/jobboard"
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Orders.MaxActive)
	assert.Equal(t, 3, cfg.Orders.MaxClaimed)
	assert.Equal(t, 48, cfg.Orders.MinDurationHours)
	assert.Equal(t, 168, cfg.Orders.MaxDurationHours)
	assert.Equal(t, 72, cfg.Orders.DeadlineHours)
	assert.Equal(t, 500, cfg.Orders.PickupHours)
	assert.Equal(t, 256, cfg.Orders.MaxItems)
	assert.Equal(t, 30, cfg.Mail.RetentionDays)
	assert.Equal(t, int64(60), cfg.Sweep.IntervalSeconds)
}

func TestLoadExplicitValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  addr: ":9999"
db:
  dsn: "postgres://localhost/jobboard"
orders:
  max_active: 5
  tiers:
    vip: 8
  deadline_hours: 24
  blocked_items: [bedrock, barrier]
mail:
  enabled: true
  retention_days: 7
sweep:
  interval_seconds: 15
`))
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.Orders.MaxActive)
	assert.Equal(t, 24, cfg.Orders.DeadlineHours)
	assert.True(t, cfg.Mail.Enabled)
	assert.Equal(t, 7, cfg.Mail.RetentionDays)
	assert.Equal(t, int64(15), cfg.Sweep.IntervalSeconds)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":7777")
	t.Setenv("ORDERS_MAX_ACTIVE", "9")
	t.Setenv("ORDERS_BLOCKED_ITEMS", "bedrock, command_block")

	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, 9, cfg.Orders.MaxActive)
	assert.Equal(t, []string{"bedrock", "command_block"}, cfg.Orders.BlockedItems)
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(writeConfig(t, `
db:
  dsn: "postgres://localhost/jobboard"
`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `
server:
  addr: ":8080"
db:
  dsn: "postgres://localhost/jobboard"
orders:
  min_duration_hours: 200
  max_duration_hours: 100
`))
	assert.Error(t, err)
}

func TestMaxActiveFor(t *testing.T) {
	cfg := &Config{}
	cfg.Orders.MaxActive = 3
	cfg.Orders.Tiers = map[string]int{"vip": 5, "lesser": 1}

	assert.Equal(t, 3, cfg.MaxActiveFor(""))
	assert.Equal(t, 3, cfg.MaxActiveFor("unknown"))
	assert.Equal(t, 5, cfg.MaxActiveFor("vip"))
	// A tier never lowers the default cap.
	assert.Equal(t, 3, cfg.MaxActiveFor("lesser"))
}

func TestItemBlocked(t *testing.T) {
	cfg := &Config{}
	cfg.Orders.BlockedItems = []string{"bedrock", "Barrier"}

	assert.True(t, cfg.ItemBlocked("bedrock"))
	assert.True(t, cfg.ItemBlocked("barrier"))
	assert.False(t, cfg.ItemBlocked("iron_ingot"))
}
