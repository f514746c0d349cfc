package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	DB struct {
		DSN string `yaml:"dsn"`
	} `yaml:"db"`
	Orders struct {
		// MaxActive is the default per-owner cap on PENDING orders.
		// Tiers map a permission tier name to a higher cap.
		MaxActive int            `yaml:"max_active"`
		Tiers     map[string]int `yaml:"tiers"`
		// MaxClaimed caps how many orders one assignee may hold at once.
		MaxClaimed int `yaml:"max_claimed"`
		// MinDurationHours/MaxDurationHours bound the requested expiry
		// window at creation.
		MinDurationHours int `yaml:"min_duration_hours"`
		MaxDurationHours int `yaml:"max_duration_hours"`
		// DeadlineHours is the claim-to-complete window.
		DeadlineHours int `yaml:"deadline_hours"`
		// PickupHours is the collection grace period after
		// completion/incomplete before forced deletion.
		PickupHours int `yaml:"pickup_hours"`
		// MaxItems caps the item quantity of a single order. 0 disables
		// the cap.
		MaxItems     int      `yaml:"max_items"`
		BlockedItems []string `yaml:"blocked_items"`
	} `yaml:"orders"`
	Mail struct {
		Enabled       bool `yaml:"enabled"`
		RetentionDays int  `yaml:"retention_days"`
	} `yaml:"mail"`
	Sweep struct {
		IntervalSeconds int64 `yaml:"interval_seconds"`
	} `yaml:"sweep"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if cfg.DB.DSN == "" {
		return errors.New("db.dsn is required")
	}
	if cfg.Orders.MinDurationHours > cfg.Orders.MaxDurationHours {
		return errors.New("orders.min_duration_hours exceeds max_duration_hours")
	}
	if cfg.Orders.DeadlineHours <= 0 || cfg.Orders.PickupHours <= 0 {
		return errors.New("orders.deadline_hours and orders.pickup_hours must be positive")
	}
	if cfg.Sweep.IntervalSeconds <= 0 {
		return errors.New("sweep.interval_seconds must be positive")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Orders.MaxActive == 0 {
		cfg.Orders.MaxActive = 3
	}
	if cfg.Orders.MaxClaimed == 0 {
		cfg.Orders.MaxClaimed = 3
	}
	if cfg.Orders.MinDurationHours == 0 {
		cfg.Orders.MinDurationHours = 48
	}
	if cfg.Orders.MaxDurationHours == 0 {
		cfg.Orders.MaxDurationHours = 168
	}
	if cfg.Orders.DeadlineHours == 0 {
		cfg.Orders.DeadlineHours = 72
	}
	if cfg.Orders.PickupHours == 0 {
		cfg.Orders.PickupHours = 500
	}
	if cfg.Orders.MaxItems == 0 {
		cfg.Orders.MaxItems = 256
	}
	if cfg.Mail.RetentionDays == 0 {
		cfg.Mail.RetentionDays = 30
	}
	if cfg.Sweep.IntervalSeconds == 0 {
		cfg.Sweep.IntervalSeconds = 60
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv("ORDERS_MAX_ACTIVE"); v != "" {
		cfg.Orders.MaxActive = atoiOr(cfg.Orders.MaxActive, v)
	}
	if v := os.Getenv("ORDERS_MAX_CLAIMED"); v != "" {
		cfg.Orders.MaxClaimed = atoiOr(cfg.Orders.MaxClaimed, v)
	}
	if v := os.Getenv("ORDERS_MIN_DURATION_HOURS"); v != "" {
		cfg.Orders.MinDurationHours = atoiOr(cfg.Orders.MinDurationHours, v)
	}
	if v := os.Getenv("ORDERS_MAX_DURATION_HOURS"); v != "" {
		cfg.Orders.MaxDurationHours = atoiOr(cfg.Orders.MaxDurationHours, v)
	}
	if v := os.Getenv("ORDERS_DEADLINE_HOURS"); v != "" {
		cfg.Orders.DeadlineHours = atoiOr(cfg.Orders.DeadlineHours, v)
	}
	if v := os.Getenv("ORDERS_PICKUP_HOURS"); v != "" {
		cfg.Orders.PickupHours = atoiOr(cfg.Orders.PickupHours, v)
	}
	if v := os.Getenv("ORDERS_MAX_ITEMS"); v != "" {
		cfg.Orders.MaxItems = atoiOr(cfg.Orders.MaxItems, v)
	}
	if v := os.Getenv("ORDERS_BLOCKED_ITEMS"); v != "" {
		cfg.Orders.BlockedItems = splitCommaList(v)
	}
	if v := os.Getenv("MAIL_ENABLED"); v != "" {
		cfg.Mail.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("MAIL_RETENTION_DAYS"); v != "" {
		cfg.Mail.RetentionDays = atoiOr(cfg.Mail.RetentionDays, v)
	}
	if v := os.Getenv("SWEEP_INTERVAL_SECONDS"); v != "" {
		cfg.Sweep.IntervalSeconds = atoi64Or(cfg.Sweep.IntervalSeconds, v)
	}
}

// MaxActiveFor resolves the per-owner cap for a permission tier. Unknown
// tiers fall back to the default; tiers are not additive, the highest
// matching value wins.
func (c *Config) MaxActiveFor(tier string) int {
	if tier != "" {
		if v, ok := c.Orders.Tiers[tier]; ok && v > c.Orders.MaxActive {
			return v
		}
	}
	return c.Orders.MaxActive
}

// ItemBlocked reports whether an item type is blacklisted for orders.
func (c *Config) ItemBlocked(itemType string) bool {
	for _, blocked := range c.Orders.BlockedItems {
		if strings.EqualFold(blocked, itemType) {
			return true
		}
	}
	return false
}

func splitCommaList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func atoiOr(fallback int, v string) int {
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func atoi64Or(fallback int64, v string) int64 {
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}
