package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/avatarbot/core/config"
	coredatabase "github.com/m3rciful/avatarbot/core/database"
	"github.com/m3rciful/avatarbot/internal/conversation"
	"github.com/m3rciful/avatarbot/internal/render"
)

// AvatarConfig controls how avatars are rendered and offered.
type AvatarConfig struct {
	BaseURL             string `yaml:"base_url" envconfig:"AVATAR_BASE_URL"`
	Format              string `yaml:"format" envconfig:"AVATAR_FORMAT"`
	FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds" envconfig:"AVATAR_FETCH_TIMEOUT_SECONDS"`
	MenuColumns         int    `yaml:"menu_columns" envconfig:"AVATAR_MENU_COLUMNS"`
}

// FetchTimeout returns the render timeout as a duration.
func (c AvatarConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// JournalConfig enables the Postgres generation journal.
type JournalConfig struct {
	Enabled  bool                `yaml:"enabled" envconfig:"JOURNAL_ENABLED"`
	Database coredatabase.Config `yaml:"database"`
}

// HealthConfig enables the probe server. An empty Listen disables it.
type HealthConfig struct {
	Listen string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Avatar  AvatarConfig  `yaml:"avatar"`
	Journal JournalConfig `yaml:"journal"`
	Health  HealthConfig  `yaml:"health"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads path, applies environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the configuration and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}

	if strings.TrimSpace(c.Avatar.BaseURL) == "" {
		c.Avatar.BaseURL = render.DefaultBaseURL
	}
	if strings.TrimSpace(c.Avatar.Format) == "" {
		c.Avatar.Format = render.DefaultFormat
	}
	c.Avatar.Format = strings.ToLower(strings.TrimSpace(c.Avatar.Format))
	switch {
	case c.Avatar.FetchTimeoutSeconds < 0:
		return fmt.Errorf("avatar.fetch_timeout_seconds must be >= 0")
	case c.Avatar.FetchTimeoutSeconds == 0:
		c.Avatar.FetchTimeoutSeconds = int(render.DefaultTimeout / time.Second)
	}
	switch {
	case c.Avatar.MenuColumns < 0:
		return fmt.Errorf("avatar.menu_columns must be >= 0")
	case c.Avatar.MenuColumns == 0:
		c.Avatar.MenuColumns = conversation.DefaultMenuColumns
	case c.Avatar.MenuColumns > maxMenuColumns:
		return fmt.Errorf("avatar.menu_columns must be <= %d", maxMenuColumns)
	}

	if c.Journal.Enabled {
		if err := c.Journal.Database.Validate(); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}
	c.Health.Listen = strings.TrimSpace(c.Health.Listen)
	return nil
}

// maxMenuColumns is the inline keyboard row limit Telegram enforces.
const maxMenuColumns = 8
