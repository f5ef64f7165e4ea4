package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Version   string          `yaml:"version" json:"version"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Game      GameConfig      `yaml:"game" json:"game"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	StaticDir string `yaml:"static_dir" json:"static_dir"`
	DevStatic bool   `yaml:"dev_static" json:"dev_static"`
}

type StorageConfig struct {
	Backend string `yaml:"backend" json:"backend"`
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

type GameConfig struct {
	TickMS           int     `yaml:"tick_ms" json:"tick_ms"`
	AutosaveMS       int     `yaml:"autosave_ms" json:"autosave_ms"`
	ClicksPerSecond  float64 `yaml:"clicks_per_second" json:"clicks_per_second"`
	ClickBurst       int     `yaml:"click_burst" json:"click_burst"`
	CatalogExtension string  `yaml:"catalog_extension" json:"catalog_extension"`
	SessionIdleS     int     `yaml:"session_idle_s" json:"session_idle_s"`
}

type TelemetryConfig struct {
	MaxEvents int `yaml:"max_events" json:"max_events"`
}

func (g *GameConfig) ApplyDefaults() {
	if g.TickMS <= 0 {
		g.TickMS = 100
	}
	if g.AutosaveMS <= 0 {
		g.AutosaveMS = 1000
	}
	if g.ClicksPerSecond <= 0 {
		g.ClicksPerSecond = 20
	}
	if g.ClickBurst <= 0 {
		g.ClickBurst = 40
	}
	if g.SessionIdleS <= 0 {
		g.SessionIdleS = 600
	}
}

func (g GameConfig) TickInterval() time.Duration {
	return time.Duration(g.TickMS) * time.Millisecond
}

func (g GameConfig) AutosaveInterval() time.Duration {
	return time.Duration(g.AutosaveMS) * time.Millisecond
}

// SessionIdleTTL is how long an unused player session stays in memory.
func (g GameConfig) SessionIdleTTL() time.Duration {
	return time.Duration(g.SessionIdleS) * time.Second
}

func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = ":42069"
	}
	if strings.TrimSpace(c.Server.StaticDir) == "" {
		c.Server.StaticDir = "static"
	}
	if strings.TrimSpace(c.Storage.Backend) == "" {
		c.Storage.Backend = "file"
	}
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		c.Storage.DataDir = "data"
	}
	c.Game.ApplyDefaults()
	if c.Telemetry.MaxEvents <= 0 {
		c.Telemetry.MaxEvents = 10000
	}
}

// Validate rejects settings that defaults cannot repair.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "file", "sqlite":
	default:
		return fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend)
	}
	if c.Game.AutosaveMS < c.Game.TickMS {
		return fmt.Errorf("game.autosave_ms (%d) must not be shorter than game.tick_ms (%d)", c.Game.AutosaveMS, c.Game.TickMS)
	}
	return nil
}

// Default is the configuration used when no config file exists.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Config
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	r.ApplyDefaults()
	return &r, nil
}
