package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Bot      BotConfig      `yaml:"bot"`
	Sheet    SheetConfig    `yaml:"sheet"`
	Storage  StorageConfig  `yaml:"storage"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
	Refresh  RefreshConfig  `yaml:"refresh"`
}

// ServerConfig holds HTTP listen settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// BotConfig holds Telegram bot settings.
type BotConfig struct {
	Token        string   `yaml:"token"`
	ChannelID    int64    `yaml:"channel_id"`
	AdminIDs     []int64  `yaml:"admin_ids"`
	AdminContact string   `yaml:"admin_contact"`
	RateLimit    Duration `yaml:"rate_limit"`
	QueueSize    int      `yaml:"queue_size"`
}

// SheetConfig holds the spreadsheet source settings.
type SheetConfig struct {
	ID      string   `yaml:"id"`
	Tabs    []string `yaml:"tabs"`
	BaseURL string   `yaml:"base_url"`
}

// StorageConfig holds the local snapshot settings.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// SecurityConfig holds webhook request limiting.
type SecurityConfig struct {
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RefreshConfig controls the scheduled sheet reload.
type RefreshConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
}

// Duration is a wrapper around time.Duration that supports YAML parsing
// from strings like "10s" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*d = Duration(0)
		return nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		*d = Duration(td)
		return nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(f * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration value: %q", node.Value)
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	addr := c.Server.Address
	port := c.Server.Port
	if port == 0 {
		if addr != "" {
			return addr
		}
		return ":8080"
	}
	return fmt.Sprintf("%s:%d", addr, port)
}
