package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file from path and returns the parsed Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyEnv overlays environment variables onto cfg. Env values win over
// file values so deployments can keep secrets out of the config file.
// Returns true when at least one env var was applied.
func ApplyEnv(cfg *Config) bool {
	used := false
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
		used = true
	}
	if v := os.Getenv("CHANNEL_ID"); v != "" {
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.Bot.ChannelID = id
			used = true
		}
	}
	if v := os.Getenv("ADMIN_IDS"); v != "" {
		if ids := ParseIDList(v); len(ids) > 0 {
			cfg.Bot.AdminIDs = ids
			used = true
		}
	}
	if v := os.Getenv("ADMIN_CONTACT"); v != "" {
		cfg.Bot.AdminContact = v
		used = true
	}
	if v := os.Getenv("RATE_LIMIT_SECONDS"); v != "" {
		if secs, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && secs >= 0 {
			cfg.Bot.RateLimit = Duration(time.Duration(secs * float64(time.Second)))
			used = true
		}
	}
	if v := os.Getenv("SHEET_ID"); v != "" {
		cfg.Sheet.ID = v
		used = true
	}
	if v := os.Getenv("SHEET_TABS"); v != "" {
		cfg.Sheet.Tabs = splitList(v)
		used = true
	}
	if v := os.Getenv("BOTTELE_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
		used = true
	}
	if v := os.Getenv("BOTTELE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
		used = true
	}
	return used
}

// ParseIDList parses a comma-separated list of numeric Telegram ids.
// Malformed entries are skipped.
func ParseIDList(s string) []int64 {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
