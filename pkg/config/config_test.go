package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  address: "127.0.0.1"
  port: 9000
bot:
  token: "abc123"
  channel_id: -1001234567890
  admin_ids: [111, 222]
  rate_limit: 5s
sheet:
  id: "sheet-xyz"
  tabs: ["tab1", "tab2"]
logging:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
	if cfg.Bot.Token != "abc123" || cfg.Bot.ChannelID != -1001234567890 {
		t.Fatalf("unexpected bot config: %+v", cfg.Bot)
	}
	if len(cfg.Bot.AdminIDs) != 2 || cfg.Bot.AdminIDs[1] != 222 {
		t.Fatalf("unexpected admins: %v", cfg.Bot.AdminIDs)
	}
	if cfg.Bot.RateLimit.Duration() != 5*time.Second {
		t.Fatalf("unexpected rate limit: %v", cfg.Bot.RateLimit.Duration())
	}
	if len(cfg.Sheet.Tabs) != 2 {
		t.Fatalf("unexpected tabs: %v", cfg.Sheet.Tabs)
	}
}

func TestDurationNumericSeconds(t *testing.T) {
	path := writeConfig(t, "bot:\n  rate_limit: 15\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Bot.RateLimit.Duration() != 15*time.Second {
		t.Fatalf("numeric rate_limit parsed as %v", cfg.Bot.RateLimit.Duration())
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("CHANNEL_ID", "-100999")
	t.Setenv("ADMIN_IDS", "1, 2,bad, 3")
	t.Setenv("RATE_LIMIT_SECONDS", "2.5")
	t.Setenv("SHEET_TABS", "a, b")

	cfg := &Config{}
	cfg.Bot.Token = "file-token"
	if !ApplyEnv(cfg) {
		t.Fatalf("expected env to be applied")
	}
	if cfg.Bot.Token != "env-token" {
		t.Fatalf("env must win over file, got %q", cfg.Bot.Token)
	}
	if cfg.Bot.ChannelID != -100999 {
		t.Fatalf("unexpected channel id %d", cfg.Bot.ChannelID)
	}
	if len(cfg.Bot.AdminIDs) != 3 {
		t.Fatalf("malformed admin entries must be skipped: %v", cfg.Bot.AdminIDs)
	}
	if cfg.Bot.RateLimit.Duration() != 2500*time.Millisecond {
		t.Fatalf("unexpected rate limit: %v", cfg.Bot.RateLimit.Duration())
	}
	if len(cfg.Sheet.Tabs) != 2 || cfg.Sheet.Tabs[1] != "b" {
		t.Fatalf("unexpected tabs: %v", cfg.Sheet.Tabs)
	}
}

func TestParseIDList(t *testing.T) {
	ids := ParseIDList(" 10,20 ,, x, 30")
	if len(ids) != 3 || ids[0] != 10 || ids[2] != 30 {
		t.Fatalf("unexpected ids: %v", ids)
	}
}
