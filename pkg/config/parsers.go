package config

import (
	"flag"
	"os"
	"time"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// EffectiveConfigResult is the merged configuration the app runs with,
// plus where each top-level value came from ("flags", "config", "env",
// or "defaults").
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	Source string
}

// ParseConfigFlags parses command-line flags and returns them as a Flags struct.
func ParseConfigFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.snapshot", "Snapshot DB path (empty disables the snapshot)")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: setFlags}
}

// ResolveConfigPath returns the config path, honoring an explicit flag
// over the BOTTELE_CONFIG env var over the default.
func ResolveConfigPath(flagVal string, flagSet bool) string {
	if flagSet {
		return flagVal
	}
	if env := os.Getenv("BOTTELE_CONFIG"); env != "" {
		return env
	}
	return flagVal
}

// LoadEffective merges the config file (when present), environment
// overrides, and flags into the effective configuration. Flags win over
// env, env wins over file. A missing config file is not an error.
func LoadEffective(flags Flags) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])

	cfg, err := Load(cfgPath)
	source := "config"
	if err != nil {
		if !os.IsNotExist(err) {
			return res, err
		}
		cfg = &Config{}
		source = "defaults"
	}

	if ApplyEnv(cfg) {
		source = "env"
	}

	addr := cfg.Addr()
	if flags.Set["addr"] {
		addr = flags.Addr
		source = "flags"
	}
	dbPath := cfg.Storage.DBPath
	if dbPath == "" || flags.Set["db"] {
		dbPath = flags.DB
	}

	applyDefaults(cfg)

	res = EffectiveConfigResult{Config: cfg, Addr: addr, DBPath: dbPath, Source: source}
	return res, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.RateLimit.Duration() == 0 {
		cfg.Bot.RateLimit = Duration(10 * time.Second)
	}
	if cfg.Bot.QueueSize <= 0 {
		cfg.Bot.QueueSize = 1024
	}
	if cfg.Bot.AdminContact == "" {
		cfg.Bot.AdminContact = "t.me/A911Studio"
	}
	if len(cfg.Sheet.Tabs) == 0 {
		cfg.Sheet.Tabs = []string{"1"}
	}
	if cfg.Security.RateLimit.RPS <= 0 {
		cfg.Security.RateLimit.RPS = 20
	}
	if cfg.Security.RateLimit.Burst <= 0 {
		cfg.Security.RateLimit.Burst = 40
	}
}
