// Package runtime wires the core packages (castlib, vm, dispatcher,
// timeout, builtins, trace) into the single control surface a host
// embeds: load a movie, drive its frame loop, and expose the handful of
// transport-level lifecycle verbs spec.md §4.7/§6 name.
//
// Grounded on the teacher's cmd/barn/main.go wiring shape (one binary
// assembling a db store, a VM, and a scheduler behind flags) and on
// config.go's viper-backed Config, generalized from "one flat struct of
// agent settings" to "movie playback settings."
package runtime

import (
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"

	"github.com/spf13/viper"
)

// Config is the runtime's own settings, independent of any one movie:
// network fetch behavior, default tempo override, and unknown-opcode
// tolerance. A movie's own Config chunk (stage size, its own tempo)
// always wins over these at load time; these are host-level defaults
// applied before a movie is loaded and fallbacks a movie's chunk leaves
// unset.
type Config struct {
	// BaseURL is prefixed onto every external cast's relative link path
	// before it reaches the Fetcher (mapstructure tag matches viper's
	// snake_case convention, same as the teacher's agent.yaml keys).
	BaseURL string `mapstructure:"base_url"`

	// FetchTimeoutSeconds bounds a single external-cast fetch.
	FetchTimeoutSeconds int `mapstructure:"fetch_timeout_seconds"`

	// DefaultTempo is used only if a movie's Config chunk reports a
	// nonpositive tempo.
	DefaultTempo int32 `mapstructure:"default_tempo"`

	// StepLimit bounds the VM's per-dispatch instruction budget; 0
	// disables the budget (spec.md §7 "configurable... 0 disables it").
	StepLimit int `mapstructure:"step_limit"`

	// UnknownOpcodeTolerance overrides the VM's per-handler distinct-
	// unknown-opcode budget before a dispatch aborts.
	UnknownOpcodeTolerance int `mapstructure:"unknown_opcode_tolerance"`

	// TraceEnabled/TraceFilters configure a zap-backed Tracer attached
	// to the VM at construction time.
	TraceEnabled bool     `mapstructure:"trace_enabled"`
	TraceFilters []string `mapstructure:"trace_filters"`

	// DebugListenAddr, if non-empty, starts a websocket debug-attach
	// server (trace/debugserver) on that address.
	DebugListenAddr string `mapstructure:"debug_listen_addr"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Default returns the runtime's baked-in defaults, the same role the
// teacher's config.Default plays for agent.yaml.
func Default() *Config {
	return &Config{
		FetchTimeoutSeconds:    30,
		DefaultTempo:           15,
		StepLimit:              2_000_000,
		UnknownOpcodeTolerance: 1,
		LogLevel:               "info",
		LogFormat:              "console",
	}
}

// Load reads cfgFile (or the platform config dir's shockplay.yaml/.toml/
// .json if cfgFile is empty) over Default, honoring SHOCKPLAY_-prefixed
// environment overrides.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("shockplay")
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("SHOCKPLAY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to cfgFile, or to the platform config dir's
// shockplay.yaml if cfgFile is empty.
func Save(cfg *Config, cfgFile string) error {
	v := viper.New()
	v.Set("base_url", cfg.BaseURL)
	v.Set("fetch_timeout_seconds", cfg.FetchTimeoutSeconds)
	v.Set("default_tempo", cfg.DefaultTempo)
	v.Set("step_limit", cfg.StepLimit)
	v.Set("unknown_opcode_tolerance", cfg.UnknownOpcodeTolerance)
	v.Set("trace_enabled", cfg.TraceEnabled)
	v.Set("trace_filters", cfg.TraceFilters)
	v.Set("debug_listen_addr", cfg.DebugListenAddr)
	v.Set("log_level", cfg.LogLevel)
	v.Set("log_format", cfg.LogFormat)

	path := cfgFile
	if path == "" {
		if err := os.MkdirAll(configDir(), 0o700); err != nil {
			return err
		}
		path = filepath.Join(configDir(), "shockplay.yaml")
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}

	if err := v.WriteConfigAs(path); err != nil {
		return err
	}
	return os.Chmod(path, 0o600)
}

func configDir() string {
	switch goruntime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("AppData"), "shockplay")
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "shockplay")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "shockplay")
		}
		return filepath.Join(os.Getenv("HOME"), ".config", "shockplay")
	}
}
