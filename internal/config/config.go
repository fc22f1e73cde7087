// Package config loads switchboard.yaml and SWITCHBOARD_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (SWITCHBOARD_ROUTER_MAX_DEPTH).
const EnvPrefix = "SWITCHBOARD"

// DefaultFile is the config file name searched in the working directory.
const DefaultFile = "switchboard.yaml"

// Config is the full runtime configuration.
type Config struct {
	Log          LogConfig          `mapstructure:"log"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Router       RouterConfig       `mapstructure:"router"`
	Bridge       BridgeConfig       `mapstructure:"bridge"`
	Store        StoreConfig        `mapstructure:"store"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Generator    GeneratorConfig    `mapstructure:"generator"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type OrchestratorConfig struct {
	MaxConcurrentHandlers int           `mapstructure:"max_concurrent_handlers"`
	MaxIntentBytes        int           `mapstructure:"max_intent_bytes"`
	HandlerTimeout        time.Duration `mapstructure:"handler_timeout"`
}

type RouterConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	MaxDepth  int    `mapstructure:"max_depth"`
	RulesFile string `mapstructure:"rules_file"`
}

// BridgeConfig selects where bridged commands go.
// Confirm asks on the terminal before any bridged action runs (interactive sessions only).
type BridgeConfig struct {
	Kind       string        `mapstructure:"kind"`
	ConfigFile string        `mapstructure:"config_file"`
	URL        string        `mapstructure:"url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Confirm    bool          `mapstructure:"confirm"`
}

// StoreConfig selects the task store. Redact lists key patterns masked before tasks are stored.
type StoreConfig struct {
	Kind   string        `mapstructure:"kind"`
	DSN    string        `mapstructure:"dsn"`
	TTL    time.Duration `mapstructure:"ttl"`
	Redact []string      `mapstructure:"redact"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// RedisConfig is shared by the redis task store and the event relay.
// An empty Channel disables the relay.
type RedisConfig struct {
	Addr    string `mapstructure:"addr"`
	Channel string `mapstructure:"channel"`
	Prefix  string `mapstructure:"prefix"`
}

type GeneratorConfig struct {
	Kind   string `mapstructure:"kind"`
	Model  string `mapstructure:"model"`
	APIKey string `mapstructure:"api_key"`
}

// Kinds accepted by the bridge, store and generator sections.
const (
	BridgeMemory  = "memory"
	BridgeProcess = "process"
	BridgeHTTP    = "http"

	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"

	GeneratorPassthrough = "passthrough"
	GeneratorGenAI       = "genai"
)

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Orchestrator: OrchestratorConfig{
			MaxConcurrentHandlers: 1,
			MaxIntentBytes:        1 << 20,
		},
		Router: RouterConfig{Enabled: true, MaxDepth: 4},
		Bridge: BridgeConfig{
			Kind:       BridgeMemory,
			ConfigFile: "bridge.yaml",
			Timeout:    30 * time.Second,
		},
		Store: StoreConfig{
			Kind:   StoreMemory,
			Redact: []string{"(?i)password", "(?i)secret", "(?i)token"},
		},
		HTTP:      HTTPConfig{Addr: ":8080"},
		Redis:     RedisConfig{Addr: "localhost:6379"},
		Generator: GeneratorConfig{Kind: GeneratorPassthrough, Model: "gemini-2.5-flash"},
	}
}

// SetDefaults registers Default() values on v so env overrides and Unmarshal see every key.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("orchestrator.max_concurrent_handlers", d.Orchestrator.MaxConcurrentHandlers)
	v.SetDefault("orchestrator.max_intent_bytes", d.Orchestrator.MaxIntentBytes)
	v.SetDefault("orchestrator.handler_timeout", d.Orchestrator.HandlerTimeout)

	v.SetDefault("router.enabled", d.Router.Enabled)
	v.SetDefault("router.max_depth", d.Router.MaxDepth)
	v.SetDefault("router.rules_file", d.Router.RulesFile)

	v.SetDefault("bridge.kind", d.Bridge.Kind)
	v.SetDefault("bridge.config_file", d.Bridge.ConfigFile)
	v.SetDefault("bridge.url", d.Bridge.URL)
	v.SetDefault("bridge.timeout", d.Bridge.Timeout)
	v.SetDefault("bridge.confirm", d.Bridge.Confirm)

	v.SetDefault("store.kind", d.Store.Kind)
	v.SetDefault("store.dsn", d.Store.DSN)
	v.SetDefault("store.ttl", d.Store.TTL)
	v.SetDefault("store.redact", d.Store.Redact)

	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.channel", d.Redis.Channel)
	v.SetDefault("redis.prefix", d.Redis.Prefix)

	v.SetDefault("generator.kind", d.Generator.Kind)
	v.SetDefault("generator.model", d.Generator.Model)
	v.SetDefault("generator.api_key", d.Generator.APIKey)
}

// New returns a viper instance with defaults and env binding.
// If path is empty, switchboard.yaml is looked up in the working directory and is optional.
func New(path string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFile, ".yaml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("generator.api_key", EnvPrefix+"_GENERATOR_API_KEY", "GEMINI_API_KEY")
	return v
}

// Load reads the config file (if any), unmarshals and validates.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}
