// Package config loads the daemon configuration from defaults, an optional
// YAML file and DRIVETIMER_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Poll               time.Duration `mapstructure:"poll"`
	Debounce           time.Duration `mapstructure:"debounce"`
	TickInterval       time.Duration `mapstructure:"tick_interval"`
	Heartbeat          time.Duration `mapstructure:"heartbeat"`
	ResetConfirmWindow time.Duration `mapstructure:"reset_confirm_window"`

	GPIO      GPIOConfig      `mapstructure:"gpio"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Rules     RulesConfig     `mapstructure:"rules"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// GPIOConfig selects the button and buzzer lines (BCM numbering)
type GPIOConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	PinDrive    int           `mapstructure:"pin_drive"`
	PinRest     int           `mapstructure:"pin_rest"`
	PinReset    int           `mapstructure:"pin_reset"`
	PinBuzzer   int           `mapstructure:"pin_buzzer"`
	BuzzerPulse time.Duration `mapstructure:"buzzer_pulse"`
}

// MQTTConfig defines the broker link
type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	BufferSize  int    `mapstructure:"buffer_size"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type               string        `mapstructure:"type"` // "bolt", "file" or "redis"
	Path               string        `mapstructure:"path"`
	CheckpointInterval time.Duration `mapstructure:"checkpoint_interval"`
}

// RedisConfig defines the redis backend connection
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// RulesConfig holds the first-run settings. A restored record wins.
type RulesConfig struct {
	Jurisdiction   string `mapstructure:"jurisdiction"`
	CompactDisplay bool   `mapstructure:"compact_display"`
}

// HTTPConfig defines the status server
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// DiscoveryConfig defines mDNS advertisement
type DiscoveryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Instance string `mapstructure:"instance"`
	Service  string `mapstructure:"service"`
	Domain   string `mapstructure:"domain"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load loads configuration from file and environment variables. An empty
// configPath or a missing file falls back to defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("drive-timer")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/drive-timer")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("DRIVETIMER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// isMissingFile reports a missing explicit --config path, which viper
// surfaces as an fs error rather than ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("poll", 100*time.Millisecond)
	v.SetDefault("debounce", 50*time.Millisecond)
	v.SetDefault("tick_interval", 100*time.Millisecond)
	v.SetDefault("heartbeat", 15*time.Minute)
	v.SetDefault("reset_confirm_window", 3*time.Second)

	v.SetDefault("gpio.enabled", true)
	v.SetDefault("gpio.pin_drive", 17)
	v.SetDefault("gpio.pin_rest", 27)
	v.SetDefault("gpio.pin_reset", 22)
	v.SetDefault("gpio.pin_buzzer", 18)
	v.SetDefault("gpio.buzzer_pulse", 400*time.Millisecond)

	v.SetDefault("mqtt.enabled", true)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic_prefix", "drivetimer")
	v.SetDefault("mqtt.buffer_size", 1000)

	v.SetDefault("storage.type", "bolt")
	v.SetDefault("storage.path", "/var/lib/drive-timer/state.bolt")
	v.SetDefault("storage.checkpoint_interval", time.Duration(0))

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "drivetimer:")
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("rules.jurisdiction", "standard")
	v.SetDefault("rules.compact_display", false)

	v.SetDefault("http.addr", ":80")

	v.SetDefault("discovery.enabled", true)
	v.SetDefault("discovery.instance", "drive-timer")
	v.SetDefault("discovery.service", "_drivetimer._tcp")
	v.SetDefault("discovery.domain", "local.")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Poll <= 0 {
		return fmt.Errorf("poll must be positive, got %s", cfg.Poll)
	}
	if cfg.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative, got %s", cfg.Debounce)
	}
	if cfg.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", cfg.TickInterval)
	}
	if cfg.Heartbeat < 0 {
		return fmt.Errorf("heartbeat must not be negative, got %s", cfg.Heartbeat)
	}
	if cfg.Storage.CheckpointInterval < 0 {
		return fmt.Errorf("storage.checkpoint_interval must not be negative, got %s", cfg.Storage.CheckpointInterval)
	}

	switch cfg.Storage.Type {
	case "bolt", "file":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required for %s storage", cfg.Storage.Type)
		}
	case "redis":
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for redis storage")
		}
	default:
		return fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Rules.Jurisdiction)) {
	case "standard", "domestic":
	default:
		return fmt.Errorf("unknown jurisdiction %q", cfg.Rules.Jurisdiction)
	}

	if cfg.MQTT.Enabled {
		if cfg.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
		}
		if cfg.MQTT.TopicPrefix == "" {
			return fmt.Errorf("mqtt.topic_prefix is required when mqtt is enabled")
		}
	}
	if cfg.MQTT.BufferSize < 0 {
		return fmt.Errorf("mqtt.buffer_size must not be negative")
	}

	switch cfg.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown logging format %q", cfg.Logging.Format)
	}

	return nil
}
