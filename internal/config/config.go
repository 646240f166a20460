package config

import (
	"os"
	"strings"

	"codeberg.org/mutker/kscand/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel        = "info"
	defaultEventBufferSize = 64
	defaultChatterWindow   = 50
	defaultChatterBurst    = 3
	defaultHTTPAddr        = ":8590"
	defaultBroker          = "tcp://localhost:1883"
	defaultTopic           = "kscan/transitions"
	defaultGPIOChip        = "gpiochip0"
)

// LineConfig describes one physical scan line.
type LineConfig struct {
	Pin  uint32 `mapstructure:"pin"`
	Port string `mapstructure:"port"`
}

type Config struct {
	LogLevel string `mapstructure:"log_level"`

	// Matrix topology
	Rows        int          `mapstructure:"rows"`
	Cols        int          `mapstructure:"cols"`
	Multiplexed bool         `mapstructure:"multiplexed"`
	Lines       []LineConfig `mapstructure:"lines"`

	// Diagnostics
	EventBufferSize int    `mapstructure:"event_buffer_size"`
	ChatterWindowMS uint64 `mapstructure:"chatter_window_ms"`
	ChatterBurst    uint32 `mapstructure:"chatter_burst"`

	// Event bus
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`

	// Management API
	HTTPAddr string `mapstructure:"http_addr"`

	// GPIO
	GPIOChip string `mapstructure:"gpio_chip"`

	// Session recording
	Telemetry   bool   `mapstructure:"telemetry"`
	TelemetryDB string `mapstructure:"database"`
}

// Load reads configuration from flags, environment and the config file.
// Flags override file values; the file path itself can be overridden with
// the KSCAND_CONFIG environment variable.
func Load() (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("event_buffer_size", defaultEventBufferSize)
	v.SetDefault("chatter_window_ms", defaultChatterWindow)
	v.SetDefault("chatter_burst", defaultChatterBurst)
	v.SetDefault("http_addr", defaultHTTPAddr)
	v.SetDefault("broker", defaultBroker)
	v.SetDefault("topic", defaultTopic)
	v.SetDefault("client_id", "kscand")
	v.SetDefault("gpio_chip", defaultGPIOChip)
	v.SetDefault("telemetry", false)
	v.SetDefault("database", "/var/lib/kscand/sessions.db")

	flags := pflag.NewFlagSet("kscand", pflag.ContinueOnError)
	flags.String("log-level", "", "Log level (debug, info, warning, error)")
	flags.Int("event-buffer-size", 0, "Capacity of the transition event buffer")
	flags.Uint64("chatter-window-ms", 0, "Chatter detection window in milliseconds")
	flags.Uint32("chatter-burst", 0, "Transitions within the window that classify as chatter")
	flags.String("http-addr", "", "Management API listen address")
	flags.String("broker", "", "MQTT broker URL for the transition event bus")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	flags.Visit(func(f *pflag.Flag) {
		v.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
	})

	v.SetConfigName("kscand")
	v.SetConfigType("toml")
	v.AddConfigPath("/etc/kscand")
	v.AddConfigPath(".")
	if path := os.Getenv("KSCAND_CONFIG"); path != "" {
		v.SetConfigFile(path)
	}
	v.SetEnvPrefix("KSCAND")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file").
				WithData(err.Error())
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.EventBufferSize <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "event_buffer_size must be positive")
	}
	if c.ChatterWindowMS == 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "chatter_window_ms must be positive")
	}
	if c.ChatterBurst < 2 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "chatter_burst must be at least 2")
	}

	return nil
}
