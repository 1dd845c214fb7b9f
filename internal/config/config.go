package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode         string        `mapstructure:"mode"`
	Port         int           `mapstructure:"port"`
	HTTPPort     int           `mapstructure:"http_port"`
	LogLevel     string        `mapstructure:"log_level"`
	ReadLimit    int           `mapstructure:"read_limit"`
	SendBuffer   int           `mapstructure:"send_buffer"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultNick  string        `mapstructure:"default_nick"`
	SlowConsumer string        `mapstructure:"slow_consumer"`
	Secret       string        `mapstructure:"secret"`
}

// New returns a viper instance with every default set and RELAY_* env
// overrides enabled. Callers may bind flags into it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 6461)
	v.SetDefault("http_port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 4096)
	v.SetDefault("send_buffer", 256)
	v.SetDefault("write_timeout", "5s")
	v.SetDefault("default_nick", "User")
	v.SetDefault("slow_consumer", "drop")
	v.SetDefault("secret", "relay-dev-secret")

	v.SetEnvPrefix("relay")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file (or config/config.<CONFIG_ENV>.yaml when file is empty)
// into v. A missing file is not an error; defaults apply.
func Load(v *viper.Viper, file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg("failed to read .env")
	}

	if file == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		file = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(file)

	if err := v.ReadInConfig(); err != nil {
		log.Info().Str("module", "config").Str("file", file).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", file).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Int("http_port", cfg.HTTPPort).Msg("config ready")
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port %d", c.HTTPPort)
	}
	if c.ReadLimit <= 0 {
		return fmt.Errorf("invalid read_limit %d", c.ReadLimit)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("invalid send_buffer %d", c.SendBuffer)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write_timeout %s", c.WriteTimeout)
	}
	switch c.SlowConsumer {
	case "drop", "disconnect":
	default:
		return fmt.Errorf("invalid slow_consumer %q", c.SlowConsumer)
	}
	return nil
}
