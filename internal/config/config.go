package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"pricebook-recon/internal/reconcile/model"
)

// Config holds all configuration for the service and the CLI.
type Config struct {
	Server ServerConfig   `mapstructure:"server"`
	Log    LogConfig      `mapstructure:"log"`
	Diff   map[string]any `mapstructure:"diff"`
}

type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
	MaxUploadMB  int      `mapstructure:"max_upload_mb"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // пусто: только консоль
}

// Load reads config.yaml (optional) from the working directory or ./config,
// or the explicit file when path is set, then RECON_* environment variables.
// RECON_SERVER_PORT overrides server.port, RECON_DIFF_FUZZY_THRESHOLD overrides diff.fuzzy_threshold.
func Load(path string) (Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("RECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8082)
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 256)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/pricebook-recon.log")

	d := model.DefaultOptions()
	v.SetDefault("diff.exact_match_threshold", d.ExactMatchThreshold)
	v.SetDefault("diff.high_confidence_threshold", d.HighConfidenceThreshold)
	v.SetDefault("diff.medium_confidence_threshold", d.MediumConfidenceThreshold)
	v.SetDefault("diff.low_confidence_threshold", d.LowConfidenceThreshold)
	v.SetDefault("diff.review_threshold", d.ReviewThreshold)
	v.SetDefault("diff.enable_fuzzy_matching", d.EnableFuzzyMatching)
	v.SetDefault("diff.fuzzy_threshold", d.FuzzyThreshold)
	v.SetDefault("diff.fuzzy_scorer", d.FuzzyScorer)
}

func (c Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}
	_, err := c.DiffOptions()
	return err
}

// DiffOptions decodes the diff section into validated engine options.
func (c Config) DiffOptions() (model.Options, error) {
	return model.OptionsFromMap(c.Diff)
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port) }
