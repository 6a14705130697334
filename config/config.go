// Package config loads mdparam settings from mdparam.yaml, MDPARAM_* environment
// variables and defaults.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	SourceWinmd   = "winmd"
	SourceSqlite  = "sqlite"
	SourceFixture = "fixture"
)

type Config struct {
	Source SourceConfig `mapstructure:"source"`
	Filter FilterConfig `mapstructure:"filter"`
	Output OutputConfig `mapstructure:"output"`
	Log    LogConfig    `mapstructure:"log"`
}

type SourceConfig struct {
	Kind   string `mapstructure:"kind"`
	Path   string `mapstructure:"path"`
	Module string `mapstructure:"module"` // sqlite only
}

type FilterConfig struct {
	Namespaces []string `mapstructure:"namespaces"`
	Dlls       []string `mapstructure:"dlls"`
}

type OutputConfig struct {
	Tokens bool `mapstructure:"tokens"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("source.kind", "")
	v.SetDefault("source.path", "")
	v.SetDefault("source.module", "")
	v.SetDefault("filter.namespaces", []string{})
	v.SetDefault("filter.dlls", []string{})
	v.SetDefault("output.tokens", false)
	v.SetDefault("log.level", "info")

	v.SetConfigName("mdparam")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MDPARAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file named by file, or mdparam.yaml in the working
// directory if file is empty. A missing default file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || file != "" {
			return nil, errors.Wrap(err, "read config file")
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = guessKind(cfg.Source.Path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func guessKind(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".winmd"):
		return SourceWinmd
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return SourceFixture
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"):
		return SourceSqlite
	}
	return ""
}

func (this *Config) Validate() error {
	switch this.Source.Kind {
	case SourceWinmd, SourceSqlite, SourceFixture:
	case "":
		return errors.Errorf("source.kind is required when source.path %q has no known extension", this.Source.Path)
	default:
		return errors.Errorf("source.kind must be one of winmd, sqlite, fixture, got %q", this.Source.Kind)
	}
	if this.Source.Path == "" {
		return errors.New("source.path is required")
	}
	switch this.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("log.level must be debug, info, warn or error, got %q", this.Log.Level)
	}
	return nil
}
