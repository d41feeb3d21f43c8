package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the stopgen configuration file
// (~/.config/stopgen/config.yaml). Pointer fields distinguish "not set"
// from zero values; explicit CLI flags always win.
type Config struct {
	TokenizerJSON   string   `yaml:"tokenizer_json"`
	TokenizerConfig string   `yaml:"tokenizer_config"`
	StopStrings     []string `yaml:"stop_strings"`
	MaxLength       *int64   `yaml:"max_length"`
	MaxTimeMS       *int64   `yaml:"max_time_ms"`
	ServerAddress   string   `yaml:"server_address"`
	LogLevel        string   `yaml:"log_level"`
	LogFormat       string   `yaml:"log_format"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "stopgen", "config.yaml")
}

// LoadConfig reads the config file. Returns a zero Config if the file
// doesn't exist or cannot be parsed.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

// applyCommonConfig fills tokenizer and logging defaults from the config
// file when the corresponding CLI flag was not explicitly set.
func applyCommonConfig(c *cli.Command, cfg Config) {
	if cfg.TokenizerJSON != "" && !c.IsSet("tokenizer-json") {
		tokenizerJSONPath = cfg.TokenizerJSON
	}
	if cfg.TokenizerConfig != "" && !c.IsSet("tokenizer-config") {
		tokenizerConfig = cfg.TokenizerConfig
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyStopConfig merges config-file stop criteria into flag values.
func applyStopConfig(c *cli.Command, cfg Config, stops *[]string, maxLength *int64, maxTimeMS *int64) {
	if len(cfg.StopStrings) > 0 && !c.IsSet("stop") {
		*stops = cfg.StopStrings
	}
	if cfg.MaxLength != nil && !c.IsSet("max-length") {
		*maxLength = *cfg.MaxLength
	}
	if cfg.MaxTimeMS != nil && !c.IsSet("max-time-ms") {
		*maxTimeMS = *cfg.MaxTimeMS
	}
}
