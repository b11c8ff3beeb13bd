// Package config loads pagepool's YAML configuration via viper,
// falling back to sane defaults when no file is given.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config is the root configuration shape for bufpoolctl.
type Config struct {
	Pool struct {
		Frames int `mapstructure:"frames"`
	} `mapstructure:"pool"`
	Storage struct {
		Dir  string `mapstructure:"dir"`
		Base string `mapstructure:"base"`
	} `mapstructure:"storage"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// Load reads configuration from path. An empty path skips reading a
// file entirely and returns the defaults. A path that does not exist
// is also tolerated, on the theory that a fresh checkout should still
// run with reasonable defaults rather than failing to start.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("pool.frames", 128)
	v.SetDefault("storage.dir", "./data")
	v.SetDefault("storage.base", "pool")
	v.SetDefault("log.level", "info")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
