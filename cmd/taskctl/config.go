package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the taskctl configuration. Precedence: flags, TASKCTL_* env
// vars, the config file, defaults.
type Config struct {
	APIURL       string        `mapstructure:"api_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Timezone     string        `mapstructure:"timezone"`
	SettingsPath string        `mapstructure:"settings_path"`
}

const defaultAPIURL = "http://localhost:3000/api"

// homeDir returns the taskctl directory, ~/.taskctl.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskctl"
	}
	return filepath.Join(home, ".taskctl")
}

func loadConfig(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	v.SetDefault("api_url", defaultAPIURL)
	v.SetDefault("timeout", "10s")
	v.SetDefault("timezone", "")
	v.SetDefault("settings_path", filepath.Join(homeDir(), "settings.yaml"))

	v.SetEnvPrefix("TASKCTL")
	v.AutomaticEnv()

	if err := v.BindPFlag("api_url", cmd.Flags().Lookup("api-url")); err != nil {
		return nil, err
	}

	path, _ := cmd.Flags().GetString("config")
	explicit := path != ""
	if !explicit {
		path = filepath.Join(homeDir(), "config.yaml")
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		// The default file is optional; a named one is not.
		if _, statErr := os.Stat(path); explicit || statErr == nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
