// This file defines the configuration structure for jobmon.
package config

import (
	"log"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration settings for jobmon.
// It maps directly to the structure of config.yml.
type Config struct {
	ServerURL        string `mapstructure:"server_url"`
	PollInterval     int    `mapstructure:"poll_interval"`      // seconds, fine-grained per-job polling
	ListPollInterval int    `mapstructure:"list_poll_interval"` // seconds, coarse active-job list polling
	RequestTimeout   int    `mapstructure:"request_timeout"`    // seconds, per status request
	Simulator        struct {
		Port          int `mapstructure:"port"`
		ChunkDuration int `mapstructure:"chunk_duration"` // milliseconds per simulated chunk
	} `mapstructure:"simulator"`
}

// PollEvery returns the fine-grained polling interval as a duration.
func (c *Config) PollEvery() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

// ListPollEvery returns the coarse list polling interval as a duration.
func (c *Config) ListPollEvery() time.Duration {
	return time.Duration(c.ListPollInterval) * time.Second
}

// Timeout returns the per-request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")

	// Environment variables with a "JOBMON_" prefix override file values,
	// e.g. JOBMON_SERVER_URL overrides the `server_url` key.
	viper.SetEnvPrefix("JOBMON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("server_url", "http://localhost:8080")
	viper.SetDefault("poll_interval", 2)
	viper.SetDefault("list_poll_interval", 10)
	viper.SetDefault("request_timeout", 15)
	viper.SetDefault("simulator.port", 8080)
	viper.SetDefault("simulator.chunk_duration", 1500)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error and use defaults
		} else {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Watch re-reads the config file whenever it changes on disk and hands the
// fresh Config to onChange. Interval changes picked up here only affect
// loops started afterwards.
func Watch(onChange func(*Config)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		var config Config
		if err := viper.Unmarshal(&config); err != nil {
			log.Printf("config: reload after %s failed: %v", e.Name, err)
			return
		}
		onChange(&config)
	})
	viper.WatchConfig()
}
