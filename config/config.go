package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/CIDgravity/snakelet"
	"github.com/DyDxdYdX/portfolio-stats/model"
)

// config structure
type Config struct {
	API     APIConfig     `mapstructure:"API"`
	Tasks   TasksConfig   `mapstructure:"TASKS"`
	Logs    LogsConfig    `mapstructure:"LOGS"`
	Github  GithubConfig  `mapstructure:"GITHUB"`
	Badges  BadgesConfig  `mapstructure:"BADGES"`
	Contact ContactConfig `mapstructure:"CONTACT"`
}

type APIConfig struct {
	ListenPort string `mapstructure:"ListenPort"`
}

type TasksConfig struct {
	MaxParallelTasksAllowed int `mapstructure:"MaxParallelTasksAllowed"`
}

type LogsConfig struct {
	Level            string `mapstructure:"Level"` // error | warn | info | debug - case insensitive
	OutputLogsAsJSON bool   `mapstructure:"OutputLogsAsJson"`
}

type GithubConfig struct {
	Username string `mapstructure:"Username"`
	Token    string `mapstructure:"Token"` // optional, overridden by GITHUB_TOKEN env
}

type BadgesConfig struct {
	OutputDir         string   `mapstructure:"OutputDir"`
	Themes            []string `mapstructure:"Themes"`
	PrimaryTheme      string   `mapstructure:"PrimaryTheme"` // written without theme suffix
	RevalidateSeconds int      `mapstructure:"RevalidateSeconds"` // 0 disables the rendered badge cache
	Decimals          int      `mapstructure:"Decimals"`
	MinPercent        float64  `mapstructure:"MinPercent"` // languages below this share are left out
}

type ContactConfig struct {
	Endpoint         string `mapstructure:"Endpoint"`
	FallbackEndpoint string `mapstructure:"FallbackEndpoint"` // empty means same as Endpoint
	TimeoutSeconds   int    `mapstructure:"TimeoutSeconds"`
}

// Load
func Load() (*Config, error) {
	dir, err := filepath.Abs(filepath.Dir(os.Args[0]))

	if err != nil {
		return nil, err
	}

	// check config file exists
	configFilePath := dir + "/config/config.toml"

	if _, err := os.Stat(configFilePath); errors.Is(err, os.ErrNotExist) {
		if _, err := os.Stat("config/config.toml"); errors.Is(err, os.ErrNotExist) {
			return nil, err
		} else {
			configFilePath = "config/config.toml"
		}
	}

	// load default and config file content
	cfg := GetDefault()
	_, err = snakelet.InitAndLoad(cfg, configFilePath)

	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvironment()
	return cfg, nil
}

// ApplyEnvironment the token is a secret, prefer the environment (or .env) over the config file
func (c *Config) ApplyEnvironment() {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		c.Github.Token = token
	}
}

// GetDefault
func GetDefault() *Config {
	return &Config{
		API: APIConfig{
			ListenPort: "5000",
		},
		Tasks: TasksConfig{
			MaxParallelTasksAllowed: 8,
		},
		Logs: LogsConfig{
			Level:            "debug",
			OutputLogsAsJSON: false,
		},
		Github: GithubConfig{
			Username: "DyDxdYdX",
		},
		Badges: BadgesConfig{
			OutputDir:         "public/github-stats",
			Themes:            []string{"radical", "dark", "default"},
			PrimaryTheme:      "radical",
			RevalidateSeconds: 3600,
			Decimals:          model.BadgePolicy.Decimals,
			MinPercent:        model.BadgePolicy.MinPercent,
		},
		Contact: ContactConfig{
			TimeoutSeconds: 15,
		},
	}
}

// Revalidate is the cache lifetime hint for rendered badges
func (c BadgesConfig) Revalidate() time.Duration {
	return time.Duration(c.RevalidateSeconds) * time.Second
}

// Policy is the rounding and visibility threshold applied to badge percentages
func (c BadgesConfig) Policy() model.PercentagePolicy {
	return model.PercentagePolicy{Decimals: c.Decimals, MinPercent: c.MinPercent}
}

// Timeout applies to each contact transport attempt
func (c ContactConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// FallbackURL returns the endpoint used for the fallback transport
func (c ContactConfig) FallbackURL() string {
	if c.FallbackEndpoint != "" {
		return c.FallbackEndpoint
	}

	return c.Endpoint
}
