package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cyborgian/internal/version"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment and an
// optional .env file.
type Config struct {
	DiscordToken      string        `env:"DISCORD_TOKEN"`
	Contact           string        `env:"CONTACT"`
	Locale            string        `env:"LOCALE" envDefault:"en-US"`
	SeparatorChar     string        `env:"SEPARATOR_CHAR" envDefault:"$"`
	DBPath            string        `env:"DB_PATH" envDefault:"data/cyborgian.db"`
	UserAgent         string        `env:"USER_AGENT"`
	APIBaseURL        string        `env:"API_BASE_URL" envDefault:"https://www.nationstates.net/cgi-bin/api.cgi"`
	APIInterval       time.Duration `env:"API_INTERVAL" envDefault:"650ms"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFile           string        `env:"LOG_FILE"`
	MetricsAddr       string        `env:"METRICS_ADDR"`
	PrimaryGuildID    string        `env:"PRIMARY_GUILD_ID"`
	SyncSlashCommands bool          `env:"SYNC_SLASH_COMMANDS" envDefault:"true"`
}

// New loads .env if present and parses the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Footer is appended to every rich reply.
func (c *Config) Footer() string {
	return fmt.Sprintf("%s %s · See /about", version.AppName, version.Version)
}

// Separator returns the prefix of free-text commands.
func (c *Config) Separator() string {
	return c.SeparatorChar
}

// Validate checks what every transport needs. Discord additionally needs
// a token; see ValidateDiscord.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.UserAgent) == "" {
		errs = append(errs, errors.New("USER_AGENT is not set"))
	}
	if c.APIInterval <= 0 {
		errs = append(errs, errors.New("API_INTERVAL must be positive"))
	}
	if strings.TrimSpace(c.SeparatorChar) == "" {
		errs = append(errs, errors.New("SEPARATOR_CHAR is empty"))
	}
	return errors.Join(errs...)
}

func (c *Config) ValidateDiscord() error {
	err := c.Validate()
	if strings.TrimSpace(c.DiscordToken) == "" {
		err = errors.Join(err, errors.New("DISCORD_TOKEN is not set"))
	}
	return err
}
