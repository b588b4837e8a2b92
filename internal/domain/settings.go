package domain

import (
	"context"
	"time"
)

type BackoffSettings struct {
	Enabled      bool          `yaml:"enabled"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor"`
}

type SMTPSettings struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Settings are operator-wide defaults and credentials.
type Settings struct {
	Backoff         BackoffSettings `yaml:"backoff"`
	PageSpeedAPIKey string          `yaml:"pagespeed_api_key"`
	SendGridAPIKey  string          `yaml:"sendgrid_api_key"`
	SMTP            SMTPSettings    `yaml:"smtp"`
}

type SettingsProvider interface {
	Settings(ctx context.Context) (Settings, error)
}
