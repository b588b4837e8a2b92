package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

// StaticSettings is a domain.SettingsProvider backed by values loaded once at
// startup.
type StaticSettings struct {
	s domain.Settings
}

func NewStaticSettings(s domain.Settings) *StaticSettings {
	return &StaticSettings{s: s}
}

func (p *StaticSettings) Settings(_ context.Context) (domain.Settings, error) {
	return p.s, nil
}

// DefaultSettings builds settings from the environment.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		Backoff: domain.BackoffSettings{
			Enabled:      envBool("BACKOFF_ENABLED", true),
			InitialDelay: envMillis("BACKOFF_INITIAL_MS", 5*time.Minute),
			MaxDelay:     envMillis("BACKOFF_MAX_MS", time.Hour),
			Multiplier:   envFloat("BACKOFF_MULTIPLIER", 2),
			JitterFactor: envFloat("BACKOFF_JITTER", 0.1),
		},
		PageSpeedAPIKey: os.Getenv("PAGESPEED_API_KEY"),
		SendGridAPIKey:  os.Getenv("SENDGRID_API_KEY"),
		SMTP: domain.SMTPSettings{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587, 1),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     envOr("SMTP_FROM", "monitord@localhost"),
		},
	}
}

// LoadSettings overlays the YAML file at path on top of DefaultSettings.
// An empty path returns the env defaults.
func LoadSettings(path string) (domain.Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if s.Backoff.Multiplier < 1 {
		s.Backoff.Multiplier = 1
	}
	return s, nil
}
