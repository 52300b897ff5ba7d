package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"androbot/internal/domain"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Catalog struct {
		TTL string `yaml:"ttl"`
	} `yaml:"catalog"`
	Logger LoggerConfig `yaml:"logger"`
	Bot    BotConfig    `yaml:"bot"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

// BotConfig narrows the closed sets of the bot. Empty lists mean everything is active.
type BotConfig struct {
	Specialties []string `yaml:"specialties"`
	AnswerModes []string `yaml:"answer_modes"`
	Exclusion   string   `yaml:"exclusion"`
}

// Load reads YAML config from path and applies environment overrides. A missing file yields
// the defaults plus overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"PORT", &cfg.Server.Port},
		{"POSTGRES_URL", &cfg.Postgres.URL},
		{"REDIS_ADDR", &cfg.Redis.Addr},
		{"REDIS_PASSWORD", &cfg.Redis.Password},
		{"LOG_LEVEL", &cfg.Logger.Level},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.env); ok && v != "" {
			*o.target = v
		}
	}
}

// Validate rejects bot subsets that name something outside the closed sets.
func (c Config) Validate() error {
	if _, err := c.Bot.ActiveSpecialties(); err != nil {
		return err
	}
	if _, err := c.Bot.ActiveAnswerModes(); err != nil {
		return err
	}
	switch c.Bot.Exclusion {
	case "", "session", "lifetime":
	default:
		return fmt.Errorf("bot.exclusion: unknown policy %q", c.Bot.Exclusion)
	}
	return nil
}

func (b BotConfig) ActiveSpecialties() ([]domain.Specialty, error) {
	if len(b.Specialties) == 0 {
		return domain.Specialties, nil
	}
	out := make([]domain.Specialty, 0, len(b.Specialties))
	for _, raw := range b.Specialties {
		s, err := domain.ParseSpecialty(raw)
		if err != nil {
			return nil, fmt.Errorf("bot.specialties: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (b BotConfig) ActiveAnswerModes() ([]domain.AnswerMode, error) {
	if len(b.AnswerModes) == 0 {
		return domain.AnswerModes, nil
	}
	out := make([]domain.AnswerMode, 0, len(b.AnswerModes))
	for _, raw := range b.AnswerModes {
		m, err := domain.ParseAnswerMode(raw)
		if err != nil {
			return nil, fmt.Errorf("bot.answer_modes: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
