package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                 string   `mapstructure:"PORT"`
	Env                  string   `mapstructure:"ENV"`
	DatabaseURL          string   `mapstructure:"DATABASE_URL"`
	DBMaxConns           int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSigningKey        string   `mapstructure:"JWT_SIGNING_KEY"`
	JWTIssuer            string   `mapstructure:"JWT_ISSUER"`
	CORSOrigins          []string `mapstructure:"CORS_ORIGINS"`
	SlotIntervalMinutes  int      `mapstructure:"SLOT_INTERVAL_MINUTES"`
	ApptDurationMinutes  int      `mapstructure:"APPT_DURATION_MINUTES"`
	FollowupLinkDelaySec int      `mapstructure:"FOLLOWUP_LINK_DELAY_SEC"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SLOT_INTERVAL_MINUTES", 30)
	v.SetDefault("APPT_DURATION_MINUTES", 30)
	v.SetDefault("FOLLOWUP_LINK_DELAY_SEC", 2)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SIGNING_KEY")
	v.BindEnv("JWT_ISSUER")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("SLOT_INTERVAL_MINUTES")
	v.BindEnv("APPT_DURATION_MINUTES")
	v.BindEnv("FOLLOWUP_LINK_DELAY_SEC")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// a JWT signing key must be present so bearer authentication is enforced, and
// the scheduling knobs must be sane.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSigningKey == "" {
		return fmt.Errorf("JWT_SIGNING_KEY is required when ENV=%q", c.Env)
	}
	if c.SlotIntervalMinutes <= 0 {
		return fmt.Errorf("SLOT_INTERVAL_MINUTES must be positive, got %d", c.SlotIntervalMinutes)
	}
	if c.ApptDurationMinutes <= 0 {
		return fmt.Errorf("APPT_DURATION_MINUTES must be positive, got %d", c.ApptDurationMinutes)
	}
	if c.FollowupLinkDelaySec < 0 {
		return fmt.Errorf("FOLLOWUP_LINK_DELAY_SEC must not be negative, got %d", c.FollowupLinkDelaySec)
	}
	return nil
}
