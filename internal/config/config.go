package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`

		// PublicURL is the externally reachable base address used to
		// build links sent to users (email verification).
		PublicURL string `yaml:"public_url"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	JWT struct {
		SigningKey string `yaml:"signing_key"`
	} `yaml:"jwt"`
	Stripe struct {
		SecretKey     string `yaml:"secret_key"`
		WebhookSecret string `yaml:"webhook_secret"`
		SuccessURL    string `yaml:"success_url"`
		CancelURL     string `yaml:"cancel_url"`
	} `yaml:"stripe"`
	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"smtp"`
	Storage struct {
		Endpoint  string `yaml:"endpoint"`
		Region    string `yaml:"region"`
		Bucket    string `yaml:"bucket"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
	} `yaml:"storage"`
	Plans []Plan `yaml:"plans"`
}

// Plan is a single price catalog entry. The catalog is maintained in the
// config file and has to be kept in sync with the live Stripe price ids.
type Plan struct {
	PriceID      string  `yaml:"price_id"`
	Name         string  `yaml:"name"`
	Amount       float64 `yaml:"amount"`
	Credits      int     `yaml:"credits"`
	DurationDays int     `yaml:"duration_days"`
}

const (
	// DefaultCredits is granted when a webhook references a price id the
	// catalog does not know about.
	DefaultCredits = 0
	// DefaultDurationDays is the plan validity used for unknown price ids.
	DefaultDurationDays = 28
)

// Catalog resolves Stripe price ids to plan terms.
type Catalog struct {
	plans map[string]Plan
}

func NewCatalog(plans []Plan) Catalog {
	m := make(map[string]Plan, len(plans))
	for _, p := range plans {
		m[p.PriceID] = p
	}
	return Catalog{plans: m}
}

// Lookup returns the credit quantity and validity duration in days for a
// price id, falling back to safe defaults when the id is unknown.
func (c Catalog) Lookup(priceID string) (credits, durationDays int) {
	p, ok := c.plans[priceID]
	if !ok {
		return DefaultCredits, DefaultDurationDays
	}
	return p.Credits, p.DurationDays
}

func (c Catalog) Plan(priceID string) (Plan, bool) {
	p, ok := c.plans[priceID]
	return p, ok
}

func LoadConfig(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}

	// Secrets may be supplied through the environment instead of the file.
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		cfg.Server.PublicURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		cfg.Stripe.SecretKey = v
	}
	if v := os.Getenv("STRIPE_WEBHOOK_SECRET"); v != "" {
		cfg.Stripe.WebhookSecret = v
	}
	if v := os.Getenv("JWT_SIGNING_KEY"); v != "" {
		cfg.JWT.SigningKey = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		cfg.Storage.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}
	return cfg, nil
}
