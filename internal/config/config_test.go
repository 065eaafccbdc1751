package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCatalogLookup(t *testing.T) {
	catalog := NewCatalog([]Plan{
		{PriceID: "price_basic", Name: "Basic", Credits: 5, DurationDays: 28},
		{PriceID: "price_premium", Name: "Premium", Credits: 50, DurationDays: 56},
	})

	credits, days := catalog.Lookup("price_premium")
	if credits != 50 || days != 56 {
		t.Errorf("Lookup(price_premium) = (%d, %d), want (50, 56)", credits, days)
	}
}

func TestCatalogLookupUnknownPriceFallsBack(t *testing.T) {
	catalog := NewCatalog([]Plan{
		{PriceID: "price_basic", Credits: 5, DurationDays: 28},
	})

	credits, days := catalog.Lookup("price_does_not_exist")
	if credits != DefaultCredits {
		t.Errorf("credits = %d, want %d", credits, DefaultCredits)
	}
	if days != DefaultDurationDays {
		t.Errorf("durationDays = %d, want %d", days, DefaultDurationDays)
	}
}

func TestLoadConfig(t *testing.T) {
	content := `
server:
  address: ":4001"
  public_url: "https://hub.example.com"
database:
  url: "file-url"
stripe:
  secret_key: "file-key"
  webhook_secret: "whsec_file"
plans:
  - price_id: "price_basic"
    name: "Basic"
    amount: 9.99
    credits: 5
    duration_days: 28
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATABASE_URL", "env-url")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Address != ":4001" {
		t.Errorf("server address = %q, want %q", cfg.Server.Address, ":4001")
	}
	if cfg.Server.PublicURL != "https://hub.example.com" {
		t.Errorf("public url = %q, want %q", cfg.Server.PublicURL, "https://hub.example.com")
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("database driver = %q, want default %q", cfg.Database.Driver, "mysql")
	}
	if cfg.Database.URL != "env-url" {
		t.Errorf("database url = %q, want env override %q", cfg.Database.URL, "env-url")
	}
	if cfg.Stripe.WebhookSecret != "whsec_file" {
		t.Errorf("webhook secret = %q, want %q", cfg.Stripe.WebhookSecret, "whsec_file")
	}
	if len(cfg.Plans) != 1 || cfg.Plans[0].Credits != 5 {
		t.Errorf("plans = %+v, want one plan with 5 credits", cfg.Plans)
	}
}

func TestLoadConfigPublicURLEnvOverride(t *testing.T) {
	content := `
server:
  public_url: "https://file.example.com"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PUBLIC_BASE_URL", "https://env.example.com")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.PublicURL != "https://env.example.com" {
		t.Errorf("public url = %q, want env override %q", cfg.Server.PublicURL, "https://env.example.com")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file, got nil")
	}
}
