package config

import (
	"testing"
	"time"
)

func validBase() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "dialtrack", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
		Provider: ProviderConfig{
			APIBaseURL: "https://api.provider.example",
			AccountID:  "acct-1",
		},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "dialtrack"
	c.Auth.JWTAudience = "dialtrack-api"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestValidate_RequiresProviderEndpoint(t *testing.T) {
	c := validBase()
	c.Provider.APIBaseURL = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for missing provider base URL")
	}
}

func TestValidate_RejectsOversizedProviderTimeout(t *testing.T) {
	c := validBase()
	c.Provider.RequestTimeout = 45 * time.Second
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for provider timeout above 30s")
	}
}

func TestApplyDefaults_ReconTuning(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	c.applyDefaults()
	if c.Recon.StaleAfter != 2*time.Minute {
		t.Fatalf("expected 2m stale window default, got %s", c.Recon.StaleAfter)
	}
	if c.Recon.SweepSpec == "" {
		t.Fatalf("expected sweep spec default")
	}
	if c.Provider.RequestTimeout != 10*time.Second {
		t.Fatalf("expected 10s provider timeout default, got %s", c.Provider.RequestTimeout)
	}
}
