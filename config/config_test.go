package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "Memory")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("LOGIN_TOKEN_TTL", "5m")
	t.Setenv("FRONTEND_URL", "https://booking.test/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBDriver != "memory" {
		t.Errorf("DBDriver = %q", cfg.DBDriver)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.LoginTokenTTL != 5*time.Minute || cfg.SessionTokenTTL != 24*time.Hour {
		t.Errorf("ttl = %v / %v", cfg.LoginTokenTTL, cfg.SessionTokenTTL)
	}
	if cfg.EmailDomain != "gms.ndhu.edu.tw" {
		t.Errorf("EmailDomain = %q", cfg.EmailDomain)
	}
	if cfg.AdminURL() != "https://booking.test/admin" {
		t.Errorf("AdminURL = %q", cfg.AdminURL())
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		if _, err := Load(); err == nil {
			t.Fatal("expected error without JWT_SECRET")
		}
	})
	t.Run("production without captcha secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "x")
		t.Setenv("APP_ENV", "production")
		t.Setenv("TURNSTILE_SECRET", "")
		if _, err := Load(); err == nil {
			t.Fatal("expected error when production runs without TURNSTILE_SECRET")
		}
	})
	t.Run("malformed bootstrap admin", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "x")
		t.Setenv("BOOTSTRAP_ADMINS", "boss@gms.ndhu.edu.tw")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for entry without a name")
		}
	})
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "x")
		t.Setenv("DB_DRIVER", "sqlite")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for unknown DB_DRIVER")
		}
	})
}

func TestLoad_ProductionWithCaptcha(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("APP_ENV", "production")
	t.Setenv("TURNSTILE_SECRET", "ts-secret")
	if _, err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestAdminSeeds(t *testing.T) {
	cfg := &Config{BootstrapAdmins: []string{" boss@gms.ndhu.edu.tw : Boss ", "", "ops@gms.ndhu.edu.tw:Ops Team"}}
	seeds, err := cfg.AdminSeeds()
	if err != nil {
		t.Fatalf("AdminSeeds: %v", err)
	}
	if len(seeds) != 2 || seeds[0].Email != "boss@gms.ndhu.edu.tw" || seeds[0].Name != "Boss" || seeds[1].Name != "Ops Team" {
		t.Fatalf("seeds = %+v", seeds)
	}
}
