package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SEND_WINDOW_OVERRIDE", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.FollowUpDelay != 60*time.Second {
		t.Fatalf("expected default follow-up delay, got %s", cfg.FollowUpDelay)
	}
	if cfg.SendWindowStart != "19:00" || cfg.SendWindowEnd != "07:00" {
		t.Fatalf("expected default send window, got %s-%s", cfg.SendWindowStart, cfg.SendWindowEnd)
	}
	if !cfg.SendWindowOverride {
		t.Fatalf("expected send window override enabled by default")
	}
	if cfg.DispatchTimeout != 6*time.Second {
		t.Fatalf("expected default dispatch timeout, got %s", cfg.DispatchTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("CLICKUP_API_TOKEN", "pk_123")
	t.Setenv("CLICKUP_LEAD_LIST_ID", "901")
	t.Setenv("FOLLOWUP_SMS_DELAY", "4m")
	t.Setenv("SEND_WINDOW_OVERRIDE", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("OPERATOR_EMAILS", "ops@example.com")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.ClickUpAPIToken != "pk_123" || cfg.ClickUpListID != "901" {
		t.Fatalf("expected clickup overrides, got %q/%q", cfg.ClickUpAPIToken, cfg.ClickUpListID)
	}
	if cfg.FollowUpDelay != 4*time.Minute {
		t.Fatalf("expected follow-up delay override, got %s", cfg.FollowUpDelay)
	}
	if cfg.SendWindowOverride {
		t.Fatalf("expected send window override disabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("expected trimmed origins, got %v", cfg.CORSAllowedOrigins)
	}
	if len(cfg.OperatorEmails) != 1 || cfg.OperatorEmails[0] != "ops@example.com" {
		t.Fatalf("expected operator emails, got %v", cfg.OperatorEmails)
	}
}

func TestListIDFallback(t *testing.T) {
	t.Setenv("CLICKUP_LEAD_LIST_ID", "")
	t.Setenv("CLICKUP_LIST_ID", "777")
	cfg := Load()
	if cfg.ClickUpListID != "777" {
		t.Fatalf("expected legacy list id fallback, got %s", cfg.ClickUpListID)
	}
}
