package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		DatabaseURL:        "postgres://localhost/talent",
		Environment:        "development",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 60,
		SuperAdminRole:     "super_admin",
		QuizTimeLimitGrace: 30 * time.Second,
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/talent")
	t.Setenv("RUN_SEED", "false")
	t.Setenv("OVERDUE_SWEEP_INTERVAL", "15m")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()
	if cfg.DatabaseURL != "postgres://db/talent" {
		t.Fatalf("unexpected database url %q", cfg.DatabaseURL)
	}
	if cfg.RunSeed {
		t.Fatal("expected RUN_SEED=false to disable seeding")
	}
	if cfg.OverdueSweepInterval != 15*time.Minute {
		t.Fatalf("unexpected sweep interval %v", cfg.OverdueSweepInterval)
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Fatalf("expected fallback rate limit, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.SuperAdminRole != "super_admin" {
		t.Fatalf("unexpected super admin role %q", cfg.SuperAdminRole)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing db", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "DATABASE_URL"},
		{name: "prod without secret", mutate: func(c *Config) { c.Environment = "production" }, wantErr: "JWT_SECRET"},
		{name: "tiny body", mutate: func(c *Config) { c.MaxBodyBytes = 10 }, wantErr: "MAX_BODY_BYTES"},
		{name: "storage without keys", mutate: func(c *Config) { c.StorageEndpoint = "minio:9000" }, wantErr: "STORAGE_ACCESS_KEY"},
		{name: "email without host", mutate: func(c *Config) { c.EmailEnabled = true }, wantErr: "SMTP_HOST"},
		{name: "empty super admin role", mutate: func(c *Config) { c.SuperAdminRole = " " }, wantErr: "SUPER_ADMIN_ROLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
