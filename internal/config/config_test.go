package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDefaultsAndLegacyEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "user-secret")
	t.Setenv("WORKER_JWT_SECRET", "worker-secret")
	t.Setenv("PORT", "8080")
	t.Setenv("CLOUDFRONT_DOMAIN", "https://cdn.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Auth.UserJWTSecret != "user-secret" || cfg.Auth.WorkerJWTSecret != "worker-secret" {
		t.Errorf("secrets not bound: %+v", cfg.Auth)
	}
	if cfg.Storage.DeliveryDomain != "https://cdn.example.com" {
		t.Errorf("delivery domain = %q", cfg.Storage.DeliveryDomain)
	}
	if cfg.Chain.Type != ChainSolana || cfg.Chain.Decimals != 9 {
		t.Errorf("chain = %s/%d, want solana/9", cfg.Chain.Type, cfg.Chain.Decimals)
	}
	if cfg.Settlement.RewardPercent != 10 || cfg.Settlement.FailurePolicy != FailurePolicyStrict {
		t.Errorf("settlement defaults = %+v", cfg.Settlement)
	}
	if cfg.Auth.TokenTTL != 7*24*time.Hour || cfg.Auth.AllowLegacySignIn {
		t.Errorf("auth defaults = %+v", cfg.Auth)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := strings.Join([]string{
		"chain:",
		"  type: ethereum",
		"settlement:",
		"  failure_policy: legacy",
		"  reconcile_interval: 30s",
		"",
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Chain.Type != ChainEthereum || cfg.Chain.Decimals != 18 {
		t.Errorf("chain = %s/%d, want ethereum/18", cfg.Chain.Type, cfg.Chain.Decimals)
	}
	if cfg.Settlement.FailurePolicy != FailurePolicyLegacy || cfg.Settlement.ReconcileInterval != 30*time.Second {
		t.Errorf("settlement = %+v", cfg.Settlement)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Auth:       AuthConfig{UserJWTSecret: "a", WorkerJWTSecret: "b"},
			Chain:      ChainConfig{Type: ChainSolana},
			Settlement: SettlementConfig{FailurePolicy: FailurePolicyStrict, RewardPercent: 10},
		}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing user secret", func(c *Config) { c.Auth.UserJWTSecret = "" }, "JWT_SECRET is missing"},
		{"missing worker secret", func(c *Config) { c.Auth.WorkerJWTSecret = "" }, "WORKER_JWT_SECRET is missing"},
		{"shared secret", func(c *Config) { c.Auth.WorkerJWTSecret = "a" }, "must differ"},
		{"unknown chain", func(c *Config) { c.Chain.Type = "bitcoin" }, "unknown chain type"},
		{"unknown policy", func(c *Config) { c.Settlement.FailurePolicy = "lenient" }, "failure policy"},
		{"percent too high", func(c *Config) { c.Settlement.RewardPercent = 101 }, "out of range"},
		{"percent zero", func(c *Config) { c.Settlement.RewardPercent = 0 }, "out of range"},
		{"percent negative", func(c *Config) { c.Settlement.RewardPercent = -5 }, "out of range"},
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("Validate() on valid config = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "dv", SSLMode: "disable"}
	if got := d.DSN(); got != "host=db port=5432 user=u password=p dbname=dv sslmode=disable" {
		t.Errorf("DSN() = %q", got)
	}
	d.URL = "postgres://u:p@db/dv"
	if d.DSN() != d.URL {
		t.Errorf("URL should take precedence")
	}
}
