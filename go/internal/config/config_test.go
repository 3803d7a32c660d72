package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Directory.CacheTTL != 5*time.Minute {
		t.Fatalf("expected 5m cache ttl, got %s", cfg.Directory.CacheTTL)
	}
	if cfg.Submission.BatchSize != 5 {
		t.Fatalf("expected batch size 5, got %d", cfg.Submission.BatchSize)
	}
	if cfg.Health.Interval != 30*time.Second || cfg.Health.Timeout != 8*time.Second {
		t.Fatalf("unexpected health cadence: %+v", cfg.Health)
	}
	if cfg.Queue.Configured() {
		t.Fatalf("expected queue to be unconfigured by default")
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for explicit missing file")
	}
}

func TestLoadParsesYamlAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := strings.TrimSpace(`
env: Development
directory:
  group_name: managers
  cache_ttl: 90s
queue:
  url: nats://localhost:4222
  name: HR-Onboarding
submission:
  batch_size: 3
  format_start_date: true
`)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MANAGERS_GROUP_ID", "gid-123")
	t.Setenv("ALLOW_ANON_LOCAL", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected env to be normalized to development, got %q", cfg.Env)
	}
	if cfg.Queue.Name != "hr-onboarding" {
		t.Fatalf("expected lower-cased queue name, got %q", cfg.Queue.Name)
	}
	if cfg.Directory.GroupID != "gid-123" {
		t.Fatalf("expected env group id override, got %q", cfg.Directory.GroupID)
	}
	if cfg.Directory.CacheTTL != 90*time.Second {
		t.Fatalf("expected 90s ttl, got %s", cfg.Directory.CacheTTL)
	}
	if cfg.Submission.BatchSize != 3 || !cfg.Submission.FormatStartDate {
		t.Fatalf("unexpected submission config: %+v", cfg.Submission)
	}
	if !cfg.Auth.AllowAnonLocal {
		t.Fatalf("expected ALLOW_ANON_LOCAL to apply")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Submission.BatchSize = 0
	cfg.Directory.Credentials = []string{"carrier-pigeon"}
	cfg.Queue.Name = "bad.name"
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"batch_size", "carrier-pigeon", "queue.name"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}
