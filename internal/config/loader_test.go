package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Success(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
gcp:
  credentials_file: /secrets/sa.json
  quota_project_id: billing-proj
audit:
  concurrency: 8
  timeout: 5m
  policy_file: /etc/gcpaudit/policy.yaml
`

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewFileLoader(path).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.GCP.CredentialsFile != "/secrets/sa.json" {
		t.Errorf("CredentialsFile = %q; want /secrets/sa.json", cfg.GCP.CredentialsFile)
	}
	if cfg.GCP.QuotaProjectID != "billing-proj" {
		t.Errorf("QuotaProjectID = %q; want billing-proj", cfg.GCP.QuotaProjectID)
	}
	if cfg.Audit.Concurrency != 8 {
		t.Errorf("Concurrency = %d; want 8", cfg.Audit.Concurrency)
	}
	if cfg.Audit.Timeout != "5m" {
		t.Errorf("Timeout = %q; want 5m", cfg.Audit.Timeout)
	}
	if cfg.Audit.PolicyFile != "/etc/gcpaudit/policy.yaml" {
		t.Errorf("PolicyFile = %q; want /etc/gcpaudit/policy.yaml", cfg.Audit.PolicyFile)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := NewFileLoader(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	if err != nil {
		t.Fatalf("missing file must not be an error, got: %v", err)
	}
	if cfg.Audit.Concurrency != 0 || cfg.GCP.CredentialsFile != "" {
		t.Errorf("missing file must yield zero config, got %+v", cfg)
	}
}

func TestLoad_NegativeConcurrencyRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("audit:\n  concurrency: -2\n"), 0o600)

	_, err := NewFileLoader(path).Load()
	if err == nil {
		t.Fatal("expected error for negative concurrency")
	}
}

func TestLoad_BadTimeoutRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("audit:\n  timeout: not-a-duration\n"), 0o600)

	_, err := NewFileLoader(path).Load()
	if err == nil {
		t.Fatal("expected error for unparseable timeout")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("gcp: [oops"), 0o600)

	_, err := NewFileLoader(path).Load()
	if err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestConfigPath_DefaultLocation(t *testing.T) {
	l := NewDefaultLoader()
	want := filepath.Join(".config", "gcpaudit", "config.yaml")
	if !filepath.IsAbs(l.ConfigPath()) && l.ConfigPath() != filepath.Join(".", want) {
		t.Errorf("ConfigPath = %q; want an absolute path ending in %q", l.ConfigPath(), want)
	}
}
