package config

// Config is the top-level application configuration.
// It is loaded from ~/.config/gcpaudit/config.yaml and must never be
// committed with real secrets.
type Config struct {
	GCP   GCPConfig   `yaml:"gcp"   json:"gcp"`
	Audit AuditConfig `yaml:"audit" json:"audit"`
}

// GCPConfig holds Google Cloud credential defaults used when flags are not
// provided.
type GCPConfig struct {
	// CredentialsFile points at a service account key JSON file.
	// Empty means Application Default Credentials.
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`

	// QuotaProjectID is the project billed for API quota when set.
	QuotaProjectID string `yaml:"quota_project_id" json:"quota_project_id"`
}

// AuditConfig holds audit run defaults.
type AuditConfig struct {
	// Concurrency bounds how many checks run in parallel.
	// Zero means the engine default.
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	// Timeout bounds one audit run, e.g. "5m". Empty means no timeout.
	Timeout string `yaml:"timeout" json:"timeout"`

	// PolicyFile is applied when no --policy flag is given.
	PolicyFile string `yaml:"policy_file" json:"policy_file"`
}

// Loader is the interface for reading Config from disk.
// Default implementation reads from ~/.config/gcpaudit/config.yaml.
type Loader interface {
	// Load reads, parses, and validates the configuration file.
	Load() (*Config, error)

	// ConfigPath returns the absolute path to the configuration file.
	ConfigPath() string
}
