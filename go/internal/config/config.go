package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reckman-cloud/employee-admin-app/go/internal/dbconfig"
)

// DefaultPath is read when no explicit config file is given. It may be absent.
const DefaultPath = "config.yaml"

// Credential source names, in the order they are tried by default.
const (
	CredentialClientSecret    = "client-secret"
	CredentialManagedIdentity = "managed-identity"
	CredentialStaticToken     = "static-token"
)

type Config struct {
	Env      string `yaml:"env"`
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	DataDir  string `yaml:"data_dir"`
	Locale   string `yaml:"locale"`

	Auth       AuthConfig       `yaml:"auth"`
	Directory  DirectoryConfig  `yaml:"directory"`
	Queue      QueueConfig      `yaml:"queue"`
	Submission SubmissionConfig `yaml:"submission"`
	Health     HealthConfig     `yaml:"health"`
	Database   DatabaseConfig   `yaml:"database"`
}

type AuthConfig struct {
	AdminRoles      []string `yaml:"admin_roles"`
	AllowAnonLocal  bool     `yaml:"allow_anon_local"`
	AllowAnonHealth bool     `yaml:"allow_anon_health"`
}

type DirectoryConfig struct {
	BaseURL       string `yaml:"base_url"`
	GroupID       string `yaml:"group_id"`
	GroupName     string `yaml:"group_name"`
	TenantID      string `yaml:"tenant_id"`
	ClientID      string `yaml:"client_id"`
	ClientSecret  string `yaml:"client_secret"`
	AuthorityHost string `yaml:"authority_host"`

	ManagedIdentityEndpoint string `yaml:"managed_identity_endpoint"`
	ManagedIdentityClientID string `yaml:"managed_identity_client_id"`
	StaticToken             string `yaml:"static_token"`

	// Credentials is the ordered list of credential sources to try.
	Credentials []string `yaml:"credentials"`

	Timeout      time.Duration `yaml:"timeout"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	WarmSchedule string        `yaml:"warm_schedule"`
}

type QueueConfig struct {
	URL             string        `yaml:"url"`
	CredsFile       string        `yaml:"creds_file"`
	Name            string        `yaml:"name"`
	SubjectPrefix   string        `yaml:"subject_prefix"`
	MaxAge          time.Duration `yaml:"max_age"`
	Replicas        int           `yaml:"replicas"`
	DuplicateWindow time.Duration `yaml:"duplicate_window"`
	Timeout         time.Duration `yaml:"timeout"`
}

// Configured reports whether enough is set to reach a queue at all.
func (q QueueConfig) Configured() bool {
	return q.URL != "" && q.Name != ""
}

type SubmissionConfig struct {
	BatchSize       int  `yaml:"batch_size"`
	FormatStartDate bool `yaml:"format_start_date"`
}

type HealthConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

func Default() Config {
	return Config{
		Env:      "production",
		Port:     "8080",
		LogLevel: "info",
		Locale:   "en",
		Auth: AuthConfig{
			AdminRoles: []string{"it_admin", "it-admin"},
		},
		Directory: DirectoryConfig{
			GroupName:     "dyn-user-e5s",
			AuthorityHost: "https://login.microsoftonline.com",
			Credentials: []string{
				CredentialClientSecret,
				CredentialManagedIdentity,
				CredentialStaticToken,
			},
			Timeout:      10 * time.Second,
			CacheTTL:     5 * time.Minute,
			WarmSchedule: "@every 4m",
		},
		Queue: QueueConfig{
			SubjectPrefix:   "onboarding",
			MaxAge:          7 * 24 * time.Hour,
			Replicas:        1,
			DuplicateWindow: 2 * time.Hour,
			Timeout:         10 * time.Second,
		},
		Submission: SubmissionConfig{
			BatchSize: 5,
		},
		Health: HealthConfig{
			Interval: 30 * time.Second,
			Timeout:  8 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path, then the
// environment. A missing file at DefaultPath is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Env = getEnv("APP_ENV", c.Env)
	c.Port = getEnv("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.Locale = getEnv("LOCALE", c.Locale)

	c.Auth.AllowAnonLocal = getEnvAsBool("ALLOW_ANON_LOCAL", c.Auth.AllowAnonLocal)
	c.Auth.AllowAnonHealth = getEnvAsBool("ALLOW_ANON_HEALTH", c.Auth.AllowAnonHealth)

	d := &c.Directory
	d.BaseURL = getEnv("GRAPH_BASE_URL", d.BaseURL)
	d.GroupID = getEnv("MANAGERS_GROUP_ID", d.GroupID)
	d.GroupName = getEnv("MANAGERS_GROUP_NAME", getEnv("MANAGERS_GROUP_NICKNAME", d.GroupName))
	d.TenantID = getEnv("AZURE_TENANT_ID", d.TenantID)
	d.ClientID = getEnv("AZURE_CLIENT_ID", d.ClientID)
	d.ClientSecret = getEnv("AZURE_CLIENT_SECRET", d.ClientSecret)
	d.ManagedIdentityEndpoint = getEnv("AZURE_MANAGED_IDENTITY_ENDPOINT", d.ManagedIdentityEndpoint)
	d.ManagedIdentityClientID = getEnv("AZURE_MANAGED_IDENTITY_CLIENT_ID", d.ManagedIdentityClientID)
	d.StaticToken = getEnv("GRAPH_ACCESS_TOKEN", d.StaticToken)

	q := &c.Queue
	q.URL = getEnv("NATS_URL", q.URL)
	q.CredsFile = getEnv("NATS_CREDS", q.CredsFile)
	q.Name = getEnv("QUEUE_NAME", q.Name)

	c.Submission.BatchSize = getEnvAsInt("SUBMIT_BATCH_SIZE", c.Submission.BatchSize)
	c.Submission.FormatStartDate = getEnvAsBool("FORMAT_START_DATE", c.Submission.FormatStartDate)

	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	if c.Database.URL == "" {
		if db, ok := dbconfig.FromEnv(); ok {
			c.Database.URL = db.DSN()
		}
	}
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.Queue.Name = strings.ToLower(strings.TrimSpace(c.Queue.Name))
	c.Directory.GroupID = strings.TrimSpace(c.Directory.GroupID)
	c.Directory.GroupName = strings.TrimSpace(c.Directory.GroupName)
	for i, r := range c.Auth.AdminRoles {
		c.Auth.AdminRoles[i] = strings.ToLower(strings.TrimSpace(r))
	}
}

// Validate rejects configurations no component could run with.
func (c Config) Validate() error {
	var problems []string

	if c.Port == "" {
		problems = append(problems, "port is required")
	}
	if c.Directory.Timeout <= 0 {
		problems = append(problems, "directory.timeout must be positive")
	}
	if c.Directory.CacheTTL <= 0 {
		problems = append(problems, "directory.cache_ttl must be positive")
	}
	for _, name := range c.Directory.Credentials {
		switch name {
		case CredentialClientSecret, CredentialManagedIdentity, CredentialStaticToken:
		default:
			problems = append(problems, fmt.Sprintf("directory.credentials: unknown source %q", name))
		}
	}
	if strings.ContainsAny(c.Queue.Name, " .*>") {
		problems = append(problems, fmt.Sprintf("queue.name %q may not contain spaces, '.', '*' or '>'", c.Queue.Name))
	}
	if c.Queue.Timeout <= 0 {
		problems = append(problems, "queue.timeout must be positive")
	}
	if c.Submission.BatchSize < 1 {
		problems = append(problems, "submission.batch_size must be at least 1")
	}
	if c.Database.URL != "" {
		if _, err := dbconfig.ParseDSN(c.Database.URL); err != nil {
			problems = append(problems, "database.url: "+err.Error())
		}
	}
	if c.Health.Interval <= 0 || c.Health.Timeout <= 0 {
		problems = append(problems, "health.interval and health.timeout must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// IsDevelopment reports whether local-only conveniences may be enabled.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
