package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestCodeQuestDir(t *testing.T) {
	t.Setenv("CODEQUEST_HOME", "")

	dir, err := CodeQuestDir()
	if err != nil {
		t.Fatalf("CodeQuestDir() error = %v", err)
	}

	// Should end with .codequest
	if filepath.Base(dir) != ".codequest" {
		t.Errorf("CodeQuestDir() = %q, want ending with .codequest", dir)
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("CodeQuestDir() = %q, want absolute path", dir)
	}
}

func TestCodeQuestDir_Override(t *testing.T) {
	want := t.TempDir()
	t.Setenv("CODEQUEST_HOME", want)

	dir, err := CodeQuestDir()
	if err != nil {
		t.Fatalf("CodeQuestDir() error = %v", err)
	}
	if dir != want {
		t.Errorf("CodeQuestDir() = %q, want %q", dir, want)
	}
}

func TestEnsureCodeQuestDir(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	t.Setenv("CODEQUEST_HOME", "")

	dir, err := EnsureCodeQuestDir()
	if err != nil {
		t.Fatalf("EnsureCodeQuestDir() error = %v", err)
	}

	expectedDir := filepath.Join(tmpHome, ".codequest")
	if dir != expectedDir {
		t.Errorf("EnsureCodeQuestDir() = %q, want %q", dir, expectedDir)
	}

	for _, subdir := range []string{"logs", "catalog"} {
		path := filepath.Join(dir, subdir)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("EnsureCodeQuestDir() should create %s", subdir)
		}
	}
}

func TestDefaultLocalConfig(t *testing.T) {
	cfg := DefaultLocalConfig()

	if cfg.Daemon.Port != 7480 {
		t.Errorf("Daemon.Port = %d, want 7480", cfg.Daemon.Port)
	}
	if cfg.Daemon.Bind != "127.0.0.1" {
		t.Errorf("Daemon.Bind = %q, want 127.0.0.1", cfg.Daemon.Bind)
	}
	if cfg.Catalog.Source != SourceYAML || cfg.Catalog.Path != "courses" {
		t.Errorf("Catalog = %+v, want yaml source on ./courses", cfg.Catalog)
	}
	if cfg.Checker.Locale != "en" {
		t.Errorf("Checker.Locale = %q, want en", cfg.Checker.Locale)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Rate <= 0 || cfg.RateLimit.Burst < cfg.RateLimit.Rate {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Queue.Workers != 3 || cfg.Queue.Prefetch != 1 {
		t.Errorf("Queue = %+v", cfg.Queue)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestCatalogConfig_SQLiteFile(t *testing.T) {
	if got := (CatalogConfig{}).SQLiteFile("/data"); got != filepath.Join("/data", "catalog.db") {
		t.Errorf("SQLiteFile() = %q", got)
	}
	if got := (CatalogConfig{SQLitePath: "/tmp/x.db"}).SQLiteFile("/data"); got != "/tmp/x.db" {
		t.Errorf("SQLiteFile() = %q, want explicit path", got)
	}
}

func TestCatalogConfig_JSONDir(t *testing.T) {
	if got := (CatalogConfig{}).JSONDir("/data"); got != filepath.Join("/data", "catalog") {
		t.Errorf("JSONDir() = %q", got)
	}
	if got := (CatalogConfig{JSONPath: "/srv/catalog"}).JSONDir("/data"); got != "/srv/catalog" {
		t.Errorf("JSONDir() = %q, want explicit path", got)
	}
}

func TestDaemonConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  string
	}{
		{"debug", "DEBUG"},
		{"INFO", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"", "INFO"},
		{"verbose", "INFO"},
	}
	for _, tt := range tests {
		if got := (DaemonConfig{LogLevel: tt.level}).SlogLevel().String(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %s, want %s", tt.level, got, tt.want)
		}
	}
}

func TestLoadLocalConfig_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv("CODEQUEST_HOME", t.TempDir())

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}
	if cfg.Daemon.Port != 7480 {
		t.Errorf("Daemon.Port = %d, want 7480 (default)", cfg.Daemon.Port)
	}
}

func TestLoadLocalConfig_WithConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CODEQUEST_HOME", dir)

	configContent := `daemon:
  port: 9999
  bind: "0.0.0.0"
  log_level: debug
catalog:
  source: sqlite
  sqlite_path: /var/lib/codequest/catalog.db
checker:
  locale: fr
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}

	if cfg.Daemon.Port != 9999 {
		t.Errorf("Daemon.Port = %d, want 9999", cfg.Daemon.Port)
	}
	if cfg.Daemon.Bind != "0.0.0.0" {
		t.Errorf("Daemon.Bind = %q, want 0.0.0.0", cfg.Daemon.Bind)
	}
	if cfg.Catalog.Source != SourceSQLite || cfg.Catalog.SQLitePath != "/var/lib/codequest/catalog.db" {
		t.Errorf("Catalog = %+v", cfg.Catalog)
	}
	if cfg.Checker.Locale != "fr" {
		t.Errorf("Checker.Locale = %q, want fr", cfg.Checker.Locale)
	}
	// Unset sections keep their defaults
	if cfg.Queue.Workers != 3 {
		t.Errorf("Queue.Workers = %d, want default 3", cfg.Queue.Workers)
	}
}

func TestLoadLocalConfig_InvalidConfigYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CODEQUEST_HOME", dir)

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("daemon: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := LoadLocalConfig(); err == nil {
		t.Error("LoadLocalConfig() should fail on invalid YAML")
	}
}

func TestLoadSecrets(t *testing.T) {
	dir := t.TempDir()
	secrets := `postgres_dsn: postgres://cq:pw@db:5432/codequest
queue_url: amqp://cq:pw@mq:5672/
`
	if err := os.WriteFile(filepath.Join(dir, "secrets.yaml"), []byte(secrets), 0600); err != nil {
		t.Fatalf("Failed to write secrets file: %v", err)
	}

	cfg := DefaultLocalConfig()
	if err := loadSecrets(dir, cfg); err != nil {
		t.Fatalf("loadSecrets() error = %v", err)
	}

	if cfg.Catalog.PostgresDSN != "postgres://cq:pw@db:5432/codequest" {
		t.Errorf("PostgresDSN = %q", cfg.Catalog.PostgresDSN)
	}
	if cfg.Queue.URL != "amqp://cq:pw@mq:5672/" {
		t.Errorf("Queue.URL = %q", cfg.Queue.URL)
	}
}

func TestLoadSecrets_NoSecretsFile(t *testing.T) {
	cfg := DefaultLocalConfig()
	if err := loadSecrets(t.TempDir(), cfg); err != nil {
		t.Errorf("loadSecrets() error = %v; want nil when file is missing", err)
	}
	if cfg.Queue.URL != DefaultLocalConfig().Queue.URL {
		t.Errorf("Queue.URL = %q; want default", cfg.Queue.URL)
	}
}

func TestLoadSecrets_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "secrets.yaml"), []byte("postgres_dsn: [oops"), 0600); err != nil {
		t.Fatalf("Failed to write secrets file: %v", err)
	}

	if err := loadSecrets(dir, DefaultLocalConfig()); err == nil {
		t.Error("loadSecrets() should fail on invalid YAML")
	}
}

func TestSaveLocalConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CODEQUEST_HOME", dir)

	cfg := DefaultLocalConfig()
	cfg.Daemon.Port = 8123
	cfg.Catalog.PostgresDSN = "postgres://secret"

	if err := SaveLocalConfig(cfg); err != nil {
		t.Fatalf("SaveLocalConfig() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("saved config is not YAML: %v", err)
	}

	loaded, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}
	if loaded.Daemon.Port != 8123 {
		t.Errorf("Daemon.Port = %d, want 8123", loaded.Daemon.Port)
	}
	if loaded.Catalog.PostgresDSN != "" {
		t.Error("config.yaml must not carry the postgres DSN")
	}
}

func TestSaveSecrets(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CODEQUEST_HOME", dir)

	if err := SaveSecrets(SecretsConfig{QueueURL: "amqp://u:p@mq/"}); err != nil {
		t.Fatalf("SaveSecrets() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "secrets.yaml"))
	if err != nil {
		t.Fatalf("stat secrets: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("secrets.yaml permissions = %o, want 600", perm)
	}

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}
	if cfg.Queue.URL != "amqp://u:p@mq/" {
		t.Errorf("Queue.URL = %q", cfg.Queue.URL)
	}
}
