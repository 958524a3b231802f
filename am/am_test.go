package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	// Isolated viper instance, no user/system config
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	if err != nil {
		t.Fatalf("LoadWithViper() failed: %v", err)
	}

	if cfg.Database.Path != DefaultDatabasePath {
		t.Errorf("expected default database path %q, got %q", DefaultDatabasePath, cfg.Database.Path)
	}
	if cfg.ServerPort() != DefaultServerPort {
		t.Errorf("expected default port %d, got %d", DefaultServerPort, cfg.ServerPort())
	}
	if cfg.Store.Backend != BackendSQLite {
		t.Errorf("expected sqlite backend, got %q", cfg.Store.Backend)
	}
	if !cfg.Store.AtomicImport {
		t.Error("expected atomic_import to default to true")
	}
	if cfg.Graph.SnapshotNodeLimit != 500 || cfg.Graph.SnapshotEdgeLimit != 1000 {
		t.Errorf("unexpected snapshot caps %d/%d", cfg.Graph.SnapshotNodeLimit, cfg.Graph.SnapshotEdgeLimit)
	}
	if cfg.GetBaseNamespace() != "http://example.org/ont#" {
		t.Errorf("unexpected base namespace %q", cfg.GetBaseNamespace())
	}
	if len(cfg.GetTransferRulesPaths()) != 3 {
		t.Errorf("expected 3 transfer rule candidates, got %v", cfg.GetTransferRulesPaths())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "am.toml")
	content := `
[server]
port = 9090

[store]
backend = "redis"

[store.redis]
addr = "redis:6379"
db = 2

[reasoning]
max_rounds = 10
transfer_rules_paths = ["/tmp/a.rules"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() failed: %v", err)
	}

	if cfg.ServerPort() != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.ServerPort())
	}
	if cfg.Store.Backend != BackendRedis || cfg.Store.Redis.Addr != "redis:6379" || cfg.Store.Redis.DB != 2 {
		t.Errorf("unexpected redis config %+v", cfg.Store.Redis)
	}
	// untouched keys keep their defaults
	if cfg.Store.Redis.KeyPrefix != "kgbridge:" {
		t.Errorf("expected default key prefix, got %q", cfg.Store.Redis.KeyPrefix)
	}
	if cfg.Reasoning.MaxRounds != 10 {
		t.Errorf("expected max_rounds 10, got %d", cfg.Reasoning.MaxRounds)
	}
	if got := cfg.GetTransferRulesPaths(); len(got) != 1 || got[0] != "/tmp/a.rules" {
		t.Errorf("unexpected transfer rule paths %v", got)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMergeConfigFiles_LaterWinsPerKey(t *testing.T) {
	dir := t.TempDir()
	system := filepath.Join(dir, "system.toml")
	project := filepath.Join(dir, "project.toml")
	os.WriteFile(system, []byte("[store]\nbackend = \"neo4j\"\natomic_import = false\n"), 0o644)
	os.WriteFile(project, []byte("[store]\nbackend = \"redis\"\n"), 0o644)

	v := viper.New()
	SetDefaults(v)
	mergeConfigFiles(v, []string{system, filepath.Join(dir, "absent.toml"), project})

	cfg, err := LoadWithViper(v)
	if err != nil {
		t.Fatalf("LoadWithViper() failed: %v", err)
	}
	if cfg.Store.Backend != BackendRedis {
		t.Errorf("expected project file to win, got %q", cfg.Store.Backend)
	}
	if cfg.Store.AtomicImport {
		t.Error("expected atomic_import from the system file to survive the merge")
	}
}

func TestValidate(t *testing.T) {
	port := func(p int) *int { return &p }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero port", func(c *Config) { c.Server.Port = port(0) }, true},
		{"negative port", func(c *Config) { c.Server.Port = port(-1) }, true},
		{"port too large", func(c *Config) { c.Server.Port = port(70000) }, true},
		{"unknown backend", func(c *Config) { c.Store.Backend = "cassandra" }, true},
		{"neo4j without uri", func(c *Config) { c.Store.Backend = BackendNeo4j; c.Store.Neo4j.URI = "" }, true},
		{"redis without addr", func(c *Config) { c.Store.Backend = BackendRedis; c.Store.Redis.Addr = "" }, true},
		{"namespace without separator", func(c *Config) { c.Graph.BaseNamespace = "http://example.org/ont" }, true},
		{"slash namespace", func(c *Config) { c.Graph.BaseNamespace = "http://example.org/ont/" }, false},
		{"negative node cap", func(c *Config) { c.Graph.SnapshotNodeLimit = -1 }, true},
		{"negative rounds", func(c *Config) { c.Reasoning.MaxRounds = -1 }, true},
		{"rate without burst", func(c *Config) { c.Server.ReasoningBurst = 0 }, true},
		{"unlimited rate without burst", func(c *Config) { c.Server.ReasoningRatePerMinute = 0; c.Server.ReasoningBurst = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			cfg, err := LoadWithViper(v)
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)

			err = cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFindProjectConfig(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("walks up to am.toml", func(t *testing.T) {
		subDir := filepath.Join(tmpDir, "test1", "subdir")
		os.MkdirAll(subDir, DefaultDirPermissions)
		os.WriteFile(filepath.Join(tmpDir, "test1", "am.toml"), []byte(""), 0o644)

		oldWd, _ := os.Getwd()
		defer os.Chdir(oldWd)
		os.Chdir(subDir)

		result := findProjectConfig()
		if filepath.Base(result) != "am.toml" {
			t.Errorf("expected am.toml, got %q", result)
		}
	})

	t.Run("no config found", func(t *testing.T) {
		subDir := filepath.Join(tmpDir, "test2", "subdir")
		os.MkdirAll(subDir, DefaultDirPermissions)

		oldWd, _ := os.Getwd()
		defer os.Chdir(oldWd)
		os.Chdir(subDir)

		// tmp dirs normally have no am.toml above them
		if result := findProjectConfig(); result != "" && filepath.Dir(result) == subDir {
			t.Errorf("unexpected config %s", result)
		}
	})
}

func TestGetDatabasePath_EnvOverride(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/override.db")

	path, err := GetDatabasePath()
	if err != nil {
		t.Fatal(err)
	}
	if path != "/tmp/override.db" {
		t.Errorf("expected env override, got %q", path)
	}
}
