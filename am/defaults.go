package am

import (
	"github.com/spf13/viper"
)

// Default values shared by SetDefaults and the getters below
const (
	DefaultDatabasePath      = "kgbridge.db"
	DefaultBaseNamespace     = "http://example.org/ont#"
	DefaultSnapshotNodeLimit = 500
	DefaultSnapshotEdgeLimit = 1000
	DefaultMaxRounds         = 64
	DefaultMaxTriples        = 1_000_000
)

// DefaultTransferRulesPaths are tried in order; the first existing file wins
var DefaultTransferRulesPaths = []string{
	"/app/transfer-process-rules.rules",
	"rules/transfer-process-rules.rules",
	"transfer-process-rules.rules",
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", DefaultDatabasePath)

	// Server configuration defaults (server.port stays unset: nil means DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
	})
	v.SetDefault("server.reasoning_rate_per_minute", 60) // reasoning is CPU-bound
	v.SetDefault("server.reasoning_burst", 5)

	// Store defaults
	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("store.atomic_import", true)
	v.SetDefault("store.neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("store.neo4j.username", "neo4j")
	v.SetDefault("store.neo4j.database", "neo4j")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.key_prefix", "kgbridge:")

	// Graph mapping defaults
	v.SetDefault("graph.base_namespace", DefaultBaseNamespace)
	v.SetDefault("graph.snapshot_node_limit", DefaultSnapshotNodeLimit)
	v.SetDefault("graph.snapshot_edge_limit", DefaultSnapshotEdgeLimit)

	// Reasoning defaults
	v.SetDefault("reasoning.max_rounds", DefaultMaxRounds)
	v.SetDefault("reasoning.max_triples", DefaultMaxTriples)
	v.SetDefault("reasoning.transfer_rules_paths", DefaultTransferRulesPaths)
}

// BindSensitiveEnvVars explicitly binds credentials to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	_ = v.BindEnv("store.neo4j.password", "KGBRIDGE_NEO4J_PASSWORD", "NEO4J_PASSWORD")
	_ = v.BindEnv("store.redis.password", "KGBRIDGE_REDIS_PASSWORD", "REDIS_PASSWORD")
	_ = v.BindEnv("database.path", "KGBRIDGE_DATABASE_PATH")
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return DefaultDatabasePath
	}
	return c.Database.Path
}

// GetServerAllowedOrigins returns the allowed CORS origins
func (c *Config) GetServerAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return []string{"http://localhost", "http://127.0.0.1"}
	}
	return c.Server.AllowedOrigins
}

// GetBaseNamespace returns the namespace used for exported types and predicates
func (c *Config) GetBaseNamespace() string {
	if c.Graph.BaseNamespace == "" {
		return DefaultBaseNamespace
	}
	return c.Graph.BaseNamespace
}

// GetTransferRulesPaths returns the candidate rule document locations
func (c *Config) GetTransferRulesPaths() []string {
	if len(c.Reasoning.TransferRulesPaths) == 0 {
		return DefaultTransferRulesPaths
	}
	return c.Reasoning.TransferRulesPaths
}
