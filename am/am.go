package am

import "os"

// Config represents the kgbridge configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database" toml:"database" yaml:"database"`
	Server    ServerConfig    `mapstructure:"server" toml:"server" yaml:"server"`
	Store     StoreConfig     `mapstructure:"store" toml:"store" yaml:"store"`
	Graph     GraphConfig     `mapstructure:"graph" toml:"graph" yaml:"graph"`
	Reasoning ReasoningConfig `mapstructure:"reasoning" toml:"reasoning" yaml:"reasoning"`
}

// DatabaseConfig configures the SQLite database used by the sqlite store backend
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path" yaml:"path"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port                   *int     `mapstructure:"port" toml:"port,omitempty" yaml:"port,omitempty"` // nil = DefaultServerPort, 0 is invalid
	AllowedOrigins         []string `mapstructure:"allowed_origins" toml:"allowed_origins" yaml:"allowed_origins"`
	ReasoningRatePerMinute int      `mapstructure:"reasoning_rate_per_minute" toml:"reasoning_rate_per_minute" yaml:"reasoning_rate_per_minute"` // 0 = unlimited
	ReasoningBurst         int      `mapstructure:"reasoning_burst" toml:"reasoning_burst" yaml:"reasoning_burst"`
}

// Server port constants
const (
	DefaultServerPort = 8080
)

// Store backends
const (
	BackendSQLite = "sqlite"
	BackendNeo4j  = "neo4j"
	BackendRedis  = "redis"
)

// StoreConfig selects and configures the property graph store
type StoreConfig struct {
	Backend      string      `mapstructure:"backend" toml:"backend" yaml:"backend"`
	AtomicImport bool        `mapstructure:"atomic_import" toml:"atomic_import" yaml:"atomic_import"` // run each import in one store transaction when supported
	Neo4j        Neo4jConfig `mapstructure:"neo4j" toml:"neo4j" yaml:"neo4j"`
	Redis        RedisConfig `mapstructure:"redis" toml:"redis" yaml:"redis"`
}

// Neo4jConfig configures the Neo4j backend
type Neo4jConfig struct {
	URI      string `mapstructure:"uri" toml:"uri" yaml:"uri"`
	Username string `mapstructure:"username" toml:"username" yaml:"username"`
	Password string `mapstructure:"password" toml:"password" yaml:"-"`
	Database string `mapstructure:"database" toml:"database" yaml:"database"`
}

// RedisConfig configures the Redis backend
type RedisConfig struct {
	Addr      string `mapstructure:"addr" toml:"addr" yaml:"addr"`
	Password  string `mapstructure:"password" toml:"password" yaml:"-"`
	DB        int    `mapstructure:"db" toml:"db" yaml:"db"`
	KeyPrefix string `mapstructure:"key_prefix" toml:"key_prefix" yaml:"key_prefix"`
}

// GraphConfig configures the graph mapping and snapshot
type GraphConfig struct {
	BaseNamespace     string `mapstructure:"base_namespace" toml:"base_namespace" yaml:"base_namespace"`
	SnapshotNodeLimit int    `mapstructure:"snapshot_node_limit" toml:"snapshot_node_limit" yaml:"snapshot_node_limit"`
	SnapshotEdgeLimit int    `mapstructure:"snapshot_edge_limit" toml:"snapshot_edge_limit" yaml:"snapshot_edge_limit"`
}

// ReasoningConfig configures the rule engine and the transfer-process variant
type ReasoningConfig struct {
	MaxRounds          int      `mapstructure:"max_rounds" toml:"max_rounds" yaml:"max_rounds"`
	MaxTriples         int      `mapstructure:"max_triples" toml:"max_triples" yaml:"max_triples"`
	TransferRulesPaths []string `mapstructure:"transfer_rules_paths" toml:"transfer_rules_paths" yaml:"transfer_rules_paths"`
}

// DefaultDirPermissions is used for ~/.kgbridge
const DefaultDirPermissions os.FileMode = 0o755

// ServerPort returns the configured port or DefaultServerPort
func (c *Config) ServerPort() int {
	if c.Server.Port == nil {
		return DefaultServerPort
	}
	return *c.Server.Port
}
