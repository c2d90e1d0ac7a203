// Package config loads and validates csearch's configuration. Every
// setting is read once at construction into a single tagged Config
// record — no package-global settings, no duck-typed option bags —
// following the teacher's own single-Config-struct-plus-validator
// shape (internal/config/config.go, internal/config/validator.go in
// the teacher repo).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const oneMB = 1024 * 1024

// Config is the full environment-backed configuration surface named in
// spec.md §6.
type Config struct {
	// RepoDir is the root under which repositories are scanned.
	RepoDir string

	// MaxFileSizeToIndexMB gates admission; files over this many
	// megabytes are skipped during indexing (spec.md §4.4 step 5).
	MaxFileSizeToIndexMB int
	// MaxSparseGramLength is K, the extractor's lookahead window.
	MaxSparseGramLength int

	// StoreURI is a full Postgres connection URI. If empty it is
	// built from the Store* fields below.
	StoreURI      string
	StoreHost     string
	StoreUser     string
	StorePassword string
	StoreDatabase string

	// CacheHost/CachePort address the posting hot-set cache.
	CacheHost string
	CachePort int

	// IndexWorkers sizes the fixed worker pool used by the indexer and
	// the query executor (spec.md §5).
	IndexWorkers int

	// ScanExclude holds glob patterns (matched with doublestar)
	// additional to the spec-mandated dotfile exclusion.
	ScanExclude []string
	// ScanInclude, when non-empty, restricts scanning to paths matching
	// at least one of these glob patterns (matched with doublestar).
	// An empty ScanInclude means "everything not excluded."
	ScanInclude []string
}

// MaxFileSizeToIndexBytes returns the configured MB limit in bytes.
func (c *Config) MaxFileSizeToIndexBytes() int64 {
	return int64(c.MaxFileSizeToIndexMB) * oneMB
}

// CacheAddr returns the "host:port" form go-redis expects.
func (c *Config) CacheAddr() string {
	return fmt.Sprintf("%s:%d", c.CacheHost, c.CachePort)
}

// DSN returns the Postgres connection string, preferring an explicit
// URI over the discrete host/user/password/database fields.
func (c *Config) DSN() string {
	if c.StoreURI != "" {
		return c.StoreURI
	}
	return fmt.Sprintf("postgres://%s:%s@%s/%s", c.StoreUser, c.StorePassword, c.StoreHost, c.StoreDatabase)
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		RepoDir:              os.Getenv("REPO_DIR"),
		MaxFileSizeToIndexMB: envInt("MAX_FILE_SIZE_TO_INDEX", 10),
		MaxSparseGramLength:  envInt("MAX_SPARSE_GRAM_LENGTH", 3),
		StoreURI:             os.Getenv("STORE_URI"),
		StoreHost:            os.Getenv("STORE_HOST"),
		StoreUser:            os.Getenv("STORE_USER"),
		StorePassword:        os.Getenv("STORE_PASSWORD"),
		StoreDatabase:        os.Getenv("STORE_DATABASE"),
		CacheHost:            envOr("CACHE_HOST", "127.0.0.1"),
		CachePort:            envInt("CACHE_PORT", 6379),
		IndexWorkers:         envInt("INDEX_WORKERS", 12),
		ScanExclude:          splitCSV(os.Getenv("SCAN_EXCLUDE")),
		ScanInclude:          splitCSV(os.Getenv("SCAN_INCLUDE")),
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
