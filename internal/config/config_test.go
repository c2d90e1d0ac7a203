package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		RepoDir:              "/repos",
		MaxFileSizeToIndexMB: 10,
		MaxSparseGramLength:  3,
		StoreURI:             "postgres://u:p@localhost/db",
		CacheHost:            "127.0.0.1",
		CachePort:            6379,
		IndexWorkers:         12,
	}
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestValidateRejectsMissingRepoDir(t *testing.T) {
	c := validConfig()
	c.RepoDir = ""
	assert.Error(t, Validate(c))
}

func TestValidateRejectsLowGramLength(t *testing.T) {
	c := validConfig()
	c.MaxSparseGramLength = 2
	assert.Error(t, Validate(c))
}

func TestValidateRejectsMissingStoreConnection(t *testing.T) {
	c := validConfig()
	c.StoreURI = ""
	c.StoreHost = ""
	assert.Error(t, Validate(c))
}

func TestValidateAcceptsDiscreteStoreFields(t *testing.T) {
	c := validConfig()
	c.StoreURI = ""
	c.StoreHost = "localhost"
	c.StoreUser = "u"
	c.StoreDatabase = "db"
	assert.NoError(t, Validate(c))
}

func TestMaxFileSizeToIndexBytes(t *testing.T) {
	c := validConfig()
	c.MaxFileSizeToIndexMB = 5
	assert.Equal(t, int64(5*1024*1024), c.MaxFileSizeToIndexBytes())
}

func TestDSNPrefersExplicitURI(t *testing.T) {
	c := validConfig()
	assert.Equal(t, "postgres://u:p@localhost/db", c.DSN())
}

func TestCacheAddr(t *testing.T) {
	c := validConfig()
	assert.Equal(t, "127.0.0.1:6379", c.CacheAddr())
}
