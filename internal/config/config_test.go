package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnv clears every config variable and then sets the given ones for this test
func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, name := range envKeys {
		t.Setenv(name, "")
	}
	for name, value := range env {
		t.Setenv(name, value)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	setEnv(t, map[string]string{
		"NEO4J_URI":  "bolt://localhost:7687",
		"NEO4J_USER": "neo4j",
		"NEO4J_PASS": "secret",
	})
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://api.github.com", cfg.GitHubAPIURL)
	assert.Equal(t, StoreNeo4j, cfg.StoreBackend)
	assert.Equal(t, 100, cfg.FollowerThreshold)
	assert.Equal(t, 10000, cfg.RequestTimeoutMs)
	assert.Equal(t, "graph.db", cfg.SQLitePath)
	assert.False(t, cfg.HasToken())
}

func TestFromEnv_MissingNeo4jVars(t *testing.T) {
	setEnv(t, map[string]string{
		"NEO4J_URI": "bolt://localhost:7687",
	})
	_, err := FromEnv()
	require.Error(t, err)

	var missing *MissingConfigError
	require.True(t, errors.As(err, &missing))
	assert.ElementsMatch(t, []string{"NEO4J_USER", "NEO4J_PASS"}, missing.Vars)
	assert.Contains(t, err.Error(), "NEO4J_USER")
}

func TestFromEnv_AllNeo4jVarsMissing(t *testing.T) {
	setEnv(t, map[string]string{})
	_, err := FromEnv()

	var missing *MissingConfigError
	require.ErrorAs(t, err, &missing)
	assert.ElementsMatch(t, []string{"NEO4J_URI", "NEO4J_USER", "NEO4J_PASS"}, missing.Vars)
}

func TestFromEnv_SQLiteDoesNotNeedNeo4j(t *testing.T) {
	setEnv(t, map[string]string{
		"GRAPH_STORE":        "SQLite",
		"SQLITE_PATH":        "/tmp/follows.db",
		"GITHUB_TOKEN":       "ghp_x",
		"FOLLOWER_THRESHOLD": "250",
		"GITHUB_API_URL":     "http://localhost:9999/",
	})
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, StoreSQLite, cfg.StoreBackend)
	assert.Equal(t, "/tmp/follows.db", cfg.SQLitePath)
	assert.Equal(t, 250, cfg.FollowerThreshold)
	assert.Equal(t, "http://localhost:9999", cfg.GitHubAPIURL)
	assert.True(t, cfg.HasToken())
}

func TestFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"GRAPH_STORE": "postgres"}},
		{"non-integer threshold", map[string]string{"GRAPH_STORE": "memory", "FOLLOWER_THRESHOLD": "lots"}},
		{"timeout too small", map[string]string{"GRAPH_STORE": "memory", "REQUEST_TIMEOUT_MS": "10"}},
		{"negative delay", map[string]string{"GRAPH_STORE": "memory", "REQUEST_DELAY_MS": "-5"}},
		{"negative threshold", map[string]string{"GRAPH_STORE": "memory", "FOLLOWER_THRESHOLD": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			_, err := FromEnv()
			require.Error(t, err)

			var missing *MissingConfigError
			assert.False(t, errors.As(err, &missing), "expected a validation error, got %v", err)
		})
	}
}

func TestFromEnv_ZeroThresholdIsKept(t *testing.T) {
	setEnv(t, map[string]string{
		"GRAPH_STORE":        "memory",
		"FOLLOWER_THRESHOLD": "0",
	})
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.FollowerThreshold)

	setEnv(t, map[string]string{"GRAPH_STORE": "memory"})
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.FollowerThreshold)
}
