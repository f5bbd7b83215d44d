package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "next-qbank", cfg.App.Name)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 0.7, cfg.Pipeline.DuplicateThreshold)
	assert.Equal(t, "scan", cfg.Pipeline.CorpusMode)
	assert.Equal(t, 600, cfg.Pipeline.CacheTTL)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.True(t, cfg.Pipeline.QualityWeights.IsZero())
	assert.Equal(t, "next_qbank_problems", cfg.Elastic.ProblemIndex())
	assert.Same(t, cfg, Get())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  path: /tmp/qbank.db
pipeline:
  duplicateThreshold: 0.8
  qualityWeights:
    accuracy: 0.5
    usage: 0.5
auth:
  required: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/qbank.db", cfg.Database.GetDSN())
	assert.Equal(t, 0.8, cfg.Pipeline.DuplicateThreshold)
	assert.Equal(t, 0.5, cfg.Pipeline.QualityWeights.Accuracy)
	assert.False(t, cfg.Pipeline.QualityWeights.IsZero())
	assert.True(t, cfg.Auth.Required)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("NEXT_QBANK_SERVER_PORT", "9090")
	t.Setenv("NEXT_QBANK_AUTH_JWTSECRET", "from-env")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.GetAddr())
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown driver", content: "database:\n  driver: mysql\n"},
		{name: "threshold out of range", content: "pipeline:\n  duplicateThreshold: 1.5\n"},
		{name: "unknown corpus mode", content: "pipeline:\n  corpusMode: vector\n"},
		{name: "elastic corpus without elastic", content: "pipeline:\n  corpusMode: elastic\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
