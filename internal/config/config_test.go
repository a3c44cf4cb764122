package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/lattice-tok/internal/config"
)

func TestDefault_MatchesDocumentedDefaults(t *testing.T) {
	cfg := config.Default()

	require.NotNil(t, cfg.Gate.MDL)
	assert.Equal(t, 0.1, cfg.Gate.MDL.Alpha)
	assert.Equal(t, 0.02, cfg.Gate.MDL.Beta)
	assert.Equal(t, 0.7, cfg.Gate.MDL.C)
	assert.Equal(t, 0.8, cfg.Gate.MDL.Tau)

	assert.Equal(t, 0.15, cfg.Tokenizer.Beta)
	assert.Equal(t, 0.1, cfg.Tokenizer.Gamma)

	assert.Equal(t, 1000, cfg.Ingest.BatchSize)
	assert.Equal(t, 1000, cfg.Lattice.CacheSize)
}

func TestLoad_MissingLatticePathFails(t *testing.T) {
	path := writeConfig(t, `{}`)

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_OverridesDefaultsFromJSONC(t *testing.T) {
	path := writeConfig(t, `{
		// comments are allowed, this is JSONC via hujson
		"lattice": { "path": "lattice.db", "cacheSize": 42 },
		"ingest": { "batchSize": 50 },
		"tokenizer": { "beta": 0.3, "gamma": 0.05 }
	}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "lattice.db", cfg.Lattice.Path)
	assert.Equal(t, 42, cfg.Lattice.CacheSize)
	assert.Equal(t, 50, cfg.Ingest.BatchSize)
	assert.Equal(t, 0.3, cfg.Tokenizer.Beta)
	assert.Equal(t, 0.05, cfg.Tokenizer.Gamma)

	// Untouched sections keep their defaults.
	require.NotNil(t, cfg.Gate.MDL)
	assert.Equal(t, 0.1, cfg.Gate.MDL.Alpha)
}

func TestSequencer_BuildGates_UnknownTypeFails(t *testing.T) {
	seq := config.Sequencer{Gates: []config.GateConfig{{Type: "bogus"}}}

	_, err := seq.BuildGates()
	assert.Error(t, err)
}

func TestSequencer_BuildSequencer_DefaultGatesSucceed(t *testing.T) {
	cfg := config.Default()

	seq, err := cfg.Sequencer.BuildSequencer()
	require.NoError(t, err)
	assert.NotNil(t, seq)
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	return path
}
