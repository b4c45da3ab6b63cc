package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mnemo-ai/mnemo/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "qdrant", cfg.Vector.Engine)
	assert.Equal(t, 2, cfg.Retrieval.MaxHops)
	assert.Equal(t, 0.7, cfg.Retrieval.DecayFactor)
	assert.Equal(t, 2500*time.Millisecond, cfg.Retrieval.OverallDeadline)
	assert.Equal(t, 8, cfg.Retrieval.TopKPerPhrase)
	assert.Equal(t, 30, cfg.Retrieval.CandidateCap)
	assert.Equal(t, 50, cfg.Retrieval.TraversalCap)
	assert.Equal(t, 2000, cfg.Retrieval.PayloadTokenBudget)
	assert.Equal(t, 10*time.Minute, cfg.Redis.EchoTTL)
	assert.True(t, cfg.Retrieval.ShareVisibility)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
vector:
  engine: milvus
  host: milvus.internal
retrieval:
  max_hops: 3
  decay_factor: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "milvus", cfg.Vector.Engine)
	assert.Equal(t, "milvus.internal", cfg.Vector.Host)
	assert.Equal(t, 3, cfg.Retrieval.MaxHops)
	assert.Equal(t, 0.5, cfg.Retrieval.DecayFactor)
	// Untouched keys keep their defaults.
	assert.Equal(t, 800*time.Millisecond, cfg.Retrieval.Stage1Timeout)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Vector.Engine = "pinecone"
	cfg.Retrieval.MaxHops = 9
	cfg.Retrieval.DecayFactor = 1.5
	cfg.Retrieval.TraversalCap = 5 // below candidate cap
	cfg.Retrieval.TraversalWeight = 0.9

	err = cfg.Validate()
	require.Error(t, err)

	var configErr *apperrors.ConfigError
	require.True(t, errors.As(err, &configErr))
	assert.Len(t, configErr.Problems, 5)
}

func TestValidateWeightsMustSumToOne(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Retrieval.ImportanceWeight = 0.4

	err = cfg.Validate()
	require.Error(t, err)

	var configErr *apperrors.ConfigError
	require.True(t, errors.As(err, &configErr))
	assert.Contains(t, configErr.Problems[0], "sum to 1.0")
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
