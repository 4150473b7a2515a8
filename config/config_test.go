package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opcycle/taskgraph/config"
)

func TestDefault_PassesValidation(t *testing.T) {
	assert.NoError(t, config.Default().Validate())
}

func TestValidate_RejectsZeroMarkovOrder(t *testing.T) {
	c := config.Default()
	c.MarkovOrder = 0
	assert.Error(t, c.Validate())
}

func TestValidate_RejectsSingleChildException(t *testing.T) {
	c := config.Default()
	c.MinChildKernelException = 1
	assert.Error(t, c.Validate())
}

func TestValidate_RejectsOutOfRangeEpsilon(t *testing.T) {
	c := config.Default()
	c.ProbabilitySumEpsilon = 0
	assert.Error(t, c.Validate())

	c = config.Default()
	c.ProbabilitySumEpsilon = 1
	assert.Error(t, c.Validate())
}

func TestLoad_OverlaysDefaultsFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_anchor: 32\nsegmentation_mode: true\n"), 0o644))

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(32), c.MinAnchor)
	assert.True(t, c.SegmentationMode)
	// Fields absent from the file keep Default's values.
	assert.Equal(t, config.Default().MaxBottleneckSize, c.MaxBottleneckSize)
}

func TestLoad_RejectsInvalidOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("markov_order: 0\n"), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
