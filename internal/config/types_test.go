package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_YAML(t *testing.T) {
	var c CacheConfig
	require.NoError(t, yaml.Unmarshal([]byte("ttl: 90m\nsweepInterval: 30s\n"), &c))
	assert.Equal(t, 90*time.Minute, c.TTL.Std())
	assert.Equal(t, 30*time.Second, c.SweepInterval.Std())

	out, err := yaml.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(out), "ttl: 1h30m0s")
	assert.Contains(t, string(out), "sweepInterval: 30s")
}

func TestDuration_RejectsNumbers(t *testing.T) {
	var c CacheConfig
	err := yaml.Unmarshal([]byte("ttl: [1, 2]\n"), &c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duration must be a string")
}
