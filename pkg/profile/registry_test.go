package profile_test

import (
	"testing"

	"github.com/pbarbosa/espalier/pkg/domain"
	"github.com/pbarbosa/espalier/pkg/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	reg := profile.Default()

	assert.Equal(t, []string{"balanced", "incident-safe", "resilient"}, reg.Names())

	p, err := reg.Get("incident-safe")
	require.NoError(t, err)
	assert.Equal(t, 1, p.MaxRetries)
	assert.True(t, p.FailFast)

	p, err = reg.Get("balanced")
	require.NoError(t, err)
	assert.Equal(t, 3, p.MaxRetries)
	assert.Zero(t, p.Timeout)
	assert.False(t, p.FailFast)
}

func TestGet_UnknownListsValidNames(t *testing.T) {
	reg := profile.Default()

	_, err := reg.Get("turbo")
	require.ErrorIs(t, err, profile.ErrUnknownProfile)
	assert.Contains(t, err.Error(), "balanced, incident-safe, resilient")
}

func TestNewRegistry_Validation(t *testing.T) {
	_, err := profile.NewRegistry(domain.ExecutionProfile{Name: ""})
	assert.Error(t, err)

	_, err = profile.NewRegistry(
		domain.ExecutionProfile{Name: "a"},
		domain.ExecutionProfile{Name: "a"},
	)
	assert.Error(t, err)

	_, err = profile.NewRegistry(domain.ExecutionProfile{Name: "neg", MaxRetries: -1})
	assert.Error(t, err)
}

func TestRegistry_CustomSet(t *testing.T) {
	reg, err := profile.NewRegistry(domain.ExecutionProfile{Name: "test-only", MaxRetries: 0})
	require.NoError(t, err)

	_, err = reg.Get("balanced")
	assert.ErrorIs(t, err, profile.ErrUnknownProfile)

	p, err := reg.Get("test-only")
	require.NoError(t, err)
	assert.Equal(t, "test-only", p.Name)
}
