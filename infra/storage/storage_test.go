package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()

	_, ok := s.Get("missing")
	assert.False(t, ok)

	require.NoError(t, s.Set("gateway", "Stripe"))
	value, ok := s.Get("gateway")
	assert.True(t, ok)
	assert.Equal(t, "Stripe", value)

	require.NoError(t, s.Set("gateway", "Braintree"))
	value, _ = s.Get("gateway")
	assert.Equal(t, "Braintree", value)

	require.NoError(t, s.Remove("gateway"))
	_, ok = s.Get("gateway")
	assert.False(t, ok)

	// Removing an absent key is not an error.
	require.NoError(t, s.Remove("gateway"))
}

func TestSQLiteStorage(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "paybridge.db")

	s, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.Get("missing")
	assert.False(t, ok)

	require.NoError(t, s.Set("gateway", "Authorize.Net"))
	value, ok := s.Get("gateway")
	assert.True(t, ok)
	assert.Equal(t, "Authorize.Net", value)

	require.NoError(t, s.Set("gateway", "Stripe"))
	value, _ = s.Get("gateway")
	assert.Equal(t, "Stripe", value)

	require.NoError(t, s.Remove("gateway"))
	_, ok = s.Get("gateway")
	assert.False(t, ok)
}

func TestSQLiteStorage_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "paybridge.db")

	s, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Set("paybridge:active-gateway", "Braintree"))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	value, ok := reopened.Get("paybridge:active-gateway")
	assert.True(t, ok)
	assert.Equal(t, "Braintree", value)
}
