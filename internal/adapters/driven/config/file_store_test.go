package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Load_MissingFile(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestFileStore_SaveLoad_RoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	want := &Config{
		ClientID:       "client-123",
		Tenant:         "organizations",
		DefaultAccount: "user@example.com",
	}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileStore_Save_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(&Config{ClientID: "abc"}))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFileStore_Load_Malformed(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), []byte("client_id = [broken"), 0o600))

	_, err = store.Load()
	assert.ErrorContains(t, err, "parsing config file")
}

func TestFileStore_OmitsUnsetFields(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save(&Config{ClientID: "abc"}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "client_id")
	assert.NotContains(t, string(data), "tenant")
	assert.NotContains(t, string(data), "default_account")
}

func TestNewFileStore_DefaultsToHomeDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewFileStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".outlook-cli", "config.toml"), store.Path())
}
