package deviceconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")

	s := &Store{}
	s.Upsert(Profile{Name: "home", Kind: TransportSerial, Device: "/dev/ttyUSB0", Baud: 921600})
	s.Upsert(Profile{Name: "office", Kind: TransportHTTP, Address: "meshtastic.local"})

	require.NoError(t, s.Save(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	require.Len(t, loaded.Profiles, 2)

	p, ok := loaded.Find("home")
	require.True(t, ok)
	assert.Equal(t, TransportSerial, p.Kind)
	assert.Equal(t, "/dev/ttyUSB0", p.Device)
	assert.Equal(t, 921600, p.Baud)
}

func TestUpsertReplacesExisting(t *testing.T) {
	s := &Store{}
	s.Upsert(Profile{Name: "home", Baud: 9600})
	s.Upsert(Profile{Name: "home", Baud: 921600})

	require.Len(t, s.Profiles, 1)
	p, ok := s.Find("home")
	require.True(t, ok)
	assert.Equal(t, 921600, p.Baud)
}

func TestRemove(t *testing.T) {
	s := &Store{}
	s.Upsert(Profile{Name: "home"})

	assert.True(t, s.Remove("home"))
	assert.False(t, s.Remove("home"))
	_, ok := s.Find("home")
	assert.False(t, ok)
}

func TestFindMissingReturnsFalse(t *testing.T) {
	s := &Store{}
	_, ok := s.Find("nope")
	assert.False(t, ok)
}

func TestLoadWithNoFilesReturnsEmptyStore(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { require.NoError(t, os.Chdir(cwd)) }()
	require.NoError(t, os.Chdir(dir))

	s, err := Load()
	require.NoError(t, err)
	assert.Empty(t, s.Profiles)
}
