// Package deviceconf loads and saves named radio connection profiles from
// YAML, grounded on the teacher's deviceid.go: same gopkg.in/yaml.v3
// library, the same "search a list of conventional locations, use the
// first that opens" lookup strategy, generalized from a single compiled-in
// tocalls table to a set of user-editable per-radio profiles a host
// application can list and pick from.
package deviceconf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// TransportKind names which transport.Transport a Profile connects through.
type TransportKind string

const (
	TransportSerial TransportKind = "serial"
	TransportBLE    TransportKind = "ble"
	TransportHTTP   TransportKind = "http"
)

// Profile is one saved radio connection, the unit of data the schema
// leaves entirely to the host application (spec.md never defines
// persistence; this is this module's answer to "how does a CLI remember
// which radio to reconnect to").
type Profile struct {
	Name    string        `yaml:"name"`
	Kind    TransportKind `yaml:"kind"`
	Device  string        `yaml:"device,omitempty"`  // serial device path
	Baud    int           `yaml:"baud,omitempty"`     // serial baud rate
	Address string        `yaml:"address,omitempty"`  // ble address or http host:port
	Channel uint32        `yaml:"channel,omitempty"`  // default channel index for sendText
}

// Store is a named collection of Profiles, the on-disk document shape.
type Store struct {
	Profiles []Profile `yaml:"profiles"`
}

// searchLocations mirrors the teacher's deviceid.go list: current
// directory first, then XDG-ish fallbacks, so a profile file dropped next
// to the binary or in the user's config directory is found without
// requiring a flag.
func searchLocations() []string {
	locs := []string{"meshcore.yaml", "meshcore-profiles.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		locs = append(locs, filepath.Join(home, ".config", "meshcore", "profiles.yaml"))
	}
	locs = append(locs, "/etc/meshcore/profiles.yaml")
	return locs
}

// Load searches searchLocations for the first file that opens and parses
// it as a Store. It returns an empty Store, not an error, if none exist:
// a fresh install has no profiles yet.
func Load() (*Store, error) {
	for _, loc := range searchLocations() {
		f, err := os.Open(loc)
		if err != nil {
			continue
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("deviceconf: read %s: %w", loc, err)
		}
		var s Store
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("deviceconf: parse %s: %w", loc, err)
		}
		return &s, nil
	}
	return &Store{}, nil
}

// LoadFrom parses path directly, bypassing searchLocations, for callers
// that pass an explicit --config flag.
func LoadFrom(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("deviceconf: read %s: %w", path, err)
	}
	var s Store
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("deviceconf: parse %s: %w", path, err)
	}
	return &s, nil
}

// Save writes s to path as YAML, creating parent directories as needed.
func (s *Store) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("deviceconf: mkdir: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("deviceconf: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Find returns the profile named name, or false if none matches.
func (s *Store) Find(name string) (Profile, bool) {
	for _, p := range s.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// Upsert replaces the profile with p.Name or appends p if none exists.
func (s *Store) Upsert(p Profile) {
	for i, existing := range s.Profiles {
		if existing.Name == p.Name {
			s.Profiles[i] = p
			return
		}
	}
	s.Profiles = append(s.Profiles, p)
}

// Remove deletes the profile named name, reporting whether one was found.
func (s *Store) Remove(name string) bool {
	for i, p := range s.Profiles {
		if p.Name == name {
			s.Profiles = append(s.Profiles[:i], s.Profiles[i+1:]...)
			return true
		}
	}
	return false
}
