package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/rankpulse/internal/adapters/driven/config"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// EnvPrefix prefixes environment variables that override file values.
// The key "report.target_hour" is overridden by RANKPULSE_REPORT_TARGET_HOUR.
const EnvPrefix = "RANKPULSE_"

// ConfigStore keeps settings in ~/.rankpulse/config.toml. Tables map to
// dotted keys, and RANKPULSE_* variables win over file values on reads.
// Writes go straight to disk.
type ConfigStore struct {
	path   string
	lookup func(string) (string, bool)

	mu     sync.RWMutex
	values config.Values
}

// NewConfigStore opens dir/config.toml, creating dir if needed. An empty
// dir means ~/.rankpulse. A missing file is an empty configuration.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		dir = filepath.Join(home, ".rankpulse")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &ConfigStore{
		path:   filepath.Join(dir, "config.toml"),
		lookup: os.LookupEnv,
		values: make(config.Values),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the raw value for key. Environment overrides come back as
// strings.
func (s *ConfigStore) Get(key string) (any, bool) {
	if s.lookup != nil {
		if v, ok := s.lookup(config.EnvName(EnvPrefix, key)); ok {
			return v, true
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// one wraps the effective value of key so the shared coercions apply.
func (s *ConfigStore) one(key string) config.Values {
	v, ok := s.Get(key)
	if !ok {
		return nil
	}
	return config.Values{key: v}
}

func (s *ConfigStore) GetString(key string) string        { return s.one(key).String(key) }
func (s *ConfigStore) GetInt(key string) int              { return s.one(key).Int(key) }
func (s *ConfigStore) GetFloat(key string) float64        { return s.one(key).Float(key) }
func (s *ConfigStore) GetBool(key string) bool            { return s.one(key).Bool(key) }
func (s *ConfigStore) GetStringSlice(key string) []string { return s.one(key).Strings(key) }

// Set stores value under key and rewrites the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.write()
}

// Save rewrites the file from memory.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write()
}

// write must be called with mu held.
func (s *ConfigStore) write() error {
	data, err := toml.Marshal(s.values.Nest())
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}

// Load replaces the in-memory values with the file's contents.
func (s *ConfigStore) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.mu.Lock()
		s.values = make(config.Values)
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", s.path, err)
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.values = config.Flatten(doc)
	s.mu.Unlock()
	return nil
}

// Path returns the config file location.
func (s *ConfigStore) Path() string {
	return s.path
}
