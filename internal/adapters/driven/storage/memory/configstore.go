package memory

import (
	"sync"

	"github.com/custodia-labs/rankpulse/internal/adapters/driven/config"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore holds settings in memory. Load discards writes and goes back
// to the seed, the way the file store re-reads its file.
type ConfigStore struct {
	mu     sync.RWMutex
	seed   config.Values
	values config.Values
}

// NewConfigStore returns an empty store.
func NewConfigStore() *ConfigStore {
	return NewSeededConfigStore(nil)
}

// NewSeededConfigStore starts from a nested document shaped like config.toml.
func NewSeededConfigStore(doc map[string]any) *ConfigStore {
	seed := config.Flatten(doc)
	return &ConfigStore{seed: seed, values: seed.Clone()}
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *ConfigStore) GetString(key string) string        { return s.view(key).String(key) }
func (s *ConfigStore) GetInt(key string) int              { return s.view(key).Int(key) }
func (s *ConfigStore) GetFloat(key string) float64        { return s.view(key).Float(key) }
func (s *ConfigStore) GetBool(key string) bool            { return s.view(key).Bool(key) }
func (s *ConfigStore) GetStringSlice(key string) []string { return s.view(key).Strings(key) }

// view copies out the one entry a getter needs so coercion runs unlocked.
func (s *ConfigStore) view(key string) config.Values {
	v, ok := s.Get(key)
	if !ok {
		return nil
	}
	return config.Values{key: v}
}

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Save is a no-op.
func (s *ConfigStore) Save() error { return nil }

// Load resets the store to its seed.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = s.seed.Clone()
	return nil
}

func (s *ConfigStore) Path() string { return ":memory:" }
