package driven

// ConfigStore is the dotted-key settings store behind SettingsService, for
// example "report.target_hour". Typed getters coerce what the backend holds:
// numeric and boolean strings parse, a comma-separated string is a slice,
// and anything unusable reads as the zero value.
type ConfigStore interface {
	// Get returns the raw value and whether key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set writes through to the backend.
	Set(key string, value any) error

	Save() error
	// Load discards in-memory state and re-reads the backend.
	Load() error

	// Path identifies the backend, such as a file path.
	Path() string
}
