package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vango-dev/sugar/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "sugar.json"

	// DefaultBackend is the storage backend used when none is configured.
	DefaultBackend = BackendFile

	// DefaultStorageDir is the file backend directory.
	DefaultStorageDir = ".sugar/store"

	// DefaultSQLitePath is the sqlite backend database file.
	DefaultSQLitePath = ".sugar/store.db"

	// DefaultTable is the SQL backend table.
	DefaultTable = "sugar_items"

	// DefaultInspectAddr is the inspector listen address.
	DefaultInspectAddr = "localhost:7070"

	// DefaultLocalesDir is the i18n dictionary directory.
	DefaultLocalesDir = "locales"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
)

// Serialization formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config represents the complete sugar.json configuration.
type Config struct {
	// Storage selects and configures the persistence backend.
	Storage StorageConfig `json:"storage"`

	// Walk contains defaults for `sugar walk`.
	Walk WalkConfig `json:"walk"`

	// I18n contains defaults for `sugar i18n`.
	I18n I18nConfig `json:"i18n"`

	// Inspect contains inspector server settings.
	Inspect InspectConfig `json:"inspect"`

	// Log configures the CLI logger.
	Log LogConfig `json:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// StorageConfig configures the persistence backend.
type StorageConfig struct {
	// Backend is one of memory, file, sqlite or s3.
	Backend string `json:"backend,omitempty"`

	// Path is the directory (file) or database file (sqlite).
	Path string `json:"path,omitempty"`

	// Table is the SQL table name.
	Table string `json:"table,omitempty"`

	// Bucket is the S3 bucket.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is prepended to S3 object keys.
	Prefix string `json:"prefix,omitempty"`

	// Region is the S3 region. Default: $AWS_REGION.
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty"`

	// PathStyle forces path-style S3 addressing.
	PathStyle bool `json:"pathStyle,omitempty"`

	// Format is the value encoding, json or yaml.
	Format string `json:"format,omitempty"`
}

// WalkConfig contains walk defaults.
type WalkConfig struct {
	// Extensions keeps only files with these extensions (no dot).
	Extensions []string `json:"extensions,omitempty"`

	// Pattern keeps only files whose name matches this regular expression.
	Pattern string `json:"pattern,omitempty"`

	// Skip lists directory names that are not descended into.
	Skip []string `json:"skip,omitempty"`
}

// I18nConfig contains i18n defaults.
type I18nConfig struct {
	// Dir holds one dictionary file per locale.
	Dir string `json:"dir,omitempty"`

	// DefaultLocale is the locale used when --locale is not given.
	DefaultLocale string `json:"defaultLocale,omitempty"`
}

// InspectConfig contains inspector settings.
type InspectConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty"`

	// Stores lists the storage keys served as live stores. Empty means
	// every key the backend can list.
	Stores []string `json:"stores,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified directory.
// It looks for sugar.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("S101").
				WithSubject(path).
				WithSuggestion("Create sugar.json or pass --config")
		}
		return nil, errors.New("S102").WithSubject(path).Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("S102").
			WithSubject(path).
			WithDetail("Failed to parse sugar.json: " + err.Error()).
			WithSuggestion("Check that sugar.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("S102").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("S102").WithSubject(path).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	s := &c.Storage
	if s.Backend == "" {
		s.Backend = DefaultBackend
	}
	s.Backend = strings.ToLower(s.Backend)
	if s.Path == "" {
		switch s.Backend {
		case BackendSQLite:
			s.Path = DefaultSQLitePath
		case BackendFile:
			s.Path = DefaultStorageDir
		}
	}
	if s.Table == "" {
		s.Table = DefaultTable
	}
	if s.Format == "" {
		s.Format = FormatJSON
	}
	if s.Region == "" {
		s.Region = os.Getenv("AWS_REGION")
	}

	// An explicit empty list keeps every directory.
	if c.Walk.Skip == nil {
		c.Walk.Skip = []string{".git", "node_modules"}
	}
	if c.I18n.Dir == "" {
		c.I18n.Dir = DefaultLocalesDir
	}
	if c.Inspect.Addr == "" {
		c.Inspect.Addr = DefaultInspectAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	s := c.Storage
	switch s.Backend {
	case BackendMemory:
	case BackendFile, BackendSQLite:
		if s.Path == "" {
			return errors.New("S201").
				WithSubject("storage.path").
				WithDetailf("backend %q needs a path", s.Backend)
		}
	case BackendS3:
		if s.Bucket == "" {
			return errors.New("S201").
				WithSubject("storage.bucket").
				WithDetail(`backend "s3" needs a bucket`).
				WithSuggestion(`Set "storage.bucket" in sugar.json`)
		}
		if s.Region == "" && s.Endpoint == "" {
			return errors.New("S201").
				WithSubject("storage.region").
				WithDetail(`backend "s3" needs a region or an endpoint`).
				WithSuggestion("Set AWS_REGION or \"storage.region\"")
		}
	default:
		return errors.New("S103").
			WithSubject("storage.backend").
			WithDetailf("unknown backend %q; want memory, file, sqlite or s3", s.Backend)
	}

	if !slices.Contains([]string{FormatJSON, FormatYAML}, s.Format) {
		return errors.New("S103").
			WithSubject("storage.format").
			WithDetailf("unknown format %q; want json or yaml", s.Format)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("S103").
			WithSubject("log.format").
			WithDetailf("unknown log format %q; want text or json", c.Log.Format)
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.New("S103").WithSubject("log.level").Wrap(err)
	}
	return level, nil
}

// Resolve returns p relative to the config directory unless it is absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir(), p)
}

// StoragePath returns the absolute backend path.
func (c *Config) StoragePath() string {
	return c.Resolve(c.Storage.Path)
}

// LocalesPath returns the absolute i18n directory.
func (c *Config) LocalesPath() string {
	return c.Resolve(c.I18n.Dir)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing sugar.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("S101").
				WithDetail("No sugar.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the nearest sugar.json at
// or above the working directory. Without one it returns the defaults,
// resolved against the working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		cfg := New()
		cfg.configPath = filepath.Join(wd, ConfigFileName)
		return cfg, nil
	}
	return Load(root)
}
