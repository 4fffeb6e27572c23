package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// DataDir is the directory holding managed documents.
	// Relative paths are resolved against the site root.
	DataDir string `json:"data_dir,omitempty"`

	// CredentialsFile is the flat file of "username: hash" lines.
	CredentialsFile string `json:"credentials_file,omitempty"`

	// Bind is the interface the web server listens on.
	Bind string `json:"bind,omitempty"`

	// Port is the web server port.
	Port int `json:"port,omitempty"`

	// SessionTTLHours controls how long an idle session stays valid.
	SessionTTLHours int `json:"session_ttl_hours,omitempty"`

	// GitAutoCommit enables a git add+commit after every document mutation.
	// Commit failures are logged and never fail the mutation itself.
	GitAutoCommit bool `json:"git_autocommit,omitempty"`

	// AllowedExtensions is the set of document extensions accepted by
	// filename validation. Stored without the leading dot.
	AllowedExtensions []string `json:"allowed_extensions,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir:           "data",
		CredentialsFile:   "users.txt",
		Bind:              "127.0.0.1",
		Port:              8080,
		SessionTTLHours:   24,
		AllowedExtensions: []string{"txt", "md"},
	}
}

// Load loads configuration from root/vellum.json.
// Returns default config if the file doesn't exist.
// The root parameter allows tests to use t.TempDir() instead of a real site.
func Load(root string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(root, "vellum.json"))
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)
	merged.resolvePaths(root)
	return merged, nil
}

// resolvePaths anchors relative file locations at the site root.
func (c *Config) resolvePaths(root string) {
	if !filepath.IsAbs(c.DataDir) {
		c.DataDir = filepath.Join(root, c.DataDir)
	}
	if !filepath.IsAbs(c.CredentialsFile) {
		c.CredentialsFile = filepath.Join(root, c.CredentialsFile)
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated,
// except AllowedExtensions where a non-empty overlay replaces the base set.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.DataDir = overlay.DataDir
	if result.DataDir == "" {
		result.DataDir = base.DataDir
	}

	result.CredentialsFile = overlay.CredentialsFile
	if result.CredentialsFile == "" {
		result.CredentialsFile = base.CredentialsFile
	}

	result.Bind = overlay.Bind
	if result.Bind == "" {
		result.Bind = base.Bind
	}

	result.Port = overlay.Port
	if result.Port == 0 {
		result.Port = base.Port
	}

	result.SessionTTLHours = overlay.SessionTTLHours
	if result.SessionTTLHours == 0 {
		result.SessionTTLHours = base.SessionTTLHours
	}

	// Booleans: overlay wins if true, else base
	result.GitAutoCommit = base.GitAutoCommit || overlay.GitAutoCommit

	// A configured extension set replaces the default outright; merging
	// would make the default set impossible to narrow.
	result.AllowedExtensions = cleanStringSlice(overlay.AllowedExtensions)
	if len(result.AllowedExtensions) == 0 {
		result.AllowedExtensions = cleanStringSlice(base.AllowedExtensions)
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// cleanStringSlice trims entries, strips leading dots, and removes duplicates.
func cleanStringSlice(in []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimPrefix(strings.TrimSpace(s), ".")
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
