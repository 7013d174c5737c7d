package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the tome home directory.
	DefaultDirName = ".tome"

	// DataDirName is the subdirectory for DefraDB data.
	DataDirName = "data"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the tome home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.tome).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the path to the DefraDB data directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	// Create data directory (this also creates the parent)
	if err := os.MkdirAll(d.DataPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// ExportsDir returns the directory for exported files (HTML, plain text).
func (d *Dir) ExportsDir() string {
	return filepath.Join(d.path, "exports")
}

// ExportPath returns the path for an exported file derived from a source
// file's base name.
func (d *Dir) ExportPath(sourcePath, ext string) string {
	base := filepath.Base(sourcePath)
	name := base[:len(base)-len(filepath.Ext(base))]
	return filepath.Join(d.ExportsDir(), name+ext)
}

// EnsureExportsDir creates the exports directory.
func (d *Dir) EnsureExportsDir() error {
	return os.MkdirAll(d.ExportsDir(), 0o755)
}

// ExtractsDir returns the directory for vocabulary extraction output.
func (d *Dir) ExtractsDir() string {
	return filepath.Join(d.path, "extracts")
}

// EnsureExtractsDir creates the extracts directory.
func (d *Dir) EnsureExtractsDir() error {
	return os.MkdirAll(d.ExtractsDir(), 0o755)
}

// CacheDir returns the directory for local caches (word cache database).
func (d *Dir) CacheDir() string {
	return filepath.Join(d.path, "cache")
}

// WordCachePath returns the path to the word cache database.
func (d *Dir) WordCachePath() string {
	return filepath.Join(d.CacheDir(), "words.db")
}

// EnsureCacheDir creates the cache directory.
func (d *Dir) EnsureCacheDir() error {
	return os.MkdirAll(d.CacheDir(), 0o755)
}

// PidPath returns the path to the DefraDB pid file.
func (d *Dir) PidPath() string {
	return filepath.Join(d.path, "defra.pid")
}
