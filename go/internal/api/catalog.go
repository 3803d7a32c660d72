package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Catalog files served by /api/lists.
const (
	DepartmentsFile   = "departments.json"
	BusinessUnitsFile = "business-units.json"
)

// ErrDataDirNotFound is returned when no candidate data directory exists.
var ErrDataDirNotFound = errors.New("data dir not found")

// ResolveDataDir returns the first existing directory among the configured dir, ./data and
// ../data relative to the executable.
func ResolveDataDir(configured string) (string, error) {
	var candidates []string
	if configured != "" {
		if abs, err := filepath.Abs(configured); err == nil {
			candidates = append(candidates, abs)
		}
	}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, "data"))
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "..", "data"))
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c, nil
		}
	}
	return "", ErrDataDirNotFound
}

// Catalog reads the static department and business-unit lists. Files are re-read on every
// call so edits apply without a restart.
type Catalog struct {
	dir string
}

func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

func (c *Catalog) Departments() (json.RawMessage, error) {
	return c.read(DepartmentsFile)
}

func (c *Catalog) BusinessUnits() (json.RawMessage, error) {
	return c.read(BusinessUnitsFile)
}

func (c *Catalog) read(name string) (json.RawMessage, error) {
	if c.dir == "" {
		return nil, ErrDataDirNotFound
	}
	data, err := os.ReadFile(filepath.Join(c.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s is not valid JSON", name)
	}
	return data, nil
}
