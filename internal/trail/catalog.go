package trail

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrNotFound is returned when a catalog entry does not exist or the name is not a plain file name
var ErrNotFound = errors.New("trail file not found")

// Catalog lists the bundled trail files in a directory
type Catalog struct {
	dir  string
	exts []string
}

// NewCatalog creates a catalog over dir accepting files with the given
// extensions (".gpx" when none are given).
func NewCatalog(dir string, exts ...string) *Catalog {
	if len(exts) == 0 {
		exts = []string{".gpx"}
	}
	lower := make([]string, len(exts))
	for i, e := range exts {
		lower[i] = strings.ToLower(e)
	}
	return &Catalog{dir: dir, exts: lower}
}

// Dir returns the catalog directory
func (c *Catalog) Dir() string {
	return c.dir
}

// List returns the sorted file names in the catalog. A missing directory is an empty catalog.
func (c *Catalog) List() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !c.accepts(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

// Open reads a catalog file by name
func (c *Catalog) Open(name string) ([]byte, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || !c.accepts(name) {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(filepath.Join(c.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (c *Catalog) accepts(name string) bool {
	return slices.Contains(c.exts, strings.ToLower(filepath.Ext(name)))
}
