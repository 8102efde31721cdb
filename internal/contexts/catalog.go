package contexts

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// FirstIRQ is the exception number of external interrupt 0.
const FirstIRQ = 16

// Catalog maps context numbers to names.
type Catalog struct {
	Name  string
	names map[uint8]string
}

// catalogFile is for YAML unmarshaling
type catalogFile struct {
	Name     string         `yaml:"name"`
	Contexts map[int]string `yaml:"contexts"`
}

// CatalogError reports a context catalog that could not be loaded.
type CatalogError struct {
	// Path is the catalog file, empty for the built-in catalog
	Path string
	// Underlying error
	Err error
}

func (e *CatalogError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to load built-in context catalog: %v", e.Err)
	}
	return fmt.Sprintf("failed to load context catalog %s: %v", e.Path, e.Err)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
	defaultCatalogErr  error
)

// Default returns the built-in Cortex-M catalog. It is parsed once.
func Default() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = parse(catalogYAML)
		if defaultCatalogErr != nil {
			defaultCatalogErr = &CatalogError{Err: defaultCatalogErr}
		}
	})
	return defaultCatalog, defaultCatalogErr
}

// LoadFile returns the built-in catalog overlaid with the names in path.
func LoadFile(path string) (*Catalog, error) {
	base, err := Default()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CatalogError{Path: path, Err: err}
	}

	overlay, err := parse(data)
	if err != nil {
		return nil, &CatalogError{Path: path, Err: err}
	}

	merged := base.clone()
	if overlay.Name != "" {
		merged.Name = overlay.Name
	}
	for n, name := range overlay.names {
		merged.names[n] = name
	}
	return merged, nil
}

func parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	c := &Catalog{Name: f.Name, names: make(map[uint8]string, len(f.Contexts))}
	for n, name := range f.Contexts {
		if n < 0 || n > 255 {
			return nil, fmt.Errorf("context number %d out of range 0-255", n)
		}
		if name == "" {
			return nil, fmt.Errorf("context %d has an empty name", n)
		}
		c.names[uint8(n)] = name
	}
	return c, nil
}

func (c *Catalog) clone() *Catalog {
	out := &Catalog{Name: c.Name, names: make(map[uint8]string, len(c.names))}
	for n, name := range c.names {
		out.names[n] = name
	}
	return out
}

// ContextName returns the display name for context number n. Unnamed external
// interrupts are shown as IRQ<n-16>, other unnamed numbers as Reserved.
func (c *Catalog) ContextName(n uint8) string {
	if c != nil {
		if name, ok := c.names[n]; ok {
			return name
		}
	}
	if n >= FirstIRQ {
		return fmt.Sprintf("IRQ%d", int(n)-FirstIRQ)
	}
	return "Reserved"
}

// Entry is a named context.
type Entry struct {
	Number uint8
	Name   string
}

// Entries returns the named contexts in number order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.names))
	for n, name := range c.names {
		out = append(out, Entry{Number: n, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
