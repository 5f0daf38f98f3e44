package domain

import (
	"fmt"
	"strings"
)

// Transformation is a named command recognized by the external tool,
// addressed by its position in the catalog.
type Transformation struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// Catalog is the ordered list of transformations available to an agent.
// It is immutable once built.
type Catalog struct {
	names []string
}

// NewCatalog validates and copies the given names.
func NewCatalog(names []string) (Catalog, error) {
	if len(names) == 0 {
		return Catalog{}, &ConfigError{Field: "optimizations", Reason: "catalog must not be empty"}
	}
	seen := make(map[string]struct{}, len(names))
	copied := make([]string, len(names))
	for i, n := range names {
		name := strings.TrimSpace(n)
		if name == "" {
			return Catalog{}, &ConfigError{Field: "optimizations", Reason: fmt.Sprintf("entry %d is blank", i)}
		}
		if _, dup := seen[name]; dup {
			return Catalog{}, &ConfigError{Field: "optimizations", Reason: fmt.Sprintf("duplicate entry %q", name)}
		}
		seen[name] = struct{}{}
		copied[i] = name
	}
	return Catalog{names: copied}, nil
}

// Len returns the size of the action space.
func (c Catalog) Len() int {
	return len(c.names)
}

// At resolves an action index, returning a BoundsError when it is out of range.
func (c Catalog) At(index int) (Transformation, error) {
	if index < 0 || index >= len(c.names) {
		return Transformation{}, &BoundsError{Index: index, Size: len(c.names)}
	}
	return Transformation{Index: index, Name: c.names[index]}, nil
}

// IndexOf returns the index of a transformation name.
func (c Catalog) IndexOf(name string) (int, bool) {
	name = strings.TrimSpace(name)
	for i, n := range c.names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Names returns a copy of the catalog entries.
func (c Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Transformations lists the catalog as indexed entries.
func (c Catalog) Transformations() []Transformation {
	out := make([]Transformation, len(c.names))
	for i, n := range c.names {
		out[i] = Transformation{Index: i, Name: n}
	}
	return out
}
