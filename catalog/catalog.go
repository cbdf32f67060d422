// Package catalog is the registry of event definitions.
//
// Every envelope is built from a definition looked up by event code. The
// catalog starts with the built-in asset, registration and brand codes and
// accepts additional definitions at runtime.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknownEventCode is returned when no definition exists for a code.
	ErrUnknownEventCode = errors.New("catalog: unknown event code")

	// ErrInvalidDefinition is returned by Register for malformed definitions.
	ErrInvalidDefinition = errors.New("catalog: invalid definition")
)

// Catalog holds event definitions keyed by code. It is safe for concurrent use.
type Catalog struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// New creates a catalog holding the built-in definitions plus extra.
// Extra definitions replace built-ins with the same code.
func New(extra ...Definition) *Catalog {
	c := &Catalog{defs: make(map[string]*Definition)}
	for _, def := range Builtin() {
		c.put(def)
	}
	for _, def := range extra {
		c.put(def)
	}
	return c
}

// Register adds or replaces a definition.
func (c *Catalog) Register(def Definition) error {
	if strings.TrimSpace(def.Code) == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidDefinition)
	}
	switch def.Category {
	case CategoryAgency, CategoryRegistration, CategoryBrand:
	default:
		return fmt.Errorf("%w: unknown category %q", ErrInvalidDefinition, def.Category)
	}

	c.mu.Lock()
	c.put(def)
	c.mu.Unlock()
	return nil
}

// Lookup returns a copy of the definition for code.
func (c *Catalog) Lookup(code string) (*Definition, error) {
	c.mu.RLock()
	def, ok := c.defs[code]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventCode, code)
	}
	out := *def
	return &out, nil
}

// List returns definitions whose code matches pattern, sorted by code.
// An empty pattern matches everything.
func (c *Catalog) List(pattern string) []Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]Definition, 0, len(c.defs))
	for code, def := range c.defs {
		if pattern != "" && !Match(pattern, code) {
			continue
		}
		result = append(result, *def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Code < result[j].Code
	})
	return result
}

// put must be called with the write lock held (or before the catalog is shared).
func (c *Catalog) put(def Definition) {
	d := def
	c.defs[d.Code] = &d
}
