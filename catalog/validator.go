package catalog

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrSchemaViolation wraps payloads rejected by a definition's schema.
var ErrSchemaViolation = errors.New("catalog: payload does not match schema")

// Validator validates event data against JSON Schema documents. Compiled
// schemas are cached by content hash.
type Validator struct {
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewValidator creates a new schema validator.
func NewValidator() *Validator {
	return &Validator{
		cache: make(map[string]*jsonschema.Schema),
	}
}

// ValidateDefinition checks data against def.Schema. Definitions without a
// schema always pass.
func (v *Validator) ValidateDefinition(def *Definition, data map[string]any) error {
	if def == nil || len(def.Schema) == 0 {
		return nil
	}
	return v.Validate(def.Schema, data)
}

// Validate checks data against schema. A nil schema skips validation.
// schema may be raw JSON or any value that marshals to a schema document.
func (v *Validator) Validate(schema, data any) error {
	if schema == nil {
		return nil
	}

	raw, err := schemaBytes(schema)
	if err != nil {
		return err
	}

	compiled, err := v.compile(raw)
	if err != nil {
		return fmt.Errorf("schema compilation error: %w", err)
	}

	// Round-trip through JSON so Go-typed values ([]string, map[string]string,
	// ints) reach the validator in their JSON form.
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("decode data: %w", err)
	}

	if err := compiled.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return nil
}

func (v *Validator) compile(raw []byte) (*jsonschema.Schema, error) {
	sum := sha256.Sum256(raw)
	key := hex.EncodeToString(sum[:])

	v.mu.RLock()
	if cached, ok := v.cache[key]; ok {
		v.mu.RUnlock()
		return cached, nil
	}
	v.mu.RUnlock()

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	url := "assetsync://schema/" + key + ".json"

	c := jsonschema.NewCompiler()
	if addErr := c.AddResource(url, doc); addErr != nil {
		return nil, fmt.Errorf("add schema resource: %w", addErr)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v.mu.Lock()
	v.cache[key] = compiled
	v.mu.Unlock()

	return compiled, nil
}

// cached reports the number of compiled schemas. Used by tests.
func (v *Validator) cached() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.cache)
}

func schemaBytes(schema any) ([]byte, error) {
	switch s := schema.(type) {
	case json.RawMessage:
		return s, nil
	case []byte:
		return s, nil
	default:
		raw, err := json.Marshal(schema)
		if err != nil {
			return nil, fmt.Errorf("marshal schema: %w", err)
		}
		return raw, nil
	}
}
