package event

import (
	"errors"
	"fmt"
	"time"

	"github.com/xraph/assetsync/catalog"
	"github.com/xraph/assetsync/id"
)

// ErrPayloadValidationFailed wraps schema violations reported by the catalog validator.
var ErrPayloadValidationFailed = errors.New("event: payload validation failed")

// Builder turns an event code and raw data into a validated Envelope. One
// generic builder serves every code; per-code behavior comes from catalog
// definitions.
type Builder struct {
	catalog   *catalog.Catalog
	validator *catalog.Validator
	now       func() time.Time
}

// NewBuilder creates a builder over cat. validator may be nil to skip
// schema checks.
func NewBuilder(cat *catalog.Catalog, validator *catalog.Validator) *Builder {
	return &Builder{
		catalog:   cat,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Definition returns the catalog definition for code.
func (b *Builder) Definition(code string) (*catalog.Definition, error) {
	return b.catalog.Lookup(code)
}

// BuildOption adjusts a single Build call.
type BuildOption func(*buildOptions)

type buildOptions struct {
	source string
	id     string
}

// WithSource uses source instead of the runtime-derived one.
func WithSource(source string) BuildOption {
	return func(o *buildOptions) { o.source = source }
}

// WithID overrides the generated envelope id.
func WithID(envID string) BuildOption {
	return func(o *buildOptions) { o.id = envID }
}

// Build constructs and validates an envelope:
//  1. Look up the definition for code.
//  2. Copy data and inject the definition's context fields when absent.
//  3. Set the source from the caller or the runtime, normalized, once.
//  4. Check required fields, naming every missing one.
//  5. Apply the definition's JSON Schema, if any.
func (b *Builder) Build(code string, data map[string]any, rt Runtime, opts ...BuildOption) (*Envelope, error) {
	o := buildOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	def, err := b.catalog.Lookup(code)
	if err != nil {
		return nil, err
	}

	payload := cloneMap(data)
	if payload == nil {
		payload = map[string]any{}
	}
	inject(def, payload, rt)

	env := &Envelope{
		SpecVersion:     SpecVersion,
		ID:              o.id,
		Type:            def.Code,
		DataContentType: ContentTypeJSON,
		Time:            b.now(),
		Data:            payload,
		required:        def.RequiredFields,
	}
	if env.ID == "" {
		env.ID = id.NewEventID().String()
	}

	source := o.source
	if source == "" {
		source = rt.Source()
	}
	if err := env.SetSource(source); err != nil {
		return nil, err
	}

	if err := env.Validate(); err != nil {
		return nil, err
	}

	if b.validator != nil {
		if err := b.validator.ValidateDefinition(def, payload); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrPayloadValidationFailed, code, err)
		}
	}

	return env, nil
}

func inject(def *catalog.Definition, data map[string]any, rt Runtime) {
	if def.Injects(catalog.FieldAppRuntimeInfo) {
		if _, ok := data[catalog.FieldAppRuntimeInfo]; !ok {
			if info := rt.RuntimeInfo(); info != nil {
				data[catalog.FieldAppRuntimeInfo] = info
			}
		}
	}
	if def.Injects(catalog.FieldAgencyIdentification) {
		if _, ok := data[catalog.FieldAgencyIdentification]; !ok {
			if info := rt.AgencyIdentification(); info != nil {
				data[catalog.FieldAgencyIdentification] = info
			}
		}
	}
}
