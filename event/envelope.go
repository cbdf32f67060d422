// Package event builds CloudEvents-shaped envelopes from an event code, raw
// data and the runtime context of the current invocation.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// SpecVersion is the CloudEvents specification version emitted.
const SpecVersion = "1.0"

// ContentTypeJSON is the only data content type produced.
const ContentTypeJSON = "application/json"

var (
	// ErrMissingRequiredFields is wrapped by MissingFieldsError.
	ErrMissingRequiredFields = errors.New("event: missing required fields")

	// ErrSourceAlreadySet is returned by a second SetSource call.
	ErrSourceAlreadySet = errors.New("event: source already set")

	// ErrInvalidEnvelope is returned when id, type or data are absent.
	ErrInvalidEnvelope = errors.New("event: invalid envelope")
)

// MissingFieldsError names every required field absent from data.
type MissingFieldsError struct {
	Code   string
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("event %s: missing required fields: %s", e.Code, strings.Join(e.Fields, ", "))
}

// Unwrap lets errors.Is match ErrMissingRequiredFields.
func (e *MissingFieldsError) Unwrap() error { return ErrMissingRequiredFields }

// Envelope is the CloudEvents-shaped unit delivered to brands and published
// to the internal bus.
type Envelope struct {
	SpecVersion     string         `json:"specversion"`
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	Source          string         `json:"source"`
	DataContentType string         `json:"datacontenttype"`
	Time            time.Time      `json:"time"`
	Data            map[string]any `json:"data"`

	required  []string
	sourceSet bool
}

// SetSource normalizes and assigns the source. It may be called once.
func (e *Envelope) SetSource(source string) error {
	if e.sourceSet {
		return ErrSourceAlreadySet
	}
	e.Source = NormalizeSource(source)
	e.sourceSet = true
	return nil
}

// Require sets the data fields Validate checks for. Decoded envelopes start
// with none.
func (e *Envelope) Require(fields ...string) {
	e.required = append([]string(nil), fields...)
}

// Validate checks the structural fields and that every required data key is
// present. Values are not inspected.
func (e *Envelope) Validate() error {
	switch {
	case e.ID == "":
		return fmt.Errorf("%w: id is empty", ErrInvalidEnvelope)
	case e.Type == "":
		return fmt.Errorf("%w: type is empty", ErrInvalidEnvelope)
	case e.Data == nil:
		return fmt.Errorf("%w: data is nil", ErrInvalidEnvelope)
	}

	var missing []string
	for _, f := range e.required {
		if _, ok := e.Data[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingFieldsError{Code: e.Type, Fields: missing}
	}
	return nil
}

// JSON returns the canonical JSON encoding of the envelope.
func (e *Envelope) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// BrandID returns data.brandId when it is a string.
func (e *Envelope) BrandID() string {
	s, _ := e.Data["brandId"].(string)
	return s
}

// Clone returns a copy whose top-level data map is independent.
func (e *Envelope) Clone() *Envelope {
	out := *e
	out.Data = cloneMap(e.Data)
	if e.required != nil {
		out.required = append([]string(nil), e.required...)
	}
	return &out
}

// Decode parses a CloudEvents JSON document. The result has no required
// fields attached; Validate only checks the structural fields.
func Decode(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	env.sourceSet = env.Source != ""
	return &env, nil
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
