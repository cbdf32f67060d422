package registry

import "errors"

var (
	ErrBrandNotFound    = errors.New("registry: brand not found")
	ErrRuleNotFound     = errors.New("registry: routing rule not found")
	ErrRuleConflict     = errors.New("registry: routing rule already exists")
	ErrVersionConflict  = errors.New("registry: brand was modified concurrently")
	ErrStoreUnavailable = errors.New("registry: durable store unavailable")
	ErrUnauthorized     = errors.New("registry: unauthorized")
	ErrNoDurableStore   = errors.New("registry: no durable store configured")
)

// ValidationError indicates invalid brand input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "registry validation: " + e.Field + ": " + e.Message
}
