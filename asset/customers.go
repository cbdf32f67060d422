package asset

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidCustomerFormat is wrapped by FormatError.
var ErrInvalidCustomerFormat = errors.New("asset: invalid customer list format")

// FormatError reports a subscriber value whose shape cannot be normalized.
type FormatError struct {
	Value any
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("asset: customer list has unsupported type %T", e.Value)
}

func (e *FormatError) Unwrap() error { return ErrInvalidCustomerFormat }

// NormalizeCustomers turns the customer value found in asset metadata into an
// ordered list of brand ids. Lists keep their order; maps contribute their
// values ordered by key; strings are split on commas. Blank ids are dropped
// and duplicates keep their first position. nil yields an empty list.
func NormalizeCustomers(v any) ([]string, error) {
	var ids []string

	switch c := v.(type) {
	case nil:
		return []string{}, nil
	case string:
		ids = strings.Split(c, ",")
	case []string:
		ids = c
	case []any:
		for _, item := range c {
			s, ok := item.(string)
			if !ok {
				return nil, &FormatError{Value: v}
			}
			ids = append(ids, s)
		}
	case map[string]string:
		for _, k := range sortedKeys(c) {
			ids = append(ids, c[k])
		}
	case map[string]any:
		for _, k := range sortedKeys(c) {
			s, ok := c[k].(string)
			if !ok {
				return nil, &FormatError{Value: v}
			}
			ids = append(ids, s)
		}
	default:
		return nil, &FormatError{Value: v}
	}

	return dedupe(ids), nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
