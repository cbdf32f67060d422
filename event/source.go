package event

import (
	"strings"

	"github.com/google/uuid"
)

const urnUUIDPrefix = "urn:uuid:"

// NormalizeSource maps a caller- or runtime-supplied source into a valid
// CloudEvents URI-reference:
//
//   - a bare UUID becomes "urn:uuid:<uuid>"
//   - a well-formed "urn:uuid:" value is kept
//   - an absolute http(s) URL is kept
//   - any other non-empty string passes through unchanged
//   - an empty string stays empty
//
// Surrounding whitespace is ignored when recognising UUID forms only.
func NormalizeSource(source string) string {
	s := strings.TrimSpace(source)

	if strings.HasPrefix(strings.ToLower(s), urnUUIDPrefix) {
		return s
	}

	if len(s) == 36 {
		if _, err := uuid.Parse(s); err == nil {
			return urnUUIDPrefix + s
		}
	}

	return source
}
