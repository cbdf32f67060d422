package catalog

import "strings"

// Match checks if an event code matches a pattern.
//
// Supported patterns:
//
//	"com.adobe.a2b.assetsync.new"  → exact match
//	"com.adobe.a2b.assetsync.*"    → single segment wildcard
//	"com.adobe.a2b.**"             → trailing wildcard, one or more segments
//	"*"                            → matches everything
func Match(pattern, eventType string) bool {
	if pattern == "*" {
		return true
	}

	if pattern == eventType {
		return true
	}

	patternParts := strings.Split(pattern, ".")
	eventParts := strings.Split(eventType, ".")

	if last := len(patternParts) - 1; patternParts[last] == "**" {
		if len(eventParts) <= last {
			return false
		}
		patternParts = patternParts[:last]
		eventParts = eventParts[:last]
	}

	if len(patternParts) != len(eventParts) {
		return false
	}

	for i, pp := range patternParts {
		if pp == "*" {
			continue
		}
		if pp != eventParts[i] {
			return false
		}
	}

	return true
}
