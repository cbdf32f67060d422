package redis

import "strings"

// defaultNamespace prefixes every key so the cache can share a Redis database.
const defaultNamespace = "assetsync:"

var globEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
)

// escapeGlob quotes SCAN MATCH metacharacters in a literal prefix.
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
