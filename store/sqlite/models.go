package sqlite

import (
	"strings"
	"time"

	"github.com/xraph/grove"
)

type kvModel struct {
	grove.BaseModel `grove:"table:assetsync_kv"`

	Key       string    `grove:"entry_key,pk"`
	Value     string    `grove:"entry_value"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

// Query fragments shared by the store methods.
const (
	keyWhere      = "entry_key = ?"
	prefixWhere   = `entry_key LIKE ? ESCAPE '\'`
	upsertOnKey   = "(entry_key) DO UPDATE"
	upsertValue   = "entry_value = EXCLUDED.entry_value"
	upsertUpdated = "updated_at = EXCLUDED.updated_at"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func prefixPattern(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
