package postgres

import (
	"strings"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/assetsync/store"
)

type kvModel struct {
	grove.BaseModel `grove:"table:assetsync_kv"`

	Key       string    `grove:"entry_key,pk"`
	Value     string    `grove:"entry_value"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toEntry(m *kvModel) store.Entry {
	return store.Entry{Key: m.Key, Value: []byte(m.Value)}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// prefixPattern turns a literal key prefix into a LIKE pattern.
func prefixPattern(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
