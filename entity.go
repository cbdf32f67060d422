package assetsync

import "github.com/xraph/assetsync/internal/entity"

// Entity is the timestamp pair embedded by brands, rules and DLQ entries.
type Entity = entity.Entity

// NewEntity returns an Entity with both timestamps set to the current UTC time.
func NewEntity() Entity {
	return entity.New()
}
