package registry

import (
	"time"

	"github.com/xraph/assetsync/internal/entity"
	"github.com/xraph/assetsync/routing"
)

// Brand is a registered subscriber.
type Brand struct {
	entity.Entity

	// ID is opaque and immutable once persisted.
	ID string `json:"brandId"`

	// Secret authenticates deliveries in both directions. It is never
	// serialized on the read path; storage uses brandRecord.
	Secret string `json:"-"`

	Name string `json:"name"`

	// EndpointURL receives envelopes. It cannot change after registration.
	EndpointURL string `json:"endPointUrl"`

	Enabled bool `json:"enabled"`

	// EnabledAt is set on the disabled to enabled transition and cleared on disable.
	EnabledAt *time.Time `json:"enabledAt"`

	Logo       string `json:"logo,omitempty"`
	IMSOrgID   string `json:"imsOrgId,omitempty"`
	IMSOrgName string `json:"imsOrgName,omitempty"`

	// RoutingRules maps an event code to its ordered rule list.
	RoutingRules map[string][]routing.Rule `json:"routingRules,omitempty"`

	// RateLimit is the maximum deliveries per second. 0 means unlimited.
	RateLimit int `json:"rateLimit"`

	// Version increments on every save.
	Version int64 `json:"version"`
}

// Clone returns a deep copy, so each delivery works on its own snapshot.
func (b *Brand) Clone() *Brand {
	out := *b
	if b.EnabledAt != nil {
		t := *b.EnabledAt
		out.EnabledAt = &t
	}
	if b.RoutingRules != nil {
		out.RoutingRules = make(map[string][]routing.Rule, len(b.RoutingRules))
		for code, rules := range b.RoutingRules {
			cp := make([]routing.Rule, len(rules))
			for i := range rules {
				cp[i] = rules[i].Clone()
			}
			out.RoutingRules[code] = cp
		}
	}
	return &out
}

// Rules returns the rules registered for an event code.
func (b *Brand) Rules(code string) []routing.Rule {
	return b.RoutingRules[code]
}

// Validate checks the persisted-brand invariants.
func (b *Brand) Validate() error {
	switch {
	case b.ID == "":
		return &ValidationError{Field: "brandId", Message: "required"}
	case b.Name == "":
		return &ValidationError{Field: "name", Message: "required"}
	case b.EndpointURL == "":
		return &ValidationError{Field: "endPointUrl", Message: "required"}
	case b.Enabled && b.Secret == "":
		return &ValidationError{Field: "secret", Message: "required while enabled"}
	}
	return nil
}

// brandRecord is the storage form of a Brand; unlike the API form it carries
// the secret.
type brandRecord struct {
	Brand
	Secret string `json:"secret"`
}

func toRecord(b *Brand) brandRecord {
	return brandRecord{Brand: *b, Secret: b.Secret}
}

func fromRecord(r brandRecord) *Brand {
	b := r.Brand
	b.Secret = r.Secret
	return &b
}

type secretIndexRecord struct {
	BrandID string `json:"brandId"`
}
