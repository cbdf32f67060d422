package catalog

import "encoding/json"

// Category groups definitions by the direction of the event.
type Category string

const (
	// CategoryAgency events flow from the agency to brands.
	CategoryAgency Category = "agency"

	// CategoryRegistration events describe brand registration lifecycle changes.
	CategoryRegistration Category = "registration"

	// CategoryBrand events flow from a brand back to the agency.
	CategoryBrand Category = "brand"
)

// Context fields a definition may ask the builder to inject into data.
const (
	FieldAppRuntimeInfo       = "app_runtime_info"
	FieldAgencyIdentification = "agency_identification"
)

// Definition describes one event code: which fields it requires, which
// context fields are injected, and how delivery treats disabled brands.
type Definition struct {
	// Code is the CloudEvents type, e.g. "com.adobe.a2b.assetsync.new".
	Code string `json:"code"`

	Category Category `json:"category"`

	Description string `json:"description,omitempty"`

	// RequiredFields must be present in data after context injection.
	RequiredFields []string `json:"requiredFields,omitempty"`

	// InjectedFields lists context blocks added to data when absent.
	InjectedFields []string `json:"injectedFields,omitempty"`

	// DeliverWhenDisabled lets the event reach brands that are disabled.
	DeliverWhenDisabled bool `json:"deliverWhenDisabled,omitempty"`

	// Schema is an optional JSON Schema applied to data after injection.
	Schema json.RawMessage `json:"schema,omitempty"`
}

// Injects reports whether the definition injects the named context field.
func (d *Definition) Injects(field string) bool {
	for _, f := range d.InjectedFields {
		if f == field {
			return true
		}
	}
	return false
}
