package registry

// RegisterInput is the registration payload. The secret is always generated
// server-side.
type RegisterInput struct {
	// BrandID is optional; one is generated when empty.
	BrandID string `json:"brandId"`

	Name        string `json:"name"`
	EndpointURL string `json:"endPointUrl"`
	Logo        string `json:"logo,omitempty"`
	IMSOrgID    string `json:"imsOrgId,omitempty"`
	IMSOrgName  string `json:"imsOrgName,omitempty"`
	RateLimit   int    `json:"rateLimit"`
}

// UpdateInput changes descriptive fields. Empty strings and nil pointers
// leave the stored value untouched.
type UpdateInput struct {
	Name       string `json:"name"`
	Logo       string `json:"logo"`
	IMSOrgID   string `json:"imsOrgId"`
	IMSOrgName string `json:"imsOrgName"`
	RateLimit  *int   `json:"rateLimit"`

	// EndpointURL may only repeat the registered URL.
	EndpointURL string `json:"endPointUrl"`

	// Version is checked when optimistic locking is enabled.
	Version int64 `json:"version"`
}
