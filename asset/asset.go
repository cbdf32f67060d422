// Package asset reads the subscription fields an asset carries in its
// metadata: whether it syncs on change, which brands subscribe, and whether it
// has been synced before.
package asset

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Metadata field names.
const (
	FieldSyncOnChange    = "a2b__sync_on_change"
	FieldCustomers       = "a2b__customers"
	FieldLegacyCustomers = "a2d__customers"
	FieldLastSync        = "a2b__last_sync"
)

// Kind tells whether a sync is the first one for the asset.
type Kind string

const (
	KindNew    Kind = "new"
	KindUpdate Kind = "update"
)

// Asset is the subset of an AEM asset document the sync flow reads.
type Asset struct {
	UUID     string         `json:"jcr:uuid,omitempty"`
	Path     string         `json:"path,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

type rawAsset struct {
	UUID     string         `json:"jcr:uuid"`
	Path     string         `json:"path"`
	Metadata map[string]any `json:"metadata"`
	Content  *struct {
		UUID     string         `json:"jcr:uuid"`
		Metadata map[string]any `json:"metadata"`
	} `json:"jcr:content"`
}

// UnmarshalJSON accepts metadata either at the top level or nested under
// jcr:content, which is how the DAM JSON export presents it.
func (a *Asset) UnmarshalJSON(data []byte) error {
	var raw rawAsset
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.UUID = raw.UUID
	a.Path = raw.Path
	a.Metadata = raw.Metadata

	if raw.Content != nil {
		if a.Metadata == nil {
			a.Metadata = raw.Content.Metadata
		}
		if a.UUID == "" {
			a.UUID = raw.Content.UUID
		}
	}

	return nil
}

// SyncOnChange reports whether the asset opted in to syncing. Booleans and
// their string forms are accepted.
func (a *Asset) SyncOnChange() bool {
	switch v := a.Metadata[FieldSyncOnChange].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	default:
		return false
	}
}

// Customers resolves the subscribing brand ids. The legacy field is read only
// when the canonical one is absent.
func (a *Asset) Customers() ([]string, error) {
	raw, ok := a.Metadata[FieldCustomers]
	if !ok {
		raw = a.Metadata[FieldLegacyCustomers]
	}
	return NormalizeCustomers(raw)
}

// LastSync returns the last-sync marker, or "" if the asset was never synced.
func (a *Asset) LastSync() string {
	switch v := a.Metadata[FieldLastSync].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return "present"
	}
}

// Classify returns KindUpdate when a last-sync marker exists.
func (a *Asset) Classify() Kind {
	if a.LastSync() != "" {
		return KindUpdate
	}
	return KindNew
}
