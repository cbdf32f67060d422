package event

// Runtime describes the invocation producing events. It is built explicitly
// at the start of each request and passed to the builder.
type Runtime struct {
	// Namespace is the deployment namespace of the running action.
	Namespace string `json:"namespace,omitempty" yaml:"namespace"`

	// ActionName identifies the handler producing the event.
	ActionName string `json:"actionName,omitempty" yaml:"action_name"`

	// ActivationID identifies this invocation.
	ActivationID string `json:"activationId,omitempty" yaml:"-"`

	// Region is the deployment region.
	Region string `json:"region,omitempty" yaml:"region"`

	// ProviderID is the event provider identifier; when set it becomes the
	// envelope source.
	ProviderID string `json:"providerId,omitempty" yaml:"provider_id"`

	// BrandID is set on brand-originated events.
	BrandID string `json:"brandId,omitempty" yaml:"-"`

	AgencyID   string `json:"agencyId,omitempty" yaml:"agency_id"`
	AgencyName string `json:"agencyName,omitempty" yaml:"agency_name"`
	OrgID      string `json:"orgId,omitempty" yaml:"org_id"`
}

// Merge fills empty fields of r from defaults.
func (r Runtime) Merge(defaults Runtime) Runtime {
	pick := func(v, d string) string {
		if v != "" {
			return v
		}
		return d
	}
	return Runtime{
		Namespace:    pick(r.Namespace, defaults.Namespace),
		ActionName:   pick(r.ActionName, defaults.ActionName),
		ActivationID: pick(r.ActivationID, defaults.ActivationID),
		Region:       pick(r.Region, defaults.Region),
		ProviderID:   pick(r.ProviderID, defaults.ProviderID),
		BrandID:      pick(r.BrandID, defaults.BrandID),
		AgencyID:     pick(r.AgencyID, defaults.AgencyID),
		AgencyName:   pick(r.AgencyName, defaults.AgencyName),
		OrgID:        pick(r.OrgID, defaults.OrgID),
	}
}

// Source derives the envelope source: the provider id when present,
// otherwise a URN built from namespace and action. Empty when neither is known.
func (r Runtime) Source() string {
	if r.ProviderID != "" {
		return r.ProviderID
	}
	if r.Namespace == "" {
		return ""
	}
	src := "urn:assetsync:" + r.Namespace
	if r.ActionName != "" {
		src += ":" + r.ActionName
	}
	return src
}

// RuntimeInfo returns the app_runtime_info block, or nil when the runtime
// carries no identifying information.
func (r Runtime) RuntimeInfo() map[string]any {
	info := map[string]any{}
	put := func(k, v string) {
		if v != "" {
			info[k] = v
		}
	}
	put("namespace", r.Namespace)
	put("actionName", r.ActionName)
	put("activationId", r.ActivationID)
	put("region", r.Region)
	put("brandId", r.BrandID)
	if len(info) == 0 {
		return nil
	}
	return info
}

// AgencyIdentification returns the agency_identification block, or nil.
func (r Runtime) AgencyIdentification() map[string]any {
	if r.AgencyID == "" && r.AgencyName == "" && r.OrgID == "" {
		return nil
	}
	info := map[string]any{}
	if r.AgencyID != "" {
		info["agencyId"] = r.AgencyID
	}
	if r.AgencyName != "" {
		info["name"] = r.AgencyName
	}
	if r.OrgID != "" {
		info["orgId"] = r.OrgID
	}
	return info
}
