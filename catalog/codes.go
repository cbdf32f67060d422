package catalog

// Built-in event codes.
const (
	AssetSyncNew    = "com.adobe.a2b.assetsync.new"
	AssetSyncUpdate = "com.adobe.a2b.assetsync.update"
	AssetSyncDelete = "com.adobe.a2b.assetsync.delete"

	RegistrationReceived = "com.adobe.a2b.registration.received"
	RegistrationEnabled  = "com.adobe.a2b.registration.enabled"
	RegistrationDisabled = "com.adobe.a2b.registration.disabled"

	BrandAssetSyncComplete = "com.adobe.b2a.assetsync.complete"
	BrandAssetFeedback     = "com.adobe.b2a.asset.feedback"
)

var (
	agencyContext = []string{FieldAppRuntimeInfo, FieldAgencyIdentification}
	brandContext  = []string{FieldAppRuntimeInfo}

	assetFields        = []string{"asset_id", "asset_path", "metadata", "brandId"}
	registrationFields = []string{"brandId", "name", "endPointUrl", "enabled"}
)

// Builtin returns the definitions every catalog starts with.
func Builtin() []Definition {
	return []Definition{
		{
			Code:           AssetSyncNew,
			Category:       CategoryAgency,
			Description:    "An asset was published to a brand for the first time.",
			RequiredFields: assetFields,
			InjectedFields: agencyContext,
		},
		{
			Code:           AssetSyncUpdate,
			Category:       CategoryAgency,
			Description:    "A previously synced asset changed.",
			RequiredFields: assetFields,
			InjectedFields: agencyContext,
		},
		{
			Code:           AssetSyncDelete,
			Category:       CategoryAgency,
			Description:    "An asset was withdrawn from a brand.",
			RequiredFields: []string{"asset_id", "asset_path", "brandId"},
			InjectedFields: agencyContext,
		},
		{
			Code:           RegistrationReceived,
			Category:       CategoryRegistration,
			Description:    "A brand registration was received and awaits enablement.",
			RequiredFields: []string{"brandId", "name", "endPointUrl"},
			InjectedFields: agencyContext,
		},
		{
			Code:           RegistrationEnabled,
			Category:       CategoryRegistration,
			Description:    "A brand was enabled and will receive asset events.",
			RequiredFields: registrationFields,
			InjectedFields: agencyContext,
		},
		{
			Code:                RegistrationDisabled,
			Category:            CategoryRegistration,
			Description:         "A brand was disabled and will no longer receive asset events.",
			RequiredFields:      registrationFields,
			InjectedFields:      agencyContext,
			DeliverWhenDisabled: true,
		},
		{
			Code:           BrandAssetSyncComplete,
			Category:       CategoryBrand,
			Description:    "A brand finished ingesting a synced asset.",
			RequiredFields: []string{"brandId", "asset_id"},
			InjectedFields: brandContext,
		},
		{
			Code:           BrandAssetFeedback,
			Category:       CategoryBrand,
			Description:    "A brand reported a review outcome for an asset.",
			RequiredFields: []string{"brandId", "asset_id", "status"},
			InjectedFields: brandContext,
		},
	}
}
