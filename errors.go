package assetsync

import (
	"errors"

	"github.com/xraph/assetsync/asset"
	"github.com/xraph/assetsync/catalog"
	"github.com/xraph/assetsync/dlq"
	"github.com/xraph/assetsync/event"
	"github.com/xraph/assetsync/registry"
)

// Sentinel errors returned by Syncer operations.
var (
	ErrNoDurableStore   = registry.ErrNoDurableStore
	ErrBrandNotFound    = registry.ErrBrandNotFound
	ErrRuleNotFound     = registry.ErrRuleNotFound
	ErrRuleConflict     = registry.ErrRuleConflict
	ErrVersionConflict  = registry.ErrVersionConflict
	ErrStoreUnavailable = registry.ErrStoreUnavailable
	ErrUnauthorized     = registry.ErrUnauthorized

	ErrUnknownEventCode        = catalog.ErrUnknownEventCode
	ErrMissingRequiredFields   = event.ErrMissingRequiredFields
	ErrPayloadValidationFailed = event.ErrPayloadValidationFailed
	ErrSourceAlreadySet        = event.ErrSourceAlreadySet
	ErrInvalidEnvelope         = event.ErrInvalidEnvelope
	ErrInvalidCustomerFormat   = asset.ErrInvalidCustomerFormat
	ErrAssetHostNotAllowed     = asset.ErrHostNotAllowed
	ErrDLQNotFound             = dlq.ErrNotFound

	// ErrNoAssetFetcher is returned when a notification carries no asset and
	// no fetcher is configured.
	ErrNoAssetFetcher = errors.New("assetsync: no asset fetcher configured")

	// ErrInvalidNotification is returned for a notification that names no asset.
	ErrInvalidNotification = errors.New("assetsync: invalid asset notification")

	// ErrNotBrandEvent is returned when an inbound envelope carries an
	// agency-side event code.
	ErrNotBrandEvent = errors.New("assetsync: not a brand event")

	// ErrReplayFailed is returned when a DLQ replay was not accepted.
	ErrReplayFailed = errors.New("assetsync: replay failed")
)
