package assetsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/assetsync/asset"
	"github.com/xraph/assetsync/catalog"
	"github.com/xraph/assetsync/delivery"
	"github.com/xraph/assetsync/event"
)

// AssetNotification reports that an asset changed. When Asset is nil the
// metadata is fetched from Host and Path.
type AssetNotification struct {
	Host    string        `json:"host,omitempty"`
	Path    string        `json:"path"`
	Asset   *asset.Asset  `json:"asset,omitempty"`
	Runtime event.Runtime `json:"runtime"`

	// Source overrides the runtime-derived envelope source.
	Source string `json:"source,omitempty"`
}

// SyncResult is the outcome of SyncAsset.
type SyncResult struct {
	AssetID   string           `json:"assetId"`
	AssetPath string           `json:"assetPath"`
	Kind      asset.Kind       `json:"kind,omitempty"`
	Skipped   bool             `json:"skipped,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	Brands    []string         `json:"brands"`
	Report    *delivery.Report `json:"report,omitempty"`
}

// SkipSyncDisabled is the reason reported for assets that did not opt in.
const SkipSyncDisabled = "sync_disabled"

// SyncAsset delivers an asset change to every subscribed brand.
//
// The flow:
//  1. Resolve the asset metadata (fetch it unless carried).
//  2. Stop if the asset does not sync on change.
//  3. Normalize the subscriber list to brand ids.
//  4. Classify new or update from the last-sync marker.
//  5. Fan out through the engine; per-brand problems land in the report.
//
// Only input problems and a failed metadata fetch are returned as errors.
func (s *Syncer) SyncAsset(ctx context.Context, n AssetNotification) (*SyncResult, error) {
	a, err := s.resolveAsset(ctx, n)
	if err != nil {
		s.metrics.RecordSync("error")
		return nil, err
	}

	path := a.Path
	if path == "" {
		path = n.Path
	}
	res := &SyncResult{AssetID: a.UUID, AssetPath: path, Brands: []string{}}

	if !a.SyncOnChange() {
		s.metrics.RecordSync("skipped")
		s.logger.InfoContext(ctx, "asset sync skipped", "asset_path", path, "reason", SkipSyncDisabled)
		res.Skipped = true
		res.Reason = SkipSyncDisabled
		return res, nil
	}

	brandIDs, err := a.Customers()
	if err != nil {
		s.metrics.RecordSync("invalid")
		return nil, err
	}
	res.Brands = brandIDs

	if a.UUID == "" {
		s.metrics.RecordSync("invalid")
		return nil, fmt.Errorf("%w: asset at %q has no jcr:uuid", ErrInvalidNotification, path)
	}

	res.Kind = a.Classify()
	code := catalog.AssetSyncNew
	if res.Kind == asset.KindUpdate {
		code = catalog.AssetSyncUpdate
	}

	metadata := a.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	report, err := s.engine.Dispatch(ctx, delivery.Job{
		EventCode: code,
		Data: map[string]any{
			"asset_id":   a.UUID,
			"asset_path": path,
			"metadata":   metadata,
		},
		Runtime:  n.Runtime.Merge(s.config.Runtime),
		BrandIDs: brandIDs,
		Source:   n.Source,
	})
	if err != nil {
		s.metrics.RecordSync("error")
		return nil, err
	}
	res.Report = report

	s.metrics.RecordSync("ok")
	s.logger.InfoContext(ctx, "asset synced",
		"asset_id", a.UUID,
		"asset_path", path,
		"kind", res.Kind,
		"brands", len(brandIDs),
		"delivered", report.Delivered(),
	)
	return res, nil
}

func (s *Syncer) resolveAsset(ctx context.Context, n AssetNotification) (*asset.Asset, error) {
	if n.Asset != nil {
		return n.Asset, nil
	}
	if strings.TrimSpace(n.Path) == "" {
		return nil, fmt.Errorf("%w: path is required", ErrInvalidNotification)
	}
	if s.assets == nil {
		return nil, ErrNoAssetFetcher
	}

	fctx, cancel := ctx, context.CancelFunc(func() {})
	if s.config.FetchTimeout > 0 {
		fctx, cancel = context.WithTimeout(ctx, s.config.FetchTimeout)
	}
	defer cancel()

	a, err := s.assets.Fetch(fctx, n.Host, n.Path)
	if err != nil {
		return nil, fmt.Errorf("assetsync: fetch %s: %w", n.Path, err)
	}
	return a, nil
}
