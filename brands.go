package assetsync

import (
	"context"

	"github.com/xraph/assetsync/catalog"
	"github.com/xraph/assetsync/delivery"
	"github.com/xraph/assetsync/registry"
)

// RegisterBrand registers a disabled brand and announces it on the bus with
// a registration.received event.
func (s *Syncer) RegisterBrand(ctx context.Context, in registry.RegisterInput) (*registry.Brand, error) {
	b, err := s.brands.Register(ctx, in)
	if err != nil {
		return nil, err
	}

	env, err := s.builder.Build(catalog.RegistrationReceived, map[string]any{
		"brandId":     b.ID,
		"name":        b.Name,
		"endPointUrl": b.EndpointURL,
	}, s.config.Runtime)
	if err != nil {
		s.logger.WarnContext(ctx, "build registration event", "brand_id", b.ID, "error", err)
		return b, nil
	}
	s.publish(ctx, env)

	return b, nil
}

// SetBrandEnabled enables or disables a brand and notifies it of the
// transition. The disabled notification still reaches the now-disabled
// brand. Repeating the current state sends nothing and returns a nil report.
func (s *Syncer) SetBrandEnabled(ctx context.Context, brandID string, enabled bool) (*registry.Brand, *delivery.Report, error) {
	prev, err := s.brands.Get(ctx, brandID)
	if err != nil {
		return nil, nil, err
	}

	b, err := s.brands.SetEnabled(ctx, brandID, enabled)
	if err != nil {
		return nil, nil, err
	}
	if prev.Enabled == enabled {
		return b, nil, nil
	}

	code := catalog.RegistrationDisabled
	if enabled {
		code = catalog.RegistrationEnabled
	}

	report, err := s.engine.Dispatch(ctx, delivery.Job{
		EventCode: code,
		Data: map[string]any{
			"name":        b.Name,
			"endPointUrl": b.EndpointURL,
			"enabled":     b.Enabled,
		},
		Runtime:  s.config.Runtime,
		BrandIDs: []string{b.ID},
	})
	if err != nil {
		return b, nil, err
	}
	return b, report, nil
}
