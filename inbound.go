package assetsync

import (
	"context"
	"fmt"

	"github.com/xraph/assetsync/catalog"
	"github.com/xraph/assetsync/event"
)

// BrandEventResult answers an inbound brand event.
type BrandEventResult struct {
	EventType     string         `json:"eventType"`
	RoutingResult map[string]any `json:"routingResult"`
	Published     bool           `json:"published"`
}

// HandleBrandEvent accepts an envelope sent by a brand. The brand is named by
// data.app_runtime_info.brandId (or data.brandId) and must present its
// secret; nothing else is inspected before authentication succeeds. The
// brand's routing rules for the event code are evaluated and the envelope is
// forwarded to the bus.
func (s *Syncer) HandleBrandEvent(ctx context.Context, secret string, body []byte) (*BrandEventResult, error) {
	env, err := event.Decode(body)
	if err != nil {
		return nil, err
	}

	brandID := inboundBrandID(env.Data)
	if brandID == "" {
		return nil, fmt.Errorf("%w: envelope does not name a brand", ErrUnauthorized)
	}

	b, err := s.brands.Authenticate(ctx, brandID, secret)
	if err != nil {
		return nil, err
	}

	def, err := s.catalog.Lookup(env.Type)
	if err != nil {
		return nil, err
	}
	if def.Category != catalog.CategoryBrand {
		return nil, fmt.Errorf("%w: %s", ErrNotBrandEvent, env.Type)
	}

	env.Require(def.RequiredFields...)
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateDefinition(def, env.Data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPayloadValidationFailed, def.Code, err)
	}

	routed := s.evaluator.Evaluate(b.Rules(env.Type), env.Data)

	res := &BrandEventResult{
		EventType:     env.Type,
		RoutingResult: routed.AsMap(),
		Published:     s.publish(ctx, env),
	}

	s.logger.InfoContext(ctx, "brand event accepted",
		"brand_id", b.ID,
		"event_id", env.ID,
		"event_type", env.Type,
		"matched_rules", len(routed.Matched),
	)
	return res, nil
}

func inboundBrandID(data map[string]any) string {
	if info, ok := data[catalog.FieldAppRuntimeInfo].(map[string]any); ok {
		if v, ok := info["brandId"].(string); ok && v != "" {
			return v
		}
	}
	v, _ := data["brandId"].(string)
	return v
}
