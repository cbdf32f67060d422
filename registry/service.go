package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/xraph/assetsync/id"
	"github.com/xraph/assetsync/internal/entity"
	"github.com/xraph/assetsync/signature"
)

// Service provides brand registration and lifecycle operations.
type Service struct {
	registry *Registry
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a registration service.
func NewService(reg *Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: reg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Registry returns the underlying registry.
func (svc *Service) Registry() *Registry { return svc.registry }

// Register creates a disabled brand with a generated secret.
func (svc *Service) Register(ctx context.Context, in RegisterInput) (*Brand, error) {
	if in.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "required"}
	}
	if err := validateEndpointURL(in.EndpointURL); err != nil {
		return nil, err
	}
	if in.RateLimit < 0 {
		return nil, &ValidationError{Field: "rateLimit", Message: "must not be negative"}
	}

	brandID := in.BrandID
	if brandID == "" {
		brandID = id.NewBrandID().String()
	} else if _, err := svc.registry.Get(ctx, brandID); err == nil {
		return nil, &ValidationError{Field: "brandId", Message: "already registered"}
	} else if !errors.Is(err, ErrBrandNotFound) {
		return nil, err
	}

	b := &Brand{
		Entity:      entity.New(),
		ID:          brandID,
		Secret:      signature.GenerateSecret(),
		Name:        in.Name,
		EndpointURL: in.EndpointURL,
		Logo:        in.Logo,
		IMSOrgID:    in.IMSOrgID,
		IMSOrgName:  in.IMSOrgName,
		RateLimit:   in.RateLimit,
	}

	saved, err := svc.registry.Save(ctx, b)
	if err != nil {
		return nil, err
	}

	svc.logger.InfoContext(ctx, "brand registered", "brand_id", saved.ID, "endpoint", saved.EndpointURL)
	return saved, nil
}

// Get returns a brand by id.
func (svc *Service) Get(ctx context.Context, brandID string) (*Brand, error) {
	return svc.registry.Get(ctx, brandID)
}

// List returns every brand.
func (svc *Service) List(ctx context.Context) ([]*Brand, error) {
	return svc.registry.List(ctx)
}

// Update modifies descriptive fields. The endpoint URL is immutable.
func (svc *Service) Update(ctx context.Context, brandID string, in UpdateInput) (*Brand, error) {
	b, err := svc.registry.Get(ctx, brandID)
	if err != nil {
		return nil, err
	}

	if in.EndpointURL != "" && in.EndpointURL != b.EndpointURL {
		return nil, &ValidationError{Field: "endPointUrl", Message: "cannot be changed after registration"}
	}
	if in.Name != "" {
		b.Name = in.Name
	}
	if in.Logo != "" {
		b.Logo = in.Logo
	}
	if in.IMSOrgID != "" {
		b.IMSOrgID = in.IMSOrgID
	}
	if in.IMSOrgName != "" {
		b.IMSOrgName = in.IMSOrgName
	}
	if in.RateLimit != nil {
		if *in.RateLimit < 0 {
			return nil, &ValidationError{Field: "rateLimit", Message: "must not be negative"}
		}
		b.RateLimit = *in.RateLimit
	}
	if in.Version != 0 {
		b.Version = in.Version
	}

	return svc.registry.Save(ctx, b)
}

// SetEnabled transitions a brand. Enabling a disabled brand stamps enabledAt;
// disabling clears it. Repeating the current state changes nothing.
func (svc *Service) SetEnabled(ctx context.Context, brandID string, enabled bool) (*Brand, error) {
	b, err := svc.registry.Get(ctx, brandID)
	if err != nil {
		return nil, err
	}
	if b.Enabled == enabled {
		return b, nil
	}

	b.Enabled = enabled
	if enabled {
		now := svc.now()
		b.EnabledAt = &now
		if b.Secret == "" {
			b.Secret = signature.GenerateSecret()
		}
	} else {
		b.EnabledAt = nil
	}

	saved, err := svc.registry.Save(ctx, b)
	if err != nil {
		return nil, err
	}

	svc.logger.InfoContext(ctx, "brand state changed", "brand_id", brandID, "enabled", enabled)
	return saved, nil
}

// RotateSecret replaces the brand secret. The old secret stops
// authenticating immediately.
func (svc *Service) RotateSecret(ctx context.Context, brandID string) (*Brand, error) {
	b, err := svc.registry.Get(ctx, brandID)
	if err != nil {
		return nil, err
	}

	b.Secret = signature.GenerateSecret()
	return svc.registry.Save(ctx, b)
}

// Authenticate checks a presented secret against the brand's stored one.
// Unknown brands and wrong secrets both yield ErrUnauthorized.
func (svc *Service) Authenticate(ctx context.Context, brandID, secret string) (*Brand, error) {
	if brandID == "" || secret == "" {
		return nil, ErrUnauthorized
	}

	b, err := svc.registry.Get(ctx, brandID)
	if errors.Is(err, ErrBrandNotFound) {
		return nil, fmt.Errorf("%w: unknown brand %s", ErrUnauthorized, brandID)
	}
	if err != nil {
		return nil, err
	}

	if !signature.Equal(secret, b.Secret) {
		svc.logger.WarnContext(ctx, "brand secret mismatch", "brand_id", brandID)
		return nil, fmt.Errorf("%w: secret mismatch for %s", ErrUnauthorized, brandID)
	}
	return b, nil
}

// Delete removes a brand. Unlike Registry.Delete it reports unknown brands.
func (svc *Service) Delete(ctx context.Context, brandID string) error {
	if _, err := svc.registry.Get(ctx, brandID); err != nil {
		return err
	}
	if err := svc.registry.Delete(ctx, brandID); err != nil {
		return err
	}
	svc.logger.InfoContext(ctx, "brand deleted", "brand_id", brandID)
	return nil
}

func validateEndpointURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &ValidationError{Field: "endPointUrl", Message: "invalid URL"}
	}
	return nil
}
