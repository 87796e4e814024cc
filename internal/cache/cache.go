package cache

import (
	"context"
	"time"

	"github.com/palmkaka/saas-inventory-pos-sub000/internal/domain"
)

// SettingsCache holds per-org loyalty settings so every checkout does
// not hit the settings table.
type SettingsCache interface {
	Get(ctx context.Context, orgID string) (*domain.LoyaltySettings, bool, error)
	Set(ctx context.Context, orgID string, value *domain.LoyaltySettings, ttl time.Duration) error
	Invalidate(ctx context.Context, orgID string) error
}

type NoopSettingsCache struct{}

func (NoopSettingsCache) Get(_ context.Context, _ string) (*domain.LoyaltySettings, bool, error) {
	return nil, false, nil
}

func (NoopSettingsCache) Set(_ context.Context, _ string, _ *domain.LoyaltySettings, _ time.Duration) error {
	return nil
}

func (NoopSettingsCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
