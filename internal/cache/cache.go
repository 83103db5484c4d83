// Package cache holds the read-side caches in front of the settlement
// store: resolved material costs per settlement date and the chain-tail
// settlement. Both are safe to serve stale since every submission
// re-reads the tail from storage before writing.
package cache

import (
	"context"
	"time"

	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
)

type SettlementCache interface {
	GetCosts(ctx context.Context, dateKey string) (map[int]float64, bool, error)
	SetCosts(ctx context.Context, dateKey string, costs map[int]float64, ttl time.Duration) error
	GetLatest(ctx context.Context) (*domain.Settlement, bool, error)
	SetLatest(ctx context.Context, settlement *domain.Settlement, ttl time.Duration) error
	// InvalidateLatest drops the cached tail after a write.
	InvalidateLatest(ctx context.Context) error
}

type NoopSettlementCache struct{}

func (NoopSettlementCache) GetCosts(_ context.Context, _ string) (map[int]float64, bool, error) {
	return nil, false, nil
}

func (NoopSettlementCache) SetCosts(_ context.Context, _ string, _ map[int]float64, _ time.Duration) error {
	return nil
}

func (NoopSettlementCache) GetLatest(_ context.Context) (*domain.Settlement, bool, error) {
	return nil, false, nil
}

func (NoopSettlementCache) SetLatest(_ context.Context, _ *domain.Settlement, _ time.Duration) error {
	return nil
}

func (NoopSettlementCache) InvalidateLatest(_ context.Context) error {
	return nil
}
