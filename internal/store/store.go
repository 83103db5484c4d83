package store

import (
	"context"
	"errors"
	"time"

	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrChainConflict means the chain tail moved between the caller's
	// read and its insert; the submission must be retried against the
	// new tail.
	ErrChainConflict       = errors.New("settlement chain tail moved")
	ErrDuplicateSettlement = errors.New("settlement already exists for period")
	ErrAlreadyExists       = errors.New("already exists")
)

type Repository interface {
	// InsertSettlement appends a settlement to the chain. expectedPrevID
	// is the id of the settlement the caller read as the chain tail
	// (empty for bootstrap); the insert fails with ErrChainConflict when
	// the actual tail differs.
	InsertSettlement(ctx context.Context, settlement domain.Settlement, expectedPrevID string) error
	// UpdateSettlement rewrites an amended settlement in place.
	UpdateSettlement(ctx context.Context, settlement domain.Settlement) error
	LatestSettlement(ctx context.Context) (*domain.Settlement, error)
	GetSettlement(ctx context.Context, id string) (*domain.Settlement, error)
	GetSettlementByDate(ctx context.Context, day time.Time) (*domain.Settlement, error)
	ListSettlements(ctx context.Context, limit int) ([]domain.Settlement, error)

	ListVessels(ctx context.Context) ([]domain.Vessel, error)
	UpsertVessel(ctx context.Context, vessel domain.Vessel) error

	// MaterialCostsAt resolves, per material, the latest recorded cost
	// whose effective date is at or before the given instant. Materials
	// with no recorded cost are absent from the result.
	MaterialCostsAt(ctx context.Context, at time.Time, materialIDs []int) (map[int]float64, error)
	RecordMaterialCost(ctx context.Context, cost domain.MaterialCost) error

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
