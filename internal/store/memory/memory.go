// Package memory implements the repository over in-process maps. It
// backs dev mode and the service tests, mirroring the postgres store's
// behavior including the chain compare-and-swap.
package memory

import (
	"context"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
	"github.com/abdulnihaf/nawabi-chai-house/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	settlementsByID map[string]domain.Settlement
	settlementOrder []string
	vesselsByCode   map[string]domain.Vessel
	materialCosts   []domain.MaterialCost
	usersByUsername map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		settlementsByID: make(map[string]domain.Settlement),
		vesselsByCode:   make(map[string]domain.Vessel),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// NewSeeded returns a store with dev accounts and the shop's weighed
// vessel set, for running without a database.
func NewSeeded() *Store {
	s := New()
	s.usersByUsername = seedUsers()
	for _, v := range []domain.Vessel{
		{Code: "KIT-PATILA-1", TareKg: 13.28, LiquidType: "boiled_milk", Location: "kitchen"},
		{Code: "CTR-MILK-1", TareKg: 10.0, LiquidType: "boiled_milk", Location: "counter"},
		{Code: "CTR-DEC-1", TareKg: 13.0, LiquidType: "tea_decoction", Location: "counter"},
		{Code: "CTR-DEC-2", TareKg: 11.0, LiquidType: "tea_decoction", Location: "counter"},
		{Code: "KIT-DEC-1", TareKg: 11.0, LiquidType: "tea_decoction", Location: "kitchen"},
	} {
		s.vesselsByCode[v.Code] = v
	}
	return s
}

// seedUsers builds the initial in-memory accounts for dev/demo mode.
// Credentials come from SEED_MANAGER_PASSWORD and SEED_COUNTER_PASSWORD;
// hardcoded dev defaults apply when unset, with a warning. Production
// runs against PostgreSQL and never touches these.
func seedUsers() map[string]domain.UserAccount {
	managerPwd := envOr("SEED_MANAGER_PASSWORD", "manager123")
	counterPwd := envOr("SEED_COUNTER_PASSWORD", "counter123")
	if os.Getenv("SEED_MANAGER_PASSWORD") == "" || os.Getenv("SEED_COUNTER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_MANAGER_PASSWORD and SEED_COUNTER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"manager", managerPwd, domain.RoleManager},
		{"counter", counterPwd, domain.RoleCounter},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *Store) InsertSettlement(ctx context.Context, settlement domain.Settlement, expectedPrevID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tailID := ""
	if n := len(s.settlementOrder); n > 0 {
		tailID = s.settlementOrder[n-1]
	}
	if tailID != expectedPrevID {
		return store.ErrChainConflict
	}
	day := domain.DateKey(settlement.PeriodEnd)
	for _, existing := range s.settlementsByID {
		if domain.DateKey(existing.PeriodEnd) == day {
			return store.ErrDuplicateSettlement
		}
	}

	s.settlementsByID[settlement.ID] = cloneSettlement(settlement)
	s.settlementOrder = append(s.settlementOrder, settlement.ID)
	return nil
}

func (s *Store) UpdateSettlement(ctx context.Context, settlement domain.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.settlementsByID[settlement.ID]; !ok {
		return store.ErrNotFound
	}
	s.settlementsByID[settlement.ID] = cloneSettlement(settlement)
	return nil
}

func (s *Store) LatestSettlement(ctx context.Context) (*domain.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.settlementOrder)
	if n == 0 {
		return nil, store.ErrNotFound
	}
	settlement := cloneSettlement(s.settlementsByID[s.settlementOrder[n-1]])
	return &settlement, nil
}

func (s *Store) GetSettlement(ctx context.Context, id string) (*domain.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settlement, ok := s.settlementsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneSettlement(settlement)
	return &out, nil
}

func (s *Store) GetSettlementByDate(ctx context.Context, day time.Time) (*domain.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := domain.DateKey(day)
	for _, id := range s.settlementOrder {
		settlement := s.settlementsByID[id]
		if domain.DateKey(settlement.PeriodEnd) == key {
			out := cloneSettlement(settlement)
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListSettlements(ctx context.Context, limit int) ([]domain.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.settlementOrder) {
		limit = len(s.settlementOrder)
	}
	out := make([]domain.Settlement, 0, limit)
	for i := len(s.settlementOrder) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, cloneSettlement(s.settlementsByID[s.settlementOrder[i]]))
	}
	return out, nil
}

func (s *Store) ListVessels(ctx context.Context) ([]domain.Vessel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Vessel, 0, len(s.vesselsByCode))
	for _, v := range s.vesselsByCode {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (s *Store) UpsertVessel(ctx context.Context, vessel domain.Vessel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vesselsByCode[vessel.Code] = vessel
	return nil
}

func (s *Store) MaterialCostsAt(ctx context.Context, at time.Time, materialIDs []int) (map[int]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int]bool, len(materialIDs))
	for _, id := range materialIDs {
		wanted[id] = true
	}
	latest := make(map[int]domain.MaterialCost)
	for _, cost := range s.materialCosts {
		if !wanted[cost.MaterialID] || cost.EffectiveFrom.After(at) {
			continue
		}
		if current, ok := latest[cost.MaterialID]; !ok || cost.EffectiveFrom.After(current.EffectiveFrom) {
			latest[cost.MaterialID] = cost
		}
	}
	out := make(map[int]float64, len(latest))
	for id, cost := range latest {
		out[id] = cost.CostPerUnit
	}
	return out, nil
}

func (s *Store) RecordMaterialCost(ctx context.Context, cost domain.MaterialCost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materialCosts = append(s.materialCosts, cost)
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrAlreadyExists
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		out = append(out, user)
	}
	return out, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

// cloneSettlement deep-copies the map and slice fields so callers never
// alias stored state.
func cloneSettlement(s domain.Settlement) domain.Settlement {
	out := s
	out.OpeningStock = cloneInventory(s.OpeningStock)
	out.ClosingStock = cloneInventory(s.ClosingStock)
	out.Consumption = cloneInventory(s.Consumption)
	out.ExpectedConsumption = cloneInventory(s.ExpectedConsumption)
	if s.Purchases != nil {
		out.Purchases = make(map[int]domain.PurchaseLine, len(s.Purchases))
		for id, line := range s.Purchases {
			out.Purchases[id] = line
		}
	}
	if s.Discrepancy != nil {
		out.Discrepancy = make(map[int]domain.DiscrepancyEntry, len(s.Discrepancy))
		for id, entry := range s.Discrepancy {
			out.Discrepancy[id] = entry
		}
	}
	if s.RunnerTokenCounts != nil {
		out.RunnerTokenCounts = make(map[string]float64, len(s.RunnerTokenCounts))
		for runner, count := range s.RunnerTokenCounts {
			out.RunnerTokenCounts[runner] = count
		}
	}
	out.WastageItems = append([]domain.WastageItem(nil), s.WastageItems...)
	out.GapAdjustments = append([]domain.GapAdjustment(nil), s.GapAdjustments...)
	out.Warnings = append([]string(nil), s.Warnings...)
	out.EditTrail = append([]domain.Amendment(nil), s.EditTrail...)
	return out
}

func cloneInventory(inv domain.Inventory) domain.Inventory {
	if inv == nil {
		return nil
	}
	out := make(domain.Inventory, len(inv))
	for id, qty := range inv {
		out[id] = qty
	}
	return out
}
