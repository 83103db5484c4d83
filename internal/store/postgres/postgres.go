// Package postgres implements the repository over PostgreSQL. Settlement
// quantity maps persist as JSONB; scalar figures live in numeric columns
// so reporting queries stay cheap.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
	"github.com/abdulnihaf/nawabi-chai-house/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const settlementColumns = `
	id, status, previous_id, period_start, period_end, settlement_date,
	opening_stock, purchases, closing_stock, consumption, expected_consumption,
	discrepancy, wastage_items, gap_adjustments, revenue,
	cogs_actual, cogs_expected, wastage_value, discrepancy_value, opex,
	gross_profit, net_profit, adjusted_net_profit,
	runner_tokens, warnings, edit_trail, created_at`

// InsertSettlement appends atomically against the chain tail: the insert
// only lands when the most recent settlement still matches the id the
// caller read before computing. A moved tail surfaces as ErrChainConflict
// and the unique settlement_date index catches same-day duplicates.
func (s *Store) InsertSettlement(ctx context.Context, stl domain.Settlement, expectedPrevID string) error {
	blobs, err := settlementBlobs(stl)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO settlements (`+settlementColumns+`)
		SELECT $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27
		WHERE COALESCE((SELECT id FROM settlements ORDER BY created_at DESC, id DESC LIMIT 1), '') = $28
	`, append(settlementArgs(stl, blobs), expectedPrevID)...)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateSettlement
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrChainConflict
	}
	return nil
}

func (s *Store) UpdateSettlement(ctx context.Context, stl domain.Settlement) error {
	blobs, err := settlementBlobs(stl)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE settlements SET
			purchases = $2, closing_stock = $3, consumption = $4,
			expected_consumption = $5, discrepancy = $6,
			cogs_actual = $7, cogs_expected = $8, wastage_value = $9,
			discrepancy_value = $10, opex = $11, gross_profit = $12,
			net_profit = $13, adjusted_net_profit = $14,
			warnings = $15, edit_trail = $16
		WHERE id = $1
	`, stl.ID, blobs.purchases, blobs.closingStock, blobs.consumption,
		blobs.expectedConsumption, blobs.discrepancy,
		stl.COGSActual, stl.COGSExpected, stl.WastageValue,
		stl.DiscrepancyValue, stl.Opex, stl.GrossProfit,
		stl.NetProfit, stl.AdjustedNetProfit,
		blobs.warnings, blobs.editTrail)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) LatestSettlement(ctx context.Context) (*domain.Settlement, error) {
	return s.querySettlement(ctx, `
		SELECT `+settlementColumns+` FROM settlements
		ORDER BY created_at DESC, id DESC LIMIT 1`)
}

func (s *Store) GetSettlement(ctx context.Context, id string) (*domain.Settlement, error) {
	return s.querySettlement(ctx, `
		SELECT `+settlementColumns+` FROM settlements WHERE id = $1`, id)
}

func (s *Store) GetSettlementByDate(ctx context.Context, day time.Time) (*domain.Settlement, error) {
	return s.querySettlement(ctx, `
		SELECT `+settlementColumns+` FROM settlements WHERE settlement_date = $1`,
		domain.DateKey(day))
}

func (s *Store) ListSettlements(ctx context.Context, limit int) ([]domain.Settlement, error) {
	if limit < 1 {
		limit = 30
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+settlementColumns+` FROM settlements
		ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settlements := make([]domain.Settlement, 0, limit)
	for rows.Next() {
		stl, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, *stl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return settlements, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) querySettlement(ctx context.Context, query string, args ...any) (*domain.Settlement, error) {
	stl, err := scanSettlement(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return stl, nil
}

func scanSettlement(row rowScanner) (*domain.Settlement, error) {
	var (
		stl         domain.Settlement
		dateKey     string
		prevID      sql.NullString
		openingRaw  []byte
		purchRaw    []byte
		closingRaw  []byte
		consRaw     []byte
		expectedRaw []byte
		discRaw     []byte
		wastageRaw  []byte
		gapRaw      []byte
		revenueRaw  []byte
		tokensRaw   []byte
		warningsRaw []byte
		trailRaw    []byte
	)
	err := row.Scan(
		&stl.ID, &stl.Status, &prevID, &stl.PeriodStart, &stl.PeriodEnd, &dateKey,
		&openingRaw, &purchRaw, &closingRaw, &consRaw, &expectedRaw,
		&discRaw, &wastageRaw, &gapRaw, &revenueRaw,
		&stl.COGSActual, &stl.COGSExpected, &stl.WastageValue, &stl.DiscrepancyValue, &stl.Opex,
		&stl.GrossProfit, &stl.NetProfit, &stl.AdjustedNetProfit,
		&tokensRaw, &warningsRaw, &trailRaw, &stl.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	stl.PreviousID = prevID.String
	stl.PeriodStart = stl.PeriodStart.UTC()
	stl.PeriodEnd = stl.PeriodEnd.UTC()
	stl.CreatedAt = stl.CreatedAt.UTC()

	for _, field := range []struct {
		raw []byte
		out any
	}{
		{openingRaw, &stl.OpeningStock},
		{purchRaw, &stl.Purchases},
		{closingRaw, &stl.ClosingStock},
		{consRaw, &stl.Consumption},
		{expectedRaw, &stl.ExpectedConsumption},
		{discRaw, &stl.Discrepancy},
		{wastageRaw, &stl.WastageItems},
		{gapRaw, &stl.GapAdjustments},
		{revenueRaw, &stl.Revenue},
		{tokensRaw, &stl.RunnerTokenCounts},
		{warningsRaw, &stl.Warnings},
		{trailRaw, &stl.EditTrail},
	} {
		if len(field.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(field.raw, field.out); err != nil {
			return nil, fmt.Errorf("decode settlement %s: %w", stl.ID, err)
		}
	}
	return &stl, nil
}

type settlementJSON struct {
	openingStock        []byte
	purchases           []byte
	closingStock        []byte
	consumption         []byte
	expectedConsumption []byte
	discrepancy         []byte
	wastageItems        []byte
	gapAdjustments      []byte
	revenue             []byte
	runnerTokens        []byte
	warnings            []byte
	editTrail           []byte
}

func settlementBlobs(stl domain.Settlement) (settlementJSON, error) {
	var blobs settlementJSON
	var err error
	for _, field := range []struct {
		out *[]byte
		in  any
	}{
		{&blobs.openingStock, stl.OpeningStock},
		{&blobs.purchases, stl.Purchases},
		{&blobs.closingStock, stl.ClosingStock},
		{&blobs.consumption, stl.Consumption},
		{&blobs.expectedConsumption, stl.ExpectedConsumption},
		{&blobs.discrepancy, stl.Discrepancy},
		{&blobs.wastageItems, stl.WastageItems},
		{&blobs.gapAdjustments, stl.GapAdjustments},
		{&blobs.revenue, stl.Revenue},
		{&blobs.runnerTokens, stl.RunnerTokenCounts},
		{&blobs.warnings, stl.Warnings},
		{&blobs.editTrail, stl.EditTrail},
	} {
		*field.out, err = json.Marshal(field.in)
		if err != nil {
			return settlementJSON{}, err
		}
	}
	return blobs, nil
}

func settlementArgs(stl domain.Settlement, blobs settlementJSON) []any {
	return []any{
		stl.ID, stl.Status, nullIfEmpty(stl.PreviousID),
		stl.PeriodStart, stl.PeriodEnd, domain.DateKey(stl.PeriodEnd),
		blobs.openingStock, blobs.purchases, blobs.closingStock,
		blobs.consumption, blobs.expectedConsumption,
		blobs.discrepancy, blobs.wastageItems, blobs.gapAdjustments, blobs.revenue,
		stl.COGSActual, stl.COGSExpected, stl.WastageValue, stl.DiscrepancyValue, stl.Opex,
		stl.GrossProfit, stl.NetProfit, stl.AdjustedNetProfit,
		blobs.runnerTokens, blobs.warnings, blobs.editTrail, stl.CreatedAt,
	}
}

func (s *Store) ListVessels(ctx context.Context) ([]domain.Vessel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, tare_kg, liquid_type, location
		FROM vessels
		WHERE active = true
		ORDER BY location, code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vessels := make([]domain.Vessel, 0, 8)
	for rows.Next() {
		var v domain.Vessel
		if err := rows.Scan(&v.Code, &v.TareKg, &v.LiquidType, &v.Location); err != nil {
			return nil, err
		}
		vessels = append(vessels, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vessels, nil
}

func (s *Store) UpsertVessel(ctx context.Context, vessel domain.Vessel) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vessels (code, tare_kg, liquid_type, location, active, updated_at)
		VALUES ($1,$2,$3,$4,true,now())
		ON CONFLICT (code) DO UPDATE
		SET tare_kg = EXCLUDED.tare_kg, liquid_type = EXCLUDED.liquid_type,
		    location = EXCLUDED.location, active = true, updated_at = now()
	`, vessel.Code, vessel.TareKg, vessel.LiquidType, vessel.Location)
	return err
}

// MaterialCostsAt loads all requested materials in one query, picking
// each material's latest cost effective at or before the given instant.
func (s *Store) MaterialCostsAt(ctx context.Context, at time.Time, materialIDs []int) (map[int]float64, error) {
	if len(materialIDs) == 0 {
		return map[int]float64{}, nil
	}
	ids, err := json.Marshal(materialIDs)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (material_id) material_id, cost_per_unit
		FROM material_costs
		WHERE effective_from <= $1
		  AND material_id IN (SELECT value::int FROM jsonb_array_elements_text($2::jsonb))
		ORDER BY material_id, effective_from DESC
	`, at, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	costs := make(map[int]float64, len(materialIDs))
	for rows.Next() {
		var materialID int
		var cost float64
		if err := rows.Scan(&materialID, &cost); err != nil {
			return nil, err
		}
		costs[materialID] = cost
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return costs, nil
}

func (s *Store) RecordMaterialCost(ctx context.Context, cost domain.MaterialCost) error {
	if cost.EffectiveFrom.IsZero() {
		cost.EffectiveFrom = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO material_costs (material_id, cost_per_unit, effective_from)
		VALUES ($1,$2,$3)
	`, cost.MaterialID, cost.CostPerUnit, cost.EffectiveFrom)
	return err
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}
