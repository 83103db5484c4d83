package service

import (
	"context"
	"fmt"
	"time"

	"github.com/abdulnihaf/nawabi-chai-house/internal/decompose"
	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
	"github.com/abdulnihaf/nawabi-chai-house/internal/reconcile"
)

// Amend applies authorized retroactive corrections to a completed
// settlement and re-derives every figure downstream of opening,
// purchases, and closing. Revenue and opex are untouched. The change is
// recorded on the settlement's append-only edit trail. Settlements that
// already chained off this record's previous closing stock are not
// recomputed; amendments are manual corrections, not cascading rewrites.
func (s *Service) Amend(ctx context.Context, req domain.AmendRequest) (domain.AmendResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleManager {
		return domain.AmendResponse{}, domain.Validationf("manager role required")
	}
	if req.SettlementID == "" {
		return domain.AmendResponse{}, domain.Validationf("settlement_id is required")
	}
	if len(req.Corrections) == 0 {
		return domain.AmendResponse{}, domain.Validationf("at least one correction is required")
	}

	settlement, err := s.repo.GetSettlement(ctx, req.SettlementID)
	if err != nil {
		return domain.AmendResponse{}, err
	}
	if settlement.Status != domain.SettlementStatusCompleted {
		return domain.AmendResponse{}, domain.Preconditionf("settlement %s is %s; only completed settlements can be amended", settlement.ID, settlement.Status)
	}

	if settlement.Purchases == nil {
		settlement.Purchases = make(map[int]domain.PurchaseLine)
	}
	if settlement.ClosingStock == nil {
		settlement.ClosingStock = make(domain.Inventory)
	}

	previous := make(map[string]float64)
	applied := make([]domain.Correction, 0, len(req.Corrections))
	for _, correction := range req.Corrections {
		switch correction.Type {
		case domain.CorrectionTypePurchase:
			line, ok := settlement.Purchases[correction.MaterialID]
			if !ok || line.Qty <= 0 {
				return domain.AmendResponse{}, domain.Validationf("no purchase recorded for material %d; cannot derive its unit cost", correction.MaterialID)
			}
			if correction.NewValue < 0 {
				return domain.AmendResponse{}, domain.Validationf("purchase quantity for material %d must not be negative", correction.MaterialID)
			}
			previous[fmt.Sprintf("purchase_qty_%d", correction.MaterialID)] = line.Qty
			previous[fmt.Sprintf("purchase_cost_%d", correction.MaterialID)] = line.Cost

			// The corrected cost keeps the unit cost the original line
			// implied; only the quantity was wrong.
			impliedUnitCost := line.Cost / line.Qty
			correction.OldValue = line.Qty
			settlement.Purchases[correction.MaterialID] = domain.PurchaseLine{
				Qty:  domain.Round4(correction.NewValue),
				Cost: domain.Round2(correction.NewValue * impliedUnitCost),
			}

		case domain.CorrectionTypeClosing:
			if correction.NewValue < 0 {
				return domain.AmendResponse{}, domain.Validationf("closing stock for material %d must not be negative", correction.MaterialID)
			}
			previous[fmt.Sprintf("closing_%d", correction.MaterialID)] = settlement.ClosingStock[correction.MaterialID]
			correction.OldValue = settlement.ClosingStock[correction.MaterialID]
			settlement.ClosingStock[correction.MaterialID] = domain.Round4(correction.NewValue)

		default:
			return domain.AmendResponse{}, domain.Validationf("unknown correction type %q", correction.Type)
		}
		applied = append(applied, correction)
	}

	if err := s.recompute(ctx, settlement); err != nil {
		return domain.AmendResponse{}, err
	}

	settlement.EditTrail = append(settlement.EditTrail, domain.Amendment{
		Timestamp:      time.Now().UTC(),
		Actor:          actor.Username,
		Corrections:    applied,
		PreviousValues: previous,
	})

	if err := s.repo.UpdateSettlement(ctx, *settlement); err != nil {
		return domain.AmendResponse{}, err
	}
	s.afterAmend(ctx, settlement)
	if s.metrics != nil {
		s.metrics.AmendmentsTotal.Inc()
	}
	return domain.AmendResponse{Settlement: *settlement}, nil
}

// recompute re-derives consumption, discrepancy, and the costed figures
// from the settlement's (possibly corrected) opening, purchases, and
// closing. Expected consumption is not re-derived: the period's sales
// did not change.
func (s *Service) recompute(ctx context.Context, settlement *domain.Settlement) error {
	consumption, warnings := s.calc.Consumption(settlement.OpeningStock, settlement.Purchases, settlement.ClosingStock)

	wasted := decompose.New(s.cat).DecomposeWastage(settlement.WastageItems)

	costs, err := s.resolveCosts(ctx, settlement.PeriodEnd,
		reconcile.Union(
			reconcile.Keys(consumption),
			reconcile.Keys(settlement.ExpectedConsumption),
			reconcile.Keys(wasted)))
	if err != nil {
		return err
	}

	discrepancy := s.calc.Discrepancy(consumption, settlement.ExpectedConsumption, wasted, costs)
	summary := s.calc.Cost(consumption, settlement.ExpectedConsumption, wasted, discrepancy, costs,
		settlement.Revenue.Total, settlement.Opex)

	settlement.Consumption = consumption
	settlement.Discrepancy = discrepancy
	settlement.Warnings = warnings
	settlement.COGSActual = summary.COGSActual
	settlement.COGSExpected = summary.COGSExpected
	settlement.WastageValue = summary.WastageValue
	settlement.DiscrepancyValue = summary.DiscrepancyValue
	settlement.GrossProfit = summary.GrossProfit
	settlement.NetProfit = summary.NetProfit
	settlement.AdjustedNetProfit = summary.AdjustedNetProfit
	return nil
}

// afterAmend refreshes the cached tail when the amended settlement is
// the current tail; amendments to older records leave the cache alone.
func (s *Service) afterAmend(ctx context.Context, settlement *domain.Settlement) {
	tail, err := s.repo.LatestSettlement(ctx)
	if err != nil || tail.ID != settlement.ID {
		return
	}
	s.afterChainWrite(ctx, settlement)
}
