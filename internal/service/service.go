// Package service runs the settlement pipeline: decomposition, gap
// adjustment, consumption and discrepancy, costing, chain management,
// and amendments.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abdulnihaf/nawabi-chai-house/internal/cache"
	"github.com/abdulnihaf/nawabi-chai-house/internal/catalog"
	"github.com/abdulnihaf/nawabi-chai-house/internal/decompose"
	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
	"github.com/abdulnihaf/nawabi-chai-house/internal/external"
	"github.com/abdulnihaf/nawabi-chai-house/internal/gap"
	"github.com/abdulnihaf/nawabi-chai-house/internal/metrics"
	"github.com/abdulnihaf/nawabi-chai-house/internal/reconcile"
	"github.com/abdulnihaf/nawabi-chai-house/internal/store"
	"github.com/abdulnihaf/nawabi-chai-house/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo          store.Repository
	cache         cache.SettlementCache
	cat           *catalog.Catalog
	calc          *reconcile.Calculator
	sources       external.Sources
	metrics       *metrics.Metrics
	resubmitGuard time.Duration
	costTTL       time.Duration
}

func New(repo store.Repository, c cache.SettlementCache, cat *catalog.Catalog, sources external.Sources, m *metrics.Metrics, resubmitGuard, costTTL time.Duration) *Service {
	if c == nil {
		c = cache.NoopSettlementCache{}
	}
	if resubmitGuard < 0 {
		resubmitGuard = 0
	}

	return &Service{
		repo:          repo,
		cache:         c,
		cat:           cat,
		calc:          reconcile.NewCalculator(cat),
		sources:       sources,
		metrics:       m,
		resubmitGuard: resubmitGuard,
		costTTL:       costTTL,
	}
}

// Material resolves a material id against the catalog. Unknown ids get a
// placeholder name so exports and reports never render a blank row.
func (s *Service) Material(id int) domain.Material {
	if m, ok := s.cat.Materials[id]; ok {
		return m
	}
	return domain.Material{ID: id, Name: fmt.Sprintf("material %d", id), Unit: "unit"}
}

// Prepare reads the chain tail and fetches everything the counter needs
// before a submission: the open period, opening stock, the period's
// sales, purchases, expenses, and the current vessel registry. Nothing
// is persisted.
func (s *Service) Prepare(ctx context.Context, now time.Time) (domain.PrepareResponse, error) {
	tail, err := s.chainTail(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.PrepareResponse{}, err
	}

	resp := domain.PrepareResponse{PeriodEnd: now.UTC()}
	if tail != nil {
		resp.PreviousID = tail.ID
		resp.PeriodStart = tail.PeriodEnd
		resp.OpeningStock = tail.ClosingStock
	} else {
		resp.Bootstrap = true
		resp.PeriodStart = now.UTC().Truncate(24 * time.Hour)
	}

	var (
		salesReport external.SalesReport
		purchases   map[int]domain.PurchaseLine
		expenses    float64
		vessels     []domain.Vessel
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		salesReport, err = s.sources.Sales.SalesBetween(gctx, resp.PeriodStart, resp.PeriodEnd)
		return fetchErr("sales", err)
	})
	g.Go(func() error {
		var err error
		purchases, err = s.sources.Purchases.PurchasesBetween(gctx, resp.PeriodStart, resp.PeriodEnd)
		return fetchErr("purchases", err)
	})
	g.Go(func() error {
		var err error
		expenses, err = s.sources.Expenses.ExpensesBetween(gctx, resp.PeriodStart, resp.PeriodEnd)
		return fetchErr("expenses", err)
	})
	g.Go(func() error {
		var err error
		vessels, err = s.repo.ListVessels(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.PrepareResponse{}, err
	}

	local := s.cat.WithVessels(vessels)
	resp.Revenue = salesReport.Revenue
	resp.ProductSales = salesReport.Products
	resp.Purchases = purchases
	resp.Expenses = expenses
	resp.Vessels = make([]domain.Vessel, 0, len(local.Vessels))
	for _, v := range local.Vessels {
		resp.Vessels = append(resp.Vessels, v)
	}
	return resp, nil
}

// Submit runs the full settlement pipeline and appends the result to the
// chain. The decomposed count, the external fetches, gap adjustment, and
// all derived figures happen before the single write; the inventory push
// afterwards is best effort and rides in the response on failure.
func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest, now time.Time) (domain.SubmitResponse, error) {
	started := time.Now()
	resp, err := s.submit(ctx, req, now.UTC())
	if s.metrics != nil {
		s.metrics.PipelineDuration.Observe(time.Since(started).Seconds())
		switch {
		case err != nil:
			s.metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		case resp.Settlement.Status == domain.SettlementStatusBootstrap:
			s.metrics.SubmissionsTotal.WithLabelValues("bootstrap").Inc()
		default:
			s.metrics.SubmissionsTotal.WithLabelValues("completed").Inc()
		}
	}
	return resp, err
}

func (s *Service) submit(ctx context.Context, req domain.SubmitRequest, now time.Time) (domain.SubmitResponse, error) {
	if len(req.RawInput) == 0 {
		return domain.SubmitResponse{}, domain.Validationf("raw_input is required")
	}

	tail, err := s.chainTail(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.SubmitResponse{}, err
	}
	if tail == nil && !req.Bootstrap {
		return domain.SubmitResponse{}, domain.Preconditionf("no prior settlement: a bootstrap submission must establish the baseline count first")
	}
	if tail != nil && req.Bootstrap {
		return domain.SubmitResponse{}, domain.Preconditionf("ledger already bootstrapped by settlement %s", tail.ID)
	}
	if tail != nil && now.Sub(tail.CreatedAt) < s.resubmitGuard {
		return domain.SubmitResponse{}, domain.Preconditionf(
			"previous settlement recorded %.0f seconds ago; submissions within %.0f seconds are rejected as accidental resubmission",
			now.Sub(tail.CreatedAt).Seconds(), s.resubmitGuard.Seconds())
	}

	vessels, err := s.repo.ListVessels(ctx)
	if err != nil {
		return domain.SubmitResponse{}, err
	}
	engine := decompose.New(s.cat.WithVessels(vessels))

	decomposed, err := engine.Decompose(req.RawInput)
	if err != nil {
		return domain.SubmitResponse{}, err
	}

	if req.Bootstrap {
		return s.submitBootstrap(ctx, req, decomposed, now)
	}

	periodStart := tail.PeriodEnd
	periodEnd := now

	var (
		salesReport external.SalesReport
		purchases   map[int]domain.PurchaseLine
		expenses    float64
		staff       []domain.StaffMember
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		salesReport, err = s.sources.Sales.SalesBetween(gctx, periodStart, periodEnd)
		return fetchErr("sales", err)
	})
	g.Go(func() error {
		var err error
		purchases, err = s.sources.Purchases.PurchasesBetween(gctx, periodStart, periodEnd)
		return fetchErr("purchases", err)
	})
	g.Go(func() error {
		var err error
		expenses, err = s.sources.Expenses.ExpensesBetween(gctx, periodStart, periodEnd)
		return fetchErr("expenses", err)
	})
	g.Go(func() error {
		var err error
		staff, err = s.sources.Staff.ActiveStaff(gctx)
		return fetchErr("staff", err)
	})
	if err := g.Wait(); err != nil {
		return domain.SubmitResponse{}, err
	}

	adjuster := gap.NewAdjuster(s.cat, engine)
	closing, gapAdjustments, err := adjuster.Adjust(ctx, decomposed, req.FieldTimestamps, s.sources.Sales.ProductSalesBetween)
	if err != nil {
		return domain.SubmitResponse{}, fetchErr("sales", err)
	}
	if s.metrics != nil {
		s.metrics.GapAdjustments.Add(float64(len(gapAdjustments)))
	}

	consumption, warnings := s.calc.Consumption(tail.ClosingStock, purchases, closing)

	productSales := make(map[int]float64, len(salesReport.Products))
	for productID, sale := range salesReport.Products {
		productSales[productID] = sale.Qty
	}
	currentTokens := sumTokens(req.RunnerTokens)
	expected := s.calc.Expected(productSales, currentTokens, tail.TokenTotal())
	wasted := engine.DecomposeWastage(req.WastageItems)

	costs, err := s.resolveCosts(ctx, periodEnd,
		reconcile.Union(reconcile.Keys(consumption), reconcile.Keys(expected), reconcile.Keys(wasted)))
	if err != nil {
		return domain.SubmitResponse{}, err
	}

	discrepancy := s.calc.Discrepancy(consumption, expected, wasted, costs)
	opex := reconcile.Opex(staff, periodEnd.Sub(periodStart).Hours(), expenses)
	summary := s.calc.Cost(consumption, expected, wasted, discrepancy, costs, salesReport.Revenue.Total, opex)

	settlement := domain.Settlement{
		ID:                  xid.New("stl"),
		Status:              domain.SettlementStatusCompleted,
		PreviousID:          tail.ID,
		PeriodStart:         periodStart,
		PeriodEnd:           periodEnd,
		OpeningStock:        tail.ClosingStock,
		Purchases:           purchases,
		ClosingStock:        closing,
		Consumption:         consumption,
		ExpectedConsumption: expected,
		Discrepancy:         discrepancy,
		WastageItems:        req.WastageItems,
		GapAdjustments:      gapAdjustments,
		Revenue:             salesReport.Revenue,
		COGSActual:          summary.COGSActual,
		COGSExpected:        summary.COGSExpected,
		WastageValue:        summary.WastageValue,
		DiscrepancyValue:    summary.DiscrepancyValue,
		Opex:                summary.Opex,
		GrossProfit:         summary.GrossProfit,
		NetProfit:           summary.NetProfit,
		AdjustedNetProfit:   summary.AdjustedNetProfit,
		RunnerTokenCounts:   req.RunnerTokens,
		Warnings:            warnings,
		CreatedAt:           now,
	}

	if err := s.repo.InsertSettlement(ctx, settlement, tail.ID); err != nil {
		return domain.SubmitResponse{}, err
	}
	s.afterChainWrite(ctx, &settlement)
	s.recordPurchaseCosts(ctx, purchases, periodEnd)

	resp := domain.SubmitResponse{Settlement: settlement, Warnings: warnings}
	if err := s.sources.Sync.PushClosingStock(ctx, closing); err != nil {
		syncErr := &domain.SyncError{Err: err}
		log.Printf("[service] WARN: %v", syncErr)
		if s.metrics != nil {
			s.metrics.SyncFailures.Inc()
		}
		resp.SyncError = syncErr.Error()
	}
	return resp, nil
}

// submitBootstrap stores the decomposed count as both the snapshot and
// the closing stock. No P&L is computed; the record only seeds the next
// settlement's opening stock.
func (s *Service) submitBootstrap(ctx context.Context, req domain.SubmitRequest, decomposed domain.Inventory, now time.Time) (domain.SubmitResponse, error) {
	settlement := domain.Settlement{
		ID:                xid.New("stl"),
		Status:            domain.SettlementStatusBootstrap,
		PeriodStart:       now.Truncate(24 * time.Hour),
		PeriodEnd:         now,
		ClosingStock:      decomposed,
		RunnerTokenCounts: req.RunnerTokens,
		CreatedAt:         now,
	}
	if err := s.repo.InsertSettlement(ctx, settlement, ""); err != nil {
		return domain.SubmitResponse{}, err
	}
	s.afterChainWrite(ctx, &settlement)
	return domain.SubmitResponse{Settlement: settlement}, nil
}

func (s *Service) GetSettlement(ctx context.Context, id string) (domain.Settlement, error) {
	settlement, err := s.repo.GetSettlement(ctx, id)
	if err != nil {
		return domain.Settlement{}, err
	}
	return *settlement, nil
}

func (s *Service) GetSettlementByDate(ctx context.Context, day time.Time) (domain.Settlement, error) {
	settlement, err := s.repo.GetSettlementByDate(ctx, day)
	if err != nil {
		return domain.Settlement{}, err
	}
	return *settlement, nil
}

func (s *Service) ListHistory(ctx context.Context, limit int) ([]domain.Settlement, error) {
	if limit < 1 || limit > 365 {
		limit = 30
	}
	return s.repo.ListSettlements(ctx, limit)
}

func (s *Service) ListVessels(ctx context.Context) ([]domain.Vessel, error) {
	vessels, err := s.repo.ListVessels(ctx)
	if err != nil {
		return nil, err
	}
	local := s.cat.WithVessels(vessels)
	out := make([]domain.Vessel, 0, len(local.Vessels))
	for _, v := range local.Vessels {
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) UpsertVessel(ctx context.Context, req domain.VesselUpsertRequest) (domain.Vessel, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleManager {
		return domain.Vessel{}, domain.Validationf("manager role required")
	}
	if req.Code == "" {
		return domain.Vessel{}, domain.Validationf("vessel code is required")
	}
	if req.TareKg < 0 {
		return domain.Vessel{}, domain.Validationf("tare weight must not be negative")
	}
	vessel := domain.Vessel{
		Code:       req.Code,
		TareKg:     req.TareKg,
		LiquidType: req.LiquidType,
		Location:   req.Location,
	}
	if err := s.repo.UpsertVessel(ctx, vessel); err != nil {
		return domain.Vessel{}, err
	}
	return vessel, nil
}

// chainTail reads the most recent settlement, preferring the cache. A
// nil settlement with ErrNotFound means the ledger is empty.
func (s *Service) chainTail(ctx context.Context) (*domain.Settlement, error) {
	if cached, ok, err := s.cache.GetLatest(ctx); err == nil && ok {
		return cached, nil
	}
	tail, err := s.repo.LatestSettlement(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetLatest(ctx, tail, s.costTTL); err != nil {
		log.Printf("[service] WARN: caching chain tail failed: %v", err)
	}
	return tail, nil
}

func (s *Service) afterChainWrite(ctx context.Context, settlement *domain.Settlement) {
	if err := s.cache.InvalidateLatest(ctx); err != nil {
		log.Printf("[service] WARN: invalidating cached chain tail failed: %v", err)
	}
	if err := s.cache.SetLatest(ctx, settlement, s.costTTL); err != nil {
		log.Printf("[service] WARN: caching chain tail failed: %v", err)
	}
}

// resolveCosts prices materials at the settlement date: the latest
// recorded cost effective at or before it, falling back to the static
// reference table, zero when neither exists.
func (s *Service) resolveCosts(ctx context.Context, at time.Time, materialIDs []int) (map[int]float64, error) {
	dateKey := domain.DateKey(at)
	recorded, ok, err := s.cache.GetCosts(ctx, dateKey)
	if err != nil || !ok {
		recorded, err = s.repo.MaterialCostsAt(ctx, at, materialIDs)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetCosts(ctx, dateKey, recorded, s.costTTL); err != nil {
			log.Printf("[service] WARN: caching material costs failed: %v", err)
		}
	}

	costs := make(map[int]float64, len(materialIDs))
	for _, id := range materialIDs {
		if cost, ok := recorded[id]; ok {
			costs[id] = cost
			continue
		}
		costs[id] = s.cat.FallbackCosts[id]
	}
	return costs, nil
}

// recordPurchaseCosts keeps the time-scoped cost table current from the
// period's received purchases. Failures only log; the settlement is
// already written.
func (s *Service) recordPurchaseCosts(ctx context.Context, purchases map[int]domain.PurchaseLine, at time.Time) {
	for materialID, line := range purchases {
		if line.Qty <= 0 || line.Cost <= 0 {
			continue
		}
		err := s.repo.RecordMaterialCost(ctx, domain.MaterialCost{
			MaterialID:    materialID,
			CostPerUnit:   domain.Round2(line.Cost / line.Qty),
			EffectiveFrom: at,
		})
		if err != nil {
			log.Printf("[service] WARN: recording material cost for %d failed: %v", materialID, err)
		}
	}
}

func sumTokens(tokens map[string]float64) float64 {
	var total float64
	for _, n := range tokens {
		total += n
	}
	return total
}

func fetchErr(source string, err error) error {
	if err == nil {
		return nil
	}
	return &domain.ExternalFetchError{Source: source, Err: err}
}
