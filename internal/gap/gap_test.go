package gap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abdulnihaf/nawabi-chai-house/internal/catalog"
	"github.com/abdulnihaf/nawabi-chai-house/internal/decompose"
	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
)

func newAdjuster() *Adjuster {
	cat := catalog.Defaults()
	return NewAdjuster(cat, decompose.New(cat))
}

func staticSales(sold map[int]float64) ProductSalesFunc {
	return func(ctx context.Context, from, to time.Time, productIDs []int) (map[int]float64, error) {
		out := make(map[int]float64)
		for _, id := range productIDs {
			if qty, ok := sold[id]; ok {
				out[id] = qty
			}
		}
		return out, nil
	}
}

func TestAdjustNoTimestampsLeavesClosingAlone(t *testing.T) {
	adjuster := newAdjuster()
	closing := domain.Inventory{catalog.CutletRaw: 5}

	adjusted, adjustments, err := adjuster.Adjust(context.Background(), closing, nil, staticSales(nil))
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if len(adjustments) != 0 {
		t.Fatalf("expected no adjustments, got %v", adjustments)
	}
	if adjusted[catalog.CutletRaw] != 5 {
		t.Fatalf("expected closing unchanged, got %v", adjusted[catalog.CutletRaw])
	}
}

func TestAdjustWithinThresholdDoesNothing(t *testing.T) {
	adjuster := newAdjuster()
	reference := time.Date(2026, 8, 30, 22, 0, 0, 0, time.UTC)

	// fried_cutlets is a counter field with a 10 minute tolerance; 5
	// minutes of skew is inside it.
	_, adjustments, err := adjuster.Adjust(context.Background(),
		domain.Inventory{catalog.CutletRaw: 5},
		map[string]time.Time{
			"fried_cutlets": reference.Add(-5 * time.Minute),
			"raw_sugar":     reference,
		},
		staticSales(map[int]float64{catalog.Cutlet: 3}))
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if len(adjustments) != 0 {
		t.Fatalf("expected no adjustments inside threshold, got %v", adjustments)
	}
}

func TestAdjustSubtractsGapWindowSales(t *testing.T) {
	adjuster := newAdjuster()
	reference := time.Date(2026, 8, 30, 22, 0, 0, 0, time.UTC)
	countedAt := reference.Add(-28 * time.Minute)

	closing := domain.Inventory{catalog.CutletRaw: 5, catalog.Oil: 0.05}
	adjusted, adjustments, err := adjuster.Adjust(context.Background(), closing,
		map[string]time.Time{
			"fried_cutlets": countedAt,
			"raw_sugar":     reference,
		},
		staticSales(map[int]float64{catalog.Cutlet: 3}))
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}

	if adjusted[catalog.CutletRaw] != 2 {
		t.Fatalf("expected 3 cutlets subtracted, got closing %v", adjusted[catalog.CutletRaw])
	}
	// 3 cutlets carry 0.09L oil, but only 0.05L was counted: floor at zero.
	if adjusted[catalog.Oil] != 0 {
		t.Fatalf("expected oil floored at zero, got %v", adjusted[catalog.Oil])
	}

	if len(adjustments) != 1 {
		t.Fatalf("expected one adjustment, got %d", len(adjustments))
	}
	adj := adjustments[0]
	if adj.Field != "fried_cutlets" {
		t.Fatalf("unexpected field %q", adj.Field)
	}
	if adj.GapSeconds != 28*60 {
		t.Fatalf("expected 1680s gap, got %d", adj.GapSeconds)
	}
	if adj.ProductsSold[catalog.Cutlet] != 3 {
		t.Fatalf("expected 3 cutlets sold in window, got %v", adj.ProductsSold)
	}
	if adj.MaterialsSubtracted[catalog.CutletRaw] != 3 {
		t.Fatalf("expected 3 raw cutlets subtracted, got %v", adj.MaterialsSubtracted)
	}
	if adj.MaterialsSubtracted[catalog.Oil] != 0.05 {
		t.Fatalf("expected only the counted 0.05L oil subtracted, got %v", adj.MaterialsSubtracted)
	}
}

func TestAdjustFieldWithoutZoneIgnored(t *testing.T) {
	adjuster := newAdjuster()
	reference := time.Date(2026, 8, 30, 22, 0, 0, 0, time.UTC)

	// honey has no zone mapping, so even a huge gap never adjusts.
	_, adjustments, err := adjuster.Adjust(context.Background(),
		domain.Inventory{catalog.Honey: 2},
		map[string]time.Time{
			"honey":     reference.Add(-3 * time.Hour),
			"raw_sugar": reference,
		},
		staticSales(nil))
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if len(adjustments) != 0 {
		t.Fatalf("expected unzoned field ignored, got %v", adjustments)
	}
}

func TestAdjustPropagatesFetchError(t *testing.T) {
	adjuster := newAdjuster()
	reference := time.Date(2026, 8, 30, 22, 0, 0, 0, time.UTC)
	fetchErr := errors.New("sales source down")

	_, _, err := adjuster.Adjust(context.Background(),
		domain.Inventory{catalog.CutletRaw: 5},
		map[string]time.Time{
			"fried_cutlets": reference.Add(-28 * time.Minute),
			"raw_sugar":     reference,
		},
		func(ctx context.Context, from, to time.Time, productIDs []int) (map[int]float64, error) {
			return nil, fetchErr
		})
	if !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error to propagate, got %v", err)
	}
}
