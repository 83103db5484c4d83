package reconcile

import (
	"math"
	"strings"
	"testing"

	"github.com/abdulnihaf/nawabi-chai-house/internal/catalog"
	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestConsumptionBasicLedgerMath(t *testing.T) {
	calc := NewCalculator(catalog.Defaults())

	used, warnings := calc.Consumption(
		domain.Inventory{catalog.Sugar: 10},
		map[int]domain.PurchaseLine{catalog.Sugar: {Qty: 5, Cost: 220}},
		domain.Inventory{catalog.Sugar: 12},
	)

	if used[catalog.Sugar] != 3 {
		t.Fatalf("expected consumption 3, got %v", used[catalog.Sugar])
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

func TestConsumptionNegativeValueKeptWithWarning(t *testing.T) {
	calc := NewCalculator(catalog.Defaults())

	used, warnings := calc.Consumption(
		domain.Inventory{catalog.Sugar: 2},
		nil,
		domain.Inventory{catalog.Sugar: 5},
	)

	if used[catalog.Sugar] != -3 {
		t.Fatalf("expected negative consumption kept as-is, got %v", used[catalog.Sugar])
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "negative consumption") {
		t.Fatalf("expected a negative consumption warning, got %v", warnings)
	}
}

func TestConsumptionSkipsUntouchedMaterials(t *testing.T) {
	calc := NewCalculator(catalog.Defaults())

	used, _ := calc.Consumption(
		domain.Inventory{catalog.Sugar: 10, catalog.TeaPowder: 0},
		nil,
		domain.Inventory{catalog.Sugar: 10, catalog.TeaPowder: 0},
	)

	if qty, ok := used[catalog.Sugar]; !ok || qty != 0 {
		t.Fatalf("expected sugar retained at 0 because stock was on hand, got %v (present=%v)", qty, ok)
	}
	if _, ok := used[catalog.TeaPowder]; ok {
		t.Fatalf("expected untouched zero-stock material dropped")
	}
}

func TestExpectedAppliesRunnerTokenCorrection(t *testing.T) {
	calc := NewCalculator(catalog.Defaults())

	// 100 flagship glasses sold, 8 tokens unredeemed now, 5 carried in:
	// only 97 glasses were physically poured this period.
	expected := calc.Expected(map[int]float64{catalog.IraniChai: 100}, 8, 5)

	want := domain.Round4(97 * 0.05742)
	if !almostEqual(expected[catalog.BuffaloMilk], want) {
		t.Fatalf("expected buffalo milk %v for 97 glasses, got %v", want, expected[catalog.BuffaloMilk])
	}
}

func TestExpectedTokenCorrectionOnlyTouchesFlagship(t *testing.T) {
	calc := NewCalculator(catalog.Defaults())

	expected := calc.Expected(map[int]float64{catalog.Cutlet: 10}, 8, 5)

	if expected[catalog.CutletRaw] != 10 {
		t.Fatalf("expected token correction to leave non-flagship sales alone, got %v", expected[catalog.CutletRaw])
	}
}

func TestDiscrepancyShortageAndSurplus(t *testing.T) {
	calc := NewCalculator(catalog.Defaults())
	costs := map[int]float64{catalog.Sugar: 44, catalog.TeaPowder: 500}

	out := calc.Discrepancy(
		domain.Inventory{catalog.Sugar: 3, catalog.TeaPowder: 0.98},
		domain.Inventory{catalog.Sugar: 2.98, catalog.TeaPowder: 1.0},
		nil,
		costs,
	)

	sugar := out[catalog.Sugar]
	if !almostEqual(sugar.Qty, 0.02) {
		t.Fatalf("expected sugar shortage 0.02, got %v", sugar.Qty)
	}
	if sugar.Unit != "kg" {
		t.Fatalf("expected kg unit, got %q", sugar.Unit)
	}
	if sugar.Value != 0.88 {
		t.Fatalf("expected shortage value 0.88, got %v", sugar.Value)
	}

	tea := out[catalog.TeaPowder]
	if !almostEqual(tea.Qty, -0.02) {
		t.Fatalf("expected tea surplus -0.02, got %v", tea.Qty)
	}
	if tea.Value != -10 {
		t.Fatalf("expected surplus value -10, got %v", tea.Value)
	}
}

func TestDiscrepancyDropsCountingNoise(t *testing.T) {
	calc := NewCalculator(catalog.Defaults())

	out := calc.Discrepancy(
		domain.Inventory{catalog.Sugar: 3.0005},
		domain.Inventory{catalog.Sugar: 3.0},
		nil,
		map[int]float64{catalog.Sugar: 44},
	)
	if len(out) != 0 {
		t.Fatalf("expected sub-epsilon discrepancy dropped, got %v", out)
	}
}

func TestDiscrepancySubtractsWastage(t *testing.T) {
	calc := NewCalculator(catalog.Defaults())

	out := calc.Discrepancy(
		domain.Inventory{catalog.CutletRaw: 5},
		domain.Inventory{catalog.CutletRaw: 3},
		domain.Inventory{catalog.CutletRaw: 2},
		map[int]float64{catalog.CutletRaw: 15},
	)
	if len(out) != 0 {
		t.Fatalf("expected wastage to absorb the gap, got %v", out)
	}
}

func TestCostClampsNegativeConsumption(t *testing.T) {
	calc := NewCalculator(catalog.Defaults())
	costs := map[int]float64{catalog.Sugar: 44, catalog.TeaPowder: 500}

	summary := calc.Cost(
		domain.Inventory{catalog.Sugar: -2, catalog.TeaPowder: 1},
		domain.Inventory{catalog.Sugar: -2, catalog.TeaPowder: 1},
		nil, nil, costs, 1000, 0,
	)

	if summary.COGSActual != 500 {
		t.Fatalf("expected actual COGS to skip negative materials, got %v", summary.COGSActual)
	}
	if summary.COGSExpected != 412 {
		t.Fatalf("expected unclamped expected COGS 412, got %v", summary.COGSExpected)
	}
	if summary.GrossProfit != 500 {
		t.Fatalf("expected gross profit 500, got %v", summary.GrossProfit)
	}
}

func TestCostAdjustedNetSubtractsLosses(t *testing.T) {
	calc := NewCalculator(catalog.Defaults())
	costs := map[int]float64{catalog.Sugar: 44}

	discrepancy := map[int]domain.DiscrepancyEntry{
		catalog.Sugar: {Qty: 0.5, Unit: "kg", Value: 22},
	}
	summary := calc.Cost(
		domain.Inventory{catalog.Sugar: 2},
		domain.Inventory{catalog.Sugar: 1.5},
		domain.Inventory{catalog.Sugar: 0.25},
		discrepancy, costs, 1000, 300,
	)

	if summary.COGSActual != 88 {
		t.Fatalf("expected COGS 88, got %v", summary.COGSActual)
	}
	if summary.WastageValue != 11 {
		t.Fatalf("expected wastage value 11, got %v", summary.WastageValue)
	}
	if summary.NetProfit != 612 {
		t.Fatalf("expected net profit 612, got %v", summary.NetProfit)
	}
	if summary.AdjustedNetProfit != 579 {
		t.Fatalf("expected adjusted net 579, got %v", summary.AdjustedNetProfit)
	}
}

func TestOpexProratesMonthlySalaries(t *testing.T) {
	staff := []domain.StaffMember{
		{Name: "Rahim", MonthlySalary: 9000, Active: true},
		{Name: "Left Last Month", MonthlySalary: 9000, Active: false},
	}

	got := Opex(staff, 24, 500)
	if got != 800 {
		t.Fatalf("expected 300 salary + 500 expenses = 800, got %v", got)
	}

	halfDay := Opex(staff, 12, 0)
	if halfDay != 150 {
		t.Fatalf("expected 150 for a 12 hour period, got %v", halfDay)
	}
}

func TestUnionSortsAndDeduplicates(t *testing.T) {
	got := Union([]int{3, 1}, []int{2, 3}, nil)
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
