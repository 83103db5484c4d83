package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
)

// CostSummary carries every currency figure for one settlement, each
// rounded to 2 decimals.
type CostSummary struct {
	COGSActual        float64
	COGSExpected      float64
	WastageValue      float64
	DiscrepancyValue  float64
	Opex              float64
	GrossProfit       float64
	NetProfit         float64
	AdjustedNetProfit float64
}

// Cost prices the period. COGS from actual consumption clamps negative
// materials to zero so an overcounted closing stock cannot reduce cost;
// the expected baseline stays unclamped. Currency math runs in decimals
// so repeated reads of a persisted settlement reproduce the same figures.
func (c *Calculator) Cost(
	consumption, expected, wasted domain.Inventory,
	discrepancy map[int]domain.DiscrepancyEntry,
	costs map[int]float64,
	revenueTotal float64,
	opex float64,
) CostSummary {
	cogsActual := decimal.Zero
	for id, qty := range consumption {
		if qty <= 0 {
			continue
		}
		cogsActual = cogsActual.Add(mulCost(qty, costs[id]))
	}
	cogsExpected := decimal.Zero
	for id, qty := range expected {
		cogsExpected = cogsExpected.Add(mulCost(qty, costs[id]))
	}
	wastageValue := decimal.Zero
	for id, qty := range wasted {
		wastageValue = wastageValue.Add(mulCost(qty, costs[id]))
	}
	discrepancyValue := decimal.Zero
	for _, entry := range discrepancy {
		discrepancyValue = discrepancyValue.Add(decimal.NewFromFloat(entry.Value))
	}

	revenue := decimal.NewFromFloat(revenueTotal)
	opexDec := decimal.NewFromFloat(opex)
	gross := revenue.Sub(cogsActual)
	net := gross.Sub(opexDec)
	adjusted := net.Sub(discrepancyValue).Sub(wastageValue)

	return CostSummary{
		COGSActual:        round2(cogsActual),
		COGSExpected:      round2(cogsExpected),
		WastageValue:      round2(wastageValue),
		DiscrepancyValue:  round2(discrepancyValue),
		Opex:              round2(opexDec),
		GrossProfit:       round2(gross),
		NetProfit:         round2(net),
		AdjustedNetProfit: round2(adjusted),
	}
}

// Opex prorates monthly salaries over the period and adds logged counter
// expenses. A salary month counts as 30 days regardless of calendar.
func Opex(staff []domain.StaffMember, periodHours float64, expenses float64) float64 {
	total := decimal.NewFromFloat(expenses)
	hours := decimal.NewFromFloat(periodHours)
	for _, member := range staff {
		if !member.Active {
			continue
		}
		daily := decimal.NewFromFloat(member.MonthlySalary).Div(decimal.NewFromInt(30))
		total = total.Add(daily.Mul(hours).Div(decimal.NewFromInt(24)))
	}
	return round2(total)
}

func mulCost(qty, cost float64) decimal.Decimal {
	return decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(cost))
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
