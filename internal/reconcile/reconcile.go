// Package reconcile derives consumption, discrepancy, and the costed
// profit figures for one settlement period.
package reconcile

import (
	"fmt"
	"math"

	"github.com/abdulnihaf/nawabi-chai-house/internal/catalog"
	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
)

// Materials with an absolute discrepancy at or below this are counting
// noise and dropped.
const discrepancyEpsilon = 0.001

type Calculator struct {
	cat *catalog.Catalog
}

func NewCalculator(cat *catalog.Catalog) *Calculator {
	return &Calculator{cat: cat}
}

// Consumption computes opening + purchased - closing per material over
// the union of the three maps. A material is included when it moved or
// when stock was on hand or arrived. Negative values are kept as-is and
// reported as warnings; closing above opening+purchases means a miscount
// or an unlogged delivery, and correcting it silently would hide that.
func (c *Calculator) Consumption(opening domain.Inventory, purchases map[int]domain.PurchaseLine, closing domain.Inventory) (domain.Inventory, []string) {
	used := make(domain.Inventory)
	var warnings []string
	for _, id := range Union(Keys(opening), Keys(purchases), Keys(closing)) {
		open := opening[id]
		purchased := purchases[id].Qty
		qty := domain.Round4(open + purchased - closing[id])
		if qty == 0 && open <= 0 && purchased <= 0 {
			continue
		}
		used[id] = qty
		if qty < -discrepancyEpsilon {
			warnings = append(warnings, fmt.Sprintf(
				"negative consumption for %s: closing %.4f exceeds opening %.4f + purchased %.4f",
				c.materialName(id), closing[id], open, purchased))
		}
	}
	return used, warnings
}

// Expected expands sold product quantities through their recipes. The
// flagship product's sold quantity is corrected for runner tokens:
// tokens sold at the counter but not yet exchanged for a glass decouple
// recorded sales from physical preparation, so unsold tokens carried at
// count time are backed out and the previous period's carried tokens are
// added in.
func (c *Calculator) Expected(productSales map[int]float64, currentTokens, previousTokens float64) domain.Inventory {
	expected := make(domain.Inventory)
	for productID, qty := range productSales {
		if productID == c.cat.Flagship {
			qty = qty - currentTokens + previousTokens
		}
		if qty == 0 {
			continue
		}
		for materialID, perUnit := range c.cat.Recipe(productID) {
			expected[materialID] = domain.Round4(expected[materialID] + qty*perUnit)
		}
	}
	return expected
}

// Discrepancy computes actual - expected - wasted per material over the
// union of actual and expected keys, pricing each retained entry at its
// unit cost. Positive means shortage, negative means surplus.
func (c *Calculator) Discrepancy(actual, expected, wasted domain.Inventory, costs map[int]float64) map[int]domain.DiscrepancyEntry {
	out := make(map[int]domain.DiscrepancyEntry)
	for _, id := range Union(Keys(actual), Keys(expected), Keys(wasted)) {
		qty := domain.Round4(actual[id] - expected[id] - wasted[id])
		if math.Abs(qty) <= discrepancyEpsilon {
			continue
		}
		out[id] = domain.DiscrepancyEntry{
			Qty:   qty,
			Unit:  c.cat.MaterialUnit(id),
			Value: domain.Round2(qty * costs[id]),
		}
	}
	return out
}

func (c *Calculator) materialName(id int) string {
	if m, ok := c.cat.Materials[id]; ok {
		return m.Name
	}
	return fmt.Sprintf("material %d", id)
}
