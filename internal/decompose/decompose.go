// Package decompose converts a raw physical count into canonical raw
// material quantities by running the catalog's field rules.
package decompose

import (
	"math"

	"github.com/abdulnihaf/nawabi-chai-house/internal/catalog"
	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
)

// Engine applies a catalog's decomposition rules. It holds no state
// beyond the catalog, so one engine serves all submissions.
type Engine struct {
	cat *catalog.Catalog
}

func New(cat *catalog.Catalog) *Engine {
	return &Engine{cat: cat}
}

// Decompose runs every registered rule against the input and returns the
// material totals, rounded to 4 decimals and never negative. Fields with
// no rule are ignored. The same input always yields the same output.
func (e *Engine) Decompose(input domain.PhysicalInput) (domain.Inventory, error) {
	totals := make(domain.Inventory)
	add := func(materialID int, qty float64) {
		totals[materialID] = domain.Round4(totals[materialID] + qty)
	}

	for _, rule := range e.cat.Rules {
		switch rule.Kind {
		case catalog.RuleDirect:
			qty, err := e.numberTotal(input, rule)
			if err != nil {
				return nil, err
			}
			if qty != 0 {
				add(rule.MaterialID, qty)
			}

		case catalog.RuleDual:
			// A non-empty container weighing overrides the direct figure.
			if entries := weighEntries(input, rule.WeighField); len(entries) > 0 {
				add(rule.MaterialID, e.netWeightKg(entries))
				continue
			}
			qty, err := e.numberTotal(input, rule)
			if err != nil {
				return nil, err
			}
			if qty != 0 {
				add(rule.MaterialID, qty)
			}

		case catalog.RuleVessel:
			litres := e.vesselLitres(input, rule)
			if litres <= 0 {
				continue
			}
			for materialID, perLitre := range rule.Ratios {
				add(materialID, litres*perLitre)
			}

		case catalog.RuleComposite, catalog.RulePrepared:
			qty, err := e.numberTotal(input, rule)
			if err != nil {
				return nil, err
			}
			if qty == 0 {
				continue
			}
			for materialID, perUnit := range rule.Ratios {
				add(materialID, qty*perUnit)
			}
		}
	}

	for materialID, qty := range totals {
		if qty < 0 {
			totals[materialID] = 0
		}
	}
	return totals, nil
}

// numberTotal sums the rule's field and its superseded aliases. Alias
// summing happens before the rule applies, so legacy zone-split fields
// never get the rule applied twice.
func (e *Engine) numberTotal(input domain.PhysicalInput, rule catalog.Rule) (float64, error) {
	total := 0.0
	for _, field := range append([]string{rule.Field}, rule.Aliases...) {
		v, ok := input[field]
		if !ok {
			continue
		}
		if v.IsArray {
			return 0, domain.Validationf("field %q expects a number, got a weighing array", field)
		}
		total += v.Number
	}
	return total, nil
}

// vesselLitres converts all weigh entries for the rule's field (and
// aliases) into net litres. Unregistered vessel codes read as zero tare.
func (e *Engine) vesselLitres(input domain.PhysicalInput, rule catalog.Rule) float64 {
	density := e.cat.Density(rule.LiquidType)
	litres := 0.0
	for _, field := range append([]string{rule.Field}, rule.Aliases...) {
		for _, entry := range weighEntries(input, field) {
			netKg := math.Max(0, entry.WeightKg-e.cat.VesselTare(entry.Code))
			litres += netKg / density
		}
	}
	return domain.Round4(litres)
}

func (e *Engine) netWeightKg(entries []domain.WeighEntry) float64 {
	total := 0.0
	for _, entry := range entries {
		total += math.Max(0, entry.WeightKg-e.cat.VesselTare(entry.Code))
	}
	return domain.Round4(total)
}

func weighEntries(input domain.PhysicalInput, field string) []domain.WeighEntry {
	if field == "" {
		return nil
	}
	v, ok := input[field]
	if !ok || !v.IsArray {
		return nil
	}
	return v.Entries
}

// DecomposeProducts expands sold product quantities through their recipes
// into raw material quantities. Used for expected consumption and for
// gap-window sales.
func (e *Engine) DecomposeProducts(sold map[int]float64) domain.Inventory {
	totals := make(domain.Inventory)
	for productID, qty := range sold {
		if qty == 0 {
			continue
		}
		for materialID, perUnit := range e.cat.Recipe(productID) {
			totals[materialID] = domain.Round4(totals[materialID] + qty*perUnit)
		}
	}
	return totals
}

// DecomposeWastage expands wastage entries through their state-specific
// ratio tables. Legacy entries naming a material directly pass through.
func (e *Engine) DecomposeWastage(items []domain.WastageItem) domain.Inventory {
	totals := make(domain.Inventory)
	for _, item := range items {
		if item.MaterialID != 0 {
			totals[item.MaterialID] = domain.Round4(totals[item.MaterialID] + item.Qty)
			continue
		}
		for materialID, perUnit := range e.cat.WastageRatio(item.Item, item.State) {
			totals[materialID] = domain.Round4(totals[materialID] + item.Qty*perUnit)
		}
	}
	return totals
}
