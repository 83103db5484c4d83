// Package gap corrects closing stock for counting-time skew. A field
// counted early but frozen in the submitted snapshot overstates closing
// stock by whatever sold between its count and the submission instant,
// since those units are physically gone.
package gap

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abdulnihaf/nawabi-chai-house/internal/catalog"
	"github.com/abdulnihaf/nawabi-chai-house/internal/decompose"
	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
)

// ProductSalesFunc fetches quantity sold per product id inside a window.
type ProductSalesFunc func(ctx context.Context, from, to time.Time, productIDs []int) (map[int]float64, error)

type Adjuster struct {
	cat    *catalog.Catalog
	engine *decompose.Engine
}

func NewAdjuster(cat *catalog.Catalog, engine *decompose.Engine) *Adjuster {
	return &Adjuster{cat: cat, engine: engine}
}

// Adjust applies the gap correction once per submission. The reference
// instant is the latest field timestamp; every field whose gap against
// that reference exceeds its zone threshold has its gap-window sales
// decomposed through recipes and subtracted from closing stock, floored
// at zero per material. The per-field sales queries run in parallel and
// merge in field order, so the result is deterministic for given inputs.
func (a *Adjuster) Adjust(ctx context.Context, closing domain.Inventory, timestamps map[string]time.Time, fetch ProductSalesFunc) (domain.Inventory, []domain.GapAdjustment, error) {
	if len(timestamps) == 0 {
		return closing, nil, nil
	}

	var reference time.Time
	for _, ts := range timestamps {
		if ts.After(reference) {
			reference = ts
		}
	}

	type overdue struct {
		field     string
		countedAt time.Time
		products  []int
	}
	var fields []overdue
	for field, countedAt := range timestamps {
		threshold, ok := a.cat.ZoneThreshold(field)
		if !ok {
			continue
		}
		if reference.Sub(countedAt) <= threshold {
			continue
		}
		products := a.cat.FieldProducts[field]
		if len(products) == 0 {
			continue
		}
		fields = append(fields, overdue{field: field, countedAt: countedAt, products: products})
	}
	if len(fields) == 0 {
		return closing, nil, nil
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].field < fields[j].field })

	var mu sync.Mutex
	sold := make([]map[int]float64, len(fields))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range fields {
		i, f := i, f
		g.Go(func() error {
			sales, err := fetch(gctx, f.countedAt, reference, f.products)
			if err != nil {
				return err
			}
			mu.Lock()
			sold[i] = sales
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	adjusted := make(domain.Inventory, len(closing))
	for id, qty := range closing {
		adjusted[id] = qty
	}

	var adjustments []domain.GapAdjustment
	for i, f := range fields {
		materials := a.engine.DecomposeProducts(sold[i])
		subtracted := make(domain.Inventory, len(materials))
		for materialID, qty := range materials {
			if qty <= 0 {
				continue
			}
			before := adjusted[materialID]
			after := domain.Round4(before - qty)
			if after < 0 {
				after = 0
			}
			adjusted[materialID] = after
			subtracted[materialID] = domain.Round4(before - after)
		}
		adjustments = append(adjustments, domain.GapAdjustment{
			Field:               f.field,
			GapSeconds:          int64(reference.Sub(f.countedAt).Seconds()),
			CountedAt:           f.countedAt,
			ProductsSold:        sold[i],
			MaterialsSubtracted: subtracted,
		})
	}
	return adjusted, adjustments, nil
}
