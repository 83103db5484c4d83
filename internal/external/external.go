// Package external defines the collaborator sources the settlement
// pipeline reads from and the inventory target it pushes to. The core
// only depends on these interfaces; the ERP client and the static stub
// both satisfy them.
package external

import (
	"context"
	"time"

	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
)

// SalesReport is one period's POS activity: per-product sold quantity
// and amount, channel totals, and complimentary orders (display only,
// excluded from revenue).
type SalesReport struct {
	Products map[int]domain.ProductSale `json:"products"`
	Revenue  domain.Revenue             `json:"revenue"`
}

type SalesSource interface {
	// SalesBetween reports all POS activity in [from, to).
	SalesBetween(ctx context.Context, from, to time.Time) (SalesReport, error)
	// ProductSalesBetween reports quantity sold per product in [from, to),
	// restricted to the given product ids. Used by gap adjustment.
	ProductSalesBetween(ctx context.Context, from, to time.Time, productIDs []int) (map[int]float64, error)
}

type PurchaseSource interface {
	// PurchasesBetween reports received quantity and weighted-average
	// total cost per material for orders received in [from, to).
	PurchasesBetween(ctx context.Context, from, to time.Time) (map[int]domain.PurchaseLine, error)
}

type ExpenseSource interface {
	// ExpensesBetween sums manually recorded counter expenses in [from, to).
	ExpensesBetween(ctx context.Context, from, to time.Time) (float64, error)
}

type StaffSource interface {
	ActiveStaff(ctx context.Context) ([]domain.StaffMember, error)
}

type InventorySync interface {
	// PushClosingStock mirrors final closing stock to the ERP. Best
	// effort: the caller reports failure but never rolls back.
	PushClosingStock(ctx context.Context, stock domain.Inventory) error
}

// Sources bundles every external collaborator for service wiring.
type Sources struct {
	Sales     SalesSource
	Purchases PurchaseSource
	Expenses  ExpenseSource
	Staff     StaffSource
	Sync      InventorySync
}
