package external

import (
	"context"
	"sync"
	"time"

	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
)

// Static serves fixed data for dev mode and tests. Sales lines carry a
// sold-at instant so gap-window queries behave like the real source.
type Static struct {
	mu          sync.RWMutex
	salesLines  []StaticSale
	purchases   map[int]domain.PurchaseLine
	expenses    float64
	staff       []domain.StaffMember
	syncErr     error
	pushedStock domain.Inventory
}

type StaticSale struct {
	ProductID     int
	Qty           float64
	Amount        float64
	Channel       string
	Complimentary bool
	SoldAt        time.Time
}

func NewStatic() *Static {
	return &Static{purchases: make(map[int]domain.PurchaseLine)}
}

func (s *Static) SetSales(lines []StaticSale) {
	s.mu.Lock()
	s.salesLines = lines
	s.mu.Unlock()
}

func (s *Static) SetPurchases(purchases map[int]domain.PurchaseLine) {
	s.mu.Lock()
	s.purchases = purchases
	s.mu.Unlock()
}

func (s *Static) SetExpenses(total float64) {
	s.mu.Lock()
	s.expenses = total
	s.mu.Unlock()
}

func (s *Static) SetStaff(staff []domain.StaffMember) {
	s.mu.Lock()
	s.staff = staff
	s.mu.Unlock()
}

func (s *Static) FailSync(err error) {
	s.mu.Lock()
	s.syncErr = err
	s.mu.Unlock()
}

// PushedStock returns the last closing stock pushed through sync.
func (s *Static) PushedStock() domain.Inventory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pushedStock
}

func (s *Static) SalesBetween(ctx context.Context, from, to time.Time) (SalesReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := SalesReport{
		Products: make(map[int]domain.ProductSale),
		Revenue:  domain.Revenue{Channels: make(map[string]domain.ChannelRevenue)},
	}
	for _, line := range s.salesLines {
		if !inWindow(line.SoldAt, from, to) {
			continue
		}
		if line.Complimentary {
			report.Revenue.ComplimentaryOrders++
			report.Revenue.ComplimentaryAmount = domain.Round2(report.Revenue.ComplimentaryAmount + line.Amount)
			continue
		}
		sale := report.Products[line.ProductID]
		sale.Qty += line.Qty
		sale.Amount = domain.Round2(sale.Amount + line.Amount)
		report.Products[line.ProductID] = sale

		report.Revenue.Total = domain.Round2(report.Revenue.Total + line.Amount)
		channel := report.Revenue.Channels[line.Channel]
		channel.Orders++
		channel.Amount = domain.Round2(channel.Amount + line.Amount)
		report.Revenue.Channels[line.Channel] = channel
	}
	return report, nil
}

func (s *Static) ProductSalesBetween(ctx context.Context, from, to time.Time, productIDs []int) (map[int]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int]bool, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = true
	}
	sold := make(map[int]float64)
	for _, line := range s.salesLines {
		if !wanted[line.ProductID] || !inWindow(line.SoldAt, from, to) {
			continue
		}
		sold[line.ProductID] += line.Qty
	}
	return sold, nil
}

func (s *Static) PurchasesBetween(ctx context.Context, from, to time.Time) (map[int]domain.PurchaseLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int]domain.PurchaseLine, len(s.purchases))
	for id, line := range s.purchases {
		out[id] = line
	}
	return out, nil
}

func (s *Static) ExpensesBetween(ctx context.Context, from, to time.Time) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expenses, nil
}

func (s *Static) ActiveStaff(ctx context.Context) ([]domain.StaffMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]domain.StaffMember, 0, len(s.staff))
	for _, member := range s.staff {
		if member.Active {
			active = append(active, member)
		}
	}
	return active, nil
}

func (s *Static) PushClosingStock(ctx context.Context, stock domain.Inventory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.syncErr != nil {
		return s.syncErr
	}
	s.pushedStock = stock
	return nil
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
