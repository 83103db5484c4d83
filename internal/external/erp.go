package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
)

// ERPClient talks to the shop's ERP bridge over HTTP with a bearer key.
// It implements every source interface plus the inventory sync target.
type ERPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewERPClient(baseURL, apiKey string, timeout time.Duration) *ERPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ERPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type erpSalesLine struct {
	ProductID     int     `json:"product_id"`
	Qty           float64 `json:"qty"`
	Amount        float64 `json:"amount"`
	Channel       string  `json:"channel"`
	Complimentary bool    `json:"complimentary"`
}

func (c *ERPClient) SalesBetween(ctx context.Context, from, to time.Time) (SalesReport, error) {
	var lines []erpSalesLine
	if err := c.get(ctx, "/api/sales", windowQuery(from, to), &lines); err != nil {
		return SalesReport{}, err
	}

	report := SalesReport{
		Products: make(map[int]domain.ProductSale),
		Revenue: domain.Revenue{
			Channels: make(map[string]domain.ChannelRevenue),
		},
	}
	for _, line := range lines {
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

func (c *ERPClient) ProductSalesBetween(ctx context.Context, from, to time.Time, productIDs []int) (map[int]float64, error) {
	query := windowQuery(from, to)
	ids := make([]string, len(productIDs))
	for i, id := range productIDs {
		ids[i] = strconv.Itoa(id)
	}
	query.Set("product_ids", strings.Join(ids, ","))

	var lines []erpSalesLine
	if err := c.get(ctx, "/api/sales", query, &lines); err != nil {
		return nil, err
	}
	sold := make(map[int]float64)
	for _, line := range lines {
		sold[line.ProductID] += line.Qty
	}
	return sold, nil
}

type erpPurchaseLine struct {
	MaterialID int     `json:"material_id"`
	Qty        float64 `json:"qty"`
	UnitCost   float64 `json:"unit_cost"`
}

// PurchasesBetween aggregates received order lines per material. The
// unit cost is the quantity-weighted average across matching lines.
func (c *ERPClient) PurchasesBetween(ctx context.Context, from, to time.Time) (map[int]domain.PurchaseLine, error) {
	var lines []erpPurchaseLine
	if err := c.get(ctx, "/api/purchases/received", windowQuery(from, to), &lines); err != nil {
		return nil, err
	}

	type acc struct {
		qty  decimal.Decimal
		cost decimal.Decimal
	}
	totals := make(map[int]acc)
	for _, line := range lines {
		a := totals[line.MaterialID]
		qty := decimal.NewFromFloat(line.Qty)
		a.qty = a.qty.Add(qty)
		a.cost = a.cost.Add(qty.Mul(decimal.NewFromFloat(line.UnitCost)))
		totals[line.MaterialID] = a
	}

	out := make(map[int]domain.PurchaseLine, len(totals))
	for id, a := range totals {
		qty, _ := a.qty.Float64()
		cost, _ := a.cost.Round(2).Float64()
		out[id] = domain.PurchaseLine{Qty: domain.Round4(qty), Cost: cost}
	}
	return out, nil
}

type erpExpense struct {
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
}

func (c *ERPClient) ExpensesBetween(ctx context.Context, from, to time.Time) (float64, error) {
	var expenses []erpExpense
	if err := c.get(ctx, "/api/expenses", windowQuery(from, to), &expenses); err != nil {
		return 0, err
	}
	total := 0.0
	for _, e := range expenses {
		total += e.Amount
	}
	return domain.Round2(total), nil
}

func (c *ERPClient) ActiveStaff(ctx context.Context) ([]domain.StaffMember, error) {
	var staff []domain.StaffMember
	if err := c.get(ctx, "/api/staff", url.Values{"active": {"1"}}, &staff); err != nil {
		return nil, err
	}
	return staff, nil
}

func (c *ERPClient) PushClosingStock(ctx context.Context, stock domain.Inventory) error {
	payload := make(map[string]float64, len(stock))
	for id, qty := range stock {
		payload[strconv.Itoa(id)] = qty
	}
	return c.post(ctx, "/api/inventory/sync", map[string]any{"closing_stock": payload})
}

func (c *ERPClient) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *ERPClient) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(string(data)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *ERPClient) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("erp returned status %d for %s", resp.StatusCode, req.URL.Path)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func windowQuery(from, to time.Time) url.Values {
	return url.Values{
		"from": {from.UTC().Format(time.RFC3339)},
		"to":   {to.UTC().Format(time.RFC3339)},
	}
}
