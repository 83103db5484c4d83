package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

type Material struct {
	ID           int     `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	Unit         string  `json:"unit" yaml:"unit"`
	FallbackCost float64 `json:"fallback_cost" yaml:"fallback_cost"`
}

type MaterialCost struct {
	MaterialID    int       `json:"material_id"`
	CostPerUnit   float64   `json:"cost_per_unit"`
	EffectiveFrom time.Time `json:"effective_from"`
}

type Vessel struct {
	Code       string  `json:"code" yaml:"code"`
	TareKg     float64 `json:"tare_kg" yaml:"tare_kg"`
	LiquidType string  `json:"liquid_type" yaml:"liquid_type"`
	Location   string  `json:"location" yaml:"location"`
}

type VesselUpsertRequest struct {
	Code       string  `json:"code"`
	TareKg     float64 `json:"tare_kg"`
	LiquidType string  `json:"liquid_type"`
	Location   string  `json:"location"`
}

// WeighEntry is one gross weighing of a registered vessel or container.
type WeighEntry struct {
	Code     string  `json:"vessel_code"`
	WeightKg float64 `json:"weight_kg"`
}

// FieldValue is one submitted physical count. A field is either a plain
// number or an array of weigh entries, never both in the same field.
type FieldValue struct {
	Number  float64
	Entries []WeighEntry
	IsArray bool
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		var entries []WeighEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return err
		}
		v.Entries = entries
		v.IsArray = true
		return nil
	}
	v.IsArray = false
	return json.Unmarshal(data, &v.Number)
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	if v.IsArray {
		return json.Marshal(v.Entries)
	}
	return json.Marshal(v.Number)
}

// PhysicalInput is the raw physical count submitted once per settlement,
// keyed by field name.
type PhysicalInput map[string]FieldValue

// Inventory maps material id to a quantity in that material's unit.
type Inventory map[int]float64

type PurchaseLine struct {
	Qty  float64 `json:"qty"`
	Cost float64 `json:"cost"`
}

type DiscrepancyEntry struct {
	Qty   float64 `json:"qty"`
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
}

type WastageItem struct {
	Item       string  `json:"item,omitempty"`
	State      string  `json:"state,omitempty"`
	Qty        float64 `json:"qty"`
	MaterialID int     `json:"material_id,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

type GapAdjustment struct {
	Field               string    `json:"field"`
	GapSeconds          int64     `json:"gap_seconds"`
	CountedAt           time.Time `json:"counted_at"`
	ProductsSold        Inventory `json:"products_sold"`
	MaterialsSubtracted Inventory `json:"materials_subtracted"`
}

type ChannelRevenue struct {
	Orders int     `json:"orders"`
	Amount float64 `json:"amount"`
}

type Revenue struct {
	Total               float64                   `json:"total"`
	Channels            map[string]ChannelRevenue `json:"channels"`
	ComplimentaryOrders int                       `json:"complimentary_orders"`
	ComplimentaryAmount float64                   `json:"complimentary_amount"`
}

type Correction struct {
	Type       string  `json:"type"`
	MaterialID int     `json:"material_id"`
	OldValue   float64 `json:"old_value"`
	NewValue   float64 `json:"new_value"`
	Reason     string  `json:"reason,omitempty"`
}

type Amendment struct {
	Timestamp      time.Time          `json:"timestamp"`
	Actor          string             `json:"actor"`
	Corrections    []Correction       `json:"corrections"`
	PreviousValues map[string]float64 `json:"previous_values"`
}

type Settlement struct {
	ID                  string                   `json:"id"`
	Status              string                   `json:"status"`
	PreviousID          string                   `json:"previous_id,omitempty"`
	PeriodStart         time.Time                `json:"period_start"`
	PeriodEnd           time.Time                `json:"period_end"`
	OpeningStock        Inventory                `json:"opening_stock"`
	Purchases           map[int]PurchaseLine     `json:"purchases"`
	ClosingStock        Inventory                `json:"closing_stock"`
	Consumption         Inventory                `json:"consumption"`
	ExpectedConsumption Inventory                `json:"expected_consumption"`
	Discrepancy         map[int]DiscrepancyEntry `json:"discrepancy"`
	WastageItems        []WastageItem            `json:"wastage_items,omitempty"`
	GapAdjustments      []GapAdjustment          `json:"gap_adjustments,omitempty"`
	Revenue             Revenue                  `json:"revenue"`
	COGSActual          float64                  `json:"cogs_actual"`
	COGSExpected        float64                  `json:"cogs_expected"`
	WastageValue        float64                  `json:"wastage_value"`
	DiscrepancyValue    float64                  `json:"discrepancy_value"`
	Opex                float64                  `json:"opex"`
	GrossProfit         float64                  `json:"gross_profit"`
	NetProfit           float64                  `json:"net_profit"`
	AdjustedNetProfit   float64                  `json:"adjusted_net_profit"`
	RunnerTokenCounts   map[string]float64       `json:"runner_token_counts,omitempty"`
	Warnings            []string                 `json:"warnings,omitempty"`
	EditTrail           []Amendment              `json:"edit_trail,omitempty"`
	CreatedAt           time.Time                `json:"created_at"`
}

// TokenTotal sums unsold runner tokens recorded alongside a settlement.
func (s Settlement) TokenTotal() float64 {
	var total float64
	for _, n := range s.RunnerTokenCounts {
		total += n
	}
	return total
}

type SubmitRequest struct {
	RawInput        PhysicalInput        `json:"raw_input"`
	WastageItems    []WastageItem        `json:"wastage_items,omitempty"`
	RunnerTokens    map[string]float64   `json:"runner_tokens,omitempty"`
	FieldTimestamps map[string]time.Time `json:"field_timestamps,omitempty"`
	Bootstrap       bool                 `json:"bootstrap"`
	Notes           string               `json:"notes,omitempty"`
}

type SubmitResponse struct {
	Settlement Settlement `json:"settlement"`
	Warnings   []string   `json:"warnings,omitempty"`
	SyncError  string     `json:"sync_error,omitempty"`
}

type PrepareResponse struct {
	PeriodStart  time.Time            `json:"period_start"`
	PeriodEnd    time.Time            `json:"period_end"`
	PreviousID   string               `json:"previous_id,omitempty"`
	OpeningStock Inventory            `json:"opening_stock"`
	Purchases    map[int]PurchaseLine `json:"purchases"`
	Revenue      Revenue              `json:"revenue"`
	ProductSales map[int]ProductSale  `json:"product_sales"`
	Expenses     float64              `json:"expenses"`
	Vessels      []Vessel             `json:"vessels"`
	Bootstrap    bool                 `json:"bootstrap"`
}

type ProductSale struct {
	Qty    float64 `json:"qty"`
	Amount float64 `json:"amount"`
}

type AmendRequest struct {
	SettlementID string       `json:"settlement_id"`
	Corrections  []Correction `json:"corrections"`
	ManagerPIN   string       `json:"manager_pin"`
}

type AmendResponse struct {
	Settlement Settlement `json:"settlement"`
}

type StaffMember struct {
	Name          string  `json:"name"`
	Role          string  `json:"role"`
	MonthlySalary float64 `json:"monthly_salary"`
	Active        bool    `json:"active"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type AccountCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type Account struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

// Round4 rounds a quantity to 4 decimal places. All inventory quantities
// stored or compared in the ledger are rounded through this.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Round2 rounds a currency amount to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func MaterialKey(id int) string {
	return fmt.Sprintf("material_%d", id)
}

const (
	SettlementStatusBootstrap = "bootstrap"
	SettlementStatusCompleted = "completed"
)

const (
	CorrectionTypePurchase = "purchase"
	CorrectionTypeClosing  = "closing"
)

const (
	ChannelCashCounter   = "cash_counter"
	ChannelRunnerCounter = "runner_counter"
	ChannelDelivery      = "delivery"
)

const (
	RoleManager = "manager"
	RoleCounter = "counter"
)
