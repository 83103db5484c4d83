package httpapi

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
)

func sampleSettlement() domain.Settlement {
	end := time.Date(2026, 8, 29, 23, 0, 0, 0, time.UTC)
	return domain.Settlement{
		ID:          "stl-20260829",
		Status:      domain.SettlementStatusCompleted,
		PeriodStart: end.Add(-24 * time.Hour),
		PeriodEnd:   end,
		Revenue:     domain.Revenue{Total: 18250},
		COGSActual:  6120.5,
		Discrepancy: map[int]domain.DiscrepancyEntry{
			1097: {Qty: 0.25, Unit: "kg", Value: 11},
			1095: {Qty: -0.5, Unit: "L", Value: -40},
		},
		EditTrail: []domain.Amendment{{Actor: "arif"}},
	}
}

func TestHistoryRowMatchesColumns(t *testing.T) {
	row := historyRow(sampleSettlement())
	if len(row) != len(historyColumns) {
		t.Fatalf("row has %d cells, columns %d", len(row), len(historyColumns))
	}
	if row[0] != "2026-08-29" {
		t.Fatalf("expected date cell 2026-08-29, got %q", row[0])
	}
	if row[2] != "18250.00" {
		t.Fatalf("expected revenue cell 18250.00, got %q", row[2])
	}
	if row[len(row)-1] != "1" {
		t.Fatalf("expected amendment count 1, got %q", row[len(row)-1])
	}
}

func TestBuildHistoryXLSX(t *testing.T) {
	payload, err := buildHistoryXLSX([]domain.Settlement{sampleSettlement()})
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}
	// xlsx is a zip container.
	if len(payload) < 4 || payload[0] != 'P' || payload[1] != 'K' {
		t.Fatalf("expected zip payload, got %d bytes", len(payload))
	}
}

func TestBuildSettlementPDFSortsDiscrepancyRows(t *testing.T) {
	api := newTestAPI(t)

	payload, err := api.buildSettlementPDF(sampleSettlement())
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if !bytes.HasPrefix(payload, []byte("%PDF")) {
		t.Fatalf("expected pdf payload, got %d bytes", len(payload))
	}

	ids := sortedDiscrepancyIDs(sampleSettlement().Discrepancy)
	if len(ids) != 2 || ids[0] != 1095 || ids[1] != 1097 {
		t.Fatalf("expected sorted ids [1095 1097], got %v", ids)
	}
}

func TestHandleHistoryCSVRequiresManager(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	token := loginAs(t, api, "counter", "counter123")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/history.csv", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for counter, got %d", rec.Code)
	}
}

func TestHandleHistoryCSVWritesHeaderRow(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	token := loginAs(t, api, "manager", "manager123")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/history.csv", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "settlement-history.csv") {
		t.Fatalf("expected attachment disposition, got %q", cd)
	}

	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) == 0 || records[0][0] != "date" {
		t.Fatalf("expected header row, got %v", records)
	}
}

func TestHandleSettlementPDFRequiresID(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	token := loginAs(t, api, "manager", "manager123")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/settlement.pdf", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without id, got %d", rec.Code)
	}
}
