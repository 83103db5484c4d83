package httpapi

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
	"github.com/abdulnihaf/nawabi-chai-house/internal/reconcile"
)

var historyColumns = []string{
	"date", "status", "revenue", "cogs_actual", "cogs_expected",
	"wastage_value", "discrepancy_value", "opex",
	"gross_profit", "net_profit", "adjusted_net_profit", "amendments",
}

func historyRow(s domain.Settlement) []string {
	return []string{
		domain.DateKey(s.PeriodEnd),
		s.Status,
		formatMoney(s.Revenue.Total),
		formatMoney(s.COGSActual),
		formatMoney(s.COGSExpected),
		formatMoney(s.WastageValue),
		formatMoney(s.DiscrepancyValue),
		formatMoney(s.Opex),
		formatMoney(s.GrossProfit),
		formatMoney(s.NetProfit),
		formatMoney(s.AdjustedNetProfit),
		strconv.Itoa(len(s.EditTrail)),
	}
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func (a *API) handleHistoryCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 30, 365)
	settlements, err := a.service.ListHistory(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	_ = writer.Write(historyColumns)
	for _, s := range settlements {
		_ = writer.Write(historyRow(s))
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="settlement-history.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (a *API) handleHistoryXLSX(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 30, 365)
	settlements, err := a.service.ListHistory(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payload, err := buildHistoryXLSX(settlements)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="settlement-history.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func buildHistoryXLSX(settlements []domain.Settlement) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "history"
	f.SetSheetName("Sheet1", sheet)

	for col, header := range historyColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheet, cell, header)
	}
	for i, s := range settlements {
		for col, value := range historyRow(s) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *API) handleSettlementPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("id query parameter is required"))
		return
	}

	settlement, err := a.service.GetSettlement(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payload, err := a.buildSettlementPDF(settlement)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="settlement-%s.pdf"`, domain.DateKey(settlement.PeriodEnd)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// buildSettlementPDF renders a one-page P&L summary with a discrepancy table.
func (a *API) buildSettlementPDF(s domain.Settlement) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Nawabi Chai House - Daily Settlement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Settlement: %s", s.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s", s.PeriodStart.Format(time.RFC3339), s.PeriodEnd.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", s.Status))
	pdf.Ln(5)
	if len(s.EditTrail) > 0 {
		pdf.Cell(0, 6, fmt.Sprintf("Amendments: %d (last by %s)", len(s.EditTrail), s.EditTrail[len(s.EditTrail)-1].Actor))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Revenue: %.2f", s.Revenue.Total))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("COGS (actual): %.2f", s.COGSActual))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("COGS (expected): %.2f", s.COGSExpected))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Wastage: %.2f", s.WastageValue))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Discrepancy: %.2f", s.DiscrepancyValue))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Operating expenses: %.2f", s.Opex))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Gross profit: %.2f", s.GrossProfit))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Net profit: %.2f", s.NetProfit))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Adjusted net profit: %.2f", s.AdjustedNetProfit))
	pdf.Ln(8)

	if len(s.Discrepancy) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(70, 6, "Material", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Qty", "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, "Unit", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Value", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, id := range sortedDiscrepancyIDs(s.Discrepancy) {
			entry := s.Discrepancy[id]
			pdf.CellFormat(70, 6, a.service.Material(id).Name, "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, fmt.Sprintf("%.4f", entry.Qty), "1", 0, "R", false, 0, "")
			pdf.CellFormat(20, 6, entry.Unit, "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", entry.Value), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sortedDiscrepancyIDs(entries map[int]domain.DiscrepancyEntry) []int {
	ids := reconcile.Keys(entries)
	sort.Ints(ids)
	return ids
}
