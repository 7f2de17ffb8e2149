// Package export renders downloadable ledger statements.
package export

import (
	"fmt"

	"github.com/qorinti/ledger_backend/internal/core/domain"
	"github.com/qorinti/ledger_backend/internal/core/ports/gateways"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	SummarySheet      = "Resumen"
	TransactionsSheet = "Movimientos"
)

var transactionHeaders = []string{"Fecha", "ID", "Origen", "Viaje", "Bruto", "Comisión", "Neto", "Referencia", "Notas", "Estado"}

// XLSXExporter writes a two-sheet workbook: a ledger summary and the transaction list.
type XLSXExporter struct{}

var _ gateways.StatementExporter = (*XLSXExporter)(nil)

// NewXLSXExporter returns the exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// ContentType of the workbook.
func (e *XLSXExporter) ContentType() string {
	return xlsxContentType
}

// Export builds the workbook in memory.
func (e *XLSXExporter) Export(ledger domain.AccountLedger, txns []domain.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	index, err := f.NewSheet(TransactionsSheet)
	if err != nil {
		return nil, fmt.Errorf("create transactions sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return nil, fmt.Errorf("create amount style: %w", err)
	}

	summary := [][]any{
		{"Conductor", ledger.DriverID},
		{"Estado", string(ledger.AccountStatus)},
		{"Deuda de comisión", money(ledger.CommissionDebt)},
		{"Saldo disponible", money(ledger.AvailableBalance)},
		{"Saldo retenido", money(ledger.HeldBalance)},
		{"Ingresos acumulados", money(ledger.LifetimeIncomeTotal)},
		{"Comisiones acumuladas", money(ledger.LifetimeCommissionTotal)},
		{"Actualizado", ledger.UpdatedAt.Format("02/01/2006 15:04")},
	}
	for i, row := range summary {
		if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return nil, fmt.Errorf("write summary row: %w", err)
		}
	}
	_ = f.SetCellStyle(SummarySheet, "A1", fmt.Sprintf("A%d", len(summary)), bold)
	_ = f.SetCellStyle(SummarySheet, "B3", "B7", amount)
	_ = f.SetColWidth(SummarySheet, "A", "A", 24)
	_ = f.SetColWidth(SummarySheet, "B", "B", 40)

	for i, header := range transactionHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(TransactionsSheet, cell, header)
	}
	_ = f.SetCellStyle(TransactionsSheet, "A1", "J1", bold)

	for i, t := range txns {
		row := i + 2
		values := []any{
			t.CreatedAt.Format("02/01/2006 15:04"),
			t.TransactionID,
			sourceLabel(t.Source),
			t.Source.TripID,
			money(t.GrossAmount),
			money(t.CommissionAmount),
			money(t.NetAmount),
			t.Reference,
			t.Notes,
			string(t.Status),
		}
		if err := f.SetSheetRow(TransactionsSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return nil, fmt.Errorf("write transaction row: %w", err)
		}
	}
	if len(txns) > 0 {
		_ = f.SetCellStyle(TransactionsSheet, "E2", fmt.Sprintf("G%d", len(txns)+1), amount)
	}
	_ = f.SetColWidth(TransactionsSheet, "A", "J", 18)
	f.SetActiveSheet(index)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func sourceLabel(s domain.TransactionSource) string {
	if s.IsCommissionPayment() {
		return "Pago de comisión"
	}
	return "Viaje"
}

func money(d decimal.Decimal) float64 {
	return domain.RoundMoney(d).InexactFloat64()
}
