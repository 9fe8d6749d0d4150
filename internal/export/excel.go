package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/cgulucan/bilanco/internal/domain"
	"github.com/cgulucan/bilanco/internal/history"
	"github.com/cgulucan/bilanco/internal/valuation"
)

const (
	sheetAssets  = "Varlıklar"
	sheetDebts   = "Borçlar"
	sheetSummary = "Özet"
	sheetHistory = "Geçmiş"
)

// Statement is one user's evaluated balance sheet, ready for export.
type Statement struct {
	Username string
	Date     string
	Assets   []domain.ValuedAssetRow
	Debts    []domain.DebtRow
	Totals   valuation.Totals
	PnL      history.Report
	History  []history.WindowEntry
}

// BuildWorkbook renders the statement as an xlsx workbook with one sheet
// per section. The caller owns the returned file and must Close it.
func BuildWorkbook(st Statement) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetAssets); err != nil {
		return nil, fmt.Errorf("renaming default sheet: %w", err)
	}
	for _, name := range []string{sheetDebts, sheetSummary, sheetHistory} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	if err := writeRows(f, sheetAssets, buildAssetRows(st.Assets)); err != nil {
		return nil, err
	}
	if err := writeRows(f, sheetDebts, buildDebtRows(st.Debts)); err != nil {
		return nil, err
	}
	if err := writeRows(f, sheetSummary, buildSummaryRows(st)); err != nil {
		return nil, err
	}
	if err := writeRows(f, sheetHistory, buildHistoryRows(st.History)); err != nil {
		return nil, err
	}

	if idx, err := f.GetSheetIndex(sheetSummary); err == nil {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

// WriteWorkbook builds the workbook and streams it to w.
func WriteWorkbook(w io.Writer, st Statement) error {
	f, err := BuildWorkbook(st)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// buildAssetRows builds the asset sheet data.
// Columns: Tür | Kod | Adet | Birim Fiyat | Tutar | Not
func buildAssetRows(assets []domain.ValuedAssetRow) [][]any {
	data := make([][]any, 0, len(assets)+1)
	data = append(data, []any{"Tür", "Kod", "Adet", "Birim Fiyat", "Tutar", "Not"})
	for _, row := range assets {
		var unit any
		if row.UnitPrice != nil {
			unit = *row.UnitPrice
		}
		data = append(data, []any{row.Type, row.Code, row.Quantity, unit, row.Amount, row.Note})
	}
	return data
}

// buildDebtRows builds the debt sheet data.
// Columns: Ad | Tutar | Not
func buildDebtRows(debts []domain.DebtRow) [][]any {
	data := make([][]any, 0, len(debts)+1)
	data = append(data, []any{"Ad", "Tutar", "Not"})
	for _, row := range debts {
		data = append(data, []any{row.Name, row.Amount, row.Note})
	}
	return data
}

// buildSummaryRows builds the summary sheet: totals plus the baseline P&L
// when a baseline snapshot exists.
func buildSummaryRows(st Statement) [][]any {
	data := [][]any{
		{"Kullanıcı", st.Username},
		{"Tarih", st.Date},
		{"Toplam Varlık", st.Totals.Assets},
		{"Toplam Borç", st.Totals.Debts},
		{"Net", st.Totals.Net},
	}
	if st.PnL.HasBaseline {
		data = append(data,
			[]any{"Referans Tarihi", st.PnL.BaselineDate},
			[]any{"Referans Net", st.PnL.BaselineNet},
		)
		if st.PnL.HasSelected {
			data = append(data, []any{"Fark", st.PnL.Delta})
		}
	}
	return data
}

// buildHistoryRows builds the trailing net-worth sheet.
// Columns: Tarih | Net | Fark
func buildHistoryRows(entries []history.WindowEntry) [][]any {
	data := make([][]any, 0, len(entries)+1)
	data = append(data, []any{"Tarih", "Net", "Fark"})
	for _, e := range entries {
		data = append(data, []any{e.Date, e.Net, e.Delta})
	}
	return data
}

// writeRows writes the row matrix starting at A1.
func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("addressing row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
