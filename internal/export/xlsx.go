package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"forex-journal/internal/analytics"
	"forex-journal/internal/journal"
	"forex-journal/internal/models"
)

const (
	TradesSheet    = "Trades"
	AnalyticsSheet = "Analytics"
)

// WriteXLSX writes a workbook with the trade list on one sheet and the
// analytics tables on another.
func WriteXLSX(w io.Writer, records []models.TradeRecord, snap analytics.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), TradesSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(AnalyticsSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	sw := &sheetWriter{f: f, sheet: TradesSheet, bold: bold}
	sw.header(toInterfaces(Columns)...)
	for _, r := range records {
		sw.row(toInterfaces(recordValues(r))...)
	}
	_ = f.SetColWidth(TradesSheet, "L", "L", 60)

	writeAnalytics(&sheetWriter{f: f, sheet: AnalyticsSheet, bold: bold}, snap)
	_ = f.SetColWidth(AnalyticsSheet, "A", "A", 18)

	if sw.err != nil {
		return sw.err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeAnalytics(sw *sheetWriter, snap analytics.Snapshot) {
	sw.header("Summary")
	sw.row("Total Trades", snap.TotalTrades)
	sw.row("Wins", snap.Wins)
	sw.row("Losses", snap.Losses)
	sw.row("Win Rate %", snap.WinRate)
	sw.row("Avg R:R", snap.AvgRiskReward)
	sw.blank()

	sw.header("Setup", "Total", "Wins", "Win Rate %", "Avg R:R")
	for _, d := range snap.SetupDetails {
		sw.row(string(d.Setup), d.Total, d.Wins, d.WinRate, d.AvgRiskReward)
	}
	sw.blank()

	sw.header("Pair", "Total", "Wins", "Win Rate %", "Avg R:R")
	for _, d := range snap.PairDetails {
		sw.row(string(d.Pair), d.Total, d.Wins, d.WinRate, d.AvgRiskReward)
	}
	sw.blank()

	sw.header("Month", "Wins", "Losses", "Total")
	for _, b := range snap.Monthly {
		sw.row(b.Label, b.Wins, b.Losses, b.Total)
	}
	sw.blank()

	sw.header("Week", "Wins", "Losses", "Total")
	for _, b := range snap.Weekly {
		sw.row(b.Label, b.Wins, b.Losses, b.Total)
	}
}

// sheetWriter appends rows to a sheet and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	bold  int
	next  int
	err   error
}

func (s *sheetWriter) row(values ...interface{}) {
	s.next++
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, s.next)
	if err != nil {
		s.err = err
		return
	}
	if err := s.f.SetSheetRow(s.sheet, cell, &values); err != nil {
		s.err = fmt.Errorf("failed to write %s row %d: %w", s.sheet, s.next, err)
	}
}

func (s *sheetWriter) header(values ...interface{}) {
	s.row(values...)
	if s.err != nil {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, s.next)
	last, _ := excelize.CoordinatesToCellName(len(values), s.next)
	if err := s.f.SetCellStyle(s.sheet, first, last, s.bold); err != nil {
		s.err = err
	}
}

func (s *sheetWriter) blank() {
	s.next++
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// ReadXLSX reads trade forms from the Trades sheet of a workbook written by
// WriteXLSX. The first row is the header.
func ReadXLSX(r io.Reader) ([]journal.TradeForm, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(TradesSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s sheet: %w", TradesSheet, err)
	}

	forms := make([]journal.TradeForm, 0, len(rows))
	if len(rows) == 0 {
		return forms, nil
	}
	header := rows[0]
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		forms = append(forms, formFromValues(header, row))
	}
	return forms, nil
}
