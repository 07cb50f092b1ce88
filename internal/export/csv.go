package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"forex-journal/internal/journal"
	"forex-journal/internal/models"
)

type csvRow struct {
	ID         string `csv:"id"`
	Date       string `csv:"date"`
	Pair       string `csv:"pair"`
	Session    string `csv:"session"`
	Type       string `csv:"type"`
	Setup      string `csv:"setup"`
	H4         string `csv:"h4"`
	M15        string `csv:"m15"`
	Entry      string `csv:"entry"`
	Result     string `csv:"result"`
	RiskReward string `csv:"riskReward"`
	Notes      string `csv:"notes"`
}

func toCSVRow(r models.TradeRecord) csvRow {
	return csvRow{
		ID:         r.ID,
		Date:       r.Date,
		Pair:       string(r.Pair),
		Session:    string(r.Session),
		Type:       string(r.Type),
		Setup:      string(r.Setup),
		H4:         string(r.H4),
		M15:        string(r.M15),
		Entry:      string(r.Entry),
		Result:     string(r.Result),
		RiskReward: r.RiskReward,
		Notes:      r.Notes,
	}
}

func (c csvRow) form() journal.TradeForm {
	return journal.TradeForm{
		ID:         c.ID,
		Date:       c.Date,
		Pair:       c.Pair,
		Session:    c.Session,
		Type:       c.Type,
		Setup:      c.Setup,
		H4:         c.H4,
		M15:        c.M15,
		Entry:      c.Entry,
		Result:     c.Result,
		RiskReward: c.RiskReward,
		Notes:      c.Notes,
	}
}

// WriteCSV writes records as CSV with a header row.
func WriteCSV(w io.Writer, records []models.TradeRecord) error {
	rows := make([]*csvRow, 0, len(records))
	for _, r := range records {
		row := toCSVRow(r)
		rows = append(rows, &row)
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// ReadCSV reads trade forms from CSV produced by WriteCSV or edited by hand.
// Columns are matched by header name; unknown columns are ignored.
func ReadCSV(r io.Reader) ([]journal.TradeForm, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []journal.TradeForm{}, nil
	}

	var rows []*csvRow
	if err := gocsv.Unmarshal(bytes.NewReader(data), &rows); err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	forms := make([]journal.TradeForm, 0, len(rows))
	for _, row := range rows {
		forms = append(forms, row.form())
	}
	return forms, nil
}
