// Package export writes the journal to CSV or Excel and reads it back.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	apperrors "forex-journal/internal/errors"
	"forex-journal/internal/journal"
	"forex-journal/internal/models"
)

// Format is a supported file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Columns is the column order shared by CSV and the Trades sheet.
// Screenshots are not exported.
var Columns = []string{
	"id", "date", "pair", "session", "type", "setup",
	"h4", "m15", "entry", "result", "riskReward", "notes",
}

// ParseFormat parses a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q (use csv or xlsx)", apperrors.ErrUnsupported, s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", apperrors.ErrUnsupported, path)
	}
	return ParseFormat(ext)
}

func recordValues(r models.TradeRecord) []string {
	return []string{
		r.ID, r.Date, string(r.Pair), string(r.Session), string(r.Type), string(r.Setup),
		string(r.H4), string(r.M15), string(r.Entry), string(r.Result), r.RiskReward, r.Notes,
	}
}

// formFromValues maps a header row and a data row onto a TradeForm.
func formFromValues(header, row []string) journal.TradeForm {
	get := func(name string) string {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) && i < len(row) {
				return row[i]
			}
		}
		return ""
	}
	return journal.TradeForm{
		ID:         get("id"),
		Date:       get("date"),
		Pair:       get("pair"),
		Session:    get("session"),
		Type:       get("type"),
		Setup:      get("setup"),
		H4:         get("h4"),
		M15:        get("m15"),
		Entry:      get("entry"),
		Result:     get("result"),
		RiskReward: get("riskReward"),
		Notes:      get("notes"),
	}
}
