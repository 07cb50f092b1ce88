package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by the journal.
const DateLayout = "2006-01-02"

// TradeRecord represents a journaled trade. Records are never edited in
// place; they are appended and deleted by ID.
type TradeRecord struct {
	ID          string               `json:"id"`
	Date        string               `json:"date"`
	Pair        Pair                 `json:"pair"`
	Session     Session              `json:"session"`
	Type        Side                 `json:"type"`
	Setup       Setup                `json:"setup"`
	H4          H4Bias               `json:"h4"`
	M15         M15Zone              `json:"m15"`
	Entry       EntryTrigger         `json:"entry"`
	Result      Result               `json:"result"`
	RiskReward  string               `json:"riskReward"`
	Notes       string               `json:"notes"`
	Screenshots map[Timeframe]string `json:"screenshots,omitempty"`
}

// ParseDate parses a journal date. Plain dates and RFC3339 timestamps are
// accepted; the result is always in UTC.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t.UTC(), nil
}

// Time returns the parsed trade date.
func (t TradeRecord) Time() (time.Time, error) {
	return ParseDate(t.Date)
}

// IsWin reports whether the trade closed in profit.
func (t TradeRecord) IsWin() bool {
	return t.Result == ResultWin
}

// Clone returns a deep copy of the record.
func (t TradeRecord) Clone() TradeRecord {
	c := t
	if t.Screenshots != nil {
		c.Screenshots = make(map[Timeframe]string, len(t.Screenshots))
		for k, v := range t.Screenshots {
			c.Screenshots[k] = v
		}
	}
	return c
}
