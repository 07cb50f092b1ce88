// Package models provides domain models for the trading journal.
package models

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "forex-journal/internal/errors"
)

// Pair represents a traded currency pair.
type Pair string

const (
	PairEURUSD Pair = "EUR/USD"
	PairGBPUSD Pair = "GBP/USD"
	PairUSDJPY Pair = "USD/JPY"
	PairUSDCHF Pair = "USD/CHF"
	PairAUDUSD Pair = "AUD/USD"
	PairNZDUSD Pair = "NZD/USD"
	PairUSDCAD Pair = "USD/CAD"
)

// AllPairs returns every pair in display order.
func AllPairs() []Pair {
	return []Pair{PairEURUSD, PairGBPUSD, PairUSDJPY, PairUSDCHF, PairAUDUSD, PairNZDUSD, PairUSDCAD}
}

// Session represents the market session a trade was taken in.
type Session string

const (
	SessionLondon  Session = "London"
	SessionNewYork Session = "New York"
	SessionTokyo   Session = "Tokyo"
	SessionSydney  Session = "Sydney"
)

// AllSessions returns every session in display order.
func AllSessions() []Session {
	return []Session{SessionLondon, SessionNewYork, SessionTokyo, SessionSydney}
}

// Side represents the direction of a trade.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// AllSides returns both trade directions.
func AllSides() []Side {
	return []Side{SideLong, SideShort}
}

// Setup represents the strategy tag of a trade.
// PT/CT is pro-trend or counter-trend, POF/COF the order-flow flavour.
type Setup string

const (
	SetupPTPOF Setup = "PT-POF"
	SetupPTCOF Setup = "PT-COF"
	SetupCTPOF Setup = "CT-POF"
	SetupCTCOF Setup = "CT-COF"
)

// AllSetups returns every setup in display order.
func AllSetups() []Setup {
	return []Setup{SetupPTPOF, SetupPTCOF, SetupCTPOF, SetupCTCOF}
}

// H4Bias represents the 4-hour timeframe context.
type H4Bias string

const (
	H4Pro     H4Bias = "pro"
	H4Counter H4Bias = "counter"
)

// AllH4Biases returns every 4-hour context tag.
func AllH4Biases() []H4Bias {
	return []H4Bias{H4Pro, H4Counter}
}

// M15Zone represents the 15-minute point of interest.
type M15Zone string

const (
	M15ExtremeRefined M15Zone = "extreme refined"
	M15FlipRefined    M15Zone = "flip refined"
	M15OverallPOI     M15Zone = "overall POI"
)

// AllM15Zones returns every 15-minute zone tag.
func AllM15Zones() []M15Zone {
	return []M15Zone{M15ExtremeRefined, M15FlipRefined, M15OverallPOI}
}

// EntryTrigger represents the lower-timeframe entry model.
type EntryTrigger string

const (
	Entry1mOFRA        EntryTrigger = "1m ofra"
	EntryFirstTapSweep EntryTrigger = "1st tap sweep"
	EntryFirstTap      EntryTrigger = "1st tap"
)

// AllEntryTriggers returns every entry tag.
func AllEntryTriggers() []EntryTrigger {
	return []EntryTrigger{Entry1mOFRA, EntryFirstTapSweep, EntryFirstTap}
}

// Result represents the outcome of a trade.
type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
)

// AllResults returns both outcomes.
func AllResults() []Result {
	return []Result{ResultWin, ResultLoss}
}

// Timeframe keys a screenshot.
type Timeframe string

const (
	TimeframeDaily Timeframe = "daily"
	TimeframeH4    Timeframe = "h4"
	TimeframeM15   Timeframe = "m15"
	TimeframeM1    Timeframe = "m1"
)

// AllTimeframes returns every screenshot timeframe.
func AllTimeframes() []Timeframe {
	return []Timeframe{TimeframeDaily, TimeframeH4, TimeframeM15, TimeframeM1}
}

func (p Pair) IsValid() bool         { return contains(AllPairs(), p) }
func (s Session) IsValid() bool      { return contains(AllSessions(), s) }
func (s Side) IsValid() bool         { return contains(AllSides(), s) }
func (s Setup) IsValid() bool        { return contains(AllSetups(), s) }
func (h H4Bias) IsValid() bool       { return contains(AllH4Biases(), h) }
func (m M15Zone) IsValid() bool      { return contains(AllM15Zones(), m) }
func (e EntryTrigger) IsValid() bool { return contains(AllEntryTriggers(), e) }
func (r Result) IsValid() bool       { return contains(AllResults(), r) }
func (t Timeframe) IsValid() bool    { return contains(AllTimeframes(), t) }

// ParsePair parses a currency pair. "eurusd" and "EUR/USD" are both accepted.
func ParsePair(s string) (Pair, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 6 && !strings.Contains(s, "/") {
		s = s[:3] + "/" + s[3:]
	}
	return parseEnum("pair", s, AllPairs())
}

// ParseSession parses a session name, ignoring case.
func ParseSession(s string) (Session, error) { return parseFold("session", s, AllSessions()) }

// ParseSide parses a trade direction, ignoring case.
func ParseSide(s string) (Side, error) { return parseFold("type", s, AllSides()) }

// ParseSetup parses a setup tag, ignoring case.
func ParseSetup(s string) (Setup, error) { return parseFold("setup", s, AllSetups()) }

// ParseH4Bias parses a 4-hour context tag, ignoring case.
func ParseH4Bias(s string) (H4Bias, error) { return parseFold("h4", s, AllH4Biases()) }

// ParseM15Zone parses a 15-minute zone tag, ignoring case.
func ParseM15Zone(s string) (M15Zone, error) { return parseFold("m15", s, AllM15Zones()) }

// ParseEntryTrigger parses an entry tag, ignoring case.
func ParseEntryTrigger(s string) (EntryTrigger, error) {
	return parseFold("entry", s, AllEntryTriggers())
}

// ParseResult parses a trade outcome, ignoring case.
func ParseResult(s string) (Result, error) { return parseFold("result", s, AllResults()) }

// ParseTimeframe parses a screenshot timeframe, ignoring case.
func ParseTimeframe(s string) (Timeframe, error) { return parseFold("timeframe", s, AllTimeframes()) }

// Optional enums decode "" as unset; any other unknown value is rejected.

func (p *Pair) UnmarshalJSON(b []byte) error         { return unmarshalEnum(b, "pair", p, AllPairs()) }
func (s *Session) UnmarshalJSON(b []byte) error      { return unmarshalEnum(b, "session", s, AllSessions()) }
func (s *Side) UnmarshalJSON(b []byte) error         { return unmarshalEnum(b, "type", s, AllSides()) }
func (s *Setup) UnmarshalJSON(b []byte) error        { return unmarshalEnum(b, "setup", s, AllSetups()) }
func (h *H4Bias) UnmarshalJSON(b []byte) error       { return unmarshalEnum(b, "h4", h, AllH4Biases()) }
func (m *M15Zone) UnmarshalJSON(b []byte) error      { return unmarshalEnum(b, "m15", m, AllM15Zones()) }
func (e *EntryTrigger) UnmarshalJSON(b []byte) error { return unmarshalEnum(b, "entry", e, AllEntryTriggers()) }
func (r *Result) UnmarshalJSON(b []byte) error       { return unmarshalEnum(b, "result", r, AllResults()) }
func (t *Timeframe) UnmarshalText(b []byte) error {
	v, err := parseEnum("timeframe", string(b), AllTimeframes())
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func contains[T ~string](all []T, v T) bool {
	for _, a := range all {
		if a == v {
			return true
		}
	}
	return false
}

func parseEnum[T ~string](field, s string, all []T) (T, error) {
	v := T(s)
	if !contains(all, v) {
		return "", apperrors.NewValidationError(field, s, fmt.Sprintf("must be one of %s", joinValues(all)))
	}
	return v, nil
}

func parseFold[T ~string](field, s string, all []T) (T, error) {
	s = strings.TrimSpace(s)
	for _, a := range all {
		if strings.EqualFold(string(a), s) {
			return a, nil
		}
	}
	return parseEnum(field, s, all)
}

func unmarshalEnum[T ~string](b []byte, field string, dst *T, all []T) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if s == "" {
		*dst = ""
		return nil
	}
	v, err := parseEnum(field, s, all)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func joinValues[T ~string](all []T) string {
	parts := make([]string, len(all))
	for i, a := range all {
		parts[i] = fmt.Sprintf("%q", string(a))
	}
	return strings.Join(parts, ", ")
}
