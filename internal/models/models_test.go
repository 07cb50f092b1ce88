package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "forex-journal/internal/errors"
)

func TestParsePair(t *testing.T) {
	tests := []struct {
		in      string
		want    Pair
		wantErr bool
	}{
		{"EUR/USD", PairEURUSD, false},
		{"eurusd", PairEURUSD, false},
		{" usd/cad ", PairUSDCAD, false},
		{"EUR/GBP", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePair(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrInputValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFoldedEnums(t *testing.T) {
	setup, err := ParseSetup("pt-pof")
	require.NoError(t, err)
	assert.Equal(t, SetupPTPOF, setup)

	session, err := ParseSession("new york")
	require.NoError(t, err)
	assert.Equal(t, SessionNewYork, session)

	zone, err := ParseM15Zone("Overall POI")
	require.NoError(t, err)
	assert.Equal(t, M15OverallPOI, zone)

	_, err = ParseResult("breakeven")
	assert.ErrorIs(t, err, apperrors.ErrInputValidation)

	_, err = ParseSide("buy")
	assert.Error(t, err)
}

func TestTradeRecordJSONRejectsUnknownEnum(t *testing.T) {
	var rec TradeRecord
	err := json.Unmarshal([]byte(`{"id":"1","date":"2024-01-02","pair":"EUR/GBP","result":"win"}`), &rec)
	require.Error(t, err)

	err = json.Unmarshal([]byte(`{"id":"1","date":"2024-01-02","pair":"EUR/USD","setup":"","result":"win"}`), &rec)
	require.NoError(t, err)
	assert.Equal(t, PairEURUSD, rec.Pair)
	assert.Equal(t, Setup(""), rec.Setup)
}

func TestTradeRecordJSONShape(t *testing.T) {
	rec := TradeRecord{
		ID:          "1700000000000",
		Date:        "2024-01-02",
		Pair:        PairGBPUSD,
		Type:        SideShort,
		Setup:       SetupCTCOF,
		Result:      ResultLoss,
		RiskReward:  "1.5",
		Screenshots: map[Timeframe]string{TimeframeH4: "data:image/png;base64,AAAA"},
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"riskReward":"1.5"`)
	assert.Contains(t, string(data), `"screenshots":{"h4":"data:image/png;base64,AAAA"}`)

	var back TradeRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec, back)

	_, err = json.Marshal(TradeRecord{})
	require.NoError(t, err)
	err = json.Unmarshal([]byte(`{"screenshots":{"w1":"x"}}`), &back)
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2024-03-09T23:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 9, 21, 30, 0, 0, time.UTC), d)

	_, err = ParseDate("09/03/2024")
	assert.Error(t, err)
}

func TestCloneCopiesScreenshots(t *testing.T) {
	rec := TradeRecord{ID: "a", Screenshots: map[Timeframe]string{TimeframeM1: "x"}}
	c := rec.Clone()
	c.Screenshots[TimeframeM1] = "y"
	assert.Equal(t, "x", rec.Screenshots[TimeframeM1])
}
