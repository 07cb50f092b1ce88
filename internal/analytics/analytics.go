// Package analytics computes win-rate statistics over the trade journal.
//
// Compute is a pure function of the record list: it never reads the clock,
// never returns an error and never yields NaN. Every ratio with a zero
// denominator is reported as 0.
package analytics

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"forex-journal/internal/models"
)

// InvalidDateLabel groups records whose date cannot be parsed.
const InvalidDateLabel = "Invalid Date"

const (
	monthLabelLayout = "Jan 2006"
	weekLabelLayout  = "Jan 2"
)

// Snapshot is the derived statistics view of the journal.
type Snapshot struct {
	TotalTrades   int            `json:"totalTrades"`
	Wins          int            `json:"wins"`
	Losses        int            `json:"losses"`
	WinRate       float64        `json:"winRate"`
	AvgRiskReward float64        `json:"avgRiskReward"`
	SetupStats    []SetupStat    `json:"setupStats"`
	PairStats     []PairStat     `json:"pairStats"`
	SetupDetails  []SetupDetail  `json:"setupDetails"`
	PairDetails   []PairDetail   `json:"pairDetails"`
	Monthly       []PeriodBucket `json:"monthlyChartData"`
	Weekly        []PeriodBucket `json:"weeklyChartData"`
}

// Counts holds the per-group tallies shared by every breakdown.
type Counts struct {
	Total   int     `json:"total"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"winRate"`
}

// SetupStat is the breakdown entry for one setup.
type SetupStat struct {
	Setup models.Setup `json:"setup"`
	Counts
}

// PairStat is the breakdown entry for one pair.
type PairStat struct {
	Pair models.Pair `json:"pair"`
	Counts
}

// SetupDetail extends SetupStat with average R:R and a per-pair breakdown.
type SetupDetail struct {
	Setup models.Setup `json:"setup"`
	Counts
	AvgRiskReward float64    `json:"avgRiskReward"`
	Pairs         []PairStat `json:"pairs"`
}

// PairDetail extends PairStat with average R:R and a per-setup breakdown.
type PairDetail struct {
	Pair models.Pair `json:"pair"`
	Counts
	AvgRiskReward float64     `json:"avgRiskReward"`
	Setups        []SetupStat `json:"setups"`
}

// PeriodBucket tallies outcomes for one calendar month or week.
type PeriodBucket struct {
	Label  string `json:"label"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Total  int    `json:"total"`
}

// Compute derives a fresh snapshot from the full record list.
func Compute(records []models.TradeRecord) Snapshot {
	snap := Snapshot{
		TotalTrades: len(records),
	}
	for _, r := range records {
		switch r.Result {
		case models.ResultWin:
			snap.Wins++
		case models.ResultLoss:
			snap.Losses++
		}
	}
	snap.WinRate = winRate(snap.Wins, snap.TotalTrades)
	snap.AvgRiskReward = averageRiskReward(records)

	snap.SetupStats = setupStats(records)
	snap.PairStats = pairStats(records)
	snap.SetupDetails = setupDetails(records)
	snap.PairDetails = pairDetails(records)
	snap.Monthly = monthlyBuckets(records)
	snap.Weekly = weeklyBuckets(records)

	return snap
}

// Recent returns the last n records, newest first.
func Recent(records []models.TradeRecord, n int) []models.TradeRecord {
	if n <= 0 || len(records) == 0 {
		return []models.TradeRecord{}
	}
	if n > len(records) {
		n = len(records)
	}
	out := make([]models.TradeRecord, 0, n)
	for i := len(records) - 1; i >= len(records)-n; i-- {
		out = append(out, records[i])
	}
	return out
}

func setupStats(records []models.TradeRecord) []SetupStat {
	stats := make([]SetupStat, 0, len(models.AllSetups()))
	for _, setup := range models.AllSetups() {
		subset := filter(records, func(r models.TradeRecord) bool { return r.Setup == setup })
		stats = append(stats, SetupStat{Setup: setup, Counts: count(subset)})
	}
	return stats
}

// pairStats omits pairs that were never traded; setupStats does not.
func pairStats(records []models.TradeRecord) []PairStat {
	stats := make([]PairStat, 0, len(models.AllPairs()))
	for _, pair := range models.AllPairs() {
		subset := filter(records, func(r models.TradeRecord) bool { return r.Pair == pair })
		if len(subset) == 0 {
			continue
		}
		stats = append(stats, PairStat{Pair: pair, Counts: count(subset)})
	}
	return stats
}

func setupDetails(records []models.TradeRecord) []SetupDetail {
	details := make([]SetupDetail, 0, len(models.AllSetups()))
	for _, setup := range models.AllSetups() {
		subset := filter(records, func(r models.TradeRecord) bool { return r.Setup == setup })
		d := SetupDetail{
			Setup:         setup,
			Counts:        count(subset),
			AvgRiskReward: averageRiskReward(subset),
			Pairs:         make([]PairStat, 0, len(models.AllPairs())),
		}
		for _, pair := range models.AllPairs() {
			nested := filter(subset, func(r models.TradeRecord) bool { return r.Pair == pair })
			d.Pairs = append(d.Pairs, PairStat{Pair: pair, Counts: count(nested)})
		}
		details = append(details, d)
	}
	return details
}

func pairDetails(records []models.TradeRecord) []PairDetail {
	details := make([]PairDetail, 0, len(models.AllPairs()))
	for _, pair := range models.AllPairs() {
		subset := filter(records, func(r models.TradeRecord) bool { return r.Pair == pair })
		if len(subset) == 0 {
			continue
		}
		d := PairDetail{
			Pair:          pair,
			Counts:        count(subset),
			AvgRiskReward: averageRiskReward(subset),
			Setups:        make([]SetupStat, 0, len(models.AllSetups())),
		}
		for _, setup := range models.AllSetups() {
			nested := filter(subset, func(r models.TradeRecord) bool { return r.Setup == setup })
			d.Setups = append(d.Setups, SetupStat{Setup: setup, Counts: count(nested)})
		}
		details = append(details, d)
	}
	return details
}

// monthlyBuckets groups by "Jan 2006". Buckets keep the order in which
// their first record appears, not calendar order.
func monthlyBuckets(records []models.TradeRecord) []PeriodBucket {
	return bucketize(records, func(r models.TradeRecord) string {
		t, err := r.Time()
		if err != nil {
			return InvalidDateLabel
		}
		return t.Format(monthLabelLayout)
	})
}

// weeklyBuckets groups by the Sunday that starts each record's week,
// labelled "Jan 2". The label is the key, so the same week label from two
// different years lands in one bucket.
func weeklyBuckets(records []models.TradeRecord) []PeriodBucket {
	return bucketize(records, func(r models.TradeRecord) string {
		t, err := r.Time()
		if err != nil {
			return InvalidDateLabel
		}
		return WeekStart(t).Format(weekLabelLayout)
	})
}

func bucketize(records []models.TradeRecord, label func(models.TradeRecord) string) []PeriodBucket {
	buckets := make([]PeriodBucket, 0)
	index := make(map[string]int)
	for _, r := range records {
		key := label(r)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, PeriodBucket{Label: key})
		}
		switch r.Result {
		case models.ResultWin:
			buckets[i].Wins++
		case models.ResultLoss:
			buckets[i].Losses++
		}
		buckets[i].Total = buckets[i].Wins + buckets[i].Losses
	}
	return buckets
}

// WeekStart returns midnight of the Sunday on or before t.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func filter(records []models.TradeRecord, keep func(models.TradeRecord) bool) []models.TradeRecord {
	var out []models.TradeRecord
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func count(records []models.TradeRecord) Counts {
	c := Counts{Total: len(records)}
	for _, r := range records {
		if r.IsWin() {
			c.Wins++
		}
	}
	c.WinRate = winRate(c.Wins, c.Total)
	return c
}

func winRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return round(float64(wins)/float64(total)*100, 1)
}

// averageRiskReward divides by every record in the list, including those
// whose ratio does not parse.
func averageRiskReward(records []models.TradeRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += ParseRiskReward(r.RiskReward)
	}
	avg := round(sum/float64(len(records)), 2)
	if math.IsNaN(avg) || math.IsInf(avg, 0) {
		return 0
	}
	return avg
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseRiskReward reads the leading decimal number of a free-text ratio:
// "2.5" and "2.5R" give 2.5, "1:3" gives 1. Anything else gives 0,
// including "Infinity" and values that overflow a float64, so one bad entry
// cannot turn every average into Inf or NaN.
func ParseRiskReward(s string) float64 {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
