package cli

import (
	"math"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// FormatRate keeps exactly one decimal place and parses back to within
// rounding of the input.
func TestFormatRateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatRate round-trips within 0.05", prop.ForAll(
		func(pct float64) bool {
			formatted := FormatRate(pct)
			if !strings.HasSuffix(formatted, "%") {
				return false
			}
			num := strings.TrimSuffix(formatted, "%")
			parts := strings.Split(num, ".")
			if len(parts) != 2 || len(parts[1]) != 1 {
				t.Logf("expected one decimal for %f, got %s", pct, formatted)
				return false
			}
			parsed, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return false
			}
			return math.Abs(parsed-pct) <= 0.05+1e-9
		},
		gen.Float64Range(0, 100),
	))

	properties.TestingRun(t)
}

func TestTruncateStringProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("TruncateString never exceeds maxLen", prop.ForAll(
		func(s string, maxLen int) bool {
			out := TruncateString(s, maxLen)
			return utf8.RuneCountInString(out) <= maxLen && !strings.Contains(out, "\n")
		},
		gen.AnyString(),
		gen.IntRange(1, 40),
	))

	properties.Property("short strings are kept", prop.ForAll(
		func(s string) bool {
			flat := strings.Join(strings.Fields(s), " ")
			return TruncateString(s, utf8.RuneCountInString(flat)+1) == flat
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{FormatRate(50), "50.0%"},
		{FormatRate(33.3), "33.3%"},
		{FormatRR(1), "1.00R"},
		{FormatCount(3, 5), "3/5"},
		{ShortID("0f8fad5b-d9cb-469f-a165-70867728950e"), "0f8fad5b"},
		{ShortID("abc"), "abc"},
		{OrDash(""), "-"},
		{FormatBytes(512), "512 B"},
		{FormatBytes(2048), "2.0 KB"},
		{FormatBytes(3 << 20), "3.0 MB"},
		{TruncateString("line one\nline two", 12), "line one ..."},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
