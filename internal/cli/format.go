package cli

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// FormatRate formats a percentage with one decimal place.
func FormatRate(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatRR formats an average risk/reward ratio.
func FormatRR(rr float64) string {
	return fmt.Sprintf("%.2fR", rr)
}

// FormatCount formats wins out of total, e.g. "3/5".
func FormatCount(wins, total int) string {
	return fmt.Sprintf("%d/%d", wins, total)
}

// ShortID shortens a UUID for table display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// TruncateString truncates a string to maxLen runes with an ellipsis and
// flattens newlines.
func TruncateString(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string([]rune(s)[:maxLen])
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}

// OrDash returns "-" for empty values.
func OrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// FormatBytes formats a byte count in KB/MB.
func FormatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
