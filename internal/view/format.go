// Package view computes display state from backend and history data.
// Nothing in here performs I/O; the tui and ui packages render what it
// returns.
package view

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultTruncate is the truncation length used when none is given
	DefaultTruncate = 100

	// HistoryPreview is the query length shown in the history list
	HistoryPreview = 80
)

var byteUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatToolName converts an underscore-delimited tool token to title case,
// e.g. "tavily_search" becomes "Tavily Search".
func FormatToolName(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToUpper(r)) + p[size:]
	}
	return strings.Join(parts, " ")
}

// FormatToolNames formats every name in order
func FormatToolNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, FormatToolName(n))
	}
	return out
}

// FormatBytes renders a byte count on a 1024 ladder with at most two
// decimals: 0 -> "0 Bytes", 1536 -> "1.5 KB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}

	v := float64(n)
	i := 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[i]
}

// FormatDuration renders seconds as "45.3s" below a minute and "2m 5s" above.
func FormatDuration(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	minutes := int(seconds / 60)
	rest := int(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%dm %ds", minutes, rest)
}

// FormatProcessingTime renders a backend processing time, e.g. "2.10s"
func FormatProcessingTime(seconds float64) string {
	return fmt.Sprintf("%.2fs", seconds)
}

// Truncate shortens text to n runes and appends an ellipsis. n <= 0 uses
// DefaultTruncate.
func Truncate(text string, n int) string {
	if n <= 0 {
		n = DefaultTruncate
	}
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "..."
}
