// Package reporting renders sliding statistics as a table or as JSON.
package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Result is the output of one batch, stream or verify run over a series.
type Result struct {
	Source     string         `json:"source"`
	Mode       string         `json:"mode"`
	Window     int            `json:"window"`
	Samples    int            `json:"samples"`
	Chunks     int            `json:"chunks,omitempty"`
	Strategies map[string]int `json:"strategies,omitempty"`

	// Offset is the position in the full series of the window described by
	// Mean[0].
	Offset int       `json:"offset"`
	Mean   []float64 `json:"mean"`

	// Exactly one of Variance and Std is set.
	Variance []float64 `json:"variance,omitempty"`
	Std      []float64 `json:"std,omitempty"`

	// MaxDeviation is the largest absolute difference found by verify.
	MaxDeviation *float64 `json:"max_deviation,omitempty"`
	Passed       *bool    `json:"passed,omitempty"`

	Elapsed time.Duration `json:"-"`
}

// WriteJSON writes results as an indented JSON array.
func WriteJSON(w io.Writer, results []Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}

var printer = message.NewPrinter(language.English)

// WriteTable writes a human readable summary of each result followed by its
// last limit windows. A limit <= 0 prints every window.
func WriteTable(w io.Writer, results []Result, limit int) {
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w) //nolint:errcheck
		}
		writeResult(w, r, limit)
	}
}

func writeResult(w io.Writer, r Result, limit int) {
	fmt.Fprintf(w, "%s (%s)\n", r.Source, r.Mode) //nolint:errcheck
	printer.Fprintf(w, "  window: %d  samples: %d  windows: %d\n", r.Window, r.Samples, len(r.Mean)) //nolint:errcheck
	if r.Chunks > 0 {
		printer.Fprintf(w, "  chunks: %d", r.Chunks) //nolint:errcheck
		for _, name := range sortedKeys(r.Strategies) {
			printer.Fprintf(w, "  %s: %d", name, r.Strategies[name]) //nolint:errcheck
		}
		fmt.Fprintln(w) //nolint:errcheck
	}
	if r.Passed != nil {
		status := "PASS"
		if !*r.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "  verify: %s  max deviation: %.3g\n", status, derefOr(r.MaxDeviation, 0)) //nolint:errcheck
	}

	spread, spreadName := r.Variance, "variance"
	if r.Std != nil {
		spread, spreadName = r.Std, "std"
	}

	start := 0
	if limit > 0 && len(r.Mean) > limit {
		start = len(r.Mean) - limit
	}

	headers := []string{"window", "mean", spreadName}
	rows := make([][]string, 0, len(r.Mean)-start)
	for i := start; i < len(r.Mean); i++ {
		row := []string{
			printer.Sprintf("%d", r.Offset+i),
			fmt.Sprintf("%.6g", r.Mean[i]),
			"",
		}
		if i < len(spread) {
			row[2] = fmt.Sprintf("%.6g", spread[i])
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for c, h := range headers {
		widths[c] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for c, cell := range row {
			widths[c] = max(widths[c], runewidth.StringWidth(cell))
		}
	}

	fmt.Fprintln(w) //nolint:errcheck
	writeRow(w, headers, widths)
	seps := make([]string, len(widths))
	for c, width := range widths {
		seps[c] = strings.Repeat("─", width)
	}
	writeRow(w, seps, widths)
	for _, row := range rows {
		writeRow(w, row, widths)
	}
}

func writeRow(w io.Writer, cells []string, widths []int) {
	padded := make([]string, len(cells))
	for c, cell := range cells {
		padded[c] = padLeft(cell, widths[c])
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(padded, "  ")) //nolint:errcheck
}

// padLeft right-aligns s to the given terminal display width.
func padLeft(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return strings.Repeat(" ", width-sw) + s
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func derefOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
