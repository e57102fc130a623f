package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/unicode/norm"
)

const (
	columnGap = "  "
	noRows    = "(no rows)"
)

var printer = message.NewPrinter(language.English)

// formatVND renders an amount rounded to whole dong with thousands separators,
// e.g. "1,250,000 VNĐ".
func formatVND(amount decimal.Decimal) string {
	return printer.Sprintf("%d VNĐ", amount.Round(0).IntPart())
}

func formatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

type alignment int

const (
	alignLeft alignment = iota
	alignRight
)

type column struct {
	title string
	align alignment
}

// table is a fixed-width text table. Widths count runes of the NFC form so
// Vietnamese diacritics occupy one column.
type table struct {
	columns []column
	rows    [][]string
}

func newTable(columns ...column) *table {
	return &table{columns: columns}
}

func (t *table) add(cells ...string) {
	row := make([]string, len(t.columns))
	for i := range row {
		if i < len(cells) {
			row[i] = norm.NFC.String(cells[i])
		}
	}
	t.rows = append(t.rows, row)
}

func (t *table) widths() []int {
	widths := make([]int, len(t.columns))
	for i, c := range t.columns {
		widths[i] = utf8.RuneCountInString(c.title)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}
	return widths
}

func pad(s string, width int, align alignment) string {
	fill := strings.Repeat(" ", width-utf8.RuneCountInString(s))
	if align == alignRight {
		return fill + s
	}
	return s + fill
}

func (t *table) line(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = pad(cell, widths[i], t.columns[i].align)
	}
	return strings.TrimRight(strings.Join(parts, columnGap), " ")
}

func (t *table) render(w io.Writer) error {
	widths := t.widths()

	titles := make([]string, len(t.columns))
	rules := make([]string, len(t.columns))
	for i, c := range t.columns {
		titles[i] = c.title
		rules[i] = strings.Repeat("-", widths[i])
	}

	var b strings.Builder
	b.WriteString(t.line(titles, widths) + "\n")
	b.WriteString(strings.Join(rules, columnGap) + "\n")
	if len(t.rows) == 0 {
		b.WriteString(noRows + "\n")
	}
	for _, row := range t.rows {
		b.WriteString(t.line(row, widths) + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}
