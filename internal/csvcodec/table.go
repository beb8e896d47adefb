// Package csvcodec reads and writes the CSV files exchanged with suppliers
// and the stock system: purchase orders, price lists and new unit costs.
//
// Rows are split on line breaks and blank rows are dropped. A double quote
// toggles quoting; quotes are never escaped on output.
package csvcodec

import (
	"fmt"
	"regexp"
	"strings"
)

var lineBreak = regexp.MustCompile(`\r?\n`)

// Record is one data row keyed by header.
type Record struct {
	Line   int               `json:"line"`
	Values map[string]string `json:"values"`
}

// Get returns the value of a column, or "" when it is absent.
func (r Record) Get(column string) string {
	return r.Values[column]
}

// Table is a parsed CSV file.
type Table struct {
	Headers []string `json:"headers"`
	Records []Record `json:"records"`
}

// Has reports whether the table has a column.
func (t *Table) Has(column string) bool {
	for _, h := range t.Headers {
		if h == column {
			return true
		}
	}
	return false
}

// Require checks that every column is present.
func (t *Table) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

// Rows returns the records as value slices in header order.
func (t *Table) Rows() [][]string {
	rows := make([][]string, len(t.Records))
	for i, r := range t.Records {
		row := make([]string, len(t.Headers))
		for j, h := range t.Headers {
			row[j] = r.Values[h]
		}
		rows[i] = row
	}
	return rows
}

// Clone returns a deep copy so edits do not leak into the original.
func (t *Table) Clone() *Table {
	out := &Table{
		Headers: append([]string(nil), t.Headers...),
		Records: make([]Record, len(t.Records)),
	}
	for i, r := range t.Records {
		values := make(map[string]string, len(r.Values))
		for k, v := range r.Values {
			values[k] = v
		}
		out.Records[i] = Record{Line: r.Line, Values: values}
	}
	return out
}

// String serializes the table back to CSV text.
func (t *Table) String() string {
	return Serialize(t.Headers, t.Rows())
}

// Parse splits data into a header row and records. Required columns are
// checked against the header before any row is read. Every record must have
// as many fields as the header.
func Parse(data string, required ...string) (*Table, error) {
	var lines []string
	for _, line := range lineBreak.Split(data, -1) {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return nil, ErrNoDataRows
	}

	headers := SplitRow(strings.TrimPrefix(lines[0], "\ufeff"))
	table := &Table{Headers: headers, Records: make([]Record, 0, len(lines)-1)}
	if err := table.Require(required...); err != nil {
		return nil, err
	}

	for i := 1; i < len(lines); i++ {
		fields := SplitRow(lines[i])
		if len(fields) != len(headers) {
			return nil, &ParseError{
				Row:     i + 1,
				Message: columnCountMessage(len(headers), len(fields)),
			}
		}
		values := make(map[string]string, len(headers))
		for j, h := range headers {
			values[h] = fields[j]
		}
		table.Records = append(table.Records, Record{Line: i + 1, Values: values})
	}

	return table, nil
}

// SplitRow splits one line on commas outside quotes. Quote characters toggle
// quoting and are dropped, unless preceded by a backslash. Fields are trimmed.
func SplitRow(row string) []string {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
	)

	for i := 0; i < len(row); i++ {
		ch := row[i]
		if ch == '"' && (i == 0 || row[i-1] != '\\') {
			quoted = !quoted
			continue
		}
		if ch == ',' && !quoted {
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
			continue
		}
		current.WriteByte(ch)
	}

	return append(fields, strings.TrimSpace(current.String()))
}

// FormatField wraps a value in quotes when it contains a comma.
func FormatField(v string) string {
	if strings.Contains(v, ",") {
		return `"` + v + `"`
	}
	return v
}

// FormatRow joins formatted fields with commas.
func FormatRow(fields []string) string {
	formatted := make([]string, len(fields))
	for i, f := range fields {
		formatted[i] = FormatField(f)
	}
	return strings.Join(formatted, ",")
}

// Serialize renders a header row and data rows joined by newlines.
func Serialize(headers []string, rows [][]string) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, FormatRow(headers))
	for _, r := range rows {
		lines = append(lines, FormatRow(r))
	}
	return strings.Join(lines, "\n")
}

func columnCountMessage(want, got int) string {
	return fmt.Sprintf("wrong number of columns, expected %d got %d", want, got)
}
