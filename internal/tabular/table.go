// Package tabular parses flat CSV/XLSX exports into a header plus rows and
// provides by-name cell lookup.
package tabular

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a parsed export. Rows may be shorter than Header.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// NewTable builds a Table from a header and rows.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Header: header, Rows: rows, index: make(map[string]int, len(header))}
	for i, h := range header {
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	return t
}

// Parse reads comma-separated text. Quoted fields may contain commas,
// newlines and doubled quotes; a CRLF inside quotes is read as LF. Blank
// lines are skipped and rows are not checked against the header width.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "tabular: read csv")
	}
	if len(records) == 0 {
		return NewTable(nil, nil), nil
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return NewTable(header, records[1:]), nil
}

// ParseString is Parse over an in-memory string.
func ParseString(text string) (*Table, error) {
	return Parse(strings.NewReader(text))
}

// Index returns the position of column, or -1 when the header lacks it.
// Lookup is by exact string.
func (t *Table) Index(column string) int {
	if i, ok := t.index[column]; ok {
		return i
	}
	return -1
}

// Require fails when any of columns is missing from the header.
func (t *Table) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if t.Index(c) < 0 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("tabular: header does not include %s", quoteAll(missing))
	}
	return nil
}

// Cell returns the value at (row, column). The second result is false when
// the column is unknown or the row is too short to hold it.
func (t *Table) Cell(row int, column string) (string, bool) {
	if row < 0 || row >= len(t.Rows) {
		return "", false
	}
	return t.At(t.Rows[row], column)
}

// At looks up column in an arbitrary row of this table.
func (t *Table) At(row []string, column string) (string, bool) {
	i := t.Index(column)
	if i < 0 || i >= len(row) {
		return "", false
	}
	return row[i], true
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

func quoteAll(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = "'" + c + "'"
	}
	return strings.Join(q, ", ")
}
