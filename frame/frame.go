// Package frame implements the ordered-column string table handed
// between pipeline stages. Cells are strings; the empty string means
// the value is absent.
package frame

import (
	"fmt"
	"strings"
)

// Frame is a table with a fixed column order and string cells.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// New returns an empty frame with the given column order.
func New(columns ...string) *Frame {
	return &Frame{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Rows) }

// ColumnIndex returns the position of name, or -1.
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Append adds one row; its length must match the column count.
func (f *Frame) Append(row []string) error {
	if len(row) != len(f.Columns) {
		return fmt.Errorf("row has %d cells, frame has %d columns", len(row), len(f.Columns))
	}
	f.Rows = append(f.Rows, append([]string(nil), row...))
	return nil
}

// AppendMap adds one row built from column-name keys; missing keys
// become empty cells.
func (f *Frame) AppendMap(cells map[string]string) {
	row := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		row[i] = cells[c]
	}
	f.Rows = append(f.Rows, row)
}

// Cell returns the value at row i, column name ("" if the column is absent).
func (f *Frame) Cell(i int, name string) string {
	idx := f.ColumnIndex(name)
	if idx < 0 || i < 0 || i >= len(f.Rows) {
		return ""
	}
	return f.Rows[i][idx]
}

// SetCell writes the value at row i, column name.
func (f *Frame) SetCell(i int, name, value string) {
	idx := f.ColumnIndex(name)
	if idx < 0 || i < 0 || i >= len(f.Rows) {
		return
	}
	f.Rows[i][idx] = value
}

// Column returns a copy of the named column's cells.
func (f *Frame) Column(name string) []string {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row[idx]
	}
	return out
}

// Set broadcasts value onto every row of the named column, appending
// the column if it does not exist yet.
func (f *Frame) Set(name, value string) {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		f.Columns = append(f.Columns, name)
		for i := range f.Rows {
			f.Rows[i] = append(f.Rows[i], value)
		}
		return
	}
	for i := range f.Rows {
		f.Rows[i][idx] = value
	}
}

// FirstNonEmpty returns the first non-empty cell of the named column,
// or "" when the column is absent or entirely empty.
func (f *Frame) FirstNonEmpty(name string) string {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return ""
	}
	for _, row := range f.Rows {
		if row[idx] != "" {
			return row[idx]
		}
	}
	return ""
}

// Rename changes a column's name in place; unknown names are ignored.
func (f *Frame) Rename(old, new string) {
	if idx := f.ColumnIndex(old); idx >= 0 {
		f.Columns[idx] = new
	}
}

// ReplaceBlank substitutes token for every cell that is empty or
// whitespace-only.
func (f *Frame) ReplaceBlank(token string) {
	for _, row := range f.Rows {
		for j, cell := range row {
			if strings.TrimSpace(cell) == "" {
				row[j] = token
			}
		}
	}
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	out := New(f.Columns...)
	out.Rows = make([][]string, len(f.Rows))
	for i, row := range f.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}
