package analysis

import (
	"fmt"
	"strings"
)

// Dataset is an ordered table of raw string values. Columns carries the stable
// column order; every row holds exactly one value per column.
type Dataset struct {
	Name    string
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewDataset validates the table shape and returns a Dataset. Rows are not
// copied; callers must treat them as read-only afterwards.
func NewDataset(name string, columns []string, rows [][]string) (*Dataset, error) {
	if len(columns) == 0 || len(rows) == 0 {
		return nil, emptyInput("dataset")
	}
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := idx[c]; dup {
			return nil, fmt.Errorf("dataset: %w: duplicate column %q", ErrInvalidParameter, c)
		}
		idx[c] = i
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, &DimensionMismatchError{Stage: "dataset", Row: i, Got: len(r), Want: len(columns)}
		}
	}
	return &Dataset{Name: name, Columns: columns, Rows: rows, index: idx}, nil
}

// FromRecords builds a Dataset from name->value records. The column order is
// taken from columns, never from map iteration. Every record must carry
// exactly the given keys.
func FromRecords(name string, columns []string, records []map[string]string) (*Dataset, error) {
	rows := make([][]string, len(records))
	for i, rec := range records {
		if len(rec) != len(columns) {
			return nil, &DimensionMismatchError{Stage: "dataset", Row: i, Got: len(rec), Want: len(columns)}
		}
		row := make([]string, len(columns))
		for j, c := range columns {
			v, ok := rec[c]
			if !ok {
				return nil, fmt.Errorf("dataset: %w: record %d has no %q", ErrUnknownColumn, i, c)
			}
			row[j] = v
		}
		rows[i] = row
	}
	return NewDataset(name, columns, rows)
}

// Len returns the number of observations.
func (d *Dataset) Len() int { return len(d.Rows) }

// ColumnIndex returns the position of a column name.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	if d.index == nil {
		d.index = make(map[string]int, len(d.Columns))
		for i, c := range d.Columns {
			d.index[c] = i
		}
	}
	i, ok := d.index[name]
	return i, ok
}

// Column returns the raw values of one column in row order.
func (d *Dataset) Column(name string) ([]string, error) {
	j, ok := d.ColumnIndex(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	out := make([]string, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r[j]
	}
	return out, nil
}

// Record returns row i as a name->value mapping.
func (d *Dataset) Record(i int) map[string]string {
	rec := make(map[string]string, len(d.Columns))
	for j, c := range d.Columns {
		rec[c] = d.Rows[i][j]
	}
	return rec
}

func (d *Dataset) validate(stage string) error {
	if d == nil || len(d.Columns) == 0 || len(d.Rows) == 0 {
		return emptyInput(stage)
	}
	return nil
}

// ShortName trims survey-style numbering from a header: the text after the
// first " - " separator, or the whole header when there is none.
func ShortName(column string) string {
	if _, after, ok := strings.Cut(column, " - "); ok {
		if s := strings.TrimSpace(after); s != "" {
			return s
		}
	}
	return strings.TrimSpace(column)
}
