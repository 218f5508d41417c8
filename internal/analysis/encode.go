package analysis

import "fmt"

// EncodingTable maps each column's distinct raw values to integer codes,
// assigned in first-seen order starting at 0. Codes are scoped per column.
type EncodingTable struct {
	Columns []string
	codes   []map[string]int
	values  [][]string
}

// Code returns the integer code of a raw value in a column.
func (t *EncodingTable) Code(column, value string) (int, bool) {
	j, ok := t.columnIndex(column)
	if !ok {
		return 0, false
	}
	c, ok := t.codes[j][value]
	return c, ok
}

// Decode returns the raw value behind a code.
func (t *EncodingTable) Decode(column string, code int) (string, bool) {
	j, ok := t.columnIndex(column)
	if !ok || code < 0 || code >= len(t.values[j]) {
		return "", false
	}
	return t.values[j][code], true
}

// Values returns the distinct raw values of a column indexed by code.
func (t *EncodingTable) Values(column string) []string {
	j, ok := t.columnIndex(column)
	if !ok {
		return nil
	}
	return append([]string(nil), t.values[j]...)
}

// Cardinality returns the number of distinct values of the column at position j.
func (t *EncodingTable) Cardinality(j int) int { return len(t.values[j]) }

func (t *EncodingTable) columnIndex(column string) (int, bool) {
	for j, c := range t.Columns {
		if c == column {
			return j, true
		}
	}
	return 0, false
}

// Encoded is the Encoder output: the immutable table and the numeric matrix,
// rows aligned with the dataset, columns aligned with Table.Columns.
type Encoded struct {
	Table  *EncodingTable
	Matrix [][]float64
}

// Encode builds the encoding table and the numeric matrix for a dataset.
func Encode(ds *Dataset) (*Encoded, error) {
	if err := ds.validate("encode"); err != nil {
		return nil, err
	}
	ncol := len(ds.Columns)
	t := &EncodingTable{
		Columns: append([]string(nil), ds.Columns...),
		codes:   make([]map[string]int, ncol),
		values:  make([][]string, ncol),
	}
	for j := range t.codes {
		t.codes[j] = make(map[string]int)
	}
	m := make([][]float64, len(ds.Rows))
	for i, row := range ds.Rows {
		if len(row) != ncol {
			return nil, &DimensionMismatchError{Stage: "encode", Row: i, Got: len(row), Want: ncol}
		}
		out := make([]float64, ncol)
		for j, v := range row {
			code, ok := t.codes[j][v]
			if !ok {
				code = len(t.values[j])
				t.codes[j][v] = code
				t.values[j] = append(t.values[j], v)
			}
			out[j] = float64(code)
		}
		m[i] = out
	}
	return &Encoded{Table: t, Matrix: m}, nil
}

// DecodeMatrix maps a numeric matrix back to raw values via the table.
func (e *Encoded) DecodeMatrix(m [][]float64) ([][]string, error) {
	ncol := len(e.Table.Columns)
	out := make([][]string, len(m))
	for i, row := range m {
		if len(row) != ncol {
			return nil, &DimensionMismatchError{Stage: "decode", Row: i, Got: len(row), Want: ncol}
		}
		rec := make([]string, ncol)
		for j, v := range row {
			code := int(v)
			if float64(code) != v || code < 0 || code >= len(e.Table.values[j]) {
				return nil, fmt.Errorf("decode: %w: code %v not in column %q", ErrInvalidParameter, v, e.Table.Columns[j])
			}
			rec[j] = e.Table.values[j][code]
		}
		out[i] = rec
	}
	return out, nil
}
