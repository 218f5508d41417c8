package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/mvscope/internal/analysis"
)

// Options controls how a file is turned into a Dataset.
type Options struct {
	// Delimiter for CSV. If 0, sniffs among ',', ';', '\t' and '|'.
	Delimiter rune
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
	// SheetName selects an XLSX sheet by name (case-insensitive).
	SheetName string
	// SheetIndex selects an XLSX sheet by 1-based position when SheetName is empty.
	SheetIndex int
}

// Loader reads one tabular format.
type Loader interface {
	CanLoad(path string) bool
	Load(path string, opt Options) (*Table, error)
}

// Table is a loaded file: the dataset plus what the loader had to fix up.
type Table struct {
	*analysis.Dataset
	// TotalRows counts data rows seen, including those beyond MaxRows.
	TotalRows int
	// Padded counts rows shorter than the header that were filled with "".
	Padded int
	// Truncated counts rows longer than the header whose extra cells were dropped.
	Truncated int
	// Sheet is the XLSX sheet read, empty for delimited text.
	Sheet string
}

// Notes returns human-readable remarks about the load.
func (t *Table) Notes() []string {
	var out []string
	if t.TotalRows > t.Len() {
		out = append(out, fmt.Sprintf("processed only %d/%d rows due to MaxRows", t.Len(), t.TotalRows))
	}
	if t.Padded > 0 {
		out = append(out, fmt.Sprintf("%d short rows padded with empty values", t.Padded))
	}
	if t.Truncated > 0 {
		out = append(out, fmt.Sprintf("%d long rows truncated to the header width", t.Truncated))
	}
	return out
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates a file extension no loader accepts.
var ErrUnsupported = errors.New("unsupported dataset format")

// LoadFile selects a loader by file name and reads the dataset.
func LoadFile(path string, opt Options) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}
	for _, l := range registry {
		if l.CanLoad(path) {
			return l.Load(path, opt)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

// Supported reports whether some loader accepts the path.
func Supported(path string) bool {
	for _, l := range registry {
		if l.CanLoad(path) {
			return true
		}
	}
	return false
}

// ParseDelimiter maps a config or flag value to a delimiter rune. "auto" and
// "" yield 0.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\t", `\t`, "tab":
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	}
	return 0, fmt.Errorf("unsupported delimiter %q (use auto, comma, semicolon, tab or pipe)", s)
}

// build shapes raw header + rows into a Table, padding or truncating rows to
// the header width.
func build(name string, header []string, rows [][]string, total int) (*Table, error) {
	t := &Table{TotalRows: total}
	ncol := len(header)
	for i, r := range rows {
		switch {
		case len(r) < ncol:
			tmp := make([]string, ncol)
			copy(tmp, r)
			rows[i] = tmp
			t.Padded++
		case len(r) > ncol:
			rows[i] = r[:ncol]
			t.Truncated++
		}
	}
	ds, err := analysis.NewDataset(name, header, rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	t.Dataset = ds
	return t, nil
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}
