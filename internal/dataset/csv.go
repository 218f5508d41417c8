package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type csvLoader struct{}

func (csvLoader) CanLoad(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt")
}

// Load reads a delimited text file. The first record is the header; column
// names are kept verbatim apart from a leading byte-order mark.
func (csvLoader) Load(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path, br)
	}
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file", filepath.Base(path))
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	maxRows := opt.MaxRows
	var (
		rows  [][]string
		total int
	)
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", total+1, err)
		}
		if blank(rec) {
			continue
		}
		total++
		if maxRows > 0 && len(rows) >= maxRows {
			continue
		}
		rows = append(rows, rec)
	}
	return build(filepath.Base(path), header, rows, total)
}

// sniffDelimiter picks the delimiter by extension for .tsv, otherwise by the
// most frequent candidate in the first line. Comma wins when none appear.
func sniffDelimiter(path string, br *bufio.Reader) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	line, err := br.Peek(4096)
	if err != nil && len(line) == 0 {
		return ','
	}
	first := string(line)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	best, bestN := ',', 0
	for _, c := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(first, string(c)); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
