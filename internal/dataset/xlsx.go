package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".xlsx")
}

// Load reads one worksheet. SheetName wins over SheetIndex; with neither set
// the first sheet is used. The first non-empty row is the header.
func (xlsxLoader) Load(path string, opt Options) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet, err := pickSheet(f.GetSheetList(), opt, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	all, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	var (
		header []string
		rows   [][]string
		total  int
	)
	for _, r := range all {
		if blank(r) {
			continue
		}
		if header == nil {
			header = r
			continue
		}
		total++
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			continue
		}
		rows = append(rows, r)
	}
	if header == nil {
		return nil, fmt.Errorf("%s: sheet %q is empty", filepath.Base(path), sheet)
	}
	t, err := build(filepath.Base(path), header, rows, total)
	if err != nil {
		return nil, err
	}
	t.Sheet = sheet
	return t, nil
}

func pickSheet(sheets []string, opt Options, file string) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook '%s' has no sheets", file)
	}
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.SheetName) {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
			opt.SheetName, file, strings.Join(sheets, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	if idx > len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range for workbook '%s' (%d sheets)", idx, file, len(sheets))
	}
	return sheets[idx-1], nil
}
