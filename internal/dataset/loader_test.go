package dataset_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/mvscope/internal/dataset"
)

var surveyRows = []string{
	"1 - Age;2 - Area;3 - Uses WCAG",
	"18-24;Frontend;Yes",
	"25-34;Backend;No",
	"18-24;Frontend;Yes",
	"35-44;Design;Sometimes",
	"25-34;Backend;No",
	";;",
	"18-24;Design",
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadCSVSniffsDelimiter(t *testing.T) {
	p := writeFile(t, "survey.csv", strings.Join(surveyRows, "\n"))
	tab, err := dataset.LoadFile(p, dataset.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tab.Name != "survey.csv" {
		t.Fatalf("name = %q", tab.Name)
	}
	if got := strings.Join(tab.Columns, "|"); got != "1 - Age|2 - Area|3 - Uses WCAG" {
		t.Fatalf("columns = %q", got)
	}
	if tab.Len() != 6 {
		t.Fatalf("rows = %d, want 6 (blank line skipped)", tab.Len())
	}
	if tab.Padded != 1 {
		t.Fatalf("padded = %d, want 1", tab.Padded)
	}
	last := tab.Rows[5]
	if last[0] != "18-24" || last[2] != "" {
		t.Fatalf("last row = %#v", last)
	}
}

func TestLoadCSVMaxRowsAndNotes(t *testing.T) {
	p := writeFile(t, "survey.csv", strings.Join(surveyRows, "\n"))
	tab, err := dataset.LoadFile(p, dataset.Options{Delimiter: ';', MaxRows: 3})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tab.Len() != 3 || tab.TotalRows != 6 {
		t.Fatalf("len=%d total=%d", tab.Len(), tab.TotalRows)
	}
	notes := strings.Join(tab.Notes(), "\n")
	if !strings.Contains(notes, "processed only 3/6 rows due to MaxRows") {
		t.Fatalf("notes = %q", notes)
	}
}

func TestLoadTSVAndBOM(t *testing.T) {
	p := writeFile(t, "data.tsv", "\ufeffa\tb\n1\t2\n3\t4,5\n")
	tab, err := dataset.LoadFile(p, dataset.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tab.Columns[0] != "a" {
		t.Fatalf("BOM not stripped: %q", tab.Columns[0])
	}
	if tab.Rows[1][1] != "4,5" {
		t.Fatalf("cell = %q", tab.Rows[1][1])
	}
}

func TestLoadCSVHeaderOnly(t *testing.T) {
	p := writeFile(t, "empty.csv", "a,b\n")
	if _, err := dataset.LoadFile(p, dataset.Options{}); err == nil {
		t.Fatalf("expected error for header-only file")
	}
}

func TestLoadUnsupported(t *testing.T) {
	p := writeFile(t, "notes.docx", "x")
	_, err := dataset.LoadFile(p, dataset.Options{})
	if !errors.Is(err, dataset.ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
	if dataset.Supported("x.docx") || !dataset.Supported("x.XLSX") {
		t.Fatalf("Supported mismatch")
	}
}

func TestParseDelimiter(t *testing.T) {
	cases := map[string]rune{"auto": 0, "": 0, "comma": ',', ";": ';', "tab": '\t', `\t`: '\t', "pipe": '|'}
	for in, want := range cases {
		got, err := dataset.ParseDelimiter(in)
		if err != nil || got != want {
			t.Fatalf("ParseDelimiter(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := dataset.ParseDelimiter("::"); err == nil {
		t.Fatalf("expected error")
	}
}

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetRow("Sheet1", "A1", &[]any{"unused"}); err != nil {
		t.Fatalf("set row: %v", err)
	}
	if _, err := f.NewSheet("Data"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	for i, line := range surveyRows {
		cells := strings.Split(line, ";")
		row := make([]any, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Data", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	p := filepath.Join(t.TempDir(), "survey.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save: %v", err)
	}
	return p
}

func TestLoadXLSXSheetSelection(t *testing.T) {
	p := writeWorkbook(t)

	byName, err := dataset.LoadFile(p, dataset.Options{SheetName: "data"})
	if err != nil {
		t.Fatalf("load by name: %v", err)
	}
	if byName.Sheet != "Data" || byName.Len() != 6 {
		t.Fatalf("sheet=%q rows=%d", byName.Sheet, byName.Len())
	}
	if byName.Columns[2] != "3 - Uses WCAG" {
		t.Fatalf("columns = %#v", byName.Columns)
	}

	byIndex, err := dataset.LoadFile(p, dataset.Options{SheetIndex: 2, MaxRows: 4})
	if err != nil {
		t.Fatalf("load by index: %v", err)
	}
	if byIndex.Len() != 4 || byIndex.TotalRows != 6 {
		t.Fatalf("len=%d total=%d", byIndex.Len(), byIndex.TotalRows)
	}
	if byIndex.Rows[0][1] != "Frontend" {
		t.Fatalf("first row = %#v", byIndex.Rows[0])
	}
}

func TestLoadXLSXMissingSheet(t *testing.T) {
	p := writeWorkbook(t)
	_, err := dataset.LoadFile(p, dataset.Options{SheetName: "Nope"})
	if err == nil || !strings.Contains(err.Error(), "Available sheets: Sheet1, Data") {
		t.Fatalf("err = %v", err)
	}
	if _, err := dataset.LoadFile(p, dataset.Options{SheetIndex: 5}); err == nil {
		t.Fatalf("expected out of range error")
	}
}
