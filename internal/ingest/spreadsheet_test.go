package ingest

import (
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestIngestSpreadsheetDelimitedPassthrough(t *testing.T) {
	data := []byte("name,qty\r\nWidget,2\r\n")
	doc := ingestSpreadsheet(data, Options{Filename: "export.xls"})

	if doc.Text != "name,qty\nWidget,2\n" {
		t.Errorf("text = %q, want delimited text passed through", doc.Text)
	}
	if len(doc.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", doc.Warnings)
	}
}

func TestIngestSpreadsheetXLSX(t *testing.T) {
	f := excelize.NewFile()
	_ = f.SetCellValue("Sheet1", "A1", "item")
	_ = f.SetCellValue("Sheet1", "B1", "total")
	_ = f.SetCellValue("Sheet1", "A2", "Widget")
	_ = f.SetCellValue("Sheet1", "B2", 120.5)
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("build workbook: %v", err)
	}

	doc := ingestSpreadsheet(buf.Bytes(), Options{Filename: "book.xlsx"})

	if !strings.Contains(doc.Text, "# Sheet 1: Sheet1") {
		t.Errorf("text = %q, want sheet header", doc.Text)
	}
	if !strings.Contains(doc.Text, "item\ttotal") {
		t.Errorf("text = %q, want tab-joined header row", doc.Text)
	}
	if !strings.Contains(doc.Text, "Widget\t120.5") {
		t.Errorf("text = %q, want tab-joined data row", doc.Text)
	}
	if doc.Pages() != 1 {
		t.Errorf("pages = %d, want 1 per sheet", doc.Pages())
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestIngestSpreadsheetMultiSheetPageMap(t *testing.T) {
	f := excelize.NewFile()
	_ = f.SetCellValue("Sheet1", "A1", "alpha")
	if _, err := f.NewSheet("Extras"); err != nil {
		t.Fatalf("add sheet: %v", err)
	}
	_ = f.SetCellValue("Extras", "A1", "beta")
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("build workbook: %v", err)
	}

	doc := ingestSpreadsheet(buf.Bytes(), Options{Filename: "book.xlsx"})

	if doc.Pages() != 2 {
		t.Fatalf("pages = %d, want 2", doc.Pages())
	}
	first := doc.PageMap[0]
	if got := doc.Text[first.Start:first.End]; !strings.Contains(got, "alpha") {
		t.Errorf("page 1 slice = %q, want alpha sheet", got)
	}
	second := doc.PageMap[1]
	if got := doc.Text[second.Start:second.End]; !strings.Contains(got, "beta") {
		t.Errorf("page 2 slice = %q, want beta sheet", got)
	}
	// Sheet spans are contiguous: the separator falls inside sheet 2's
	// span, so no offset in the text is unattributed.
	if second.Start != first.End {
		t.Errorf("page 2 starts at %d, want %d (end of page 1)", second.Start, first.End)
	}
	if second.End != len(doc.Text) {
		t.Errorf("page 2 ends at %d, want %d", second.End, len(doc.Text))
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestIngestSpreadsheetGarbage(t *testing.T) {
	doc := ingestSpreadsheet([]byte{0x00, 0x01, 0x02}, Options{Filename: "broken.xlsx"})
	if doc.Text != "" {
		t.Errorf("text = %q, want empty", doc.Text)
	}
	if len(doc.Warnings) == 0 {
		t.Error("want a warning for unparsable workbook")
	}
}
