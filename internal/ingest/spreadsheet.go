package ingest

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"
	"github.com/xuri/excelize/v2"

	"github.com/docsift/docsift/pkg/doctext"
)

var delimitedTextRx = regexp.MustCompile(`(,|\t).+\n`)

// ingestSpreadsheet renders each sheet as line-oriented text under a
// "# Sheet N: name" separator, one page-map entry per sheet, with sheets
// joined by a blank line. Content that already looks like CSV/TSV passes
// through as-is; binary workbooks go through excelize (XLSX) or xlsReader
// (legacy XLS). An unparsable workbook degrades to a warning, not an
// error.
func ingestSpreadsheet(data []byte, opts Options) doctext.Document {
	if delimitedTextRx.Match(data) && bytes.IndexByte(data, 0) < 0 {
		text := strings.ReplaceAll(string(data), "\r", "")
		return newDocument(KindSpreadsheet, text, data, opts, nil)
	}

	var sheets []sheetText
	var warnings []string
	var err error
	if strings.HasSuffix(strings.ToLower(opts.Filename), ".xls") {
		sheets, err = readXLS(data)
	} else {
		sheets, err = readXLSX(data)
	}
	if err != nil {
		return newDocument(KindSpreadsheet, "", data, opts,
			[]string{"binary spreadsheet could not be parsed: " + err.Error()})
	}

	var text strings.Builder
	var pageMap []doctext.PageSpan
	for i, sheet := range sheets {
		// The sheet separator belongs to the following sheet's span,
		// keeping the page map contiguous.
		start := text.Len()
		if i > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString("# Sheet " + strconv.Itoa(i+1) + ": " + sheet.name + "\n")
		text.WriteString(sheet.body)
		pageMap = append(pageMap, doctext.PageSpan{Page: i + 1, Start: start, End: text.Len()})
	}

	doc := newDocument(KindSpreadsheet, text.String(), data, opts, warnings)
	if len(pageMap) > 0 {
		doc.PageMap = pageMap
	}
	return doc
}

type sheetText struct {
	name string
	body string
}

func readXLSX(data []byte) ([]sheetText, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var sheets []sheetText
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			lines = append(lines, strings.Join(row, "\t"))
		}
		sheets = append(sheets, sheetText{name: name, body: strings.TrimRight(strings.Join(lines, "\n"), "\n")})
	}
	return sheets, nil
}

func readXLS(data []byte) ([]sheetText, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var sheets []sheetText
	for i := 0; i < wb.GetNumberSheets(); i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil || sheet == nil {
			continue
		}
		rows := sheet.GetRows()
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			lines = append(lines, strings.Join(xlsCells(row.GetCols()), "\t"))
		}
		sheets = append(sheets, sheetText{name: sheet.GetName(), body: strings.Join(lines, "\n")})
	}
	return sheets, nil
}

func xlsCells(cols []structure.CellData) []string {
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		val := col.GetString()
		if val == "" {
			if num := col.GetFloat64(); num != 0 {
				val = strconv.FormatFloat(num, 'f', -1, 64)
			} else if in := col.GetInt64(); in != 0 {
				val = strconv.FormatInt(in, 10)
			}
		}
		out = append(out, val)
	}
	return out
}
