package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/tflextract/internal/report"
)

// SheetName is the worksheet holding the report.
const SheetName = "Report"

// columnWidths sizes Page, Title and Footnotes, in characters.
var columnWidths = []struct {
	col   string
	width float64
}{{"A", 8}, {"B", 60}, {"C", 80}}

// XLSXWriter renders an Excel workbook with one sheet. The template's fixed
// document timestamps are kept, so equal rows give byte-identical files.
type XLSXWriter struct{}

func (w *XLSXWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (w *XLSXWriter) Write(rows []report.Row, out io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("set header: %w", err)
		}
	}

	for i, r := range rows {
		n := i + 2
		write := func(col int, v any) error {
			cell, _ := excelize.CoordinatesToCellName(col, n)
			return f.SetCellValue(SheetName, cell, v)
		}
		if err := write(1, r.Page); err != nil {
			return fmt.Errorf("set row %d: %w", n, err)
		}
		if err := write(2, r.Title); err != nil {
			return fmt.Errorf("set row %d: %w", n, err)
		}
		if err := write(3, r.FootnoteText()); err != nil {
			return fmt.Errorf("set row %d: %w", n, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "C1", header); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if len(rows) > 0 {
		wrap, err := f.NewStyle(&excelize.Style{
			Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		})
		if err != nil {
			return fmt.Errorf("wrap style: %w", err)
		}
		last, _ := excelize.CoordinatesToCellName(3, len(rows)+1)
		if err := f.SetCellStyle(SheetName, "A2", last, wrap); err != nil {
			return fmt.Errorf("wrap style: %w", err)
		}
	}

	for _, c := range columnWidths {
		if err := f.SetColWidth(SheetName, c.col, c.col, c.width); err != nil {
			return fmt.Errorf("column %s width: %w", c.col, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	_, err = buf.WriteTo(out)
	return err
}
