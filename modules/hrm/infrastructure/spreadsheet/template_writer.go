package spreadsheet

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

// TemplateLayout is what WriteTemplate renders: a header row and one example row.
type TemplateLayout struct {
	SheetName string
	Headers   []string
	Examples  []string
	Computed  []bool
}

const (
	headerFill   = "#D9E1F2"
	computedFill = "#EDEDED"
	minColWidth  = 14
	maxColWidth  = 48
)

// WriteTemplate renders layout as an xlsx workbook into w.
func WriteTemplate(w io.Writer, layout TemplateLayout) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := layout.SheetName
	if sheet == "" {
		sheet = "Employees"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return errors.Wrap(err, "rename sheet")
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
	})
	if err != nil {
		return errors.Wrap(err, "header style")
	}
	computedStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Italic: true, Color: "#7F7F7F"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{computedFill}},
	})
	if err != nil {
		return errors.Wrap(err, "computed style")
	}

	for i, h := range layout.Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return errors.Wrapf(err, "write header %s", cell)
		}
		style := headerStyle
		if i < len(layout.Computed) && layout.Computed[i] {
			style = computedStyle
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := float64(len([]rune(h)) + 2)
		width = max(minColWidth, min(width, maxColWidth))
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	for i, ex := range layout.Examples {
		if ex == "" {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, cell, ex); err != nil {
			return errors.Wrapf(err, "write example %s", cell)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return errors.Wrap(err, "freeze header")
	}
	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}
