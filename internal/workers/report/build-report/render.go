// internal/workers/report/build-report/render.go
package buildreport

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

const (
	pdfFont      = "report"
	pdfCoreFont  = "Helvetica"
	pdfLineH     = 6.0
	pdfPageWidth = 180.0
)

func renderJSON(r *Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

func (h *Handler) renderPDF(r *Report, sections []section) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(r.Title, true)
	pdf.SetCreator("site-analytics", true)
	pdf.AliasNbPages("")

	family := pdfCoreFont
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	if h.config.FontPath != "" {
		pdf.AddUTF8Font(pdfFont, "", h.config.FontPath)
		pdf.AddUTF8Font(pdfFont, "B", h.config.FontPath)
		family = pdfFont
		translate = func(s string) string { return s }
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(family, "", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("%d / {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont(family, "B", 16)
	pdf.CellFormat(0, 10, translate(r.Title), "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 10)
	pdf.CellFormat(0, pdfLineH, translate(r.Project.Name+"  "+r.GeneratedAt.Format("2006-01-02 15:04 MST")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, s := range sections {
		pdf.SetFont(family, "B", 12)
		pdf.SetFillColor(226, 232, 240)
		pdf.CellFormat(0, 8, translate(s.Title), "", 1, "L", true, 0, "")
		pdf.Ln(1)

		pdf.SetFont(family, "", 9)
		for _, f := range s.Fields {
			pdf.CellFormat(60, pdfLineH, translate(f.Label), "B", 0, "L", false, 0, "")
			pdf.CellFormat(pdfPageWidth-60, pdfLineH, translate(display(f.Value)), "B", 1, "L", false, 0, "")
		}

		if s.Table != nil && len(s.Table.Rows) > 0 {
			pdf.Ln(2)
			width := pdfPageWidth / float64(len(s.Table.Headers))
			pdf.SetFont(family, "B", 8)
			for _, header := range s.Table.Headers {
				pdf.CellFormat(width, pdfLineH, translate(header), "1", 0, "C", true, 0, "")
			}
			pdf.Ln(-1)
			pdf.SetFont(family, "", 8)
			for _, row := range s.Table.Rows {
				for i, v := range row {
					align := "R"
					if i == 0 {
						align = "L"
					}
					pdf.CellFormat(width, pdfLineH, translate(display(v)), "1", 0, align, false, 0, "")
				}
				pdf.Ln(-1)
			}
		}
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderXLSX(sections []section) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	for i, s := range sections {
		sheet := s.Title
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}

		row := 1
		for _, fl := range s.Fields {
			if err := f.SetSheetRow(sheet, cellName(1, row), &[]interface{}{fl.Label, cellValue(fl.Value)}); err != nil {
				return nil, err
			}
			row++
		}

		if s.Table != nil && len(s.Table.Rows) > 0 {
			row++
			headers := make([]interface{}, len(s.Table.Headers))
			for j, hdr := range s.Table.Headers {
				headers[j] = hdr
			}
			if err := f.SetSheetRow(sheet, cellName(1, row), &headers); err != nil {
				return nil, err
			}
			if err := f.SetRowStyle(sheet, row, row, headerStyle); err != nil {
				return nil, err
			}
			row++
			for _, r := range s.Table.Rows {
				values := make([]interface{}, len(r))
				for j, v := range r {
					values[j] = cellValue(v)
				}
				if err := f.SetSheetRow(sheet, cellName(1, row), &values); err != nil {
					return nil, err
				}
				row++
			}
		}

		if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, "B", "G", 16); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// cellValue keeps numbers numeric in the workbook.
func cellValue(v interface{}) interface{} {
	switch x := v.(type) {
	case money:
		return float64(x)
	case ratio:
		return float64(x)
	case count:
		return int(x)
	case nil:
		return ""
	default:
		return x
	}
}
