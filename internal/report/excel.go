// Package report renders the two-sheet productivity workbook: an hourly
// detail table and the conditionally formatted heat-map matrix.
package report

import (
	"fmt"

	"github.com/andeantel/pdp-analytics/backend/internal/types"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	SheetDetail  = "Detail by Hour"
	SheetHeatmap = "Heat Map"
)

// Heat-map gradient, low to high. Green marks the quiet cells and red
// the hot ones, matching the reports the operators already read.
const (
	colorLow  = "#63BE7B"
	colorMid  = "#FFEB84"
	colorHigh = "#F8696B"

	headerFill = "366092"
)

var detailHeaders = []string{
	"Fecha", "Hora", "Correo Agente", "DNI", "Nombre Agente",
	"Total Gestiones", "Contactos Efectivos", "No Contactos", "Cantidad PDP",
}

// RenderError is fatal: the run aborts and no file is published.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("report rendering failed: %v", e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Renderer writes workbooks. Output is fully determined by the detail
// table and matrix passed in; nothing time-dependent lands in a cell.
type Renderer struct {
	logger zerolog.Logger
}

func NewRenderer(logger zerolog.Logger) *Renderer {
	return &Renderer{logger: logger.With().Str("component", "report_renderer").Logger()}
}

// Render builds the workbook and returns its bytes.
func (r *Renderer) Render(detail []types.HourlyAgentMetric, hm *types.Heatmap) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetDetail); err != nil {
		return nil, &RenderError{Err: err}
	}
	if _, err := f.NewSheet(SheetHeatmap); err != nil {
		return nil, &RenderError{Err: err}
	}

	if err := r.writeDetailSheet(f, detail); err != nil {
		return nil, &RenderError{Err: err}
	}
	if err := r.writeHeatmapSheet(f, hm); err != nil {
		return nil, &RenderError{Err: err}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, &RenderError{Err: err}
	}

	r.logger.Info().
		Int("detail_rows", len(detail)).
		Int("agents", len(hm.Rows)).
		Int("bytes", buf.Len()).
		Msg("workbook rendered")
	return buf.Bytes(), nil
}

func (r *Renderer) writeDetailSheet(f *excelize.File, detail []types.HourlyAgentMetric) error {
	headerStyle, err := newHeaderStyle(f)
	if err != nil {
		return err
	}

	for col, h := range detailHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetDetail, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetDetail, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for i, m := range detail {
		rowNum := i + 2
		values := []interface{}{
			m.Date.Format("2006-01-02"),
			fmt.Sprintf("%02d:00", m.Hour),
			m.AgentEmail,
			m.AgentDNI,
			m.AgentName,
			m.Total,
			m.EffectiveContacts,
			m.NoContacts,
			m.PDPCount,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetDetail, cell, v); err != nil {
				return err
			}
		}
	}

	if len(detail) > 0 {
		lastCell, err := excelize.CoordinatesToCellName(len(detailHeaders), len(detail)+1)
		if err != nil {
			return err
		}
		if err := f.AutoFilter(SheetDetail, "A1:"+lastCell, nil); err != nil {
			return err
		}
	}

	return fitColumns(f, SheetDetail, detailHeaders)
}

func (r *Renderer) writeHeatmapSheet(f *excelize.File, hm *types.Heatmap) error {
	headerStyle, err := newHeaderStyle(f)
	if err != nil {
		return err
	}
	numStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00 display, value unrounded
	if err != nil {
		return err
	}

	days := hm.Period.Days()
	headers := []string{"Correo Agente", "DNI", "Nombre Agente"}
	for d := 1; d <= days; d++ {
		headers = append(headers, fmt.Sprintf("%d", d))
	}
	headers = append(headers, "Promedio")

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetHeatmap, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetHeatmap, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	const firstDayCol = 4
	avgCol := firstDayCol + days

	for i, row := range hm.Rows {
		rowNum := i + 2
		for col, v := range []interface{}{row.AgentEmail, row.AgentDNI, row.AgentName} {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetHeatmap, cell, v); err != nil {
				return err
			}
		}
		for d, v := range row.Daily {
			cell, err := excelize.CoordinatesToCellName(firstDayCol+d, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetHeatmap, cell, v); err != nil {
				return err
			}
		}
		avgCell, err := excelize.CoordinatesToCellName(avgCol, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetHeatmap, avgCell, row.MonthlyAverage); err != nil {
			return err
		}
	}

	if len(hm.Rows) > 0 {
		firstNum, err := excelize.CoordinatesToCellName(firstDayCol, 2)
		if err != nil {
			return err
		}
		lastNum, err := excelize.CoordinatesToCellName(avgCol, len(hm.Rows)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetHeatmap, firstNum, lastNum, numStyle); err != nil {
			return err
		}

		// The gradient covers the day cells only; the trailing average
		// column stays plain so it never skews the scale's min/max.
		lastDay, err := excelize.CoordinatesToCellName(avgCol-1, len(hm.Rows)+1)
		if err != nil {
			return err
		}
		err = f.SetConditionalFormat(SheetHeatmap, firstNum+":"+lastDay, []excelize.ConditionalFormatOptions{
			{
				Type:     "3_color_scale",
				Criteria: "=",
				MinType:  "min",
				MinColor: colorLow,
				MidType:  "percentile",
				MidValue: "50",
				MidColor: colorMid,
				MaxType:  "max",
				MaxColor: colorHigh,
			},
		})
		if err != nil {
			return err
		}
	}

	return fitColumns(f, SheetHeatmap, headers)
}

func newHeaderStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
}

// fitColumns sizes columns from their header width, clamped to a sane
// range, the way the operators' previous reports looked.
func fitColumns(f *excelize.File, sheet string, headers []string) error {
	for col, h := range headers {
		width := float64(len(h)) + 4
		if width < 8 {
			width = 8
		}
		if width > 50 {
			width = 50
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}
