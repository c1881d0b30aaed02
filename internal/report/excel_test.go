package report

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/andeantel/pdp-analytics/backend/internal/types"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

func fixtureDetail() []types.HourlyAgentMetric {
	d := time.Date(2026, time.June, 5, 0, 0, 0, 0, time.UTC)
	return []types.HourlyAgentMetric{
		{Date: d, Hour: 9, AgentEmail: "a@x.com", AgentDNI: "111", AgentName: "Ana", Total: 5, EffectiveContacts: 3, NoContacts: 1, PDPCount: 2},
		{Date: d, Hour: 11, AgentEmail: "a@x.com", AgentDNI: "111", AgentName: "Ana", Total: 2, EffectiveContacts: 1, NoContacts: 0, PDPCount: 1},
	}
}

func fixtureHeatmap() *types.Heatmap {
	daily := make([]float64, 30)
	daily[4] = 1.5
	return &types.Heatmap{
		Period: types.Period{Year: 2026, Month: time.June},
		Rows: []types.HeatmapRow{
			{AgentEmail: "a@x.com", AgentDNI: "111", AgentName: "Ana", Daily: daily, MonthlyAverage: 1.5},
		},
	}
}

func renderFixture(t *testing.T) *excelize.File {
	t.Helper()

	r := NewRenderer(zerolog.Nop())
	data, err := r.Render(fixtureDetail(), fixtureHeatmap())
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestRenderSheetNames(t *testing.T) {
	f := renderFixture(t)

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != SheetDetail || sheets[1] != SheetHeatmap {
		t.Errorf("unexpected sheets: %v", sheets)
	}
}

func TestRenderDetailSheet(t *testing.T) {
	f := renderFixture(t)

	rows, err := f.GetRows(SheetDetail)
	if err != nil {
		t.Fatalf("failed to read detail sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Fecha" || rows[0][8] != "Cantidad PDP" {
		t.Errorf("unexpected headers: %v", rows[0])
	}

	first := rows[1]
	if first[0] != "2026-06-05" || first[1] != "09:00" || first[2] != "a@x.com" {
		t.Errorf("unexpected first detail row: %v", first)
	}
	if first[5] != "5" || first[8] != "2" {
		t.Errorf("unexpected counters in first row: %v", first)
	}
}

func TestRenderHeatmapSheet(t *testing.T) {
	f := renderFixture(t)

	rows, err := f.GetRows(SheetHeatmap)
	if err != nil {
		t.Fatalf("failed to read heatmap sheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 agent row, got %d", len(rows))
	}

	header := rows[0]
	// 3 identity columns + 30 days + Promedio.
	if len(header) != 34 {
		t.Fatalf("expected 34 columns for June, got %d", len(header))
	}
	if header[3] != "1" || header[32] != "30" || header[33] != "Promedio" {
		t.Errorf("unexpected heatmap headers: %v", header)
	}

	// Day 5 lives in column H (3 identity columns + 5).
	cell, err := f.GetCellValue(SheetHeatmap, "H2")
	if err != nil {
		t.Fatalf("failed to read cell: %v", err)
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || v != 1.5 {
		t.Errorf("expected day-5 cell 1.5, got %q", cell)
	}

	avg, err := f.GetCellValue(SheetHeatmap, "AH2")
	if err != nil {
		t.Fatalf("failed to read average cell: %v", err)
	}
	av, err := strconv.ParseFloat(avg, 64)
	if err != nil || av != 1.5 {
		t.Errorf("expected monthly average 1.5, got %q", avg)
	}
}

func TestRenderHeatmapColorScale(t *testing.T) {
	f := renderFixture(t)

	formats, err := f.GetConditionalFormats(SheetHeatmap)
	if err != nil {
		t.Fatalf("failed to read conditional formats: %v", err)
	}
	if len(formats) != 1 {
		t.Fatalf("expected one conditional format range, got %d", len(formats))
	}

	for rangeRef, opts := range formats {
		if rangeRef != "D2:AG2" {
			t.Errorf("expected gradient over day cells D2:AG2, got %s", rangeRef)
		}
		if len(opts) != 1 {
			t.Fatalf("expected one rule, got %d", len(opts))
		}
		rule := opts[0]
		if rule.Type != "3_color_scale" {
			t.Errorf("expected 3_color_scale, got %s", rule.Type)
		}
		// Quiet cells green, hot cells red. The library may prepend an
		// alpha channel on read-back, so match on the RGB payload.
		if !strings.Contains(strings.ToUpper(rule.MinColor), "63BE7B") {
			t.Errorf("expected green min color, got %s", rule.MinColor)
		}
		if !strings.Contains(strings.ToUpper(rule.MidColor), "FFEB84") {
			t.Errorf("expected yellow mid color, got %s", rule.MidColor)
		}
		if !strings.Contains(strings.ToUpper(rule.MaxColor), "F8696B") {
			t.Errorf("expected red max color, got %s", rule.MaxColor)
		}
	}
}

func TestRenderZeroActivityDaysAreZero(t *testing.T) {
	f := renderFixture(t)

	cell, err := f.GetCellValue(SheetHeatmap, "D2") // day 1
	if err != nil {
		t.Fatalf("failed to read cell: %v", err)
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || v != 0 {
		t.Errorf("expected zero-activity day cell 0, got %q", cell)
	}
}

func TestRenderEmptyInput(t *testing.T) {
	r := NewRenderer(zerolog.Nop())
	hm := &types.Heatmap{Period: types.Period{Year: 2026, Month: time.June}}

	data, err := r.Render(nil, hm)
	if err != nil {
		t.Fatalf("render of empty input failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetDetail)
	if err != nil {
		t.Fatalf("failed to read detail sheet: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected header only, got %d rows", len(rows))
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	r := NewRenderer(zerolog.Nop())

	b1, err := r.Render(fixtureDetail(), fixtureHeatmap())
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	b2, err := r.Render(fixtureDetail(), fixtureHeatmap())
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	f1, err := excelize.OpenReader(bytes.NewReader(b1))
	if err != nil {
		t.Fatal(err)
	}
	defer f1.Close()
	f2, err := excelize.OpenReader(bytes.NewReader(b2))
	if err != nil {
		t.Fatal(err)
	}
	defer f2.Close()

	for _, sheet := range []string{SheetDetail, SheetHeatmap} {
		r1, err := f1.GetRows(sheet)
		if err != nil {
			t.Fatal(err)
		}
		r2, err := f2.GetRows(sheet)
		if err != nil {
			t.Fatal(err)
		}
		if len(r1) != len(r2) {
			t.Fatalf("sheet %s row count differs", sheet)
		}
		for i := range r1 {
			for j := range r1[i] {
				if r1[i][j] != r2[i][j] {
					t.Errorf("sheet %s cell (%d,%d) differs: %q vs %q", sheet, i, j, r1[i][j], r2[i][j])
				}
			}
		}
	}
}
