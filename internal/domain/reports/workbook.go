package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"staffeval/internal/domain/evaluation"
	"staffeval/internal/domain/scoring"
)

const (
	scoresSheet      = "評価一覧"
	performanceSheet = "実績"
)

var identityHeaders = []string{"店舗", "氏名", "社員番号", "評価者", "評価日"}

// WriteWorkbook exports every record as one row of the all-staff matrix:
// identity, per-item scores in template order, category totals and the
// sheet total. A second sheet lists monthly cuts.
func WriteWorkbook(w io.Writer, recs []evaluation.StoredRecord, tmpl *evaluation.Template) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(scoresSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if _, err := f.NewSheet(performanceSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return err
	}

	items := tmpl.NewItems()
	headers := append([]string(nil), identityHeaders...)
	for _, it := range items {
		headers = append(headers, fmt.Sprintf("%d %s", it.No, it.Item))
	}
	for _, cat := range evaluation.Categories {
		headers = append(headers, string(cat))
	}
	headers = append(headers, "総合点")
	if err := writeRow(f, scoresSheet, 1, headers); err != nil {
		return err
	}
	if err := styleRow(f, scoresSheet, 1, len(headers), headerStyle); err != nil {
		return err
	}

	for i, rec := range recs {
		row := identityRow(rec)
		byNo := make(map[int]evaluation.Item, len(rec.Items))
		for _, it := range rec.Items {
			byNo[it.No] = it
		}
		for _, it := range items {
			if stored, ok := byNo[it.No]; ok && stored.Score != nil {
				row = append(row, *stored.Score)
			} else {
				row = append(row, "")
			}
		}
		for _, cat := range evaluation.Categories {
			if cat == evaluation.CategoryResults {
				row = append(row, rec.PerformanceScore)
				continue
			}
			row = append(row, scoring.CategoryTotal(rec.Items, cat))
		}
		row = append(row, scoring.SheetTotal(rec.Items, rec.PerformanceScore))
		if err := writeRow(f, scoresSheet, i+2, row); err != nil {
			return err
		}
	}

	perfHeaders := append([]string(nil), identityHeaders...)
	perfHeaders = append(perfHeaders, evaluation.MonthLabels[:]...)
	perfHeaders = append(perfHeaders, "現在合計", "予測", "目標", "実績点")
	if err := writeRow(f, performanceSheet, 1, perfHeaders); err != nil {
		return err
	}
	if err := styleRow(f, performanceSheet, 1, len(perfHeaders), headerStyle); err != nil {
		return err
	}
	for i, rec := range recs {
		perf := rec.Metadata.Performance
		m := scoring.PerformanceMetrics(perf.MonthlyCuts, perf.ExcludedFromAverage)
		row := identityRow(rec)
		for _, cuts := range perf.MonthlyCuts {
			row = append(row, cuts)
		}
		row = append(row, m.CurrentTotal, m.PredictedTotal, perf.GoalCuts, rec.PerformanceScore)
		if err := writeRow(f, performanceSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(scoresSheet, "A", "E", 14); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func identityRow(rec evaluation.StoredRecord) []any {
	m := rec.Metadata
	return []any{m.Store, m.Name, m.EmployeeID, m.Evaluator, m.Date}
}

func writeRow[T any](f *excelize.File, sheet string, row int, values []T) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}
