package reports

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"staffeval/internal/domain/evaluation"
	"staffeval/internal/domain/scoring"
)

const fontFamily = "sheet"

// Sheet is one printed page: a record, its derived values and an optional
// comparison record shown alongside the totals.
type Sheet struct {
	Record     evaluation.StoredRecord
	Summary    scoring.Summary
	Comparison *evaluation.StoredRecord
}

// NewSheet snapshots rec (and comparison) so later edits do not reach the page.
func NewSheet(rec evaluation.StoredRecord, comparison *evaluation.StoredRecord, tmpl *evaluation.Template) Sheet {
	s := Sheet{Record: rec.Clone()}
	var subs []string
	if tmpl != nil {
		subs = tmpl.SubCategories(evaluation.RestrictedCategory)
	}
	s.Summary = scoring.Summarize(s.Record, subs)
	if comparison != nil {
		c := comparison.Clone()
		s.Comparison = &c
	}
	return s
}

// Renderer lays sheets out as A4 pages. Without a UTF-8 font file the core
// Helvetica font is used, which cannot draw Japanese glyphs.
type Renderer struct {
	fontPath string
}

func NewRenderer(fontPath string) *Renderer {
	return &Renderer{fontPath: fontPath}
}

func (r *Renderer) Render(w io.Writer, sheets []Sheet) error {
	if len(sheets) == 0 {
		return ErrNothingToPrint
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	family := "Helvetica"
	if r.fontPath != "" {
		pdf.AddUTF8Font(fontFamily, "", r.fontPath)
		family = fontFamily
	}
	p := page{pdf: pdf, family: family, bold: family == "Helvetica"}
	for _, sheet := range sheets {
		p.sheet(sheet)
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render sheets: %w", err)
	}
	return pdf.Output(w)
}

type page struct {
	pdf    *gofpdf.Fpdf
	family string
	bold   bool
}

func (p page) font(size float64, bold bool) {
	style := ""
	if bold && p.bold {
		style = "B"
	}
	p.pdf.SetFont(p.family, style, size)
}

func (p page) line(h float64, text string) {
	p.pdf.CellFormat(0, h, text, "", 1, "L", false, 0, "")
}

func (p page) sheet(s Sheet) {
	pdf := p.pdf
	meta := s.Record.Metadata
	sum := s.Summary

	pdf.AddPage()
	p.font(16, true)
	p.line(10, "スタッフ評価シート")
	p.font(10, false)
	p.line(6, fmt.Sprintf("店舗: %s   氏名: %s   社員番号: %s", meta.Store, meta.Name, meta.EmployeeID))
	p.line(6, fmt.Sprintf("評価者: %s   評価日: %s", meta.Evaluator, meta.Date))
	pdf.Ln(3)

	p.font(12, true)
	p.line(8, "合計")
	p.font(10, false)
	for _, cat := range []evaluation.Category{evaluation.CategoryRelationship, evaluation.CategoryService, evaluation.CategoryTechnique} {
		p.line(6, fmt.Sprintf("%s: %d%s", cat, sum.CategoryTotals[cat], p.previous(s.Comparison, func(c evaluation.StoredRecord) int {
			return scoring.CategoryTotal(c.Items, cat)
		})))
	}
	p.line(6, fmt.Sprintf("%s: %d%s", evaluation.CategoryResults, sum.PerformanceScore, p.previous(s.Comparison, func(c evaluation.StoredRecord) int {
		return c.PerformanceScore
	})))
	p.font(11, true)
	p.line(7, fmt.Sprintf("総合点: %d%s", sum.SheetTotal, p.previous(s.Comparison, func(c evaluation.StoredRecord) int {
		return scoring.SheetTotal(c.Items, c.PerformanceScore)
	})))
	pdf.Ln(2)

	p.performance(s)
	p.items(s.Record.Items, sum.RestrictedScored)
}

func (p page) previous(c *evaluation.StoredRecord, value func(evaluation.StoredRecord) int) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf(" (前回 %d)", value(*c))
}

func (p page) performance(s Sheet) {
	pdf := p.pdf
	perf := s.Record.Metadata.Performance
	m := s.Summary.Metrics

	p.font(12, true)
	p.line(8, "実績")
	p.font(8, false)
	width := 190.0 / evaluation.MonthsPerYear
	for _, label := range evaluation.MonthLabels {
		pdf.CellFormat(width, 5, label, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	for i, cuts := range perf.MonthlyCuts {
		mark := ""
		if i < len(perf.ExcludedFromAverage) && perf.ExcludedFromAverage[i] {
			mark = "*"
		}
		pdf.CellFormat(width, 5, fmt.Sprintf("%d%s", cuts, mark), "1", 0, "R", false, 0, "")
	}
	pdf.Ln(-1)
	p.font(10, false)
	p.line(6, fmt.Sprintf("現在合計: %d   平均: %d   予測: %d   目標: %d (%d%%)   実績点: %d",
		m.CurrentTotal, m.Average, m.PredictedTotal, perf.GoalCuts, s.Summary.GoalAchievement, s.Summary.PerformanceScore))
	p.line(6, fmt.Sprintf("生産性: %.1f カット/日", s.Summary.CutsPerDay))
	pdf.Ln(2)
}

func (p page) items(items []evaluation.Item, restrictedScored bool) {
	p.font(12, true)
	p.line(8, "評価項目")
	p.font(9, false)
	for _, it := range items {
		if it.Category.Restricted() && !restrictedScored {
			continue
		}
		if it.Score == nil && strings.TrimSpace(it.Memo) == "" {
			continue
		}
		score := "-"
		if it.Score != nil {
			score = fmt.Sprintf("%d", *it.Score)
		}
		p.line(5, fmt.Sprintf("%d. [%s] %s  %s / %d", it.No, it.Category, it.Item, score, it.Max))
		if memo := strings.TrimSpace(it.Memo); memo != "" {
			p.pdf.MultiCell(0, 5, "    "+memo, "", "L", false)
		}
		for _, inc := range it.Incidents {
			p.line(5, fmt.Sprintf("    %s %s (%d / +%d)", inc.Date, inc.Desc, inc.Deduction, inc.Improvement))
		}
	}
}
