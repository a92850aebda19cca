// Package pdf renders assessment plans into downloadable documents.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/tabledadrian/adrian-backend/internal/ai"
	"github.com/tabledadrian/adrian-backend/internal/model"
)

const (
	burgundyR, burgundyG, burgundyB = 110, 24, 40
	lineHeight                      = 6.0
)

// RenderAssessment lays out the questionnaire answers followed by the plan.
func RenderAssessment(a model.Assessment, plan ai.Plan, wallet string) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetTitle(plan.Title, true)
	doc.SetAuthor("Table d'Adrian", true)
	doc.SetCreationDate(a.CreatedAt.UTC())
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont("Helvetica", "I", 8)
		doc.SetTextColor(120, 120, 120)
		doc.CellFormat(0, 10, fmt.Sprintf("Table d'Adrian - page %d", doc.PageNo()), "", 0, "C", false, 0, "")
	})
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 20)
	doc.SetTextColor(burgundyR, burgundyG, burgundyB)
	doc.MultiCell(0, 10, tr(plan.Title), "", "L", false)
	doc.Ln(2)

	doc.SetFont("Helvetica", "", 9)
	doc.SetTextColor(90, 90, 90)
	doc.MultiCell(0, 5, tr(fmt.Sprintf("Prepared %s for %s", a.CreatedAt.UTC().Format(time.DateOnly), wallet)), "", "L", false)
	doc.Ln(4)

	heading(doc, tr, "Your answers")
	answer(doc, tr, "Goal", a.Goal)
	answer(doc, tr, "Challenges", a.Challenges)
	answer(doc, tr, "Lifestyle", a.Lifestyle)
	answer(doc, tr, "Dietary preferences", a.Dietary)
	if a.Conditions != nil && *a.Conditions != "" {
		answer(doc, tr, "Conditions", *a.Conditions)
	}
	doc.Ln(4)

	for _, s := range plan.Sections {
		heading(doc, tr, s.Heading)
		doc.SetFont("Helvetica", "", 11)
		doc.SetTextColor(30, 30, 30)
		doc.MultiCell(0, lineHeight, tr(s.Body), "", "L", false)
		doc.Ln(3)
	}

	doc.Ln(4)
	doc.SetFont("Helvetica", "I", 8)
	doc.SetTextColor(120, 120, 120)
	doc.MultiCell(0, 4, "This plan is general guidance and not medical advice.", "", "L", false)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func heading(doc *fpdf.Fpdf, tr func(string) string, text string) {
	doc.SetFont("Helvetica", "B", 13)
	doc.SetTextColor(burgundyR, burgundyG, burgundyB)
	doc.MultiCell(0, 8, tr(text), "", "L", false)
}

func answer(doc *fpdf.Fpdf, tr func(string) string, label, value string) {
	doc.SetFont("Helvetica", "B", 10)
	doc.SetTextColor(30, 30, 30)
	doc.CellFormat(45, lineHeight, tr(label), "", 0, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(0, lineHeight, tr(value), "", "L", false)
}
