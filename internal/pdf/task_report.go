package pdf

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"taskxp/internal/models"
)

// Generator renders task reports; handy to stub in tests.
type Generator interface {
	TaskReport(w io.Writer, data ReportData) error
}

type ReportData struct {
	Owner       string
	GeneratedAt time.Time
	Overview    models.StatusOverview
	Progress    models.Progress
	Tasks       []models.Task
}

// ReportGenerator draws A4 reports. Without a FontPath it falls back to the
// core Helvetica font, which only covers cp1252.
type ReportGenerator struct {
	FontPath string
	fontName string
}

func NewReportGenerator(fontPath string) *ReportGenerator {
	name := "Helvetica"
	if fontPath != "" {
		name = "DejaVu"
	}
	return &ReportGenerator{FontPath: fontPath, fontName: name}
}

func (g *ReportGenerator) TaskReport(w io.Writer, data ReportData) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Task report", false)
	pdf.SetAuthor("TaskXP", false)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 18)

	tr := func(s string) string { return s }
	if g.FontPath != "" {
		pdf.AddUTF8Font(g.fontName, "", g.FontPath)
		pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
	} else {
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(g.fontName, "", 9)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "Task report", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s  -  %s", data.Owner, data.GeneratedAt.Format("02.01.2006 15:04 MST"))), "", 1, "C", false, 0, "")
	g.hr(pdf)

	g.sectionTitle(pdf, "Progress")
	g.kvLine(pdf, "Level", fmt.Sprintf("%d", data.Progress.Level))
	g.kvLine(pdf, "Total XP", fmt.Sprintf("%d / %d", data.Progress.TotalXP, data.Progress.XPForNextLevel))
	g.kvLine(pdf, "Streak", fmt.Sprintf("%d days", data.Progress.StreakDays))
	pdf.Ln(1)
	g.hr(pdf)

	g.sectionTitle(pdf, "Overview")
	o := data.Overview
	g.kvLine(pdf, "Total", fmt.Sprintf("%d", o.Total))
	g.kvLine(pdf, "Pending", fmt.Sprintf("%d", o.Pending))
	g.kvLine(pdf, "In progress", fmt.Sprintf("%d", o.InProgress))
	g.kvLine(pdf, "Completed", fmt.Sprintf("%d", o.Completed))
	g.kvLine(pdf, "Cancelled", fmt.Sprintf("%d", o.Cancelled))
	g.kvLine(pdf, "Overdue", fmt.Sprintf("%d", o.Overdue))
	pdf.Ln(1)
	g.hr(pdf)

	g.sectionTitle(pdf, "Tasks")
	widths := []float64{80, 22, 26, 30, 22}
	headers := []string{"Title", "Priority", "Status", "Due", "XP"}
	pdf.SetFont(g.fontName, "B", 10)
	pdf.SetFillColor(230, 236, 245)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(g.fontName, "", 10)
	if len(data.Tasks) == 0 {
		pdf.CellFormat(0, 7, "No tasks.", "1", 1, "C", false, 0, "")
	}
	for _, t := range data.Tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format("02.01.2006")
		}
		row := []string{
			tr(truncate(t.Title, 45)),
			string(t.Priority),
			strings.ReplaceAll(string(t.Status), "_", " "),
			due,
			fmt.Sprintf("%d", t.XPReward),
		}
		for i, cell := range row {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render task report: %w", err)
	}
	return nil
}

func (g *ReportGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *ReportGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(40, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *ReportGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(15, y, 195, y)
	pdf.SetY(y + 2)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
