package pdf

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"eb5tracker/internal/models"
)

// Generator renders reports; an interface so handlers can be tested with a fake.
type Generator interface {
	GenerateTimeline(w io.Writer, data TimelineData) error
}

// DocumentGenerator draws with a TTF font when FontPath is set, otherwise
// with the built-in Helvetica.
type DocumentGenerator struct {
	FontPath string // e.g. "assets/fonts/DejaVuSans.ttf"
	fontName string
}

type TimelineData struct {
	Title       string
	GeneratedAt time.Time
	Timeline    models.Timeline
}

func NewDocumentGenerator(fontPath string) *DocumentGenerator {
	g := &DocumentGenerator{FontPath: fontPath, fontName: "Helvetica"}
	if fontPath != "" {
		g.fontName = "DejaVu"
	}
	return g
}

const (
	pageMargin = 12.0
	nameColW   = 48.0
	countColW  = 18.0
	rowH       = 7.0
)

func (g *DocumentGenerator) GenerateTimeline(w io.Writer, data TimelineData) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	title := data.Title
	if title == "" {
		title = "EB-5 Timeline Comparison"
	}
	pdf.SetTitle(title, true)
	pdf.SetAuthor("EB-5 Investor Tracker", true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, 15)
	g.addFont(pdf)
	tr := g.translator(pdf)
	pdf.AddPage()

	// ===== title
	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 9, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s, %d investors",
		data.GeneratedAt.Format(models.DateLayout), len(data.Timeline.Rows)), "", 1, "L", false, 0, "")
	g.hr(pdf)

	// ===== grid
	pageW, _ := pdf.GetPageSize()
	n := len(data.Timeline.Header)
	cellW := 0.0
	if n > 0 {
		cellW = (pageW - 2*pageMargin - nameColW - countColW) / float64(n)
	}

	pdf.SetFont(g.fontName, "B", 9)
	pdf.CellFormat(nameColW, rowH, tr("Investor"), "1", 0, "L", false, 0, "")
	for i := range data.Timeline.Header {
		pdf.CellFormat(cellW, rowH, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
	}
	pdf.CellFormat(countColW, rowH, tr("Done"), "1", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 9)
	for _, row := range data.Timeline.Rows {
		label := row.Name
		if row.Country != "" {
			label += " (" + row.Country + ")"
		}
		pdf.CellFormat(nameColW, rowH, tr(label), "1", 0, "L", false, 0, "")
		for i := 0; i < n; i++ {
			fill := false
			text := ""
			if i < len(row.Stages) {
				fill = g.setCellColor(pdf, row.Stages[i])
				if row.Stages[i].Status == models.StatusCompleted {
					text = "x"
				}
			}
			pdf.CellFormat(cellW, rowH, text, "1", 0, "C", fill, 0, "")
		}
		pdf.CellFormat(countColW, rowH, fmt.Sprintf("%d/%d", row.Completed, row.Total), "1", 1, "C", false, 0, "")
	}

	// ===== legend
	pdf.Ln(4)
	g.legend(pdf, tr)
	pdf.Ln(2)
	g.hr(pdf)

	// ===== stage reference
	g.sectionTitle(pdf, tr("Stage Reference"))
	for i, name := range data.Timeline.Header {
		pdf.CellFormat(10, 5.5, fmt.Sprintf("%d.", i+1), "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 5.5, tr(name), "", 1, "L", false, 0, "")
	}

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(g.fontName, "", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	return pdf.Output(w)
}

// setCellColor picks the fill for a stage cell; false means no fill.
func (g *DocumentGenerator) setCellColor(pdf *gofpdf.Fpdf, c models.TimelineCell) bool {
	switch {
	case c.Status == models.StatusCompleted:
		pdf.SetFillColor(37, 99, 235)
	case c.Status == models.StatusInProgress || c.IsCurrent:
		pdf.SetFillColor(234, 179, 8)
	default:
		return false
	}
	return true
}

func (g *DocumentGenerator) legend(pdf *gofpdf.Fpdf, tr func(string) string) {
	items := []struct {
		label string
		cell  models.TimelineCell
	}{
		{"Completed", models.TimelineCell{Status: models.StatusCompleted}},
		{"In Progress", models.TimelineCell{Status: models.StatusInProgress}},
		{"Not Started", models.TimelineCell{Status: models.StatusNotStarted}},
	}
	pdf.SetFont(g.fontName, "", 9)
	for _, it := range items {
		fill := g.setCellColor(pdf, it.cell)
		pdf.CellFormat(5, 5, "", "1", 0, "C", fill, 0, "")
		pdf.CellFormat(30, 5, " "+tr(it.label), "", 0, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func (g *DocumentGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
}

func (g *DocumentGenerator) hr(pdf *gofpdf.Fpdf) {
	pageW, _ := pdf.GetPageSize()
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(pageMargin, y, pageW-pageMargin, y)
	pdf.SetY(y + 2)
}

func (g *DocumentGenerator) addFont(pdf *gofpdf.Fpdf) {
	if g.FontPath == "" {
		return
	}
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
}

// translator maps UTF-8 text to the core font's code page; TTF fonts take UTF-8 as is.
func (g *DocumentGenerator) translator(pdf *gofpdf.Fpdf) func(string) string {
	if g.FontPath != "" {
		return func(s string) string { return s }
	}
	return pdf.UnicodeTranslatorFromDescriptor("")
}
