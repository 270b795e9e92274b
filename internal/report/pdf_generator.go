package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/user/swarm_analytics_go/internal/analysis"
)

const (
	inchToMm               = 25.4
	pdfPageWidthLandscape  = 11 * inchToMm // Letter landscape
	pdfPageHeightLandscape = 8.5 * inchToMm
	pdfMargin              = 0.5 * inchToMm
	pdfContentWidth        = pdfPageWidthLandscape - (2 * pdfMargin)
)

// ReportMeta describes the run a PDF report belongs to.
type ReportMeta struct {
	RunID           string
	RootFolder      string
	ConfidenceLevel float64
	BestFitDegree   int
	GeneratedAt     time.Time
}

// pdfStyler holds reusable styling and state for PDF generation
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	styles      map[string]func() // map of style name to function that sets font, color etc.
	lineHeight  float64
	currentY    float64 // To manually track Y position for flowing content
	pageBottom  float64
	contentTopY float64 // Top Y after margin
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		styles:      make(map[string]func()),
		lineHeight:  6, // mm
		pageBottom:  pdfPageHeightLandscape - pdfMargin,
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["note"] = func() {
		s.pdf.SetFont("Arial", "I", 9)
		s.pdf.SetTextColor(120, 0, 0)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200) // Light grey
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(50, 50, 50)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]()
	}
}

func (s *pdfStyler) newPage() {
	s.pdf.AddPage()
	s.currentY = s.contentTopY
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageBottom {
		s.newPage()
	}
}

func (s *pdfStyler) writeParagraph(text string, styleName string, align string) {
	s.applyStyle(styleName)
	lines := s.pdf.SplitLines([]byte(text), pdfContentWidth)
	s.checkAddPage(float64(max(len(lines), 1)) * s.lineHeight)

	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY() + 1 // Small gap after paragraph
}

func (s *pdfStyler) addSpacer(height float64) {
	s.currentY += height
	if s.currentY > s.pageBottom {
		s.newPage()
	}
}

func (s *pdfStyler) writeRow(cells []string, widths []float64, styleName string, fill bool) {
	s.applyStyle(styleName)
	x := pdfMargin
	for i, cell := range cells {
		s.pdf.SetXY(x, s.currentY)
		s.pdf.CellFormat(widths[i], s.lineHeight, cell, "1", 0, "C", fill, 0, "")
		x += widths[i]
	}
	s.currentY += s.lineHeight
}

// writeTable draws a bordered table. Column widths are fractions of the
// content width. The header is repeated after a page break.
func (s *pdfStyler) writeTable(headers []string, widthsRel []float64, rows [][]string) {
	widths := make([]float64, len(widthsRel))
	for i, rel := range widthsRel {
		widths[i] = rel * pdfContentWidth
	}

	s.checkAddPage(2 * s.lineHeight)
	s.writeRow(headers, widths, "tableHeader", true)
	for _, row := range rows {
		if s.currentY+s.lineHeight > s.pageBottom {
			s.newPage()
			s.writeRow(headers, widths, "tableHeader", true)
		}
		s.writeRow(row, widths, "tableCell", false)
	}
	s.addSpacer(3)
}

// addImage places a PNG scaled to maxHeight, keeping its aspect ratio and
// staying within the content width.
func (s *pdfStyler) addImage(imageBytes []byte, imageName string, maxHeight float64, caption string) {
	info := s.pdf.RegisterImageReader(imageName, "PNG", bytes.NewReader(imageBytes))
	if info == nil || s.pdf.Err() {
		return
	}

	height := maxHeight
	width := height * info.Width() / info.Height()
	if width > pdfContentWidth {
		width = pdfContentWidth
		height = width * info.Height() / info.Width()
	}

	captionHeight := 0.0
	if caption != "" {
		captionHeight = s.lineHeight + 1
	}
	s.checkAddPage(height + captionHeight)

	x := pdfMargin + (pdfContentWidth-width)/2
	s.pdf.Image(imageName, x, s.currentY, width, height, false, "PNG", 0, "")
	s.currentY += height

	if caption != "" {
		s.addSpacer(1)
		s.writeParagraph(caption, "normal", "C")
	}
	s.addSpacer(2)
}

func (s *pdfStyler) writeErrors(errs []string) {
	for _, e := range errs {
		s.writeParagraph("Note: "+e, "note", "L")
	}
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// FitEquation renders polynomial coefficients, lowest order first, as
// "y = c0 + c1x + c2x^2".
func FitEquation(coeffs []float64) string {
	if len(coeffs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("y = ")
	b.WriteString(formatNum(coeffs[0]))
	for i := 1; i < len(coeffs); i++ {
		c := coeffs[i]
		sign := "+"
		if c < 0 {
			sign, c = "-", -c
		}
		term := "x"
		if i > 1 {
			term = fmt.Sprintf("x^%d", i)
		}
		fmt.Fprintf(&b, " %s %s%s", sign, formatNum(c), term)
	}
	return b.String()
}

func summaryCells(s analysis.Summary) []string {
	return []string{
		strconv.Itoa(s.Count),
		formatNum(s.Mean),
		formatNum(s.StdDev),
		formatNum(s.Min),
		formatNum(s.Q1),
		formatNum(s.Median),
		formatNum(s.Q3),
		formatNum(s.Max),
	}
}

func (s *pdfStyler) writeGroupSection(res *analysis.GroupAnalysis) {
	s.writeParagraph(BoxTitle(res.Metric), "h2", "L")
	if len(res.Groups) == 0 {
		s.writeParagraph(fmt.Sprintf("No %s data for either strategy.", strings.ToLower(res.Metric.Title())), "normal", "L")
		s.writeErrors(res.AnalysisErrors)
		return
	}

	statRows := make([][]string, 0, len(res.Groups))
	ciRows := make([][]string, 0, len(res.Groups))
	for _, g := range res.Groups {
		statRows = append(statRows, append([]string{g.Strategy.Title()}, summaryCells(g.Summary)...))
		iv := g.Interval
		ciRows = append(ciRows, []string{
			g.Strategy.Title(),
			fmt.Sprintf("%.0f%%", iv.Confidence*100),
			formatNum(iv.Mean),
			"+/- " + formatNum(iv.Margin),
			formatNum(iv.Lower),
			formatNum(iv.Upper),
		})
	}
	s.writeTable(
		[]string{"Strategy", "Count", "Mean", "Std", "Min", "25%", "Median", "75%", "Max"},
		[]float64{0.2, 0.08, 0.09, 0.09, 0.09, 0.09, 0.09, 0.09, 0.18},
		statRows,
	)
	s.writeTable(
		[]string{"Strategy", "Confidence", "Mean", "Margin", "Lower", "Upper"},
		[]float64{0.2, 0.12, 0.17, 0.17, 0.17, 0.17},
		ciRows,
	)
	s.writeErrors(res.AnalysisErrors)
}

func (s *pdfStyler) writeScatterSection(title string, scatters []*analysis.ScatterAnalysis) {
	s.writeParagraph(title, "h2", "L")
	rows := make([][]string, 0, len(scatters))
	var errs []string
	for _, res := range scatters {
		fit := "-"
		if res.Fit != nil {
			fit = FitEquation(res.Fit.Coeffs)
		}
		if len(res.Y) == 0 {
			rows = append(rows, []string{res.Metric.Title(), res.Strategy.Title(), "0", "-", "-", "-", "-", "-", fit})
		} else {
			sm := res.Summary
			rows = append(rows, []string{
				res.Metric.Title(),
				res.Strategy.Title(),
				strconv.Itoa(sm.Count),
				formatNum(sm.Mean),
				formatNum(sm.StdDev),
				formatNum(sm.Min),
				formatNum(sm.Median),
				formatNum(sm.Max),
				fit,
			})
		}
		errs = append(errs, res.AnalysisErrors...)
	}
	s.writeTable(
		[]string{"Metric", "Strategy", "Files", "Mean", "Std", "Min", "Median", "Max", "Best Fit"},
		[]float64{0.16, 0.12, 0.06, 0.09, 0.09, 0.09, 0.09, 0.09, 0.21},
		rows,
	)
	s.writeErrors(errs)
}

// BuildPDFReport writes the strategy comparisons, the per-axis scatter
// tables and every available plot image to path. plotImages is keyed by
// BoxPlotKey and ScatterPlotKey.
func BuildPDFReport(path string, meta ReportMeta, groups []*analysis.GroupAnalysis,
	scatters []*analysis.ScatterAnalysis, plotImages map[string][]byte) error {

	pdf := gofpdf.New("L", "mm", "Letter", "") // Landscape, mm, Letter size
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle("Swarm Strategy Analysis Report", false)
	pdf.AddPage()

	styler := newPDFStyler(pdf)

	styler.writeParagraph("Swarm Strategy Analysis Report", "h1", "C")
	styler.addSpacer(5)
	styler.writeParagraph(fmt.Sprintf("Root folder: %s", meta.RootFolder), "normal", "L")
	if meta.RunID != "" {
		styler.writeParagraph(fmt.Sprintf("Run: %s", meta.RunID), "normal", "L")
	}
	if !meta.GeneratedAt.IsZero() {
		styler.writeParagraph(fmt.Sprintf("Generated: %s", meta.GeneratedAt.Format(time.RFC1123)), "normal", "L")
	}
	styler.writeParagraph(fmt.Sprintf("Confidence level: %.0f%%   Best-fit degree: %d",
		meta.ConfidenceLevel*100, meta.BestFitDegree), "normal", "L")
	styler.addSpacer(5)

	if len(groups) == 0 && len(scatters) == 0 {
		styler.writeParagraph("No analysis results to display.", "normal", "L")
		return pdf.OutputFileAndClose(path)
	}

	for _, g := range groups {
		styler.writeGroupSection(g)
		styler.addSpacer(3)
	}

	byAxis := make(map[string][]*analysis.ScatterAnalysis)
	var axes []string
	for _, res := range scatters {
		label := res.Axis.Label()
		if _, ok := byAxis[label]; !ok {
			axes = append(axes, label)
		}
		byAxis[label] = append(byAxis[label], res)
	}
	for _, label := range axes {
		styler.newPage()
		styler.writeScatterSection(fmt.Sprintf("Metrics vs. %s", axisName(label)), byAxis[label])
	}

	imgHeight := pdfPageHeightLandscape - 2*pdfMargin - 3*styler.lineHeight
	plotHeader := func() {
		styler.newPage()
		styler.writeParagraph("Graphical Analysis", "h1", "C")
	}
	headerDone := false
	place := func(key, caption string) {
		img, ok := plotImages[key]
		if !ok || len(img) == 0 {
			return
		}
		if !headerDone {
			plotHeader()
			headerDone = true
		} else {
			styler.newPage()
		}
		styler.addImage(img, key, imgHeight-styler.lineHeight*2, caption)
	}
	for _, g := range groups {
		place(BoxPlotKey(g.Metric), BoxTitle(g.Metric))
	}
	for _, res := range scatters {
		place(ScatterPlotKey(res), ScatterTitle(res))
	}

	return pdf.OutputFileAndClose(path)
}
