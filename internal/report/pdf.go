package report

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"strings"
	"time"

	dto "memberhub/pkg/models"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin   = 40.0
	contentWidth = 515.0
	pageBottom   = 780.0
	chartHeight  = 240.0
)

// renderedChart is a chart image that made it into the report.
type renderedChart struct {
	target ChartTarget
	png    []byte
}

type summaryDoc struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newSummaryDoc() *summaryDoc {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetTitle("MemberHub Analytics Summary", true)
	pdf.AddPage()
	return &summaryDoc{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (d *summaryDoc) heading(text string) {
	d.ensureSpace(40)
	d.pdf.SetFont("Helvetica", "B", 16)
	d.pdf.MultiCell(contentWidth, 20, d.tr(text), "", "L", false)
	d.pdf.Ln(4)
}

func (d *summaryDoc) text(text string) {
	d.ensureSpace(30)
	d.pdf.SetFont("Helvetica", "", 11)
	d.pdf.MultiCell(contentWidth, 14, d.tr(text), "", "L", false)
	d.pdf.Ln(6)
}

// ensureSpace starts a new page when fewer than needed points remain.
func (d *summaryDoc) ensureSpace(needed float64) {
	if d.pdf.GetY() > pageBottom-needed {
		d.pdf.AddPage()
	}
}

// image places a chart scaled to the content width. Data that does not
// decode as PNG is skipped.
func (d *summaryDoc) image(name string, data []byte) bool {
	if checkPNG(data) != nil {
		return false
	}
	d.ensureSpace(chartHeight + 20)

	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if !d.pdf.Ok() {
		d.pdf.ClearError()
		return false
	}
	y := d.pdf.GetY()
	d.pdf.ImageOptions(name, pageMargin, y, contentWidth, chartHeight, false, opts, 0, "")
	d.pdf.SetY(y + chartHeight + 10)
	return true
}

func checkPNG(data []byte) error {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid chart image: %w", err)
	}
	if format != "png" {
		return fmt.Errorf("chart image is %s, not png", format)
	}
	return nil
}

func (d *summaryDoc) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// SummaryPDF lays out the multi-page summary document.
func SummaryPDF(generatedAt time.Time, stats dto.Stats, a dto.Analyses, charts []renderedChart) ([]byte, error) {
	d := newSummaryDoc()

	d.heading("MemberHub Analytics Summary")
	d.text("Generated: " + generatedAt.Format("2006-01-02 15:04:05 MST"))
	d.text(fmt.Sprintf("Totals: Total Members %d | Active %d | New This Month %d | Departments %d",
		stats.TotalMembers, stats.ActiveMembers, stats.NewThisMonth, stats.Departments))

	d.heading("Key Analyses")
	d.text("Family Status: " + joinCounts(a.FamilyStatus, 0, " ", "N/A"))
	d.text("Top Cities: " + joinCounts(a.GeographicDistribution, 5, "", "N/A"))
	d.text("Top Professions: " + joinCounts(a.ProfessionCounts, 5, "", "N/A"))
	d.text("Upcoming Birthdays (next 30 days): " + joinBirthdays(a.UpcomingBirthdays, 10))

	if len(charts) > 0 {
		d.heading("Charts")
		for _, c := range charts {
			d.image(c.target.FileName, c.png)
		}
	}
	return d.bytes()
}

// joinCounts renders "Label(n), ..." or, with a separator, "Label n, ...".
func joinCounts(counts []dto.Count, limit int, sep, empty string) string {
	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		if sep == "" {
			parts = append(parts, fmt.Sprintf("%s(%d)", c.Label, c.Count))
		} else {
			parts = append(parts, fmt.Sprintf("%s%s%d", c.Label, sep, c.Count))
		}
	}
	if len(parts) == 0 {
		return empty
	}
	return strings.Join(parts, ", ")
}

func joinBirthdays(birthdays []dto.Birthday, limit int) string {
	if len(birthdays) > limit {
		birthdays = birthdays[:limit]
	}
	parts := make([]string, 0, len(birthdays))
	for _, b := range birthdays {
		parts = append(parts, b.Name+" "+b.Date)
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, ", ")
}
