// Package pdf renders a report.Report as a paginated PDF document.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/nyashahama/realyou-backend/internal/narrative"
	"github.com/nyashahama/realyou-backend/internal/report"
	"github.com/nyashahama/realyou-backend/internal/scoring"
)

const (
	title        = "RealYou Test – Personality Report"
	fontFamily   = "Helvetica"
	marginMM     = 18.0
	lineHeightMM = 5.5

	defaultSummary = "This snapshot reflects your dominant patterns in how you think, feel, make decisions, and relate to people."
	deepDiveIntro  = "You bring a specific mix of strengths, blindspots, and patterns to how you work, relate, and make decisions."
	flexIntro      = "Some parts of your wiring are highly flexible and respond to life events; others stay almost the same unless life hits you hard. Here’s your axis ranking from most flexible to most stable:"
	closingLine    = "The goal isn’t to become a different person. It’s to use what you’ve got on purpose — so your wiring works for you, not against you."
)

var tracer = otel.Tracer("github.com/nyashahama/realyou-backend/internal/pdf")

// Filename is the attachment name for a report of the given type code.
func Filename(typeCode string) string {
	if typeCode == "" {
		typeCode = "Profile"
	}
	return fmt.Sprintf("RealYou_Personality_%s.pdf", typeCode)
}

// Render lays out r. Sections follow the same tier gating as the JSON view:
// whatever Build left empty or locked is omitted here too.
func Render(ctx context.Context, r report.Report, generated time.Time) ([]byte, error) {
	_, span := tracer.Start(ctx, "pdf.Render")
	defer span.End()
	span.SetAttributes(
		attribute.String("realyou.tier", string(r.Tier)),
		attribute.String("realyou.type_code", r.TypeCode),
	)

	doc := newDocument()
	doc.pdf.SetTitle(title, true)
	doc.pdf.SetCreator("RealYou", true)
	doc.pdf.AddPage()

	doc.writeHeader(r, generated)
	doc.writeOverview(r)
	doc.writeBalance(r)
	doc.bullets("Core Traits", r.CoreTraits)
	doc.bullets("Key Strengths", r.Strengths)
	doc.bullets("Blind Spots", r.Blindspots)
	doc.bullets("Ideal Careers", r.IdealCareers)
	if r.Tier.Paid() {
		doc.bullets("Growth Focus", r.GrowthFocus)
		doc.paragraphSection("Relationship Style", r.RelationshipStyle)
		doc.bullets("Communication Tips", r.CommunicationTips)
		doc.writeCompatibility(r.Compatibility)
	}
	if r.DeepDive != nil {
		doc.pdf.AddPage()
		doc.writeDeepDive(r)
	}
	if len(r.Flexibility) > 0 {
		doc.writeFlexibility(r.Flexibility)
	}

	var buf bytes.Buffer
	if err := doc.pdf.Output(&buf); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pdf output failed")
		return nil, fmt.Errorf("pdf: render %s: %w", r.TypeCode, err)
	}
	span.SetAttributes(attribute.Int("realyou.pdf_bytes", buf.Len()))
	return buf.Bytes(), nil
}

// ─── DOCUMENT ─────────────────────────────────────────────────────────────────

type document struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newDocument() *document {
	p := gofpdf.New("P", "mm", "A4", "")
	p.SetMargins(marginMM, marginMM, marginMM)
	p.SetAutoPageBreak(true, marginMM)
	p.SetFooterFunc(func() {
		p.SetY(-12)
		p.SetFont(fontFamily, "I", 8)
		p.SetTextColor(120, 120, 120)
		p.CellFormat(0, 6, fmt.Sprintf("Page %d", p.PageNo()), "", 0, "C", false, 0, "")
		p.SetTextColor(0, 0, 0)
	})
	// Core fonts are cp1252; the translator maps curly quotes, dashes and
	// bullets into that code page.
	return &document{pdf: p, tr: p.UnicodeTranslatorFromDescriptor("")}
}

func (d *document) text(size float64, style, s string) {
	d.pdf.SetFont(fontFamily, style, size)
	d.pdf.MultiCell(0, lineHeightMM, d.tr(s), "", "L", false)
}

func (d *document) centered(size float64, style, s string) {
	d.pdf.SetFont(fontFamily, style, size)
	d.pdf.CellFormat(0, size*0.55, d.tr(s), "", 1, "C", false, 0, "")
}

func (d *document) section(heading string) {
	d.pdf.Ln(3)
	d.pdf.SetFont(fontFamily, "B", 13)
	d.pdf.MultiCell(0, 7, d.tr(heading), "", "L", false)
	x, y := d.pdf.GetX(), d.pdf.GetY()
	w, _ := d.pdf.GetPageSize()
	d.pdf.SetDrawColor(200, 200, 200)
	d.pdf.Line(x, y, w-marginMM, y)
	d.pdf.Ln(1.5)
}

func (d *document) bullets(heading string, items []string) {
	if len(items) == 0 {
		return
	}
	d.section(heading)
	for _, it := range items {
		d.text(11, "", "• "+it)
	}
}

func (d *document) paragraphSection(heading, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	d.section(heading)
	d.text(11, "", body)
}

// ─── SECTIONS ─────────────────────────────────────────────────────────────────

func (d *document) writeHeader(r report.Report, generated time.Time) {
	d.centered(20, "B", title)
	d.pdf.Ln(1)
	d.centered(12, "", "Plan: "+r.PlanLabel)
	d.centered(10, "", "Generated: "+generated.Format("January 2, 2006"))
	d.pdf.Ln(4)

	typeCode := r.TypeCode
	if typeCode == "" {
		typeCode = "Profile"
	}
	d.text(15, "B", "Type: "+typeCode)
	if r.Label != "" {
		d.text(12, "", "Profile: "+r.Label)
	}
}

func (d *document) writeOverview(r report.Report) {
	d.section("Overview")
	summary := r.Summary
	if summary == "" {
		summary = defaultSummary
	}
	d.text(11, "", summary)
	if r.StandardSummary != "" {
		d.pdf.Ln(1.5)
		d.text(11, "I", r.StandardSummary)
	}
	if r.FriendsPerception != "" {
		d.pdf.Ln(1.5)
		d.text(11, "", "How friends see you: "+r.FriendsPerception)
	}
}

func (d *document) writeBalance(r report.Report) {
	d.section("Trait Scores & Balance")
	v := r.TraitVector
	d.text(11, "", fmt.Sprintf("Raw scores — EI: %d | SN: %d | TF: %d | JP: %d", v.EI, v.SN, v.TF, v.JP))
	d.pdf.Ln(1)
	for _, a := range r.Axes {
		d.text(11, "", fmt.Sprintf("%s: %d%% %s / %d%% %s", a.Axis, a.Split.First, a.FirstLetter, a.Split.Second, a.SecondLetter))
	}
	d.pdf.Ln(1.5)
	d.text(10, "B", "How to read your numbers:")
	for _, a := range r.Axes {
		d.text(10, "", "• "+a.Summary)
	}
}

func (d *document) writeCompatibility(c *scoring.Compatibility) {
	if c == nil || (len(c.BestTypes) == 0 && len(c.ChallengingTypes) == 0) {
		return
	}
	d.section("Compatibility")
	if len(c.BestTypes) > 0 {
		d.text(11, "", "Best fits: "+strings.Join(c.BestTypes, ", "))
	}
	if len(c.ChallengingTypes) > 0 {
		d.text(11, "", "Challenging fits: "+strings.Join(c.ChallengingTypes, ", "))
	}
}

func (d *document) writeDeepDive(r report.Report) {
	d.centered(16, "B", "Premium Deep Dive")
	d.pdf.Ln(2)
	intro := r.Summary
	if intro == "" {
		intro = deepDiveIntro
	}
	d.text(11, "", intro)

	n := r.DeepDive
	if len(n.Story) > 0 {
		d.section("Premium Deep Dive — Story View")
		for _, para := range n.Story {
			d.text(11, "", para)
			d.pdf.Ln(1.5)
		}
	}
	if len(n.Coach) > 0 {
		d.section("Premium Deep Dive — Coach View (Straight Talk)")
		d.text(11, "", narrative.CoachIntro)
		for _, line := range n.Coach {
			d.text(11, "", "• "+line)
		}
	}
}

func (d *document) writeFlexibility(lines []scoring.FlexLine) {
	d.section("Trait Flexibility & Life Events")
	d.text(11, "", flexIntro)
	d.pdf.Ln(1.5)
	for _, l := range lines {
		d.text(11, "B", l.Heading)
		d.text(10, "", fmt.Sprintf("• For you right now, this axis is %s (%s).", l.Flexibility, l.AxisLabel))
		d.text(10, "", "• Major shifts: "+l.Major)
		d.text(10, "", "• Everyday nudges: "+l.Minor)
		d.pdf.Ln(2)
	}
	d.pdf.Ln(2)
	d.text(10, "I", closingLine)
}
