// Package pdf renders prescriptions as printable A4 documents.
package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/chamberdesk/chamberdesk/internal/domain/doctor"
	"github.com/chamberdesk/chamberdesk/internal/domain/visit"
)

const (
	margin   = 40.0
	lead     = 14.0
	sizeH1   = 14.0
	sizeBody = 11.0
	sizeSub  = 10.0
)

// Renderer produces prescription PDFs with fpdf.
type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// prettyTimes turns a "M+E+N" dose flag string into a readable label,
// e.g. "1+0+1" becomes "M + N".
func prettyTimes(t string) string {
	parts := strings.Split(t, "+")
	if len(parts) != 3 {
		return t
	}
	labels := []string{"M", "E", "N"}
	var out []string
	for i, p := range parts {
		if p == "1" {
			out = append(out, labels[i])
		}
	}
	return strings.Join(out, " + ")
}

func timingLabel(t string) string {
	switch t {
	case visit.TimingBefore:
		return "Before meal"
	case visit.TimingAfter:
		return "After meal"
	case visit.TimingAnytime:
		return "Anytime"
	}
	return ""
}

func formatDate(s string) string {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return orDash(s)
}

type page struct {
	doc *fpdf.Fpdf
	w   float64
	h   float64
}

func (p *page) bold(size float64)   { p.doc.SetFont("Helvetica", "B", size) }
func (p *page) normal(size float64) { p.doc.SetFont("Helvetica", "", size) }

func (p *page) text(x, y float64, s string) { p.doc.Text(x, y, s) }

func (p *page) textRight(x, y float64, s string) {
	p.doc.Text(x-p.doc.GetStringWidth(s), y, s)
}

func (p *page) line(x1, y1, x2, y2, width float64) {
	p.doc.SetDrawColor(170, 170, 170)
	p.doc.SetLineWidth(width)
	p.doc.Line(x1, y1, x2, y2)
}

func (p *page) underline(x, y float64, label string) {
	w := p.doc.GetStringWidth(label)
	p.line(x, y+3, x+w, y+3, 0.6)
}

// Render lays out a single-page prescription: the doctor letterhead on
// top, the patient banner, then a two-column body with findings on the
// left and the Rx table on the right.
func (r *Renderer) Render(rec visit.Record, doc *doctor.Profile) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, margin)
	pdf.AddPage()
	w, h := pdf.GetPageSize()
	p := &page{doc: pdf, w: w, h: h}

	pdf.SetTextColor(28, 28, 28)

	y := margin

	// Letterhead.
	headName := "-"
	if doc != nil {
		headName = doc.Name
		if len(doc.Degrees) > 0 {
			headName += ", " + strings.Join(doc.Degrees, ", ")
		}
	}
	p.bold(sizeH1)
	p.text(margin, y, headName)
	p.normal(sizeSub)

	yL := y + lead + 2
	if doc != nil {
		for _, ln := range []string{doc.Designation, doc.Specialty} {
			if strings.TrimSpace(ln) == "" {
				continue
			}
			p.text(margin, yL, ln)
			yL += lead
		}
	}

	yR := y + lead + 2
	if doc != nil {
		right := []string{}
		if doc.BMDCNo != "" {
			right = append(right, "BMDC Reg. No.: "+doc.BMDCNo)
		}
		if doc.ChamberName != "" {
			chamber := doc.ChamberName
			if doc.ChamberAddress != "" {
				chamber += ", " + doc.ChamberAddress
			}
			right = append(right, "Chamber: "+chamber)
		}
		if doc.Mobile != "" {
			right = append(right, "Phone: "+doc.Mobile)
		}
		for _, ln := range right {
			p.textRight(w-margin, yR, ln)
			yR += lead
		}
	}

	y = yL
	if yR > y {
		y = yR
	}
	y += 10
	p.line(margin, y, w-margin, y, 1.1)
	y += 14

	// Patient banner.
	p.normal(sizeBody)
	rightColX := w - margin - 360
	gap := 135.0

	p.bold(sizeBody)
	p.text(rightColX, y, "Sex:")
	p.normal(sizeBody)
	p.text(rightColX+40, y, orDash(string(rec.Sex)))
	p.bold(sizeBody)
	p.text(rightColX+gap, y, "Reg No:")
	p.normal(sizeBody)
	p.text(rightColX+gap+56, y, fmt.Sprintf("%d", rec.PUID))
	p.bold(sizeBody)
	p.text(rightColX+2*gap, y, "Mobile:")
	p.normal(sizeBody)
	p.text(rightColX+2*gap+56, y, orDash(rec.Mobile))

	y += lead + 10
	p.bold(sizeBody)
	p.text(margin, y, "Name:")
	p.normal(sizeBody)
	p.text(margin+60, y, orDash(rec.Name))

	y += lead + 10
	p.bold(sizeBody)
	p.text(rightColX, y, "Age:")
	p.normal(sizeBody)
	p.text(rightColX+40, y, fmt.Sprintf("%d", rec.Age))
	p.bold(sizeBody)
	p.text(rightColX+gap, y, "Weight:")
	p.normal(sizeBody)
	p.text(rightColX+gap+60, y, orDash(rec.Weight))
	p.bold(sizeBody)
	p.text(rightColX+2*gap, y, "Date:")
	p.normal(sizeBody)
	p.text(rightColX+2*gap+44, y, formatDate(rec.Date))

	y += lead + 10
	p.line(margin, y, w-margin, y, 1.1)
	y += 16

	// Two-column body split roughly 52/48 with a vertical rule between.
	const gutter = 24.0
	splitX := margin + float64(int((w-2*margin)*0.52))
	leftX := margin
	leftW := splitX - margin - gutter/2
	rightX := splitX + gutter/2
	rightW := w - margin - rightX

	p.line(splitX, y-24, splitX, h-margin, 0.9)

	yLeft := y
	yRight := y

	leftTitle := func(label string) {
		p.bold(sizeBody)
		p.text(leftX, yLeft, label)
		p.underline(leftX, yLeft, label)
		yLeft += lead + 4
		p.normal(sizeBody)
	}
	bullets := func(items []string) {
		usable := leftW - 14
		for _, s := range items {
			for _, ln := range pdf.SplitText("- "+s, usable) {
				p.text(leftX+14, yLeft, ln)
				yLeft += lead
			}
		}
		yLeft += 6
	}

	leftTitle("Visit No:")
	p.text(leftX+70, yLeft-(lead+4), fmt.Sprintf("%d", rec.VisitNo))

	leftTitle("C/C")
	bullets(rec.CC)

	leftTitle("O/E")
	for _, ln := range []string{
		"BP: " + orDash(rec.BP),
		"SPO2: " + orDash(rec.SpO2),
		"Pulse: " + orDash(rec.Pulse),
	} {
		p.text(leftX+14, yLeft, ln)
		yLeft += lead
	}
	if strings.TrimSpace(rec.Others) != "" {
		p.text(leftX+14, yLeft, rec.Others)
		yLeft += lead
	}
	yLeft += 6

	if len(rec.Dx) > 0 {
		leftTitle("Dx:")
		bullets(rec.Dx)
	}

	leftTitle("Reports:")
	bullets(rec.Investigations)

	leftTitle("Plan:")
	bullets(rec.Advice)

	// Rx column.
	p.bold(sizeH1)
	p.text(rightX, yRight, "Rx.")
	p.underline(rightX, yRight, "Rx.")
	yRight += lead + 8
	p.normal(sizeBody)

	for i, item := range visit.FilterRx(rec.Rx) {
		p.bold(sizeBody)
		p.text(rightX, yRight, fmt.Sprintf("%d.", i+1))
		drugLines := pdf.SplitText(orDash(item.Drug), rightW-120)
		if len(drugLines) > 0 {
			p.text(rightX+18, yRight, drugLines[0])
		}
		p.normal(sizeBody)

		if item.DurationDays > 0 {
			dur := fmt.Sprintf("- %d day", item.DurationDays)
			if item.DurationDays > 1 {
				dur += "s"
			}
			p.textRight(rightX+rightW, yRight, dur)
		}

		if len(drugLines) > 1 {
			for _, ln := range drugLines[1:] {
				yRight += lead
				p.text(rightX+18, yRight, ln)
			}
		}
		yRight += lead

		var sub []string
		if item.TimesPerDay != "" {
			sub = append(sub, prettyTimes(item.TimesPerDay))
		}
		if lbl := timingLabel(item.Timing); lbl != "" {
			sub = append(sub, lbl)
		}
		if len(sub) > 0 {
			pdf.SetTextColor(95, 95, 95)
			p.text(rightX+18, yRight, strings.Join(sub, "  |  "))
			pdf.SetTextColor(28, 28, 28)
			yRight += lead
		}
		yRight += 4
	}

	// Footer.
	p.line(margin, h-margin, w-margin, h-margin, 0.9)
	p.normal(sizeSub)
	pdf.SetTextColor(95, 95, 95)
	if rec.FollowupDays > 0 {
		note := fmt.Sprintf("Review after %d day", rec.FollowupDays)
		if rec.FollowupDays > 1 {
			note += "s"
		}
		p.textRight(w-margin, h-margin-10, note)
	}
	pdf.SetTextColor(28, 28, 28)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render prescription pdf: %w", err)
	}
	return buf.Bytes(), nil
}
