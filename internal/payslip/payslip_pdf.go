package payslip

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	pdfPageWidth  = 595
	pdfPageHeight = 842
	pdfLeading    = 16
)

// pdfDocument is a single-page Courier text document. Payslips never span
// more than one page.
type pdfDocument struct {
	lines []string
}

func (d *pdfDocument) line(format string, args ...any) {
	d.lines = append(d.lines, fmt.Sprintf(format, args...))
}

func (d *pdfDocument) row(label, value string) {
	d.line("%-32s %16s", label, value)
}

func (d *pdfDocument) blank() {
	d.lines = append(d.lines, "")
}

func (d *pdfDocument) bytes() []byte {
	var content strings.Builder
	fmt.Fprintf(&content, "BT\n/F1 11 Tf\n%d TL\n50 %d Td\n", pdfLeading, pdfPageHeight-60)
	for i, l := range d.lines {
		if i > 0 {
			content.WriteString("T* ")
		}
		fmt.Fprintf(&content, "(%s) Tj\n", pdfEscape(l))
	}
	content.WriteString("ET")
	stream := content.String()

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>", pdfPageWidth, pdfPageHeight),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Courier >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF", len(objects)+1, xref)
	return out.Bytes()
}

func pdfEscape(v string) string {
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(v)
}

// RenderPDF lays out a payslip as a printable statement.
func RenderPDF(p PayslipResponse) []byte {
	var d pdfDocument
	d.line("PAYSLIP %04d-%02d", p.Year, p.Month)
	d.line("Employee %s", p.EmployeeID)
	d.line("Status   %s", p.Status)
	d.blank()

	b := p.Breakdown
	d.row("Basic", b.MonthlyBasic)
	d.row("HRA", b.MonthlyHRA)
	for _, a := range p.Allowances {
		d.row(a.Label, a.Amount)
	}
	d.row("Total payable", b.TotalPayable)
	d.blank()

	for _, ded := range p.Deductions {
		label := ded.Label
		if ded.Synthetic {
			label = fmt.Sprintf("%s (%d of %d days)", ded.Label, b.LOPDays, b.DaysInMonth)
		}
		d.row(label, ded.Amount)
	}
	d.row("Pre-tax", b.PreTax)
	d.row(fmt.Sprintf("Tax @ %s%%", b.TaxPercent), b.Tax)
	d.blank()
	d.row("NET PAY", p.Net)
	return d.bytes()
}

func pdfFilename(p PayslipResponse) string {
	return fmt.Sprintf("payslip_%s_%04d_%02d.pdf", p.EmployeeID, p.Year, p.Month)
}
