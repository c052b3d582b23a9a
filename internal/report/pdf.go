package report

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"example.com/canconv/internal/convert"
)

// PDFOptions adds optional content to the batch PDF.
type PDFOptions struct {
	// ManifestDigest, when set, is printed and embedded as a QR code.
	ManifestDigest string
}

// SaveBatchPDF renders a batch result into a PDF document.
func SaveBatchPDF(rep convert.BatchResult, out string, opts PDFOptions) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("CAN Conversion Report", false)
	pdf.SetAuthor("canconvctl", false)
	pdf.SetCreator("canconvctl", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	addPDFTitle(pdf, "CAN Conversion Report")
	addSummarySection(pdf, rep)
	if opts.ManifestDigest != "" {
		if err := addManifestSection(pdf, opts.ManifestDigest); err != nil {
			return err
		}
	}
	addFilesSection(pdf, rep.Files)
	addFailuresSection(pdf, rep.Files)

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(out)
}

func addPDFTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)
}

func addSummarySection(pdf *gofpdf.Fpdf, rep convert.BatchResult) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	rows, frames, degraded := 0, 0, 0
	for _, f := range rep.Files {
		rows += f.Rows
		frames += f.Frames
		degraded += f.Degraded
	}
	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: "Started", value: formatTime(rep.StartedAt)},
		{label: "Input Directory", value: emptyFallback(rep.InputDir, "-")},
		{label: "Output Directory", value: emptyFallback(rep.OutputDir, "-")},
		{label: "Format", value: emptyFallback(rep.Format, "-")},
		{label: "Files Converted", value: strconv.Itoa(rep.Converted)},
		{label: "Files Failed", value: strconv.Itoa(rep.Failed)},
		{label: "Frames Written", value: strconv.Itoa(frames)},
		{label: "Rows Read", value: strconv.Itoa(rows)},
		{label: "Degraded Rows", value: strconv.Itoa(degraded)},
	}
	for _, item := range items {
		pdf.CellFormat(50, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func addManifestSection(pdf *gofpdf.Fpdf, digest string) error {
	png, err := DigestQR(digest, 256)
	if err != nil {
		return err
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Output Manifest")
	pdf.Ln(8)

	opt := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("manifest-qr", opt, bytes.NewReader(png))
	x, y := pdf.GetXY()
	pdf.ImageOptions("manifest-qr", x, y, 30, 30, false, opt, 0, "")
	pdf.SetXY(x+34, y+10)
	pdf.SetFont("Courier", "", 8)
	pdf.MultiCell(0, 4, "SHA-256 "+strings.ToLower(strings.TrimSpace(digest)), "", "L", false)
	pdf.SetXY(x, y+34)
	return nil
}

func addFilesSection(pdf *gofpdf.Fpdf, files []convert.Result) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Files")
	pdf.Ln(9)

	if len(files) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, "No CSV files found.", "", "L", false)
		return
	}

	headers := []string{"Input", "Output", "Layout", "Frames", "Degraded", "Status"}
	widths := []float64{44, 50, 26, 20, 20, 20}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, f := range files {
		values := []string{
			filepath.Base(f.Input),
			baseOrDash(f.Output),
			emptyFallback(f.Layout, "-"),
			strconv.Itoa(f.Frames),
			strconv.Itoa(f.Degraded),
			statusLabel(f.OK()),
		}
		renderTableRow(pdf, widths, values, 5)
	}
	pdf.Ln(4)
}

func addFailuresSection(pdf *gofpdf.Fpdf, files []convert.Result) {
	var failed []convert.Result
	for _, f := range files {
		if !f.OK() {
			failed = append(failed, f)
		}
	}
	if len(failed) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Failures")
	pdf.Ln(9)
	for i, f := range failed {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(0, 5, fmt.Sprintf("%d. %s", i+1, f.Input), "", "L", false)
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 4, f.Error, "", "L", false)
		pdf.Ln(2)
	}
}

func renderTableRow(pdf *gofpdf.Fpdf, widths []float64, values []string, lineHeight float64) {
	xStart := pdf.GetX()
	yStart := pdf.GetY()
	maxLines := 1
	splitCols := make([][]string, len(values))
	for i, val := range values {
		text := strings.TrimSpace(val)
		if text == "" {
			text = "-"
		}
		lines := pdf.SplitText(text, widths[i]-2)
		if len(lines) == 0 {
			lines = []string{""}
		}
		splitCols[i] = lines
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	rowHeight := float64(maxLines) * lineHeight
	x := xStart
	for i, lines := range splitCols {
		pdf.SetXY(x, yStart)
		pdf.MultiCell(widths[i], lineHeight, strings.Join(lines, "\n"), "1", "L", false)
		x += widths[i]
	}
	pdf.SetXY(xStart, yStart+rowHeight)
}

func statusLabel(ok bool) string {
	if ok {
		return "OK"
	}
	return "FAILED"
}

func baseOrDash(path string) string {
	if strings.TrimSpace(path) == "" {
		return "-"
	}
	return filepath.Base(path)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func emptyFallback(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
