package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/jung-kurt/gofpdf"

	"github.com/Pranavsingh431/thermo-final/models"
)

const bottomMargin = 15.0

// Renderer produces PDF documents for inspection reports. Methods return the
// document bytes; callers decide where they are stored.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderSingle produces the full document for one report. If the rich layout
// fails, a minimal key/value document is produced instead, so a stored report
// always has a printable artifact.
func (r *Renderer) RenderSingle(report *models.ThermalReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("no report to render")
	}
	out, err := safeRender("P", func(pdf *gofpdf.Fpdf, tr func(string) string) {
		buildSingle(pdf, tr, report)
	})
	if err == nil {
		return out, nil
	}
	log.Warnf("rich render failed for report %d, producing minimal document: %v", report.ID, err)
	return safeRender("P", func(pdf *gofpdf.Fpdf, tr func(string) string) {
		buildMinimal(pdf, tr, fmt.Sprintf("Thermal Inspection Report #%d", report.ID), reportPairs(report))
	})
}

// RenderCombined produces the batch document: a summary line followed by one
// table row per report, in the order given.
func (r *Renderer) RenderCombined(batchID string, reports []models.ThermalReport) ([]byte, error) {
	if len(reports) == 0 {
		return nil, fmt.Errorf("no reports to render")
	}
	out, err := safeRender("L", func(pdf *gofpdf.Fpdf, tr func(string) string) {
		buildCombined(pdf, tr, batchID, reports)
	})
	if err == nil {
		return out, nil
	}
	log.Warnf("rich render failed for batch %s, producing minimal document: %v", batchID, err)
	pairs := make([][2]string, 0, len(reports))
	for _, rep := range reports {
		pairs = append(pairs, [2]string{
			fmt.Sprintf("Report %d", rep.ID),
			fmt.Sprintf("%s, priority %s, %s", rep.FaultLevel, dash(rep.Priority), rep.AnalysisStatus),
		})
	}
	return safeRender("P", func(pdf *gofpdf.Fpdf, tr func(string) string) {
		buildMinimal(pdf, tr, "Batch Thermal Inspection Report "+batchID, pairs)
	})
}

// safeRender runs build against a fresh document and returns the serialized
// bytes. Panics inside build become errors so one malformed report cannot
// take down a whole batch.
func safeRender(orientation string, build func(pdf *gofpdf.Fpdf, tr func(string) string)) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf render panicked: %v", r)
		}
	}()

	pdf := gofpdf.New(orientation, "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.AddPage()
	build(pdf, tr)

	if pdf.Err() {
		return nil, fmt.Errorf("pdf render failed: %w", pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func buildSingle(pdf *gofpdf.Fpdf, tr func(string) string, report *models.ThermalReport) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("Thermal Inspection Report #%d", report.ID)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 5, tr("Captured "+report.Timestamp.Format("02 Jan 2006 15:04 MST")), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(3)

	cr, cg, cb := levelStyle(report.FaultLevel)
	pdf.SetFillColor(cr, cg, cb)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 12)
	banner := report.FaultLevel
	if report.DeltaT != nil {
		banner = fmt.Sprintf("%s, Delta T %.1f°C against a %.1f°C limit", report.FaultLevel, *report.DeltaT, report.ThresholdUsed)
	}
	pdf.CellFormat(0, 10, tr(banner), "", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	drawTable(pdf, tr, []string{"Field", "Value"}, pairsToRows(reportPairs(report)))

	if report.AISummary != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, tr("Assessment"), "", 1, "L", false, 0, "")
		if report.SummarySource != "" {
			pdf.SetFont("Helvetica", "I", 8)
			pdf.SetTextColor(120, 120, 120)
			pdf.CellFormat(0, 4, tr("Generated by "+report.SummarySource), "", 1, "L", false, 0, "")
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 4.5, tr(report.AISummary), "", "L", false)
	}
}

func buildCombined(pdf *gofpdf.Fpdf, tr func(string) string, batchID string, reports []models.ThermalReport) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Batch Thermal Inspection Report"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Batch %s, generated %s", batchID, time.Now().Format("02 Jan 2006 15:04 MST"))), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	var critical, warning, normal, failed int
	for _, rep := range reports {
		if rep.AnalysisStatus == models.StatusFailed {
			failed++
		}
		switch rep.FaultLevel {
		case models.FaultCritical:
			critical++
		case models.FaultWarning:
			warning++
		case models.FaultNormal:
			normal++
		}
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("%d reports: %d critical, %d warning, %d normal, %d failed",
		len(reports), critical, warning, normal, failed)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	header := []string{"ID", "Image", "Tower", "Camp", "Spot", "Ambient", "Delta T", "Limit", "Level", "Priority", "Status"}
	rows := make([][]string, 0, len(reports))
	for _, rep := range reports {
		rows = append(rows, []string{
			fmt.Sprintf("%d", rep.ID),
			dash(rep.OriginalFilename),
			dash(rep.TowerName),
			dash(rep.CampName),
			cellTemp(rep.ImageTemp),
			cellTemp(rep.AmbientTemp),
			cellTemp(rep.DeltaT),
			fmt.Sprintf("%.1f°C", rep.ThresholdUsed),
			rep.FaultLevel,
			dash(rep.Priority),
			rep.AnalysisStatus,
		})
	}
	drawTable(pdf, tr, header, rows)
}

// buildMinimal writes a bare key/value listing, the document of last resort
// when the rich layout cannot be produced.
func buildMinimal(pdf *gofpdf.Fpdf, tr func(string) string, title string, pairs [][2]string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 9, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	for _, kv := range pairs {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(50, 6, tr(kv[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 6, tr(kv[1]), "", "L", false)
	}
}

// drawTable renders a bordered table at the current position, repeating the
// header row at the top of every page it spills onto.
func drawTable(pdf *gofpdf.Fpdf, tr func(string) string, header []string, rows [][]string) {
	pdf.SetFont("Helvetica", "", 8)
	measure := func(s string) float64 { return pdf.GetStringWidth(tr(s)) }

	pageW, pageH := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	widths := layoutColumns(measure, header, rows, pageW-left-right)
	limit := pageH - bottomMargin

	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(52, 58, 64)
		pdf.SetTextColor(255, 255, 255)
		for i, h := range header {
			pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(7)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 8)
	}
	drawHeader()

	for _, row := range rows {
		wrapped := make([][]string, len(widths))
		maxLines := 1
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			wrapped[i] = wrapCell(measure, cell, widths[i])
			if n := len(wrapped[i]); n > maxLines {
				maxLines = n
			}
		}
		rowHeight := float64(maxLines) * lineHeight

		if pdf.GetY()+rowHeight > limit {
			pdf.AddPage()
			drawHeader()
		}

		x := left
		y := pdf.GetY()
		for i, lines := range wrapped {
			pdf.Rect(x, y, widths[i], rowHeight, "D")
			for j, line := range lines {
				pdf.SetXY(x+cellPadding, y+float64(j)*lineHeight)
				pdf.CellFormat(widths[i]-2*cellPadding, lineHeight, tr(line), "", 0, "L", false, 0, "")
			}
			x += widths[i]
		}
		pdf.SetXY(left, y+rowHeight)
	}
}

// levelStyle maps a fault level to its banner colour. Unknown levels take the
// unclassified grey.
func levelStyle(level string) (int, int, int) {
	switch level {
	case models.FaultCritical:
		return 220, 53, 69
	case models.FaultWarning:
		return 255, 193, 7
	case models.FaultNormal:
		return 40, 167, 69
	}
	return 108, 117, 125
}

func reportPairs(report *models.ThermalReport) [][2]string {
	pairs := [][2]string{
		{"Report ID", fmt.Sprintf("%d", report.ID)},
		{"Captured", report.Timestamp.Format("2006-01-02 15:04:05 MST")},
		{"Source image", dash(report.OriginalFilename)},
		{"Analysis status", report.AnalysisStatus},
		{"Fault level", report.FaultLevel},
		{"Priority", dash(report.Priority)},
		{"Spot temperature", cellTemp(report.ImageTemp)},
		{"Ambient temperature", ambientCell(report)},
		{"Delta T", cellTemp(report.DeltaT)},
		{"Threshold", fmt.Sprintf("%.1f°C (%s)", report.ThresholdUsed, report.ThresholdSource)},
		{"Tower", towerCell(report)},
		{"GPS fix", gpsCell(report)},
		{"Text extraction", ocrCell(report)},
	}
	if report.BatchID != "" {
		pairs = append(pairs, [2]string{"Batch", report.BatchID})
	}
	if report.ProcessingMS > 0 {
		pairs = append(pairs, [2]string{"Processing time", fmt.Sprintf("%d ms", report.ProcessingMS)})
	}
	if report.ErrorNotes != "" {
		pairs = append(pairs, [2]string{"Notes", report.ErrorNotes})
	}
	return pairs
}

func pairsToRows(pairs [][2]string) [][]string {
	rows := make([][]string, len(pairs))
	for i, kv := range pairs {
		rows[i] = []string{kv[0], kv[1]}
	}
	return rows
}

func ambientCell(report *models.ThermalReport) string {
	if report.AmbientTemp == nil {
		return "-"
	}
	if report.AmbientSource == "" {
		return fmt.Sprintf("%.1f°C", *report.AmbientTemp)
	}
	return fmt.Sprintf("%.1f°C (%s)", *report.AmbientTemp, report.AmbientSource)
}

func towerCell(report *models.ThermalReport) string {
	if report.TowerName == "" {
		return "no registered tower within range"
	}
	if report.DistanceKM == nil {
		return fmt.Sprintf("%s (%s camp)", report.TowerName, report.CampName)
	}
	return fmt.Sprintf("%s (%s camp, %.2f km away)", report.TowerName, report.CampName, *report.DistanceKM)
}

func gpsCell(report *models.ThermalReport) string {
	if report.Latitude == nil || report.Longitude == nil {
		return "unavailable"
	}
	return fmt.Sprintf("%.6f, %.6f", *report.Latitude, *report.Longitude)
}

func ocrCell(report *models.ThermalReport) string {
	if report.OCRMethod == "" {
		return "-"
	}
	return fmt.Sprintf("%s (confidence %.2f)", report.OCRMethod, report.OCRConfidence)
}

func cellTemp(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f°C", *v)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
