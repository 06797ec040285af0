package email

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Pranavsingh431/thermo-final/models"
)

const annotatedImageName = "annotated_thermal.png"

// BuildCriticalAlert assembles the notification sent the moment a report is
// classified CRITICAL.
func BuildCriticalAlert(fromName, fromEmail string, recipients []string, report *models.ThermalReport, annotatedImage, pdfReport []byte) *Message {
	msg := &Message{
		FromName:  fromName,
		FromEmail: fromEmail,
		To:        recipients,
		Subject:   fmt.Sprintf("CRITICAL thermal fault at %s", alertLocation(report)),
		Text:      criticalAlertText(report),
		HTML:      criticalAlertHTML(report, len(annotatedImage) > 0),
	}
	if len(annotatedImage) > 0 {
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename: annotatedImageName,
			MIMEType: "image/png",
			Inline:   true,
			Content:  annotatedImage,
		})
	}
	if len(pdfReport) > 0 {
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename: fmt.Sprintf("inspection_report_%d.pdf", report.ID),
			MIMEType: "application/pdf",
			Content:  pdfReport,
		})
	}
	return msg
}

// BuildBatchSummary assembles the digest sent after every batch run.
func BuildBatchSummary(fromName, fromEmail string, recipients []string, batch *models.BatchRun, combinedPDF []byte) *Message {
	msg := &Message{
		FromName:  fromName,
		FromEmail: fromEmail,
		To:        recipients,
		Subject: fmt.Sprintf("Thermal batch summary: %d critical, %d warning of %d images",
			batch.Critical, batch.Warning, batch.Total),
		Text: batchSummaryText(batch, len(combinedPDF) > 0),
		HTML: batchSummaryHTML(batch, len(combinedPDF) > 0),
	}
	if len(combinedPDF) > 0 {
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename: fmt.Sprintf("batch_report_%s.pdf", batch.BatchID),
			MIMEType: "application/pdf",
			Content:  combinedPDF,
		})
	}
	return msg
}

// criticalAlertText returns the plain text content for critical alerts
func criticalAlertText(report *models.ThermalReport) string {
	return fmt.Sprintf(`Hello,

A thermal inspection image has been classified as a CRITICAL fault.

FAULT SUMMARY:
Tower: %s
Spot temperature: %s
Ambient temperature: %s
Delta T: %s against a %.1f°C limit
Priority: %s
Captured: %s

%s

This email contains:
- The annotated thermal image
- The PDF inspection report

Best regards,
Thermal Eye`,
		towerLine(report),
		tempLine(report.ImageTemp),
		ambientLine(report),
		tempLine(report.DeltaT),
		report.ThresholdUsed,
		report.Priority,
		report.Timestamp.Format("02 Jan 2006 15:04 MST"),
		assessmentBlock(report))
}

// criticalAlertHTML returns the HTML content for critical alerts
func criticalAlertHTML(report *models.ThermalReport, withImage bool) string {
	imageSection := ""
	if withImage {
		imageSection = fmt.Sprintf(`
    <div class="image-container">
        <h3>Annotated Thermal Image:</h3>
        <img src="cid:%s" alt="Annotated thermal image" style="max-width: 100%%; height: auto; border-radius: 5px;">
    </div>`, annotatedImageName)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Critical Thermal Fault</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .banner { background-color: #dc3545; color: #fff; padding: 20px; border-radius: 5px; margin-bottom: 20px; }
        .details-section { background-color: #e9ecef; padding: 15px; border-radius: 5px; margin: 15px 0; }
        .assessment { background-color: #fff3cd; padding: 15px; border-radius: 5px; margin: 15px 0; border-left: 4px solid #ffc107; white-space: pre-line; }
        .image-container { margin: 15px 0; }
    </style>
</head>
<body>
    <div class="banner">
        <h2>CRITICAL thermal fault</h2>
        <p>%s requires immediate inspection.</p>
    </div>

    <div class="details-section">
        <h3>Fault Details</h3>
        <p><strong>Tower:</strong> %s</p>
        <p><strong>Spot temperature:</strong> %s</p>
        <p><strong>Ambient temperature:</strong> %s</p>
        <p><strong>Delta T:</strong> %s against a %.1f°C limit</p>
        <p><strong>Priority:</strong> %s</p>
        <p><strong>Captured:</strong> %s</p>
    </div>

    <div class="assessment">%s</div>
    %s

    <p><em>The full inspection report is attached as PDF.</em></p>

    <p><em>Best regards,<br>Thermal Eye</em></p>
</body>
</html>`,
		alertLocation(report),
		towerLine(report),
		tempLine(report.ImageTemp),
		ambientLine(report),
		tempLine(report.DeltaT),
		report.ThresholdUsed,
		report.Priority,
		report.Timestamp.Format("02 Jan 2006 15:04 MST"),
		html.EscapeString(assessmentBlock(report)),
		imageSection)
}

// batchSummaryText returns the plain text content for batch digests
func batchSummaryText(batch *models.BatchRun, withPDF bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Hello,

Batch %s has finished processing.

BATCH SUMMARY:
Images processed: %d
Critical faults: %d
Warnings: %d
Normal: %d
Failed analyses: %d
Duration: %s

RESULTS:
`,
		batch.BatchID,
		batch.Total,
		batch.Critical,
		batch.Warning,
		batch.Normal,
		batch.Failed,
		(time.Duration(batch.DurationMS) * time.Millisecond).String())

	for i := range batch.Reports {
		rep := &batch.Reports[i]
		fmt.Fprintf(&b, "- %s: %s%s\n", displayName(rep), rep.FaultLevel, resultDetail(rep))
	}

	if withPDF {
		b.WriteString("\nThe combined PDF report is attached.\n")
	} else {
		b.WriteString("\nNo combined report could be produced for this batch.\n")
	}
	b.WriteString("\nBest regards,\nThermal Eye")
	return b.String()
}

// batchSummaryHTML returns the HTML content for batch digests
func batchSummaryHTML(batch *models.BatchRun, withPDF bool) string {
	var rows strings.Builder
	for i := range batch.Reports {
		rep := &batch.Reports[i]
		fmt.Fprintf(&rows, `
        <tr>
            <td>%d</td>
            <td>%s</td>
            <td>%s</td>
            <td style="color: %s; font-weight: bold;">%s</td>
            <td>%s</td>
            <td>%s</td>
        </tr>`,
			rep.ID,
			html.EscapeString(displayName(rep)),
			html.EscapeString(towerLine(rep)),
			levelColorCSS(rep.FaultLevel),
			rep.FaultLevel,
			tempLine(rep.DeltaT),
			rep.AnalysisStatus)
	}

	attachmentNote := "The combined PDF report is attached."
	if !withPDF {
		attachmentNote = "No combined report could be produced for this batch."
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Thermal Batch Summary</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .header { background-color: #f8f9fa; padding: 20px; border-radius: 5px; margin-bottom: 20px; }
        .summary-section { background-color: #e9ecef; padding: 15px; border-radius: 5px; margin: 15px 0; }
        table { border-collapse: collapse; width: 100%%; margin: 15px 0; }
        th, td { border: 1px solid #dee2e6; padding: 8px; text-align: left; font-size: 0.9em; }
        th { background-color: #343a40; color: #fff; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Thermal Batch Summary</h2>
        <p>Batch %s has finished processing.</p>
    </div>

    <div class="summary-section">
        <p><strong>Images processed:</strong> %d</p>
        <p><strong>Critical faults:</strong> %d</p>
        <p><strong>Warnings:</strong> %d</p>
        <p><strong>Normal:</strong> %d</p>
        <p><strong>Failed analyses:</strong> %d</p>
        <p><strong>Duration:</strong> %s</p>
    </div>

    <table>
        <tr>
            <th>ID</th><th>Image</th><th>Tower</th><th>Level</th><th>Delta T</th><th>Status</th>
        </tr>%s
    </table>

    <p><em>%s</em></p>

    <p><em>Best regards,<br>Thermal Eye</em></p>
</body>
</html>`,
		batch.BatchID,
		batch.Total,
		batch.Critical,
		batch.Warning,
		batch.Normal,
		batch.Failed,
		(time.Duration(batch.DurationMS) * time.Millisecond).String(),
		rows.String(),
		attachmentNote)
}

func assessmentBlock(report *models.ThermalReport) string {
	if report.AISummary == "" {
		return "An engineering assessment could not be generated for this report."
	}
	return "ASSESSMENT:\n" + report.AISummary
}

func alertLocation(report *models.ThermalReport) string {
	if report.TowerName == "" {
		return "an unmatched location"
	}
	return report.TowerName
}

func towerLine(report *models.ThermalReport) string {
	if report.TowerName == "" {
		return "no registered tower matched"
	}
	if report.DistanceKM == nil {
		return fmt.Sprintf("%s (%s camp)", report.TowerName, report.CampName)
	}
	return fmt.Sprintf("%s (%s camp, %.2f km from the GPS fix)", report.TowerName, report.CampName, *report.DistanceKM)
}

func ambientLine(report *models.ThermalReport) string {
	if report.AmbientTemp == nil {
		return "unavailable"
	}
	source := report.AmbientSource
	if source == "" {
		return fmt.Sprintf("%.1f°C", *report.AmbientTemp)
	}
	return fmt.Sprintf("%.1f°C (%s)", *report.AmbientTemp, source)
}

func tempLine(v *float64) string {
	if v == nil {
		return "unavailable"
	}
	return fmt.Sprintf("%.1f°C", *v)
}

func displayName(report *models.ThermalReport) string {
	if report.OriginalFilename != "" {
		return report.OriginalFilename
	}
	return fmt.Sprintf("report %d", report.ID)
}

// resultDetail adds the measurement, or the failure reason, after the fault
// level in the plain text digest.
func resultDetail(report *models.ThermalReport) string {
	if report.DeltaT != nil {
		return fmt.Sprintf(" (delta T %.1f°C)", *report.DeltaT)
	}
	if report.ErrorNotes != "" {
		return fmt.Sprintf(" (%s)", report.ErrorNotes)
	}
	return ""
}

// levelColorCSS returns the accent color for a fault level
func levelColorCSS(level string) string {
	switch level {
	case models.FaultCritical:
		return "#dc3545"
	case models.FaultWarning:
		return "#ffc107"
	case models.FaultNormal:
		return "#28a745"
	default:
		return "#6c757d"
	}
}
