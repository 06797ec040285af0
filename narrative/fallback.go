package narrative

import (
	"fmt"
	"strings"

	"github.com/Pranavsingh431/thermo-final/models"
)

type faultTexts struct {
	risk   string
	cause  string
	action string
}

// textsFor is a total mapping over fault levels; unknown values are treated
// like UNCLASSIFIED so the template never produces empty sections.
func textsFor(report *models.ThermalReport) faultTexts {
	asset := assetLine(report)
	delta := fmtTemp(report.DeltaT)
	allowed := fmt.Sprintf("%.1f°C", report.ThresholdUsed)

	switch report.FaultLevel {
	case models.FaultCritical:
		return faultTexts{
			risk: fmt.Sprintf("CRITICAL thermal fault at %s. The measured temperature rise of %s is more than double the allowed %s, which points to an active hotspot capable of progressing to joint or conductor failure.",
				asset, delta, allowed),
			cause:  "A rise of this magnitude is most often driven by increasing contact resistance in a compression joint or clamp, with corroded palm connections and strand damage as secondary candidates.",
			action: "Dispatch an inspection crew within 24 hours, re-shoot the joint under comparable load, and plan an emergency outage window if the rise persists.",
		}
	case models.FaultWarning:
		return faultTexts{
			risk: fmt.Sprintf("Developing thermal anomaly at %s. The temperature rise of %s exceeds the allowed %s and needs tracking before it grows into a critical fault.",
				asset, delta, allowed),
			cause:  "Early-stage joint degradation or uneven load sharing between conductors typically produces this signature.",
			action: "Schedule a follow-up thermal scan within two weeks and trend the delta against circuit load.",
		}
	case models.FaultNormal:
		return faultTexts{
			risk: fmt.Sprintf("No anomalous heating at %s. The temperature rise of %s sits inside the allowed %s.",
				asset, delta, allowed),
			cause:  "Measured heating is consistent with normal resistive losses at the present load.",
			action: "No corrective action required; keep the asset in the routine inspection cycle.",
		}
	default:
		return faultTexts{
			risk: fmt.Sprintf("No usable temperature could be read from the thermal image for %s, so the condition of the asset is unverified.",
				asset),
			cause:  "The capture may be missing the camera overlay, out of focus, or taken at an angle that hides the reading.",
			action: "Re-capture the image with the overlay visible and a steady camera position, then resubmit for analysis.",
		}
	}
}

// Fallback builds the deterministic narrative for a mode, keyed by fault
// level. It keeps the exact structural contract of the provider path: three
// paragraphs for alerts, the five numbered sections for detailed reports.
func Fallback(report *models.ThermalReport, mode Mode) string {
	texts := textsFor(report)
	context := technicalContext(report)

	if mode == ModeAlert {
		return strings.Join([]string{texts.risk, context, texts.action}, "\n\n")
	}

	sections := []string{
		detailedSections[0] + "\n" + context,
		detailedSections[1] + "\n" + texts.cause,
		detailedSections[2] + "\n" + riskEvaluation(report, texts),
		detailedSections[3] + "\n" + texts.action,
		detailedSections[4] + "\n" + complianceText(report),
	}
	return strings.Join(sections, "\n\n")
}

func technicalContext(report *models.ThermalReport) string {
	if report.ImageTemp == nil {
		return fmt.Sprintf("The OCR pass found no plausible temperature in the frame. Ambient reference was %s from the %s; the threshold in force was %.1f°C (%s).",
			fmtTemp(report.AmbientTemp), ambientSource(report), report.ThresholdUsed, report.ThresholdSource)
	}
	return fmt.Sprintf("Spot reading %s against ambient %s from the %s gives a delta T of %s. The threshold in force was %.1f°C (%s provenance).",
		fmtTemp(report.ImageTemp), fmtTemp(report.AmbientTemp), ambientSource(report),
		fmtTemp(report.DeltaT), report.ThresholdUsed, report.ThresholdSource)
}

func riskEvaluation(report *models.ThermalReport, texts faultTexts) string {
	return fmt.Sprintf("Maintenance priority is %s. %s", report.Priority, texts.risk)
}

func complianceText(report *models.ThermalReport) string {
	return fmt.Sprintf("Delta-T banding follows IEEE Std 1283 guidance and the utility thermal inspection procedure; the %.1f°C threshold derives from the asset's voltage class and rated capacity. Retain this record with the asset's inspection history.",
		report.ThresholdUsed)
}
