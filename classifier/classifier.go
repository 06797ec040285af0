package classifier

import (
	"fmt"

	"github.com/Pranavsingh431/thermo-final/models"
)

// Policy holds the tunable classification constants. The critical multiplier
// and the wide-margin multiplier are independent knobs: the first decides the
// measured severity, the second decides when operational urgency escalates
// regardless of severity banding.
type Policy struct {
	CriticalMultiplier   float64
	WideMarginMultiplier float64

	// NominalAmbient substitutes for a missing ambient reading.
	NominalAmbient float64

	// HighVoltageKV marks backbone assets whose warnings are urgent.
	HighVoltageKV float64
}

// DefaultPolicy returns the production constants.
func DefaultPolicy() Policy {
	return Policy{
		CriticalMultiplier:   2.0,
		WideMarginMultiplier: 3.0,
		NominalAmbient:       28.5,
		HighVoltageKV:        220,
	}
}

// Classifier turns a reading plus threshold into a fault result.
type Classifier struct {
	policy Policy
}

// New creates a classifier with the given policy.
func New(policy Policy) *Classifier {
	return &Classifier{policy: policy}
}

// Classify is a pure function: the same reading, match and threshold always
// yield the same result. A reading without a temperature comes back
// UNCLASSIFIED with status failed; no fault level is ever guessed. A missing
// ambient or location degrades the status to partial, never to failed.
func (c *Classifier) Classify(reading *models.Reading, match *models.AssetMatch, th models.Threshold) models.FaultResult {
	if reading == nil || reading.ImageTemp == nil {
		return models.FaultResult{
			FaultLevel:     models.FaultUnclassified,
			Priority:       models.PriorityMedium,
			AnalysisStatus: models.StatusFailed,
			Summary:        "no temperature reading available, classification not possible",
		}
	}

	status := models.StatusSuccess

	ambient := c.policy.NominalAmbient
	if reading.AmbientTemp != nil {
		ambient = *reading.AmbientTemp
	} else {
		status = models.StatusPartial
	}
	if reading.Latitude == nil || reading.Longitude == nil {
		status = models.StatusPartial
	}

	delta := *reading.ImageTemp - ambient

	level := models.FaultNormal
	switch {
	case delta > th.Value*c.policy.CriticalMultiplier:
		level = models.FaultCritical
	case delta > th.Value:
		level = models.FaultWarning
	}

	priority := basePriority(level)
	if level == models.FaultWarning && match != nil && match.Tower != nil &&
		match.Tower.VoltageKV >= c.policy.HighVoltageKV {
		priority = models.PriorityCritical
	}
	if delta > th.Value*c.policy.WideMarginMultiplier {
		priority = models.PriorityCritical
	}

	return models.FaultResult{
		FaultLevel:     level,
		DeltaT:         &delta,
		Priority:       priority,
		AnalysisStatus: status,
		Summary:        summarize(level, delta, th.Value),
	}
}

// basePriority is the total mapping from fault level to priority. Every level
// must appear here; there is no default branch to hide a missed case.
func basePriority(level string) string {
	switch level {
	case models.FaultCritical:
		return models.PriorityCritical
	case models.FaultWarning:
		return models.PriorityHigh
	case models.FaultNormal:
		return models.PriorityMedium
	case models.FaultUnclassified:
		return models.PriorityMedium
	}
	return models.PriorityMedium
}

func summarize(level string, delta, threshold float64) string {
	switch level {
	case models.FaultCritical:
		return fmt.Sprintf("Delta T %.1f°C is more than double the %.1f°C threshold", delta, threshold)
	case models.FaultWarning:
		return fmt.Sprintf("Delta T %.1f°C exceeds the %.1f°C threshold", delta, threshold)
	default:
		return fmt.Sprintf("Delta T %.1f°C is within the %.1f°C threshold", delta, threshold)
	}
}
