package threshold

import (
	"github.com/Pranavsingh431/thermo-final/models"
)

// Policy holds the tunable coefficients for dynamic thresholds. Higher-rated
// equipment runs hotter before it is anomalous; ageing and rated load both eat
// into the allowance. Keeping the numbers here lets operations retune per
// equipment class without touching classification logic.
type Policy struct {
	// HighVoltageKV is the rating at or above which HighVoltageBase applies.
	HighVoltageKV   float64
	HighVoltageBase float64
	StandardBase    float64

	// AgeDerationPerYear shrinks the allowance as the asset ages, capped at
	// MaxAgeDeration.
	AgeDerationPerYear float64
	MaxAgeDeration     float64

	// LoadDerationPerKA is subtracted per 1000 A of rated capacity.
	LoadDerationPerKA float64

	// Floor is the minimum dynamic threshold regardless of derations.
	Floor float64

	// Default applies when no asset match is usable.
	Default float64

	// MaxMatchKM bounds how far a matched tower may be before the match is
	// considered stale and the default applies instead.
	MaxMatchKM float64
}

// DefaultPolicy returns the production coefficients.
func DefaultPolicy() Policy {
	return Policy{
		HighVoltageKV:      220,
		HighVoltageBase:    8.0,
		StandardBase:       5.0,
		AgeDerationPerYear: 0.1,
		MaxAgeDeration:     2.0,
		LoadDerationPerKA:  1.0,
		Floor:              2.0,
		Default:            5.0,
		MaxMatchKM:         50,
	}
}

// Engine derives per-asset anomaly thresholds from a policy.
type Engine struct {
	policy Policy
}

// NewEngine creates a threshold engine with the given policy.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Threshold returns the allowed temperature rise for a matched asset. The
// value is computed fresh on every call; asset specs can change between
// readings, so results are never cached. A nil or out-of-range match yields
// the default threshold with provenance marked accordingly.
func (e *Engine) Threshold(match *models.AssetMatch) models.Threshold {
	if match == nil || match.Tower == nil || match.DistanceKM > e.policy.MaxMatchKM {
		return models.Threshold{Value: e.policy.Default, Source: models.ThresholdDefault}
	}

	tower := match.Tower

	base := e.policy.StandardBase
	if tower.VoltageKV >= e.policy.HighVoltageKV {
		base = e.policy.HighVoltageBase
	}

	ageDeration := tower.AgeYears * e.policy.AgeDerationPerYear
	if ageDeration > e.policy.MaxAgeDeration {
		ageDeration = e.policy.MaxAgeDeration
	}

	loadDeration := tower.CapacityAmps / 1000 * e.policy.LoadDerationPerKA

	value := base - ageDeration - loadDeration
	if value < e.policy.Floor {
		value = e.policy.Floor
	}

	return models.Threshold{Value: value, Source: models.ThresholdDynamic}
}
