package threshold

import (
	"math"
	"testing"

	"github.com/Pranavsingh431/thermo-final/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestThreshold(t *testing.T) {
	engine := NewEngine(DefaultPolicy())

	tests := []struct {
		name       string
		match      *models.AssetMatch
		wantValue  float64
		wantSource string
	}{
		{
			name: "high voltage asset",
			match: &models.AssetMatch{
				Tower:      &models.Tower{Name: "Trombay T-01", VoltageKV: 220, CapacityAmps: 1200, AgeYears: 22},
				DistanceKM: 0.4,
			},
			// 8.0 base, age deration capped at 2.0, 1.2 for rated load.
			wantValue:  4.8,
			wantSource: models.ThresholdDynamic,
		},
		{
			name: "standard voltage asset",
			match: &models.AssetMatch{
				Tower:      &models.Tower{Name: "Versova T-03", VoltageKV: 110, CapacityAmps: 600, AgeYears: 10},
				DistanceKM: 1.1,
			},
			wantValue:  3.4,
			wantSource: models.ThresholdDynamic,
		},
		{
			name: "derations never push below the floor",
			match: &models.AssetMatch{
				Tower:      &models.Tower{Name: "Old Feeder", VoltageKV: 110, CapacityAmps: 2500, AgeYears: 30},
				DistanceKM: 0.2,
			},
			wantValue:  2.0,
			wantSource: models.ThresholdDynamic,
		},
		{
			name:       "no match falls back to default",
			match:      nil,
			wantValue:  5.0,
			wantSource: models.ThresholdDefault,
		},
		{
			name: "match too far away falls back to default",
			match: &models.AssetMatch{
				Tower:      &models.Tower{Name: "Kalwa T-11", VoltageKV: 400, CapacityAmps: 1500, AgeYears: 12},
				DistanceKM: 80,
			},
			wantValue:  5.0,
			wantSource: models.ThresholdDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Threshold(tt.match)
			if !almostEqual(got.Value, tt.wantValue) {
				t.Errorf("Threshold() value = %v, want %v", got.Value, tt.wantValue)
			}
			if got.Source != tt.wantSource {
				t.Errorf("Threshold() source = %s, want %s", got.Source, tt.wantSource)
			}
		})
	}
}

func TestThresholdRecomputedPerCall(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	tower := &models.Tower{Name: "Trombay T-01", VoltageKV: 220, CapacityAmps: 1200, AgeYears: 5}
	match := &models.AssetMatch{Tower: tower, DistanceKM: 0.4}

	first := engine.Threshold(match)

	// Specs changed between readings; the next call must see them.
	tower.AgeYears = 25
	second := engine.Threshold(match)

	if almostEqual(first.Value, second.Value) {
		t.Errorf("Threshold() = %v both times, want recomputation after spec change", first.Value)
	}
	if !almostEqual(second.Value, 4.8) {
		t.Errorf("Threshold() after spec change = %v, want 4.8", second.Value)
	}
}

func TestThresholdCustomPolicy(t *testing.T) {
	policy := DefaultPolicy()
	policy.StandardBase = 6.0
	policy.Floor = 3.0
	engine := NewEngine(policy)

	match := &models.AssetMatch{
		Tower:      &models.Tower{Name: "Versova T-03", VoltageKV: 110, CapacityAmps: 2800, AgeYears: 12},
		DistanceKM: 0.5,
	}

	got := engine.Threshold(match)
	if !almostEqual(got.Value, 3.0) {
		t.Errorf("Threshold() value = %v, want the configured floor 3.0", got.Value)
	}
}
