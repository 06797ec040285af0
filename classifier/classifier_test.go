package classifier

import (
	"math"
	"testing"

	"github.com/Pranavsingh431/thermo-final/models"
)

func fptr(v float64) *float64 {
	return &v
}

func defaultThreshold() models.Threshold {
	return models.Threshold{Value: 5.0, Source: models.ThresholdDefault}
}

func TestClassify(t *testing.T) {
	c := New(DefaultPolicy())

	tests := []struct {
		name         string
		reading      *models.Reading
		match        *models.AssetMatch
		th           models.Threshold
		wantLevel    string
		wantPriority string
		wantStatus   string
		wantDelta    float64
		wantNilDelta bool
	}{
		{
			name: "field scenario over double threshold",
			reading: &models.Reading{
				ImageTemp:   fptr(44.7),
				AmbientTemp: fptr(26.8),
				Latitude:    fptr(19.03),
				Longitude:   fptr(72.90),
			},
			th:           defaultThreshold(),
			wantLevel:    models.FaultCritical,
			wantPriority: models.PriorityCritical,
			wantStatus:   models.StatusSuccess,
			wantDelta:    17.9,
		},
		{
			name: "warning band",
			reading: &models.Reading{
				ImageTemp:   fptr(34.0),
				AmbientTemp: fptr(26.8),
				Latitude:    fptr(19.03),
				Longitude:   fptr(72.90),
			},
			th:           defaultThreshold(),
			wantLevel:    models.FaultWarning,
			wantPriority: models.PriorityHigh,
			wantStatus:   models.StatusSuccess,
			wantDelta:    7.2,
		},
		{
			name: "normal band",
			reading: &models.Reading{
				ImageTemp:   fptr(30.0),
				AmbientTemp: fptr(26.8),
				Latitude:    fptr(19.03),
				Longitude:   fptr(72.90),
			},
			th:           defaultThreshold(),
			wantLevel:    models.FaultNormal,
			wantPriority: models.PriorityMedium,
			wantStatus:   models.StatusSuccess,
			wantDelta:    3.2,
		},
		{
			name:         "no temperature is unclassified, not normal",
			reading:      &models.Reading{AmbientTemp: fptr(26.8)},
			th:           defaultThreshold(),
			wantLevel:    models.FaultUnclassified,
			wantPriority: models.PriorityMedium,
			wantStatus:   models.StatusFailed,
			wantNilDelta: true,
		},
		{
			name: "missing ambient uses nominal and degrades to partial",
			reading: &models.Reading{
				ImageTemp: fptr(44.7),
				Latitude:  fptr(19.03),
				Longitude: fptr(72.90),
			},
			th:           defaultThreshold(),
			wantLevel:    models.FaultCritical,
			wantPriority: models.PriorityCritical,
			wantStatus:   models.StatusPartial,
			wantDelta:    16.2,
		},
		{
			name: "missing location is partial, never failed",
			reading: &models.Reading{
				ImageTemp:   fptr(30.0),
				AmbientTemp: fptr(26.8),
			},
			th:           defaultThreshold(),
			wantLevel:    models.FaultNormal,
			wantPriority: models.PriorityMedium,
			wantStatus:   models.StatusPartial,
			wantDelta:    3.2,
		},
		{
			name: "warning on backbone asset is urgent",
			reading: &models.Reading{
				ImageTemp:   fptr(34.0),
				AmbientTemp: fptr(26.8),
				Latitude:    fptr(19.03),
				Longitude:   fptr(72.90),
			},
			match: &models.AssetMatch{
				Tower:      &models.Tower{Name: "Kalwa T-11", VoltageKV: 400},
				DistanceKM: 0.3,
			},
			th:           defaultThreshold(),
			wantLevel:    models.FaultWarning,
			wantPriority: models.PriorityCritical,
			wantStatus:   models.StatusSuccess,
			wantDelta:    7.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.reading, tt.match, tt.th)

			if got.FaultLevel != tt.wantLevel {
				t.Errorf("Classify() fault_level = %s, want %s", got.FaultLevel, tt.wantLevel)
			}
			if got.Priority != tt.wantPriority {
				t.Errorf("Classify() priority = %s, want %s", got.Priority, tt.wantPriority)
			}
			if got.AnalysisStatus != tt.wantStatus {
				t.Errorf("Classify() analysis_status = %s, want %s", got.AnalysisStatus, tt.wantStatus)
			}
			if tt.wantNilDelta {
				if got.DeltaT != nil {
					t.Errorf("Classify() delta_t = %v, want nil", *got.DeltaT)
				}
				return
			}
			if got.DeltaT == nil {
				t.Fatalf("Classify() delta_t = nil, want %v", tt.wantDelta)
			}
			if math.Abs(*got.DeltaT-tt.wantDelta) > 1e-9 {
				t.Errorf("Classify() delta_t = %v, want %v", *got.DeltaT, tt.wantDelta)
			}
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	c := New(DefaultPolicy())
	reading := &models.Reading{
		ImageTemp:   fptr(44.7),
		AmbientTemp: fptr(26.8),
		Latitude:    fptr(19.03),
		Longitude:   fptr(72.90),
	}

	first := c.Classify(reading, nil, defaultThreshold())
	second := c.Classify(reading, nil, defaultThreshold())

	if first.FaultLevel != second.FaultLevel || first.Priority != second.Priority ||
		first.AnalysisStatus != second.AnalysisStatus || first.Summary != second.Summary {
		t.Errorf("Classify() not deterministic: %+v vs %+v", first, second)
	}
	if *first.DeltaT != *second.DeltaT {
		t.Errorf("Classify() delta_t differs: %v vs %v", *first.DeltaT, *second.DeltaT)
	}
}

func TestClassifyIndependentMultipliers(t *testing.T) {
	// With the critical band pushed out to 4x, a 3.5x delta stays WARNING in
	// severity but the wide-margin rule still escalates its priority.
	policy := DefaultPolicy()
	policy.CriticalMultiplier = 4.0
	c := New(policy)

	reading := &models.Reading{
		ImageTemp:   fptr(44.3),
		AmbientTemp: fptr(26.8),
		Latitude:    fptr(19.03),
		Longitude:   fptr(72.90),
	}

	got := c.Classify(reading, nil, defaultThreshold())
	if got.FaultLevel != models.FaultWarning {
		t.Errorf("Classify() fault_level = %s, want WARNING", got.FaultLevel)
	}
	if got.Priority != models.PriorityCritical {
		t.Errorf("Classify() priority = %s, want CRITICAL via wide margin", got.Priority)
	}
}

func TestSummaryMentionsThreshold(t *testing.T) {
	c := New(DefaultPolicy())
	reading := &models.Reading{
		ImageTemp:   fptr(44.7),
		AmbientTemp: fptr(26.8),
		Latitude:    fptr(19.03),
		Longitude:   fptr(72.90),
	}

	got := c.Classify(reading, nil, defaultThreshold())
	if got.Summary == "" {
		t.Fatalf("Classify() produced an empty summary")
	}
	want := "Delta T 17.9°C is more than double the 5.0°C threshold"
	if got.Summary != want {
		t.Errorf("Classify() summary = %q, want %q", got.Summary, want)
	}
}
