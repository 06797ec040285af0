package models

import (
	"time"
)

// Fault levels assigned by the classifier. UNCLASSIFIED means no reading was
// available to classify, which is distinct from a reading that measured NORMAL.
const (
	FaultNormal       = "NORMAL"
	FaultWarning      = "WARNING"
	FaultCritical     = "CRITICAL"
	FaultUnclassified = "UNCLASSIFIED"
)

// Maintenance priorities, ordered from least to most urgent.
const (
	PriorityMedium   = "MEDIUM"
	PriorityHigh     = "HIGH"
	PriorityCritical = "CRITICAL"
)

// Threshold provenance values.
const (
	ThresholdDynamic = "dynamic"
	ThresholdDefault = "default"
)

// Analysis outcomes for a thermal report.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Ambient temperature provenance values.
const (
	AmbientWeather = "weather"
	AmbientNominal = "nominal"
)

// Tower represents a transmission tower from the towers table.
type Tower struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Camp         string   `json:"camp"`
	VoltageKV    float64  `json:"voltage_kv"`
	CapacityAmps float64  `json:"capacity_amps"`
	AgeYears     float64  `json:"age_years"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

// TextRegion is a single OCR detection with its position inside the source image.
type TextRegion struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// Reading holds everything extracted from one thermal image. Nil pointers mean
// the corresponding value could not be recovered, never that extraction errored.
type Reading struct {
	ImageTemp     *float64  `json:"image_temp"`
	AmbientTemp   *float64  `json:"ambient_temp"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	CaptureTime   time.Time `json:"capture_time"`
	Confidence    float64   `json:"confidence"`
	Method        string    `json:"method"`
	AmbientSource string    `json:"ambient_source"`
	RawText       []string  `json:"raw_text,omitempty"`
}

// AssetMatch ties a reading to the nearest registered tower. A nil AssetMatch
// downstream means "use the default threshold", not an error.
type AssetMatch struct {
	Tower      *Tower  `json:"tower"`
	DistanceKM float64 `json:"distance_km"`
}

// Threshold is the allowed temperature rise for an asset, with its provenance.
// Computed fresh per reading; never cached because asset specs can change.
type Threshold struct {
	Value  float64 `json:"threshold_used"`
	Source string  `json:"source"`
}

// FaultResult is the outcome of comparing a reading against a threshold.
// FaultLevel and Priority are related but independent axes.
type FaultResult struct {
	FaultLevel     string   `json:"fault_level"`
	DeltaT         *float64 `json:"delta_t"`
	Priority       string   `json:"priority"`
	AnalysisStatus string   `json:"analysis_status"`
	Summary        string   `json:"summary"`
}

// ThermalReport represents one processed image from the thermal_reports table.
type ThermalReport struct {
	ID               int64     `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	BatchID          string    `json:"batch_id,omitempty"`
	ImagePath        string    `json:"image_path"`
	OriginalFilename string    `json:"original_filename"`
	AnalysisStatus   string    `json:"analysis_status"`
	ImageTemp        *float64  `json:"image_temp"`
	AmbientTemp      *float64  `json:"ambient_temp"`
	AmbientSource    string    `json:"ambient_source,omitempty"`
	Latitude         *float64  `json:"latitude"`
	Longitude        *float64  `json:"longitude"`
	OCRConfidence    float64   `json:"ocr_confidence"`
	OCRMethod        string    `json:"ocr_method,omitempty"`
	TowerName        string    `json:"tower_name"`
	CampName         string    `json:"camp_name"`
	DistanceKM       *float64  `json:"distance_km"`
	ThresholdUsed    float64   `json:"threshold_used"`
	ThresholdSource  string    `json:"threshold_source"`
	FaultLevel       string    `json:"fault_level"`
	DeltaT           *float64  `json:"delta_t"`
	Priority         string    `json:"priority"`
	AISummary        string    `json:"ai_summary,omitempty"`
	SummarySource    string    `json:"summary_source,omitempty"`
	PDFPath          string    `json:"pdf_path,omitempty"`
	ErrorNotes       string    `json:"error_notes,omitempty"`
	ProcessingMS     int64     `json:"processing_ms"`
}

// BatchRun aggregates the outcome of one batch upload. Reports are kept in
// submission order regardless of which worker finished first.
type BatchRun struct {
	BatchID         string          `json:"batch_id"`
	Reports         []ThermalReport `json:"reports"`
	Total           int             `json:"total"`
	Critical        int             `json:"critical"`
	Warning         int             `json:"warning"`
	Normal          int             `json:"normal"`
	Failed          int             `json:"failed"`
	CombinedPDFPath string          `json:"combined_pdf_path,omitempty"`
	StartedAt       time.Time       `json:"started_at"`
	DurationMS      int64           `json:"duration_ms"`
}

// Critical reports true when the report needs an immediate alert.
func (r *ThermalReport) Critical() bool {
	return r.FaultLevel == FaultCritical
}
