package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/Pranavsingh431/thermo-final/models"
)

// unitMeasure counts one width unit per rune, which makes layout arithmetic
// easy to check by hand.
func unitMeasure(s string) float64 {
	return float64(len([]rune(s)))
}

func fptr(v float64) *float64 {
	return &v
}

func sampleReport(id int64) *models.ThermalReport {
	return &models.ThermalReport{
		ID:               id,
		Timestamp:        time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
		OriginalFilename: fmt.Sprintf("FLIR%04d.jpg", id),
		AnalysisStatus:   models.StatusSuccess,
		ImageTemp:        fptr(44.7),
		AmbientTemp:      fptr(26.8),
		AmbientSource:    models.AmbientWeather,
		Latitude:         fptr(19.03312),
		Longitude:        fptr(72.90145),
		OCRConfidence:    0.91,
		OCRMethod:        "max_label",
		TowerName:        "Trombay T-01",
		CampName:         "Trombay",
		DistanceKM:       fptr(0.42),
		ThresholdUsed:    4.8,
		ThresholdSource:  models.ThresholdDynamic,
		FaultLevel:       models.FaultCritical,
		DeltaT:           fptr(17.9),
		Priority:         models.PriorityCritical,
		AISummary:        "Immediate action required on the Trombay joint.\n\nThe spot runs 17.9°C above ambient.\n\nDispatch a crew within 24 hours.",
		SummarySource:    "OpenRouter",
		ProcessingMS:     842,
	}
}

func TestLayoutColumnsContentDriven(t *testing.T) {
	header := []string{"ID", "Name"}
	rows := [][]string{
		{"1", "a much much longer tower name"},
		{"2", "short"},
	}

	widths := layoutColumns(unitMeasure, header, rows, 200)

	if len(widths) != 2 {
		t.Fatalf("expected 2 widths, got %d", len(widths))
	}
	if widths[0] != minColWidth {
		t.Errorf("narrow column should be floored at %.1f, got %.2f", minColWidth, widths[0])
	}
	// 29 runes of content plus padding on both sides.
	if want := 29 + 2*cellPadding; widths[1] != want {
		t.Errorf("wide column should follow its longest cell, want %.2f got %.2f", want, widths[1])
	}
}

func TestLayoutColumnsCap(t *testing.T) {
	header := []string{"Notes"}
	rows := [][]string{{strings.Repeat("x", 300)}}

	widths := layoutColumns(unitMeasure, header, rows, 500)

	if widths[0] != maxColWidth {
		t.Errorf("oversized column should be capped at %.1f, got %.2f", maxColWidth, widths[0])
	}
}

func TestLayoutColumnsScalesToFit(t *testing.T) {
	header := []string{"ID", "Name"}
	rows := [][]string{{"1", "a much much longer tower name"}}

	widths := layoutColumns(unitMeasure, header, rows, 30)

	total := widths[0] + widths[1]
	if total > 30+1e-9 {
		t.Fatalf("scaled table still overflows: total %.4f > 30", total)
	}
	// Proportions survive the scale-down.
	unscaled := layoutColumns(unitMeasure, header, rows, 200)
	wantRatio := unscaled[1] / unscaled[0]
	gotRatio := widths[1] / widths[0]
	if diff := wantRatio - gotRatio; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("scaling changed column proportions: want ratio %.4f, got %.4f", wantRatio, gotRatio)
	}
}

func TestLayoutColumnsDeterministic(t *testing.T) {
	header := []string{"ID", "Tower", "Status"}
	rows := [][]string{
		{"12", "Salsette T-04", "success"},
		{"13", "Kalwa T-11", "partial"},
	}

	first := layoutColumns(unitMeasure, header, rows, 100)
	second := layoutColumns(unitMeasure, header, rows, 100)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("layout not deterministic at column %d: %.6f vs %.6f", i, first[i], second[i])
		}
	}
}

func TestWrapCellKeepsAllWords(t *testing.T) {
	text := "the quick brown fox jumps"
	lines := wrapCell(unitMeasure, text, 14)

	for _, line := range lines {
		if unitMeasure(line) > 14-2*cellPadding {
			t.Errorf("line %q wider than the column", line)
		}
	}
	if got := strings.Join(lines, " "); got != text {
		t.Errorf("wrapping lost content: %q", got)
	}
}

func TestWrapCellHardSplitsLongWord(t *testing.T) {
	word := strings.Repeat("x", 25)
	lines := wrapCell(unitMeasure, word, 14)

	if len(lines) != 3 {
		t.Fatalf("expected 3 lines for a 25-rune word in 10-rune columns, got %d: %v", len(lines), lines)
	}
	if got := strings.Join(lines, ""); got != word {
		t.Errorf("hard split lost content: %q", got)
	}
}

func TestWrapCellMarksTruncation(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("word ", 20))
	lines := wrapCell(unitMeasure, text, 14)

	if len(lines) != maxCellLines {
		t.Fatalf("expected cell capped at %d lines, got %d", maxCellLines, len(lines))
	}
	last := lines[len(lines)-1]
	if !strings.HasSuffix(last, ellipsis) {
		t.Errorf("truncated cell must end with an ellipsis, got %q", last)
	}
	if unitMeasure(last) > 14-2*cellPadding {
		t.Errorf("ellipsis line %q wider than the column", last)
	}
}

func TestWrapCellEmpty(t *testing.T) {
	lines := wrapCell(unitMeasure, "   ", 20)
	if len(lines) != 1 || lines[0] != "" {
		t.Errorf("blank cell should wrap to one empty line, got %v", lines)
	}
}

func TestRenderSingle(t *testing.T) {
	out, err := NewRenderer().RenderSingle(sampleReport(7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatal("output is not a PDF document")
	}
	if len(out) < 1000 {
		t.Errorf("document suspiciously small: %d bytes", len(out))
	}
}

func TestRenderSingleUnclassified(t *testing.T) {
	report := &models.ThermalReport{
		ID:               3,
		Timestamp:        time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
		OriginalFilename: "DJI0003.jpg",
		AnalysisStatus:   models.StatusFailed,
		FaultLevel:       models.FaultUnclassified,
		Priority:         models.PriorityMedium,
		ThresholdUsed:    5.0,
		ThresholdSource:  models.ThresholdDefault,
		ErrorNotes:       "no temperature reading found in image text",
	}

	out, err := NewRenderer().RenderSingle(report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatal("output is not a PDF document")
	}
}

func TestRenderSingleNil(t *testing.T) {
	if _, err := NewRenderer().RenderSingle(nil); err == nil {
		t.Fatal("expected an error for a nil report")
	}
}

func TestRenderCombined(t *testing.T) {
	levels := []string{models.FaultNormal, models.FaultWarning, models.FaultCritical, models.FaultUnclassified}

	small := make([]models.ThermalReport, 0, 3)
	for i := int64(1); i <= 3; i++ {
		r := sampleReport(i)
		r.FaultLevel = levels[i%int64(len(levels))]
		small = append(small, *r)
	}
	large := make([]models.ThermalReport, 0, 60)
	for i := int64(1); i <= 60; i++ {
		r := sampleReport(i)
		r.FaultLevel = levels[i%int64(len(levels))]
		r.TowerName = "Extra High Voltage Transmission Corridor Tower " + strings.Repeat("X", int(i%7)*3)
		large = append(large, *r)
	}

	renderer := NewRenderer()
	smallDoc, err := renderer.RenderCombined("batch-small", small)
	if err != nil {
		t.Fatalf("unexpected error for small batch: %v", err)
	}
	largeDoc, err := renderer.RenderCombined("batch-large", large)
	if err != nil {
		t.Fatalf("unexpected error for large batch: %v", err)
	}

	if !bytes.HasPrefix(smallDoc, []byte("%PDF-")) || !bytes.HasPrefix(largeDoc, []byte("%PDF-")) {
		t.Fatal("output is not a PDF document")
	}
	if len(largeDoc) <= len(smallDoc) {
		t.Errorf("60-row document should outweigh 3-row document: %d <= %d bytes", len(largeDoc), len(smallDoc))
	}
}

func TestRenderCombinedEmpty(t *testing.T) {
	if _, err := NewRenderer().RenderCombined("batch-empty", nil); err == nil {
		t.Fatal("expected an error for an empty batch")
	}
}

func TestSafeRenderRecoversPanic(t *testing.T) {
	_, err := safeRender("P", func(pdf *gofpdf.Fpdf, tr func(string) string) {
		panic("boom")
	})
	if err == nil {
		t.Fatal("expected an error from a panicking build")
	}
	if !strings.Contains(err.Error(), "panicked") {
		t.Errorf("error should mention the panic, got %q", err)
	}
}
