package narrative

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Pranavsingh431/thermo-final/models"
)

type fakeLLM struct {
	text           string
	err            error
	gotPrompt      string
	gotMaxTokens   int
	gotTemperature float64
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	f.gotPrompt = prompt
	f.gotMaxTokens = maxTokens
	f.gotTemperature = temperature
	return f.text, f.err
}

func (f *fakeLLM) SourceName() string {
	return "FakeProvider"
}

func fptr(v float64) *float64 {
	return &v
}

func sampleReport(level string) *models.ThermalReport {
	r := &models.ThermalReport{
		TowerName:       "Trombay T-01",
		CampName:        "Trombay",
		DistanceKM:      fptr(0.42),
		ImageTemp:       fptr(44.7),
		AmbientTemp:     fptr(26.8),
		AmbientSource:   models.AmbientWeather,
		DeltaT:          fptr(17.9),
		ThresholdUsed:   5.0,
		ThresholdSource: models.ThresholdDynamic,
		FaultLevel:      level,
		Priority:        models.PriorityCritical,
		AnalysisStatus:  models.StatusSuccess,
	}
	if level == models.FaultUnclassified {
		r.ImageTemp = nil
		r.DeltaT = nil
		r.AnalysisStatus = models.StatusFailed
		r.Priority = models.PriorityMedium
	}
	return r
}

const validAlertText = `The joint on Trombay T-01 is running dangerously hot and can fail under load.

The spot reading of 44.7°C against an ambient of 26.8°C gives a delta T of 17.9°C, well past the 5.0°C allowance for this asset.

Send a crew within 24 hours and confirm the joint under comparable load.`

func TestAlertUsesProvider(t *testing.T) {
	fake := &fakeLLM{text: validAlertText}
	g := New(fake)

	result := g.Alert(context.Background(), sampleReport(models.FaultCritical))
	if result.UsedFallback() {
		t.Fatalf("Alert() fell back unexpectedly: %s", result.FallbackReason)
	}
	if result.Source != "FakeProvider" {
		t.Errorf("Alert() source = %s, want FakeProvider", result.Source)
	}
	if got := len(paragraphs(result.Text)); got != 3 {
		t.Errorf("Alert() paragraphs = %d, want 3", got)
	}
	if !strings.Contains(fake.gotPrompt, "Trombay T-01") {
		t.Errorf("Alert() prompt missing tower context")
	}
}

func TestAlertCleansProviderMarkup(t *testing.T) {
	fake := &fakeLLM{text: "**Risk:** the joint is hot.\n\n\n\n### Context\nDelta T is 17.9°C over a 5.0°C limit.\n\nSend a crew now."}
	g := New(fake)

	result := g.Alert(context.Background(), sampleReport(models.FaultCritical))
	if result.UsedFallback() {
		t.Fatalf("Alert() fell back unexpectedly: %s", result.FallbackReason)
	}
	if strings.Contains(result.Text, "*") || strings.Contains(result.Text, "#") {
		t.Errorf("Alert() markup not stripped: %q", result.Text)
	}
	if strings.Contains(result.Text, "\n\n\n") {
		t.Errorf("Alert() blank runs not normalized: %q", result.Text)
	}
}

func TestAlertMalformedStructureFallsBack(t *testing.T) {
	fake := &fakeLLM{text: "Only one paragraph came back.\n\nAnd a second."}
	g := New(fake)

	result := g.Alert(context.Background(), sampleReport(models.FaultCritical))
	if !result.UsedFallback() {
		t.Fatalf("Alert() should fall back on malformed structure")
	}
	if result.Source != SourceRules {
		t.Errorf("Alert() source = %s, want %s", result.Source, SourceRules)
	}
	if got := len(paragraphs(result.Text)); got != 3 {
		t.Errorf("Alert() fallback paragraphs = %d, want 3", got)
	}
}

func TestAlertProviderErrorFallsBack(t *testing.T) {
	fake := &fakeLLM{err: errors.New("upstream timeout")}
	g := New(fake)

	result := g.Alert(context.Background(), sampleReport(models.FaultWarning))
	if !result.UsedFallback() {
		t.Fatalf("Alert() should fall back on provider error")
	}
	if !strings.Contains(result.FallbackReason, "upstream timeout") {
		t.Errorf("Alert() fallback reason = %q, want the provider error", result.FallbackReason)
	}
}

func TestRulesOnlyGenerator(t *testing.T) {
	g := New(nil)

	result := g.Detailed(context.Background(), sampleReport(models.FaultNormal))
	if !result.UsedFallback() {
		t.Fatalf("Detailed() without a provider must use the fallback")
	}
	if result.FallbackReason != "no llm provider configured" {
		t.Errorf("Detailed() reason = %q", result.FallbackReason)
	}
}

func TestStructuralParityAcrossPaths(t *testing.T) {
	levels := []string{models.FaultNormal, models.FaultWarning, models.FaultCritical, models.FaultUnclassified}

	for _, level := range levels {
		t.Run(level, func(t *testing.T) {
			report := sampleReport(level)

			alert := Fallback(report, ModeAlert)
			if got := len(paragraphs(alert)); got != 3 {
				t.Errorf("Fallback(alert) paragraphs = %d, want 3", got)
			}

			detailed := Fallback(report, ModeDetailed)
			pos := -1
			for _, title := range detailedSections {
				idx := strings.Index(detailed, title)
				if idx < 0 {
					t.Errorf("Fallback(detailed) missing section %q", title)
					continue
				}
				if idx < pos {
					t.Errorf("Fallback(detailed) section %q out of order", title)
				}
				pos = idx
			}
			if !validStructure(detailed, ModeDetailed) {
				t.Errorf("Fallback(detailed) fails its own structural contract")
			}
		})
	}
}

func TestGenerationParameters(t *testing.T) {
	fake := &fakeLLM{text: validAlertText}
	g := New(fake)

	g.Alert(context.Background(), sampleReport(models.FaultCritical))
	if fake.gotMaxTokens != 250 || fake.gotTemperature != 0.2 {
		t.Errorf("Alert() params = (%d, %v), want (250, 0.2)", fake.gotMaxTokens, fake.gotTemperature)
	}

	fake.text = Fallback(sampleReport(models.FaultCritical), ModeDetailed)
	g.Detailed(context.Background(), sampleReport(models.FaultCritical))
	if fake.gotMaxTokens != 600 || fake.gotTemperature != 0.3 {
		t.Errorf("Detailed() params = (%d, %v), want (600, 0.3)", fake.gotMaxTokens, fake.gotTemperature)
	}
}

func TestCleanup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bold stripped", in: "**Bold** text", want: "Bold text"},
		{name: "headings stripped", in: "### Heading\nBody", want: "Heading\nBody"},
		{name: "emphasis stripped", in: "_em_ and *star*", want: "em and star"},
		{name: "blank runs collapsed", in: "a\n\n\n\nb", want: "a\n\nb"},
		{name: "crlf normalized", in: "a\r\n\r\nb", want: "a\n\nb"},
		{name: "surrounding space trimmed", in: "  a line  \n", want: "a line"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cleanup(tt.in); got != tt.want {
				t.Errorf("Cleanup(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
