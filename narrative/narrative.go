package narrative

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/apex/log"

	"github.com/Pranavsingh431/thermo-final/llm"
	"github.com/Pranavsingh431/thermo-final/models"
)

// Mode selects the narrative structure.
type Mode string

const (
	// ModeAlert is the three-paragraph urgent summary: risk, technical
	// context, required action.
	ModeAlert Mode = "alert"
	// ModeDetailed is the five-section engineering narrative embedded in
	// PDF reports.
	ModeDetailed Mode = "detailed"
)

// Source labels persisted with the narrative.
const (
	SourceRules = "rules"
)

// Generation parameters per mode.
const (
	alertMaxTokens      = 250
	alertTemperature    = 0.2
	detailedMaxTokens   = 600
	detailedTemperature = 0.3
)

var detailedSections = [5]string{
	"1. THERMAL CONDITION ANALYSIS",
	"2. ROOT CAUSE ASSESSMENT",
	"3. RISK EVALUATION",
	"4. TECHNICAL RECOMMENDATIONS",
	"5. COMPLIANCE & STANDARDS",
}

// Result carries the narrative text plus how it was produced. FallbackReason
// is empty when the provider answered with valid structure; otherwise it says
// why the deterministic template was used instead. The rule-based path cannot
// fail, so there is no error case: callers always get usable text.
type Result struct {
	Text           string
	Source         string
	FallbackReason string
}

// UsedFallback reports whether the deterministic template produced the text.
func (r Result) UsedFallback() bool {
	return r.FallbackReason != ""
}

// Generator produces narratives, preferring the configured LLM provider and
// falling back to rule-based templates that keep the same structure.
type Generator struct {
	client llm.Client
}

// New creates a generator. A nil client means rule-based generation only.
func New(client llm.Client) *Generator {
	return &Generator{client: client}
}

// Alert produces the three-paragraph summary used in critical alert emails.
func (g *Generator) Alert(ctx context.Context, report *models.ThermalReport) Result {
	return g.generate(ctx, report, ModeAlert)
}

// Detailed produces the five-section narrative for PDF reports.
func (g *Generator) Detailed(ctx context.Context, report *models.ThermalReport) Result {
	return g.generate(ctx, report, ModeDetailed)
}

func (g *Generator) generate(ctx context.Context, report *models.ThermalReport, mode Mode) Result {
	if g.client == nil {
		return fallbackResult(report, mode, "no llm provider configured")
	}

	maxTokens, temperature := alertMaxTokens, alertTemperature
	if mode == ModeDetailed {
		maxTokens, temperature = detailedMaxTokens, detailedTemperature
	}

	raw, err := g.client.Complete(ctx, buildPrompt(report, mode), maxTokens, temperature)
	if err != nil {
		log.Warnf("narrative provider failed, using rule-based fallback: %v", err)
		return fallbackResult(report, mode, err.Error())
	}

	text := Cleanup(raw)
	if !validStructure(text, mode) {
		log.Warnf("narrative provider returned malformed %s structure, using rule-based fallback", mode)
		return fallbackResult(report, mode, "provider returned malformed structure")
	}

	return Result{Text: text, Source: g.client.SourceName()}
}

func fallbackResult(report *models.ThermalReport, mode Mode, reason string) Result {
	return Result{
		Text:           Fallback(report, mode),
		Source:         SourceRules,
		FallbackReason: reason,
	}
}

const alertPromptHeader = `You are a power-transmission thermal inspection engineer writing an urgent alert summary.

Write EXACTLY 3 paragraphs separated by blank lines. Plain text only: no markdown, no headings, no lists.
Paragraph 1 states the operational risk. Paragraph 2 gives the technical context behind the measurement. Paragraph 3 states the required action with a timeframe.

Inspection data:
`

const detailedPromptHeader = `You are a power-transmission thermal inspection engineer writing a detailed condition report.

Structure the report as EXACTLY these 5 numbered sections, each starting on its own line with this exact title:
1. THERMAL CONDITION ANALYSIS
2. ROOT CAUSE ASSESSMENT
3. RISK EVALUATION
4. TECHNICAL RECOMMENDATIONS
5. COMPLIANCE & STANDARDS
Plain text only: no markdown and no formatting symbols.

Inspection data:
`

func buildPrompt(report *models.ThermalReport, mode Mode) string {
	header := alertPromptHeader
	if mode == ModeDetailed {
		header = detailedPromptHeader
	}
	return header + dataBlock(report)
}

func dataBlock(report *models.ThermalReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Fault level: %s (priority %s)\n", report.FaultLevel, report.Priority)
	fmt.Fprintf(&b, "Tower: %s\n", assetLine(report))
	fmt.Fprintf(&b, "Spot temperature: %s\n", fmtTemp(report.ImageTemp))
	fmt.Fprintf(&b, "Ambient temperature: %s (%s)\n", fmtTemp(report.AmbientTemp), ambientSource(report))
	fmt.Fprintf(&b, "Delta T: %s\n", fmtTemp(report.DeltaT))
	fmt.Fprintf(&b, "Threshold: %.1f°C (%s)\n", report.ThresholdUsed, report.ThresholdSource)
	fmt.Fprintf(&b, "Analysis status: %s\n", report.AnalysisStatus)
	return b.String()
}

var markupReplacer = strings.NewReplacer(
	"**", "",
	"###", "",
	"##", "",
	"#", "",
	"*", "",
	"_", "",
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Cleanup strips markup artifacts the provider sometimes emits and normalizes
// paragraph spacing.
func Cleanup(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = markupReplacer.Replace(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = strings.Join(lines, "\n")

	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func validStructure(text string, mode Mode) bool {
	if mode == ModeAlert {
		return len(paragraphs(text)) == 3
	}

	pos := -1
	for _, title := range detailedSections {
		idx := strings.Index(text, title)
		if idx < 0 || idx < pos {
			return false
		}
		pos = idx
	}
	return true
}

func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}

func fmtTemp(v *float64) string {
	if v == nil {
		return "unavailable"
	}
	return fmt.Sprintf("%.1f°C", *v)
}

func assetLine(report *models.ThermalReport) string {
	if report.TowerName == "" {
		return "no registered tower matched"
	}
	line := report.TowerName
	if report.CampName != "" {
		line += fmt.Sprintf(" (%s camp", report.CampName)
		if report.DistanceKM != nil {
			line += fmt.Sprintf(", %.2f km from the GPS fix", *report.DistanceKM)
		}
		line += ")"
	}
	return line
}

func ambientSource(report *models.ThermalReport) string {
	if report.AmbientSource == models.AmbientNominal {
		return "nominal constant"
	}
	if report.AmbientSource == models.AmbientWeather {
		return "weather service"
	}
	return "unknown source"
}
