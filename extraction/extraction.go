package extraction

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/Pranavsingh431/thermo-final/models"
)

// Engine abstracts the OCR backend used to read the temperature overlay.
// Implementations must be safe for concurrent use across batch workers.
type Engine interface {
	// ExtractText returns every text detection in the image with pixel
	// coordinates relative to the full frame.
	ExtractText(ctx context.Context, imagePath string) ([]models.TextRegion, error)
	// Name returns a short backend label for logs and metrics.
	Name() string
}

// ErrNoTemperature is returned when no plausible temperature reading survives
// confidence and range filtering.
var ErrNoTemperature = errors.New("no plausible temperature found in image")

// Thermal cameras stamp the reading between 20 and 80 degrees for the
// equipment we inspect; anything outside is OCR noise.
const (
	minConfidence = 0.4
	plausibleMin  = 20.0
	plausibleMax  = 80.0
)

var tempPattern = regexp.MustCompile(`\d{1,3}(\.\d{1,2})?`)

// Extractor turns one thermal image into a Reading.
type Extractor struct {
	engine Engine
}

// NewExtractor creates an extractor backed by the given OCR engine.
func NewExtractor(engine Engine) *Extractor {
	return &Extractor{engine: engine}
}

// Extract pulls the temperature reading and GPS fix out of a thermal image.
// It always returns a usable Reading; fields that could not be recovered stay
// nil and the error describes what was missed. Callers decide whether a nil
// field is fatal.
func (e *Extractor) Extract(ctx context.Context, imagePath string) (*models.Reading, error) {
	reading := &models.Reading{CaptureTime: time.Now().UTC()}

	lat, lon, captured, err := ReadEXIF(imagePath)
	if err != nil {
		log.Debugf("no usable EXIF in %s: %v", imagePath, err)
	} else {
		reading.Latitude = lat
		reading.Longitude = lon
		if !captured.IsZero() {
			reading.CaptureTime = captured
		}
	}

	width, height := imageBounds(imagePath)

	regions, err := e.engine.ExtractText(ctx, imagePath)
	if err != nil {
		return reading, fmt.Errorf("text extraction failed: %w", err)
	}
	for _, r := range regions {
		reading.RawText = append(reading.RawText, r.Text)
	}

	value, method, confidence := pickTemperature(regions, width, height)
	if value == nil {
		return reading, ErrNoTemperature
	}
	reading.ImageTemp = value
	reading.Method = method
	reading.Confidence = confidence

	return reading, nil
}

type candidate struct {
	value      float64
	confidence float64
	region     models.TextRegion
}

// pickTemperature selects the most trustworthy reading among all detections.
// Preference order: value next to a "Max" label, value carrying a degree mark,
// value in the top-right quadrant (where the overlay normally sits), then the
// highest-confidence plausible value.
func pickTemperature(regions []models.TextRegion, width, height int) (*float64, string, float64) {
	candidates := plausibleCandidates(regions)
	if len(candidates) == 0 {
		return nil, "", 0
	}

	if c := nearMaxLabel(candidates, regions); c != nil {
		return &c.value, "max_label", c.confidence
	}
	if c := degreeMarked(candidates); c != nil {
		return &c.value, "degree_mark", c.confidence
	}
	if width > 0 && height > 0 {
		if c := topRightQuadrant(candidates, width, height); c != nil {
			return &c.value, "top_right", c.confidence
		}
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.confidence > best.confidence {
			best = c
		}
	}
	return &best.value, "best_confidence", best.confidence
}

func plausibleCandidates(regions []models.TextRegion) []candidate {
	var out []candidate
	for _, r := range regions {
		if r.Confidence < minConfidence {
			continue
		}
		value, ok := parseCelsius(r.Text)
		if !ok || value < plausibleMin || value > plausibleMax {
			continue
		}
		out = append(out, candidate{value: value, confidence: r.Confidence, region: r})
	}
	return out
}

// parseCelsius extracts the first number from an OCR token, tolerating stray
// characters around the digits, and converts Fahrenheit readings to Celsius.
func parseCelsius(text string) (float64, bool) {
	match := tempPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	if strings.Contains(strings.ToUpper(text), "F") || strings.Contains(text, "℉") {
		value = math.Round((value-32)*5/9*100) / 100
	}
	return value, true
}

func nearMaxLabel(candidates []candidate, regions []models.TextRegion) *candidate {
	for _, label := range regions {
		if !strings.Contains(strings.ToLower(label.Text), "max") {
			continue
		}
		// The label region may carry the value itself ("Max: 44.7").
		for i := range candidates {
			if candidates[i].region == label {
				return &candidates[i]
			}
		}
		// Otherwise take the nearest value on the same text line, to the right.
		var best *candidate
		bestGap := 0
		for i := range candidates {
			c := &candidates[i]
			if !sameLine(c.region, label) || c.region.X < label.X {
				continue
			}
			gap := c.region.X - (label.X + label.Width)
			if best == nil || gap < bestGap {
				best = c
				bestGap = gap
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

func sameLine(a, b models.TextRegion) bool {
	return a.Y < b.Y+b.Height && a.Y+a.Height > b.Y
}

func degreeMarked(candidates []candidate) *candidate {
	for i := range candidates {
		if strings.ContainsAny(candidates[i].region.Text, "°℃℉") {
			return &candidates[i]
		}
	}
	return nil
}

func topRightQuadrant(candidates []candidate, width, height int) *candidate {
	var best *candidate
	for i := range candidates {
		c := &candidates[i]
		centerX := c.region.X + c.region.Width/2
		centerY := c.region.Y + c.region.Height/2
		if centerX <= width/2 || centerY >= height/2 {
			continue
		}
		if best == nil || c.confidence > best.confidence {
			best = c
		}
	}
	return best
}

func imageBounds(imagePath string) (int, int) {
	f, err := os.Open(imagePath)
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
