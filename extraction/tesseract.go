package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/Pranavsingh431/thermo-final/models"
)

// TesseractEngine reads the temperature overlay with a local Tesseract
// installation. A fresh client is created per call so concurrent batch
// workers never share native state.
type TesseractEngine struct {
	langs []string
}

// NewTesseractEngine creates an engine for the given language list, e.g. "eng"
// or "eng+deu".
func NewTesseractEngine(langs string) *TesseractEngine {
	return &TesseractEngine{langs: strings.Split(langs, "+")}
}

// Name returns the backend label.
func (t *TesseractEngine) Name() string {
	return "tesseract"
}

// ExtractText runs word-level recognition over the full frame.
func (t *TesseractEngine) ExtractText(ctx context.Context, imagePath string) ([]models.TextRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.langs...); err != nil {
		return nil, fmt.Errorf("failed to set tesseract languages: %w", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("failed to load image into tesseract: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract recognition failed: %w", err)
	}

	regions := make([]models.TextRegion, 0, len(boxes))
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		regions = append(regions, models.TextRegion{
			Text: word,
			// Tesseract reports confidence as 0-100.
			Confidence: box.Confidence / 100.0,
			X:          box.Box.Min.X,
			Y:          box.Box.Min.Y,
			Width:      box.Box.Dx(),
			Height:     box.Box.Dy(),
		})
	}

	return regions, nil
}
