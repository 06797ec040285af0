package email

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Pranavsingh431/thermo-final/models"
)

const bannerHeight = 36.0

// Annotate stamps the fault verdict onto a copy of the thermal image so the
// emailed picture can be read without opening the PDF.
func Annotate(imagePath string, report *models.ThermalReport) ([]byte, error) {
	src, err := gg.LoadImage(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load image for annotation: %w", err)
	}

	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	dc := gg.NewContextForRGBA(dst)
	dc.DrawImage(src, 0, 0)

	r, g, b := bannerColor(report.FaultLevel)
	dc.SetRGBA255(r, g, b, 210)
	dc.DrawRectangle(0, 0, float64(bounds.Dx()), bannerHeight)
	dc.Fill()

	// basicfont covers ASCII only, so no degree sign here.
	label := report.FaultLevel
	if report.DeltaT != nil {
		label = fmt.Sprintf("%s  dT %.1f C", report.FaultLevel, *report.DeltaT)
	}
	addLabel(dst, label, 8, 15)
	if report.TowerName != "" {
		addLabel(dst, report.TowerName, 8, 29)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode annotated image: %w", err)
	}
	return buf.Bytes(), nil
}

// addLabel adds text to an image
func addLabel(img *image.RGBA, text string, x, y int) {
	point := fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: basicfont.Face7x13,
		Dot:  point,
	}
	d.DrawString(text)
}

func bannerColor(level string) (int, int, int) {
	switch level {
	case models.FaultCritical:
		return 220, 53, 69
	case models.FaultWarning:
		return 255, 193, 7
	case models.FaultNormal:
		return 40, 167, 69
	}
	return 108, 117, 125
}
