package extraction

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// ReadEXIF returns the GPS fix and capture time embedded in the image. Either
// part may be absent: coordinates come back nil when there is no GPS block,
// and the capture time is zero when the tag is missing.
func ReadEXIF(imagePath string) (lat, lon *float64, captured time.Time, err error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	meta, err := exif.Decode(f)
	if err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("failed to decode exif: %w", err)
	}

	if latitude, longitude, gpsErr := meta.LatLong(); gpsErr == nil {
		la := roundCoord(latitude)
		lo := roundCoord(longitude)
		lat, lon = &la, &lo
	}

	if dt, dtErr := meta.DateTime(); dtErr == nil {
		captured = dt.UTC()
	}

	return lat, lon, captured, nil
}

// roundCoord keeps six decimal places, about 0.1m of precision.
func roundCoord(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
