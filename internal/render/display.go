// Package render turns detection results into something a browser can show.
package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"vehicledetect/internal/model"
)

// DetectionLine is the text shown for one detected object.
func DetectionLine(d model.Detection) string {
	return fmt.Sprintf("%s (confidence: %.2f)", d.ClassName, d.Confidence)
}

// DataURI encodes img for inline use in an <img src>.
func DataURI(img image.Image, format imaging.Format) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(90)); err != nil {
		return "", fmt.Errorf("encode %s: %w", format, err)
	}

	mime := "image/png"
	if format == imaging.JPEG {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Display converts an annotated BGR buffer for the browser.
func Display(annotated Image) (*image.NRGBA, error) {
	if annotated.Order == BGR {
		annotated = ToDisplayColor(annotated)
	}
	return annotated.ToNRGBA()
}
