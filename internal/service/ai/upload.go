package ai

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// AllowedExtensions are the upload types the page accepts.
var AllowedExtensions = []string{"jpg", "jpeg", "png"}

// AcceptAttribute is the value for the file input's accept attribute.
func AcceptAttribute() string {
	exts := make([]string, len(AllowedExtensions))
	for i, e := range AllowedExtensions {
		exts[i] = "." + e
	}
	return strings.Join(exts, ",")
}

// CheckExtension rejects anything but jpg, jpeg and png.
func CheckExtension(filename string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedFormat, filename, strings.Join(AllowedExtensions, ", "))
}

// DecodeUpload checks the extension and decodes the bytes, applying the
// EXIF orientation so phone photos show upright. Images declaring more than
// maxPixels pixels are rejected from the header alone; maxPixels <= 0
// disables the check.
func DecodeUpload(filename string, data []byte, maxPixels int64) (image.Image, error) {
	if err := CheckExtension(filename); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &DecodeError{Filename: filename, Err: fmt.Errorf("empty file")}
	}

	if maxPixels > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, &DecodeError{Filename: filename, Err: err}
		}
		if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
			return nil, &DecodeError{
				Filename: filename,
				Err:      fmt.Errorf("%w: %dx%d (limit %d)", ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels),
			}
		}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Filename: filename, Err: err}
	}
	return img, nil
}
