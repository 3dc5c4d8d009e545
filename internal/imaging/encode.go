package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/tkzzzzzz6/dino-x/internal/detection"
)

// EncodedImage is a PNG ready to be returned to an MCP client.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as base64 PNG.
func EncodePNG(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	b := img.Bounds()
	return &EncodedImage{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Save writes img to path. The format follows the extension (png, jpg, gif,
// tif, bmp); missing directories are created.
func Save(img image.Image, path string) error {
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return fmt.Errorf("unsupported output format %q: %w", strings.ToLower(filepath.Ext(path)), err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// MaxCropSide bounds either side of a scaled crop.
const MaxCropSide = 8192

// CropObject cuts an object's box out of img, grown by pad pixels on every
// side and clamped to the image, then scales it by scale (1 keeps the size).
// A scale that would make either side larger than MaxCropSide is an error.
func CropObject(img image.Image, box detection.BBox, pad int, scale float64) (*EncodedImage, error) {
	bounds := img.Bounds()
	o := box.Ordered()
	// Clamp in float space first so huge coordinates cannot overflow int.
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	r := image.Rect(
		int(math.Floor(clampf(o.X1, w)))-pad, int(math.Floor(clampf(o.Y1, h)))-pad,
		int(math.Ceil(clampf(o.X2, w)))+pad, int(math.Ceil(clampf(o.Y2, h)))+pad,
	).Add(bounds.Min).Intersect(bounds)
	if r.Empty() {
		return nil, fmt.Errorf("box (%g,%g)-(%g,%g) does not overlap the %dx%d image",
			box.X1, box.Y1, box.X2, box.Y2, bounds.Dx(), bounds.Dy())
	}

	cropped := imaging.Crop(img, r)

	if scale != 1.0 && scale > 0 {
		sw := float64(cropped.Bounds().Dx()) * scale
		sh := float64(cropped.Bounds().Dy()) * scale
		if sw > MaxCropSide || sh > MaxCropSide {
			return nil, fmt.Errorf("scale %g would make a %.0fx%.0f crop, limit is %d per side", scale, sw, sh, MaxCropSide)
		}
		cropped = imaging.Resize(cropped, max(1, int(sw)), max(1, int(sh)), imaging.Lanczos)
	}

	return EncodePNG(cropped)
}

// clampf limits v to one pixel beyond [0, size] on either side.
func clampf(v, size float64) float64 {
	return math.Max(-1, math.Min(v, size+1))
}
