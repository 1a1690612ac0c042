package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrUndecodable is returned for input that no registered decoder accepts.
var ErrUndecodable = errors.New("image cannot be decoded")

// Options drives the (width, quality) search.
type Options struct {
	TargetBytes  int
	StartWidth   int
	MinWidth     int
	WidthStep    int
	StartQuality int
	MinQuality   int
	QualityStep  int
}

func DefaultOptions() Options {
	return Options{
		TargetBytes:  100 * 1024,
		StartWidth:   1000,
		MinWidth:     200,
		WidthStep:    100,
		StartQuality: 80,
		MinQuality:   30,
		QualityStep:  10,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TargetBytes <= 0 {
		o.TargetBytes = d.TargetBytes
	}
	if o.StartWidth <= 0 {
		o.StartWidth = d.StartWidth
	}
	if o.MinWidth <= 0 || o.MinWidth > o.StartWidth {
		o.MinWidth = min(d.MinWidth, o.StartWidth)
	}
	if o.WidthStep <= 0 {
		o.WidthStep = d.WidthStep
	}
	if o.StartQuality <= 0 || o.StartQuality > 100 {
		o.StartQuality = d.StartQuality
	}
	if o.MinQuality <= 0 || o.MinQuality > o.StartQuality {
		o.MinQuality = min(d.MinQuality, o.StartQuality)
	}
	if o.QualityStep <= 0 {
		o.QualityStep = d.QualityStep
	}
	return o
}

// Compress re-encodes buf as JPEG, walking widths then qualities downwards,
// and returns the first encoding within TargetBytes. When nothing fits it
// returns the last encoding tried. The result is never larger than buf: if
// the encoder cannot beat the input, the input is returned unchanged.
// Images are never upscaled and keep their aspect ratio.
func Compress(buf []byte, opts Options) ([]byte, error) {
	opts = opts.withDefaults()

	src, err := imaging.Decode(bytes.NewReader(buf), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	var best []byte
	for width := opts.StartWidth; width >= opts.MinWidth; width -= opts.WidthStep {
		resized := fitWidth(src, width)
		for q := opts.StartQuality; q >= opts.MinQuality; q -= opts.QualityStep {
			var out bytes.Buffer
			if err := imaging.Encode(&out, resized, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
				return nil, fmt.Errorf("encode jpeg w=%d q=%d: %w", width, q, err)
			}
			best = out.Bytes()
			if len(best) <= opts.TargetBytes {
				return smaller(best, buf), nil
			}
		}
	}
	return smaller(best, buf), nil
}

// fitWidth shrinks img to width, keeping the ratio. Narrower images pass through.
func fitWidth(img image.Image, width int) image.Image {
	if img.Bounds().Dx() <= width {
		return img
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

func smaller(candidate, original []byte) []byte {
	if candidate == nil || len(candidate) > len(original) {
		return original
	}
	return candidate
}
