package imageproc

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/disintegration/imaging"
)

// PrepareForOCR converts buf to grayscale, stretches its luminance to the
// full 0..255 range and returns it PNG-encoded.
func PrepareForOCR(buf []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(buf), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	gray := imaging.Grayscale(src)

	lo, hi := 255, 0
	for i := 0; i < len(gray.Pix); i += 4 {
		v := int(gray.Pix[i])
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi > lo {
		span := hi - lo
		gray = imaging.AdjustFunc(gray, func(c color.NRGBA) color.NRGBA {
			v := uint8((int(c.R) - lo) * 255 / span)
			return color.NRGBA{R: v, G: v, B: v, A: c.A}
		})
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, gray, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}
