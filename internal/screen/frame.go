package screen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder

	"github.com/corona10/goimagehash"
)

// DefaultMaxHashDistance is the Hamming distance at or below which two
// frames count as the same screen.
const DefaultMaxHashDistance = 5

// brightnessSamples caps how many pixels Brightness reads per axis.
const brightnessSamples = 256

// Decode parses PNG or JPEG screenshot bytes.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding screenshot: %w", err)
	}
	return img, nil
}

// Brightness returns the mean luminance of img on a 0-255 scale, sampled on
// a grid of at most brightnessSamples² pixels.
func Brightness(img image.Image) float64 {
	b := img.Bounds()
	if b.Empty() {
		return 0
	}
	stepX := max(1, b.Dx()/brightnessSamples)
	stepY := max(1, b.Dy()/brightnessSamples)

	var sum, n float64
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			sum += float64(g.Y)
			n++
		}
	}
	return sum / n
}

// ChangeDetector compares frames by perceptual hash. It is not safe for
// concurrent use.
type ChangeDetector struct {
	maxDistance int
	last        *goimagehash.ImageHash
}

// NewChangeDetector returns a detector treating frames within maxDistance
// as unchanged. A non-positive maxDistance uses DefaultMaxHashDistance.
func NewChangeDetector(maxDistance int) *ChangeDetector {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxHashDistance
	}
	return &ChangeDetector{maxDistance: maxDistance}
}

// Changed reports whether img differs from the last frame that was reported
// as changed. The first frame is always a change, and frames that cannot be
// hashed are treated as changes.
func (d *ChangeDetector) Changed(img image.Image) bool {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return true
	}
	if d.last == nil {
		d.last = hash
		return true
	}
	dist, err := d.last.Distance(hash)
	if err != nil || dist > d.maxDistance {
		d.last = hash
		return true
	}
	return false
}

// Reset forgets the last frame.
func (d *ChangeDetector) Reset() {
	d.last = nil
}
