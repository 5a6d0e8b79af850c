package nd2

import (
	"image"
	"math"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
)

// XYZ returns the plane as a grayscale HDR image with samples scaled to
// [0, 1] by the significant bit depth.
func (p *Plane) XYZ() *hdr.XYZ {
	bits := p.Bits
	if bits <= 0 || bits > 16 {
		bits = 16
	}
	scale := math.Exp2(float64(bits)) - 1

	m := hdr.NewXYZ(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			Y := float64(p.At(x, y)) / scale
			m.SetXYZ(x, y, hdrcolor.XYZ{X: Y, Y: Y, Z: Y})
		}
	}
	return m
}
