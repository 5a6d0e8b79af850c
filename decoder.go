package nd2

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// decoder turns image chunk payloads into planar samples.
type decoder struct {
	attrs *Attributes
	width int
	bps   int // bytes per sample
}

func newDecoder(a *Attributes) (*decoder, error) {
	d := &decoder{
		attrs: a,
		width: a.FrameWidth(),
	}

	switch a.BitsPerComponentInMemory {
	case 8:
		d.bps = 1
	case 16:
		d.bps = 2
	default:
		return nil, UnsupportedError(fmt.Sprintf("%d bits per component", a.BitsPerComponentInMemory))
	}
	if a.PixelDataType == pxFloat {
		return nil, UnsupportedError("floating point samples")
	}
	if a.Compression == cLossy {
		return nil, UnsupportedError("lossy compression")
	}
	if d.width <= 0 || a.Height <= 0 {
		return nil, MetadataError("frame dimensions are not set")
	}
	return d, nil
}

// planeSize returns the number of bytes of one Y×X plane.
func (d *decoder) planeSize() int {
	return d.width * d.attrs.Height * d.bps
}

// decode returns the samples of a payload holding either every component
// plane or a single plane, each Y×X, component-major.
func (d *decoder) decode(p []byte) ([]uint16, error) {
	plane := d.planeSize()
	full := plane * d.attrs.ComponentCount

	var raw []byte
	if d.attrs.Compression == cLossless {
		if len(p) < frameTimestampSize {
			return nil, FormatError("truncated compressed frame")
		}
		var err error
		if raw, err = inflate(p[frameTimestampSize:]); err != nil {
			return nil, errors.Wrap(err, "could not inflate frame")
		}
		if len(raw) != full && len(raw) != plane {
			return nil, FormatError(fmt.Sprintf("inflated frame is %d bytes, expected %d", len(raw), full))
		}
	} else {
		switch len(p) {
		case full, plane:
			raw = p
		case full + frameTimestampSize, plane + frameTimestampSize:
			raw = p[frameTimestampSize:]
		default:
			return nil, FormatError(fmt.Sprintf("frame is %d bytes, expected %d", len(p), full))
		}
	}

	samples := make([]uint16, len(raw)/d.bps)
	switch d.bps {
	case 1:
		for i, b := range raw {
			samples[i] = uint16(b)
		}
	case 2:
		for i := range samples {
			samples[i] = binary.LittleEndian.Uint16(raw[2*i:])
		}
	}
	return samples, nil
}
