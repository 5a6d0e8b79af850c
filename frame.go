package nd2

import (
	"fmt"
	"image"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/image/tiff"
)

// Plane is one Y×X plane of 16-bit samples.
type Plane struct {
	Width, Height int
	// Bits is the number of significant bits per sample.
	Bits int
	Pix  []uint16
}

// At returns the sample at (x, y).
func (p *Plane) At(x, y int) uint16 {
	return p.Pix[y*p.Width+x]
}

// Gray16 returns the plane as an image.
func (p *Plane) Gray16() *image.Gray16 {
	m := image.NewGray16(image.Rect(0, 0, p.Width, p.Height))
	for i, v := range p.Pix {
		m.Pix[2*i] = uint8(v >> 8)
		m.Pix[2*i+1] = uint8(v)
	}
	return m
}

// WriteTIFF encodes the plane as a 16-bit grayscale TIFF image.
func (p *Plane) WriteTIFF(w io.Writer) error {
	return errors.Wrap(tiff.Encode(w, p.Gray16(), &tiff.Options{Compression: tiff.Deflate}), "could not encode plane")
}

// ReadFrame returns the samples of the frame stored at sequence index seq,
// component-major (C×Y×X).
func (f *File) ReadFrame(seq int) ([]uint16, error) {
	a, err := f.Attributes()
	if err != nil {
		return nil, err
	}
	if seq < 0 || seq >= a.SequenceCount {
		return nil, &BoundsError{Axis: axisSequence, Index: seq, Size: a.SequenceCount}
	}

	d, err := newDecoder(a)
	if err != nil {
		return nil, err
	}

	p, err := f.ReadRawChunk(fmt.Sprintf(imageDataChunk, seq))
	if err != nil {
		return nil, err
	}
	samples, err := d.decode(p)
	return samples, errors.Wrapf(err, "frame %d", seq)
}

// ReadFrame2D returns the plane of channel c at position p, time t and
// depth z.
//
// Frames holding every channel are addressed over the non-channel axes and
// the channel plane is sliced out of the frame. Frames holding a single
// component store one channel each and are addressed with the channel
// coordinate as well.
func (f *File) ReadFrame2D(p, t, c, z int) (*Plane, error) {
	l, err := f.getLayout()
	if err != nil {
		return nil, err
	}
	a, err := f.Attributes()
	if err != nil {
		return nil, err
	}

	coords := Coords{P: p, T: t, C: c, Z: z}
	seq, plane := 0, c
	if l.channel && a.ComponentCount == 1 {
		seq, err = l.seqIndex(coords)
		plane = 0
	} else {
		seq, err = l.frameIndex(coords)
	}
	if err != nil {
		return nil, err
	}

	samples, err := f.ReadFrame(seq)
	if err != nil {
		return nil, err
	}

	size := l.sizes.X * l.sizes.Y
	if planes := len(samples) / size; plane >= planes {
		return nil, FormatError(fmt.Sprintf("frame %d holds %d planes, channel %d requested", seq, planes, c))
	}

	pix := make([]uint16, size)
	copy(pix, samples[plane*size:(plane+1)*size])

	return &Plane{
		Width:  l.sizes.X,
		Height: l.sizes.Y,
		Bits:   a.BitsPerComponentSignificant,
		Pix:    pix,
	}, nil
}
