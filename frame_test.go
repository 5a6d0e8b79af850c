package nd2

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdouchement/nd2/internal/synth"
)

func TestNewDecoderUnsupported(t *testing.T) {
	a := attrs(1, 1)
	a.BitsPerComponentInMemory = 32
	_, err := newDecoder(a)
	assert.Equal(t, UnsupportedError("32 bits per component"), err)

	a = attrs(1, 1)
	a.PixelDataType = pxFloat
	_, err = newDecoder(a)
	assert.IsType(t, UnsupportedError(""), err)

	a = attrs(1, 1)
	a.Compression = cLossy
	_, err = newDecoder(a)
	assert.Equal(t, UnsupportedError("lossy compression"), err)

	a = attrs(1, 1)
	a.Width = 0
	_, err = newDecoder(a)
	assert.IsType(t, MetadataError(""), err)
}

func TestDecodeRaw(t *testing.T) {
	a := attrs(2, 1)
	a.Width, a.Height = 2, 1
	d, err := newDecoder(a)
	require.NoError(t, err)

	samples := []uint16{1, 2, 0x0300, 0xFFFF}
	full := synth.Frame(0, samples)

	out, err := d.decode(full)
	require.NoError(t, err)
	assert.Equal(t, samples, out)

	out, err = d.decode(full[8:])
	require.NoError(t, err)
	assert.Equal(t, samples, out)

	out, err = d.decode(full[:8+4])
	require.NoError(t, err)
	assert.Equal(t, samples[:2], out)

	_, err = d.decode(full[:7])
	assert.IsType(t, FormatError(""), err)
}

func TestDecode8Bits(t *testing.T) {
	a := attrs(1, 1)
	a.Width, a.Height = 3, 1
	a.BitsPerComponentInMemory, a.BitsPerComponentSignificant = 8, 8
	d, err := newDecoder(a)
	require.NoError(t, err)

	out, err := d.decode([]byte{0, 0, 0, 0, 0, 0, 0, 0, 7, 128, 255})
	require.NoError(t, err)
	assert.Equal(t, []uint16{7, 128, 255}, out)
}

func TestDecodeLossless(t *testing.T) {
	a := attrs(1, 1)
	a.Width, a.Height = 2, 2
	a.Compression = cLossless
	d, err := newDecoder(a)
	require.NoError(t, err)

	samples := []uint16{10, 20, 30, 40}
	out, err := d.decode(synth.CompressedFrame(1.5, samples))
	require.NoError(t, err)
	assert.Equal(t, samples, out)

	_, err = d.decode(synth.CompressedFrame(0, samples[:3]))
	assert.IsType(t, FormatError(""), err)

	_, err = d.decode([]byte{0, 0, 0, 0, 0, 0, 0, 0, 'n', 'o', 'p', 'e'})
	assert.Error(t, err)

	_, err = d.decode([]byte{1, 2})
	assert.Equal(t, FormatError("truncated compressed frame"), err)
}

// singlePlaneData stores each channel of two positions as a frame of its
// own. Frame seq holds the samples seq*10 to seq*10+3. A truncated payload
// replaces the frames listed in broken.
func singlePlaneData(broken ...int) []byte {
	f := synth.NewFile(3, 0)
	f.Add(ChunkAttributes, synth.Attributes{Width: 2, Height: 2, Components: 1, Channels: 2, SequenceCount: 4}.Encode())
	f.Add(ChunkExperiment, synth.XYLoop([][3]float64{{0, 0, 0}, {1, 1, 1}}, nil))
	for seq := 0; seq < 4; seq++ {
		payload := synth.Frame(0, []uint16{uint16(seq * 10), uint16(seq*10 + 1), uint16(seq*10 + 2), uint16(seq*10 + 3)})
		for _, b := range broken {
			if b == seq {
				payload = payload[:3]
			}
		}
		f.Add(fmt.Sprintf(imageDataChunk, seq), payload)
	}
	return f.Bytes()
}

func singlePlaneChannels(t *testing.T) *File {
	data := singlePlaneData()
	file, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return file
}

// recorder keeps the offset of every read it serves.
type recorder struct {
	r       io.ReaderAt
	offsets []int64
}

func (r *recorder) ReadAt(p []byte, off int64) (int, error) {
	r.offsets = append(r.offsets, off)
	return r.r.ReadAt(p, off)
}

func TestReadFrame2DSinglePlane(t *testing.T) {
	f := singlePlaneChannels(t)

	sizes, err := f.Sizes()
	require.NoError(t, err)
	assert.Equal(t, Sizes{P: 2, T: 1, C: 2, Z: 1, Y: 2, X: 2}, sizes)

	for seq := 0; seq < 4; seq++ {
		c, err := f.Unravel(seq)
		require.NoError(t, err)

		plane, err := f.ReadFrame2D(c.P, c.T, c.C, c.Z)
		require.NoError(t, err)
		assert.Equal(t, uint16(seq*10), plane.At(0, 0), "seq %d", seq)
		assert.Equal(t, uint16(seq*10+3), plane.At(1, 1), "seq %d", seq)
	}
}

func TestReadFrame2DSkipsOtherChannels(t *testing.T) {
	data := singlePlaneData(0)
	r := &recorder{r: bytes.NewReader(data)}
	f, err := NewReader(r, int64(len(data)))
	require.NoError(t, err)

	_, err = f.Sizes()
	require.NoError(t, err)
	r.offsets = nil

	plane, err := f.ReadFrame2D(0, 0, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint16{10, 11, 12, 13}, plane.Pix)

	frame0 := f.chunks[fmt.Sprintf(imageDataChunk, 0)]
	frame1 := f.chunks[fmt.Sprintf(imageDataChunk, 1)]
	require.Len(t, r.offsets, 2)
	assert.Equal(t, int64(frame1.Offset), r.offsets[0])
	assert.NotContains(t, r.offsets, int64(frame0.Offset))

	_, err = f.ReadFrame2D(0, 0, 0, 0)
	assert.IsType(t, FormatError(""), errors.Cause(err))
}

func TestReadFrameBounds(t *testing.T) {
	f := singlePlaneChannels(t)

	_, err := f.ReadFrame(4)
	var berr *BoundsError
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, axisSequence, berr.Axis)

	samples, err := f.ReadFrame(3)
	require.NoError(t, err)
	assert.Equal(t, []uint16{30, 31, 32, 33}, samples)
}

func TestVerify(t *testing.T) {
	f := synth.NewFile(3, 0)
	f.Add(ChunkAttributes, synth.Attributes{Width: 2, Height: 2, Components: 1, SequenceCount: 3}.Encode())
	f.Add(fmt.Sprintf(imageDataChunk, 0), synth.Frame(0, []uint16{1, 2, 3, 4}))
	f.Add(fmt.Sprintf(imageDataChunk, 1), []byte{1, 2, 3})
	data := f.Bytes()

	file, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	err = file.Verify()
	require.Error(t, err)

	merr, ok := err.(*multierror.Error)
	require.True(t, ok, "got %T", err)
	require.Len(t, merr.Errors, 2)
	assert.IsType(t, FormatError(""), errors.Cause(merr.Errors[0]))
	assert.True(t, IsNotFound(merr.Errors[1]))
}

func TestVerifyClean(t *testing.T) {
	assert.NoError(t, singlePlaneChannels(t).Verify())
}
