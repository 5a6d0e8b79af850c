package nd2_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/mdouchement/hdrtool"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/mdouchement/nd2"
	"github.com/mdouchement/nd2/internal/synth"
)

// twoPositions is a 3.0 file with two channels per frame and an XY loop of
// which two positions out of three are valid.
func twoPositions() ([]byte, [][]uint16) {
	f := synth.NewFile(3, 0)
	f.Add(nd2.ChunkAttributes, synth.Attributes{Width: 4, Height: 4, Components: 2, SequenceCount: 4}.Encode())
	f.Add(nd2.ChunkExperiment, synth.XYLoop([][3]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}, []byte{1, 1, 0}))

	frames := make([][]uint16, 4)
	for seq := range frames {
		samples := make([]uint16, 2*4*4)
		for i := range samples {
			samples[i] = uint16(seq*1000 + i)
		}
		frames[seq] = samples
		f.Add(fmt.Sprintf("ImageDataSeq|%d!", seq), synth.Frame(float64(seq)*100, samples))
	}
	return f.Bytes(), frames
}

func open(t testing.TB, data []byte) *nd2.File {
	f, err := nd2.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return f
}

func TestTwoPositions(t *testing.T) {
	data, frames := twoPositions()
	f := open(t, data)

	major, minor := f.Version()
	assert.Equal(t, 3, major)
	assert.Equal(t, 0, minor)

	sizes, err := f.Sizes()
	require.NoError(t, err)
	assert.Equal(t, nd2.Sizes{P: 2, T: 1, C: 2, Z: 1, Y: 4, X: 4}, sizes)

	order, err := f.AxisOrder()
	require.NoError(t, err)
	assert.Equal(t, []nd2.Axis{nd2.AxisPosition, nd2.AxisChannel}, order)

	plane, err := f.ReadFrame2D(1, 0, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, plane.Width)
	assert.Equal(t, 4, plane.Height)
	assert.Equal(t, frames[1][16:32], plane.Pix)

	raw, err := f.ReadRawChunk("ImageDataSeq|1!")
	require.NoError(t, err)
	for i, v := range plane.Pix {
		assert.Equal(t, binary.LittleEndian.Uint16(raw[8+32+2*i:]), v)
	}
}

func TestTwoPositionsLoops(t *testing.T) {
	data, _ := twoPositions()
	f := open(t, data)

	loops, err := f.Experiment()
	require.NoError(t, err)
	require.Len(t, loops, 1)

	xy := loops[0]
	assert.Equal(t, nd2.LoopXYPosition, xy.Kind)
	assert.Equal(t, 2, xy.Count)
	require.Len(t, xy.Positions, 2)
	assert.Equal(t, 4.0, xy.Positions[1].X)
	assert.Equal(t, 6.0, xy.Positions[1].Z)
	assert.Equal(t, "#2", xy.Positions[1].Name)
	assert.Nil(t, xy.Positions[1].PFSOffset)
}

func TestTwoPositionsIndices(t *testing.T) {
	data, _ := twoPositions()
	f := open(t, data)

	seq, err := f.SeqIndex(nd2.Coords{P: 1, C: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, seq)

	c, err := f.Unravel(seq)
	require.NoError(t, err)
	assert.Equal(t, nd2.Coords{P: 1, C: 1}, c)

	indices, err := f.LoopIndices()
	require.NoError(t, err)
	assert.Equal(t, []nd2.Coords{{}, {C: 1}, {P: 1}, {P: 1, C: 1}}, indices)
}

func TestOutOfRange(t *testing.T) {
	data, _ := twoPositions()
	f := open(t, data)

	_, err := f.ReadFrame2D(2, 0, 0, 0)
	require.Error(t, err)
	assert.True(t, nd2.IsOutOfRange(err))

	var berr *nd2.BoundsError
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, nd2.AxisPosition, berr.Axis)
	assert.Equal(t, 2, berr.Size)

	_, err = f.ReadFrame2D(0, 0, 2, 0)
	assert.True(t, nd2.IsOutOfRange(err))

	_, err = f.ReadFrame2D(0, -1, 0, 0)
	assert.True(t, nd2.IsOutOfRange(err))
}

func TestChunkNotFound(t *testing.T) {
	data, _ := twoPositions()
	f := open(t, data)

	_, err := f.ReadRawChunk("ImageDataSeq|4!")
	assert.True(t, nd2.IsNotFound(err))

	var nerr *nd2.ChunkNotFoundError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, "ImageDataSeq|4!", nerr.Name)

	empty := synth.NewFile(3, 0).Bytes()
	_, err = open(t, empty).ReadRawChunk(nd2.ChunkAttributes)
	assert.True(t, nd2.IsNotFound(err))
}

func TestChunkNames(t *testing.T) {
	data, _ := twoPositions()
	f := open(t, data)

	assert.Equal(t, []string{
		"ImageAttributesLV!",
		"ImageDataSeq|0!",
		"ImageDataSeq|1!",
		"ImageDataSeq|2!",
		"ImageDataSeq|3!",
		"ImageMetadataLV!",
	}, f.ChunkNames())
}

func TestVersion2(t *testing.T) {
	f := synth.NewFile(2, 1)
	f.Add(nd2.ChunkAttributesV2, synth.Attributes{Width: 2, Height: 2, Components: 1, SequenceCount: 3}.Encode())
	for seq := 0; seq < 3; seq++ {
		f.Add(fmt.Sprintf("ImageDataSeq|%d!", seq), synth.Frame(0, []uint16{uint16(seq), 1, 2, 3}))
	}
	file := open(t, f.Bytes())

	sizes, err := file.Sizes()
	require.NoError(t, err)
	assert.Equal(t, nd2.Sizes{P: 1, T: 3, C: 1, Z: 1, Y: 2, X: 2}, sizes)

	loops, err := file.Experiment()
	require.NoError(t, err)
	assert.Empty(t, loops)

	ti, err := file.TextInfo()
	require.NoError(t, err)
	assert.Equal(t, nd2.TextInfo{}, *ti)

	plane, err := file.ReadFrame2D(0, 2, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint16{2, 1, 2, 3}, plane.Pix)
}

func TestImageDecode(t *testing.T) {
	data, frames := twoPositions()

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "nd2", format)
	assert.Equal(t, 4, cfg.Width)
	assert.Equal(t, 4, cfg.Height)

	m, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "nd2", format)

	gray, ok := m.(*image.Gray16)
	require.True(t, ok)
	assert.Equal(t, frames[0][5], gray.Gray16At(1, 1).Y)
}

func TestWriteTIFF(t *testing.T) {
	const size = 32

	samples := make([]uint16, size*size)
	for i := range samples {
		x, y := i%size, i/size
		samples[i] = uint16((x*y*97 + x*1031) % 4096)
	}
	f := synth.NewFile(3, 0)
	f.Add(nd2.ChunkAttributes, synth.Attributes{Width: size, Height: size, Components: 1, Bits: 16, SequenceCount: 1}.Encode())
	f.Add("ImageDataSeq|0!", synth.CompressedFrame(0, samples))

	data := f.Bytes()
	path := filepath.Join(t.TempDir(), "plane.nd2")
	require.NoError(t, os.WriteFile(path, data, 0644))

	file, err := nd2.Open(path)
	require.NoError(t, err)
	defer file.Close()

	a, err := file.Attributes()
	require.NoError(t, err)
	assert.Equal(t, "none", a.Compression)

	lossless := synth.Attributes{Width: size, Height: size, Components: 1, SequenceCount: 1, Compression: "lossless"}
	f = synth.NewFile(3, 0)
	f.Add(nd2.ChunkAttributes, lossless.Encode())
	f.Add("ImageDataSeq|0!", synth.CompressedFrame(0, samples))
	file = open(t, f.Bytes())

	plane, err := file.ReadFrame2D(0, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, samples, plane.Pix)

	var buf bytes.Buffer
	require.NoError(t, plane.WriteTIFF(&buf))

	m, err := tiff.Decode(&buf)
	require.NoError(t, err)
	gray, ok := m.(*image.Gray16)
	require.True(t, ok, "got %T", m)

	roundtrip := &nd2.Plane{Width: size, Height: size, Bits: plane.Bits, Pix: make([]uint16, size*size)}
	for i := range roundtrip.Pix {
		roundtrip.Pix[i] = gray.Gray16At(i%size, i/size).Y
	}
	assert.Equal(t, plane.Pix, roundtrip.Pix)

	ssim := hdrtool.HDRSSIM(plane.XYZ(), roundtrip.XYZ())
	assert.InDelta(t, 1, ssim, 1e-9)
}

///////////////////////////
//                       //
// Benchmarks            //
//                       //
///////////////////////////

// go test -run=NONE -bench=.

var plane *nd2.Plane

func BenchmarkReadFrame2D(b *testing.B) {
	data, _ := twoPositions()
	f := open(b, data)

	var p *nd2.Plane
	var err error
	for n := 0; n < b.N; n++ {
		p, err = f.ReadFrame2D(1, 0, 1, 0)
	}
	assert.NoError(b, err)
	plane = p
}

func BenchmarkImageDecode(b *testing.B) {
	data, _ := twoPositions()

	var err error
	for n := 0; n < b.N; n++ {
		_, _, err = image.Decode(bytes.NewReader(data))
	}
	assert.NoError(b, err)
}
