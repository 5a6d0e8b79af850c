// Package nd2 reads the chunk-based ND2 microscopy file format.
//
// A File locates the chunk map at the end of the file, decodes the metadata
// chunks on first use and serves 2D planes addressed by position, time,
// channel and depth.
package nd2

// Resources:
// https://github.com/tlambert03/nd2 (nd2-py, reference reader)

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mdouchement/nd2/clx"
)

// File is an open ND2 file. Metadata is decoded on first access and cached;
// a failed load caches nothing. A File is not safe for concurrent use.
type File struct {
	r      io.ReaderAt
	size   int64
	closer io.Closer
	logger *zap.Logger
	tlv    *clx.Decoder

	major, minor int
	chunks       chunkmap

	attributes *Attributes
	textInfo   *TextInfo
	loops      []Loop
	loopsOK    bool
	layout     *layout
}

// Open opens the named file.
func Open(path string, opts ...Option) (*File, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	fi, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, err
	}

	f, err := NewReader(fd, fi.Size(), opts...)
	if err != nil {
		fd.Close()
		return nil, errors.Wrapf(err, "could not open %s", path)
	}
	f.closer = fd
	return f, nil
}

// NewReader reads the header and chunk map of the size bytes of r.
func NewReader(r io.ReaderAt, size int64, opts ...Option) (*File, error) {
	f := &File{
		r:      r,
		size:   size,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.tlv = clx.NewDecoder(clx.WithLogger(f.logger))

	var err error
	if f.major, f.minor, err = readVersion(r, size); err != nil {
		return nil, err
	}
	if f.chunks, err = readChunkmap(r, size); err != nil {
		return nil, err
	}

	f.logger.Debug("chunk map loaded",
		zap.String("version", fmt.Sprintf("%d.%d", f.major, f.minor)),
		zap.Int("chunks", len(f.chunks)),
	)
	return f, nil
}

// Close closes the underlying file, if File owns one.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

// Version returns the format version of the file.
func (f *File) Version() (major, minor int) {
	return f.major, f.minor
}

// ChunkNames returns the names of every chunk, sorted.
func (f *File) ChunkNames() []string {
	return f.chunks.names()
}

// Chunks returns the location of every chunk, sorted by name.
func (f *File) Chunks() []ChunkInfo {
	infos := make([]ChunkInfo, 0, len(f.chunks))
	for _, name := range f.chunks.names() {
		infos = append(infos, f.chunks[name])
	}
	return infos
}

// ReadRawChunk returns the payload of the named chunk.
func (f *File) ReadRawChunk(name string) ([]byte, error) {
	return f.chunks.readChunk(f.r, name)
}

// HasChunk reports whether the chunk map lists name.
func (f *File) HasChunk(name string) bool {
	_, ok := f.chunks[name]
	return ok
}

// metadataChunk picks the chunk name matching the file version.
func (f *File) metadataChunk(v3, v2 string) string {
	if f.major >= 3 {
		return v3
	}
	return v2
}

// Metadata decodes the named chunk into its TLV tree.
func (f *File) Metadata(name string) (clx.Value, error) {
	p, err := f.ReadRawChunk(name)
	if err != nil {
		return nil, err
	}
	v, err := f.tlv.Decode(p)
	return v, errors.Wrapf(err, "could not decode %s", name)
}

// Attributes returns the image attributes.
func (f *File) Attributes() (*Attributes, error) {
	if f.attributes != nil {
		return f.attributes, nil
	}

	v, err := f.Metadata(f.metadataChunk(ChunkAttributes, ChunkAttributesV2))
	if err != nil {
		return nil, err
	}
	a, err := parseAttributes(v)
	if err != nil {
		return nil, err
	}

	f.attributes = a
	return a, nil
}

// TextInfo returns the text descriptions. A file without them yields an
// empty TextInfo.
func (f *File) TextInfo() (*TextInfo, error) {
	if f.textInfo != nil {
		return f.textInfo, nil
	}

	name := f.metadataChunk(ChunkTextInfo, ChunkTextInfoV2)
	if !f.HasChunk(name) {
		f.textInfo = &TextInfo{}
		return f.textInfo, nil
	}

	v, err := f.Metadata(name)
	if err != nil {
		return nil, err
	}
	f.textInfo = parseTextInfo(v)
	return f.textInfo, nil
}

// Experiment returns the acquisition loops, outer loop first. A file
// without experiment chunk yields no loop.
func (f *File) Experiment() ([]Loop, error) {
	if f.loopsOK {
		return f.loops, nil
	}

	name := f.metadataChunk(ChunkExperiment, ChunkExperimentV2)
	if !f.HasChunk(name) {
		f.loops, f.loopsOK = []Loop{}, true
		return f.loops, nil
	}

	v, err := f.Metadata(name)
	if err != nil {
		return nil, err
	}
	loops, err := normalizeExperiment(v)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("experiment loaded", zap.Int("loops", len(loops)))
	f.loops, f.loopsOK = loops, true
	return loops, nil
}

func (f *File) getLayout() (*layout, error) {
	if f.layout != nil {
		return f.layout, nil
	}

	a, err := f.Attributes()
	if err != nil {
		return nil, err
	}
	loops, err := f.Experiment()
	if err != nil {
		return nil, err
	}

	f.layout = newLayout(a, loops)
	f.logger.Debug("axis order resolved",
		zap.Any("order", f.layout.order),
		zap.Bool("channel", f.layout.channel),
	)
	return f.layout, nil
}

// Sizes returns the extent of every axis.
func (f *File) Sizes() (Sizes, error) {
	l, err := f.getLayout()
	if err != nil {
		return Sizes{}, err
	}
	return l.sizes, nil
}

// AxisOrder returns the axes used to compute sequence indices, outermost
// first. AxisChannel is present only when channels are stored as separate
// frames.
func (f *File) AxisOrder() ([]Axis, error) {
	l, err := f.getLayout()
	if err != nil {
		return nil, err
	}
	return append([]Axis(nil), l.order...), nil
}

// SeqIndex returns the sequence index of c.
func (f *File) SeqIndex(c Coords) (int, error) {
	l, err := f.getLayout()
	if err != nil {
		return 0, err
	}
	return l.seqIndex(c)
}

// Unravel returns the coordinates of sequence index seq.
func (f *File) Unravel(seq int) (Coords, error) {
	l, err := f.getLayout()
	if err != nil {
		return Coords{}, err
	}
	return l.unravel(seq)
}

// LoopIndices returns the coordinates of every sequence index.
func (f *File) LoopIndices() ([]Coords, error) {
	l, err := f.getLayout()
	if err != nil {
		return nil, err
	}

	out := make([]Coords, l.count())
	for seq := range out {
		if out[seq], err = l.unravel(seq); err != nil {
			return nil, err
		}
	}
	return out, nil
}

//------------------------//
// image.Image support    //
//------------------------//

// DecodeConfig returns the color model and dimensions of the first plane of
// an ND2 file without decoding the pixels.
func DecodeConfig(r io.Reader) (image.Config, error) {
	f, err := newFileFromReader(r)
	if err != nil {
		return image.Config{}, err
	}

	a, err := f.Attributes()
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.Gray16Model,
		Width:      a.FrameWidth(),
		Height:     a.Height,
	}, nil
}

// Decode reads the first plane of an ND2 file as an image.Gray16.
func Decode(r io.Reader) (image.Image, error) {
	f, err := newFileFromReader(r)
	if err != nil {
		return nil, err
	}

	p, err := f.ReadFrame2D(0, 0, 0, 0)
	if err != nil {
		return nil, err
	}
	return p.Gray16(), nil
}

func newFileFromReader(r io.Reader) (*File, error) {
	ra, size, err := newReaderAt(r)
	if err != nil {
		return nil, err
	}
	return NewReader(ra, size)
}

func init() {
	image.RegisterFormat("nd2", "\xda\xce\xbe\x0a", Decode, DecodeConfig)
}
