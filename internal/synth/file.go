package synth

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	magic           = 0x0ABECEDA
	fileSignature   = "ND2 FILE SIGNATURE CHUNK NAME01!"
	filemapName     = "ND2 FILEMAP SIGNATURE NAME 0001!"
	chunkmapTrailer = "ND2 CHUNK MAP SIGNATURE 0000001!"
)

type chunk struct {
	name string
	data []byte
}

// File builds an ND2 file: the signature chunk, the data chunks in the
// order they were added, then the chunk map closed by its trailer.
type File struct {
	Major, Minor int

	chunks []chunk
}

// NewFile returns a builder writing version major.minor.
func NewFile(major, minor int) *File {
	return &File{Major: major, Minor: minor}
}

// Add appends a chunk. name must end with '!'.
func (f *File) Add(name string, data []byte) *File {
	f.chunks = append(f.chunks, chunk{name: name, data: data})
	return f
}

// Bytes returns the encoded file.
func (f *File) Bytes() []byte {
	version := make([]byte, 64)
	copy(version, fmt.Sprintf("Ver%d.%d", f.Major, f.Minor))
	b := chunkBytes(fileSignature, version)

	var entries []byte
	for _, c := range f.chunks {
		entries = append(entries, c.name...)
		entries = binary.LittleEndian.AppendUint64(entries, uint64(len(b)))
		entries = binary.LittleEndian.AppendUint64(entries, uint64(len(c.data)))
		b = append(b, chunkBytes(c.name, c.data)...)
	}

	offset := uint64(len(b))
	entries = append(entries, chunkmapTrailer...)
	entries = binary.LittleEndian.AppendUint64(entries, offset)
	return append(b, chunkBytes(filemapName, entries)...)
}

func chunkBytes(name string, data []byte) []byte {
	b := binary.LittleEndian.AppendUint32(nil, magic)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(name)))
	b = binary.LittleEndian.AppendUint64(b, uint64(len(data)))
	b = append(b, name...)
	return append(b, data...)
}

// Legacy returns the start of a JPEG 2000 based file.
func Legacy() []byte {
	b := []byte{0x00, 0x00, 0x00, 0x0C, 'j', 'P', ' ', ' ', 0x0D, 0x0A, 0x87, 0x0A}
	return append(b, make([]byte, 128)...)
}

// Frame encodes an image chunk: an 8-byte timestamp followed by the
// little-endian samples.
func Frame(timestamp float64, samples []uint16) []byte {
	b := binary.LittleEndian.AppendUint64(nil, math.Float64bits(timestamp))
	for _, s := range samples {
		b = binary.LittleEndian.AppendUint16(b, s)
	}
	return b
}

// CompressedFrame encodes an image chunk whose samples are zlib compressed.
func CompressedFrame(timestamp float64, samples []uint16) []byte {
	raw := Frame(timestamp, samples)
	return append(raw[:8:8], Deflate(raw[8:])...)
}
