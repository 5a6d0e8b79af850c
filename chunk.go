package nd2

import (
	"encoding/binary"
	"io"
)

// chunkHeader precedes every chunk of the file body.
type chunkHeader struct {
	magic   uint32
	nameLen uint32
	dataLen uint64
}

func readChunkHeader(r io.ReaderAt, offset int64) (h chunkHeader, err error) {
	p := make([]byte, chunkHeaderSize)
	if _, err = r.ReadAt(p, offset); err != nil {
		return
	}
	h.magic = binary.LittleEndian.Uint32(p[0:4])
	h.nameLen = binary.LittleEndian.Uint32(p[4:8])
	h.dataLen = binary.LittleEndian.Uint64(p[8:16])
	return
}

// validate checks the magic of a header read at offset.
func (h chunkHeader) validate(offset int64) error {
	if h.magic != chunkMagic {
		return &MagicError{Expected: chunkMagic, Actual: h.magic, Offset: offset}
	}
	return nil
}

// ChunkInfo locates one chunk of the chunk map.
type ChunkInfo struct {
	Name   string
	Offset uint64
	Size   uint64
}

// readChunk returns the payload of the named chunk. Nothing is cached: each
// call reads the chunk again.
func (m chunkmap) readChunk(r io.ReaderAt, name string) ([]byte, error) {
	info, ok := m[name]
	if !ok {
		return nil, &ChunkNotFoundError{Name: name}
	}

	offset := int64(info.Offset)
	h, err := readChunkHeader(r, offset)
	if err != nil {
		return nil, err
	}
	if err = h.validate(offset); err != nil {
		return nil, err
	}

	p := make([]byte, info.Size)
	if _, err = r.ReadAt(p, offset+chunkHeaderSize+int64(h.nameLen)); err != nil {
		return nil, err
	}
	return p, nil
}
