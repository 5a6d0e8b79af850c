package nd2

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

//------------------------//
// Header parser          //
//------------------------//

// chunkmap maps chunk names, '!' included, to their location.
type chunkmap map[string]ChunkInfo

// readVersion parses the fixed file header and returns the version digits.
func readVersion(r io.ReaderAt, size int64) (major, minor int, err error) {
	if size < 4 {
		return 0, 0, FormatError("file too small")
	}

	p := make([]byte, minInt64(size, fileHeaderSize))
	if _, err = r.ReadAt(p, 0); err != nil {
		return
	}

	switch magic := binary.LittleEndian.Uint32(p[0:4]); magic {
	case chunkMagic:
	case jp2Magic:
		return 0, 0, &VersionError{Major: 1, Minor: 0}
	default:
		return 0, 0, &MagicError{Expected: chunkMagic, Actual: magic, Offset: 0}
	}

	if len(p) < fileHeaderSize {
		return 0, 0, FormatError("truncated file header")
	}
	if binary.LittleEndian.Uint32(p[4:8]) != 32 || binary.LittleEndian.Uint64(p[8:16]) != 64 {
		return 0, 0, FormatError("corrupt file header")
	}
	if string(p[chunkHeaderSize:chunkHeaderSize+32]) != fileSignature {
		return 0, 0, FormatError("invalid file signature")
	}

	mj, mn := p[versionMajorOffset], p[versionMinorOffset]
	if !isDigit(mj) || !isDigit(mn) {
		return 0, 0, FormatError("invalid version string")
	}
	major, minor = int(mj-'0'), int(mn-'0')

	if major != 2 && major != 3 {
		return 0, 0, &VersionError{Major: major, Minor: minor}
	}
	return
}

// readChunkmap locates the chunk map through the file trailer and parses its
// entries.
func readChunkmap(r io.ReaderAt, size int64) (chunkmap, error) {
	if size < trailerSize {
		return nil, FormatError("file too small for a chunk map")
	}

	p := make([]byte, trailerSize)
	if _, err := r.ReadAt(p, size-trailerSize); err != nil {
		return nil, err
	}
	if string(p[:32]) != chunkmapSignature {
		return nil, ErrInvalidChunkmapSignature
	}

	offset := binary.LittleEndian.Uint64(p[32:40])
	if offset > uint64(size-chunkHeaderSize) {
		return nil, &CorruptChunkError{Offset: int64(offset), Reason: "chunk map offset beyond end of file"}
	}

	h, err := readChunkHeader(r, int64(offset))
	if err != nil {
		return nil, err
	}
	if err = h.validate(int64(offset)); err != nil {
		return nil, err
	}

	start := int64(offset) + chunkHeaderSize
	if uint64(h.nameLen)+h.dataLen > uint64(size-start) {
		return nil, &CorruptChunkError{Offset: int64(offset), Reason: "chunk map extends beyond end of file"}
	}

	name := make([]byte, h.nameLen)
	if _, err = r.ReadAt(name, start); err != nil {
		return nil, err
	}
	if string(name) != filemapSignature {
		return nil, FormatError("invalid chunk map name")
	}

	data := make([]byte, h.dataLen)
	if _, err = r.ReadAt(data, start+int64(h.nameLen)); err != nil {
		return nil, err
	}

	return parseChunkmap(data, start+int64(h.nameLen), size)
}

// parseChunkmap parses the entries of the chunk map payload found at base.
func parseChunkmap(data []byte, base, size int64) (chunkmap, error) {
	m := make(chunkmap)
	var total uint64

	for pos := 0; pos < len(data); {
		i := bytes.IndexByte(data[pos:], '!')
		if i < 0 {
			return nil, &CorruptChunkError{Offset: base + int64(pos), Reason: "unterminated chunk name"}
		}
		name := string(data[pos : pos+i+1])
		pos += i + 1

		if name == chunkmapSignature {
			break
		}

		if len(data)-pos < 16 {
			return nil, &CorruptChunkError{Offset: base + int64(pos), Reason: "truncated chunk map entry"}
		}
		info := ChunkInfo{
			Name:   name,
			Offset: binary.LittleEndian.Uint64(data[pos : pos+8]),
			Size:   binary.LittleEndian.Uint64(data[pos+8 : pos+16]),
		}
		pos += 16

		if info.Offset > uint64(size) || info.Size > uint64(size)-info.Offset {
			return nil, &CorruptChunkError{
				Offset: base + int64(pos) - 16,
				Reason: fmt.Sprintf("chunk %q extends beyond end of file", name),
			}
		}
		if total += info.Size; total > uint64(size) {
			return nil, &CorruptChunkError{Offset: base + int64(pos) - 16, Reason: "chunk sizes exceed file length"}
		}

		m[name] = info
	}

	return m, nil
}

// names returns the chunk names in ascending order.
func (m chunkmap) names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m chunkmap) String() string {
	buf := bytes.NewBufferString("")
	for _, name := range m.names() {
		info := m[name]
		buf.WriteString(fmt.Sprintf("%-40s offset=%-12d size=%d\n", name, info.Offset, info.Size))
	}
	return buf.String()
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func minInt64(a, b int64) int64 {
	if a <= b {
		return a
	}
	return b
}
