package clx

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"math"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Record type codes.
const (
	vtUnknown     = 0
	vtBool        = 1
	vtInt32       = 2
	vtUInt32      = 3
	vtInt64       = 4
	vtUInt64      = 5
	vtDouble      = 6
	vtVoidPointer = 7
	vtString      = 8
	vtByteArray   = 9
	vtDeprecated  = 10
	vtLevel       = 11
	vtCompress    = 76
)

const (
	// Bytes between the header of a compressed record and its zlib stream.
	compressReserved = 10
	indexNameLength  = 11
	maxDepth         = 64
)

// Decoder decodes TLV buffers into Value trees.
type Decoder struct {
	logger      *zap.SugaredLogger
	stripPrefix bool
}

// NewDecoder returns a Decoder configured with opts.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{logger: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode decodes buf with the default options.
func Decode(buf []byte) (Value, error) {
	return NewDecoder().Decode(buf)
}

// Decode decodes every record of buf. Top-level records are collected like
// the children of a level.
func (d *Decoder) Decode(buf []byte) (Value, error) {
	s := &stream{d: d, buf: buf}
	return s.records(-1, len(buf))
}

// stream walks one buffer. Offsets reported in errors are relative to buf.
type stream struct {
	d     *Decoder
	buf   []byte
	off   int
	depth int
}

func (s *stream) truncated(what string) error {
	return &DecodeError{Offset: int64(s.off), Reason: "truncated " + what}
}

func (s *stream) next(n int, what string) ([]byte, error) {
	if n < 0 || n > len(s.buf)-s.off {
		return nil, s.truncated(what)
	}
	b := s.buf[s.off : s.off+n]
	s.off += n
	return b, nil
}

func (s *stream) u8(what string) (byte, error) {
	b, err := s.next(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *stream) u32(what string) (uint32, error) {
	b, err := s.next(4, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (s *stream) u64(what string) (uint64, error) {
	b, err := s.next(8, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// records decodes count records, or records until end when count is
// negative. end is the byte bound of the enclosing extent, -1 when unknown.
func (s *stream) records(count, end int) (Value, error) {
	if s.depth > maxDepth {
		return nil, &DecodeError{Offset: int64(s.off), Reason: "nesting too deep"}
	}

	c := newCollector(s.d)
	for i := 0; count < 0 || i < count; i++ {
		if count < 0 && s.off >= end {
			break
		}

		start := s.off
		code, err := s.u8("record type")
		if err != nil {
			return nil, err
		}
		nameLen, err := s.u8("record name length")
		if err != nil {
			return nil, err
		}

		if code == vtCompress {
			if nameLen != 0 {
				return nil, &DecodeError{Offset: int64(start), Reason: "compressed record with a name"}
			}
			v, err := s.compressed(end)
			if err != nil {
				return nil, err
			}
			c.splice(v)
			// The sub-stream owns the rest of the extent.
			break
		}

		name, err := s.name(int(nameLen))
		if err != nil {
			return nil, err
		}

		last := count >= 0 && i == count-1
		v, err := s.value(code, start, end, last)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		c.add(name, v)
	}

	return c.result(), nil
}

func (s *stream) name(units int) (string, error) {
	offset := s.off
	b, err := s.next(2*units, "record name")
	if err != nil {
		return "", err
	}
	if n := unitsUntilNull(b); n >= 0 {
		b = b[:n]
	}
	name, err := decodeUTF16(b, int64(offset))
	if err != nil {
		return "", err
	}
	if s.d.stripPrefix {
		name = stripPrefix(name)
	}
	return name, nil
}

// value decodes the payload of a record whose header starts at start.
// A nil Value with a nil error means the record was skipped.
func (s *stream) value(code byte, start, end int, last bool) (Value, error) {
	switch code {
	case vtBool:
		b, err := s.u8("bool")
		return Bool(b != 0), err
	case vtInt32:
		u, err := s.u32("int32")
		return Int(int32(u)), err
	case vtUInt32:
		u, err := s.u32("uint32")
		return UInt(u), err
	case vtInt64:
		u, err := s.u64("int64")
		return Int(int64(u)), err
	case vtUInt64, vtVoidPointer:
		u, err := s.u64("uint64")
		return UInt(u), err
	case vtDouble:
		u, err := s.u64("double")
		return Float(math.Float64frombits(u)), err
	case vtString:
		return s.text()
	case vtByteArray:
		return s.byteArray()
	case vtLevel:
		return s.level(start)
	}

	if last && end >= s.off {
		s.d.logger.Warnw("skipping record with unknown type", "code", code, "offset", start, "bytes", end-start)
		s.off = end
		return nil, nil
	}
	return nil, &UnsupportedTypeError{Code: code, Offset: int64(start)}
}

func (s *stream) text() (Value, error) {
	offset := s.off
	n := unitsUntilNull(s.buf[s.off:])
	if n < 0 {
		return nil, s.truncated("string")
	}
	str, err := decodeUTF16(s.buf[s.off:s.off+n], int64(offset))
	if err != nil {
		return nil, err
	}
	s.off += n + 2
	return String(str), nil
}

func (s *stream) byteArray() (Value, error) {
	size, err := s.u64("byte array size")
	if err != nil {
		return nil, err
	}
	if size > uint64(len(s.buf)-s.off) {
		return nil, s.truncated("byte array")
	}
	b, _ := s.next(int(size), "byte array")
	b = append([]byte(nil), b...)

	if !looksLikeRecord(b) {
		return Bytes(b), nil
	}

	nested := &stream{d: s.d, buf: b, depth: s.depth + 1}
	v, err := nested.records(-1, len(b))
	if err != nil {
		s.d.logger.Debugw("byte array kept opaque", "size", len(b), "error", err)
		return Bytes(b), nil
	}
	return v, nil
}

func (s *stream) level(start int) (Value, error) {
	count, err := s.u32("level item count")
	if err != nil {
		return nil, err
	}
	length, err := s.u64("level length")
	if err != nil {
		return nil, err
	}

	// length spans from the record start to the end of the children.
	end := -1
	if length <= uint64(len(s.buf)-start) && start+int(length) >= s.off {
		end = start + int(length)
	}

	s.depth++
	v, err := s.records(int(count), end)
	s.depth--
	if err != nil {
		return nil, err
	}

	if _, err := s.next(8*int(count), "level offset table"); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *stream) compressed(end int) (Value, error) {
	if end < 0 || end > len(s.buf) {
		end = len(s.buf)
	}
	if _, err := s.next(compressReserved, "compressed record header"); err != nil {
		return nil, err
	}
	if s.off > end {
		return nil, s.truncated("compressed record")
	}

	offset := s.off
	payload := s.buf[s.off:end]
	s.off = end

	r, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, &DecompressError{Offset: int64(offset), Err: err}
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecompressError{Offset: int64(offset), Err: err}
	}

	nested := &stream{d: s.d, buf: raw, depth: s.depth + 1}
	return nested.records(-1, len(raw))
}

// minStandaloneNameLength is the smallest name length accepted when a byte
// array is probed for an embedded record. Flag arrays routinely start with
// 0x01 0x01, which would otherwise read as a boolean named by one character.
const minStandaloneNameLength = 2

// looksLikeRecord reports whether a byte array plausibly holds an embedded
// record stream rather than opaque data. A positive answer is tentative:
// the caller keeps the bytes when decoding fails.
func looksLikeRecord(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	code, units := b[0], int(b[1])

	if code == vtCompress {
		return units == 0 && len(b) > 2+compressReserved
	}
	if code == vtUnknown || code == vtDeprecated || code > vtLevel {
		return false
	}
	if units < minStandaloneNameLength {
		return false
	}

	nameEnd := 2 + 2*units
	if len(b) < nameEnd {
		return false
	}
	return b[nameEnd-2] == 0 && b[nameEnd-1] == 0
}

// stripPrefix removes the Hungarian type prefix (uiCount, dPosX, pItemValid)
// of a name. Index names and names without a prefix are kept.
func stripPrefix(name string) string {
	if _, ok := IndexOf(name); ok {
		return name
	}
	i := strings.IndexFunc(name, func(r rune) bool {
		return !unicode.IsLower(r) && r != '_'
	})
	if i <= 0 {
		return name
	}
	return name[i:]
}
