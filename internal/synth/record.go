// Package synth writes small synthetic ND2 files and TLV metadata streams
// for tests.
package synth

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"math"

	"golang.org/x/text/encoding/unicode"
)

// Record type codes.
const (
	TypeBool        = 1
	TypeInt32       = 2
	TypeUInt32      = 3
	TypeInt64       = 4
	TypeUInt64      = 5
	TypeDouble      = 6
	TypeVoidPointer = 7
	TypeString      = 8
	TypeByteArray   = 9
	TypeDeprecated  = 10
	TypeLevel       = 11
	TypeCompress    = 76
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func utf16z(s string) []byte {
	b, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		panic(err)
	}
	return append(b, 0, 0)
}

// header encodes a record header. Empty names are written with a zero
// name length.
func header(code byte, name string) []byte {
	if name == "" {
		return []byte{code, 0}
	}
	n := utf16z(name)
	return append([]byte{code, byte(len(n) / 2)}, n...)
}

// Raw encodes a record with an arbitrary type code and payload.
func Raw(code byte, name string, payload []byte) []byte {
	return append(header(code, name), payload...)
}

func Bool(name string, v bool) []byte {
	var b byte
	if v {
		b = 1
	}
	return Raw(TypeBool, name, []byte{b})
}

func Int32(name string, v int32) []byte {
	return Raw(TypeInt32, name, binary.LittleEndian.AppendUint32(nil, uint32(v)))
}

func UInt32(name string, v uint32) []byte {
	return Raw(TypeUInt32, name, binary.LittleEndian.AppendUint32(nil, v))
}

func Int64(name string, v int64) []byte {
	return Raw(TypeInt64, name, binary.LittleEndian.AppendUint64(nil, uint64(v)))
}

func UInt64(name string, v uint64) []byte {
	return Raw(TypeUInt64, name, binary.LittleEndian.AppendUint64(nil, v))
}

func Pointer(name string, v uint64) []byte {
	return Raw(TypeVoidPointer, name, binary.LittleEndian.AppendUint64(nil, v))
}

func Double(name string, v float64) []byte {
	return Raw(TypeDouble, name, binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)))
}

func String(name, v string) []byte {
	return Raw(TypeString, name, utf16z(v))
}

// StringUnits encodes a string record from raw UTF-16 code units, which
// lets tests write unpaired surrogates.
func StringUnits(name string, units ...uint16) []byte {
	payload := make([]byte, 0, 2*len(units)+2)
	for _, u := range units {
		payload = binary.LittleEndian.AppendUint16(payload, u)
	}
	return Raw(TypeString, name, append(payload, 0, 0))
}

func ByteArray(name string, v []byte) []byte {
	payload := binary.LittleEndian.AppendUint64(nil, uint64(len(v)))
	return Raw(TypeByteArray, name, append(payload, v...))
}

// Level encodes a container record. Its declared length spans from the
// record start to the end of the children; the offset table follows.
func Level(name string, children ...[]byte) []byte {
	h := header(TypeLevel, name)
	body := Stream(children...)

	b := append([]byte(nil), h...)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(children)))
	b = binary.LittleEndian.AppendUint64(b, uint64(len(h)+12+len(body)))
	b = append(b, body...)

	offset := uint64(len(h) + 12)
	for _, c := range children {
		b = binary.LittleEndian.AppendUint64(b, offset)
		offset += uint64(len(c))
	}
	return b
}

// Compressed encodes a compressed record holding records.
func Compressed(records ...[]byte) []byte {
	b := append([]byte{TypeCompress, 0}, make([]byte, 10)...)
	return append(b, Deflate(Stream(records...))...)
}

// Deflate returns the zlib stream of b.
func Deflate(b []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(b); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Stream concatenates records.
func Stream(records ...[]byte) []byte {
	var b []byte
	for _, r := range records {
		b = append(b, r...)
	}
	return b
}
