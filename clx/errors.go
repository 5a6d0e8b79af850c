package clx

import "fmt"

// A DecodeError reports a structural problem at a byte offset of the
// buffer being decoded.
type DecodeError struct {
	Offset int64
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("clx: decode error at offset %d: %s", e.Offset, e.Reason)
}

// An UnsupportedTypeError reports a type code whose record length cannot be
// determined.
type UnsupportedTypeError struct {
	Code   byte
	Offset int64
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("clx: unsupported type code %d at offset %d", e.Code, e.Offset)
}

// A DecompressError reports a malformed zlib sub-stream.
type DecompressError struct {
	Offset int64
	Err    error
}

func (e *DecompressError) Error() string {
	return fmt.Sprintf("clx: decompression failed at offset %d: %v", e.Offset, e.Err)
}

func (e *DecompressError) Unwrap() error { return e.Err }

// A TextError reports an invalid UTF-16 sequence.
type TextError struct {
	Offset int64
	Reason string
}

func (e *TextError) Error() string {
	return fmt.Sprintf("clx: invalid UTF-16 at offset %d: %s", e.Offset, e.Reason)
}
