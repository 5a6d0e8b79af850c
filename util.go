package nd2

import (
	"fmt"

	"github.com/pkg/errors"
)

// A FormatError reports that the input is not a valid ND2 file.
type FormatError string

func (e FormatError) Error() string {
	return fmt.Sprintf("nd2: invalid format: %s", string(e))
}

// An UnsupportedError reports that the input uses a valid but
// unimplemented feature.
type UnsupportedError string

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("nd2: unsupported feature: %s", string(e))
}

// A MetadataError reports a decoded metadata tree that lacks an expected
// field or has the wrong shape.
type MetadataError string

func (e MetadataError) Error() string {
	return fmt.Sprintf("nd2: invalid metadata: %s", string(e))
}

// ErrInvalidChunkmapSignature is returned when the trailing chunk map
// signature does not match.
const ErrInvalidChunkmapSignature = FormatError("invalid chunk map signature")

// A MagicError reports a chunk header whose magic is not the chunk magic.
type MagicError struct {
	Expected uint32
	Actual   uint32
	Offset   int64
}

func (e *MagicError) Error() string {
	return fmt.Sprintf("nd2: invalid chunk magic 0x%08X at offset %d (expected 0x%08X)", e.Actual, e.Offset, e.Expected)
}

// A CorruptChunkError reports a chunk map that ends before its declared
// length or points outside the file.
type CorruptChunkError struct {
	Offset int64
	Reason string
}

func (e *CorruptChunkError) Error() string {
	return fmt.Sprintf("nd2: corrupt chunk at offset %d: %s", e.Offset, e.Reason)
}

// A ChunkNotFoundError reports a chunk name absent from the chunk map.
type ChunkNotFoundError struct {
	Name string
}

func (e *ChunkNotFoundError) Error() string {
	return fmt.Sprintf("nd2: chunk %q not found", e.Name)
}

// A VersionError reports a file version this package cannot read. Legacy
// JPEG 2000 based files report version 1.0.
type VersionError struct {
	Major, Minor int
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("nd2: unsupported version %d.%d", e.Major, e.Minor)
}

// A BoundsError reports a frame coordinate outside its axis extent.
type BoundsError struct {
	Axis  Axis
	Index int
	Size  int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("nd2: %s index %d out of range [0, %d)", e.Axis, e.Index, e.Size)
}

// IsNotFound reports whether err, or any error it wraps, is a
// ChunkNotFoundError.
func IsNotFound(err error) bool {
	var e *ChunkNotFoundError
	return errors.As(err, &e)
}

// IsOutOfRange reports whether err, or any error it wraps, is a BoundsError.
func IsOutOfRange(err error) bool {
	var e *BoundsError
	return errors.As(err, &e)
}

