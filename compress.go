package nd2

import (
	"bytes"
	"compress/zlib"
	"io"
)

// inflate decompresses a zlib stream.
func inflate(p []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(p))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}

// newReaderAt returns r as an io.ReaderAt with its size. Readers without
// random access are read to the end first.
func newReaderAt(r io.Reader) (io.ReaderAt, int64, error) {
	switch t := r.(type) {
	case *bytes.Reader:
		return t, t.Size(), nil
	case interface {
		io.ReaderAt
		io.Seeker
	}:
		size, err := t.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, err
		}
		return t, size, nil
	}

	p, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(p), int64(len(p)), nil
}
