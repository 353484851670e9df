package stream

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

// Decoder turns a received frame into the message given to classification
// and listeners.
type Decoder func(data []byte, binary bool) ([]byte, error)

// Gzip inflates binary gzip frames. Text frames pass through.
func Gzip(data []byte, binary bool) ([]byte, error) {
	if !binary {
		return data, nil
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Inflate decompresses binary raw-deflate frames. Text frames pass through.
func Inflate(data []byte, binary bool) ([]byte, error) {
	if !binary {
		return data, nil
	}
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	return io.ReadAll(r)
}
