package region

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

const (
	// DefaultMaxPayload bounds the compressed size of one chunk.
	DefaultMaxPayload = 1 << 20
	// DefaultMaxDecompressed bounds the decoded NBT size of one chunk.
	DefaultMaxDecompressed = 32 << 20

	payloadHeaderSize = 5
)

var (
	ErrCorruptPayload         = errors.New("region: corrupt chunk payload")
	ErrPayloadTooLarge        = errors.New("region: chunk payload too large")
	ErrUnsupportedCompression = errors.New("region: unsupported compression")
)

// Compression is the scheme tag stored in front of each payload.
type Compression byte

const (
	CompressionGzip         Compression = 1
	CompressionZlib         Compression = 2
	CompressionUncompressed Compression = 3
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionZlib:
		return "zlib"
	case CompressionUncompressed:
		return "none"
	}
	return fmt.Sprintf("unknown(%d)", byte(c))
}

// Payload is a chunk's compressed bytes as stored on disk.
type Payload struct {
	Compression Compression
	Data        []byte
}

// ReadPayload reads the length-prefixed payload at loc. Payloads whose declared length is
// not in (0, limit] are rejected before anything is allocated.
func ReadPayload(r io.ReaderAt, loc Location, limit int) (p Payload, err error) {
	if limit <= 0 {
		limit = DefaultMaxPayload
	}
	var header [payloadHeaderSize]byte
	if _, err = r.ReadAt(header[:], loc.Offset); err != nil {
		return p, readError(err, "payload header at %d", loc.Offset)
	}

	length := int32(binary.BigEndian.Uint32(header[:4]))
	if length <= 0 {
		return p, fmt.Errorf("%w: length %d", ErrCorruptPayload, length)
	}
	if int64(length) > int64(limit) {
		return p, fmt.Errorf("%w: length %d exceeds %d", ErrPayloadTooLarge, length, limit)
	}
	if int64(length)+4 > int64(loc.Sectors)*SectorSize {
		return p, fmt.Errorf("%w: length %d overruns %d sectors", ErrCorruptPayload, length, loc.Sectors)
	}

	p.Compression = Compression(header[4])
	p.Data = make([]byte, length-1)
	if _, err = r.ReadAt(p.Data, loc.Offset+payloadHeaderSize); err != nil {
		return Payload{}, readError(err, "payload body at %d", loc.Offset)
	}
	return p, nil
}

// readError classifies a failed ReadAt: running off the end of the file means the
// payload is corrupt, anything else means the file itself cannot be read.
func readError(err error, format string, args ...interface{}) error {
	what := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, ErrFileUnavailable):
		return fmt.Errorf("%s: %w", what, err)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: %s: %w", ErrCorruptPayload, what, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrFileUnavailable, what, err)
}

// Decompress inflates the payload into at most limit bytes.
func (p Payload) Decompress(limit int) (data []byte, err error) {
	if limit <= 0 {
		limit = DefaultMaxDecompressed
	}
	var stream io.ReadCloser
	source := bytes.NewReader(p.Data)
	switch p.Compression {
	case CompressionGzip:
		stream, err = gzip.NewReader(source)
	case CompressionZlib:
		stream, err = zlib.NewReader(source)
	case CompressionUncompressed:
		stream = io.NopCloser(source)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, p.Compression)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s header: %v", ErrCorruptPayload, p.Compression, err)
	}
	defer func() {
		if err2 := stream.Close(); err == nil && err2 != nil {
			data, err = nil, fmt.Errorf("%w: %s trailer: %v", ErrCorruptPayload, p.Compression, err2)
		}
	}()

	data, err = io.ReadAll(io.LimitReader(stream, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s stream: %v", ErrCorruptPayload, p.Compression, err)
	}
	if len(data) > limit {
		return nil, fmt.Errorf("%w: decompressed size exceeds %d", ErrPayloadTooLarge, limit)
	}
	return data, nil
}
