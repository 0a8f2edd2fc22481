package pointio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/geoclust/points"
)

var (
	// ErrInvalidFormat is returned when the input is not a point file.
	ErrInvalidFormat = errors.New("pointio: invalid format")

	// ErrUnsupportedVersion is returned for point files of a newer version.
	ErrUnsupportedVersion = errors.New("pointio: unsupported version")

	// ErrChecksum is returned when the body checksum does not match.
	ErrChecksum = errors.New("pointio: checksum mismatch")
)

const (
	magic      = "GCPT"
	version    = 1
	headerSize = 4 + 1 + 1 + 4 + 8

	// maxValues bounds the allocation made for a header's count*dim.
	maxValues = 1 << 32
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Compression selects how the body of a point file is compressed.
type Compression uint8

const (
	CompressionNone Compression = 0
	// CompressionLZ4 is fast, for files that are read often.
	CompressionLZ4 Compression = 1
	// CompressionZstd has a better ratio, for archived files.
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", c)
	}
}

// ParseCompression parses the String form of a Compression.
func ParseCompression(s string) (Compression, error) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("pointio: unknown compression %q", s)
}

// Write encodes set to w.
func Write(w io.Writer, set points.Set, c Compression) error {
	header := make([]byte, 0, headerSize)
	header = append(header, magic...)
	header = append(header, version, byte(c))
	header = binary.LittleEndian.AppendUint32(header, uint32(set.Dim()))
	header = binary.LittleEndian.AppendUint64(header, uint64(set.Len()))
	if _, err := w.Write(header); err != nil {
		return err
	}

	body, err := compressor(w, c)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(body)
	crc := crc32.New(castagnoli)
	out := io.MultiWriter(bw, crc)

	row := make([]byte, 0, 8*set.Dim())
	for i := 0; i < set.Len(); i++ {
		row = row[:0]
		for _, v := range set.At(i) {
			row = binary.LittleEndian.AppendUint64(row, math.Float64bits(v))
		}
		if _, err := out.Write(row); err != nil {
			return err
		}
	}
	if err := binary.Write(bw, binary.LittleEndian, crc.Sum32()); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return body.Close()
}

// Read decodes a point set from r.
func Read(r io.Reader) (*points.Flat, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrInvalidFormat, err)
	}
	if string(header[:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidFormat, header[:4])
	}
	if header[4] != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, header[4])
	}
	c := Compression(header[5])
	dim := binary.LittleEndian.Uint32(header[6:])
	count := binary.LittleEndian.Uint64(header[10:])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero dimension", ErrInvalidFormat)
	}
	if count > maxValues/uint64(dim) {
		return nil, fmt.Errorf("%w: %d points of dimension %d", ErrInvalidFormat, count, dim)
	}

	body, err := decompressor(r, c)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	br := bufio.NewReader(body)
	crc := crc32.New(castagnoli)
	in := io.TeeReader(br, crc)

	data := make([]float64, count*uint64(dim))
	row := make([]byte, 8*dim)
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(in, row); err != nil {
			return nil, fmt.Errorf("%w: point %d: %w", ErrInvalidFormat, i, err)
		}
		for j := range dim {
			data[i*uint64(dim)+uint64(j)] = math.Float64frombits(binary.LittleEndian.Uint64(row[8*j:]))
		}
	}

	var sum uint32
	if err := binary.Read(br, binary.LittleEndian, &sum); err != nil {
		return nil, fmt.Errorf("%w: checksum: %w", ErrInvalidFormat, err)
	}
	if sum != crc.Sum32() {
		return nil, ErrChecksum
	}
	return points.NewFlat(data, int(dim))
}

// WriteFile encodes set to the file at path, replacing it.
func WriteFile(path string, set points.Set, c Compression) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(f, set, c)
}

// ReadFile decodes the point set stored at path.
func ReadFile(path string) (*points.Flat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func compressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	default:
		return nil, fmt.Errorf("pointio: unknown compression %v", c)
	}
}

type zstdReadCloser struct{ *zstd.Decoder }

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

func decompressor(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{dec}, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrInvalidFormat, c)
	}
}
