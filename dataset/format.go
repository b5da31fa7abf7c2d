package dataset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/ic-timon/mbrtree/geom"
)

const (
	// HeaderSize is the fixed header size.
	HeaderSize = 32

	// Magic identifies a rectangle dataset file.
	Magic = "MBRD"

	// FormatVersion is the current file format version.
	FormatVersion uint16 = 1
)

var (
	ErrInvalidMagic       = errors.New("dataset: invalid magic")
	ErrUnsupportedVersion = errors.New("dataset: unsupported format version")
	ErrTruncated          = errors.New("dataset: file truncated")
)

// Header holds the dataset metadata.
type Header struct {
	Magic    [4]byte
	Version  uint16
	Dim      uint16
	Count    uint64
	Reserved [16]byte
}

// RecordSize returns the encoded size of one record of dimension dim.
func RecordSize(dim int) int {
	return 8 + 16*dim
}

// EncodeHeader writes the header to a byte slice of HeaderSize bytes.
func EncodeHeader(h *Header) ([]byte, error) {
	if h == nil {
		return nil, errors.New("dataset: header is nil")
	}
	copy(h.Magic[:], Magic)
	h.Version = FormatVersion
	var w bytes.Buffer
	if err := binary.Write(&w, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeHeader reads the header from src.
func DecodeHeader(src []byte) (*Header, error) {
	if len(src) < HeaderSize {
		return nil, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncated, HeaderSize, len(src))
	}
	var h Header
	if err := binary.Read(bytes.NewReader(src[:HeaderSize]), binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	if string(h.Magic[:]) != Magic {
		return nil, ErrInvalidMagic
	}
	if h.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.Dim == 0 {
		return nil, fmt.Errorf("dataset: zero dimension")
	}
	return &h, nil
}

// Record is one rectangle with its identifier.
type Record struct {
	ID     uint64
	Region geom.Region
}

func appendRecord(dst []byte, r Record) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, r.ID)
	lo, hi := r.Region.LowPoint().Coords(), r.Region.HighPoint().Coords()
	for _, v := range lo {
		dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
	}
	for _, v := range hi {
		dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
	}
	return dst
}

func decodeRecord(src []byte, dim int) (Record, error) {
	id := binary.LittleEndian.Uint64(src)
	low, high := make([]float64, dim), make([]float64, dim)
	for d := 0; d < dim; d++ {
		low[d] = math.Float64frombits(binary.LittleEndian.Uint64(src[8+8*d:]))
		high[d] = math.Float64frombits(binary.LittleEndian.Uint64(src[8+8*(dim+d):]))
	}
	region, err := geom.NewRegionFromCoords(low, high)
	if err != nil {
		return Record{}, fmt.Errorf("dataset: record %d: %w", id, err)
	}
	return Record{ID: id, Region: region}, nil
}
