package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ic-timon/mbrtree/geom"
)

func rect(t *testing.T, low, high []float64) geom.Region {
	t.Helper()
	r, err := geom.NewRegionFromCoords(low, high)
	require.NoError(t, err)
	return r
}

func TestHeaderEncodeDecode(t *testing.T) {
	b, err := EncodeHeader(&Header{Dim: 3, Count: 42})
	require.NoError(t, err)
	require.Len(t, b, HeaderSize)

	h, err := DecodeHeader(b)
	require.NoError(t, err)
	assert.Equal(t, uint16(3), h.Dim)
	assert.Equal(t, uint64(42), h.Count)
	assert.Equal(t, FormatVersion, h.Version)

	bad := append([]byte(nil), b...)
	copy(bad, "NOPE")
	_, err = DecodeHeader(bad)
	assert.ErrorIs(t, err, ErrInvalidMagic)

	_, err = DecodeHeader(b[:10])
	assert.ErrorIs(t, err, ErrTruncated)

	bad = append([]byte(nil), b...)
	bad[4] = 9
	_, err = DecodeHeader(bad)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestWriteAndMmap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boxes.mbrd")
	records := []Record{
		{ID: 1, Region: rect(t, []float64{0, 0}, []float64{1, 2})},
		{ID: 7, Region: rect(t, []float64{-3.5, 4}, []float64{-1, 4})},
		{ID: 9, Region: geom.RegionFromPoint(geom.NewPoint(5, 6))},
	}
	require.NoError(t, WriteFileAtomic(path, 2, records))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	r, err := OpenMmap(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 2, r.Dim())
	require.Equal(t, len(records), r.Len())

	var got []Record
	require.NoError(t, r.Each(func(rec Record) error {
		got = append(got, rec)
		return nil
	}))
	require.Len(t, got, len(records))
	for i := range records {
		assert.Equal(t, records[i].ID, got[i].ID)
		assert.True(t, records[i].Region.Equal(got[i].Region), "record %d: %s != %s", i, records[i].Region, got[i].Region)
	}

	_, err = r.Record(3)
	assert.Error(t, err)
	require.NoError(t, r.Close())
	_, err = r.Record(0)
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestWriteRejectsMismatchedRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.mbrd")
	err := WriteFileAtomic(path, 2, []Record{{ID: 1, Region: geom.RegionFromPoint(geom.NewPoint(1, 2, 3))}})
	require.ErrorIs(t, err, geom.ErrDimensionMismatch)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestOpenTruncated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.mbrd")
	hdr, err := EncodeHeader(&Header{Dim: 2, Count: 10})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(hdr, make([]byte, RecordSize(2))...), 0o644))

	_, err = OpenMmap(path)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestOpenRejectsOverflowingCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.mbrd")
	// Count*RecordSize(2) wraps to a small number in uint64
	count := (^uint64(0))/uint64(RecordSize(2)) + 1
	hdr, err := EncodeHeader(&Header{Dim: 2, Count: count})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(hdr, make([]byte, 64)...), 0o644))

	r, err := OpenMmap(path)
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Nil(t, r)
}
