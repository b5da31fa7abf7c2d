package dataset

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Reader is a read-only view over an mmap'd dataset file.
type Reader struct {
	f    *os.File
	data mmap.MMap
	hdr  Header
}

// OpenMmap maps path read-only and validates its header and length.
func OpenMmap(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	r := &Reader{f: f, data: m}
	hdr, err := DecodeHeader(m)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.hdr = *hdr
	// DecodeHeader guarantees len(m) >= HeaderSize; dividing keeps a huge Count from wrapping.
	size := uint64(RecordSize(int(hdr.Dim)))
	if fits := (uint64(len(m)) - HeaderSize) / size; hdr.Count > fits {
		r.Close()
		return nil, fmt.Errorf("%w: header claims %d records of %d bytes, file holds %d", ErrTruncated, hdr.Count, size, fits)
	}
	return r, nil
}

// Dim returns the dimension of every record.
func (r *Reader) Dim() int { return int(r.hdr.Dim) }

// Len returns the number of records.
func (r *Reader) Len() int { return int(r.hdr.Count) }

// Record decodes the i-th record.
func (r *Reader) Record(i int) (Record, error) {
	if r.data == nil {
		return Record{}, os.ErrClosed
	}
	if i < 0 || i >= r.Len() {
		return Record{}, fmt.Errorf("dataset: record %d out of range [0, %d)", i, r.Len())
	}
	size := RecordSize(r.Dim())
	off := HeaderSize + i*size
	return decodeRecord(r.data[off:off+size], r.Dim())
}

// Each calls fn for every record in file order and stops at the first error.
func (r *Reader) Each(fn func(Record) error) error {
	for i := 0; i < r.Len(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// Close unmaps the file and closes it.
func (r *Reader) Close() error {
	if r.data != nil {
		if err := r.data.Unmap(); err != nil {
			return err
		}
		r.data = nil
	}
	if r.f != nil {
		err := r.f.Close()
		r.f = nil
		return err
	}
	return nil
}
