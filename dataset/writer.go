package dataset

import (
	"bufio"
	"fmt"
	"os"

	"github.com/ic-timon/mbrtree/geom"
)

// WriteFile writes records of dimension dim to path.
func WriteFile(path string, dim int, records []Record) error {
	if dim < 1 || dim > 0xffff {
		return fmt.Errorf("dataset: dimension %d out of range", dim)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, dim, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteFileAtomic writes to path+".tmp", then renames it over path.
func WriteFileAtomic(path string, dim int, records []Record) error {
	tmp := path + ".tmp"
	if err := WriteFile(tmp, dim, records); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	_ = os.Remove(path) // ignore error if not exists
	return os.Rename(tmp, path)
}

func write(f *os.File, dim int, records []Record) error {
	hdr, err := EncodeHeader(&Header{Dim: uint16(dim), Count: uint64(len(records))})
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	buf := make([]byte, 0, RecordSize(dim))
	for _, r := range records {
		if r.Region.Dim() != dim {
			return fmt.Errorf("dataset: record %d: %w: %d axes, file has %d", r.ID, geom.ErrDimensionMismatch, r.Region.Dim(), dim)
		}
		if _, err := w.Write(appendRecord(buf[:0], r)); err != nil {
			return err
		}
	}
	return w.Flush()
}
