// Package dataset reads and writes rectangle datasets used to drive the bench
// harness. It is a flat input format, not an index snapshot.
//
// The file format consists of:
//   - Header (32 bytes): magic, version, dimension, record count
//   - Records: id (uint64) followed by dim low and dim high float64 bounds
//
// All values are little-endian.
package dataset
