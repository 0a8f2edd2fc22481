// Package pointio reads and writes point sets in a compact binary format.
//
// A point file starts with a fixed header:
//
//	magic       [4]byte "GCPT"
//	version     uint8   1
//	compression uint8   0 none, 1 lz4, 2 zstd
//	dim         uint32
//	count       uint64
//
// followed by the body, compressed as a stream when compression is not none:
// count*dim little-endian float64 values in row order and a CRC-32C of
// those value bytes. All integers are little-endian.
package pointio
