// Package wire packs and unpacks the fixed-width float vectors and
// per-class normalizer hashmaps that travel through the KV store, the
// same way original_source/src/redis_client.cc reinterpret_casts a
// float* for SET/GET. The byte order is this implementation's own
// concern of the KV store's row schema.
package wire

import (
	"encoding/binary"
	"fmt"
)

// EncodeFloat32s packs a []float32 row into bytes, little-endian.
func EncodeFloat32s(values []float32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[4*i:], float32bits(v))
	}
	return buf
}

// DecodeFloat32s unpacks bytes into a []float32 row of the given size.
// Returns an error if buf is short.
func DecodeFloat32s(buf []byte, size int) ([]float32, error) {
	if len(buf) < 4*size {
		return nil, fmt.Errorf("wire: short buffer, want %d bytes got %d", 4*size, len(buf))
	}
	out := make([]float32, size)
	for i := range out {
		out[i] = float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return out, nil
}

// EncodeFloat64s packs a []float64 vector into bytes, little-endian.
// Used for the per-class normalizer hashmap fields.
func EncodeFloat64s(values []float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[8*i:], float64bits(v))
	}
	return buf
}

// DecodeFloat64s unpacks bytes into a []float64 vector of the given size.
func DecodeFloat64s(buf []byte, size int) ([]float64, error) {
	if len(buf) < 8*size {
		return nil, fmt.Errorf("wire: short buffer, want %d bytes got %d", 8*size, len(buf))
	}
	out := make([]float64, size)
	for i := range out {
		out[i] = float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return out, nil
}
