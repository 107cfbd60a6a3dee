// Package codec decodes raw GATT characteristic values into typed numbers.
// All values are little-endian; lengths are enforced exactly.
package codec

import (
	"encoding/binary"
	"math"

	"github.com/srg/imuble/internal/device"
)

// DecodeF32 decodes a 4-byte little-endian IEEE-754 float
func DecodeF32(b []byte) (float32, error) {
	if len(b) != 4 {
		return 0, &device.PayloadError{Kind: "f32", Want: []int{4}, Got: len(b)}
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// DecodeU32 decodes a 4-byte little-endian unsigned integer
func DecodeU32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, &device.PayloadError{Kind: "u32", Want: []int{4}, Got: len(b)}
	}
	return binary.LittleEndian.Uint32(b), nil
}

// DecodeU64 accepts either a 4-byte value (zero-extended u32) or an 8-byte value.
// Firmware built around a 32-bit millis() counter publishes the short form.
func DecodeU64(b []byte) (uint64, error) {
	switch len(b) {
	case 4:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	case 8:
		return binary.LittleEndian.Uint64(b), nil
	default:
		return 0, &device.PayloadError{Kind: "u64", Want: []int{4, 8}, Got: len(b)}
	}
}
