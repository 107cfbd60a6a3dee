package testutils

import (
	"encoding/binary"
	"math"
)

// F32 encodes v the way the peripheral publishes accelerometer axes
func F32(v float32) []byte {
	return binary.LittleEndian.AppendUint32(nil, math.Float32bits(v))
}

// U32 encodes a 4-byte little-endian counter (the short timestamp form)
func U32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

// U64 encodes an 8-byte little-endian counter
func U64(v uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, v)
}
