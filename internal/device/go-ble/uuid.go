package goble

import (
	"encoding/binary"
	"fmt"

	"github.com/go-ble/ble"
	"github.com/google/uuid"
	"github.com/srg/imuble/internal/device"
)

// toBLEUUID converts a canonical UUID into go-ble's little-endian byte order
func toBLEUUID(u uuid.UUID) ble.UUID {
	b := make([]byte, len(u))
	copy(b, u[:])
	return ble.UUID(ble.Reverse(b))
}

// fromBLEUUID converts a go-ble UUID into canonical 128-bit form; 16- and 32-bit
// UUIDs are expanded onto the Bluetooth base UUID.
func fromBLEUUID(u ble.UUID) (uuid.UUID, error) {
	b := ble.Reverse(u)
	switch len(b) {
	case 2:
		return device.FromShortUUID(uint32(binary.BigEndian.Uint16(b))), nil
	case 4:
		return device.FromShortUUID(binary.BigEndian.Uint32(b)), nil
	case 16:
		return uuid.FromBytes(b)
	default:
		return uuid.Nil, fmt.Errorf("invalid BLE UUID length %d", len(b))
	}
}
