package device

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// BaseUUID is the Bluetooth SIG base UUID, used to expand 16- and 32-bit short forms.
var BaseUUID = uuid.MustParse("00000000-0000-1000-8000-00805f9b34fb")

// ParseUUID parses a UUID written in any of the forms BLE tooling prints:
// canonical hyphenated, 32 hex digits without dashes, or a 16/32-bit short form
// (optionally 0x-prefixed), which is expanded against BaseUUID.
func ParseUUID(s string) (uuid.UUID, error) {
	str := strings.ToLower(strings.TrimSpace(s))
	str = strings.TrimPrefix(str, "0x")

	switch len(str) {
	case 0:
		return uuid.Nil, fmt.Errorf("UUID cannot be empty")
	case 4, 8:
		v, err := strconv.ParseUint(str, 16, 32)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid UUID format: %s", s)
		}
		return FromShortUUID(uint32(v)), nil
	}

	u, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid UUID format: %s: %w", s, err)
	}
	return u, nil
}

// MustParseUUID is like ParseUUID but panics on malformed input.
// Only meant for compile-time constants.
func MustParseUUID(s string) uuid.UUID {
	u, err := ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

// FromShortUUID expands a 16- or 32-bit assigned number into a full 128-bit UUID
func FromShortUUID(v uint32) uuid.UUID {
	u := BaseUUID
	binary.BigEndian.PutUint32(u[0:4], v)
	return u
}

// ShortenUUID returns the first eight characters of the canonical form, for display
func ShortenUUID(u uuid.UUID) string {
	return u.String()[:8]
}

// UUIDError names the entry of a ValidateUUID list that failed to parse
type UUIDError struct {
	Index int
	Value string
	Err   error
}

func (e *UUIDError) Error() string {
	if strings.TrimSpace(e.Value) == "" {
		return fmt.Sprintf("UUID at index %d cannot be empty", e.Index)
	}
	return fmt.Sprintf("invalid UUID format at index %d: %s", e.Index, e.Value)
}

func (e *UUIDError) Unwrap() error {
	return e.Err
}

// ValidateUUID validates that UUID strings are non-empty and well-formed.
// Returns parsed UUIDs in input order, or a *UUIDError for the first bad entry.
func ValidateUUID(uuids ...string) ([]uuid.UUID, error) {
	if len(uuids) == 0 {
		return nil, fmt.Errorf("at least one UUID is required")
	}

	result := make([]uuid.UUID, 0, len(uuids))
	for i, s := range uuids {
		u, err := ParseUUID(s)
		if err != nil {
			return nil, &UUIDError{Index: i, Value: s, Err: err}
		}
		result = append(result, u)
	}
	return result, nil
}
