package device

import (
	"errors"
	"fmt"
	"strings"
)

// Session-level errors
var (
	ErrAdapterUnavailable = errors.New("bluetooth adapter unavailable")
	ErrAdapterNotReady    = errors.New("bluetooth adapter not ready")
	ErrBluetoothOff       = errors.New("bluetooth is turned off")
	ErrInvalidSelection   = errors.New("invalid device selection")
	ErrConnectFailed      = errors.New("connect failed")
	ErrUnsupported        = errors.New("unsupported")
)

// Polling errors; any of them ends the current cycle and the session.
var (
	ErrNotReadable      = errors.New("characteristic is not readable")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrIO               = errors.New("i/o error")
	ErrTimeout          = errors.New("timeout")

	// ErrCharacteristicNotFound matches any *NotFoundError for a characteristic via errors.Is
	ErrCharacteristicNotFound = &NotFoundError{Resource: "characteristic"}
)

// NotFoundError represents an error when a BLE resource is not found
type NotFoundError struct {
	Resource string   // "service", "characteristic"
	UUIDs    []string // one or more UUIDs, outermost first
}

func (e *NotFoundError) Error() string {
	if len(e.UUIDs) == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	if len(e.UUIDs) == 1 {
		return fmt.Sprintf("%s %q not found", e.Resource, e.UUIDs[0])
	}
	return fmt.Sprintf("%s %q not found in service %q", e.Resource, e.UUIDs[len(e.UUIDs)-1], e.UUIDs[0])
}

// Is allows errors.Is to compare NotFoundError values by Resource
func (e *NotFoundError) Is(target error) bool {
	t, ok := target.(*NotFoundError)
	if !ok {
		return false
	}
	return e.Resource == t.Resource
}

// PayloadError describes a characteristic value whose length does not fit the decoded type
type PayloadError struct {
	Kind string // "f32", "u32", "u64"
	Want []int
	Got  int
}

func (e *PayloadError) Error() string {
	want := make([]string, len(e.Want))
	for i, n := range e.Want {
		want[i] = fmt.Sprint(n)
	}
	return fmt.Sprintf("%s: expected %s bytes for %s, got %d", ErrMalformedPayload, strings.Join(want, " or "), e.Kind, e.Got)
}

func (e *PayloadError) Is(target error) bool {
	return target == ErrMalformedPayload
}

// IsPollingError reports whether err belongs to the set that aborts a polling cycle
func IsPollingError(err error) bool {
	return errors.Is(err, ErrCharacteristicNotFound) ||
		errors.Is(err, ErrNotReadable) ||
		errors.Is(err, ErrMalformedPayload) ||
		errors.Is(err, ErrIO)
}

// NormalizeError maps known platform error strings to the sentinels above.
// Returns wrapped errors to preserve original context.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "central manager has invalid state"):
		return fmt.Errorf("%w: %v", ErrBluetoothOff, err)
	case containsIgnoreCase(msg, "bluetooth is turned off"):
		return fmt.Errorf("%w: %v", ErrBluetoothOff, err)
	case containsIgnoreCase(msg, "powered off"):
		return fmt.Errorf("%w: %v", ErrBluetoothOff, err)
	default:
		return err
	}
}

// containsIgnoreCase checks substring case-insensitively
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
