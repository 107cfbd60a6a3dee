package main

import (
	"errors"

	"github.com/srg/imuble/internal/device"
)

var userHints = []struct {
	err  error
	hint string
}{
	{device.ErrBluetoothOff, "turn Bluetooth on and retry"},
	{device.ErrAdapterNotReady, "check that Bluetooth is on and this terminal may use it"},
	{device.ErrAdapterUnavailable, "no usable Bluetooth adapter was found"},
	{device.ErrCharacteristicNotFound, "the device does not publish the selected profile; try --profile"},
	{device.ErrMalformedPayload, "the firmware publishes a different payload layout"},
}

// FormatUserError renders err for the terminal, adding a hint for known failures
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}
	for _, h := range userHints {
		if errors.Is(err, h.err) {
			return err.Error() + " (" + h.hint + ")"
		}
	}
	return err.Error()
}
