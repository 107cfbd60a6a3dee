//go:build test

package main

import (
	"bytes"

	"github.com/srg/imuble/internal/device"
	"github.com/srg/imuble/internal/testutils"
	"github.com/srg/imuble/session"
)

// Test devices; imu1 matches the fake peripheral's default address
var (
	testIMU1    = device.DiscoveredDevice{Name: "imu-1", Address: "aa:bb:cc:dd:ee:01", RSSI: -40}
	testIMU2    = device.DiscoveredDevice{Name: "imu-2", Address: "aa:bb:cc:dd:ee:02", RSSI: -55}
	testUnnamed = device.DiscoveredDevice{Address: "aa:bb:cc:dd:ee:03", RSSI: -80}
)

// CommandTestSuite extends MockAdapterSuite with command testing utilities.
// All cmd/imuble test suites should embed this instead of MockAdapterSuite.
type CommandTestSuite struct {
	testutils.MockAdapterSuite
}

// ExecuteCommand runs a fresh command tree with args and returns stdout, stderr and the error
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, string, error) {
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// IMUPeripheral builds a peripheral with the built-in profile layout
func (s *CommandTestSuite) IMUPeripheral(address string) *testutils.FakePeripheral {
	return s.WithPeripheral().
		WithAddress(address).
		WithService(session.IMUServiceUUID).
		WithCharacteristic(session.AccelXUUID, "read", testutils.F32(0.5), testutils.F32(0.75)).
		WithCharacteristic(session.AccelYUUID, "read", testutils.F32(-0.25)).
		WithCharacteristic(session.AccelZUUID, "read", testutils.F32(9.81)).
		WithCharacteristic(session.CurrentTimeUUID, "read", testutils.U32(1000), testutils.U32(1500)).
		Build()
}
