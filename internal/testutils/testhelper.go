// Package testutils holds shared test doubles and assertion helpers.
package testutils

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
)

type TestHelper struct {
	T      *testing.T
	Logger *logrus.Logger
	Logs   *bytes.Buffer
}

// NewTestHelper creates a test helper whose logger writes into an inspectable buffer
func NewTestHelper(t *testing.T) *TestHelper {
	logs := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(logs)
	logger.SetLevel(logrus.DebugLevel) // enable debug logs to track execution flow
	logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})
	return &TestHelper{
		T:      t,
		Logger: logger,
		Logs:   logs,
	}
}

// CreateMockPeripheral starts a fake peripheral profile
func CreateMockPeripheral() *PeripheralBuilder {
	return NewPeripheralBuilder()
}

// CreateMockPeripheralFromJSON starts a fake peripheral profile from JSON
func CreateMockPeripheralFromJSON(jsonStrFmt string, args ...interface{}) *PeripheralBuilder {
	return NewPeripheralBuilder().FromJSON(jsonStrFmt, args...)
}
