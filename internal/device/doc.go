// Package device defines the BLE central abstractions the IMU session is written
// against, independent of the platform stack:
//   - Adapter: radio acquisition, availability, filtered scanning, connect/disconnect
//   - Peripheral, Service, Characteristic: the read-only GATT walk
//   - UUID parsing into canonical 128-bit form
//   - the error taxonomy shared by the codec, locator and session
package device
