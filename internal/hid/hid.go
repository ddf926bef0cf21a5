// Package hid abstracts the HID transport the controller families are
// reached over. Reports are exchanged with the report ID as the first
// byte, in both directions.
package hid

import (
	"errors"
	"time"
)

// ErrDisconnected reports that the link to a device is permanently gone.
// Transient conditions (read timeouts, momentary write failures) are not
// mapped to it.
var ErrDisconnected = errors.New("hid: device disconnected")

// Device represents an opened HID device capable of report I/O.
type Device interface {
	// Write sends an output report. p[0] is the report ID.
	Write(p []byte) (int, error)
	// ReadTimeout reads the next input report into p, waiting at most
	// timeout. It returns (0, nil) when no report arrived in time and an
	// error wrapping ErrDisconnected when the link is gone.
	ReadTimeout(p []byte, timeout time.Duration) (int, error)
	Close() error
}

// Info represents a HID device descriptor.
type Info struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Serial       string
	Product      string
	Manufacturer string
	UsagePage    uint16
	Usage        uint16
}

// Manager enumerates and opens HID devices.
type Manager interface {
	Devices() ([]Info, error)
	Open(info Info) (Device, error)
}

// NewManager returns the HID manager for the selected backend. It fails
// when the underlying HID capability cannot be initialized at all.
func NewManager() (Manager, error) {
	return newManager()
}
