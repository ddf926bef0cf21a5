package joycon

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/motionkit/controllerhub/internal/hid"
)

// Probe reports whether the endpoint is a controller of this family.
func Probe(info hid.Info) bool {
	if info.VendorID != VendorNintendo {
		return false
	}
	switch info.ProductID {
	case ProductLeft, ProductRight, ProductProController:
		return true
	}
	return false
}

func sideOf(productID uint16) Side {
	switch productID {
	case ProductLeft:
		return SideLeft
	case ProductRight:
		return SideRight
	default:
		return SidePro
	}
}

// Device is the handle for one controller. Like the remote family, the
// handle survives link loss; factory data read over SPI is cached for
// the lifetime of the handle.
type Device struct {
	mu     sync.Mutex
	serial string
	info   hid.Info
	side   Side
	dev    hid.Device // nil while disconnected
	seq    byte

	probed      bool
	imuCal      *IMUCalibration
	bodyColor   string
	buttonColor string
}

// New opens the endpoint and wraps it in a handle.
func New(mgr hid.Manager, info hid.Info) (*Device, error) {
	dev, err := mgr.Open(info)
	if err != nil {
		return nil, err
	}
	return &Device{
		serial: info.Serial,
		info:   info,
		side:   sideOf(info.ProductID),
		dev:    dev,
	}, nil
}

func (d *Device) Serial() string { return d.serial }

func (d *Device) Side() Side { return d.side }

// IsConnected reports whether an open transport connection is held.
func (d *Device) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dev != nil
}

// Disconnected releases the transport connection. Idempotent.
func (d *Device) Disconnected() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dev != nil {
		d.dev.Close()
		d.dev = nil
	}
}

// Reconnect opens the given endpoint if the handle is currently
// disconnected. Reports whether a reconnection actually happened.
func (d *Device) Reconnect(mgr hid.Manager, info hid.Info) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dev != nil {
		return false
	}
	dev, err := mgr.Open(info)
	if err != nil {
		return false
	}
	d.dev = dev
	d.info = info
	return true
}

// Setup prepares a freshly connected controller: reads factory IMU
// calibration and design colors on first use, enables the IMU, switches
// to the full input report and lights the player LEDs. SPI reads are
// best-effort; only a dead transport is an error.
func (d *Device) Setup() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dev == nil {
		return hid.ErrDisconnected
	}
	if !d.probed {
		d.probeIdentityLocked()
		d.probed = true
	}
	setup := []struct {
		cmd  byte
		args []byte
	}{
		{subcmdEnableIMU, []byte{0x01}},
		{subcmdPlayerLights, []byte{0x06}}, // players 2+3, like the remote LEDs
		{subcmdInputMode, []byte{fullInputMode}},
	}
	for _, c := range setup {
		// A missing acknowledgement is tolerated; the controller may
		// already be configured. Only a dead link aborts setup.
		if _, err := d.subcommandLocked(c.cmd, c.args); errors.Is(err, hid.ErrDisconnected) {
			return err
		}
	}
	return nil
}

func (d *Device) probeIdentityLocked() {
	if data, err := d.spiReadLocked(spiFactoryIMUCal, 24); err == nil {
		if cal, ok := parseFactoryIMUCal(data); ok {
			d.imuCal = &cal
		}
	}
	if data, err := d.spiReadLocked(spiColors, 6); err == nil {
		if body, buttons, ok := parseColors(data); ok {
			d.bodyColor = body
			d.buttonColor = buttons
		}
	}
}

// IMUCalibration returns the factory gyro offsets, or nil when the SPI
// read failed.
func (d *Device) IMUCalibration() *IMUCalibration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.imuCal
}

// BodyColor returns the hex body color, empty when unknown.
func (d *Device) BodyColor() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bodyColor
}

// ReadTimeout reads the next input report with a bounded wait.
func (d *Device) ReadTimeout(p []byte, timeout time.Duration) (int, error) {
	d.mu.Lock()
	dev := d.dev
	d.mu.Unlock()
	if dev == nil {
		return 0, hid.ErrDisconnected
	}
	return dev.ReadTimeout(p, timeout)
}

// subcommandLocked sends one subcommand and waits briefly for its 0x21
// acknowledgement, dropping unrelated reports in between.
func (d *Device) subcommandLocked(subcmd byte, args []byte) ([]byte, error) {
	d.seq++
	if _, err := d.dev.Write(subcommandBytes(d.seq, subcmd, args)); err != nil {
		return nil, err
	}
	buf := make([]byte, 64)
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		n, err := d.dev.ReadTimeout(buf, 50*time.Millisecond)
		if err != nil {
			return nil, hid.ErrDisconnected
		}
		if n == 0 || buf[0] != ReportSubcmdReply {
			continue
		}
		payload, err := parseSubcmdReply(buf[:n], subcmd)
		if err != nil {
			continue
		}
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil
	}
	return nil, fmt.Errorf("joycon: subcommand 0x%02X timed out", subcmd)
}

func (d *Device) spiReadLocked(addr uint32, size byte) ([]byte, error) {
	args := []byte{byte(addr), byte(addr >> 8), byte(addr >> 16), byte(addr >> 24), size}
	payload, err := d.subcommandLocked(subcmdSPIRead, args)
	if err != nil {
		return nil, err
	}
	return parseSPIReply(payload, addr, size)
}
