package wiimote

import (
	"errors"
	"sync"
	"time"

	"github.com/motionkit/controllerhub/internal/hid"
)

// Probe reports whether the endpoint is a remote of this family.
func Probe(info hid.Info) bool {
	return info.VendorID == VendorNintendo &&
		(info.ProductID == ProductWiimote || info.ProductID == ProductWiimotePlus)
}

// Device is the handle for one remote, identified by its serial number.
// The handle outlives the transport connection: it is marked disconnected
// on link loss and revived by Reconnect, keeping its decoded identity
// (serial, calibration constants) across the gap.
type Device struct {
	mu     sync.Mutex
	serial string
	info   hid.Info
	dev    hid.Device // nil while disconnected

	probed    bool
	accelCal  AccelCalibration
	mplusType MotionPlusType
	mplusCal  *MotionPlusCalibration
}

// New opens the endpoint and wraps it in a handle.
func New(mgr hid.Manager, info hid.Info) (*Device, error) {
	dev, err := mgr.Open(info)
	if err != nil {
		return nil, err
	}
	return &Device{serial: info.Serial, info: info, dev: dev}, nil
}

func (d *Device) Serial() string { return d.serial }

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
// disconnected. It reports whether a reconnection actually happened;
// an already-connected handle or a failed open leaves state untouched.
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

// Setup prepares a freshly connected remote: decodes static identity on
// first use (factory accelerometer calibration, MotionPlus detection and
// factory zero rates), lights the player LEDs, activates the MotionPlus
// and requests continuous data reporting. Identity reads are best-effort;
// only a dead transport is an error.
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
	if err := d.writeLocked(playerLEDReportBytes(LED2 | LED3)); err != nil {
		return err
	}
	if d.mplusType != MotionPlusNone {
		d.activateMotionPlusLocked()
	}
	return d.writeLocked(reportingModeBytes())
}

func (d *Device) probeIdentityLocked() {
	if data, err := d.readMemoryLocked(spaceEEPROM, accelCalAddr, 8); err == nil {
		if cal, ok := parseAccelCalibration(data); ok {
			d.accelCal = cal
		}
	}
	if d.accelCal == (AccelCalibration{}) {
		d.accelCal = defaultAccelCalibration()
	}

	switch {
	case d.info.ProductID == ProductWiimotePlus:
		d.mplusType = MotionPlusBuiltin
	default:
		if _, err := d.readMemoryLocked(spaceRegister, regMotionPlusIdent, 6); err == nil {
			d.mplusType = MotionPlusExternal
		}
	}
	if d.mplusType != MotionPlusNone {
		if data, err := d.readMemoryLocked(spaceRegister, regMotionPlusCalData, 32); err == nil {
			if cal, ok := parseMotionPlusCalibration(data); ok {
				d.mplusCal = &cal
			}
		}
	}
}

func (d *Device) activateMotionPlusLocked() {
	d.writeLocked(writeRegisterBytes(regMotionPlusInit, []byte{motionPlusInitVal}))
	d.writeLocked(writeRegisterBytes(regMotionPlusEnable, []byte{motionPlusActivateVal}))
}

// AccelCalibration returns the accelerometer reference decoded at setup.
func (d *Device) AccelCalibration() AccelCalibration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.probed {
		return defaultAccelCalibration()
	}
	return d.accelCal
}

// MotionPlusType returns how the angular-rate extension is attached.
func (d *Device) MotionPlusType() MotionPlusType {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mplusType
}

// MotionPlusCalibration returns the factory zero-rate reference, or nil
// when none could be read.
func (d *Device) MotionPlusCalibration() *MotionPlusCalibration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mplusCal
}

// SetReportingMode re-arms continuous data streaming. The protocol
// requires this whenever an unsolicited status report arrives, otherwise
// the remote stops sending data reports.
func (d *Device) SetReportingMode() error {
	return d.write(reportingModeBytes())
}

// RequestStatus asks the remote for a status report.
func (d *Device) RequestStatus() error {
	return d.write(statusRequestBytes())
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

func (d *Device) write(report []byte) error {
	d.mu.Lock()
	dev := d.dev
	d.mu.Unlock()
	if dev == nil {
		return hid.ErrDisconnected
	}
	_, err := dev.Write(report)
	return err
}

func (d *Device) writeLocked(report []byte) error {
	_, err := d.dev.Write(report)
	return err
}

var errMemoryRead = errors.New("wiimote: memory read timed out")

// readMemoryLocked performs a synchronous memory read: one 0x17 request
// followed by as many 0x21 answers as the size needs. Unrelated reports
// arriving in between are dropped; callers only use this during setup,
// before streaming starts.
func (d *Device) readMemoryLocked(space byte, addr uint32, size int) ([]byte, error) {
	if _, err := d.dev.Write(readMemoryBytes(space, addr, uint16(size))); err != nil {
		return nil, err
	}
	buf := make([]byte, 32)
	out := make([]byte, 0, size)
	deadline := time.Now().Add(500 * time.Millisecond)
	for len(out) < size {
		if time.Now().After(deadline) {
			return nil, errMemoryRead
		}
		n, err := d.dev.ReadTimeout(buf, 50*time.Millisecond)
		if err != nil {
			return nil, err
		}
		if n == 0 || buf[0] != ReportMemoryData {
			continue
		}
		chunk, err := parseMemoryData(buf[:n])
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out[:size], nil
}
