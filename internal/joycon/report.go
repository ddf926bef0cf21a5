// Package joycon drives the gyro-equipped handheld controller family
// over HID: the subcommand protocol on output report 0x01, the full
// input report 0x30 and SPI flash reads for factory data.
package joycon

import "fmt"

const (
	VendorNintendo       uint16 = 0x057E
	ProductLeft          uint16 = 0x2006
	ProductRight         uint16 = 0x2007
	ProductProController uint16 = 0x2009
)

// Side tells which half (or whether a full pad) a handle is.
type Side int

const (
	SideLeft Side = iota
	SideRight
	SidePro
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "pro"
	}
}

// Report IDs.
const (
	reportOutput      byte = 0x01 // rumble + subcommand
	ReportSubcmdReply byte = 0x21
	ReportFullInput   byte = 0x30
)

// Subcommand IDs.
const (
	subcmdInputMode    byte = 0x03
	subcmdSPIRead      byte = 0x10
	subcmdPlayerLights byte = 0x30
	subcmdEnableIMU    byte = 0x40
)

const fullInputMode byte = 0x30

// SPI flash addresses for factory data.
const (
	spiFactoryIMUCal uint32 = 0x6020
	spiColors        uint32 = 0x6050
)

// Buttons is the three button bytes of an input report, right byte in
// the high position.
type Buttons uint32

const (
	ButtonY      Buttons = 0x010000
	ButtonX      Buttons = 0x020000
	ButtonB      Buttons = 0x040000
	ButtonA      Buttons = 0x080000
	ButtonR      Buttons = 0x400000
	ButtonZR     Buttons = 0x800000
	ButtonMinus  Buttons = 0x000100
	ButtonPlus   Buttons = 0x000200
	ButtonHome   Buttons = 0x001000
	ButtonDown   Buttons = 0x000001
	ButtonUp     Buttons = 0x000002
	ButtonRight  Buttons = 0x000004
	ButtonLeft   Buttons = 0x000008
	ButtonL      Buttons = 0x000040
	ButtonZL     Buttons = 0x000080
)

// Has reports whether every button in mask is pressed.
func (b Buttons) Has(mask Buttons) bool { return b&mask == mask }

// IMUSample is one raw inertial frame: accelerometer and gyro triples in
// sensor units, little-endian int16 on the wire.
type IMUSample struct {
	AccelX, AccelY, AccelZ int16
	GyroX, GyroY, GyroZ    int16
}

func decodeIMUSample(p []byte) IMUSample {
	le := func(off int) int16 {
		return int16(uint16(p[off]) | uint16(p[off+1])<<8)
	}
	return IMUSample{
		AccelX: le(0), AccelY: le(2), AccelZ: le(4),
		GyroX: le(6), GyroY: le(8), GyroZ: le(10),
	}
}

// InputReport is a decoded 0x30 full input report. The controller packs
// three consecutive IMU frames per report.
type InputReport struct {
	Buttons  Buttons
	Battery  byte // 0, 2, 4, 6, 8
	Charging bool
	Frames   [3]IMUSample
}

// DecodeInput decodes a 0x30 report. ok is false for anything else.
func DecodeInput(report []byte) (InputReport, bool) {
	if len(report) < 49 || report[0] != ReportFullInput {
		return InputReport{}, false
	}
	in := InputReport{
		Buttons:  Buttons(report[3])<<16 | Buttons(report[4])<<8 | Buttons(report[5]),
		Battery:  report[2] >> 4 & 0x0E,
		Charging: report[2]>>4&0x01 != 0,
	}
	for i := range in.Frames {
		in.Frames[i] = decodeIMUSample(report[13+12*i : 25+12*i])
	}
	return in, true
}

// BatteryPercent maps the 0-8 battery field to a 0-100 scale.
func BatteryPercent(raw byte) byte {
	if raw > 8 {
		raw = 8
	}
	return raw * 100 / 8
}

// subcommandBytes builds an output report carrying a subcommand with a
// neutral rumble block.
func subcommandBytes(seq byte, subcmd byte, args []byte) []byte {
	report := make([]byte, 11+len(args))
	report[0] = reportOutput
	report[1] = seq & 0x0F
	copy(report[2:10], []byte{0x00, 0x01, 0x40, 0x40, 0x00, 0x01, 0x40, 0x40})
	report[10] = subcmd
	copy(report[11:], args)
	return report
}

// parseSubcmdReply validates a 0x21 reply to the given subcommand and
// returns its payload.
func parseSubcmdReply(report []byte, subcmd byte) ([]byte, error) {
	if len(report) < 15 || report[0] != ReportSubcmdReply {
		return nil, fmt.Errorf("joycon: not a subcommand reply")
	}
	if report[14] != subcmd {
		return nil, fmt.Errorf("joycon: reply to 0x%02X, want 0x%02X", report[14], subcmd)
	}
	if report[13]&0x80 == 0 {
		return nil, fmt.Errorf("joycon: subcommand 0x%02X not acknowledged", subcmd)
	}
	return report[15:], nil
}

// parseSPIReply extracts the flash data from an SPI read reply payload.
func parseSPIReply(payload []byte, addr uint32, size byte) ([]byte, error) {
	if len(payload) < 5+int(size) {
		return nil, fmt.Errorf("joycon: short SPI reply")
	}
	got := uint32(payload[0]) | uint32(payload[1])<<8 | uint32(payload[2])<<16 | uint32(payload[3])<<24
	if got != addr || payload[4] != size {
		return nil, fmt.Errorf("joycon: SPI reply for 0x%X/%d, want 0x%X/%d", got, payload[4], addr, size)
	}
	return payload[5 : 5+int(size)], nil
}

// IMUCalibration carries the gyro zero offsets in raw units. The
// accelerometer origin is left at the factory zero; only the gyro drifts
// enough to need online recalibration.
type IMUCalibration struct {
	GyroOffsetX float64
	GyroOffsetY float64
	GyroOffsetZ float64
}

const (
	// ±8 g over the int16 range.
	accelUnitG = 0.000244
	// ±2000 degrees per second over the int16 range.
	gyroUnitDps = 0.06103
)

// Acceleration converts a raw frame to multiples of g.
func Acceleration(s IMUSample) (x, y, z float64) {
	return float64(s.AccelX) * accelUnitG,
		float64(s.AccelY) * accelUnitG,
		float64(s.AccelZ) * accelUnitG
}

// AngularVelocity converts a raw frame to degrees per second against the
// given zero offsets.
func (c IMUCalibration) AngularVelocity(s IMUSample) (x, y, z float64) {
	return (float64(s.GyroX) - c.GyroOffsetX) * gyroUnitDps,
		(float64(s.GyroY) - c.GyroOffsetY) * gyroUnitDps,
		(float64(s.GyroZ) - c.GyroOffsetZ) * gyroUnitDps
}

// deriveSpreadLimit rejects a calibration window when any gyro axis
// strays this far from its mean, in raw units (about 4.5 deg/s).
const deriveSpreadLimit = 75.0

// DeriveGyroZero derives fresh gyro offsets from a window of frames
// taken at rest. It fails when the window is empty or too noisy.
func DeriveGyroZero(samples []IMUSample) (IMUCalibration, bool) {
	if len(samples) == 0 {
		return IMUCalibration{}, false
	}
	var sx, sy, sz float64
	for _, s := range samples {
		sx += float64(s.GyroX)
		sy += float64(s.GyroY)
		sz += float64(s.GyroZ)
	}
	n := float64(len(samples))
	cal := IMUCalibration{GyroOffsetX: sx / n, GyroOffsetY: sy / n, GyroOffsetZ: sz / n}
	for _, s := range samples {
		if abs(float64(s.GyroX)-cal.GyroOffsetX) > deriveSpreadLimit ||
			abs(float64(s.GyroY)-cal.GyroOffsetY) > deriveSpreadLimit ||
			abs(float64(s.GyroZ)-cal.GyroOffsetZ) > deriveSpreadLimit {
			return IMUCalibration{}, false
		}
	}
	return cal, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// parseFactoryIMUCal decodes the 24-byte factory block at 0x6020:
// accelerometer origin and sensitivity, then gyro origin and
// sensitivity, all little-endian int16 triples.
func parseFactoryIMUCal(data []byte) (IMUCalibration, bool) {
	if len(data) < 24 {
		return IMUCalibration{}, false
	}
	le := func(off int) float64 {
		return float64(int16(uint16(data[off]) | uint16(data[off+1])<<8))
	}
	return IMUCalibration{
		GyroOffsetX: le(12),
		GyroOffsetY: le(14),
		GyroOffsetZ: le(16),
	}, true
}

// parseColors decodes the 6-byte color block at 0x6050 into hex strings.
func parseColors(data []byte) (body, buttons string, ok bool) {
	if len(data) < 6 {
		return "", "", false
	}
	return fmt.Sprintf("#%02X%02X%02X", data[0], data[1], data[2]),
		fmt.Sprintf("#%02X%02X%02X", data[3], data[4], data[5]),
		true
}
