// Package wiimote drives the motion-sensor-augmented remote family over
// HID. Report layouts follow the documented protocol of the physical
// device; all multi-byte register addresses are big-endian on the wire.
package wiimote

import "fmt"

const (
	VendorNintendo     uint16 = 0x057E
	ProductWiimote     uint16 = 0x0306 // external MotionPlus port
	ProductWiimotePlus uint16 = 0x0330 // builtin MotionPlus
)

// Output report IDs.
const (
	reportPlayerLED     byte = 0x11
	reportReportingMode byte = 0x12
	reportStatusRequest byte = 0x15
	reportWriteMemory   byte = 0x16
	reportReadMemory    byte = 0x17
)

// Input report IDs.
const (
	ReportStatus     byte = 0x20 // status information
	ReportMemoryData byte = 0x21 // read memory answer
	ReportData       byte = 0x35 // buttons + accelerometer + 16 extension bytes
)

// dataMode is the reporting mode requested from the device: core buttons
// and accelerometer with 16 extension bytes, streamed continuously.
const dataMode byte = 0x35

// Player LED flags for the 0x11 output report.
const (
	LED1 byte = 0x10
	LED2 byte = 0x20
	LED3 byte = 0x40
	LED4 byte = 0x80
)

// Buttons is the core button bitfield, first button byte in the high
// half. The accelerometer LSB bits that share these bytes are masked out.
type Buttons uint16

const (
	ButtonDPadLeft  Buttons = 0x0100
	ButtonDPadRight Buttons = 0x0200
	ButtonDPadDown  Buttons = 0x0400
	ButtonDPadUp    Buttons = 0x0800
	ButtonPlus      Buttons = 0x1000
	ButtonTwo       Buttons = 0x0001
	ButtonOne       Buttons = 0x0002
	ButtonB         Buttons = 0x0004
	ButtonA         Buttons = 0x0008
	ButtonMinus     Buttons = 0x0010
	ButtonHome      Buttons = 0x0080
)

// Has reports whether every button in mask is pressed.
func (b Buttons) Has(mask Buttons) bool { return b&mask == mask }

func decodeButtons(b0, b1 byte) Buttons {
	// Bits 5-6 of both bytes carry accelerometer LSBs.
	return Buttons(b0&0x9F)<<8 | Buttons(b1&0x9F)
}

// StatusReport is the decoded 0x20 status information report.
type StatusReport struct {
	Buttons            Buttons
	Battery            byte
	BatteryLow         bool
	ExtensionConnected bool
}

// DecodeStatus decodes a 0x20 report. ok is false for anything else.
func DecodeStatus(report []byte) (StatusReport, bool) {
	if len(report) < 7 || report[0] != ReportStatus {
		return StatusReport{}, false
	}
	return StatusReport{
		Buttons:            decodeButtons(report[1], report[2]),
		Battery:            report[6],
		BatteryLow:         report[3]&0x01 != 0,
		ExtensionConnected: report[3]&0x02 != 0,
	}, true
}

// DataReport is the decoded 0x35 data report: core buttons, the 10-bit
// accelerometer triple and the 16 raw extension bytes.
type DataReport struct {
	Buttons Buttons
	AccelX  uint16
	AccelY  uint16
	AccelZ  uint16
	Ext     []byte
}

// DecodeData decodes a 0x35 report. ok is false for anything else.
func DecodeData(report []byte) (DataReport, bool) {
	if len(report) < 22 || report[0] != ReportData {
		return DataReport{}, false
	}
	ext := make([]byte, 16)
	copy(ext, report[6:22])
	return DataReport{
		Buttons: decodeButtons(report[1], report[2]),
		// 10-bit axes: the two X LSBs live in the first button byte,
		// one LSB each of Y and Z in the second.
		AccelX: uint16(report[3])<<2 | uint16(report[1]>>5)&0x03,
		AccelY: uint16(report[4])<<2 | uint16(report[2]>>4)&0x02,
		AccelZ: uint16(report[5])<<2 | uint16(report[2]>>5)&0x02,
		Ext:    ext,
	}, true
}

func playerLEDReportBytes(flags byte) []byte {
	return []byte{reportPlayerLED, flags}
}

func reportingModeBytes() []byte {
	// 0x04 requests continuous reporting.
	return []byte{reportReportingMode, 0x04, dataMode}
}

func statusRequestBytes() []byte {
	return []byte{reportStatusRequest, 0x00}
}

const (
	spaceEEPROM   byte = 0x00
	spaceRegister byte = 0x04
)

func readMemoryBytes(space byte, addr uint32, size uint16) []byte {
	return []byte{
		reportReadMemory,
		space,
		byte(addr >> 16), byte(addr >> 8), byte(addr),
		byte(size >> 8), byte(size),
	}
}

func writeRegisterBytes(addr uint32, data []byte) []byte {
	report := make([]byte, 22)
	report[0] = reportWriteMemory
	report[1] = spaceRegister
	report[2] = byte(addr >> 16)
	report[3] = byte(addr >> 8)
	report[4] = byte(addr)
	report[5] = byte(len(data))
	copy(report[6:], data)
	return report
}

// parseMemoryData extracts the data chunk from a 0x21 read answer.
func parseMemoryData(report []byte) ([]byte, error) {
	if len(report) < 7 || report[0] != ReportMemoryData {
		return nil, fmt.Errorf("wiimote: not a memory answer")
	}
	if e := report[3] & 0x0F; e != 0 {
		return nil, fmt.Errorf("wiimote: memory read error 0x%X", e)
	}
	size := int(report[3]>>4) + 1
	if len(report) < 6+size {
		return nil, fmt.Errorf("wiimote: short memory answer")
	}
	return report[6 : 6+size], nil
}
