package wiimote

import (
	"math"
	"testing"
)

func TestDecodeStatus(t *testing.T) {
	report := []byte{0x20, 0x00, 0x00, 0x02, 0x00, 0x00, 0x4B}
	status, ok := DecodeStatus(report)
	if !ok {
		t.Fatalf("decode failed")
	}
	if status.Battery != 75 {
		t.Fatalf("battery = %d, want 75", status.Battery)
	}
	if !status.ExtensionConnected {
		t.Fatalf("extension flag not decoded")
	}
	if status.BatteryLow {
		t.Fatalf("battery low flag set")
	}
}

func TestDecodeStatusRejectsOtherReports(t *testing.T) {
	if _, ok := DecodeStatus([]byte{0x35, 0, 0, 0, 0, 0, 0}); ok {
		t.Fatalf("accepted a data report")
	}
	if _, ok := DecodeStatus([]byte{0x20, 0}); ok {
		t.Fatalf("accepted a truncated report")
	}
}

func dataReport(b0, b1 byte, ext []byte) []byte {
	report := make([]byte, 22)
	report[0] = ReportData
	report[1] = b0
	report[2] = b1
	copy(report[6:], ext)
	return report
}

func TestDecodeDataAccelBits(t *testing.T) {
	// X=0x123, Y=0x202, Z=0x1FE; the LSBs ride in the button bytes.
	report := make([]byte, 22)
	report[0] = ReportData
	report[1] = 0x60 // X LSBs = 3
	report[2] = 0x20 | 0x40
	report[3] = 0x48
	report[4] = 0x80
	report[5] = 0x7F
	data, ok := DecodeData(report)
	if !ok {
		t.Fatalf("decode failed")
	}
	if data.AccelX != 0x123 || data.AccelY != 0x202 || data.AccelZ != 0x1FE {
		t.Fatalf("accel = %d %d %d, want 291 514 510", data.AccelX, data.AccelY, data.AccelZ)
	}
	if data.Buttons != 0 {
		t.Fatalf("accel LSBs leaked into buttons: %04X", data.Buttons)
	}
}

func TestDecodeDataButtons(t *testing.T) {
	report := dataReport(0x08, 0x0C, nil) // up + A + B
	data, ok := DecodeData(report)
	if !ok {
		t.Fatalf("decode failed")
	}
	if !data.Buttons.Has(ButtonA | ButtonB) {
		t.Fatalf("A+B not decoded: %04X", data.Buttons)
	}
	if !data.Buttons.Has(ButtonDPadUp) {
		t.Fatalf("dpad up not decoded: %04X", data.Buttons)
	}
	if data.Buttons.Has(ButtonHome) {
		t.Fatalf("phantom button: %04X", data.Buttons)
	}
}

func motionPlusExt(yaw, roll, pitch uint16, slow bool) []byte {
	ext := make([]byte, 16)
	ext[0] = byte(yaw)
	ext[1] = byte(roll)
	ext[2] = byte(pitch)
	ext[3] = byte(yaw>>8) << 2
	ext[4] = byte(roll>>8)<<2 | 0x01
	ext[5] = byte(pitch>>8)<<2 | 0x02
	if slow {
		ext[3] |= 0x03
		ext[4] |= 0x02
	}
	return ext
}

func TestParseMotionPlus(t *testing.T) {
	sample, ok := ParseMotionPlus(motionPlusExt(8000, 8100, 7900, true))
	if !ok {
		t.Fatalf("parse failed")
	}
	if sample.Yaw != 8000 || sample.Roll != 8100 || sample.Pitch != 7900 {
		t.Fatalf("rates = %d %d %d", sample.Yaw, sample.Roll, sample.Pitch)
	}
	if !sample.YawSlow || !sample.RollSlow || !sample.PitchSlow {
		t.Fatalf("slow bits not decoded")
	}
	if !sample.ExtensionConnected {
		t.Fatalf("extension bit not decoded")
	}
}

func TestParseMotionPlusRejectsOtherFrames(t *testing.T) {
	ext := motionPlusExt(8000, 8000, 8000, true)
	ext[5] = ext[5]&^0x03 | 0x01
	if _, ok := ParseMotionPlus(ext); ok {
		t.Fatalf("accepted a non-MotionPlus frame")
	}
}

func TestAngularVelocity(t *testing.T) {
	cal := MotionPlusCalibration{YawZero: 8000, RollZero: 8000, PitchZero: 8000}
	sample, _ := ParseMotionPlus(motionPlusExt(8192, 8000, 8000, true))
	yaw, roll, pitch := cal.AngularVelocity(sample)
	want := 192 * 595.0 / 8192.0
	if math.Abs(yaw-want) > 1e-9 {
		t.Fatalf("yaw = %f, want %f", yaw, want)
	}
	if roll != 0 || pitch != 0 {
		t.Fatalf("roll/pitch = %f %f, want 0", roll, pitch)
	}

	// Fast mode widens the same reading.
	fast, _ := ParseMotionPlus(motionPlusExt(8192, 8000, 8000, false))
	yawFast, _, _ := cal.AngularVelocity(fast)
	if math.Abs(yawFast-want*2000.0/440.0) > 1e-9 {
		t.Fatalf("fast yaw = %f", yawFast)
	}
}

func TestDeriveZeroRate(t *testing.T) {
	samples := []MotionPlusSample{
		{Yaw: 8000, Roll: 8100, Pitch: 7900, YawSlow: true, RollSlow: true, PitchSlow: true},
		{Yaw: 8002, Roll: 8098, Pitch: 7902, YawSlow: true, RollSlow: true, PitchSlow: true},
	}
	cal, ok := DeriveZeroRate(samples)
	if !ok {
		t.Fatalf("derive failed")
	}
	if cal.YawZero != 8001 || cal.RollZero != 8099 || cal.PitchZero != 7901 {
		t.Fatalf("zeros = %f %f %f", cal.YawZero, cal.RollZero, cal.PitchZero)
	}
}

func TestDeriveZeroRateRejectsMotion(t *testing.T) {
	samples := []MotionPlusSample{
		{Yaw: 8000, Roll: 8000, Pitch: 8000, YawSlow: true, RollSlow: true, PitchSlow: true},
		{Yaw: 12000, Roll: 8000, Pitch: 8000, YawSlow: false, RollSlow: true, PitchSlow: true},
	}
	if _, ok := DeriveZeroRate(samples); ok {
		t.Fatalf("derived from a fast-mode window")
	}
	if _, ok := DeriveZeroRate(nil); ok {
		t.Fatalf("derived from an empty window")
	}
}

func TestParseAccelCalibration(t *testing.T) {
	data := []byte{0x80, 0x80, 0x80, 0x00, 0x9A, 0x9A, 0x9A, 0x00}
	cal, ok := parseAccelCalibration(data)
	if !ok {
		t.Fatalf("parse failed")
	}
	if cal.ZeroX != 512 || cal.GravityX != 616 {
		t.Fatalf("x calibration = %f/%f", cal.ZeroX, cal.GravityX)
	}
	ax, ay, az := cal.Acceleration(616, 512, 512)
	if ax != 1 || ay != 0 || az != 0 {
		t.Fatalf("acceleration = %f %f %f", ax, ay, az)
	}
}

func TestParseAccelCalibrationRejectsDegenerate(t *testing.T) {
	data := []byte{0x80, 0x80, 0x80, 0x00, 0x80, 0x80, 0x80, 0x00}
	if _, ok := parseAccelCalibration(data); ok {
		t.Fatalf("accepted zero-span calibration")
	}
}

func TestParseMemoryData(t *testing.T) {
	report := make([]byte, 22)
	report[0] = ReportMemoryData
	report[3] = 0x70 // 8 bytes, no error
	for i := 0; i < 8; i++ {
		report[6+i] = byte(i + 1)
	}
	chunk, err := parseMemoryData(report)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(chunk) != 8 || chunk[0] != 1 || chunk[7] != 8 {
		t.Fatalf("chunk = %v", chunk)
	}

	report[3] = 0x78 // error nibble set
	if _, err := parseMemoryData(report); err == nil {
		t.Fatalf("expected memory read error")
	}
}
