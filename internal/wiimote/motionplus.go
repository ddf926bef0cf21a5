package wiimote

// MotionPlus extension registers.
const (
	regMotionPlusInit     uint32 = 0xA600F0
	regMotionPlusEnable   uint32 = 0xA600FE
	regMotionPlusCalData  uint32 = 0xA60020
	regMotionPlusIdent    uint32 = 0xA600FA
	motionPlusActivateVal byte   = 0x04
	motionPlusInitVal     byte   = 0x55
)

// MotionPlusType tells how the angular-rate extension is attached.
type MotionPlusType int

const (
	MotionPlusNone MotionPlusType = iota
	MotionPlusBuiltin
	MotionPlusExternal
)

// MotionPlusSample is one raw angular-rate reading: 14-bit yaw, roll and
// pitch with per-axis slow/fast mode bits.
type MotionPlusSample struct {
	Yaw   uint16
	Roll  uint16
	Pitch uint16

	YawSlow   bool
	RollSlow  bool
	PitchSlow bool

	ExtensionConnected bool
}

// ParseMotionPlus decodes the 6-byte angular-rate block at the start of
// the extension bytes. ok is false when the block is not a MotionPlus
// data frame.
func ParseMotionPlus(ext []byte) (MotionPlusSample, bool) {
	if len(ext) < 6 || ext[5]&0x03 != 0x02 {
		return MotionPlusSample{}, false
	}
	return MotionPlusSample{
		Yaw:                uint16(ext[0]) | uint16(ext[3]>>2)<<8,
		Roll:               uint16(ext[1]) | uint16(ext[4]>>2)<<8,
		Pitch:              uint16(ext[2]) | uint16(ext[5]>>2)<<8,
		YawSlow:            ext[3]&0x02 != 0,
		PitchSlow:          ext[3]&0x01 != 0,
		RollSlow:           ext[4]&0x02 != 0,
		ExtensionConnected: ext[4]&0x01 != 0,
	}, true
}

// MotionPlusCalibration is a zero-rate reference in raw sensor units.
type MotionPlusCalibration struct {
	YawZero   float64
	RollZero  float64
	PitchZero float64
}

const (
	// In slow mode 8192 units correspond to 595 degrees per second.
	slowDegPerUnit = 595.0 / 8192.0
	// Fast mode widens the range from ±440 to ±2000 degrees per second.
	fastModeFactor = 2000.0 / 440.0
)

func axisRate(raw uint16, zero float64, slow bool) float64 {
	v := (float64(raw) - zero) * slowDegPerUnit
	if !slow {
		v *= fastModeFactor
	}
	return v
}

// AngularVelocity converts a raw sample to yaw/roll/pitch rates in
// degrees per second against this zero-rate reference.
func (c MotionPlusCalibration) AngularVelocity(s MotionPlusSample) (yaw, roll, pitch float64) {
	return axisRate(s.Yaw, c.YawZero, s.YawSlow),
		axisRate(s.Roll, c.RollZero, s.RollSlow),
		axisRate(s.Pitch, c.PitchZero, s.PitchSlow)
}

// DeriveZeroRate derives a zero-rate reference from a window of samples
// taken at rest. It fails when any sample reports fast mode on any axis,
// since that means the remote was moving during the window.
func DeriveZeroRate(samples []MotionPlusSample) (MotionPlusCalibration, bool) {
	if len(samples) == 0 {
		return MotionPlusCalibration{}, false
	}
	var yaw, roll, pitch float64
	for _, s := range samples {
		if !s.YawSlow || !s.RollSlow || !s.PitchSlow {
			return MotionPlusCalibration{}, false
		}
		yaw += float64(s.Yaw)
		roll += float64(s.Roll)
		pitch += float64(s.Pitch)
	}
	n := float64(len(samples))
	return MotionPlusCalibration{
		YawZero:   yaw / n,
		RollZero:  roll / n,
		PitchZero: pitch / n,
	}, true
}

// parseMotionPlusCalibration reads the factory zero values from the
// calibration block at 0xA60020. The slow-mode block starts at byte 16;
// values are big-endian.
func parseMotionPlusCalibration(data []byte) (MotionPlusCalibration, bool) {
	if len(data) < 22 {
		return MotionPlusCalibration{}, false
	}
	be := func(off int) float64 {
		return float64(uint16(data[off])<<8 | uint16(data[off+1]))
	}
	return MotionPlusCalibration{
		YawZero:   be(16),
		RollZero:  be(18),
		PitchZero: be(20),
	}, true
}
