package wiimote

// Factory accelerometer calibration lives in EEPROM at 0x0016.
const accelCalAddr uint32 = 0x0016

// AccelCalibration holds the 10-bit zero-g and one-g reference points
// for each accelerometer axis.
type AccelCalibration struct {
	ZeroX, ZeroY, ZeroZ          float64
	GravityX, GravityY, GravityZ float64
}

// Acceleration converts raw 10-bit axis values to multiples of g.
func (c AccelCalibration) Acceleration(x, y, z uint16) (ax, ay, az float64) {
	scale := func(raw uint16, zero, gravity float64) float64 {
		if gravity == zero {
			return 0
		}
		return (float64(raw) - zero) / (gravity - zero)
	}
	return scale(x, c.ZeroX, c.GravityX),
		scale(y, c.ZeroY, c.GravityY),
		scale(z, c.ZeroZ, c.GravityZ)
}

// defaultAccelCalibration is used when the EEPROM read fails: 0x80 zero
// and 0x9A one-g in 8-bit units, widened to 10 bits.
func defaultAccelCalibration() AccelCalibration {
	return AccelCalibration{
		ZeroX: 512, ZeroY: 512, ZeroZ: 512,
		GravityX: 616, GravityY: 616, GravityZ: 616,
	}
}

// parseAccelCalibration decodes the 8-byte EEPROM calibration block. The
// fourth and eighth bytes carry the 2-bit LSBs of the three preceding
// values.
func parseAccelCalibration(data []byte) (AccelCalibration, bool) {
	if len(data) < 8 {
		return AccelCalibration{}, false
	}
	widen := func(msb, lsbs byte, shift uint) float64 {
		return float64(uint16(msb)<<2 | uint16(lsbs>>shift)&0x03)
	}
	cal := AccelCalibration{
		ZeroX:    widen(data[0], data[3], 4),
		ZeroY:    widen(data[1], data[3], 2),
		ZeroZ:    widen(data[2], data[3], 0),
		GravityX: widen(data[4], data[7], 4),
		GravityY: widen(data[5], data[7], 2),
		GravityZ: widen(data[6], data[7], 0),
	}
	if cal.GravityX == cal.ZeroX || cal.GravityY == cal.ZeroY || cal.GravityZ == cal.ZeroZ {
		return AccelCalibration{}, false
	}
	return cal, true
}
