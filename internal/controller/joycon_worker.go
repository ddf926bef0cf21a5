package controller

import (
	"context"
	"time"

	"github.com/motionkit/controllerhub/internal/joycon"
	"github.com/motionkit/controllerhub/internal/settings"
)

func runJoycon(ctx context.Context, d *joycon.Device, events chan<- Event, cfg *settings.Handler) {
	for ctx.Err() == nil {
		if d.IsConnected() {
			if err := d.Setup(); err == nil {
				if !emit(ctx, events, Event{Serial: d.Serial(), Info: Connected{Design: joyconDesign(d)}}) {
					return
				}
				s := newJoyconSession(d, cfg)
				if !s.listen(ctx, events) {
					return
				}
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func joyconDesign(d *joycon.Device) Design {
	color := d.BodyColor()
	if color == "" {
		color = "#828282"
	}
	t := DesignProController
	switch d.Side() {
	case joycon.SideLeft:
		t = DesignJoyConLeft
	case joycon.SideRight:
		t = DesignJoyConRight
	}
	return Design{Color: color, Type: t}
}

type joyconSession struct {
	d   *joycon.Device
	cfg *settings.Handler

	window      *calibrationWindow[joycon.IMUSample, joycon.IMUCalibration]
	lastBattery BatteryLevel
	haveBattery bool
}

func newJoyconSession(d *joycon.Device, cfg *settings.Handler) *joyconSession {
	// Factory calibration seeds the window, so this family usually
	// starts with a resolved reference.
	return &joyconSession{
		d:   d,
		cfg: cfg,
		window: newCalibrationWindow(
			d.IMUCalibration(), joycon.DeriveGyroZero,
			calibrationSettleDelay, calibrationSampleCount),
	}
}

func (s *joyconSession) listen(ctx context.Context, events chan<- Event) bool {
	buf := make([]byte, 64)
	for ctx.Err() == nil {
		n, err := s.d.ReadTimeout(buf, readTimeout)
		if err != nil {
			emit(ctx, events, Event{Serial: s.d.Serial(), Info: Disconnected{}})
			return true
		}
		if n == 0 {
			continue
		}
		if !s.handleReport(ctx, events, buf[:n]) {
			return false
		}
	}
	return false
}

// calibrateChord and resetChord pick buttons that exist on each side.
func calibrateChord(side joycon.Side, b joycon.Buttons) bool {
	if side == joycon.SideLeft {
		return b.Has(joycon.ButtonUp | joycon.ButtonDown)
	}
	return b.Has(joycon.ButtonA | joycon.ButtonB)
}

func resetChord(side joycon.Side, b joycon.Buttons) bool {
	if side == joycon.SideLeft {
		return b.Has(joycon.ButtonLeft | joycon.ButtonRight)
	}
	return b.Has(joycon.ButtonX | joycon.ButtonY)
}

func (s *joyconSession) handleReport(ctx context.Context, events chan<- Event, report []byte) bool {
	in, ok := joycon.DecodeInput(report)
	if !ok {
		return true
	}
	// Battery rides every input report on this family; same debounce.
	level := ConvertBattery(joycon.BatteryPercent(in.Battery))
	if !s.haveBattery || level != s.lastBattery {
		s.haveBattery = true
		s.lastBattery = level
		if !emit(ctx, events, Event{Serial: s.d.Serial(), Info: Battery{Level: level}}) {
			return false
		}
	}
	if calibrateChord(s.d.Side(), in.Buttons) {
		s.window.Arm()
	}
	if resetChord(s.d.Side(), in.Buttons) {
		if !emit(ctx, events, Event{Serial: s.d.Serial(), Info: Reset{}}) {
			return false
		}
	}
	if cal, ok := s.window.Calibration(); ok {
		frame := in.Frames[0]
		if !emit(ctx, events, Event{Serial: s.d.Serial(), Info: Motion{Sample: s.motionSample(frame, cal)}}) {
			return false
		}
		s.window.Push(frame)
	}
	return true
}

// motionSample applies the canonical axis permutation for a controller
// held upright; the gyro scale is looked up per decode.
func (s *joyconSession) motionSample(f joycon.IMUSample, cal joycon.IMUCalibration) MotionSample {
	ax, ay, az := joycon.Acceleration(f)
	gx, gy, gz := cal.AngularVelocity(f)
	scale := s.cfg.GyroScale(s.d.Serial())
	return MotionSample{
		AccelX: ax,
		AccelY: az,
		AccelZ: -ay,
		GyroX:  gx * scale,
		GyroY:  gz * scale,
		GyroZ:  -gy * scale,
	}
}
