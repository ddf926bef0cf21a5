package controller

import (
	"context"
	"time"

	"github.com/motionkit/controllerhub/internal/settings"
	"github.com/motionkit/controllerhub/internal/wiimote"
)

const (
	statusCheckInterval = 10 * time.Second
	readTimeout         = 100 * time.Millisecond
	reconnectBackoff    = time.Second
)

// runWiimote is the outer reconnection loop: set up and stream while
// connected, otherwise back off and re-check. The handle reconnects via
// the discovery engine, not from here.
func runWiimote(ctx context.Context, d *wiimote.Device, events chan<- Event, cfg *settings.Handler) {
	for ctx.Err() == nil {
		if d.IsConnected() {
			if err := d.Setup(); err == nil {
				if !emit(ctx, events, Event{Serial: d.Serial(), Info: Connected{Design: wiimoteDesign(d)}}) {
					return
				}
				s := newWiimoteSession(d, cfg)
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

func wiimoteDesign(d *wiimote.Device) Design {
	t := DesignWiimote
	switch d.MotionPlusType() {
	case wiimote.MotionPlusBuiltin:
		t = DesignWiimotePlus
	case wiimote.MotionPlusExternal:
		t = DesignWiimoteMotionPlus
	}
	return Design{Color: "#FFFFFF", Type: t}
}

// wiimoteSession is the state of one inner read loop: battery debounce,
// status-request cadence and the calibration window.
type wiimoteSession struct {
	d   *wiimote.Device
	cfg *settings.Handler

	accelCal    wiimote.AccelCalibration
	window      *calibrationWindow[wiimote.MotionPlusSample, wiimote.MotionPlusCalibration]
	lastBattery BatteryLevel
	haveBattery bool
	lastStatus  time.Time
}

func newWiimoteSession(d *wiimote.Device, cfg *settings.Handler) *wiimoteSession {
	return &wiimoteSession{
		d:        d,
		cfg:      cfg,
		accelCal: d.AccelCalibration(),
		window: newCalibrationWindow(
			d.MotionPlusCalibration(), wiimote.DeriveZeroRate,
			calibrationSettleDelay, calibrationSampleCount),
	}
}

// listen runs until permanent disconnection (returns true, the outer
// loop takes over) or until the event consumer is gone (returns false).
func (s *wiimoteSession) listen(ctx context.Context, events chan<- Event) bool {
	buf := make([]byte, 32)
	for ctx.Err() == nil {
		if s.lastStatus.IsZero() || time.Since(s.lastStatus) > statusCheckInterval {
			s.lastStatus = time.Now()
			s.d.RequestStatus() // write failure is transient, retried next interval
		}
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

func (s *wiimoteSession) handleReport(ctx context.Context, events chan<- Event, report []byte) bool {
	switch report[0] {
	case wiimote.ReportStatus:
		status, ok := wiimote.DecodeStatus(report)
		if !ok {
			return true
		}
		// An unsolicited status report stops the data stream until the
		// reporting mode is written again.
		s.d.SetReportingMode()
		level := ConvertBattery(status.Battery)
		if !s.haveBattery || level != s.lastBattery {
			s.haveBattery = true
			s.lastBattery = level
			return emit(ctx, events, Event{Serial: s.d.Serial(), Info: Battery{Level: level}})
		}
	case wiimote.ReportData:
		data, ok := wiimote.DecodeData(report)
		if !ok {
			return true
		}
		if data.Buttons.Has(wiimote.ButtonA | wiimote.ButtonB) {
			s.window.Arm()
		}
		if data.Buttons.Has(wiimote.ButtonB | wiimote.ButtonDPadUp) {
			if !emit(ctx, events, Event{Serial: s.d.Serial(), Info: Reset{}}) {
				return false
			}
		}
		mp, ok := wiimote.ParseMotionPlus(data.Ext)
		if !ok {
			return true
		}
		if cal, ok := s.window.Calibration(); ok {
			if !emit(ctx, events, Event{Serial: s.d.Serial(), Info: Motion{Sample: s.motionSample(data, mp, cal)}}) {
				return false
			}
			s.window.Push(mp)
		}
	}
	return true
}

// motionSample converts one raw report into the canonical output frame.
// The remote's physical axes do not match the canonical output axes:
// the same permutation and sign flips apply on every decode. The gyro
// scale is looked up per decode; the settings store may change between
// reads.
func (s *wiimoteSession) motionSample(data wiimote.DataReport, mp wiimote.MotionPlusSample, cal wiimote.MotionPlusCalibration) MotionSample {
	ax, ay, az := s.accelCal.Acceleration(data.AccelX, data.AccelY, data.AccelZ)
	yaw, roll, pitch := cal.AngularVelocity(mp)
	scale := s.cfg.GyroScale(s.d.Serial())
	return MotionSample{
		AccelX: az,
		AccelY: ax,
		AccelZ: ay,
		GyroX:  -yaw * scale,
		GyroY:  -pitch * scale,
		GyroZ:  roll * scale,
	}
}
