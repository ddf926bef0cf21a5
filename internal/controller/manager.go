// Package controller tracks hot-pluggable game controllers over HID:
// discovery and hot-plug diffing, per-device read/calibrate loops, and
// the outbound event stream.
package controller

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/motionkit/controllerhub/internal/hid"
	"github.com/motionkit/controllerhub/internal/joycon"
	"github.com/motionkit/controllerhub/internal/settings"
	"github.com/motionkit/controllerhub/internal/wiimote"
)

// Device is the capability shared by both controller families. The set
// is closed: dispatch switches exhaustively over the two concrete types.
type Device interface {
	Serial() string
	IsConnected() bool
	Disconnected()
	Reconnect(mgr hid.Manager, info hid.Info) bool
}

const defaultScanInterval = 100 * time.Millisecond

// Manager owns the registry of known controllers and periodically diffs
// it against the visible endpoints. Entries are never removed: a
// vanished device is marked disconnected and revived in place when it
// reappears, so calibration state survives the gap.
type Manager struct {
	hid      hid.Manager
	interval time.Duration

	mu      sync.Mutex
	devices map[string]Device

	fresh     chan Device
	done      chan struct{}
	closeOnce sync.Once
}

// Option adjusts Manager construction.
type Option func(*Manager)

// WithScanInterval overrides the periodic enumeration interval.
func WithScanInterval(d time.Duration) Option {
	return func(m *Manager) { m.interval = d }
}

// New builds the manager and performs one synchronous scan, so the first
// batch of controllers is queued before it returns. A failed initial
// enumeration is a construction error; later failures are retried every
// tick. There should be exactly one Manager per process, owned by the
// composition root.
func New(h hid.Manager, opts ...Option) (*Manager, error) {
	m := &Manager{
		hid:      h,
		interval: defaultScanInterval,
		devices:  make(map[string]Device),
		fresh:    make(chan Device, 64),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	found, err := m.scan()
	if err != nil {
		return nil, fmt.Errorf("initial scan: %w", err)
	}
	for _, d := range found {
		m.fresh <- d
	}
	go m.scanLoop()
	return m, nil
}

// NewDevices is the first-discovery stream: one item per never-before-
// seen controller. Reconnections of known controllers are not re-sent.
func (m *Manager) NewDevices() <-chan Device { return m.fresh }

// Close stops the background scan loop.
func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

func (m *Manager) scanLoop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			found, err := m.scan()
			if err != nil {
				// Treated as "no devices visible this pass".
				continue
			}
			for _, d := range found {
				select {
				case m.fresh <- d:
				case <-m.done:
					return
				}
			}
		}
	}
}

// scan enumerates the visible endpoints, diffs them against the known
// registry and returns the never-before-seen handles. The registry lock
// is held for the duration of one pass only.
func (m *Manager) scan() ([]Device, error) {
	infos, err := m.hid.Devices()
	if err != nil {
		return nil, err
	}

	visible := make(map[string]hid.Info)
	for _, info := range infos {
		if info.Serial == "" {
			continue
		}
		if wiimote.Probe(info) || joycon.Probe(info) {
			visible[info.Serial] = info
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for serial, dev := range m.devices {
		if _, ok := visible[serial]; !ok {
			dev.Disconnected()
		}
	}

	var found []Device
	for serial, info := range visible {
		if dev, ok := m.devices[serial]; ok {
			dev.Reconnect(m.hid, info)
			continue
		}
		dev, err := m.newDevice(info)
		if err != nil {
			// The endpoint may be claimed elsewhere or mid-unplug;
			// the next pass retries.
			continue
		}
		m.devices[serial] = dev
		found = append(found, dev)
	}
	return found, nil
}

func (m *Manager) newDevice(info hid.Info) (Device, error) {
	switch {
	case wiimote.Probe(info):
		return wiimote.New(m.hid, info)
	case joycon.Probe(info):
		return joycon.New(m.hid, info)
	}
	return nil, fmt.Errorf("controller: unsupported endpoint %04x:%04x", info.VendorID, info.ProductID)
}

// Dispatch drains the first-discovery stream, spawning one worker per
// controller. Workers live until ctx is canceled, cycling through
// connect and disconnect on their own.
func (m *Manager) Dispatch(ctx context.Context, events chan<- Event, cfg *settings.Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-m.fresh:
			go runDevice(ctx, d, events, cfg)
		}
	}
}

func runDevice(ctx context.Context, d Device, events chan<- Event, cfg *settings.Handler) {
	// A panicking decode must not take the rest of the manager down.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("controller %s: worker panic recovered: %v", d.Serial(), r)
		}
	}()
	switch dev := d.(type) {
	case *wiimote.Device:
		runWiimote(ctx, dev, events, cfg)
	case *joycon.Device:
		runJoycon(ctx, dev, events, cfg)
	}
}

// emit delivers one event unless the consumer is gone.
func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
