package hid

import (
	"errors"
	"sync"
	"time"
)

// MockManager is an in-memory Manager for tests. Endpoints are attached
// and detached between enumeration passes; opens can be scripted to fail.
type MockManager struct {
	mu       sync.Mutex
	visible  map[string]Info
	devices  map[string]*MockDevice
	failOpen map[string]bool
}

func NewMockManager() *MockManager {
	return &MockManager{
		visible:  make(map[string]Info),
		devices:  make(map[string]*MockDevice),
		failOpen: make(map[string]bool),
	}
}

// Attach makes an endpoint visible to enumeration, backed by dev.
func (m *MockManager) Attach(info Info, dev *MockDevice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible[info.Path] = info
	m.devices[info.Path] = dev
}

// Detach removes an endpoint from enumeration. An already-open device
// keeps working until Disconnect is called on it.
func (m *MockManager) Detach(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.visible, path)
}

// FailOpen makes subsequent opens of path fail.
func (m *MockManager) FailOpen(path string, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOpen[path] = fail
}

func (m *MockManager) Devices() ([]Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Info, 0, len(m.visible))
	for _, info := range m.visible {
		out = append(out, info)
	}
	return out, nil
}

func (m *MockManager) Open(info Info) (Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOpen[info.Path] {
		return nil, errors.New("mock: open refused")
	}
	dev, ok := m.devices[info.Path]
	if !ok {
		return nil, errors.New("mock: no such endpoint")
	}
	dev.reopen()
	return dev, nil
}

// MockDevice is a scripted report source. Reports queued with Emit are
// returned by ReadTimeout in order; an empty queue reads as a timeout.
type MockDevice struct {
	mu      sync.Mutex
	reports chan []byte
	writes  [][]byte
	gone    bool

	// OnWrite, when set, observes every output report. Tests use it to
	// answer request/response exchanges by calling Emit.
	OnWrite func(p []byte)
}

func NewMockDevice() *MockDevice {
	return &MockDevice{reports: make(chan []byte, 64)}
}

// Emit queues an input report for the next read.
func (d *MockDevice) Emit(report []byte) {
	p := make([]byte, len(report))
	copy(p, report)
	d.reports <- p
}

// Disconnect makes all further I/O fail with ErrDisconnected.
func (d *MockDevice) Disconnect() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gone = true
}

func (d *MockDevice) reopen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gone = false
}

// Writes returns every output report written so far.
func (d *MockDevice) Writes() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.writes))
	copy(out, d.writes)
	return out
}

func (d *MockDevice) Write(p []byte) (int, error) {
	d.mu.Lock()
	if d.gone {
		d.mu.Unlock()
		return 0, ErrDisconnected
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	d.writes = append(d.writes, cp)
	hook := d.OnWrite
	d.mu.Unlock()
	if hook != nil {
		hook(cp)
	}
	return len(p), nil
}

func (d *MockDevice) ReadTimeout(p []byte, timeout time.Duration) (int, error) {
	d.mu.Lock()
	gone := d.gone
	d.mu.Unlock()
	if gone {
		return 0, ErrDisconnected
	}
	select {
	case report := <-d.reports:
		return copy(p, report), nil
	case <-time.After(timeout):
		return 0, nil
	}
}

func (d *MockDevice) Close() error { return nil }
