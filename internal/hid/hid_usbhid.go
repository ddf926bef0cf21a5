//go:build usbhid

package hid

import (
	"fmt"
	"time"

	usbhid "rafaelmartins.com/p/usbhid"
)

// Fallback backend for hosts without a usable hidapi. The library reads
// synchronously without a deadline, so an opened device runs a reader
// goroutine and ReadTimeout selects against its channel.

type usbManager struct{}

func newManager() (Manager, error) { return &usbManager{}, nil }

func (m *usbManager) Devices() ([]Info, error) {
	devs, err := usbhid.Enumerate(nil)
	if err != nil {
		return nil, fmt.Errorf("usbhid enumerate: %w", err)
	}
	out := make([]Info, 0, len(devs))
	for _, d := range devs {
		out = append(out, Info{
			Path:         d.Path(),
			VendorID:     d.VendorId(),
			ProductID:    d.ProductId(),
			Serial:       d.SerialNumber(),
			Product:      d.Product(),
			Manufacturer: d.Manufacturer(),
		})
	}
	return out, nil
}

func (m *usbManager) Open(info Info) (Device, error) {
	d, err := usbhid.Get(func(dev *usbhid.Device) bool {
		return dev.Path() == info.Path
	}, true, false)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", info.Path, err)
	}
	ud := &usbDevice{d: d, reports: make(chan []byte, 8)}
	go ud.readLoop()
	return ud, nil
}

type usbDevice struct {
	d       *usbhid.Device
	reports chan []byte
}

func (d *usbDevice) readLoop() {
	for {
		rid, buf, err := d.d.GetInputReport()
		if err != nil {
			close(d.reports)
			return
		}
		report := make([]byte, 0, len(buf)+1)
		report = append(report, rid)
		report = append(report, buf...)
		d.reports <- report
	}
}

func (d *usbDevice) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := d.d.SetOutputReport(p[0], p[1:]); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (d *usbDevice) ReadTimeout(p []byte, timeout time.Duration) (int, error) {
	select {
	case report, ok := <-d.reports:
		if !ok {
			return 0, ErrDisconnected
		}
		return copy(p, report), nil
	case <-time.After(timeout):
		return 0, nil
	}
}

func (d *usbDevice) Close() error { return d.d.Close() }
