//go:build !usbhid

package hid

import (
	"fmt"
	"time"

	hidapi "github.com/sstallion/go-hid"
)

type hidapiManager struct{}

func newManager() (Manager, error) {
	if err := hidapi.Init(); err != nil {
		return nil, fmt.Errorf("hidapi init: %w", err)
	}
	return &hidapiManager{}, nil
}

func (m *hidapiManager) Devices() ([]Info, error) {
	var out []Info
	err := hidapi.Enumerate(0, 0, func(info *hidapi.DeviceInfo) error {
		out = append(out, Info{
			Path:         info.Path,
			VendorID:     info.VendorID,
			ProductID:    info.ProductID,
			Serial:       info.SerialNbr,
			Product:      info.ProductStr,
			Manufacturer: info.MfrStr,
			UsagePage:    info.UsagePage,
			Usage:        info.Usage,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hidapi enumerate: %w", err)
	}
	return out, nil
}

func (m *hidapiManager) Open(info Info) (Device, error) {
	d, err := hidapi.OpenPath(info.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", info.Path, err)
	}
	return &hidapiDevice{d: d}, nil
}

type hidapiDevice struct{ d *hidapi.Device }

func (d *hidapiDevice) Write(p []byte) (int, error) {
	return d.d.Write(p)
}

func (d *hidapiDevice) ReadTimeout(p []byte, timeout time.Duration) (int, error) {
	n, err := d.d.ReadWithTimeout(p, timeout)
	if err != nil {
		// hidapi only errors a read when the handle is dead.
		return 0, fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	return n, nil
}

func (d *hidapiDevice) Close() error { return d.d.Close() }
