package hid

import (
	"fmt"

	"github.com/karalabe/usb"
)

// RawList enumerates HID-class endpoints through libusb, bypassing the
// platform HID layer. Useful when a controller is paired but does not
// surface through hidapi (missing udev rule, wrong driver bound).
func RawList() ([]Info, error) {
	devs, err := usb.EnumerateHid(0, 0)
	if err != nil {
		return nil, fmt.Errorf("usb enumerate: %w", err)
	}
	out := make([]Info, 0, len(devs))
	for _, d := range devs {
		out = append(out, Info{
			Path:         d.Path,
			VendorID:     d.VendorID,
			ProductID:    d.ProductID,
			Serial:       d.Serial,
			Product:      d.Product,
			Manufacturer: d.Manufacturer,
			UsagePage:    d.UsagePage,
			Usage:        d.Usage,
		})
	}
	return out, nil
}
