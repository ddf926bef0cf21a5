package hid

import (
	"errors"
	"testing"
	"time"
)

func TestMockEnumerationAndOpen(t *testing.T) {
	m := NewMockManager()
	info := Info{Path: "p0", VendorID: 1, ProductID: 2, Serial: "S1"}
	m.Attach(info, NewMockDevice())

	infos, err := m.Devices()
	if err != nil || len(infos) != 1 || infos[0].Serial != "S1" {
		t.Fatalf("Devices = %v, %v", infos, err)
	}
	if _, err := m.Open(info); err != nil {
		t.Fatalf("open: %v", err)
	}

	m.Detach("p0")
	infos, _ = m.Devices()
	if len(infos) != 0 {
		t.Fatalf("detached endpoint still enumerated")
	}

	m.Attach(info, NewMockDevice())
	m.FailOpen("p0", true)
	if _, err := m.Open(info); err == nil {
		t.Fatalf("open succeeded while scripted to fail")
	}
}

func TestMockDeviceReads(t *testing.T) {
	d := NewMockDevice()
	buf := make([]byte, 8)

	n, err := d.ReadTimeout(buf, time.Millisecond)
	if n != 0 || err != nil {
		t.Fatalf("empty queue read = %d, %v; want timeout", n, err)
	}

	d.Emit([]byte{0x30, 0x01})
	n, err = d.ReadTimeout(buf, time.Second)
	if err != nil || n != 2 || buf[0] != 0x30 {
		t.Fatalf("read = %d, %v, %v", n, err, buf[:n])
	}

	d.Disconnect()
	if _, err := d.ReadTimeout(buf, time.Millisecond); !errors.Is(err, ErrDisconnected) {
		t.Fatalf("dead link read error = %v", err)
	}
	if _, err := d.Write([]byte{0x01}); !errors.Is(err, ErrDisconnected) {
		t.Fatalf("dead link write error = %v", err)
	}
}

func TestMockDeviceWriteHook(t *testing.T) {
	d := NewMockDevice()
	d.OnWrite = func(p []byte) {
		if p[0] == 0x15 {
			d.Emit([]byte{0x20, 0, 0, 0, 0, 0, 80})
		}
	}
	if _, err := d.Write([]byte{0x15, 0x00}); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 8)
	n, err := d.ReadTimeout(buf, time.Second)
	if err != nil || n != 7 || buf[0] != 0x20 {
		t.Fatalf("scripted reply = %d, %v, %v", n, err, buf[:n])
	}
	if w := d.Writes(); len(w) != 1 || w[0][0] != 0x15 {
		t.Fatalf("writes = %v", w)
	}
}
