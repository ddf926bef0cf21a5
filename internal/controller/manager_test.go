package controller

import (
	"context"
	"testing"
	"time"

	"github.com/motionkit/controllerhub/internal/hid"
	"github.com/motionkit/controllerhub/internal/joycon"
	"github.com/motionkit/controllerhub/internal/settings"
	"github.com/motionkit/controllerhub/internal/wiimote"
)

func wiimoteInfo(serial, path string) hid.Info {
	return hid.Info{Path: path, VendorID: wiimote.VendorNintendo, ProductID: wiimote.ProductWiimote, Serial: serial}
}

func joyconInfo(serial, path string) hid.Info {
	return hid.Info{Path: path, VendorID: joycon.VendorNintendo, ProductID: joycon.ProductRight, Serial: serial}
}

// drainFresh collects whatever first discoveries are already queued.
func drainFresh(m *Manager) []Device {
	var out []Device
	for {
		select {
		case d := <-m.NewDevices():
			out = append(out, d)
		default:
			return out
		}
	}
}

func newTestManager(t *testing.T, mock *hid.MockManager) *Manager {
	t.Helper()
	// A huge interval keeps the background loop quiet; tests drive
	// scan passes by hand.
	m, err := New(mock, WithScanInterval(time.Hour))
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func TestInitialScanQueuesDiscoveries(t *testing.T) {
	mock := hid.NewMockManager()
	mock.Attach(wiimoteInfo("RMT-1", "p0"), hid.NewMockDevice())
	mock.Attach(joyconInfo("JC-1", "p1"), hid.NewMockDevice())

	m := newTestManager(t, mock)
	found := drainFresh(m)
	if len(found) != 2 {
		t.Fatalf("discovered %d devices, want 2", len(found))
	}
	serials := map[string]bool{}
	for _, d := range found {
		serials[d.Serial()] = true
		if !d.IsConnected() {
			t.Errorf("%s discovered disconnected", d.Serial())
		}
	}
	if !serials["RMT-1"] || !serials["JC-1"] {
		t.Fatalf("serials = %v", serials)
	}
}

func TestScanAnnouncesEachSerialOnce(t *testing.T) {
	mock := hid.NewMockManager()
	mock.Attach(wiimoteInfo("RMT-1", "p0"), hid.NewMockDevice())

	m := newTestManager(t, mock)
	if n := len(drainFresh(m)); n != 1 {
		t.Fatalf("first pass discovered %d, want 1", n)
	}
	for i := 0; i < 3; i++ {
		found, err := m.scan()
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		if len(found) != 0 {
			t.Fatalf("pass %d re-announced a known serial", i)
		}
	}
}

func TestScanMarksVanishedDisconnected(t *testing.T) {
	mock := hid.NewMockManager()
	mock.Attach(wiimoteInfo("RMT-1", "p0"), hid.NewMockDevice())

	m := newTestManager(t, mock)
	found := drainFresh(m)
	if len(found) != 1 {
		t.Fatalf("discovered %d, want 1", len(found))
	}
	d := found[0]

	mock.Detach("p0")
	if _, err := m.scan(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if d.IsConnected() {
		t.Fatalf("vanished device still connected")
	}

	// Registry entry survives: reappearance revives the same handle
	// without a fresh announcement.
	mock.Attach(wiimoteInfo("RMT-1", "p0"), hid.NewMockDevice())
	again, err := m.scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("reappearance re-announced the device")
	}
	if !d.IsConnected() {
		t.Fatalf("reappearance did not revive the handle")
	}
}

func TestScanIgnoresForeignAndSeriallessEndpoints(t *testing.T) {
	mock := hid.NewMockManager()
	mock.Attach(hid.Info{Path: "p0", VendorID: 0x046D, ProductID: 0xC077, Serial: "MOUSE"}, hid.NewMockDevice())
	mock.Attach(wiimoteInfo("", "p1"), hid.NewMockDevice())

	m := newTestManager(t, mock)
	if found := drainFresh(m); len(found) != 0 {
		t.Fatalf("discovered %d unexpected devices", len(found))
	}
}

func TestScanRetriesFailedOpens(t *testing.T) {
	mock := hid.NewMockManager()
	mock.Attach(wiimoteInfo("RMT-1", "p0"), hid.NewMockDevice())
	mock.FailOpen("p0", true)

	m := newTestManager(t, mock)
	if found := drainFresh(m); len(found) != 0 {
		t.Fatalf("announced a device that refused to open")
	}

	mock.FailOpen("p0", false)
	found, err := m.scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(found) != 1 || found[0].Serial() != "RMT-1" {
		t.Fatalf("retry pass found %v", found)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	m := newTestManager(t, hid.NewMockManager())
	m.Close()
	m.Close()
}

func TestDispatchRunsWorkers(t *testing.T) {
	mock := hid.NewMockManager()
	dev := hid.NewMockDevice()
	// Acknowledge every subcommand so setup completes; SPI payloads are
	// left empty, which the probe tolerates.
	dev.OnWrite = func(p []byte) {
		if len(p) < 11 || p[0] != 0x01 {
			return
		}
		reply := make([]byte, 50)
		reply[0] = joycon.ReportSubcmdReply
		reply[13] = 0x80
		reply[14] = p[10]
		dev.Emit(reply)
	}
	mock.Attach(joyconInfo("JC-1", "p0"), dev)

	m := newTestManager(t, mock)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan Event, 16)
	go m.Dispatch(ctx, events, settings.New())

	select {
	case ev := <-events:
		if ev.Serial != "JC-1" {
			t.Fatalf("event serial = %q", ev.Serial)
		}
		conn, ok := ev.Info.(Connected)
		if !ok {
			t.Fatalf("first event = %T, want Connected", ev.Info)
		}
		if conn.Design.Type != DesignJoyConRight {
			t.Fatalf("design = %+v", conn.Design)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no Connected event")
	}
}
