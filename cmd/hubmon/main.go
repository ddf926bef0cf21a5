// hubmon watches for controllers and prints the event stream. With
// -scan it only lists the visible HID endpoints, including a raw USB
// view for troubleshooting pairing problems.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/motionkit/controllerhub/internal/controller"
	"github.com/motionkit/controllerhub/internal/hid"
	"github.com/motionkit/controllerhub/internal/settings"
)

func main() {
	interval := flag.Duration("interval", 100*time.Millisecond, "device scan interval")
	settingsPath := flag.String("settings", "", "path to KEY=VALUE settings file")
	scan := flag.Bool("scan", false, "list HID endpoints and exit")
	flag.Parse()

	mgr, err := hid.NewManager()
	if err != nil {
		log.Fatalf("hid init: %v", err)
	}

	if *scan {
		listEndpoints(mgr)
		return
	}

	cfg := settings.New()
	if *settingsPath != "" {
		cfg, err = settings.Load(*settingsPath)
		if err != nil {
			log.Fatalf("settings: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer stop()

	hub, err := controller.New(mgr, controller.WithScanInterval(*interval))
	if err != nil {
		log.Fatalf("controller manager: %v", err)
	}
	defer hub.Close()

	events := make(chan controller.Event, 256)
	go hub.Dispatch(ctx, events, cfg)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			printEvent(ev)
		}
	}
}

func printEvent(ev controller.Event) {
	switch info := ev.Info.(type) {
	case controller.Connected:
		log.Printf("%s: connected (%s %s)", ev.Serial, info.Design.Type, info.Design.Color)
	case controller.Disconnected:
		log.Printf("%s: disconnected", ev.Serial)
	case controller.Battery:
		log.Printf("%s: battery %s", ev.Serial, info.Level)
	case controller.Motion:
		s := info.Sample
		log.Printf("%s: accel %+.2f %+.2f %+.2f gyro %+7.2f %+7.2f %+7.2f",
			ev.Serial, s.AccelX, s.AccelY, s.AccelZ, s.GyroX, s.GyroY, s.GyroZ)
	case controller.Reset:
		log.Printf("%s: reset requested", ev.Serial)
	}
}

func listEndpoints(mgr hid.Manager) {
	infos, err := mgr.Devices()
	if err != nil {
		log.Fatalf("enumerate: %v", err)
	}
	fmt.Println("hid endpoints:")
	for _, info := range infos {
		fmt.Printf("  %04x:%04x %-24s serial=%q\n", info.VendorID, info.ProductID, info.Product, info.Serial)
	}

	raw, err := hid.RawList()
	if err != nil {
		log.Printf("raw usb enumerate: %v", err)
		return
	}
	fmt.Println("raw usb endpoints:")
	for _, info := range raw {
		fmt.Printf("  %04x:%04x %-24s serial=%q\n", info.VendorID, info.ProductID, info.Product, info.Serial)
	}
}
