// hubmqtt forwards the controller event stream to an MQTT broker, one
// topic per event kind under <prefix>/<serial>/.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/motionkit/controllerhub/internal/controller"
	"github.com/motionkit/controllerhub/internal/hid"
	"github.com/motionkit/controllerhub/internal/settings"
)

func main() {
	broker := flag.String("broker", "tcp://localhost:1883", "MQTT broker URL")
	clientID := flag.String("client-id", "controllerhub", "MQTT client ID")
	prefix := flag.String("topic-prefix", "controllerhub", "MQTT topic prefix")
	interval := flag.Duration("interval", 100*time.Millisecond, "device scan interval")
	settingsPath := flag.String("settings", "", "path to KEY=VALUE settings file")
	flag.Parse()

	mgr, err := hid.NewManager()
	if err != nil {
		log.Fatalf("hid init: %v", err)
	}

	cfg := settings.New()
	if *settingsPath != "" {
		cfg, err = settings.Load(*settingsPath)
		if err != nil {
			log.Fatalf("settings: %v", err)
		}
	}

	opts := mqtt.NewClientOptions().
		AddBroker(*broker).
		SetClientID(*clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("MQTT connect error: %v", token.Error())
	}
	defer client.Disconnect(250)

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

	log.Println("connected to MQTT, forwarding controller events")

	events := make(chan controller.Event, 256)
	go hub.Dispatch(ctx, events, cfg)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			publish(client, *prefix, ev)
		}
	}
}

type lifecyclePayload struct {
	State  string             `json:"state"`
	Design *controller.Design `json:"design,omitempty"`
}

type batteryPayload struct {
	Level string `json:"level"`
}

func publish(client mqtt.Client, prefix string, ev controller.Event) {
	base := prefix + "/" + ev.Serial
	var topic string
	var payload any

	switch info := ev.Info.(type) {
	case controller.Connected:
		design := info.Design
		topic = base + "/lifecycle"
		payload = lifecyclePayload{State: "connected", Design: &design}
	case controller.Disconnected:
		topic = base + "/lifecycle"
		payload = lifecyclePayload{State: "disconnected"}
	case controller.Reset:
		topic = base + "/lifecycle"
		payload = lifecyclePayload{State: "reset"}
	case controller.Battery:
		topic = base + "/battery"
		payload = batteryPayload{Level: info.Level.String()}
	case controller.Motion:
		topic = base + "/imu"
		payload = info.Sample
	default:
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("json marshal error: %v", err)
		return
	}
	if token := client.Publish(topic, 0, false, data); token.Wait() && token.Error() != nil {
		log.Printf("MQTT publish error (%s): %v", topic, token.Error())
	}
}
