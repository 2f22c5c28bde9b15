package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/telemetry_sender/internal/config"
	"github.com/relabs-tech/telemetry_sender/internal/orientation"
)

// RunConsoleMQTT prints every frame the receiver relays to TOPIC_FRAME until
// ctx is cancelled.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("console: MQTT_BROKER is not configured")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(uniqueClientID(cfg.MQTTClientIDConsole))

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicFrame, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := printFrameMessage(out, msg.Payload()); err != nil {
			log.Printf("console: frame unmarshal error: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicFrame)

	<-ctx.Done()
	log.Println("console: shutting down")
	return nil
}

func printFrameMessage(out io.Writer, payload []byte) error {
	var m FrameMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return err
	}
	f := m.Frame
	pose := orientation.FromAccel(f.Accel)

	fmt.Fprintf(out,
		"[GYRO ] t=%d x=%8.3f y=%8.3f z=%8.3f\n"+
			"[ACCEL] t=%d x=%8.3f y=%8.3f z=%8.3f\n"+
			"[INCL ] t=%d x=%8.3f y=%8.3f z=%8.3f\n"+
			"[GPS  ] t=%d fix=%s sats=%d lat=%.6f lon=%.6f alt=%.1fm\n"+
			"[POSE ] ROLL=%6.2f  PITCH=%6.2f\n",
		f.Gyro.TimeMs, f.Gyro.X, f.Gyro.Y, f.Gyro.Z,
		f.Accel.TimeMs, f.Accel.X, f.Accel.Y, f.Accel.Z,
		f.Incl.TimeMs, f.Incl.X, f.Incl.Y, f.Incl.Z,
		f.GPS.TimeMs, f.GPS.Status, f.GPS.Satellites, f.GPS.Latitude, f.GPS.Longitude, f.GPS.Altitude,
		pose.Roll, pose.Pitch,
	)
	return nil
}
