// Package mqttbridge is the MQTT command channel: it subscribes to the
// device's command topic, runs each payload through the interpretation
// pipeline, and publishes the response. Availability is tracked with a
// retained will message so dashboards see the assistant go offline.
//
// The bridge uses Eclipse Paho v2's [autopaho] package for connection
// management with automatic reconnection. On every (re-)connect it
// re-subscribes and publishes a birth message ("online") to the
// availability topic.
package mqttbridge

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/stewardbot/steward/internal/config"
	"github.com/stewardbot/steward/internal/pipeline"
)

// Bridge manages the MQTT connection and command subscription.
type Bridge struct {
	cfg        config.MQTTConfig
	instanceID string
	pipe       *pipeline.Pipeline
	logger     *slog.Logger
	cm         *autopaho.ConnectionManager
}

// New creates a Bridge but does not connect. Call [Bridge.Start] to
// begin the connection and subscription.
func New(cfg config.MQTTConfig, instanceID string, pipe *pipeline.Pipeline, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		cfg:        cfg,
		instanceID: instanceID,
		pipe:       pipe,
		logger:     logger,
	}
}

// commandPayload is the inbound message format. A bare (non-JSON)
// payload is also accepted and treated as the command text.
type commandPayload struct {
	Command string `json:"command"`
}

// responsePayload is published to the response topic.
type responsePayload struct {
	Response string `json:"response"`
	Intent   string `json:"intent"`
	OK       bool   `json:"ok"`
}

// parseCommand extracts the command text from an inbound payload:
// either a {"command": "..."} object or the bare payload itself.
func parseCommand(raw []byte) string {
	var payload commandPayload
	if err := json.Unmarshal(raw, &payload); err == nil {
		return strings.TrimSpace(payload.Command)
	}
	return strings.TrimSpace(string(raw))
}

// Start connects to the MQTT broker and blocks until ctx is cancelled.
func (b *Bridge) Start(ctx context.Context) error {
	brokerURL, err := url.Parse(b.cfg.Broker)
	if err != nil {
		return fmt.Errorf("parse mqtt broker URL: %w", err)
	}

	availTopic := b.availabilityTopic()

	pahoCfg := autopaho.ClientConfig{
		ServerUrls:      []*url.URL{brokerURL},
		KeepAlive:       30,
		ConnectUsername: b.cfg.Username,
		ConnectPassword: []byte(b.cfg.Password),
		WillMessage: &paho.WillMessage{
			Topic:   availTopic,
			Payload: []byte("offline"),
			QoS:     1,
			Retain:  true,
		},
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			b.logger.Info("mqtt connected to broker", "broker", b.cfg.Broker)
			b.subscribe(ctx, cm)
			b.publishAvailability(ctx, cm, "online")
		},
		OnConnectError: func(err error) {
			b.logger.Warn("mqtt connection error", "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: b.clientID(),
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				func(pr paho.PublishReceived) (bool, error) {
					b.handleCommand(ctx, pr.Packet)
					return true, nil
				},
			},
		},
	}

	// Enable TLS for mqtts:// or ssl:// schemes.
	if brokerURL.Scheme == "mqtts" || brokerURL.Scheme == "ssl" {
		pahoCfg.TlsCfg = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	b.cm = cm

	// Wait for the initial connection, but keep retrying in the
	// background if the broker is down at startup.
	connCtx, connCancel := context.WithTimeout(ctx, 30*time.Second)
	defer connCancel()
	if err := cm.AwaitConnection(connCtx); err != nil {
		b.logger.Warn("mqtt initial connection timed out, will retry in background", "error", err)
	}

	<-ctx.Done()
	return nil
}

// Stop gracefully disconnects by publishing an "offline" availability
// message before closing the MQTT connection.
func (b *Bridge) Stop(ctx context.Context) error {
	if b.cm == nil {
		return nil
	}
	b.publishAvailability(ctx, b.cm, "offline")
	return b.cm.Disconnect(ctx)
}

// clientID identifies this installation to the broker. It is derived
// from the persisted instance ID, not device_name, so renaming the
// device does not orphan the broker session.
func (b *Bridge) clientID() string {
	return "steward-" + b.instanceID
}

// --- Topic helpers ---

func (b *Bridge) baseTopic() string {
	return "steward/" + b.cfg.DeviceName
}

func (b *Bridge) commandTopic() string {
	return b.baseTopic() + "/command"
}

func (b *Bridge) responseTopic() string {
	return b.baseTopic() + "/response"
}

func (b *Bridge) availabilityTopic() string {
	return b.baseTopic() + "/availability"
}

func (b *Bridge) subscribe(ctx context.Context, cm *autopaho.ConnectionManager) {
	topic := b.commandTopic()
	if _, err := cm.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{
			{Topic: topic, QoS: 1},
		},
	}); err != nil {
		b.logger.Warn("mqtt subscribe failed", "topic", topic, "error", err)
		return
	}
	b.logger.Info("mqtt subscribed", "topic", topic)
}

// handleCommand runs one inbound command through the pipeline and
// publishes the response. Commands arrive one at a time per broker
// delivery; each is independent.
func (b *Bridge) handleCommand(ctx context.Context, pub *paho.Publish) {
	if pub.Topic != b.commandTopic() {
		return
	}

	command := parseCommand(pub.Payload)
	if command == "" {
		return
	}

	resp := b.pipe.Process(ctx, "mqtt", command)

	body, err := json.Marshal(responsePayload{
		Response: resp.Text,
		Intent:   resp.Intent,
		OK:       resp.OK,
	})
	if err != nil {
		b.logger.Error("mqtt marshal response", "error", err)
		return
	}

	if _, err := b.cm.Publish(ctx, &paho.Publish{
		Topic:   b.responseTopic(),
		Payload: body,
		QoS:     1,
	}); err != nil {
		b.logger.Warn("mqtt response publish failed", "error", err)
	}
}

func (b *Bridge) publishAvailability(ctx context.Context, cm *autopaho.ConnectionManager, status string) {
	if _, err := cm.Publish(ctx, &paho.Publish{
		Topic:   b.availabilityTopic(),
		Payload: []byte(status),
		QoS:     1,
		Retain:  true,
	}); err != nil {
		b.logger.Warn("mqtt availability publish failed", "status", status, "error", err)
		return
	}
	b.logger.Info("mqtt availability published", "status", status)
}
