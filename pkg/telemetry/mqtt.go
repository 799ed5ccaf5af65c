// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig configures the broker connection
type MQTTConfig struct {
	Broker   string // e.g. tcp://localhost:1883
	Username string
	Password string
	ClientID string // random when empty
	Prefix   string // topic prefix, e.g. oistat/robot1
	QoS      byte
	Retain   bool
	Timeout  time.Duration
}

// mqttClient is the subset of mqtt.Client used by the publisher
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes samples as JSON under a topic prefix:
//
//	<prefix>/sensors  SensorSnapshot
//	<prefix>/battery  BatterySnapshot
//	<prefix>/mode     {"time": ..., "mode": "SAFE"}
type MQTTPublisher struct {
	client  mqttClient
	prefix  string
	qos     byte
	retain  bool
	timeout time.Duration
}

type modePayload struct {
	Time time.Time `json:"time"`
	Mode string    `json:"mode"`
}

// NewMQTTPublisher connects to the broker.
// The client reconnects on its own after the initial connection.
func NewMQTTPublisher(cfg MQTTConfig) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = randomClientID()
	}
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !waitToken(token, cfg.Timeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("timed out connecting to %s", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Broker, err)
	}
	return newMQTTPublisher(client, cfg), nil
}

func newMQTTPublisher(client mqttClient, cfg MQTTConfig) *MQTTPublisher {
	return &MQTTPublisher{
		client:  client,
		prefix:  strings.TrimSuffix(cfg.Prefix, "/"),
		qos:     cfg.QoS,
		retain:  cfg.Retain,
		timeout: cfg.Timeout,
	}
}

// Publish sends the sensor, battery and mode topics for one sample
func (p *MQTTPublisher) Publish(s Sample) error {
	if err := p.publishJSON("sensors", s.Sensors); err != nil {
		return err
	}
	if err := p.publishJSON("battery", s.Battery); err != nil {
		return err
	}
	return p.publishJSON("mode", modePayload{Time: s.Time, Mode: s.Mode.String()})
}

// Close disconnects from the broker
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

// Topic returns the full topic name for a suffix
func (p *MQTTPublisher) Topic(suffix string) string {
	if p.prefix == "" {
		return suffix
	}
	return p.prefix + "/" + suffix
}

func (p *MQTTPublisher) publishJSON(suffix string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", suffix, err)
	}
	topic := p.Topic(suffix)
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if !waitToken(token, p.timeout) {
		return fmt.Errorf("timed out publishing %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}
	return nil
}

// waitToken waits for completion; a zero timeout waits forever
func waitToken(token mqtt.Token, timeout time.Duration) bool {
	if timeout <= 0 {
		return token.Wait()
	}
	return token.WaitTimeout(timeout)
}

func randomClientID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("oistat-%d", time.Now().UnixNano())
	}
	return "oistat-" + hex.EncodeToString(buf)
}
