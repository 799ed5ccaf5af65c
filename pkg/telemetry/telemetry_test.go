// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/oistat/pkg/oi"
)

func testSample() Sample {
	return Sample{
		Time: time.Date(2025, 3, 14, 15, 9, 26, 535897932, time.UTC),
		Mode: oi.ModeSafe,
		Sensors: oi.SensorSnapshot{
			BumpLeft:          true,
			WheelDropRight:    true,
			CliffFrontLeft:    true,
			WallDetected:      true,
			DirtLevel:         42,
			LightBumperSignal: [oi.LightBumperCount]uint16{1, 2, 3, 4, 5, 4095},
		},
		Battery: oi.BatterySnapshot{
			ChargingState: oi.TrickleCharging,
			VoltageMV:     16123,
			CurrentMA:     -1250,
			TemperatureC:  -5,
			ChargeMAh:     1500,
			CapacityMAh:   3000,
		},
	}
}

type nopWriteCloser struct {
	io.Writer
	closed bool
}

func (w *nopWriteCloser) Close() error {
	w.closed = true
	return nil
}

func TestRecorder_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	wc := &nopWriteCloser{Writer: &buf}
	rec := NewRecorder(wc)

	first := testSample()
	second := testSample()
	second.Time = first.Time.Add(250 * time.Millisecond)
	second.Mode = oi.ModePassive
	second.Sensors.BumpLeft = false

	require.NoError(t, rec.Publish(first))
	require.NoError(t, rec.Publish(second))
	require.NoError(t, rec.Close())
	assert.True(t, wc.closed)

	player := NewPlayer(&buf)
	for _, want := range []Sample{first, second} {
		got, err := player.Next()
		require.NoError(t, err)
		assert.True(t, want.Time.Equal(got.Time), "time %v != %v", got.Time, want.Time)
		assert.Equal(t, want.Mode, got.Mode)
		assert.Equal(t, want.Sensors, got.Sensors)
		assert.Equal(t, want.Battery, got.Battery)
	}

	_, err := player.Next()
	assert.Equal(t, io.EOF, err)
}

func TestPlayer_Truncated(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&nopWriteCloser{Writer: &buf})
	require.NoError(t, rec.Publish(testSample()))

	data := buf.Bytes()
	player := NewPlayer(bytes.NewReader(data[:len(data)-3]))
	_, err := player.Next()
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

type fakeMQTT struct {
	messages     []published
	failTopic    string
	disconnected bool
}

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	if topic == f.failTopic {
		return &fakeToken{err: errors.New("not connected")}
	}
	f.messages = append(f.messages, published{topic, qos, retained, payload.([]byte)})
	return &fakeToken{}
}

func (f *fakeMQTT) Disconnect(uint) {
	f.disconnected = true
}

func TestMQTTPublisher_Topics(t *testing.T) {
	client := &fakeMQTT{}
	pub := newMQTTPublisher(client, MQTTConfig{Prefix: "oistat/robot1/", QoS: 1, Retain: true})

	require.NoError(t, pub.Publish(testSample()))
	require.Len(t, client.messages, 3)

	assert.Equal(t, "oistat/robot1/sensors", client.messages[0].topic)
	assert.Equal(t, "oistat/robot1/battery", client.messages[1].topic)
	assert.Equal(t, "oistat/robot1/mode", client.messages[2].topic)
	for _, m := range client.messages {
		assert.Equal(t, byte(1), m.qos)
		assert.True(t, m.retain)
	}

	var sensors oi.SensorSnapshot
	require.NoError(t, json.Unmarshal(client.messages[0].payload, &sensors))
	assert.Equal(t, testSample().Sensors, sensors)

	var battery oi.BatterySnapshot
	require.NoError(t, json.Unmarshal(client.messages[1].payload, &battery))
	assert.Equal(t, testSample().Battery, battery)

	var mode modePayload
	require.NoError(t, json.Unmarshal(client.messages[2].payload, &mode))
	assert.Equal(t, "SAFE", mode.Mode)

	require.NoError(t, pub.Close())
	assert.True(t, client.disconnected)
}

func TestMQTTPublisher_NoPrefix(t *testing.T) {
	pub := newMQTTPublisher(&fakeMQTT{}, MQTTConfig{})
	assert.Equal(t, "battery", pub.Topic("battery"))
}

func TestMQTTPublisher_PublishError(t *testing.T) {
	client := &fakeMQTT{failTopic: "r/battery"}
	pub := newMQTTPublisher(client, MQTTConfig{Prefix: "r"})

	err := pub.Publish(testSample())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "r/battery")
	assert.Contains(t, err.Error(), "not connected")
	// sensors went out before the failure, mode never did
	assert.Len(t, client.messages, 1)
}

func TestCollector_Observe(t *testing.T) {
	c := NewCollector()
	// gauge vecs have no children until the first sample
	assert.Equal(t, 12, testutil.CollectAndCount(c))

	s := testSample()
	c.Observe(s)

	assert.Equal(t, 26, testutil.CollectAndCount(c))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.pollSuccess))
	assert.Equal(t, float64(s.Time.Unix()), testutil.ToFloat64(c.lastSuccess))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.mode))
	assert.InDelta(t, 16.123, testutil.ToFloat64(c.voltage), 1e-9)
	assert.InDelta(t, -1.25, testutil.ToFloat64(c.current), 1e-9)
	assert.Equal(t, -5.0, testutil.ToFloat64(c.temperature))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.chargingState))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.bump.WithLabelValues("left")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.bump.WithLabelValues("right")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.wheelDrop.WithLabelValues("right")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cliff.WithLabelValues("front_left")))
	assert.Equal(t, 42.0, testutil.ToFloat64(c.dirtLevel))
	assert.Equal(t, 4095.0, testutil.ToFloat64(c.lightBumper.WithLabelValues("right")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lightBumper.WithLabelValues("left")))
}

func TestCollector_ObserveFailure(t *testing.T) {
	c := NewCollector()
	c.Observe(testSample())
	c.ObserveFailure(oi.ModeOff)

	assert.Equal(t, 0.0, testutil.ToFloat64(c.pollSuccess))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.mode))
	// last good reading is kept
	assert.Equal(t, 1500.0, testutil.ToFloat64(c.charge))
}

func TestHandler_ServesMetrics(t *testing.T) {
	c := NewCollector()
	registry, err := NewRegistry(c)
	require.NoError(t, err)
	require.NoError(t, c.Publish(testSample()))

	rr := httptest.NewRecorder()
	Handler(registry).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "oistat_battery_charge_mah 1500")
	assert.Contains(t, body, `oistat_light_bumper_signal{position="center_left"} 3`)
	assert.Contains(t, body, "go_goroutines")
}

type countingSink struct {
	published int
	closed    bool
	err       error
}

func (s *countingSink) Publish(Sample) error {
	s.published++
	return s.err
}

func (s *countingSink) Close() error {
	s.closed = true
	return s.err
}

func TestMultiSink(t *testing.T) {
	ok := &countingSink{}
	failing := &countingSink{err: errors.New("broker down")}
	last := &countingSink{}
	sinks := MultiSink{ok, failing, last}

	err := sinks.Publish(testSample())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	// a failing sink does not starve the ones after it
	assert.Equal(t, 1, ok.published)
	assert.Equal(t, 1, last.published)

	require.Error(t, sinks.Close())
	assert.True(t, ok.closed)
	assert.True(t, last.closed)

	assert.NoError(t, MultiSink{ok, last}.Publish(testSample()))
}
