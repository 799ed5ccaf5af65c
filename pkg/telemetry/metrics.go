// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Thermoquad/oistat/pkg/oi"
)

// Collector exposes the latest sample as Prometheus gauges.
// It is also a Sink, so it can sit in a MultiSink next to the others.
type Collector struct {
	mu sync.Mutex

	pollSuccess prometheus.Gauge
	lastSuccess prometheus.Gauge
	mode        prometheus.Gauge

	voltage       prometheus.Gauge
	current       prometheus.Gauge
	temperature   prometheus.Gauge
	charge        prometheus.Gauge
	capacity      prometheus.Gauge
	chargingState prometheus.Gauge

	bump        *prometheus.GaugeVec
	wheelDrop   *prometheus.GaugeVec
	cliff       *prometheus.GaugeVec
	wall        prometheus.Gauge
	virtualWall prometheus.Gauge
	dirtLevel   prometheus.Gauge
	lightBumper *prometheus.GaugeVec
}

// NewCollector creates a collector with all gauges at zero
func NewCollector() *Collector {
	return &Collector{
		pollSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oistat_poll_success",
			Help: "Last sensor poll success (1=ok, 0=error)",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oistat_last_success_timestamp_seconds",
			Help: "Last successful sensor poll timestamp (epoch seconds)",
		}),
		mode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oistat_mode",
			Help: "Device mode (0=off, 1=passive, 2=safe, 3=full)",
		}),
		voltage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oistat_battery_voltage_volts",
			Help: "Battery voltage (V)",
		}),
		current: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oistat_battery_current_amperes",
			Help: "Battery current, negative when discharging (A)",
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oistat_battery_temperature_celsius",
			Help: "Battery temperature (C)",
		}),
		charge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oistat_battery_charge_mah",
			Help: "Battery charge (mAh)",
		}),
		capacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oistat_battery_capacity_mah",
			Help: "Battery capacity (mAh)",
		}),
		chargingState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oistat_charging_state",
			Help: "Charging state code",
		}),
		bump: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "oistat_bump",
			Help: "Bumper pressed (1=yes)",
		}, []string{"side"}),
		wheelDrop: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "oistat_wheel_drop",
			Help: "Wheel dropped (1=yes)",
		}, []string{"side"}),
		cliff: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "oistat_cliff",
			Help: "Cliff detected (1=yes)",
		}, []string{"position"}),
		wall: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oistat_wall",
			Help: "Wall detected (1=yes)",
		}),
		virtualWall: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oistat_virtual_wall",
			Help: "Virtual wall detected (1=yes)",
		}),
		dirtLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oistat_dirt_level",
			Help: "Dirt detect level (0-255)",
		}),
		lightBumper: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "oistat_light_bumper_signal",
			Help: "Light bumper signal strength",
		}, []string{"position"}),
	}
}

func (c *Collector) gauges() []prometheus.Collector {
	return []prometheus.Collector{
		c.pollSuccess, c.lastSuccess, c.mode,
		c.voltage, c.current, c.temperature, c.charge, c.capacity, c.chargingState,
		c.bump, c.wheelDrop, c.cliff, c.wall, c.virtualWall, c.dirtLevel, c.lightBumper,
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, g := range c.gauges() {
		g.Describe(ch)
	}
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range c.gauges() {
		g.Collect(ch)
	}
}

// Observe records a successful poll
func (c *Collector) Observe(s Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pollSuccess.Set(1)
	c.lastSuccess.Set(unix(s.Time))
	c.mode.Set(float64(s.Mode))

	bat := s.Battery
	c.voltage.Set(float64(bat.VoltageMV) / 1000)
	c.current.Set(float64(bat.CurrentMA) / 1000)
	c.temperature.Set(float64(bat.TemperatureC))
	c.charge.Set(float64(bat.ChargeMAh))
	c.capacity.Set(float64(bat.CapacityMAh))
	c.chargingState.Set(float64(bat.ChargingState))

	env := s.Sensors
	c.bump.WithLabelValues("left").Set(boolFloat(env.BumpLeft))
	c.bump.WithLabelValues("right").Set(boolFloat(env.BumpRight))
	c.wheelDrop.WithLabelValues("left").Set(boolFloat(env.WheelDropLeft))
	c.wheelDrop.WithLabelValues("right").Set(boolFloat(env.WheelDropRight))
	c.cliff.WithLabelValues("left").Set(boolFloat(env.CliffLeft))
	c.cliff.WithLabelValues("front_left").Set(boolFloat(env.CliffFrontLeft))
	c.cliff.WithLabelValues("front_right").Set(boolFloat(env.CliffFrontRight))
	c.cliff.WithLabelValues("right").Set(boolFloat(env.CliffRight))
	c.wall.Set(boolFloat(env.WallDetected))
	c.virtualWall.Set(boolFloat(env.VirtualWall))
	c.dirtLevel.Set(float64(env.DirtLevel))
	for i, v := range env.LightBumperSignal {
		c.lightBumper.WithLabelValues(oi.LightBumperNames[i]).Set(float64(v))
	}
}

// ObserveFailure records a failed poll. Previous readings are kept.
func (c *Collector) ObserveFailure(mode oi.DeviceMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pollSuccess.Set(0)
	c.mode.Set(float64(mode))
}

// Publish implements Sink
func (c *Collector) Publish(s Sample) error {
	c.Observe(s)
	return nil
}

// Close implements Sink
func (c *Collector) Close() error {
	return nil
}

// Handler returns an HTTP handler serving the registry
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// NewRegistry returns a registry holding c and the Go runtime collector
func NewRegistry(c *Collector) (*prometheus.Registry, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(c); err != nil {
		return nil, err
	}
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	return registry, nil
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// unix converts t for gauges; zero times stay zero
func unix(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.Unix())
}
