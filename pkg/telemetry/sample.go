// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package telemetry forwards decoded robot readings to external sinks:
// an MQTT broker, a Prometheus registry and CBOR recordings on disk.
package telemetry

import (
	"errors"
	"time"

	"github.com/Thermoquad/oistat/pkg/oi"
)

// Sample is one complete sensor poll
type Sample struct {
	Time    time.Time          `json:"time" cbor:"1,keyasint"`
	Mode    oi.DeviceMode      `json:"mode" cbor:"2,keyasint"`
	Sensors oi.SensorSnapshot  `json:"sensors" cbor:"3,keyasint"`
	Battery oi.BatterySnapshot `json:"battery" cbor:"4,keyasint"`
}

// Sink receives samples
type Sink interface {
	Publish(s Sample) error
	Close() error
}

// MultiSink fans a sample out to several sinks
type MultiSink []Sink

// Publish sends s to every sink and joins their errors
func (m MultiSink) Publish(s Sample) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Publish(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins their errors
func (m MultiSink) Close() error {
	var errs []error
	for _, sink := range m {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
