// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Recorder appends samples to a stream as consecutive CBOR items
type Recorder struct {
	w   io.WriteCloser
	enc *cbor.Encoder
}

// recordEncMode keeps sub-second timestamps
var recordEncMode = mustEncMode(cbor.EncOptions{Time: cbor.TimeRFC3339Nano})

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("telemetry: invalid CBOR options: %v", err))
	}
	return em
}

// NewRecorder creates a recorder writing to w. Close closes w.
func NewRecorder(w io.WriteCloser) *Recorder {
	return &Recorder{w: w, enc: recordEncMode.NewEncoder(w)}
}

// Publish appends one sample
func (r *Recorder) Publish(s Sample) error {
	if err := r.enc.Encode(s); err != nil {
		return fmt.Errorf("failed to record sample: %w", err)
	}
	return nil
}

// Close closes the underlying writer
func (r *Recorder) Close() error {
	return r.w.Close()
}

// Player reads samples written by a Recorder
type Player struct {
	dec *cbor.Decoder
}

// NewPlayer creates a player reading from r
func NewPlayer(r io.Reader) *Player {
	return &Player{dec: cbor.NewDecoder(r)}
}

// Next returns the next sample, or io.EOF at the end of the recording
func (p *Player) Next() (Sample, error) {
	var s Sample
	if err := p.dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return Sample{}, io.EOF
		}
		return Sample{}, fmt.Errorf("failed to decode sample: %w", err)
	}
	return s, nil
}
