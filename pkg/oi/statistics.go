// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks query outcomes and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalQueries   uint64
	ValidResponses uint64
	Truncated      uint64
	WriteFailures  uint64
	ReadFailures   uint64
	IllegalState   uint64
	OtherErrors    uint64
	BytesReceived  uint64

	// Rates (calculated)
	QueryRate float64 // queries/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update records the outcome of one query
func (s *Statistics) Update(received int, err error) {
	s.TotalQueries++
	s.BytesReceived += uint64(received)

	switch {
	case err == nil:
		s.ValidResponses++
	case errors.Is(err, ErrTruncatedResponse):
		s.Truncated++
	case errors.Is(err, ErrChannelWrite):
		s.WriteFailures++
	case errors.Is(err, ErrChannelRead):
		s.ReadFailures++
	case errors.Is(err, ErrIllegalCommand):
		s.IllegalState++
	default:
		s.OtherErrors++
	}

	s.LastUpdateTime = time.Now()
}

// Errors returns the total number of failed queries
func (s *Statistics) Errors() uint64 {
	return s.Truncated + s.WriteFailures + s.ReadFailures + s.IllegalState + s.OtherErrors
}

// CalculateRates calculates query and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.QueryRate = float64(s.TotalQueries) / elapsed
		s.ErrorRate = float64(s.Errors()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, truncatedPercent float64
	if s.TotalQueries > 0 {
		validPercent = float64(s.ValidResponses) * 100.0 / float64(s.TotalQueries)
		truncatedPercent = float64(s.Truncated) * 100.0 / float64(s.TotalQueries)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Queries:   %8d\n", s.TotalQueries)
	result += fmt.Sprintf("Valid Responses: %8d (%.1f%%)\n", s.ValidResponses, validPercent)

	if s.Truncated > 0 {
		result += fmt.Sprintf("Truncated:       %8d (%.1f%%)\n", s.Truncated, truncatedPercent)
	}
	if s.WriteFailures > 0 {
		result += fmt.Sprintf("Write Failures:  %8d\n", s.WriteFailures)
	}
	if s.ReadFailures > 0 {
		result += fmt.Sprintf("Read Failures:   %8d\n", s.ReadFailures)
	}
	if s.IllegalState > 0 {
		result += fmt.Sprintf("Illegal State:   %8d\n", s.IllegalState)
	}
	if s.OtherErrors > 0 {
		result += fmt.Sprintf("Other Errors:    %8d\n", s.OtherErrors)
	}

	result += fmt.Sprintf("Bytes Received:  %8d\n", s.BytesReceived)
	result += fmt.Sprintf("Query Rate:      %8.1f queries/sec\n", s.QueryRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
