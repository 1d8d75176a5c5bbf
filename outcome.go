// Copyright 2025 The Thermwire Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermwire

import "sync"

// Outcome is the terminal result of one protocol cycle. Exactly one outcome
// is recorded per cycle.
type Outcome uint8

const (
	// Success: the cycle produced a validated temperature.
	Success Outcome = iota
	// CRCMismatch: a computed checksum disagreed with the stored one on
	// either memory region. Transient; the next cycle retries.
	CRCMismatch
	// NoPresence: the bus presence handshake failed. Transient; the next
	// cycle retries.
	NoPresence
	// FakeRejected: a genuineness check failed and the configuration does
	// not tolerate clones. During acquisition this faults the engine.
	FakeRejected
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case CRCMismatch:
		return "crc-mismatch"
	case NoPresence:
		return "no-presence"
	case FakeRejected:
		return "fake-rejected"
	default:
		return "unknown"
	}
}

// Stats is a snapshot of the per-outcome counters. The counters increase
// monotonically and are never reset.
type Stats struct {
	Success      uint64
	CRCMismatch  uint64
	NoPresence   uint64
	FakeRejected uint64
}

// resultSink aggregates terminal outcomes and publishes the accepted
// temperature. It is the only engine state shared across goroutines; the
// mutex covers both the write and read paths so a reader never observes a
// torn multi-byte value.
type resultSink struct {
	mu    sync.Mutex
	raw   int16
	ready bool
	stats Stats
}

// record counts the outcome and, exactly for Success, overwrites the
// published temperature and sets readiness.
func (s *resultSink) record(o Outcome, raw int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch o {
	case Success:
		s.stats.Success++
		s.raw = raw
		s.ready = true
	case CRCMismatch:
		s.stats.CRCMismatch++
	case NoPresence:
		s.stats.NoPresence++
	case FakeRejected:
		s.stats.FakeRejected++
	}
}

func (s *resultSink) clearReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = false
}

func (s *resultSink) publish() (int16, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw, s.ready
}

func (s *resultSink) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
