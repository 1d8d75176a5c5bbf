// Copyright 2025 The Thermwire Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermwire implements a non-blocking protocol manager for a single
// DS18B20-class temperature sensor on a 1-wire bus.
//
// The Monitor is a finite-state engine driven by periodic calls to Step. Each
// call performs at most one bus transaction or one elapsed-time comparison,
// so a cooperative scheduler is never stalled waiting on the sensor; the
// conversion itself is waited out across calls. Once a full read-and-validate
// cycle has succeeded, the last accepted temperature is available from
// Temperature together with a readiness flag.
//
// The device is always addressed with Skip ROM, so exactly one sensor must be
// on the bus. Multi-drop enumeration is out of scope.
package thermwire

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/onewire"
	"periph.io/x/conn/v3/physic"

	"github.com/thermwire/thermwire/crc8"
	"github.com/thermwire/thermwire/ds18b20"
)

// Bus is the single-wire master capability the engine drives. One Tx is one
// bus transaction: a reset / presence handshake followed by the written and
// read bytes. Any onewire.Bus implementation satisfies it.
type Bus interface {
	Tx(w, r []byte, power onewire.Pullup) error
}

// Opts contains options to pass to the constructor.
type Opts struct {
	// CheckCRC enables CRC-8 validation of ROM code and scratchpad reads.
	// When false the checks are skipped entirely rather than computed and
	// ignored.
	CheckCRC bool
	// AllowFakes downgrades genuineness failures (wrong family code,
	// implausible reserved bytes, ignored configuration writes) to warnings.
	AllowFakes bool
	// Resolution selects the conversion precision and with it the
	// conversion-time budget.
	Resolution ds18b20.Resolution
	// Log receives diagnostics. nil disables logging. It is never consulted
	// for control flow.
	Log *log.Logger
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{CheckCRC: true, Resolution: ds18b20.Resolution12Bits}

// now is replaced in tests.
var now = time.Now

// New returns an engine that manages the single DS18B20-class sensor on bus.
//
// A nil opts selects DefaultOpts. The engine performs no bus traffic until
// Step is called (or Start is used to call it periodically).
func New(bus Bus, opts *Opts) (*Monitor, error) {
	if bus == nil {
		return nil, errors.New("thermwire: bus is required")
	}
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	if !opts.Resolution.Valid() {
		return nil, fmt.Errorf("thermwire: invalid resolution %d", opts.Resolution)
	}
	return &Monitor{
		bus:       bus,
		opts:      *opts,
		budget:    opts.Resolution.ConversionTime(),
		state:     stateAcquireROM,
		acquiring: true,
	}, nil
}

// Monitor sequences the bus transactions that identify, configure and
// periodically convert a single temperature sensor.
//
// All protocol state is owned by Step and must be driven from one goroutine;
// the published temperature, readiness flag and outcome counters may be read
// from any goroutine at any time.
type Monitor struct {
	bus    Bus
	opts   Opts
	budget time.Duration

	state     state
	acquiring bool      // current cycle originated in the acquisition phase
	outcome   Outcome   // pending outcome for the report step
	raw       int16     // candidate temperature for the pending outcome
	started   time.Time // conversion start

	rom       ds18b20.ROM
	alarmHigh byte
	alarmLow  byte

	runMu    sync.Mutex
	shutdown chan struct{}

	sink resultSink
}

func (m *Monitor) String() string {
	if s, ok := m.bus.(fmt.Stringer); ok {
		return "DS18B20Monitor{" + s.String() + "}"
	}
	return "DS18B20Monitor{" + m.opts.Resolution.String() + "}"
}

// Step advances the engine by exactly one bounded action. It never blocks.
//
// Calling Step on a Monitor that was not obtained from New is a programming
// error and panics.
func (m *Monitor) Step() {
	switch m.state {
	case stateAcquireROM:
		m.stepAcquireROM()
	case stateAcquireScratchpad:
		m.stepAcquireScratchpad()
	case stateProgramScratchpad:
		m.stepProgramScratchpad()
	case stateVerifyConfig:
		m.stepVerifyConfig()
	case stateBeginConversion:
		m.stepBeginConversion()
	case stateAwaitConversion:
		m.stepAwaitConversion()
	case stateCollectResult:
		m.stepCollectResult()
	case stateReportOutcome:
		m.stepReportOutcome()
	case stateFaulted:
		m.stepFaulted()
	default:
		panic("thermwire: Step on an unconstructed Monitor")
	}
}

// Start steps the engine every period from a background goroutine until Halt
// is called. Use Step directly instead when an external scheduler provides
// the cadence.
func (m *Monitor) Start(period time.Duration) error {
	if period <= 0 {
		return errors.New("thermwire: period must be positive")
	}
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.shutdown != nil {
		return errors.New("thermwire: already running")
	}
	m.shutdown = make(chan struct{})
	go m.run(m.shutdown, period)
	return nil
}

func (m *Monitor) run(shutdown <-chan struct{}, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-shutdown:
			return
		case <-t.C:
			m.Step()
		}
	}
}

// Halt stops the periodic stepping started by Start. Implements
// conn.Resource. It does not reset the protocol state; a faulted engine stays
// faulted.
func (m *Monitor) Halt() error {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.shutdown != nil {
		close(m.shutdown)
		m.shutdown = nil
	}
	return nil
}

// Temperature returns the last accepted reading. ready is false until the
// first successful cycle completes and again once the engine has faulted.
func (m *Monitor) Temperature() (physic.Temperature, bool) {
	raw, ready := m.sink.publish()
	return ds18b20.Temperature(raw), ready
}

// RawTemperature is Temperature in the device's native units of 1/16 °C.
func (m *Monitor) RawTemperature() (int16, bool) {
	return m.sink.publish()
}

// Stats returns a snapshot of the per-outcome counters.
func (m *Monitor) Stats() Stats {
	return m.sink.snapshot()
}

// tx runs one bus transaction. A transaction error means the presence
// handshake (or the bus itself) failed; it is reported as NoPresence and tx
// returns false.
func (m *Monitor) tx(w, r []byte, power onewire.Pullup) bool {
	if err := m.bus.Tx(w, r, power); err != nil {
		m.errorf("bus transaction failed: %v", err)
		m.report(NoPresence)
		return false
	}
	return true
}

func (m *Monitor) report(o Outcome) {
	m.outcome = o
	m.state = stateReportOutcome
}

func (m *Monitor) stepAcquireROM() {
	var buf [ds18b20.ROMSize]byte
	if !m.tx([]byte{ds18b20.CmdReadROM}, buf[:], onewire.WeakPullup) {
		return
	}
	if m.opts.CheckCRC && !crc8.Valid(buf[:7], buf[7]) {
		m.warnf("ROM code failed CRC: % x", buf)
		m.report(CRCMismatch)
		return
	}
	rom, _ := ds18b20.ParseROM(buf[:]) // length is fixed
	if !rom.Genuine() {
		if !m.opts.AllowFakes {
			m.errorf("rejecting non-genuine ROM code %s", rom)
			m.report(FakeRejected)
			return
		}
		m.warnf("ROM code %s does not look like a DS18B20, proceeding", rom)
	}
	m.rom = rom
	m.infof("acquired device %s", rom)
	m.state = stateAcquireScratchpad
}

func (m *Monitor) stepAcquireScratchpad() {
	s, ok := m.readScratchpad()
	if !ok {
		return
	}
	if !s.ReservedPlausible() {
		if !m.opts.AllowFakes {
			m.errorf("rejecting implausible reserved bytes % x", s.Reserved)
			m.report(FakeRejected)
			return
		}
		m.warnf("reserved bytes % x do not match genuine silicon, proceeding", s.Reserved)
	}
	// The pre-conversion reading is informational only; fresh silicon holds
	// the 85°C power-on default here.
	m.infof("scratchpad before programming: %s", s.Temperature())
	m.alarmHigh = s.AlarmHigh
	m.alarmLow = s.AlarmLow
	m.state = stateProgramScratchpad
}

func (m *Monitor) stepProgramScratchpad() {
	w := []byte{ds18b20.CmdSkipROM, ds18b20.CmdWriteScratchpad,
		m.alarmHigh, m.alarmLow, m.opts.Resolution.ConfigByte()}
	if !m.tx(w, nil, onewire.WeakPullup) {
		return
	}
	m.state = stateVerifyConfig
}

func (m *Monitor) stepVerifyConfig() {
	s, ok := m.readScratchpad()
	if !ok {
		return
	}
	if want := m.opts.Resolution.ConfigByte(); s.Config != want {
		// Clones commonly ignore configuration writes.
		if !m.opts.AllowFakes {
			m.errorf("configuration register reads %#02x after writing %#02x", s.Config, want)
			m.report(FakeRejected)
			return
		}
		m.warnf("device ignored the %s configuration write, proceeding", m.opts.Resolution)
	}
	m.acquiring = false
	m.state = stateBeginConversion
}

func (m *Monitor) stepBeginConversion() {
	// Strong pull-up powers parasitic devices through the conversion.
	if !m.tx([]byte{ds18b20.CmdSkipROM, ds18b20.CmdConvertT}, nil, onewire.StrongPullup) {
		return
	}
	m.started = now()
	m.state = stateAwaitConversion
}

func (m *Monitor) stepAwaitConversion() {
	if now().Sub(m.started) > m.budget {
		m.state = stateCollectResult
	}
}

func (m *Monitor) stepCollectResult() {
	s, ok := m.readScratchpad()
	if !ok {
		return
	}
	// Genuineness was established during acquisition; only the CRC applies
	// here.
	m.raw = s.RawTemperature()
	m.report(Success)
}

func (m *Monitor) stepReportOutcome() {
	m.sink.record(m.outcome, m.raw)
	if m.outcome == Success {
		m.infof("temperature %s", ds18b20.Temperature(m.raw))
	}
	st := m.sink.snapshot()
	m.infof("%s: ok[%d] crc[%d] pre[%d] fake[%d]",
		m.outcome, st.Success, st.CRCMismatch, st.NoPresence, st.FakeRejected)
	switch {
	case m.acquiring && m.outcome == FakeRejected:
		m.errorf("incompatible device on the bus, reinitialization required")
		m.sink.clearReady()
		m.state = stateFaulted
	case m.acquiring:
		m.state = stateAcquireROM
	default:
		m.state = stateBeginConversion
	}
}

func (m *Monitor) stepFaulted() {
	m.sink.clearReady()
}

// readScratchpad runs the read transaction and, when enabled, the CRC check
// shared by three states. On failure the outcome has already been reported.
func (m *Monitor) readScratchpad() (ds18b20.Scratchpad, bool) {
	var buf [ds18b20.ScratchpadSize]byte
	if !m.tx([]byte{ds18b20.CmdSkipROM, ds18b20.CmdReadScratchpad}, buf[:], onewire.WeakPullup) {
		return ds18b20.Scratchpad{}, false
	}
	if m.opts.CheckCRC && !crc8.Valid(buf[:8], buf[8]) {
		m.warnf("scratchpad failed CRC: % x", buf)
		m.report(CRCMismatch)
		return ds18b20.Scratchpad{}, false
	}
	s, _ := ds18b20.ParseScratchpad(buf[:]) // length is fixed
	return s, true
}

func (m *Monitor) infof(format string, args ...interface{}) {
	if m.opts.Log != nil {
		m.opts.Log.Printf(format, args...)
	}
}

func (m *Monitor) warnf(format string, args ...interface{}) {
	if m.opts.Log != nil {
		m.opts.Log.Printf("warning: "+format, args...)
	}
}

func (m *Monitor) errorf(format string, args ...interface{}) {
	if m.opts.Log != nil {
		m.opts.Log.Printf("error: "+format, args...)
	}
}

var _ conn.Resource = &Monitor{}
