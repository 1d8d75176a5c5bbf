// Copyright 2025 The Thermwire Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package uartbus drives a 1-wire bus through a plain UART.
//
// A 115200 baud capable UART provides the timing needed to act as a 1-wire
// master: each bit is one UART character (0x00 for a zero slot, 0xFF for a
// one slot or a read slot) and the reset pulse is a 0xF0 character sent at
// 9600 baud. The technique is described in Maxim application note 214,
// "Using a UART to Implement a 1-Wire Bus Master".
//
// The adapter implements the transaction shape of periph.io's onewire bus
// masters: one Tx is a reset / presence handshake followed by the written and
// read bytes. ROM search is not supported; the adapter is meant for a single
// device addressed with Skip ROM.
package uartbus

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
	"periph.io/x/conn/v3/onewire"
)

const (
	resetBaud = 9600
	slotBaud  = 115200
)

// Adapter is a 1-wire bus master on a serial port.
type Adapter struct {
	device string
	mu     sync.Mutex
	port   serial.Port
	mode   serial.Mode
}

// New opens the serial port at device and configures it as a 1-wire master.
// DTR is asserted so adapters powered from the control lines come up.
func New(device string) (*Adapter, error) {
	a := &Adapter{
		device: device,
		mode: serial.Mode{
			BaudRate: slotBaud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
	}
	p, err := serial.Open(device, &a.mode)
	if err != nil {
		return nil, fmt.Errorf("uartbus: %w", err)
	}
	if err := p.SetDTR(true); err != nil {
		p.Close()
		return nil, fmt.Errorf("uartbus: %w", err)
	}
	a.port = p
	return a, nil
}

func (a *Adapter) String() string {
	return "uartbus(" + a.device + ")"
}

// Close releases the serial port.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.port == nil {
		return nil
	}
	err := a.port.Close()
	a.port = nil
	return err
}

// Tx performs one bus transaction: reset and presence detect, then the w
// bytes are sent and len(r) bytes are read.
//
// power is accepted for interface compatibility; the UART TX line idles high,
// which is the only pull-up this adapter has.
func (a *Adapter) Tx(w, r []byte, power onewire.Pullup) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.port == nil {
		return busError("uartbus: port is closed")
	}
	if err := a.reset(); err != nil {
		return err
	}
	for _, b := range w {
		if err := a.writeByte(b); err != nil {
			return err
		}
	}
	for i := range r {
		b, err := a.readByte()
		if err != nil {
			return err
		}
		r[i] = b
	}
	return nil
}

// reset issues the reset pulse at 9600 baud and samples the presence answer.
func (a *Adapter) reset() error {
	a.mode.BaudRate = resetBaud
	if err := a.port.SetMode(&a.mode); err != nil {
		return fmt.Errorf("uartbus: %w", err)
	}
	presenceErr := a.presencePulse()
	a.mode.BaudRate = slotBaud
	if err := a.port.SetMode(&a.mode); err != nil {
		return fmt.Errorf("uartbus: %w", err)
	}
	return presenceErr
}

func (a *Adapter) presencePulse() error {
	if err := a.clear(); err != nil {
		return err
	}
	if err := a.write([]byte{0xf0}); err != nil {
		return err
	}
	var echo [1]byte
	if err := a.read(echo[:]); err != nil {
		return err
	}
	// The echoed low nibble is shortened by the devices' presence pulse. A
	// non-zero low nibble means something drove the line during our own
	// pulse; an unshortened 0xf high nibble means nobody answered.
	if echo[0]&0x0f != 0 {
		return busError(fmt.Sprintf("uartbus: reset pulse came back %#02x", echo[0]))
	}
	if echo[0]>>4 == 0xf {
		return noPresenceError("uartbus: no device present")
	}
	return nil
}

// writeByte sends one byte as 8 bit slots, least-significant bit first, and
// verifies the echo: a mismatch means another driver held the bus.
func (a *Adapter) writeByte(data byte) error {
	if err := a.clear(); err != nil {
		return err
	}
	var slots [8]byte
	for i := 0; i < 8; i++ {
		if data>>i&1 != 0 {
			slots[i] = 0xff
		}
	}
	if err := a.write(slots[:]); err != nil {
		return err
	}
	var echo [8]byte
	if err := a.read(echo[:]); err != nil {
		return err
	}
	if echo != slots {
		return busError("uartbus: write slot echo mismatch")
	}
	return nil
}

// readByte issues 8 read slots and assembles the byte from the echoes: a
// device holding the line low turns the echoed 0xFF into a lower value.
func (a *Adapter) readByte() (byte, error) {
	if err := a.clear(); err != nil {
		return 0, err
	}
	if err := a.write([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}); err != nil {
		return 0, err
	}
	var echo [8]byte
	if err := a.read(echo[:]); err != nil {
		return 0, err
	}
	var data byte
	for i, slot := range echo {
		if slot == 0xff {
			data |= 1 << i
		}
	}
	return data, nil
}

func (a *Adapter) clear() error {
	if err := a.port.ResetOutputBuffer(); err != nil {
		return fmt.Errorf("uartbus: %w", err)
	}
	if err := a.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("uartbus: %w", err)
	}
	return nil
}

func (a *Adapter) write(p []byte) error {
	n, err := a.port.Write(p)
	if err != nil {
		return fmt.Errorf("uartbus: %w", err)
	}
	if n != len(p) {
		return busError("uartbus: short write")
	}
	return nil
}

func (a *Adapter) read(p []byte) error {
	if _, err := io.ReadFull(a.port, p); err != nil {
		return fmt.Errorf("uartbus: %w", err)
	}
	return nil
}

// busError implements error and onewire.BusError.
type busError string

func (e busError) Error() string  { return string(e) }
func (e busError) BusError() bool { return true }

// noPresenceError implements error, onewire.BusError and
// onewire.NoDevicesError.
type noPresenceError string

func (e noPresenceError) Error() string   { return string(e) }
func (e noPresenceError) BusError() bool  { return true }
func (e noPresenceError) NoDevices() bool { return true }

// IsNoPresence reports whether err indicates that no device answered the
// presence pulse.
func IsNoPresence(err error) bool {
	var np noPresenceError
	return errors.As(err, &np)
}
