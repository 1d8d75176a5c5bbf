// Copyright 2025 The Thermwire Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds18b20

import (
	"errors"

	"periph.io/x/conn/v3/physic"
)

// ScratchpadSize is the wire size of the scratchpad memory region.
const ScratchpadSize = 9

// Fixed manufacturer values of the first and third reserved bytes on genuine
// silicon. The middle reserved byte is undefined and varies.
const (
	reserved1Value byte = 0xFF
	reserved3Value byte = 0x10
)

var errScratchpadSize = errors.New("ds18b20: scratchpad must be 9 bytes")

// Scratchpad is the parsed view of the device's volatile working memory
// (datasheet p.7).
type Scratchpad struct {
	TempLSB   byte
	TempMSB   byte
	AlarmHigh byte // TH register, also general-purpose user byte 1
	AlarmLow  byte // TL register, also general-purpose user byte 2
	Config    byte
	Reserved  [3]byte
	CRC       byte
}

// ParseScratchpad decodes the 9 bytes read after a Read Scratchpad command.
// It validates the length only; CRC and plausibility policy belong to the
// caller.
func ParseScratchpad(buf []byte) (Scratchpad, error) {
	if len(buf) != ScratchpadSize {
		return Scratchpad{}, errScratchpadSize
	}
	s := Scratchpad{
		TempLSB:   buf[0],
		TempMSB:   buf[1],
		AlarmHigh: buf[2],
		AlarmLow:  buf[3],
		Config:    buf[4],
		CRC:       buf[8],
	}
	copy(s.Reserved[:], buf[5:8])
	return s, nil
}

// Bytes returns the wire representation of the scratchpad.
func (s Scratchpad) Bytes() [ScratchpadSize]byte {
	var buf [ScratchpadSize]byte
	buf[0] = s.TempLSB
	buf[1] = s.TempMSB
	buf[2] = s.AlarmHigh
	buf[3] = s.AlarmLow
	buf[4] = s.Config
	copy(buf[5:8], s.Reserved[:])
	buf[8] = s.CRC
	return buf
}

// ReservedPlausible reports whether the fixed reserved bytes carry the values
// genuine silicon always returns. A clone can present a correct CRC with
// wrong reserved bytes, or the reverse, so this check is orthogonal to the
// CRC.
func (s Scratchpad) ReservedPlausible() bool {
	return s.Reserved[0] == reserved1Value && s.Reserved[2] == reserved3Value
}

// RawTemperature returns the sign-extended 16-bit conversion result in units
// of 1/16 °C.
func (s Scratchpad) RawTemperature() int16 {
	return int16(s.TempMSB)<<8 | int16(s.TempLSB)
}

// Temperature returns the conversion result as a physic.Temperature.
func (s Scratchpad) Temperature() physic.Temperature {
	return Temperature(s.RawTemperature())
}
