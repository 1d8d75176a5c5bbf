// Copyright 2025 The Thermwire Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds18b20

import (
	"errors"
	"fmt"
)

// ROMSize is the wire size of the ROM code: family byte, 6 serial bytes and a
// trailing CRC byte.
const ROMSize = 8

var errROMSize = errors.New("ds18b20: ROM code must be 8 bytes")

// ROM is the parsed view of the device's factory-programmed identification
// code.
type ROM struct {
	Family byte
	Serial [6]byte // least-significant byte first, as sent on the wire
	CRC    byte
}

// ParseROM decodes the 8 bytes read after a Read ROM command. It validates
// the length only; CRC and genuineness policy belong to the caller.
func ParseROM(buf []byte) (ROM, error) {
	if len(buf) != ROMSize {
		return ROM{}, errROMSize
	}
	r := ROM{Family: buf[0], CRC: buf[7]}
	copy(r.Serial[:], buf[1:7])
	return r, nil
}

// Bytes returns the wire representation of the ROM code.
func (r ROM) Bytes() [ROMSize]byte {
	var buf [ROMSize]byte
	buf[0] = r.Family
	copy(buf[1:7], r.Serial[:])
	buf[7] = r.CRC
	return buf
}

// Genuine reports whether the ROM code looks like a real DS18B20: the family
// code matches and the two most-significant serial bytes are zero. Clones
// frequently carry a CRC-valid ROM with out-of-range serial material, so this
// is an independent check from the CRC.
func (r ROM) Genuine() bool {
	return r.Family == FamilyCode && r.Serial[4] == 0 && r.Serial[5] == 0
}

// String renders the code the way Maxim prints it, most-significant byte
// first.
func (r ROM) String() string {
	b := r.Bytes()
	s := ""
	for i := ROMSize - 1; i >= 0; i-- {
		s += fmt.Sprintf("%02X", b[i])
	}
	return s
}
