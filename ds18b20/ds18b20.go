// Copyright 2025 The Thermwire Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ds18b20 models the memory regions and command set of the Dallas
// Semi / Maxim DS18B20 1-wire temperature sensor family.
//
// It contains only pure data declarations and mapping functions: the 64-bit
// ROM code, the 9-byte scratchpad, the resolution policy and the wire command
// bytes. Bus sequencing lives in the parent package.
//
// Datasheet
//
//	https://datasheets.maximintegrated.com/en/ds/DS18B20.pdf
package ds18b20

import "periph.io/x/conn/v3/physic"

// FamilyCode is the first ROM byte of every genuine DS18B20.
const FamilyCode byte = 0x28

// ROM commands (datasheet p.10). The engine only ever issues CmdReadROM and
// CmdSkipROM; search and match addressing are declared for completeness.
const (
	CmdSearchROM   byte = 0xF0
	CmdReadROM     byte = 0x33
	CmdMatchROM    byte = 0x55
	CmdSkipROM     byte = 0xCC
	CmdAlarmSearch byte = 0xEC
)

// Function commands (datasheet p.11). EEPROM and power-supply commands are
// declared but never issued by the engine.
const (
	CmdConvertT        byte = 0x44
	CmdWriteScratchpad byte = 0x4E
	CmdReadScratchpad  byte = 0xBE
	CmdCopyScratchpad  byte = 0x48
	CmdRecallEEPROM    byte = 0xB8
	CmdReadPowerSupply byte = 0xB4
)

// Temperature converts a raw conversion result to a physic.Temperature.
//
// raw is the sign-extended MSB:LSB scratchpad value with 4 fractional bits,
// so each unit is 1/16 °C (datasheet p.4).
func Temperature(raw int16) physic.Temperature {
	return physic.Temperature(raw)*physic.Kelvin/16 + physic.ZeroCelsius
}
