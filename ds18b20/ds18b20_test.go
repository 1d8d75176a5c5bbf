// Copyright 2025 The Thermwire Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds18b20

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseROM(t *testing.T) {
	buf := []byte{0x28, 0xac, 0x41, 0x0e, 0x07, 0x00, 0x00, 0x74}
	r, err := ParseROM(buf)
	if err != nil {
		t.Fatal(err)
	}
	want := ROM{
		Family: 0x28,
		Serial: [6]byte{0xac, 0x41, 0x0e, 0x07, 0x00, 0x00},
		CRC:    0x74,
	}
	if diff := cmp.Diff(r, want); diff != "" {
		t.Errorf("ParseROM() difference (-got +want):\n%s", diff)
	}
	if b := r.Bytes(); b != [8]byte{0x28, 0xac, 0x41, 0x0e, 0x07, 0x00, 0x00, 0x74} {
		t.Errorf("Bytes() = %#v, not the parsed input", b)
	}
	if s := r.String(); s != "740000070E41AC28" {
		t.Errorf("String() = %q", s)
	}
}

func TestParseROM_badLength(t *testing.T) {
	if _, err := ParseROM([]byte{0x28}); err == nil {
		t.Fatal("expected an error for a short buffer")
	}
	if _, err := ParseROM(make([]byte, 9)); err == nil {
		t.Fatal("expected an error for a long buffer")
	}
}

func TestROM_Genuine(t *testing.T) {
	for _, tc := range []struct {
		name string
		rom  ROM
		want bool
	}{
		{"genuine", ROM{Family: 0x28, Serial: [6]byte{0xac, 0x41, 0x0e, 0x07, 0x00, 0x00}}, true},
		{"wrong family", ROM{Family: 0x10, Serial: [6]byte{0xac, 0x41, 0x0e, 0x07, 0x00, 0x00}}, false},
		{"high serial byte set", ROM{Family: 0x28, Serial: [6]byte{0xac, 0x41, 0x0e, 0x07, 0x00, 0x01}}, false},
		{"next serial byte set", ROM{Family: 0x28, Serial: [6]byte{0xac, 0x41, 0x0e, 0x07, 0x5a, 0x00}}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rom.Genuine(); got != tc.want {
				t.Errorf("Genuine() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseScratchpad(t *testing.T) {
	buf := []byte{0x50, 0x05, 0x4b, 0x46, 0x7f, 0xff, 0x00, 0x10, 0x1c}
	s, err := ParseScratchpad(buf)
	if err != nil {
		t.Fatal(err)
	}
	want := Scratchpad{
		TempLSB:   0x50,
		TempMSB:   0x05,
		AlarmHigh: 0x4b,
		AlarmLow:  0x46,
		Config:    0x7f,
		Reserved:  [3]byte{0xff, 0x00, 0x10},
		CRC:       0x1c,
	}
	if diff := cmp.Diff(s, want); diff != "" {
		t.Errorf("ParseScratchpad() difference (-got +want):\n%s", diff)
	}
	var orig [9]byte
	copy(orig[:], buf)
	if b := s.Bytes(); b != orig {
		t.Errorf("Bytes() = %#v, not the parsed input", b)
	}
}

func TestParseScratchpad_badLength(t *testing.T) {
	if _, err := ParseScratchpad(make([]byte, 8)); err == nil {
		t.Fatal("expected an error for a short buffer")
	}
}

func TestScratchpad_ReservedPlausible(t *testing.T) {
	for _, tc := range []struct {
		name     string
		reserved [3]byte
		want     bool
	}{
		{"genuine", [3]byte{0xff, 0x00, 0x10}, true},
		{"genuine with count remain", [3]byte{0xff, 0x0c, 0x10}, true},
		{"first byte wrong", [3]byte{0x00, 0x00, 0x10}, false},
		{"third byte wrong", [3]byte{0xff, 0x00, 0x80}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := Scratchpad{Reserved: tc.reserved}
			if got := s.ReservedPlausible(); got != tc.want {
				t.Errorf("ReservedPlausible() = %v, want %v", got, tc.want)
			}
		})
	}
}

// TestTemperature covers the sign extension and 1/16 °C scaling of the raw
// conversion result across the device's range.
func TestTemperature(t *testing.T) {
	for _, tc := range []struct {
		lsb, msb byte
		celsius  float64
	}{
		{0xd0, 0x07, 125},
		{0x50, 0x05, 85},
		{0x91, 0x01, 25.0625},
		{0xa2, 0x00, 10.125},
		{0x08, 0x00, 0.5},
		{0x00, 0x00, 0},
		{0xf8, 0xff, -0.5},
		{0x5e, 0xff, -10.125},
		{0x6f, 0xfe, -25.0625},
		{0x90, 0xfc, -55},
	} {
		t.Run(fmt.Sprintf("%f", tc.celsius), func(t *testing.T) {
			s := Scratchpad{TempLSB: tc.lsb, TempMSB: tc.msb}
			if got := s.Temperature(); got.Celsius() != tc.celsius {
				t.Errorf("Temperature() = %f, want %f", got.Celsius(), tc.celsius)
			}
		})
	}
}

func TestResolution_ConversionTime(t *testing.T) {
	want := map[Resolution]time.Duration{
		Resolution9Bits:  94 * time.Millisecond,
		Resolution10Bits: 188 * time.Millisecond,
		Resolution11Bits: 375 * time.Millisecond,
		Resolution12Bits: 750 * time.Millisecond,
	}
	prev := time.Duration(0)
	for r := Resolution9Bits; r <= Resolution12Bits; r++ {
		d := r.ConversionTime()
		if d != want[r] {
			t.Errorf("%s: ConversionTime() = %s, want %s", r, d, want[r])
		}
		if d <= prev {
			t.Errorf("%s: ConversionTime() = %s, not strictly increasing", r, d)
		}
		prev = d
	}
}

func TestResolution_ConfigByte(t *testing.T) {
	for _, tc := range []struct {
		r    Resolution
		want byte
	}{
		{Resolution9Bits, 0x1f},
		{Resolution10Bits, 0x3f},
		{Resolution11Bits, 0x5f},
		{Resolution12Bits, 0x7f},
	} {
		if got := tc.r.ConfigByte(); got != tc.want {
			t.Errorf("%s: ConfigByte() = %#02x, want %#02x", tc.r, got, tc.want)
		}
	}
}

func TestResolution_Bits(t *testing.T) {
	for r, want := range map[Resolution]int{
		Resolution9Bits:  9,
		Resolution10Bits: 10,
		Resolution11Bits: 11,
		Resolution12Bits: 12,
	} {
		if got := r.Bits(); got != want {
			t.Errorf("%s: Bits() = %d, want %d", r, got, want)
		}
	}
}

func TestResolution_invalidPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an out-of-range resolution")
		}
	}()
	Resolution(4).ConversionTime()
}
