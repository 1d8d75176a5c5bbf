// Copyright 2025 The Thermwire Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds18b20

import "time"

// Resolution selects how many bits of precision conversions have. Higher
// resolutions take proportionally longer (datasheet p.6).
type Resolution uint8

const (
	Resolution9Bits Resolution = iota
	Resolution10Bits
	Resolution11Bits
	Resolution12Bits
)

// conversionTimes holds the worst-case conversion budget per resolution
// (datasheet p.3, tCONV).
var conversionTimes = [4]time.Duration{
	94 * time.Millisecond,
	188 * time.Millisecond,
	375 * time.Millisecond,
	750 * time.Millisecond,
}

// Valid reports whether r is one of the four defined levels.
func (r Resolution) Valid() bool {
	return r <= Resolution12Bits
}

// Bits returns the number of temperature bits, 9 to 12.
func (r Resolution) Bits() int {
	r.check()
	return int(r) + 9
}

// ConversionTime returns the worst-case time a conversion takes at this
// resolution. The value is the budget the engine waits out before collecting
// the result.
func (r Resolution) ConversionTime() time.Duration {
	r.check()
	return conversionTimes[r]
}

// ConfigByte returns the configuration-register value that programs the
// device to this resolution. Only bits 5 and 6 are writable; the rest read
// back as 0x1F (datasheet p.8).
func (r Resolution) ConfigByte() byte {
	r.check()
	return byte(r)<<5 | 0x1F
}

func (r Resolution) String() string {
	switch r {
	case Resolution9Bits:
		return "9bit"
	case Resolution10Bits:
		return "10bit"
	case Resolution11Bits:
		return "11bit"
	case Resolution12Bits:
		return "12bit"
	default:
		return "invalid"
	}
}

// check panics on an out-of-range resolution. Reaching a policy function with
// an undefined level is a caller bug, not a runtime condition.
func (r Resolution) check() {
	if !r.Valid() {
		panic("ds18b20: invalid resolution")
	}
}
