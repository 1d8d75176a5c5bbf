// Copyright 2025 The Thermwire Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/thermwire/thermwire/ds18b20"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thermwire.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_defaults(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Bus != "uart" || cfg.Device != "/dev/ttyUSB0" {
		t.Errorf("bus defaults = %q %q", cfg.Bus, cfg.Device)
	}
	if cfg.period != time.Second {
		t.Errorf("period = %s, want 1s", cfg.period)
	}
	if !cfg.checkCRC {
		t.Error("CRC checking must default to enabled")
	}
	if cfg.resolution() != ds18b20.Resolution12Bits {
		t.Errorf("resolution = %s, want 12bit", cfg.resolution())
	}
	if cfg.I2C.Addr != 0x18 {
		t.Errorf("i2c addr = %#x, want 0x18", cfg.I2C.Addr)
	}
}

func TestLoadConfig_full(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, `
bus: i2c
i2c:
  bus: "1"
  addr: 0x19
period: 500ms
resolution: 10
crc: false
allow_fakes: true
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Bus != "i2c" || cfg.I2C.Bus != "1" || cfg.I2C.Addr != 0x19 {
		t.Errorf("i2c settings = %q %+v", cfg.Bus, cfg.I2C)
	}
	if cfg.period != 500*time.Millisecond {
		t.Errorf("period = %s, want 500ms", cfg.period)
	}
	if cfg.resolution() != ds18b20.Resolution10Bits {
		t.Errorf("resolution = %s, want 10bit", cfg.resolution())
	}
	if cfg.checkCRC {
		t.Error("crc: false must disable checking")
	}
	if !cfg.AllowFakes {
		t.Error("allow_fakes: true not honored")
	}
}

func TestLoadConfig_rejects(t *testing.T) {
	for _, tc := range []struct {
		name, body string
	}{
		{"bad bus", "bus: spi\n"},
		{"bad resolution", "resolution: 13\n"},
		{"bad period", "period: soon\n"},
		{"negative period", "period: -1s\n"},
		{"not yaml", ":\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := loadConfig(writeConfig(t, tc.body)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadConfig_missingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error")
	}
}
