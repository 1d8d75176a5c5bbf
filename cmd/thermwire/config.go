// Copyright 2025 The Thermwire Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/thermwire/thermwire/ds18b20"
)

// config is the YAML file schema. Durations are strings in time.Duration
// syntax ("1s", "500ms").
type config struct {
	Bus        string    `yaml:"bus"`    // "uart" or "i2c"
	Device     string    `yaml:"device"` // uart serial device
	I2C        i2cConfig `yaml:"i2c"`
	Period     string    `yaml:"period"`
	Resolution int       `yaml:"resolution"` // bits, 9..12
	CRC        *bool     `yaml:"crc"`
	AllowFakes bool      `yaml:"allow_fakes"`

	period   time.Duration
	checkCRC bool
}

type i2cConfig struct {
	Bus  string `yaml:"bus"`  // i2creg name, "" selects the first available
	Addr uint16 `yaml:"addr"` // ds248x address
}

func loadConfig(path string) (*config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.finish(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// finish applies defaults and validates.
func (c *config) finish() error {
	if c.Bus == "" {
		c.Bus = "uart"
	}
	if c.Bus != "uart" && c.Bus != "i2c" {
		return fmt.Errorf("unknown bus kind %q", c.Bus)
	}
	if c.Device == "" {
		c.Device = "/dev/ttyUSB0"
	}
	if c.I2C.Addr == 0 {
		c.I2C.Addr = 0x18
	}
	if c.Period == "" {
		c.Period = "1s"
	}
	period, err := time.ParseDuration(c.Period)
	if err != nil {
		return fmt.Errorf("bad period: %w", err)
	}
	if period <= 0 {
		return fmt.Errorf("period %s is not positive", period)
	}
	c.period = period
	if c.Resolution == 0 {
		c.Resolution = 12
	}
	if c.Resolution < 9 || c.Resolution > 12 {
		return fmt.Errorf("resolution %d bits is not in 9..12", c.Resolution)
	}
	c.checkCRC = c.CRC == nil || *c.CRC
	return nil
}

func (c *config) resolution() ds18b20.Resolution {
	return ds18b20.Resolution(c.Resolution - 9)
}
