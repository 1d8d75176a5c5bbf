// Copyright 2025 The Thermwire Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// thermwire reads a single DS18B20-class sensor and prints the temperature
// once per period.
//
// The 1-wire bus is reached either through a plain UART adapter or through a
// DS2482/DS2483 bus master on I²C; see the YAML configuration in config.go.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ds248x"
	"periph.io/x/host/v3"

	"github.com/thermwire/thermwire"
	"github.com/thermwire/thermwire/uartbus"
)

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "thermwire: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	configPath := flag.String("config", "thermwire.yaml", "path to the YAML configuration")
	quiet := flag.Bool("quiet", false, "suppress engine diagnostics")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, "thermwire: ", log.LstdFlags)
	engineLog := logger
	if *quiet {
		engineLog = log.New(io.Discard, "", 0)
	}

	bus, closeBus, err := openBus(cfg)
	if err != nil {
		return err
	}
	defer closeBus()

	m, err := thermwire.New(bus, &thermwire.Opts{
		CheckCRC:   cfg.checkCRC,
		AllowFakes: cfg.AllowFakes,
		Resolution: cfg.resolution(),
		Log:        engineLog,
	})
	if err != nil {
		return err
	}
	if err := m.Start(cfg.period); err != nil {
		return err
	}
	defer m.Halt()
	logger.Printf("%s stepping every %s on %s", m, cfg.period, cfg.Bus)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	tick := time.NewTicker(cfg.period)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			if t, ready := m.Temperature(); ready {
				fmt.Printf("%s\n", t)
			}
		case s := <-sig:
			logger.Printf("%s, shutting down", s)
			st := m.Stats()
			logger.Printf("outcomes: ok[%d] crc[%d] pre[%d] fake[%d]",
				st.Success, st.CRCMismatch, st.NoPresence, st.FakeRejected)
			if _, ready := m.Temperature(); !ready && st.FakeRejected > 0 {
				return fmt.Errorf("halted on an incompatible device")
			}
			return nil
		}
	}
}

// openBus builds the configured bus master. The returned func releases it.
func openBus(cfg *config) (thermwire.Bus, func() error, error) {
	switch cfg.Bus {
	case "i2c":
		if _, err := host.Init(); err != nil {
			return nil, nil, err
		}
		b, err := i2creg.Open(cfg.I2C.Bus)
		if err != nil {
			return nil, nil, err
		}
		d, err := ds248x.New(b, cfg.I2C.Addr, &ds248x.DefaultOpts)
		if err != nil {
			b.Close()
			return nil, nil, err
		}
		return d, b.Close, nil
	default: // validated to "uart"
		a, err := uartbus.New(cfg.Device)
		if err != nil {
			return nil, nil, err
		}
		return a, a.Close, nil
	}
}
