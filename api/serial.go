package api

import (
	"fmt"
	"go.bug.st/serial"
	"io"
)

const (
	DefaultDevice = "/dev/ttyUSB0"
	DefaultBaud   = 9600
)

// SerialConfig holds serial port configuration for the radio.
type SerialConfig struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string
	Baud   int
}

func DefaultSerialConfig() SerialConfig {
	return SerialConfig{
		Device: DefaultDevice,
		Baud:   DefaultBaud,
	}
}

// OpenSerial opens the radio's serial port, 8N1.
func OpenSerial(cfg SerialConfig) (io.ReadWriteCloser, error) {
	if cfg.Device == "" {
		cfg.Device = DefaultDevice
	}

	if cfg.Baud == 0 {
		cfg.Baud = DefaultBaud
	}

	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	return port, nil
}
