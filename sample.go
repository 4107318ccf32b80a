package xbeeio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// SupplyChannel is the analog channel name for the supply voltage monitor.
const SupplyChannel = "supply"

var digitalChannelBits = map[string]uint{
	"dio-0":  0,
	"dio-1":  1,
	"dio-2":  2,
	"dio-3":  3,
	"dio-4":  4,
	"dio-5":  5,
	"dio-10": 10,
	"dio-11": 11,
	"dio-12": 12,
}

var analogChannelBits = map[string]uint{
	"adc-0":       0,
	"adc-1":       1,
	"adc-2":       2,
	"adc-3":       3,
	SupplyChannel: 7,
}

var ErrMalformedSample = errors.New("malformed io sample")

// Sample is one decoded IO sample. Only channels enabled on the radio are present.
type Sample struct {
	Digital map[string]bool
	Analog  map[string]uint16
}

// ParseSample decodes the parameter of an IS response.
func ParseSample(data []byte) (Sample, error) {
	s := Sample{Digital: map[string]bool{}, Analog: map[string]uint16{}}

	if len(data) < 4 {
		return s, fmt.Errorf("%w: %d bytes", ErrMalformedSample, len(data))
	}

	if data[0] < 1 {
		return s, fmt.Errorf("%w: no sample sets", ErrMalformedSample)
	}

	digitalMask := binary.BigEndian.Uint16(data[1:3])
	analogMask := data[3]
	rest := data[4:]

	if digitalMask != 0 {
		if len(rest) < 2 {
			return s, fmt.Errorf("%w: missing digital data", ErrMalformedSample)
		}

		bits := binary.BigEndian.Uint16(rest[:2])
		rest = rest[2:]

		for name, bit := range digitalChannelBits {
			if digitalMask&(1<<bit) != 0 {
				s.Digital[name] = bits&(1<<bit) != 0
			}
		}
	}

	// Analog words follow in ascending channel order.
	for bit := uint(0); bit < 8; bit++ {
		if analogMask&(1<<bit) == 0 {
			continue
		}

		if len(rest) < 2 {
			return s, fmt.Errorf("%w: missing analog data for bit %d", ErrMalformedSample, bit)
		}

		value := binary.BigEndian.Uint16(rest[:2])
		rest = rest[2:]

		for name, b := range analogChannelBits {
			if b == bit {
				s.Analog[name] = value
			}
		}
	}

	return s, nil
}
