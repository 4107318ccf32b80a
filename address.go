package xbeeio

import (
	"fmt"
	"github.com/shimmeringbee/zigbee"
	"strconv"
	"strings"
)

// Address identifies the radio a command is issued to. The zero value is the locally attached radio,
// anything else is relayed through the mesh to the remote radio with that IEEE address.
type Address struct {
	ieeeAddress zigbee.IEEEAddress
	remote      bool
}

// LocalRadio addresses the radio attached to the serial port.
var LocalRadio = Address{}

// RemoteRadio addresses a remote radio by its 64-bit IEEE address.
func RemoteRadio(ieee zigbee.IEEEAddress) Address {
	return Address{ieeeAddress: ieee, remote: true}
}

// ParseAddress decodes a hex encoded 64-bit address such as "0013A20040A1B2C3". An empty string is
// the local radio.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")

	if len(s) == 0 {
		return LocalRadio, nil
	}

	if len(s) != 16 {
		return LocalRadio, fmt.Errorf("address must be 16 hex digits, got %d: %q", len(s), s)
	}

	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return LocalRadio, fmt.Errorf("address is not valid hex: %w", err)
	}

	return RemoteRadio(zigbee.IEEEAddress(v)), nil
}

func (a Address) IsLocal() bool {
	return !a.remote
}

func (a Address) IEEEAddress() zigbee.IEEEAddress {
	return a.ieeeAddress
}

func (a Address) String() string {
	if !a.remote {
		return "local"
	}

	return a.ieeeAddress.String()
}
