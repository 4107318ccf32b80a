package xbeeio

import (
	"fmt"
	"strings"
)

// GPIOSetting is the mode and level of a pin as understood by the radio firmware.
type GPIOSetting uint8

const (
	GPIODisabled          GPIOSetting = 0x00
	GPIOStandardFunc      GPIOSetting = 0x01
	GPIOADC               GPIOSetting = 0x02
	GPIODigitalInput      GPIOSetting = 0x03
	GPIODigitalOutputLow  GPIOSetting = 0x04
	GPIODigitalOutputHigh GPIOSetting = 0x05
)

var gpioSettingNames = map[GPIOSetting]string{
	GPIODisabled:          "DISABLED",
	GPIOStandardFunc:      "STANDARD_FUNC",
	GPIOADC:               "ADC",
	GPIODigitalInput:      "DIGITAL_INPUT",
	GPIODigitalOutputLow:  "DIGITAL_OUTPUT_LOW",
	GPIODigitalOutputHigh: "DIGITAL_OUTPUT_HIGH",
}

func (g GPIOSetting) String() string {
	if n, found := gpioSettingNames[g]; found {
		return n
	}

	return fmt.Sprintf("UNKNOWN(0x%02x)", uint8(g))
}

// Valid reports if the setting is one the firmware recognises.
func (g GPIOSetting) Valid() bool {
	_, found := gpioSettingNames[g]
	return found
}

// ParseGPIOSetting looks up a setting by its byte code.
func ParseGPIOSetting(code uint8) (GPIOSetting, bool) {
	s := GPIOSetting(code)
	return s, s.Valid()
}

// GPIOSettingByName looks up a setting by its symbolic name.
func GPIOSettingByName(name string) (GPIOSetting, bool) {
	for s, n := range gpioSettingNames {
		if n == name {
			return s, true
		}
	}

	return 0, false
}

// Pin tables for an XBee Series 2 (non-pro) module.
var (
	DigitalPins   = []string{"dio-0", "dio-1", "dio-2", "dio-3", "dio-4", "dio-5", "dio-10", "dio-11", "dio-12"}
	AnalogPins    = []string{"adc-0", "adc-1", "adc-2", "adc-3"}
	IOPinCommands = []string{"D0", "D1", "D2", "D3", "D4", "D5", "P0", "P1", "P2"}
)

const ADCMaxValue = 1023

// BoolMap translates between the application's on/off and the output level of a pin.
type BoolMap struct {
	bool2state map[bool]GPIOSetting
	state2bool map[GPIOSetting]bool
}

// NewBoolMap builds the mapping for the on_state configuration value. "low" means the pin is driven low
// when on, any other value means on is high.
func NewBoolMap(onState string) BoolMap {
	bool2state := map[bool]GPIOSetting{
		true:  GPIODigitalOutputHigh,
		false: GPIODigitalOutputLow,
	}

	if strings.ToLower(onState) == "low" {
		bool2state = map[bool]GPIOSetting{
			true:  GPIODigitalOutputLow,
			false: GPIODigitalOutputHigh,
		}
	}

	state2bool := make(map[GPIOSetting]bool, len(bool2state))
	for b, s := range bool2state {
		state2bool[s] = b
	}

	return BoolMap{bool2state: bool2state, state2bool: state2bool}
}

// Setting returns the output setting that represents b.
func (m BoolMap) Setting(b bool) GPIOSetting {
	return m.bool2state[b]
}

// Bool returns the boolean for an output setting, false in the second value if the setting is not an
// output level.
func (m BoolMap) Bool(s GPIOSetting) (bool, bool) {
	b, found := m.state2bool[s]
	return b, found
}

// Level returns the boolean for a sampled pin level, true being a high pin.
func (m BoolMap) Level(high bool) bool {
	if high {
		return m.state2bool[GPIODigitalOutputHigh]
	}

	return m.state2bool[GPIODigitalOutputLow]
}
