// Package api implements the subset of XBee API framing used to issue AT commands to local and remote
// radios and to receive their responses. Frame types other than command responses are decoded only as
// far as their type byte, and are handed on without a frame ID.
package api

import (
	"encoding/binary"
	"errors"
	"fmt"
	"github.com/shimmeringbee/zigbee"
)

const (
	StartDelimiter = 0x7e
	Escape         = 0x7d
	XON            = 0x11
	XOFF           = 0x13
	escapeXOR      = 0x20
)

type FrameType uint8

const (
	ATCommand             FrameType = 0x08
	RemoteATCommand       FrameType = 0x17
	ModemStatus           FrameType = 0x8a
	ATCommandResponse     FrameType = 0x88
	TransmitStatus        FrameType = 0x8b
	ReceivePacket         FrameType = 0x90
	IODataSample          FrameType = 0x92
	RemoteCommandResponse FrameType = 0x97
)

func (t FrameType) String() string {
	switch t {
	case ATCommand:
		return "at_command"
	case RemoteATCommand:
		return "remote_at_command"
	case ModemStatus:
		return "modem_status"
	case ATCommandResponse:
		return "at_response"
	case TransmitStatus:
		return "tx_status"
	case ReceivePacket:
		return "rx"
	case IODataSample:
		return "rx_io_data"
	case RemoteCommandResponse:
		return "remote_at_response"
	default:
		return fmt.Sprintf("0x%02x", uint8(t))
	}
}

// UnknownNetworkAddress is used as the 16-bit destination when only the 64-bit address is known.
const UnknownNetworkAddress = 0xfffe

// RemoteApplyChanges asks the remote radio to apply the command immediately.
const RemoteApplyChanges = 0x02

// Frame is an inbound API frame. An ID of zero means the frame carries no frame ID, either because the
// frame type has none or because it was unsolicited.
type Frame struct {
	Type      FrameType
	ID        uint8
	Command   string
	Status    uint8
	Parameter []byte
	Source    zigbee.IEEEAddress
}

var ErrShortFrame = errors.New("frame data too short for frame type")
var ErrInvalidCommand = errors.New("at command must be two characters")

// ParseFrame decodes frame data, that is the bytes between the length and the checksum.
func ParseFrame(data []byte) (Frame, error) {
	if len(data) == 0 {
		return Frame{}, ErrShortFrame
	}

	f := Frame{Type: FrameType(data[0])}

	switch f.Type {
	case ATCommandResponse:
		if len(data) < 5 {
			return f, fmt.Errorf("%s: %w", f.Type, ErrShortFrame)
		}

		f.ID = data[1]
		f.Command = string(data[2:4])
		f.Status = data[4]
		f.Parameter = copyBytes(data[5:])
	case RemoteCommandResponse:
		if len(data) < 15 {
			return f, fmt.Errorf("%s: %w", f.Type, ErrShortFrame)
		}

		f.ID = data[1]
		f.Source = zigbee.IEEEAddress(binary.BigEndian.Uint64(data[2:10]))
		f.Command = string(data[12:14])
		f.Status = data[14]
		f.Parameter = copyBytes(data[15:])
	case TransmitStatus:
		if len(data) < 7 {
			return f, fmt.Errorf("%s: %w", f.Type, ErrShortFrame)
		}

		f.ID = data[1]
		f.Status = data[5]
		f.Parameter = copyBytes(data[2:])
	default:
		f.Parameter = copyBytes(data[1:])
	}

	return f, nil
}

// LocalCommandFrame builds the frame data for an AT command to the attached radio.
func LocalCommandFrame(id uint8, command string, parameter []byte) ([]byte, error) {
	if len(command) != 2 {
		return nil, ErrInvalidCommand
	}

	data := make([]byte, 0, 4+len(parameter))
	data = append(data, byte(ATCommand), id, command[0], command[1])
	data = append(data, parameter...)

	return data, nil
}

// RemoteCommandFrame builds the frame data for an AT command relayed to a remote radio.
func RemoteCommandFrame(id uint8, destination zigbee.IEEEAddress, command string, parameter []byte) ([]byte, error) {
	if len(command) != 2 {
		return nil, ErrInvalidCommand
	}

	data := make([]byte, 15, 15+len(parameter))
	data[0] = byte(RemoteATCommand)
	data[1] = id
	binary.BigEndian.PutUint64(data[2:10], uint64(destination))
	binary.BigEndian.PutUint16(data[10:12], UnknownNetworkAddress)
	data[12] = RemoteApplyChanges
	data[13] = command[0]
	data[14] = command[1]
	data = append(data, parameter...)

	return data, nil
}

func copyBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}

	c := make([]byte, len(b))
	copy(c, b)
	return c
}
