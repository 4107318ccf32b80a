package api

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var ErrChecksum = errors.New("frame checksum mismatch")

func checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}

	return 0xff - sum
}

func needsEscape(b byte) bool {
	return b == StartDelimiter || b == Escape || b == XON || b == XOFF
}

// Encode wraps frame data with the start delimiter, length and checksum. When escaped is true the bytes
// after the delimiter are escaped for API mode 2.
func Encode(data []byte, escaped bool) []byte {
	body := make([]byte, 2, 3+len(data))
	binary.BigEndian.PutUint16(body, uint16(len(data)))
	body = append(body, data...)
	body = append(body, checksum(data))

	out := make([]byte, 1, 1+len(body)*2)
	out[0] = StartDelimiter

	for _, b := range body {
		if escaped && needsEscape(b) {
			out = append(out, Escape, b^escapeXOR)
		} else {
			out = append(out, b)
		}
	}

	return out
}

// Decoder reads frames from a byte stream, skipping anything before a start delimiter.
type Decoder struct {
	r       *bufio.Reader
	escaped bool
}

func NewDecoder(r io.Reader, escaped bool) *Decoder {
	return &Decoder{r: bufio.NewReader(r), escaped: escaped}
}

func (d *Decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, err
	}

	if d.escaped && b == Escape {
		b, err = d.r.ReadByte()
		if err != nil {
			return 0, err
		}

		return b ^ escapeXOR, nil
	}

	return b, nil
}

func (d *Decoder) sync() error {
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return err
		}

		if b == StartDelimiter {
			return nil
		}
	}
}

// Next returns the frame data of the next frame. A checksum error is returned without losing sync, the
// caller may call Next again.
func (d *Decoder) Next() ([]byte, error) {
	if err := d.sync(); err != nil {
		return nil, err
	}

	var lengthBytes [2]byte
	for i := range lengthBytes {
		b, err := d.readByte()
		if err != nil {
			return nil, err
		}
		lengthBytes[i] = b
	}

	length := binary.BigEndian.Uint16(lengthBytes[:])
	data := make([]byte, length)

	for i := range data {
		b, err := d.readByte()
		if err != nil {
			return nil, err
		}
		data[i] = b
	}

	sum, err := d.readByte()
	if err != nil {
		return nil, err
	}

	if sum != checksum(data) {
		return nil, fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrChecksum, sum, checksum(data))
	}

	return data, nil
}
