package api

import (
	"github.com/shimmeringbee/zigbee"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParseFrame(t *testing.T) {
	t.Run("decodes an AT command response", func(t *testing.T) {
		f, err := ParseFrame([]byte{0x88, 0x07, 'D', '0', 0x00, 0x05})
		require.NoError(t, err)

		assert.Equal(t, ATCommandResponse, f.Type)
		assert.Equal(t, uint8(0x07), f.ID)
		assert.Equal(t, "D0", f.Command)
		assert.Equal(t, uint8(0x00), f.Status)
		assert.Equal(t, []byte{0x05}, f.Parameter)
	})

	t.Run("decodes a remote command response with source address", func(t *testing.T) {
		f, err := ParseFrame([]byte{0x97, 0x02, 0x00, 0x13, 0xa2, 0x00, 0x40, 0xa1, 0xb2, 0xc3, 0x12, 0x34, 'T', 'P', 0x04})
		require.NoError(t, err)

		assert.Equal(t, RemoteCommandResponse, f.Type)
		assert.Equal(t, uint8(0x02), f.ID)
		assert.Equal(t, zigbee.IEEEAddress(0x0013a20040a1b2c3), f.Source)
		assert.Equal(t, "TP", f.Command)
		assert.Equal(t, uint8(0x04), f.Status)
		assert.Nil(t, f.Parameter)
	})

	t.Run("frames without a frame ID are returned with ID zero", func(t *testing.T) {
		f, err := ParseFrame([]byte{0x8a, 0x06})
		require.NoError(t, err)

		assert.Equal(t, ModemStatus, f.Type)
		assert.Zero(t, f.ID)
		assert.Equal(t, []byte{0x06}, f.Parameter)
	})

	t.Run("rejects truncated response frames", func(t *testing.T) {
		_, err := ParseFrame([]byte{0x88, 0x01, 'D'})
		assert.ErrorIs(t, err, ErrShortFrame)

		_, err = ParseFrame([]byte{0x97, 0x01, 0x00})
		assert.ErrorIs(t, err, ErrShortFrame)

		_, err = ParseFrame(nil)
		assert.ErrorIs(t, err, ErrShortFrame)
	})
}
