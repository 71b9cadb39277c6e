package xmodem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC16XModemCheckValue(t *testing.T) {
	// The standard CRC-16/XMODEM check value for the ASCII string
	// "123456789" is 0x31C3 (spec.md §4.5, §8 property 6).
	assert.Equal(t, uint16(0x31C3), CRC16([]byte("123456789")))
}

func TestCRC16EmptyInput(t *testing.T) {
	assert.Equal(t, uint16(0), CRC16(nil))
}
