package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 0, MaxPayload).Draw(t, "payload")

		framed, err := Encode(payload)
		require.NoError(t, err)

		dec := NewDecoder()
		out := dec.Feed(framed)
		require.Len(t, out, 1)
		assert.Equal(t, payload, out[0])
	})
}

func TestEncodeRejectsOversizePayload(t *testing.T) {
	_, err := Encode(make([]byte, MaxPayload+1))
	require.Error(t, err)
	var tooLarge *ErrPayloadTooLarge
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, MaxPayload+1, tooLarge.Len)
}

func TestDecoderResyncsOnGarbageBeforeMagic(t *testing.T) {
	payload := []byte("hello")
	framed, err := Encode(payload)
	require.NoError(t, err)

	dec := NewDecoder()
	garbage := []byte{0x00, 0xFF, magic0, 0x11}
	out := dec.Feed(append(garbage, framed...))
	require.Len(t, out, 1)
	assert.Equal(t, payload, out[0])
}

func TestDecoderDropsOversizeDeclaredLength(t *testing.T) {
	payload := []byte("second frame")
	good, err := Encode(payload)
	require.NoError(t, err)

	dec := NewDecoder()
	bad := []byte{magic0, magic1, 0xFF, 0xFF} // declared length 65535 > MaxPayload
	out := dec.Feed(append(bad, good...))
	require.Len(t, out, 1)
	assert.Equal(t, payload, out[0])
}

func TestDecoderSplitAcrossMultipleFeeds(t *testing.T) {
	payload := []byte("split across chunks")
	framed, err := Encode(payload)
	require.NoError(t, err)

	dec := NewDecoder()
	var out [][]byte
	for _, b := range framed {
		out = append(out, dec.Feed([]byte{b})...)
	}
	require.Len(t, out, 1)
	assert.Equal(t, payload, out[0])
}

func TestDecoderMultipleFramesInOneFeed(t *testing.T) {
	a, err := Encode([]byte("one"))
	require.NoError(t, err)
	b, err := Encode([]byte("two"))
	require.NoError(t, err)

	dec := NewDecoder()
	out := dec.Feed(append(a, b...))
	require.Len(t, out, 2)
	assert.Equal(t, []byte("one"), out[0])
	assert.Equal(t, []byte("two"), out[1])
}
