package varint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFixedVectors(t *testing.T) {
	assert.Equal(t, []byte{0x00}, Encode(nil, 0))
	assert.Equal(t, []byte{0x7F}, Encode(nil, 127))
	assert.Equal(t, []byte{0x80, 0x01}, Encode(nil, 128))
	assert.Equal(t, []byte{0xFF, 0x7F}, Encode(nil, 16383))
	assert.Equal(t, []byte{0xAC, 0x02}, Encode(nil, 300))
}

func TestDecodeFixedVectors(t *testing.T) {
	got, err := Decode([]byte{0xAC, 0x02})
	require.NoError(t, err)
	assert.Equal(t, []uint64{300}, got)
}

func TestRoundTripSingleValues(t *testing.T) {
	for n := uint64(0); n <= 1_000_000; n += 997 {
		buf := Encode(nil, n)
		got, err := Decode(buf)
		require.NoError(t, err)
		require.Equal(t, []uint64{n}, got)
	}
}

func TestRoundTripSequence(t *testing.T) {
	seq := []uint64{0, 1, 127, 128, 300, 16383, 16384, 1 << 20, 1 << 40}
	buf := EncodeAll(seq)
	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, seq, got)
}

func TestDecodeTruncatedStreamFails(t *testing.T) {
	_, err := Decode([]byte{0x80})
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestDecodeEmptyStream(t *testing.T) {
	got, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestConcatenationIsValidStream(t *testing.T) {
	var buf []byte
	buf = append(buf, Encode(nil, 5)...)
	buf = append(buf, Encode(nil, 1000)...)
	buf = append(buf, Encode(nil, 0)...)
	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 1000, 0}, got)
}
