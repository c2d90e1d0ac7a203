// Package varint encodes non-negative integers as self-delimited byte
// streams for compact posting-list storage.
//
// Each value is split into 7-bit groups, low-order group first. Every
// byte but the last has its high bit set as a continuation marker; the
// last byte of a value has the high bit clear. A stream is simply a
// concatenation of encoded values, so decode can be run repeatedly
// over a posting list without any length prefix.
package varint

import "errors"

// ErrInvalidEncoding is returned when a byte stream ends with a
// continuation bit still set, so the final value is truncated.
var ErrInvalidEncoding = errors.New("varint: invalid encoding")

// Encode appends the 7-bits-per-byte, continuation-bit-high encoding
// of n to dst and returns the extended slice.
func Encode(dst []byte, n uint64) []byte {
	for n >= 0x80 {
		dst = append(dst, byte(n&0x7f)|0x80)
		n >>= 7
	}
	return append(dst, byte(n))
}

// EncodeAll encodes every value in ns in order and returns the
// concatenated stream.
func EncodeAll(ns []uint64) []byte {
	dst := make([]byte, 0, len(ns)*2)
	for _, n := range ns {
		dst = Encode(dst, n)
	}
	return dst
}

// Decode consumes every value in buf and returns them in order. An
// empty input decodes to an empty, non-nil slice. If buf ends mid-value
// (the last byte read still has its continuation bit set), Decode
// returns ErrInvalidEncoding together with whatever values it managed
// to decode before the truncation.
func Decode(buf []byte) ([]uint64, error) {
	out := make([]uint64, 0, len(buf)/2)
	var n uint64
	var shift uint
	for _, b := range buf {
		n |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			out = append(out, n)
			n = 0
			shift = 0
			continue
		}
		shift += 7
	}
	if shift != 0 {
		return out, ErrInvalidEncoding
	}
	return out, nil
}
