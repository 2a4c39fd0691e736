// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package wirecodec implements the fixed-endian integer encoders and
// decoders shared by the DTLS record and handshake fragment headers:
// network byte order uint16, uint24 and uint48 values written into or read
// from caller-supplied buffers at caller-supplied offsets.
//
// None of these functions allocate or can fail at runtime: a caller-supplied
// buffer that is too small to hold the value is a programming error, not a
// recoverable one, and panics via the normal slice-bounds-out-of-range rules
// rather than returning an error.
package wirecodec

// PutUint16 writes v in network byte order at buf[0:2].
func PutUint16(buf []byte, v uint16) {
	buf[0] = byte(v >> 8)
	buf[1] = byte(v)
}

// Uint16 reads a network byte order uint16 from buf[0:2].
func Uint16(buf []byte) uint16 {
	return uint16(buf[0])<<8 | uint16(buf[1])
}

// PutUint24 writes the low 24 bits of v in network byte order at buf[0:3].
func PutUint24(buf []byte, v uint32) {
	buf[0] = byte(v >> 16)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v)
}

// Uint24 reads a network byte order 24-bit value from buf[0:3].
func Uint24(buf []byte) uint32 {
	return uint32(buf[0])<<16 | uint32(buf[1])<<8 | uint32(buf[2])
}

// PutUint48 writes the low 48 bits of v in network byte order at buf[0:6].
func PutUint48(buf []byte, v uint64) {
	buf[0] = byte(v >> 40)
	buf[1] = byte(v >> 32)
	buf[2] = byte(v >> 24)
	buf[3] = byte(v >> 16)
	buf[4] = byte(v >> 8)
	buf[5] = byte(v)
}

// Uint48 reads a network byte order 48-bit value from buf[0:6].
func Uint48(buf []byte) uint64 {
	return uint64(buf[0])<<40 | uint64(buf[1])<<32 | uint64(buf[2])<<24 |
		uint64(buf[3])<<16 | uint64(buf[4])<<8 | uint64(buf[5])
}
