// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package handshake implements the DTLS handshake fragment header: the
// per-fragment framing the flight transmitter wraps around each piece of a
// handshake message, reassembled by the peer's handshake cache. Message
// body parsing (ClientHello, ServerHello, Certificate, ...) is outside the
// scope of this core; only the fragment header and a handful of message
// type constants are implemented here.
package handshake

import "github.com/pion-forks/dtlscore/pkg/protocol/wirecodec"

// Type identifies a handshake message.
type Type uint8

// Handshake message types the flight transmitter and cookie engine care
// about directly or that tests use to label flight messages. Message
// bodies of every type are opaque payload bytes to this core.
const (
	TypeHelloRequest       Type = 0
	TypeClientHello        Type = 1
	TypeServerHello        Type = 2
	TypeHelloVerifyRequest Type = 3
	TypeCertificate        Type = 11
	TypeFinished           Type = 20
)

// HeaderSize is the length in bytes of the DTLS handshake fragment header:
// msg_type(1) | total_length(3) | message_seq(2) | fragment_offset(3) |
// fragment_length(3).
const HeaderSize = 12

// Header is one handshake fragment's framing.
type Header struct {
	Type            Type
	Length          uint32 // total length of the reassembled message
	MessageSequence uint16
	FragmentOffset  uint32
	FragmentLength  uint32
}

// Marshal encodes h into a freshly allocated HeaderSize-byte slice.
func (h *Header) Marshal() []byte {
	out := make([]byte, HeaderSize)
	out[0] = byte(h.Type)
	wirecodec.PutUint24(out[1:4], h.Length)
	wirecodec.PutUint16(out[4:6], h.MessageSequence)
	wirecodec.PutUint24(out[6:9], h.FragmentOffset)
	wirecodec.PutUint24(out[9:12], h.FragmentLength)

	return out
}

// Unmarshal decodes a fragment header from the front of buf.
func (h *Header) Unmarshal(buf []byte) error {
	if len(buf) < HeaderSize {
		return errHeaderTooShort
	}

	h.Type = Type(buf[0])
	h.Length = wirecodec.Uint24(buf[1:4])
	h.MessageSequence = wirecodec.Uint16(buf[4:6])
	h.FragmentOffset = wirecodec.Uint24(buf[6:9])
	h.FragmentLength = wirecodec.Uint24(buf[9:12])

	return nil
}

// IsFragment reports whether this header describes a fragment of a larger
// message rather than the whole message in one piece.
func (h *Header) IsFragment() bool {
	return !(h.FragmentOffset == 0 && h.FragmentLength == h.Length)
}
