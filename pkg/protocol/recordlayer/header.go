// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package recordlayer

import "github.com/pion-forks/dtlscore/pkg/protocol/wirecodec"

// ContentType identifies the kind of data carried by a DTLS record.
type ContentType byte

// ContentType values relevant to the handshake/flight core. Application
// data encryption is out of scope for this package.
const (
	ContentTypeChangeCipherSpec ContentType = 20
	ContentTypeAlert            ContentType = 21
	ContentTypeHandshake        ContentType = 22
)

// ProtocolVersion is the two-byte DTLS version field.
type ProtocolVersion struct {
	Major, Minor uint8
}

// Version1_2 is the wire version used by every record this package emits:
// {254, 255}.
var Version1_2 = ProtocolVersion{Major: 254, Minor: 255}

// HeaderSize is the length in bytes of the fixed DTLS record header.
const HeaderSize = 13

// Header is the 13-byte DTLS record header:
// type(1) | version(2) | epoch(2) | sequence(6) | length(2).
type Header struct {
	ContentType    ContentType
	Version        ProtocolVersion
	Epoch          uint16
	SequenceNumber uint64 // low 48 bits significant
	ContentLen     uint16
}

// Marshal encodes h into a freshly allocated HeaderSize-byte slice.
func (h *Header) Marshal() ([]byte, error) {
	if h.SequenceNumber >= (1 << 48) {
		return nil, errSequenceNumberOverflow
	}

	out := make([]byte, HeaderSize)
	out[0] = byte(h.ContentType)
	out[1] = h.Version.Major
	out[2] = h.Version.Minor
	wirecodec.PutUint16(out[3:5], h.Epoch)
	wirecodec.PutUint48(out[5:11], h.SequenceNumber)
	wirecodec.PutUint16(out[11:13], h.ContentLen)

	return out, nil
}

// Unmarshal decodes a record header from the front of buf.
func (h *Header) Unmarshal(buf []byte) error {
	if len(buf) < HeaderSize {
		return ErrInvalidPacketLength
	}

	h.ContentType = ContentType(buf[0])
	h.Version = ProtocolVersion{Major: buf[1], Minor: buf[2]}
	h.Epoch = wirecodec.Uint16(buf[3:5])
	h.SequenceNumber = wirecodec.Uint48(buf[5:11])
	h.ContentLen = wirecodec.Uint16(buf[11:13])

	return nil
}
