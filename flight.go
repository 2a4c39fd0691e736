// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"github.com/pion-forks/dtlscore/pkg/protocol/handshake"
	"github.com/pion-forks/dtlscore/pkg/protocol/recordlayer"
)

// contentType distinguishes the two kinds of message a flight carries.
// Only these two appear on the wire before application data encryption
// exists, which this core never reaches.
type contentType byte

const (
	contentTypeHandshake        contentType = contentType(recordlayer.ContentTypeHandshake)
	contentTypeChangeCipherSpec contentType = contentType(recordlayer.ContentTypeChangeCipherSpec)
)

// FlightMessage is one handshake message (or a ChangeCipherSpec) buffered
// in an OutgoingFlight. A ChangeCipherSpec message's Payload is transmitted
// verbatim and never fragmented.
type FlightMessage struct {
	ContentType   contentType
	HandshakeType handshake.Type
	HandshakeSeq  uint16
	Epoch         uint16
	Payload       []byte
}

// OutgoingFlight is one buffered outbound flight: an ordered, front-to-back
// sequence of messages, each carrying a distinct handshake sequence number
// assigned in send order. IsLast marks a flight that ends in Finished: the
// transmitter returns immediately after sending it rather than awaiting a
// reply.
type OutgoingFlight struct {
	Messages []*FlightMessage
	IsLast   bool
}

// NewOutgoingFlight buffers msgs as a new flight, assigning each a
// handshake sequence number in order starting from s.HskWriteSeq and
// advancing the session's write counter past them.
func NewOutgoingFlight(s *Session, isLast bool, msgs ...*FlightMessage) *OutgoingFlight {
	for _, m := range msgs {
		m.HandshakeSeq = s.HskWriteSeq
		s.HskWriteSeq++
	}

	return &OutgoingFlight{Messages: msgs, IsLast: isLast}
}

// dtlsHandshakeHeaderSize is the 12-byte fragment header every non-CCS
// record in a flight carries in front of its payload slice.
const dtlsHandshakeHeaderSize = handshake.HeaderSize

// sendFlight writes every message of f to s.Transport, fragmenting
// handshake messages to the session's data MTU. It reuses a single scratch
// buffer across every fragment of every message in the flight.
func sendFlight(s *Session, f *OutgoingFlight) error {
	fragMTU := s.DataMTU() - dtlsHandshakeHeaderSize
	if fragMTU <= 0 {
		return errInvalidRequest
	}

	scratch := make([]byte, fragMTU+dtlsHandshakeHeaderSize)

	for _, m := range f.Messages {
		if m.ContentType == contentTypeChangeCipherSpec {
			if err := sendRecord(s, m.Epoch, recordlayer.ContentTypeChangeCipherSpec, m.Payload); err != nil {
				return err
			}

			continue
		}

		if err := sendFragmented(s, m, fragMTU, scratch); err != nil {
			return err
		}
	}

	return nil
}

// sendFragmented emits one record per fragment of m. The loop condition
// offset <= dataSize is load-bearing: when dataSize is an exact multiple
// of fragMTU it emits one extra zero-length trailing fragment, matching
// peer expectations this core must preserve for interoperability.
func sendFragmented(s *Session, m *FlightMessage, fragMTU int, scratch []byte) error {
	dataSize := len(m.Payload)

	for offset := 0; offset <= dataSize; offset += fragMTU {
		fragLen := fragMTU
		if offset+fragLen > dataSize {
			fragLen = dataSize - offset
		}

		hdr := handshake.Header{
			Type:            m.HandshakeType,
			Length:          uint32(dataSize),
			MessageSequence: m.HandshakeSeq,
			FragmentOffset:  uint32(offset),
			FragmentLength:  uint32(fragLen),
		}

		buf := scratch[:dtlsHandshakeHeaderSize+fragLen]
		copy(buf, hdr.Marshal())
		copy(buf[dtlsHandshakeHeaderSize:], m.Payload[offset:offset+fragLen])

		if err := sendRecord(s, m.Epoch, recordlayer.ContentTypeHandshake, buf); err != nil {
			return err
		}
	}

	return nil
}

// sendRecord wraps payload in a DTLS record header stamped with the next
// sequence number for epoch e and pushes it through the transport.
func sendRecord(s *Session, e uint16, ct recordlayer.ContentType, payload []byte) error {
	seq := s.nextRecordSeq(e)

	rh := recordlayer.Header{
		ContentType:    ct,
		Version:        recordlayer.Version1_2,
		Epoch:          e,
		SequenceNumber: seq,
		ContentLen:     uint16(len(payload)),
	}

	head, err := rh.Marshal()
	if err != nil {
		return &InternalError{Err: err}
	}

	out := make([]byte, 0, len(head)+len(payload))
	out = append(out, head...)
	out = append(out, payload...)

	return s.Transport.Push(out)
}

// peekRecordHeader decodes just enough of buf to know its epoch and
// sequence number, for the replay check the handshake parser runs before
// looking at the payload.
func peekRecordHeader(buf []byte) (epoch uint16, seq uint64, ok bool) {
	if len(buf) < recordlayer.HeaderSize {
		return 0, 0, false
	}

	var h recordlayer.Header
	if err := h.Unmarshal(buf); err != nil {
		return 0, 0, false
	}

	return h.Epoch, h.SequenceNumber, true
}
