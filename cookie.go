// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // truncated MAC, not used for confidentiality
	"crypto/subtle"

	"github.com/pion-forks/dtlscore/pkg/protocol/handshake"
	"github.com/pion-forks/dtlscore/pkg/protocol/recordlayer"
)

// CookieSize is both the HMAC output truncation length and the on-the-wire
// cookie length carried by a HelloVerifyRequest.
const CookieSize = 16

// Prestate is the cookie-derived hand-off record: the tuple that bridges a
// successful cookie_verify to the session the handshake layer allocates
// once it decides the client is worth spending state on. It is produced
// once, by CookieVerify, and consumed once, by PrestateInstall.
type Prestate struct {
	RecordSeq   byte
	HskReadSeq  byte
	HskWriteSeq byte
}

// cookieMAC computes HMAC-SHA1(key, clientIdentity) truncated to
// CookieSize bytes. clientIdentity is whatever datum the caller has chosen
// to bind the cookie to: a return address, a connection ID, or similar.
func cookieMAC(key, clientIdentity []byte) []byte {
	mac := hmac.New(sha1.New, key)
	mac.Write(clientIdentity)

	return mac.Sum(nil)[:CookieSize]
}

// CookieSend builds a HelloVerifyRequest datagram binding clientIdentity to
// key and writes it through push. The record sequence number is stamped
// from prestate.RecordSeq and the handshake message sequence from
// prestate.HskWriteSeq, so a server answering a retransmitted initial
// ClientHello emits byte-identical cookie packets each time.
func CookieSend(key, clientIdentity []byte, prestate Prestate, push func([]byte) error) (int, error) {
	if len(key) == 0 {
		return 0, errZeroLengthCookieKey
	}

	mac := cookieMAC(key, clientIdentity)

	// HelloVerifyRequest payload: version(2) | cookie_len(1) | cookie(16).
	payload := make([]byte, 3+CookieSize)
	payload[0] = recordlayer.Version1_2.Major
	payload[1] = recordlayer.Version1_2.Minor
	payload[2] = CookieSize
	copy(payload[3:], mac)

	hh := handshake.Header{
		Type:            handshake.TypeHelloVerifyRequest,
		Length:          uint32(len(payload)),
		MessageSequence: uint16(prestate.HskWriteSeq),
		FragmentOffset:  0,
		FragmentLength:  uint32(len(payload)),
	}

	body := append(hh.Marshal(), payload...)

	rh := recordlayer.Header{
		ContentType:    recordlayer.ContentTypeHandshake,
		Version:        recordlayer.Version1_2,
		Epoch:          0,
		SequenceNumber: uint64(prestate.RecordSeq),
		ContentLen:     uint16(len(body)),
	}

	head, err := rh.Marshal()
	if err != nil {
		return 0, &InternalError{Err: err}
	}

	datagram := append(head, body...)
	if err := push(datagram); err != nil {
		return 0, &TemporaryError{Err: err}
	}

	return len(datagram), nil
}

// Fixed ClientHello layout offsets CookieVerify parses past to reach the
// cookie field: version(2) | random(32) | session_id_len(1) + session_id |
// cookie_len(1) + cookie.
const (
	clientHelloVersionLen  = 2
	clientHelloRandomLen   = 32
	clientHelloMinFixedLen = clientHelloVersionLen + clientHelloRandomLen + 1 // + session_id_len byte
)

// CookieVerify parses incomingMsg as a full DTLS datagram (record header,
// handshake fragment header, ClientHello body) carrying the client's
// second ClientHello, recomputes the expected MAC over clientIdentity, and
// compares it against the embedded cookie in constant time. On success it
// returns a fresh Prestate carrying the client's observed record sequence
// (the incoming record's sequence number) and handshake read sequence (the
// incoming handshake fragment's message sequence), with HskWriteSeq always
// 0: the server has not sent anything under this identity yet.
func CookieVerify(key, clientIdentity, incomingMsg []byte) (Prestate, error) {
	if len(key) == 0 {
		return Prestate{}, errZeroLengthCookieKey
	}

	if len(incomingMsg) < recordlayer.HeaderSize+handshake.HeaderSize {
		return Prestate{}, errUnexpectedPacketLength
	}

	var rh recordlayer.Header
	if err := rh.Unmarshal(incomingMsg); err != nil {
		return Prestate{}, errUnexpectedPacketLength
	}

	body := incomingMsg[recordlayer.HeaderSize:]

	var hh handshake.Header
	if err := hh.Unmarshal(body); err != nil {
		return Prestate{}, errUnexpectedPacketLength
	}

	clientHello := body[handshake.HeaderSize:]
	if len(clientHello) < clientHelloMinFixedLen {
		return Prestate{}, errUnexpectedPacketLength
	}

	off := clientHelloVersionLen + clientHelloRandomLen
	sessionIDLen := int(clientHello[off])
	off++

	if len(clientHello) < off+sessionIDLen+1 {
		return Prestate{}, errUnexpectedPacketLength
	}
	off += sessionIDLen

	cookieLen := int(clientHello[off])
	off++

	if cookieLen != CookieSize || len(clientHello) < off+cookieLen {
		return Prestate{}, errBadCookie
	}

	got := clientHello[off : off+cookieLen]
	want := cookieMAC(key, clientIdentity)

	if subtle.ConstantTimeCompare(got, want) != 1 {
		return Prestate{}, errBadCookie
	}

	return Prestate{
		RecordSeq:   byte(rh.SequenceNumber),
		HskReadSeq:  byte(hh.MessageSequence),
		HskWriteSeq: 0,
	}, nil
}
