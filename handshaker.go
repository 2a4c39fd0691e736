// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"github.com/pion-forks/dtlscore/internal/clock"
	"github.com/pion-forks/dtlscore/pkg/protocol/handshake"
	"github.com/pion-forks/dtlscore/pkg/protocol/recordlayer"
)

// SendFlight installs f as the session's current outbound flight, replacing
// whatever was buffered before. Transmit drives f to completion (or
// TimedOut/ErrAgain) across however many calls it takes.
func (s *Session) SendFlight(f *OutgoingFlight) {
	s.DTLS.flight = f
	s.DTLS.flightInit = false
	s.DTLS.lastFlight = f.IsLast
	s.DTLS.actualRetransTimeoutMS = s.DTLS.retransTimeoutMSBase
	if s.DTLS.handshakeStartTime == 0 {
		s.DTLS.handshakeStartTime = s.Clock.NowMS()
	}
}

// pullBufSize is the size of the scratch buffer Transmit polls the
// transport into. It mirrors the largest record this core ever needs to inspect the header of;
// full reassembly of the reply flight is the handshake layer's job.
const pullBufSize = 2048

// Transmit performs exactly one iteration of the flight transmitter's outer
// loop: [RFC6347 Section-4.2.4]'s PREPARING/SENDING/WAITING cycle collapsed
// into a single synchronous call, per this core's polling contract. It
// returns nil on a flight accepted as complete, ErrAgain in non-blocking
// mode when no progress is currently possible, or a *TimeoutError once the
// global handshake budget elapses.
//
//	PREPARING -> SENDING -> WAITING -> (retransmit to SENDING | done)
func (s *Session) Transmit() error {
	d := s.DTLS
	if d.flight == nil {
		return errInvalidFlight
	}

	buf := make([]byte, pullBufSize)

	if d.flightInit && !d.blocking {
		if done, err := s.checkAlreadySentFlight(buf); done {
			return err
		}
	}

	for {
		now := s.Clock.NowMS()

		if d.totalTimeoutMS != 0 && clock.DeltaMS(now, d.handshakeStartTime) >= d.totalTimeoutMS {
			s.Logger.Warnf("handshake exceeded total timeout of %dms", d.totalTimeoutMS)
			s.endFlight()
			s.reportHandshakeDuration()

			return timedOut(d.totalTimeoutMS)
		}

		if !d.flightInit || clock.DeltaMS(now, d.lastRetransmit) >= d.actualRetransTimeoutMS {
			if err := sendFlight(s, d.flight); err != nil {
				return err
			}

			now = s.Clock.NowMS()
			d.lastRetransmit = now

			if !d.flightInit {
				d.flightInit = true
				d.actualRetransTimeoutMS = d.retransTimeoutMSBase
				d.lastFlight = d.flight.IsLast
				s.Logger.Tracef("flight sent (%d messages, last=%t)", len(d.flight.Messages), d.lastFlight)
			} else {
				s.Logger.Debugf("flight retransmitted, backing off %dms -> %dms",
					d.actualRetransTimeoutMS, backoff(d.actualRetransTimeoutMS, d.disableRetransmitBackoff))
				d.actualRetransTimeoutMS = backoff(d.actualRetransTimeoutMS, d.disableRetransmitBackoff)
				if s.Metrics != nil {
					s.Metrics.TrackRetransmit()
				}
			}
		}

		if d.lastFlight {
			s.endFlight()
			s.reportHandshakeDuration()

			return nil
		}

		waitMS := d.actualRetransTimeoutMS
		if !d.blocking {
			waitMS = 0
		}

		n, err := s.Transport.Pull(buf, waitMS)
		if err != nil {
			if !d.blocking {
				return ErrAgain
			}
			// blocking timeout: loop back and retransmit.
			continue
		}

		switch classifyReply(s, buf[:n], s.HskReadSeq) {
		case replyNextFlight:
			s.endFlight()
			s.reportHandshakeDuration()

			return nil
		case replyRetransmit:
			continue // loop back to step (a); retransmit our flight
		default:
			continue // unrelated datagram, keep waiting
		}
	}
}

// checkAlreadySentFlight handles the case where a flight has already been
// sent at least once and the session is non-blocking: it polls once with
// a zero timeout before entering the send/wait loop, so a reply
// that is already sitting in the socket buffer is consumed without an
// extra retransmit. done reports whether Transmit should return err
// immediately instead of entering the main loop.
func (s *Session) checkAlreadySentFlight(buf []byte) (done bool, err error) {
	d := s.DTLS
	if d.lastFlight {
		return false, nil
	}

	n, pullErr := s.Transport.Pull(buf, 0)
	if pullErr != nil {
		now := s.Clock.NowMS()
		if clock.DeltaMS(now, d.lastRetransmit) < d.actualRetransTimeoutMS {
			return true, ErrAgain
		}

		return false, nil
	}

	if classifyReply(s, buf[:n], s.HskReadSeq) == replyNextFlight {
		s.endFlight()
		s.reportHandshakeDuration()

		return true, nil
	}

	return false, nil // retransmit, or unrelated: fall through to the main loop
}

// reportHandshakeDuration observes the elapsed time since the first flight
// was buffered, if metrics are configured. Transmit calls it whenever a
// flight ends (peer reply received, terminal flight sent, or TimedOut), so
// a handshake of several flights records one observation per flight.
func (s *Session) reportHandshakeDuration() {
	if s.Metrics == nil || s.DTLS.handshakeStartTime == 0 {
		return
	}

	elapsedMS := clock.DeltaMS(s.Clock.NowMS(), s.DTLS.handshakeStartTime)
	s.Metrics.TrackHandshakeDuration(float64(elapsedMS) / 1000)
}

// endFlight releases the buffered flight. Outgoing flight messages are
// refcounted against their epoch in a richer implementation; this core has
// no cipher-suite epoch lifecycle of its own, so clearing the pointer is
// the entire resource-release step.
func (s *Session) endFlight() {
	s.DTLS.flight = nil
	s.DTLS.flightInit = false
}

// backoff doubles timeoutMS unless disabled, then reduces it modulo
// MaxDTLSTimeout so the timer wraps rather than pinning at the ceiling.
func backoff(timeoutMS int64, disabled bool) int64 {
	if disabled {
		return timeoutMS
	}

	return (timeoutMS * 2) % MaxDTLSTimeout
}

// WaitAndRetransmit is used exclusively for the terminal flight: it
// waits (or polls) for the current retransmit timeout and, on
// expiry, resends the last flight once and reports ErrAgain. It is the
// caller's responsibility to invoke this repeatedly until the peer's
// Finished is observed through whatever means the handshake layer uses
// outside this core.
func (s *Session) WaitAndRetransmit(lastFlight *OutgoingFlight) error {
	d := s.DTLS

	buf := make([]byte, pullBufSize)
	waitMS := d.actualRetransTimeoutMS
	if !d.blocking {
		waitMS = 0
	}

	_, err := s.Transport.Pull(buf, waitMS)
	if err == nil {
		d.actualRetransTimeoutMS = d.retransTimeoutMSBase

		return nil
	}

	if err := sendFlight(s, lastFlight); err != nil {
		return err
	}
	s.Logger.Debugf("terminal flight retransmitted while awaiting peer Finished")
	d.lastRetransmit = s.Clock.NowMS()
	d.actualRetransTimeoutMS = backoff(d.actualRetransTimeoutMS, d.disableRetransmitBackoff)

	return ErrAgain
}

type replyClass int

const (
	replyUnrelated replyClass = iota
	replyNextFlight
	replyRetransmit
)

// classifyReply runs the anti-replay window over buf's record header and,
// only for records the window accepts, peeks the handshake fragment header
// to decide whether it is the peer's next flight, a retransmit of the
// peer's previous flight (meaning our own last flight was lost and should
// be resent), or something this transmitter has no opinion about. A record
// the window rejects is unrelated by construction: it is dropped before
// the handshake parser ever sees it, per the replay filter's propagation
// policy. Content types other than Handshake and ChangeCipherSpec are
// likewise treated as unrelated: this core does not interpret application
// data.
func classifyReply(s *Session, buf []byte, expectedSeq uint16) replyClass {
	epoch, seq, ok := peekRecordHeader(buf)
	if !ok {
		return replyUnrelated
	}

	if !s.CheckAndRecordRecord(epoch, seq) {
		return replyUnrelated
	}

	switch recordlayer.ContentType(buf[0]) {
	case recordlayer.ContentTypeHandshake, recordlayer.ContentTypeChangeCipherSpec:
	default:
		return replyUnrelated
	}

	body := buf[recordlayer.HeaderSize:]
	if len(body) < handshake.HeaderSize {
		return replyUnrelated
	}

	var hdr handshake.Header
	if err := hdr.Unmarshal(body); err != nil {
		return replyUnrelated
	}

	switch {
	case hdr.MessageSequence >= expectedSeq:
		return replyNextFlight
	case hdr.MessageSequence == expectedSeq-1:
		return replyRetransmit
	default:
		return replyUnrelated
	}
}
