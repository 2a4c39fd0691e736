// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"os"

	"github.com/pion/logging"

	"github.com/pion-forks/dtlscore/internal/safelog"
)

// MaxDTLSTimeout is the ceiling the retransmission backoff timer never
// exceeds, regardless of how many times a flight has been retransmitted.
const MaxDTLSTimeout = 60_000 // milliseconds, RFC 6347 4.2.4.1's 60s maximum

// defaultMTU is a conservative default path MTU for a DTLS session.
const defaultMTU = 1200 // bytes

// defaultRetransmitTimeoutMS is RFC 6347 4.2.4.1's recommended initial
// retransmission timer value.
const defaultRetransmitTimeoutMS = 1000

// Config configures a Session's reliability and anti-replay behavior. The
// credential, cipher-suite and key-exchange configuration surface a full
// TLS library would also expose is out of scope for this core.
type Config struct {
	// MTU is the path MTU in bytes used to size outbound fragments.
	// Zero selects defaultMTU.
	MTU int

	// InitialRetransmitTimeoutMS is the base retransmission backoff timer.
	// Zero selects non-blocking operation: Transmit never waits and instead
	// returns ErrAgain whenever it would otherwise have to.
	InitialRetransmitTimeoutMS int64

	// TotalTimeoutMS is the overall handshake budget. Exceeding it fails
	// the handshake with a *TimeoutError. Zero disables the budget check.
	TotalTimeoutMS int64

	// DisableRetransmitBackoff skips doubling the retransmit timer on each
	// resend.
	DisableRetransmitBackoff bool

	// ReplayWindowSize is not read by this package: every epoch's replay
	// window has the fixed size recordlayer.WindowSize, whatever the value
	// here.
	ReplayWindowSize int

	// CookieKey is stored on the session. CookieSend and CookieVerify do not
	// read it; they take their HMAC key as an argument on every call.
	CookieKey []byte

	LoggerFactory logging.LoggerFactory

	// ScrubLogAddresses routes the default logger's output through
	// internal/safelog, which redacts IPv4/IPv6 addresses (with or without
	// a port) from every log line before writing it to os.Stderr. It has no
	// effect when LoggerFactory is set explicitly; callers supplying their
	// own factory are expected to scrub it themselves if they want this.
	ScrubLogAddresses bool

	// Metrics, if non-nil, receives counters for dropped records and
	// retransmits and observations of handshake duration from the session.
	// Cookie outcomes are not recorded by the session; a caller of
	// CookieVerify records them with Metrics.TrackCookieVerify. Nil
	// disables all metrics tracking.
	Metrics *Metrics
}

func (c *Config) mtu() int {
	if c.MTU <= 0 {
		return defaultMTU
	}

	return c.MTU
}

func (c *Config) loggerFactory() logging.LoggerFactory {
	if c.LoggerFactory != nil {
		return c.LoggerFactory
	}

	factory := logging.NewDefaultLoggerFactory()
	if c.ScrubLogAddresses {
		factory.Writer = &safelog.LogScrubber{Output: os.Stderr}
	}

	return factory
}
