// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"errors"
	"fmt"

	"github.com/pion-forks/dtlscore/pkg/protocol"
)

// FatalError indicates that the session is no longer usable.
type FatalError = protocol.FatalError

// InternalError indicates a bug in the implementation or a caller that
// violated an API precondition.
type InternalError = protocol.InternalError

// TemporaryError indicates the session is still usable but this call failed.
type TemporaryError = protocol.TemporaryError

// TimeoutError indicates the global handshake budget elapsed.
type TimeoutError = protocol.TimeoutError

// Typed errors.
var (
	// ErrAgain is returned by Transmit in non-blocking mode whenever the
	// call would otherwise have to wait, and by WaitAndRetransmit (in either
	// mode) after it has resent the terminal flight on timer expiry. It is
	// always retryable: the caller should poll again once more data may be
	// available or the retransmit timer has elapsed.
	ErrAgain = errors.New("dtls: operation would block, try again")

	errInvalidRequest         = &InternalError{Err: errors.New("invalid request: precondition violated")}
	errZeroLengthCookieKey    = &InternalError{Err: errors.New("cookie key must be non-empty")}
	errUnexpectedPacketLength = &TemporaryError{Err: errors.New("malformed cookie packet framing")}
	errBadCookie              = &TemporaryError{Err: errors.New("cookie MAC mismatch or wrong length")}
	errInvalidFlight          = &InternalError{Err: errors.New("invalid flight: no messages to send")}
	errFragmentBufferOverflow = &InternalError{Err: errors.New("fragment buffer overflow")}
)

// timedOut wraps the global handshake budget's expiry as a *TimeoutError.
func timedOut(totalMS int64) error {
	return &TimeoutError{Err: fmt.Errorf("handshake did not complete within %dms", totalMS)}
}
