// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"github.com/pion/logging"

	"github.com/pion-forks/dtlscore/internal/clock"
	"github.com/pion-forks/dtlscore/pkg/protocol/recordlayer"
)

// Transport is the external collaborator the flight transmitter reads and
// writes datagrams through. Its specifics (UDP, ICE, a test pipe) are
// explicitly out of scope for this core.
type Transport interface {
	// Push writes one complete datagram. It must not block past the
	// transport's own send buffering.
	Push(b []byte) error

	// Pull reads the next available datagram into b, returning the number
	// of bytes read. timeoutMS == 0 means poll without blocking; a
	// negative timeoutMS is a programming error. Pull returns ErrAgain
	// (wrapped or directly) when no datagram arrived within timeoutMS.
	Pull(b []byte, timeoutMS int64) (int, error)
}

// epochReplay is the per-epoch replay window plus the record sequence
// counter the flight transmitter advances when it sends.
type epochReplay struct {
	window  *recordlayer.ReplayWindow
	nextSeq uint64
}

// Session is everything the flight transmitter, cookie engine and replay
// window need from the surrounding handshake layer. The cryptographic
// handshake state (cipher suite, master secret, peer certificate, ...) lives
// outside this core and is deliberately absent here.
type Session struct {
	Epoch uint16

	// HskReadSeq is the next handshake message sequence expected from the
	// peer; HskWriteSeq is the next sequence this side will assign.
	HskReadSeq  uint16
	HskWriteSeq uint16

	Transport Transport
	Logger    logging.LeveledLogger
	Clock     clock.Clock

	DTLS *DtlsState

	// Metrics, if non-nil, receives dropped-record, retransmit and
	// handshake-duration observations from this session.
	Metrics *Metrics

	epochs map[uint16]*epochReplay
}

// NewSession constructs a Session ready to drive flight transmission. cfg
// may be nil, selecting every default.
func NewSession(transport Transport, cfg *Config) *Session {
	if cfg == nil {
		cfg = &Config{}
	}

	factory := cfg.loggerFactory()

	return &Session{
		Transport: transport,
		Logger:    factory.NewLogger("dtls"),
		Clock:     clock.New(),
		DTLS:      newDtlsState(cfg),
		Metrics:   cfg.Metrics,
		epochs:    map[uint16]*epochReplay{0: newEpochReplay()},
	}
}

func newEpochReplay() *epochReplay {
	return &epochReplay{window: recordlayer.NewReplayWindow()}
}

// epoch returns (creating if necessary) the replay state for e.
func (s *Session) epoch(e uint16) *epochReplay {
	er, ok := s.epochs[e]
	if !ok {
		er = newEpochReplay()
		s.epochs[e] = er
	}

	return er
}

// nextRecordSeq returns the sequence number to stamp on the next record
// sent at epoch e, and advances the counter.
func (s *Session) nextRecordSeq(e uint16) uint64 {
	er := s.epoch(e)
	seq := er.nextSeq
	er.nextSeq++

	return seq
}

// CheckAndRecordRecord runs the anti-replay window for epoch e over a
// received record's sequence number, as read from its 8-byte wire field. A
// Replay result is never surfaced past this call: callers increment
// packets_dropped and drop the record.
func (s *Session) CheckAndRecordRecord(e uint16, seqBytes uint64) bool {
	if err := s.epoch(e).window.CheckAndRecord(seqBytes); err != nil {
		s.DTLS.packetsDropped++
		s.Logger.Warnf("dropped replayed record (epoch %d, seq %d)", e, seqBytes&0x0000FFFFFFFFFFFF)
		if s.Metrics != nil {
			s.Metrics.TrackDropped()
		}

		return false
	}

	return true
}

// DtlsState holds the flight transmitter's reliability bookkeeping (timers,
// flight state, the buffered flight) together with the configured MTU, the
// replay-drop counter that CheckAndRecordRecord advances, and the
// configured cookie key.
type DtlsState struct {
	mtu int

	retransTimeoutMSBase   int64
	totalTimeoutMS         int64
	actualRetransTimeoutMS int64

	handshakeStartTime int64
	lastRetransmit     int64

	flightInit bool
	lastFlight bool
	blocking   bool

	packetsDropped uint64

	disableRetransmitBackoff bool

	cookieKey []byte

	flight *OutgoingFlight
}

func newDtlsState(cfg *Config) *DtlsState {
	return &DtlsState{
		mtu:                      cfg.mtu(),
		retransTimeoutMSBase:     cfg.InitialRetransmitTimeoutMS,
		totalTimeoutMS:           cfg.TotalTimeoutMS,
		blocking:                 cfg.InitialRetransmitTimeoutMS != 0,
		disableRetransmitBackoff: cfg.DisableRetransmitBackoff,
		cookieKey:                cfg.CookieKey,
	}
}

// SetTimeouts configures the per-flight retransmission base and the global
// handshake budget. retransMS == 0 selects non-blocking operation.
func (s *Session) SetTimeouts(retransMS, totalMS int64) {
	s.DTLS.retransTimeoutMSBase = retransMS
	s.DTLS.totalTimeoutMS = totalMS
	s.DTLS.blocking = retransMS != 0
}

// SetMTU sets the configured path MTU in bytes.
func (s *Session) SetMTU(mtu int) {
	s.DTLS.mtu = mtu
}

// MTU returns the configured path MTU in bytes.
func (s *Session) MTU() int {
	return s.DTLS.mtu
}

// DataMTU returns the effective application-data MTU after subtracting
// record-layer overhead. This core has no cipher layer of its own, so the
// overhead is always the plain record header length; a richer
// implementation would ask the active cipher suite instead.
func (s *Session) DataMTU() int {
	dataMTU := s.DTLS.mtu - recordlayer.HeaderSize
	if dataMTU < 0 {
		return 0
	}

	return dataMTU
}

// NextTimeout returns milliseconds until the next retransmit is due, or 0
// if one is already due.
func (s *Session) NextTimeout() int64 {
	if !s.DTLS.flightInit {
		return 0
	}

	elapsed := clock.DeltaMS(s.Clock.NowMS(), s.DTLS.lastRetransmit)
	remaining := s.DTLS.actualRetransTimeoutMS - elapsed
	if remaining < 0 {
		return 0
	}

	return remaining
}

// Discarded returns the number of records the replay window has rejected
// across every epoch of this session.
func (s *Session) Discarded() uint64 {
	return s.DTLS.packetsDropped
}
