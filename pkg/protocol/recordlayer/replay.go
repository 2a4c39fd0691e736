// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package recordlayer

import "github.com/pion-forks/dtlscore/pkg/protocol/wirecodec"

// WindowSize is the number of distinct recent record sequence numbers a
// single epoch's replay window can retain before the oldest are shed.
const WindowSize = 64

// moveSize is the batch shift applied when a full window needs to advance,
// amortising the memmove cost of making room for new sequence numbers.
const moveSize = 20

// ReplayWindow is a per-epoch sliding window over 48-bit DTLS record
// sequence numbers. It rejects sequence numbers already seen or numbers
// older than everything currently retained. The window is a staggered
// array of sequence values rather than a bitmap: inserting an out-of-order
// sequence within the window is an O(1) membership check, and advancing
// the window is an amortised O(WindowSize/moveSize) shift. It is not safe
// for concurrent use; a session processes its own epoch's records in a
// single stream.
type ReplayWindow struct {
	sw   [WindowSize]uint64
	size int
}

// NewReplayWindow returns an empty replay window.
func NewReplayWindow() *ReplayWindow {
	return &ReplayWindow{}
}

// CheckAndRecord parses the low 48 bits of seqBytes as a DTLS record
// sequence number and reports whether it is fresh. On success the window
// is mutated to record the sequence so a later duplicate is rejected.
func (w *ReplayWindow) CheckAndRecord(seqBytes uint64) error {
	seq := seqBytes & 0x0000FFFFFFFFFFFF

	return w.checkAndRecord(seq)
}

func (w *ReplayWindow) checkAndRecord(seq uint64) error {
	switch {
	case w.size == 0:
		w.sw[0] = seq
		w.size = 1

		return nil

	case seq <= w.sw[0]:
		return errReplay
	}

	if w.size == WindowSize {
		w.rotate(moveSize)
	}

	max := w.sw[w.size-1]

	switch {
	case seq < max:
		diff := max - seq
		if diff >= uint64(w.size) {
			return errReplay
		}

		offset := w.size - 1 - int(diff)
		if w.sw[offset] == seq {
			return errReplay
		}
		w.sw[offset] = seq

		return nil

	case seq == max:
		return errReplay
	}

	diff := seq - max

	switch {
	case diff <= uint64(WindowSize-w.size):
		offset := int(diff) + w.size - 1
		w.sw[offset] = seq
		w.size = offset + 1

		return nil

	case diff > WindowSize/2:
		w.sw[WindowSize-1] = seq
		w.size = WindowSize

		return nil

	default:
		w.rotate(int(diff))
		offset := int(diff) + w.size - 1
		w.sw[offset] = seq
		w.size = offset + 1

		return nil
	}
}

// rotate shifts the window left by n positions, discarding the n oldest
// entries and reducing size accordingly. n is always <= size on entry from
// checkAndRecord's call sites.
func (w *ReplayWindow) rotate(n int) {
	if n > w.size {
		n = w.size
	}
	copy(w.sw[:], w.sw[n:w.size])
	w.size -= n
}

// Min returns the smallest retained sequence number and whether the window
// holds anything at all.
func (w *ReplayWindow) Min() (uint64, bool) {
	if w.size == 0 {
		return 0, false
	}

	return w.sw[0], true
}

// EncodeSequence packs the low 48 bits of seq into the last six bytes of an
// 8-byte field, the layout DTLS record sequence numbers are transmitted in.
// The first two bytes are left zero.
func EncodeSequence(seq uint64) []byte {
	buf := make([]byte, 8)
	wirecodec.PutUint48(buf[2:], seq&0x0000FFFFFFFFFFFF)

	return buf
}

// DecodeSequence is the inverse of EncodeSequence.
func DecodeSequence(buf []byte) uint64 {
	return wirecodec.Uint48(buf[2:8])
}
