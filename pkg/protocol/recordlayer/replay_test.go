// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package recordlayer

import (
	"math/rand"
	"testing"
)

func TestReplayWindowFreshness(t *testing.T) {
	// Sequence 0 is recorded first so that index 0 holds the minimum: a
	// sequence at or below index 0 is "too old" even on its first sighting.
	// Together with 0, the permuted sequences 1..WindowSize-2 leave the
	// window one slot short of full, so no batch shift sheds any of them.
	w := NewReplayWindow()
	if err := w.checkAndRecord(0); err != nil {
		t.Fatalf("cold-start sequence 0 rejected: %v", err)
	}

	perm := rand.New(rand.NewSource(1)).Perm(WindowSize - 2)
	seqs := make([]uint64, len(perm))
	for i, p := range perm {
		seqs[i] = uint64(p) + 1
	}

	for _, seq := range seqs {
		if err := w.checkAndRecord(seq); err != nil {
			t.Fatalf("first sighting of %d rejected: %v", seq, err)
		}
	}

	for _, seq := range seqs {
		if err := w.checkAndRecord(seq); err == nil {
			t.Fatalf("duplicate of %d accepted", seq)
		}
	}
}

func TestReplayWindowMonotoneDiscard(t *testing.T) {
	w := NewReplayWindow()

	if err := w.checkAndRecord(100); err != nil {
		t.Fatalf("accept of 100 failed: %v", err)
	}

	min, ok := w.Min()
	if !ok || min != 100 {
		t.Fatalf("min = %d, %v; want 100, true", min, ok)
	}

	if err := w.checkAndRecord(100); err == nil {
		t.Fatal("expected re-arrival of the minimum to be rejected")
	}

	if err := w.checkAndRecord(50); err == nil {
		t.Fatal("expected arrival older than the minimum to be rejected")
	}
}

func TestReplayWindowCapacityShedsOldest(t *testing.T) {
	w := NewReplayWindow()

	for i := uint64(1); i <= WindowSize; i++ {
		if err := w.checkAndRecord(i); err != nil {
			t.Fatalf("accept of %d failed: %v", i, err)
		}
	}

	if w.size != WindowSize {
		t.Fatalf("size = %d, want %d", w.size, WindowSize)
	}

	// One more small, in-order sequence forces the full-window rotate path.
	if err := w.checkAndRecord(WindowSize + 1); err != nil {
		t.Fatalf("accept of %d failed: %v", WindowSize+1, err)
	}

	if w.size != WindowSize-moveSize+1 {
		t.Fatalf("size after rotate = %d, want %d", w.size, WindowSize-moveSize+1)
	}

	// The shed sequences (1..moveSize) must now be rejected as too old.
	for i := uint64(1); i <= moveSize; i++ {
		if err := w.checkAndRecord(i); err == nil {
			t.Fatalf("shed sequence %d unexpectedly accepted", i)
		}
	}
}

func TestReplayWindowLargeJump(t *testing.T) {
	// Feeding s = 10^9 to an empty window, then s-1, yields
	// accept then reject: the single entry left by the cold start is both
	// the window's minimum and its maximum, so anything at or below it is
	// "too old" regardless of how small the gap is.
	w := NewReplayWindow()

	const big = 1_000_000_000

	if err := w.checkAndRecord(big); err != nil {
		t.Fatalf("accept of %d failed: %v", big, err)
	}

	if err := w.checkAndRecord(big - 1); err == nil {
		t.Fatal("expected big-1 to be rejected as too old relative to the sole retained entry")
	}
}

func TestReplayWindowLargeJumpResetsWindow(t *testing.T) {
	// A large jump relative to an established (non-singleton) window places
	// the new sequence in the last slot and marks the window full, so every
	// earlier sequence falls outside the window's span.
	w := NewReplayWindow()

	for _, seq := range []uint64{1, 2, 3} {
		if err := w.checkAndRecord(seq); err != nil {
			t.Fatalf("accept of %d failed: %v", seq, err)
		}
	}

	const big = 1_000_000_000

	if err := w.checkAndRecord(big); err != nil {
		t.Fatalf("accept of %d failed: %v", big, err)
	}

	if w.size != WindowSize || w.sw[WindowSize-1] != big {
		t.Fatalf("size = %d, top = %d; want %d, %d", w.size, w.sw[WindowSize-1], WindowSize, big)
	}

	// The sequences the large jump discarded must now read as too old.
	if err := w.checkAndRecord(2); err == nil {
		t.Fatal("expected sequence discarded by the large jump to be rejected")
	}
}

func TestReplayWindowSmallJumpWithinCapacity(t *testing.T) {
	w := NewReplayWindow()

	if err := w.checkAndRecord(5); err != nil {
		t.Fatalf("accept of 5 failed: %v", err)
	}

	// Jump forward but still small enough to fit without a large-jump reset.
	if err := w.checkAndRecord(10); err != nil {
		t.Fatalf("accept of 10 failed: %v", err)
	}

	// A sequence between the two, not seen before, must still be accepted.
	if err := w.checkAndRecord(7); err != nil {
		t.Fatalf("accept of in-window 7 failed: %v", err)
	}

	if err := w.checkAndRecord(7); err == nil {
		t.Fatal("duplicate of 7 unexpectedly accepted")
	}
}

func TestReplayWindowColdStart(t *testing.T) {
	w := NewReplayWindow()

	if _, ok := w.Min(); ok {
		t.Fatal("empty window reports a minimum")
	}

	if err := w.checkAndRecord(0); err != nil {
		t.Fatalf("accept of sequence 0 on cold start failed: %v", err)
	}
}

func TestEncodeDecodeSequenceRoundTrip(t *testing.T) {
	const seq = 0x0000_BEEF_F00D

	buf := EncodeSequence(seq)
	if len(buf) != 8 {
		t.Fatalf("EncodeSequence len = %d, want 8", len(buf))
	}

	if got := DecodeSequence(buf); got != seq {
		t.Fatalf("DecodeSequence = %#x, want %#x", got, seq)
	}
}

func TestCheckAndRecordMasksTo48Bits(t *testing.T) {
	w := NewReplayWindow()

	// The top 16 bits of the 8-byte field are content-type/epoch framing in
	// the caller's wire layout, not part of the 48-bit sequence number.
	seqBytes := uint64(0xFFFF)<<48 | uint64(42)

	if err := w.CheckAndRecord(seqBytes); err != nil {
		t.Fatalf("CheckAndRecord rejected masked sequence: %v", err)
	}

	min, ok := w.Min()
	if !ok || min != 42 {
		t.Fatalf("min = %d, %v; want 42, true", min, ok)
	}
}
