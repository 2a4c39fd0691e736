// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package wirecodec

import "testing"

func TestUint16RoundTrip(t *testing.T) {
	buf := make([]byte, 2)
	PutUint16(buf, 0xBEEF)
	if got := Uint16(buf); got != 0xBEEF {
		t.Fatalf("got %#x, want 0xBEEF", got)
	}
}

func TestUint24RoundTrip(t *testing.T) {
	buf := make([]byte, 3)
	PutUint24(buf, 0x00BADE)
	if got := Uint24(buf); got != 0x00BADE {
		t.Fatalf("got %#x, want 0xBADE", got)
	}
}

func TestUint24TruncatesHighByte(t *testing.T) {
	buf := make([]byte, 3)
	PutUint24(buf, 0xFFFFFFFF)
	if got := Uint24(buf); got != 0x00FFFFFF {
		t.Fatalf("got %#x, want 0xFFFFFF", got)
	}
}

func TestUint48RoundTrip(t *testing.T) {
	buf := make([]byte, 6)
	PutUint48(buf, 0x0000FFFFFFFFFFFF)
	if got := Uint48(buf); got != 0x0000FFFFFFFFFFFF {
		t.Fatalf("got %#x, want max 48-bit value", got)
	}

	PutUint48(buf, 1_000_000_000)
	if got := Uint48(buf); got != 1_000_000_000 {
		t.Fatalf("got %d, want 1e9", got)
	}
}
