// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

// PrestateInstall transplants a cookie-derived Prestate into a freshly
// constructed session so the first post-cookie flight is numbered
// correctly: the next outbound handshake message will use
// prestate.HskWriteSeq + 1, and the next outbound epoch-0 record will use
// prestate.RecordSeq + 1 (the 8-byte sequence counter, incremented once).
// It is meant to be called exactly once, immediately after NewSession, and
// before any flight is buffered.
func PrestateInstall(s *Session, prestate Prestate) {
	s.HskReadSeq = uint16(prestate.HskReadSeq)
	s.HskWriteSeq = uint16(prestate.HskWriteSeq) + 1

	er := s.epoch(0)
	er.nextSeq = uint64(prestate.RecordSeq) + 1
}
