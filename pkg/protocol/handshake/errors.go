// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"errors"

	"github.com/pion-forks/dtlscore/pkg/protocol"
)

var errHeaderTooShort = &protocol.TemporaryError{Err: errors.New("handshake fragment header shorter than 12 bytes")}
