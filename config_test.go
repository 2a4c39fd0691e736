// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import "testing"

func TestConfigMTUDefault(t *testing.T) {
	var c Config
	if got := c.mtu(); got != defaultMTU {
		t.Fatalf("mtu() = %d, want default %d", got, defaultMTU)
	}

	c.MTU = 800
	if got := c.mtu(); got != 800 {
		t.Fatalf("mtu() = %d, want 800", got)
	}
}

func TestConfigLoggerFactoryDefault(t *testing.T) {
	var c Config
	if c.loggerFactory() == nil {
		t.Fatal("loggerFactory() returned nil with no Config.LoggerFactory set")
	}
}

func TestNewSessionAppliesConfig(t *testing.T) {
	s := NewSession(nil, &Config{
		MTU:                        900,
		InitialRetransmitTimeoutMS: 250,
		TotalTimeoutMS:             5000,
	})

	if s.MTU() != 900 {
		t.Fatalf("MTU() = %d, want 900", s.MTU())
	}

	if !s.DTLS.blocking {
		t.Fatal("blocking should be true when InitialRetransmitTimeoutMS != 0")
	}
}

func TestNewSessionNonBlockingByDefault(t *testing.T) {
	s := NewSession(nil, &Config{MTU: 900})

	if s.DTLS.blocking {
		t.Fatal("blocking should be false when InitialRetransmitTimeoutMS == 0")
	}
}

func TestNewSessionNilConfig(t *testing.T) {
	s := NewSession(nil, nil)

	if s.MTU() != defaultMTU {
		t.Fatalf("MTU() = %d, want default %d", s.MTU(), defaultMTU)
	}
}
