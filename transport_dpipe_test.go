// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/pion/transport/v3/dpipe"
	"github.com/pion/transport/v3/test"

	"github.com/pion-forks/dtlscore/pkg/protocol/handshake"
)

// netConnTransport adapts a net.Conn (here, one end of a dpipe.Pipe) to the
// Transport interface, the way a caller would wire a real UDP socket or an
// ICE candidate pair. Pull's deadline-based polling mirrors how a blocking
// PacketConn read is expected to behave.
type netConnTransport struct {
	conn net.Conn
}

func (t *netConnTransport) Push(b []byte) error {
	_, err := t.conn.Write(b)

	return err
}

func (t *netConnTransport) Pull(b []byte, timeoutMS int64) (int, error) {
	wait := time.Millisecond
	if timeoutMS > 0 {
		wait = time.Duration(timeoutMS) * time.Millisecond
	}

	if err := t.conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
		return 0, err
	}

	n, err := t.conn.Read(b)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return 0, ErrAgain
		}

		return 0, err
	}

	return n, nil
}

// TestSessionsOverDpipeExchangeFlights wires two Sessions over a
// dpipe.Pipe, the in-memory full-duplex connection pion/transport's own
// conn_test.go uses for every handshake test, and drives one real flight
// exchange end to end: the client's flight reaches the server, the
// server's reply flight ends the client's Transmit call. CheckRoutines
// guards against the goroutine leaks conn_test.go screens for; this core
// spawns none, so the report should always be empty.
func TestSessionsOverDpipeExchangeFlights(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	report := test.CheckRoutines(t)
	defer report()

	clientConn, serverConn := dpipe.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	client := NewSession(&netConnTransport{conn: clientConn}, &Config{
		MTU:                        1200,
		InitialRetransmitTimeoutMS: 100,
		TotalTimeoutMS:             5000,
	})
	server := NewSession(&netConnTransport{conn: serverConn}, &Config{
		MTU:                        1200,
		InitialRetransmitTimeoutMS: 100,
		TotalTimeoutMS:             5000,
	})

	serverFlight := NewOutgoingFlight(server, false,
		&FlightMessage{ContentType: contentTypeHandshake, HandshakeType: handshake.TypeServerHello, Epoch: 0, Payload: []byte("server-hello")},
	)
	server.SendFlight(serverFlight)

	done := make(chan error, 1)
	go func() {
		done <- server.Transmit()
	}()

	clientFlight := NewOutgoingFlight(client, false,
		&FlightMessage{ContentType: contentTypeHandshake, HandshakeType: handshake.TypeClientHello, Epoch: 0, Payload: []byte("client-hello")},
	)
	client.SendFlight(clientFlight)

	if err := client.Transmit(); err != nil {
		t.Fatalf("client Transmit() = %v, want nil", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("server Transmit() = %v, want nil", err)
	}
}
