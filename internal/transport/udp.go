// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"
)

// SendDatagram sends payload as a single UDP datagram to addr (host:port).
// The socket is closed on every path, including a failed write.
// Delivery is not confirmed.
func SendDatagram(ctx context.Context, addr string, payload []byte) (err error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return fmt.Errorf("dial udp %s: %w", addr, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close udp socket: %w", cerr)
		}
	}()

	n, err := conn.Write(payload)
	if err != nil {
		return fmt.Errorf("send udp %s: %w", addr, err)
	}
	if n != len(payload) {
		return fmt.Errorf("send udp %s: short write %d of %d bytes", addr, n, len(payload))
	}
	return nil
}

// Handler is called for every received datagram. The packet slice is only
// valid for the duration of the call.
type Handler func(packet []byte, from net.Addr)

// Listener receives UDP datagrams and hands them to a Handler.
type Listener struct {
	connMu sync.RWMutex
	conn   *net.UDPConn
}

// Listen binds a UDP socket on address (e.g. ":6666" or "127.0.0.1:0").
func Listen(address string) (*Listener, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on UDP address: %w", err)
	}
	return &Listener{conn: conn}, nil
}

// LocalAddr returns the bound address, useful when listening on port 0.
func (l *Listener) LocalAddr() net.Addr {
	l.connMu.RLock()
	defer l.connMu.RUnlock()
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Serve reads datagrams until ctx is cancelled or the listener is closed.
func (l *Listener) Serve(ctx context.Context, handle Handler) error {
	l.connMu.RLock()
	conn := l.conn
	l.connMu.RUnlock()
	if conn == nil {
		return net.ErrClosed
	}

	// datagrams larger than this are truncated and rejected by the decoder
	buffer := make([]byte, 2048)
	var deadlineErrLogged bool

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Set read deadline to allow checking context cancellation
		if err := conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond)); err != nil && !deadlineErrLogged {
			log.Printf("udp: failed to set read deadline: %v", err)
			deadlineErrLogged = true
		}

		n, from, err := conn.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("udp: read error: %v", err)
			continue
		}

		handle(buffer[:n], from)
	}
}

// Close releases the socket. It is safe to call Close multiple times.
func (l *Listener) Close() error {
	l.connMu.Lock()
	conn := l.conn
	l.conn = nil
	l.connMu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}
