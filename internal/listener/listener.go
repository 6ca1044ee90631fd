// Package listener owns the UDP receive side of the bridge: a reusable,
// non-blocking datagram socket drained on a dedicated goroutine. It never
// parses payloads; each datagram is copied into an independently owned
// buffer and handed to the dispatch function.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/ipv4"
)

const (
	// RecvBufferSize is the socket receive buffer and scratch buffer size.
	RecvBufferSize = 1 << 20
	// PollTimeout bounds each read so a stop request is observed promptly
	// even with no traffic.
	PollTimeout = 100 * time.Millisecond
	// DefaultPort is the conventional port pose senders transmit to.
	DefaultPort = 54321

	multicastTTL = 2
)

// Status describes the listener lifecycle state.
type Status int32

const (
	// StatusNotFound means the socket could not be created; the listener is
	// permanently inert.
	StatusNotFound Status = iota
	// StatusReceiving means the receive goroutine is draining datagrams.
	StatusReceiving
	// StatusStopped means shutdown was requested or completed.
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusReceiving:
		return "Receiving"
	case StatusStopped:
		return "Stopped"
	default:
		return "Device Not Found"
	}
}

// Dispatch hands one exclusively owned datagram buffer to the consumer side.
// It must not block; a false return means the datagram was dropped.
type Dispatch func(datagram []byte) bool

// Listener binds a UDP socket per the endpoint rules and drains it on a
// background goroutine until shutdown is requested.
type Listener struct {
	endpoint Endpoint
	dispatch Dispatch
	logger   *slog.Logger

	conn      *net.UDPConn
	scratch   []byte
	status    atomic.Int32
	stopping  atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// New binds the socket and starts the receive goroutine. Socket construction
// failure leaves the listener in the not-found state: no goroutine runs and
// IsValid reports false. The returned listener is never nil.
func New(endpoint Endpoint, dispatch Dispatch, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}

	l := &Listener{
		endpoint: endpoint,
		dispatch: dispatch,
		logger:   logger,
		done:     make(chan struct{}),
	}
	l.status.Store(int32(StatusNotFound))

	conn, err := bindSocket(endpoint)
	if err != nil {
		logger.Error("Failed to open datagram socket", "endpoint", endpoint.String(), "error", err)
		close(l.done)
		return l
	}

	l.conn = conn
	l.scratch = make([]byte, RecvBufferSize)
	l.status.Store(int32(StatusReceiving))
	logger.Info("Listening for pose datagrams",
		"endpoint", endpoint.String(),
		"multicast", endpoint.IsMulticast())

	go l.run()
	return l
}

// bindSocket builds the reusable datagram socket. Multicast endpoints bind
// the wildcard address, join the group with loopback enabled and TTL 2;
// unicast endpoints bind the address directly.
func bindSocket(endpoint Endpoint) (*net.UDPConn, error) {
	lc := net.ListenConfig{Control: controlReuseAddr}

	bindAddr := endpoint.String()
	if endpoint.IsMulticast() {
		bindAddr = net.JoinHostPort(net.IPv4zero.String(), fmt.Sprint(endpoint.Port))
	}

	pc, err := lc.ListenPacket(context.Background(), "udp4", bindAddr)
	if err != nil {
		return nil, err
	}
	conn, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return nil, errors.New("socket is not a datagram socket")
	}

	if err := conn.SetReadBuffer(RecvBufferSize); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set receive buffer: %w", err)
	}

	if endpoint.IsMulticast() {
		p := ipv4.NewPacketConn(conn)
		if err := p.JoinGroup(nil, &net.UDPAddr{IP: endpoint.Addr}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("join multicast group %s: %w", endpoint.Addr, err)
		}
		if err := p.SetMulticastLoopback(true); err != nil {
			conn.Close()
			return nil, fmt.Errorf("enable multicast loopback: %w", err)
		}
		if err := p.SetMulticastTTL(multicastTTL); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set multicast TTL: %w", err)
		}
	}

	return conn, nil
}

// run is the receive loop. Each iteration waits at most PollTimeout for a
// datagram, so the stop flag is observed within one timeout interval. The
// scratch buffer is owned by this goroutine alone; datagram bytes are copied
// out before crossing to the consumer side.
func (l *Listener) run() {
	defer close(l.done)

	for !l.stopping.Load() {
		if err := l.conn.SetReadDeadline(time.Now().Add(PollTimeout)); err != nil {
			return
		}

		n, _, err := l.conn.ReadFromUDP(l.scratch)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if l.stopping.Load() {
				return
			}
			// Per-datagram read errors never stop the loop.
			l.logger.Debug("Datagram read error", "error", err)
			continue
		}
		if n <= 0 {
			continue
		}

		buf := make([]byte, n)
		copy(buf, l.scratch[:n])
		if !l.dispatch(buf) {
			l.logger.Debug("Dispatch queue full, dropping datagram", "bytes", n)
		}
	}
}

// RequestShutdown sets the stop flag and returns immediately; the receive
// goroutine exits within one poll timeout. Use Close to also join the
// goroutine and release the socket.
func (l *Listener) RequestShutdown() {
	if l.stopping.CompareAndSwap(false, true) {
		if Status(l.status.Load()) == StatusReceiving {
			l.status.Store(int32(StatusStopped))
		}
	}
}

// Close requests shutdown, waits for the receive goroutine to fully exit,
// then closes the socket. The order matters: closing the socket while the
// goroutine still reads from it is a use-after-close.
func (l *Listener) Close() {
	l.RequestShutdown()
	<-l.done
	l.closeOnce.Do(func() {
		if l.conn != nil {
			l.conn.Close()
		}
	})
}

// IsValid reports whether the listener has a live socket and has not been
// asked to stop.
func (l *Listener) IsValid() bool {
	return l.conn != nil && !l.stopping.Load()
}

// Status returns the current lifecycle state.
func (l *Listener) Status() Status {
	return Status(l.status.Load())
}

// Endpoint returns the configured endpoint.
func (l *Listener) Endpoint() Endpoint {
	return l.endpoint
}

// LocalAddr returns the bound address, or nil when the socket was never
// created. With port 0 this reveals the kernel-assigned port.
func (l *Listener) LocalAddr() *net.UDPAddr {
	if l.conn == nil {
		return nil
	}
	addr, _ := l.conn.LocalAddr().(*net.UDPAddr)
	return addr
}
