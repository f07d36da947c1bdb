// SPDX-License-Identifier: GPL-3.0-or-later

package rawsock

import (
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"time"

	"github.com/bassosimone/runtimex"
)

var (
	// ErrInvalidSocket is returned by operations on a socket whose
	// handle is [InvalidHandle] (never opened or already closed).
	ErrInvalidSocket = errors.New("invalid socket")

	// ErrNilAddress is returned by [NewSocket] when the address is nil.
	ErrNilAddress = errors.New("nil socket address")

	// ErrNoCandidate is returned when the [Address] has no current candidate.
	ErrNoCandidate = errors.New("no current address candidate")
)

// Socket owns exactly one native stream socket [Handle].
//
// Nothing inside Socket enforces that Bind precedes Listen precedes
// Accept: the caller sequences the operations and each method validates
// only what it needs. Operations on an invalid handle fail fast with
// [ErrInvalidSocket] without entering the OS.
//
// A Socket is not safe for concurrent use: a single goroutine must own
// it, and Close must not race with any other in-flight call.
//
// All exported fields are safe to modify after construction but before
// first use. Fields must not be mutated concurrently with method calls.
//
// Construct using [NewSocket], [WrapSocket] or [*Socket.Accept].
type Socket struct {
	// address is shared with the listener or the sibling sockets.
	address Address

	// fd is the owned handle or InvalidHandle.
	fd Handle

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewSocket] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use (configurable for testing or custom logging).
	//
	// Set by [NewSocket] to the user-provided logger.
	Logger SLogger

	// PollTimeout bounds each readiness poll.
	//
	// Set by [NewSocket] from [Config.PollTimeout].
	PollTimeout time.Duration

	// Syscalls provides the OS socket primitives.
	//
	// Set by [NewSocket] from [Config.Syscalls].
	Syscalls Syscalls

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewSocket] from [Config.TimeNow].
	TimeNow func() time.Time
}

// NewSocket creates a new socket using the current candidate of address.
//
// The cfg argument contains the common configuration.
//
// The address argument is shared with the returned socket and with any
// socket it accepts; the socket never advances its candidate.
//
// The logger argument is the [SLogger] to use for structured logging.
//
// Returns either a valid [*Socket] or an error, never both: a nil address
// yields [ErrNilAddress], an exhausted address yields [ErrNoCandidate],
// and OS failures yield the corresponding syscall error.
func NewSocket(cfg *Config, address Address, logger SLogger) (*Socket, error) {
	s := newSocket(cfg, address, InvalidHandle, logger)
	t0 := s.TimeNow()
	s.logStart(s.Logger.Info, "socketStart", t0)
	err := s.open()
	s.logDone(s.Logger.Info, "socketDone", t0, err)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// WrapSocket returns a [*Socket] owning an existing handle.
//
// Use this function for handles obtained by accepting a connection; the
// socket takes ownership of h and shares address, which is not resolved.
func WrapSocket(cfg *Config, address Address, h Handle, logger SLogger) *Socket {
	return newSocket(cfg, address, h, logger)
}

func newSocket(cfg *Config, address Address, h Handle, logger SLogger) *Socket {
	runtimex.Assert(cfg != nil)
	return &Socket{
		address:       address,
		fd:            h,
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		PollTimeout:   cfg.PollTimeout,
		Syscalls:      cfg.Syscalls,
		TimeNow:       cfg.TimeNow,
	}
}

func (s *Socket) open() error {
	candidate, err := s.currentCandidate()
	if err != nil {
		return err
	}
	fd, err := s.Syscalls.Socket(candidate.Family, candidate.SockType, candidate.Protocol)
	if err != nil {
		return err
	}
	s.fd = fd
	return nil
}

// Address returns the shared [Address] this socket originates from.
func (s *Socket) Address() Address {
	return s.address
}

// Handle returns the owned handle or [InvalidHandle].
func (s *Socket) Handle() Handle {
	return s.fd
}

// Bind binds the socket to the given candidate endpoint.
//
// A would-block result counts as success.
func (s *Socket) Bind(candidate Candidate) error {
	t0 := s.TimeNow()
	bindAddr := slog.String("bindAddr", candidate.AddrPort.String())
	s.logStart(s.Logger.Info, "bindStart", t0, bindAddr)
	err := s.bind(candidate)
	s.logDone(s.Logger.Info, "bindDone", t0, err, bindAddr)
	return err
}

func (s *Socket) bind(candidate Candidate) error {
	if s.fd == InvalidHandle {
		return ErrInvalidSocket
	}
	return toleratingWouldBlock(s.Syscalls.Bind(s.fd, candidate.AddrPort))
}

// Listen marks the socket as passive using [MaxBacklog].
//
// A would-block result counts as success.
func (s *Socket) Listen() error {
	t0 := s.TimeNow()
	backlog := slog.Int("backlog", MaxBacklog)
	s.logStart(s.Logger.Info, "listenStart", t0, backlog)
	err := s.listen()
	s.logDone(s.Logger.Info, "listenDone", t0, err, backlog)
	return err
}

func (s *Socket) listen() error {
	if s.fd == InvalidHandle {
		return ErrInvalidSocket
	}
	return toleratingWouldBlock(s.Syscalls.Listen(s.fd, MaxBacklog))
}

// Connect initiates a connection to the current candidate of the address.
//
// In non-blocking mode the OS reports that the connection is in progress
// and Connect returns nil without waiting: poll [*Socket.IsWritable] to
// detect completion and then check [*Socket.PendingError].
func (s *Socket) Connect() error {
	t0 := s.TimeNow()
	s.logStart(s.Logger.Info, "connectStart", t0)
	err := s.connect()
	s.logDone(s.Logger.Info, "connectDone", t0, err)
	return err
}

func (s *Socket) connect() error {
	if s.fd == InvalidHandle {
		return ErrInvalidSocket
	}
	candidate, err := s.currentCandidate()
	if err != nil {
		return err
	}
	return toleratingWouldBlock(s.Syscalls.Connect(s.fd, candidate.AddrPort))
}

// Accept accepts one pending connection.
//
// Returns either a valid [*Socket] or an error, never both. The returned
// socket shares this socket's [Address] and configuration. On failure
// the listening socket is left untouched. A non-blocking listener without
// pending connections fails with an error wrapping [ErrWouldBlock].
func (s *Socket) Accept() (*Socket, error) {
	t0 := s.TimeNow()
	s.logStart(s.Logger.Info, "acceptStart", t0)
	conn, err := s.accept()
	s.logDone(s.Logger.Info, "acceptDone", t0, err, slog.Int64("acceptedFd", conn.fdAttr()))
	return conn, err
}

func (s *Socket) accept() (*Socket, error) {
	if s.fd == InvalidHandle {
		return nil, ErrInvalidSocket
	}
	fd, err := s.Syscalls.Accept(s.fd)
	if err != nil {
		return nil, err
	}
	conn := &Socket{
		address:       s.address,
		fd:            fd,
		ErrClassifier: s.ErrClassifier,
		Logger:        s.Logger,
		PollTimeout:   s.PollTimeout,
		Syscalls:      s.Syscalls,
		TimeNow:       s.TimeNow,
	}
	return conn, nil
}

// LocalAddr returns the endpoint the socket is bound to.
//
// This is useful to discover the port chosen by the OS when binding to port zero.
func (s *Socket) LocalAddr() (netip.AddrPort, error) {
	if s.fd == InvalidHandle {
		return netip.AddrPort{}, ErrInvalidSocket
	}
	return s.Syscalls.LocalAddr(s.fd)
}

// PendingError returns and clears the pending socket error.
//
// After a non-blocking [*Socket.Connect], once [*Socket.IsWritable] is
// true, a nil result means the connection has been established.
func (s *Socket) PendingError() error {
	if s.fd == InvalidHandle {
		return ErrInvalidSocket
	}
	return s.Syscalls.SocketError(s.fd)
}

// Close shuts down the send direction and releases the handle.
//
// Cleanup is best effort: a failing shutdown is ignored and the handle
// is released anyway. The handle is released at most once; subsequent
// calls, or calls on a socket that was never opened, return
// [net.ErrClosed] without entering the OS.
func (s *Socket) Close() error {
	if s.fd == InvalidHandle {
		return net.ErrClosed
	}
	t0 := s.TimeNow()
	s.logStart(s.Logger.Info, "closeStart", t0)
	fd := s.fd
	_ = s.Syscalls.Shutdown(fd)
	err := s.Syscalls.Close(fd)
	s.logDone(s.Logger.Info, "closeDone", t0, err)
	s.fd = InvalidHandle
	return err
}

func (s *Socket) currentCandidate() (Candidate, error) {
	if s.address == nil {
		return Candidate{}, ErrNilAddress
	}
	candidate, ok := s.address.Current()
	if !ok {
		return Candidate{}, ErrNoCandidate
	}
	return candidate, nil
}
