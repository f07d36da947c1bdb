// SPDX-License-Identifier: GPL-3.0-or-later

package rawsock

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"syscall"
	"time"
)

// Handle is an opaque native socket descriptor.
//
// It holds a file descriptor on Unix and a SOCKET on Windows.
type Handle uintptr

// InvalidHandle is the sentinel for an unset or released [Handle].
//
// Its bit pattern matches both a -1 file descriptor and INVALID_SOCKET.
const InvalidHandle = ^Handle(0)

// PollEvents is a set of readiness conditions.
type PollEvents uint8

const (
	// PollRead means that a read would not block (including EOF).
	PollRead PollEvents = 1 << iota

	// PollWrite means that a write would not block.
	PollWrite

	// PollError means an error or exceptional condition is pending.
	PollError
)

// ErrWouldBlock indicates that a non-blocking operation could not
// complete immediately. Errors returned by [Syscalls] implementations
// that mean "would block" or "in progress" satisfy errors.Is with it.
var ErrWouldBlock = errors.New("operation would block")

// ErrUnsupportedAddress indicates an endpoint the platform cannot convert.
var ErrUnsupportedAddress = errors.New("unsupported address")

// Syscalls abstracts the OS socket system calls.
//
// By making [*Socket] depend on this interface we keep its logic free of
// platform branching and allow for unit testing. [DefaultSyscalls] returns
// the implementation for the platform we are compiled for.
type Syscalls interface {
	// Socket creates a new socket.
	Socket(family Family, sotype SockType, proto Protocol) (Handle, error)

	// Bind binds the socket to the given endpoint.
	Bind(h Handle, endpoint netip.AddrPort) error

	// Listen marks the socket as passive.
	Listen(h Handle, backlog int) error

	// Connect initiates a connection to the given endpoint.
	Connect(h Handle, endpoint netip.AddrPort) error

	// Accept accepts a pending connection.
	Accept(h Handle) (Handle, error)

	// Send performs a single send call and returns the bytes sent.
	Send(h Handle, data []byte, flags int) (int, error)

	// Recv performs a single receive call and returns the bytes received.
	Recv(h Handle, buf []byte, flags int) (int, error)

	// Poll waits at most timeout for any of the given events and returns
	// those that are ready. [PollError] may be returned even when not
	// requested.
	Poll(h Handle, events PollEvents, timeout time.Duration) (PollEvents, error)

	// SetNonblock toggles non-blocking mode.
	SetNonblock(h Handle, enabled bool) error

	// SetNoDelay sets the TCP_NODELAY option.
	SetNoDelay(h Handle, enabled bool) error

	// Shutdown shuts down the send direction.
	Shutdown(h Handle) error

	// Close releases the handle.
	Close(h Handle) error

	// LocalAddr returns the endpoint the socket is bound to.
	LocalAddr(h Handle) (netip.AddrPort, error)

	// SocketError returns and clears the pending socket error (SO_ERROR).
	SocketError(h Handle) error
}

// newSyscallError wraps err as an [*os.SyscallError], additionally
// marking it with [ErrWouldBlock] when wouldBlock says so.
func newSyscallError(op string, err error, wouldBlock func(error) bool) error {
	if err == nil {
		return nil
	}
	serr := os.NewSyscallError(op, err)
	if wouldBlock(err) {
		return fmt.Errorf("%w: %w", ErrWouldBlock, serr)
	}
	return serr
}

// ErrCode returns the platform error number carried by err or zero.
func ErrCode(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return 0
}

// toleratingWouldBlock maps an [ErrWouldBlock] error to success.
func toleratingWouldBlock(err error) error {
	if errors.Is(err, ErrWouldBlock) {
		return nil
	}
	return err
}

// pollMillis rounds a positive timeout up to at least one millisecond.
func pollMillis(timeout time.Duration) int {
	if timeout <= 0 {
		return 0
	}
	ms := timeout.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return int(ms)
}
