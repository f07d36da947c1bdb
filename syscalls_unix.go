//go:build unix

//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// BSD sockets implementation of Syscalls.
//

package rawsock

import (
	"errors"
	"net/netip"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// MaxBacklog is the backlog used by [*Socket.Listen].
const MaxBacklog = unix.SOMAXCONN

// DefaultSyscalls returns the [Syscalls] for this platform.
func DefaultSyscalls() Syscalls {
	return unixSyscalls{}
}

// unixSyscalls implements [Syscalls] using [golang.org/x/sys/unix].
type unixSyscalls struct{}

var _ Syscalls = unixSyscalls{}

// Socket implements [Syscalls].
func (unixSyscalls) Socket(family Family, sotype SockType, proto Protocol) (Handle, error) {
	domain, typ, protocol, err := unixSocketArgs(family, sotype, proto)
	if err != nil {
		return InvalidHandle, err
	}

	// Avoid leaking the descriptor into a concurrently forked child.
	syscall.ForkLock.RLock()
	fd, err := unix.Socket(domain, typ, protocol)
	if err == nil {
		unix.CloseOnExec(fd)
	}
	syscall.ForkLock.RUnlock()

	if err != nil {
		return InvalidHandle, unixError("socket", err)
	}
	return Handle(fd), nil
}

// Bind implements [Syscalls].
func (unixSyscalls) Bind(h Handle, endpoint netip.AddrPort) error {
	sa, err := unixSockaddr(endpoint)
	if err != nil {
		return err
	}
	return unixError("bind", unix.Bind(int(h), sa))
}

// Listen implements [Syscalls].
func (unixSyscalls) Listen(h Handle, backlog int) error {
	return unixError("listen", unix.Listen(int(h), backlog))
}

// Connect implements [Syscalls].
func (unixSyscalls) Connect(h Handle, endpoint netip.AddrPort) error {
	sa, err := unixSockaddr(endpoint)
	if err != nil {
		return err
	}
	err = unix.Connect(int(h), sa)
	if errors.Is(err, unix.EINTR) {
		// The kernel keeps connecting in the background.
		err = unix.EINPROGRESS
	}
	return unixError("connect", err)
}

// Accept implements [Syscalls].
func (unixSyscalls) Accept(h Handle) (Handle, error) {
	for {
		syscall.ForkLock.RLock()
		fd, _, err := unix.Accept(int(h))
		if err == nil {
			unix.CloseOnExec(fd)
		}
		syscall.ForkLock.RUnlock()

		switch {
		case err == nil:
			return Handle(fd), nil
		case errors.Is(err, unix.EINTR):
			continue
		default:
			return InvalidHandle, unixError("accept", err)
		}
	}
}

// Send implements [Syscalls].
func (unixSyscalls) Send(h Handle, data []byte, flags int) (int, error) {
	count, err := unix.SendmsgN(int(h), data, nil, nil, flags)
	if err != nil {
		return 0, unixError("sendmsg", err)
	}
	return count, nil
}

// Recv implements [Syscalls].
func (unixSyscalls) Recv(h Handle, buf []byte, flags int) (int, error) {
	count, _, err := unix.Recvfrom(int(h), buf, flags)
	if err != nil {
		return 0, unixError("recvfrom", err)
	}
	return count, nil
}

// Poll implements [Syscalls].
func (unixSyscalls) Poll(h Handle, events PollEvents, timeout time.Duration) (PollEvents, error) {
	var want int16
	if events&PollRead != 0 {
		want |= unix.POLLIN
	}
	if events&PollWrite != 0 {
		want |= unix.POLLOUT
	}
	if events&PollError != 0 {
		want |= unix.POLLPRI
	}

	fds := []unix.PollFd{{Fd: int32(h), Events: want}}
	for {
		count, err := unix.Poll(fds, pollMillis(timeout))
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, unixError("poll", err)
		}
		if count <= 0 {
			return 0, nil
		}
		break
	}

	var ready PollEvents
	revents := fds[0].Revents
	if revents&(unix.POLLIN|unix.POLLHUP) != 0 {
		ready |= PollRead
	}
	if revents&unix.POLLOUT != 0 {
		ready |= PollWrite
	}
	if revents&(unix.POLLERR|unix.POLLNVAL|unix.POLLPRI) != 0 {
		ready |= PollError
	}
	return ready & (events | PollError), nil
}

// SetNonblock implements [Syscalls].
func (unixSyscalls) SetNonblock(h Handle, enabled bool) error {
	return unixError("fcntl", unix.SetNonblock(int(h), enabled))
}

// SetNoDelay implements [Syscalls].
func (unixSyscalls) SetNoDelay(h Handle, enabled bool) error {
	value := 0
	if enabled {
		value = 1
	}
	return unixError("setsockopt", unix.SetsockoptInt(int(h), unix.IPPROTO_TCP, unix.TCP_NODELAY, value))
}

// Shutdown implements [Syscalls].
func (unixSyscalls) Shutdown(h Handle) error {
	return unixError("shutdown", unix.Shutdown(int(h), unix.SHUT_WR))
}

// Close implements [Syscalls].
func (unixSyscalls) Close(h Handle) error {
	return unixError("close", unix.Close(int(h)))
}

// LocalAddr implements [Syscalls].
func (unixSyscalls) LocalAddr(h Handle) (netip.AddrPort, error) {
	sa, err := unix.Getsockname(int(h))
	if err != nil {
		return netip.AddrPort{}, unixError("getsockname", err)
	}
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port)), nil
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(sa.Addr), uint16(sa.Port)), nil
	default:
		return netip.AddrPort{}, ErrUnsupportedAddress
	}
}

// SocketError implements [Syscalls].
func (unixSyscalls) SocketError(h Handle) error {
	value, err := unix.GetsockoptInt(int(h), unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return unixError("getsockopt", err)
	}
	if value != 0 {
		return unixError("connect", unix.Errno(value))
	}
	return nil
}

func unixSocketArgs(family Family, sotype SockType, proto Protocol) (domain, typ, protocol int, err error) {
	switch family {
	case FamilyINET:
		domain = unix.AF_INET
	case FamilyINET6:
		domain = unix.AF_INET6
	default:
		return 0, 0, 0, ErrUnsupportedAddress
	}
	switch sotype {
	case SockStream:
		typ = unix.SOCK_STREAM
	default:
		return 0, 0, 0, unixError("socket", unix.EPROTOTYPE)
	}
	switch proto {
	case ProtocolDefault:
		protocol = 0
	case ProtocolTCP:
		protocol = unix.IPPROTO_TCP
	default:
		return 0, 0, 0, unixError("socket", unix.EPROTONOSUPPORT)
	}
	return
}

func unixSockaddr(endpoint netip.AddrPort) (unix.Sockaddr, error) {
	addr := endpoint.Addr()
	switch {
	case addr.Is4():
		return &unix.SockaddrInet4{Port: int(endpoint.Port()), Addr: addr.As4()}, nil
	case addr.Is6():
		return &unix.SockaddrInet6{Port: int(endpoint.Port()), Addr: addr.As16()}, nil
	default:
		return nil, ErrUnsupportedAddress
	}
}

func unixError(op string, err error) error {
	return newSyscallError(op, err, unixWouldBlock)
}

func unixWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) ||
		errors.Is(err, unix.EWOULDBLOCK) ||
		errors.Is(err, unix.EINPROGRESS)
}
