//go:build windows

//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Winsock implementation of Syscalls.
//

package rawsock

import (
	"errors"
	"net/netip"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// MaxBacklog is the backlog used by [*Socket.Listen] (SOMAXCONN).
const MaxBacklog = 0x7fffffff

const (
	errWSAEWOULDBLOCK = syscall.Errno(10035)
	errWSAEINPROGRESS = syscall.Errno(10036)
	errWSAEINTR       = syscall.Errno(10004)

	wsaFIONBIO       = 0x8004667e
	wsaINVALIDSOCKET = ^uintptr(0)
	wsaSOERROR       = 0x1007
	wsaTCPNODELAY    = 0x0001
	wsaPOLLRDNORM    = 0x0100
	wsaPOLLWRNORM    = 0x0010
	wsaPOLLERR       = 0x0001
	wsaPOLLHUP       = 0x0002
	wsaPOLLNVAL      = 0x0004
	wsaStartVersion  = 0x0202
)

var (
	modws2_32       = windows.NewLazySystemDLL("ws2_32.dll")
	procAccept      = modws2_32.NewProc("accept")
	procIoctlsocket = modws2_32.NewProc("ioctlsocket")
	procRecv        = modws2_32.NewProc("recv")
	procSend        = modws2_32.NewProc("send")
	procWSAPoll     = modws2_32.NewProc("WSAPoll")

	wsaStartupOnce sync.Once
	wsaStartupErr  error
)

// DefaultSyscalls returns the [Syscalls] for this platform.
func DefaultSyscalls() Syscalls {
	return windowsSyscalls{}
}

// windowsSyscalls implements [Syscalls] using [golang.org/x/sys/windows].
type windowsSyscalls struct{}

var _ Syscalls = windowsSyscalls{}

// wsaPollFD is the WSAPOLLFD structure.
type wsaPollFD struct {
	fd      windows.Handle
	events  int16
	revents int16
}

// Socket implements [Syscalls].
func (windowsSyscalls) Socket(family Family, sotype SockType, proto Protocol) (Handle, error) {
	wsaStartupOnce.Do(func() {
		var data windows.WSAData
		wsaStartupErr = windowsError("wsastartup", windows.WSAStartup(wsaStartVersion, &data))
	})
	if wsaStartupErr != nil {
		return InvalidHandle, wsaStartupErr
	}
	domain, typ, protocol, err := windowsSocketArgs(family, sotype, proto)
	if err != nil {
		return InvalidHandle, err
	}
	fd, err := windows.Socket(domain, typ, protocol)
	if err != nil {
		return InvalidHandle, windowsError("socket", err)
	}
	return Handle(fd), nil
}

// Bind implements [Syscalls].
func (windowsSyscalls) Bind(h Handle, endpoint netip.AddrPort) error {
	sa, err := windowsSockaddr(endpoint)
	if err != nil {
		return err
	}
	return windowsError("bind", windows.Bind(windows.Handle(h), sa))
}

// Listen implements [Syscalls].
func (windowsSyscalls) Listen(h Handle, backlog int) error {
	return windowsError("listen", windows.Listen(windows.Handle(h), backlog))
}

// Connect implements [Syscalls].
func (windowsSyscalls) Connect(h Handle, endpoint netip.AddrPort) error {
	sa, err := windowsSockaddr(endpoint)
	if err != nil {
		return err
	}
	return windowsError("connect", windows.Connect(windows.Handle(h), sa))
}

// Accept implements [Syscalls].
func (windowsSyscalls) Accept(h Handle) (Handle, error) {
	r1, _, err := procAccept.Call(uintptr(h), 0, 0)
	if r1 == wsaINVALIDSOCKET {
		return InvalidHandle, windowsError("accept", err)
	}
	return Handle(r1), nil
}

// Send implements [Syscalls].
func (windowsSyscalls) Send(h Handle, data []byte, flags int) (int, error) {
	r1, _, err := procSend.Call(uintptr(h), bufferPointer(data), uintptr(len(data)), uintptr(flags))
	if int32(r1) == -1 {
		return 0, windowsError("send", err)
	}
	return int(int32(r1)), nil
}

// Recv implements [Syscalls].
func (windowsSyscalls) Recv(h Handle, buf []byte, flags int) (int, error) {
	r1, _, err := procRecv.Call(uintptr(h), bufferPointer(buf), uintptr(len(buf)), uintptr(flags))
	if int32(r1) == -1 {
		return 0, windowsError("recv", err)
	}
	return int(int32(r1)), nil
}

// Poll implements [Syscalls].
//
// WSAPoll does not support POLLPRI, so [PollError] only reflects the
// error conditions that WSAPoll always reports.
func (windowsSyscalls) Poll(h Handle, events PollEvents, timeout time.Duration) (PollEvents, error) {
	var want int16
	if events&PollRead != 0 {
		want |= wsaPOLLRDNORM
	}
	if events&PollWrite != 0 {
		want |= wsaPOLLWRNORM
	}

	fds := []wsaPollFD{{fd: windows.Handle(h), events: want}}
	r1, _, err := procWSAPoll.Call(uintptr(unsafe.Pointer(&fds[0])), 1, uintptr(pollMillis(timeout)))
	if int32(r1) < 0 {
		return 0, windowsError("wsapoll", err)
	}
	if int32(r1) == 0 {
		return 0, nil
	}

	var ready PollEvents
	revents := fds[0].revents
	if revents&(wsaPOLLRDNORM|wsaPOLLHUP) != 0 {
		ready |= PollRead
	}
	if revents&wsaPOLLWRNORM != 0 {
		ready |= PollWrite
	}
	if revents&(wsaPOLLERR|wsaPOLLNVAL) != 0 {
		ready |= PollError
	}
	return ready & (events | PollError), nil
}

// SetNonblock implements [Syscalls].
func (windowsSyscalls) SetNonblock(h Handle, enabled bool) error {
	var mode uint32
	if enabled {
		mode = 1
	}
	r1, _, err := procIoctlsocket.Call(uintptr(h), wsaFIONBIO, uintptr(unsafe.Pointer(&mode)))
	if int32(r1) != 0 {
		return windowsError("ioctlsocket", err)
	}
	return nil
}

// SetNoDelay implements [Syscalls].
func (windowsSyscalls) SetNoDelay(h Handle, enabled bool) error {
	value := 0
	if enabled {
		value = 1
	}
	err := windows.SetsockoptInt(windows.Handle(h), windows.IPPROTO_TCP, wsaTCPNODELAY, value)
	return windowsError("setsockopt", err)
}

// Shutdown implements [Syscalls].
func (windowsSyscalls) Shutdown(h Handle) error {
	return windowsError("shutdown", windows.Shutdown(windows.Handle(h), windows.SHUT_WR))
}

// Close implements [Syscalls].
func (windowsSyscalls) Close(h Handle) error {
	return windowsError("closesocket", windows.Closesocket(windows.Handle(h)))
}

// LocalAddr implements [Syscalls].
func (windowsSyscalls) LocalAddr(h Handle) (netip.AddrPort, error) {
	sa, err := windows.Getsockname(windows.Handle(h))
	if err != nil {
		return netip.AddrPort{}, windowsError("getsockname", err)
	}
	switch sa := sa.(type) {
	case *windows.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port)), nil
	case *windows.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(sa.Addr), uint16(sa.Port)), nil
	default:
		return netip.AddrPort{}, ErrUnsupportedAddress
	}
}

// SocketError implements [Syscalls].
func (windowsSyscalls) SocketError(h Handle) error {
	var value int32
	size := int32(unsafe.Sizeof(value))
	err := windows.Getsockopt(windows.Handle(h), windows.SOL_SOCKET, wsaSOERROR, (*byte)(unsafe.Pointer(&value)), &size)
	if err != nil {
		return windowsError("getsockopt", err)
	}
	if value != 0 {
		return windowsError("connect", syscall.Errno(value))
	}
	return nil
}

func windowsSocketArgs(family Family, sotype SockType, proto Protocol) (domain, typ, protocol int, err error) {
	switch family {
	case FamilyINET:
		domain = windows.AF_INET
	case FamilyINET6:
		domain = windows.AF_INET6
	default:
		return 0, 0, 0, ErrUnsupportedAddress
	}
	switch sotype {
	case SockStream:
		typ = windows.SOCK_STREAM
	default:
		return 0, 0, 0, ErrUnsupportedAddress
	}
	switch proto {
	case ProtocolDefault:
		protocol = 0
	case ProtocolTCP:
		protocol = windows.IPPROTO_TCP
	default:
		return 0, 0, 0, ErrUnsupportedAddress
	}
	return
}

func windowsSockaddr(endpoint netip.AddrPort) (windows.Sockaddr, error) {
	addr := endpoint.Addr()
	switch {
	case addr.Is4():
		return &windows.SockaddrInet4{Port: int(endpoint.Port()), Addr: addr.As4()}, nil
	case addr.Is6():
		return &windows.SockaddrInet6{Port: int(endpoint.Port()), Addr: addr.As16()}, nil
	default:
		return nil, ErrUnsupportedAddress
	}
}

func bufferPointer(buf []byte) uintptr {
	if len(buf) <= 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&buf[0]))
}

func windowsError(op string, err error) error {
	if errors.Is(err, errWSAEINTR) && op == "connect" {
		err = errWSAEINPROGRESS
	}
	return newSyscallError(op, err, windowsWouldBlock)
}

func windowsWouldBlock(err error) bool {
	return errors.Is(err, errWSAEWOULDBLOCK) || errors.Is(err, errWSAEINPROGRESS)
}
