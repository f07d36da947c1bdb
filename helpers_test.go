// SPDX-License-Identifier: GPL-3.0-or-later

package rawsock

import (
	"context"
	"log/slog"
	"net/netip"
	"time"

	"github.com/bassosimone/slogstub"
)

// newCapturingLogger returns a logger that captures all log records into the
// returned slice. The caller can inspect the slice after exercising the code
// under test to verify which events were emitted.
func newCapturingLogger() (*slog.Logger, *[]slog.Record) {
	var records []slog.Record
	handler := &slogstub.FuncHandler{
		EnabledFunc: func(ctx context.Context, level slog.Level) bool {
			return true
		},
		HandleFunc: func(ctx context.Context, record slog.Record) error {
			records = append(records, record)
			return nil
		},
	}
	return slog.New(handler), &records
}

// recordMessages returns the messages of the given records.
func recordMessages(records []slog.Record) (out []string) {
	for _, rec := range records {
		out = append(out, rec.Message)
	}
	return
}

// recordAttr returns the value of the named attribute of rec.
func recordAttr(rec slog.Record, name string) (value slog.Value, found bool) {
	rec.Attrs(func(attr slog.Attr) bool {
		if attr.Key == name {
			value, found = attr.Value, true
			return false
		}
		return true
	})
	return
}

// funcSyscalls is a [Syscalls] stub where each method calls the
// corresponding function field. Calling a method whose field is nil panics.
type funcSyscalls struct {
	SocketFunc      func(family Family, sotype SockType, proto Protocol) (Handle, error)
	BindFunc        func(h Handle, endpoint netip.AddrPort) error
	ListenFunc      func(h Handle, backlog int) error
	ConnectFunc     func(h Handle, endpoint netip.AddrPort) error
	AcceptFunc      func(h Handle) (Handle, error)
	SendFunc        func(h Handle, data []byte, flags int) (int, error)
	RecvFunc        func(h Handle, buf []byte, flags int) (int, error)
	PollFunc        func(h Handle, events PollEvents, timeout time.Duration) (PollEvents, error)
	SetNonblockFunc func(h Handle, enabled bool) error
	SetNoDelayFunc  func(h Handle, enabled bool) error
	ShutdownFunc    func(h Handle) error
	CloseFunc       func(h Handle) error
	LocalAddrFunc   func(h Handle) (netip.AddrPort, error)
	SocketErrorFunc func(h Handle) error
}

var _ Syscalls = &funcSyscalls{}

func (fs *funcSyscalls) Socket(family Family, sotype SockType, proto Protocol) (Handle, error) {
	return fs.SocketFunc(family, sotype, proto)
}

func (fs *funcSyscalls) Bind(h Handle, endpoint netip.AddrPort) error {
	return fs.BindFunc(h, endpoint)
}

func (fs *funcSyscalls) Listen(h Handle, backlog int) error {
	return fs.ListenFunc(h, backlog)
}

func (fs *funcSyscalls) Connect(h Handle, endpoint netip.AddrPort) error {
	return fs.ConnectFunc(h, endpoint)
}

func (fs *funcSyscalls) Accept(h Handle) (Handle, error) {
	return fs.AcceptFunc(h)
}

func (fs *funcSyscalls) Send(h Handle, data []byte, flags int) (int, error) {
	return fs.SendFunc(h, data, flags)
}

func (fs *funcSyscalls) Recv(h Handle, buf []byte, flags int) (int, error) {
	return fs.RecvFunc(h, buf, flags)
}

func (fs *funcSyscalls) Poll(h Handle, events PollEvents, timeout time.Duration) (PollEvents, error) {
	return fs.PollFunc(h, events, timeout)
}

func (fs *funcSyscalls) SetNonblock(h Handle, enabled bool) error {
	return fs.SetNonblockFunc(h, enabled)
}

func (fs *funcSyscalls) SetNoDelay(h Handle, enabled bool) error {
	return fs.SetNoDelayFunc(h, enabled)
}

func (fs *funcSyscalls) Shutdown(h Handle) error {
	return fs.ShutdownFunc(h)
}

func (fs *funcSyscalls) Close(h Handle) error {
	return fs.CloseFunc(h)
}

func (fs *funcSyscalls) LocalAddr(h Handle) (netip.AddrPort, error) {
	return fs.LocalAddrFunc(h)
}

func (fs *funcSyscalls) SocketError(h Handle) error {
	return fs.SocketErrorFunc(h)
}

// testHandle is the handle returned by [newMinimalSyscalls].
const testHandle = Handle(7)

// testEndpoint is the endpoint used by [newStubSocket].
var testEndpoint = netip.MustParseAddrPort("93.184.216.34:443")

// newMinimalSyscalls returns a [*funcSyscalls] that can create and close
// sockets. This is the minimum needed by most tests.
func newMinimalSyscalls() *funcSyscalls {
	return &funcSyscalls{
		SocketFunc: func(Family, SockType, Protocol) (Handle, error) {
			return testHandle, nil
		},
		ShutdownFunc: func(Handle) error { return nil },
		CloseFunc:    func(Handle) error { return nil },
	}
}

// newStubSocket returns a [*Socket] created through the given stub and
// logging to logger, connected to a fixed test endpoint.
func newStubSocket(sys *funcSyscalls, logger SLogger) *Socket {
	cfg := NewConfig()
	cfg.Syscalls = sys
	address := NewAddress(testEndpoint)
	sock, err := NewSocket(cfg, address, logger)
	if err != nil {
		panic(err)
	}
	return sock
}
