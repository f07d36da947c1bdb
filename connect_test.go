// SPDX-License-Identifier: GPL-3.0-or-later

package rawsock

import (
	"context"
	"errors"
	"net/netip"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectFunc(t *testing.T) {
	t.Run("in progress counts as success", func(t *testing.T) {
		sys := newMinimalSyscalls()
		sys.ConnectFunc = func(h Handle, endpoint netip.AddrPort) error {
			return ErrWouldBlock
		}
		sock := newStubSocket(sys, DefaultSLogger())

		out, err := NewConnectFunc().Call(context.Background(), sock)

		require.NoError(t, err)
		assert.Same(t, sock, out)
	})

	t.Run("failure closes the socket", func(t *testing.T) {
		wantErr := errors.New("mocked ENETUNREACH")
		sys := newMinimalSyscalls()
		sys.ConnectFunc = func(h Handle, endpoint netip.AddrPort) error {
			return wantErr
		}
		sock := newStubSocket(sys, DefaultSLogger())

		out, err := NewConnectFunc().Call(context.Background(), sock)

		require.ErrorIs(t, err, wantErr)
		assert.Nil(t, out)
		assert.Equal(t, InvalidHandle, sock.Handle())
	})
}

// newAwaitSyscalls returns a stub that becomes writable after the
// given number of polls and then reports pendingErr.
func newAwaitSyscalls(polls int, pendingErr error) *funcSyscalls {
	sys := newMinimalSyscalls()
	sys.PollFunc = func(h Handle, events PollEvents, timeout time.Duration) (PollEvents, error) {
		if polls > 0 {
			polls--
			return 0, nil
		}
		return events & PollWrite, nil
	}
	sys.SocketErrorFunc = func(h Handle) error {
		return pendingErr
	}
	return sys
}

func TestAwaitConnectFunc(t *testing.T) {
	t.Run("connected", func(t *testing.T) {
		sock := newStubSocket(newAwaitSyscalls(3, nil), DefaultSLogger())

		out, err := NewAwaitConnectFunc().Call(context.Background(), sock)

		require.NoError(t, err)
		assert.Same(t, sock, out)
	})

	t.Run("handshake failure closes the socket", func(t *testing.T) {
		wantErr := errors.New("mocked ECONNREFUSED")
		sock := newStubSocket(newAwaitSyscalls(1, wantErr), DefaultSLogger())

		out, err := NewAwaitConnectFunc().Call(context.Background(), sock)

		require.ErrorIs(t, err, wantErr)
		assert.Nil(t, out)
		assert.Equal(t, InvalidHandle, sock.Handle())
	})

	t.Run("context expiry closes the socket", func(t *testing.T) {
		sock := newStubSocket(newAwaitSyscalls(1<<30, nil), DefaultSLogger())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		out, err := NewAwaitConnectFunc().Call(ctx, sock)

		require.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, out)
		assert.Equal(t, InvalidHandle, sock.Handle())
	})

	t.Run("error-only poll result ends the wait", func(t *testing.T) {
		polls := 0
		sys := newMinimalSyscalls()
		sys.PollFunc = func(h Handle, events PollEvents, timeout time.Duration) (PollEvents, error) {
			polls++
			return PollError, nil
		}
		sys.SocketErrorFunc = func(h Handle) error {
			return syscall.ECONNREFUSED
		}
		sock := newStubSocket(sys, DefaultSLogger())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		out, err := NewAwaitConnectFunc().Call(ctx, sock)

		require.ErrorIs(t, err, syscall.ECONNREFUSED)
		assert.Nil(t, out)
		assert.Equal(t, 1, polls)
		assert.Equal(t, InvalidHandle, sock.Handle())
	})

	t.Run("invalid socket", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Syscalls = &funcSyscalls{}
		sock := WrapSocket(cfg, NewAddress(testEndpoint), InvalidHandle, DefaultSLogger())

		out, err := NewAwaitConnectFunc().Call(context.Background(), sock)

		require.ErrorIs(t, err, ErrInvalidSocket)
		assert.Nil(t, out)
	})
}

// A loopback pipeline connects in non-blocking mode.
func TestConnectPipelineLoopback(t *testing.T) {
	listener, endpoint := newLoopbackListener(t)
	cfg := NewConfig()

	pipeline := Compose5(
		NewAddressFunc(endpoint),
		NewOpenFunc(cfg, DefaultSLogger()),
		NewNonBlockingFunc(true),
		NewConnectFunc(),
		NewAwaitConnectFunc(),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := pipeline.Call(ctx, Unit{})
	require.NoError(t, err)
	defer client.Close()

	server, err := listener.Accept()
	require.NoError(t, err)
	defer server.Close()
}
