// SPDX-License-Identifier: GPL-3.0-or-later

package rawsock

import "context"

// NewConnectFunc returns a new [*ConnectFunc].
func NewConnectFunc() *ConnectFunc {
	return &ConnectFunc{}
}

// ConnectFunc initiates a connection using [*Socket.Connect].
//
// In non-blocking mode, the connection may still be in progress when Call
// returns: compose with [*AwaitConnectFunc] to wait for it.
//
// On failure, the socket is closed. Returns either a [*Socket] or an
// error, never both.
type ConnectFunc struct{}

var _ Func[*Socket, *Socket] = &ConnectFunc{}

// Call invokes [*Socket.Connect].
func (op *ConnectFunc) Call(ctx context.Context, sock *Socket) (*Socket, error) {
	if err := sock.Connect(); err != nil {
		sock.Close()
		return nil, err
	}
	return sock, nil
}

// NewAwaitConnectFunc returns a new [*AwaitConnectFunc].
func NewAwaitConnectFunc() *AwaitConnectFunc {
	return &AwaitConnectFunc{}
}

// AwaitConnectFunc waits for a non-blocking connect to complete.
//
// It repeatedly polls for writability, each poll waiting at most
// [Socket.PollTimeout], checking the context between polls. The handshake
// is over once the socket is writable or reports [PollError] (Winsock
// signals a refused connect with an error condition only). Then
// [*Socket.PendingError] tells whether the handshake succeeded. The
// caller controls the overall timeout with the context.
//
// On failure (including context expiry), the socket is closed.
type AwaitConnectFunc struct{}

var _ Func[*Socket, *Socket] = &AwaitConnectFunc{}

// Call waits for the connection to be established.
func (op *AwaitConnectFunc) Call(ctx context.Context, sock *Socket) (*Socket, error) {
	for sock.poll(PollWrite)&(PollWrite|PollError) == 0 {
		if err := ctx.Err(); err != nil {
			sock.Close()
			return nil, err
		}
		if sock.Handle() == InvalidHandle {
			return nil, ErrInvalidSocket
		}
	}
	if err := sock.PendingError(); err != nil {
		sock.Close()
		return nil, err
	}
	return sock, nil
}
