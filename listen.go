// SPDX-License-Identifier: GPL-3.0-or-later

package rawsock

import "context"

// NewListenFunc returns a new [*ListenFunc].
func NewListenFunc() *ListenFunc {
	return &ListenFunc{}
}

// ListenFunc binds a [*Socket] to the current candidate of its [Address]
// and marks it as passive.
//
// On failure, the socket is closed. Returns either a listening [*Socket]
// or an error, never both.
type ListenFunc struct{}

var _ Func[*Socket, *Socket] = &ListenFunc{}

// Call invokes [*Socket.Bind] and [*Socket.Listen].
func (op *ListenFunc) Call(ctx context.Context, sock *Socket) (*Socket, error) {
	candidate, err := sock.currentCandidate()
	if err == nil {
		err = sock.Bind(candidate)
	}
	if err == nil {
		err = sock.Listen()
	}
	if err != nil {
		sock.Close()
		return nil, err
	}
	return sock, nil
}
