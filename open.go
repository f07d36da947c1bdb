// SPDX-License-Identifier: GPL-3.0-or-later

package rawsock

import "context"

// NewOpenFunc returns a new [*OpenFunc].
//
// The cfg argument contains the common configuration.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewOpenFunc(cfg *Config, logger SLogger) *OpenFunc {
	return &OpenFunc{Config: cfg, Logger: logger}
}

// OpenFunc creates a [*Socket] from the current candidate of an [Address].
//
// Returns either a valid [*Socket] or an error, never both.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Call].
type OpenFunc struct {
	// Config is the configuration passed to [NewSocket].
	//
	// Set by [NewOpenFunc] to the user-provided config.
	Config *Config

	// Logger is the [SLogger] to use.
	//
	// Set by [NewOpenFunc] to the user-provided logger.
	Logger SLogger
}

var _ Func[Address, *Socket] = &OpenFunc{}

// Call invokes [NewSocket] with the given [Address].
func (op *OpenFunc) Call(ctx context.Context, address Address) (*Socket, error) {
	return NewSocket(op.Config, address, op.Logger)
}

// NewNonBlockingFunc returns a [*NonBlockingFunc] setting the given mode.
func NewNonBlockingFunc(enabled bool) *NonBlockingFunc {
	return &NonBlockingFunc{Enabled: enabled}
}

// NonBlockingFunc toggles the blocking mode of a [*Socket].
//
// On failure, the socket is closed.
type NonBlockingFunc struct {
	// Enabled selects non-blocking (true) or blocking (false) mode.
	Enabled bool
}

var _ Func[*Socket, *Socket] = &NonBlockingFunc{}

// Call invokes [*Socket.SetNonBlocking].
func (op *NonBlockingFunc) Call(ctx context.Context, sock *Socket) (*Socket, error) {
	if err := sock.SetNonBlocking(op.Enabled); err != nil {
		sock.Close()
		return nil, err
	}
	return sock, nil
}
