// SPDX-License-Identifier: GPL-3.0-or-later

package rawsock

import (
	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
)

// NewSpanID returns a UUIDv7 identifying a span.
//
// Attach it to the logger with [*slog.Logger.With] before creating a
// socket, so that all the events of a connection (socket, connect,
// send, receive, close) and of the sockets it accepts can be correlated.
//
// This function panics if the system random number generator fails.
func NewSpanID() string {
	return runtimex.PanicOnError1(uuid.NewV7()).String()
}
