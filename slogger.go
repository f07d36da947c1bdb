// SPDX-License-Identifier: GPL-3.0-or-later

package rawsock

// SLogger is the diagnostic sink of a [*Socket].
//
// Events come in Start/Done pairs sharing the t0 field. Lifecycle events
// (socket, bind, listen, connect, accept, close, setNonBlocking, setNagle)
// use Info. Per-I/O events (send, recv, poll) use Debug, so that they
// can be filtered out by level.
//
// A failure shows up in the err, errClass and errCode fields of the
// corresponding Done event. Logging never changes control flow.
//
// The [*slog.Logger] type satisfies this interface.
type SLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// DefaultSLogger returns an [SLogger] discarding all events.
//
// Pass a [*slog.Logger] to the constructors to see the events.
func DefaultSLogger() SLogger {
	return discardSLogger{}
}

type discardSLogger struct{}

func (discardSLogger) Debug(string, ...any) {}

func (discardSLogger) Info(string, ...any) {}
