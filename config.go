// SPDX-License-Identifier: GPL-3.0-or-later

package rawsock

import "time"

// DefaultPollTimeout is the timeout used by the readiness polls.
const DefaultPollTimeout = time.Millisecond

// Config holds common configuration for sockets and socket operations.
//
// Pass this to constructor functions to pre-wire dependencies.
// All fields have sensible defaults set by [NewConfig].
type Config struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// PollTimeout bounds [*Socket.IsReadable], [*Socket.IsWritable]
	// and [*Socket.IsInvalid].
	//
	// Set by [NewConfig] to [DefaultPollTimeout].
	PollTimeout time.Duration

	// Syscalls provides the OS socket primitives.
	//
	// Set by [NewConfig] to [DefaultSyscalls].
	Syscalls Syscalls

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		ErrClassifier: DefaultErrClassifier,
		PollTimeout:   DefaultPollTimeout,
		Syscalls:      DefaultSyscalls(),
		TimeNow:       time.Now,
	}
}
