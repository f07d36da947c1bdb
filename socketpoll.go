// SPDX-License-Identifier: GPL-3.0-or-later

package rawsock

import (
	"log/slog"
	"time"
)

// IsReadable reports whether a receive would not block right now.
//
// It waits at most [Socket.PollTimeout]. This is a point-in-time check:
// callers must poll again to observe later changes.
func (s *Socket) IsReadable() bool {
	return s.poll(PollRead)&PollRead != 0
}

// IsWritable reports whether a send would not block right now.
//
// After a non-blocking [*Socket.Connect], IsWritable becomes true once the
// handshake has completed (or failed, see [*Socket.PendingError]).
func (s *Socket) IsWritable() bool {
	return s.poll(PollWrite)&PollWrite != 0
}

// IsInvalid reports whether the handle is [InvalidHandle], the poll
// fails, or an error or exceptional condition is pending.
//
// On Unix the exceptional condition includes out-of-band data (POLLPRI).
// WSAPoll has no such event, so on Windows only POLLERR and POLLNVAL
// make a valid handle invalid.
func (s *Socket) IsInvalid() bool {
	if s.fd == InvalidHandle {
		return true
	}
	t0 := s.TimeNow()
	ready, err := s.Syscalls.Poll(s.fd, PollError, s.PollTimeout)
	s.logPoll(t0, PollError, ready, err)
	return err != nil || ready&PollError != 0
}

func (s *Socket) poll(events PollEvents) PollEvents {
	if s.fd == InvalidHandle {
		return 0
	}
	t0 := s.TimeNow()
	ready, err := s.Syscalls.Poll(s.fd, events, s.PollTimeout)
	s.logPoll(t0, events, ready, err)
	if err != nil {
		return 0
	}
	return ready
}

func (s *Socket) logPoll(t0 time.Time, events, ready PollEvents, err error) {
	s.logDone(s.Logger.Debug, "poll", t0, err,
		slog.Int("pollEvents", int(events)),
		slog.Int("pollReady", int(ready)),
		slog.Duration("pollTimeout", s.PollTimeout),
	)
}

// SetNonBlocking toggles non-blocking mode for all subsequent calls.
func (s *Socket) SetNonBlocking(enabled bool) error {
	err := ErrInvalidSocket
	if s.fd != InvalidHandle {
		err = s.Syscalls.SetNonblock(s.fd, enabled)
	}
	s.logDone(s.Logger.Info, "setNonBlocking", s.TimeNow(), err, slog.Bool("nonBlocking", enabled))
	return err
}

// SetNagle enables or disables Nagle's algorithm.
//
// SetNagle(true) enables coalescing of small writes (TCP_NODELAY off);
// SetNagle(false) sends small writes immediately (TCP_NODELAY on).
func (s *Socket) SetNagle(enabled bool) error {
	err := ErrInvalidSocket
	if s.fd != InvalidHandle {
		err = s.Syscalls.SetNoDelay(s.fd, !enabled)
	}
	s.logDone(s.Logger.Info, "setNagle", s.TimeNow(), err, slog.Bool("nagle", enabled))
	return err
}
