// SPDX-License-Identifier: GPL-3.0-or-later

package rawsock

import (
	"errors"
	"log/slog"

	"github.com/bassosimone/runtimex"
)

// ErrZeroBytesSent is returned by [*Socket.Send] when the OS reports
// that zero bytes have been transmitted.
var ErrZeroBytesSent = errors.New("zero bytes sent")

// Send performs exactly one send call with the given flags.
//
// On success, the number of bytes actually transmitted is added to
// *total, which tracks the cumulative progress across calls. A single
// call may transmit fewer bytes than len(data): callers loop, passing
// the unsent tail, until *total reaches the full length or an error
// occurs. See [*Socket.SendAll] for such a loop.
//
// Transmitting zero bytes is a failure ([ErrZeroBytesSent]), and so is
// would-block in non-blocking mode (an error wrapping [ErrWouldBlock]).
// On failure *total is not modified.
//
// This method panics if total is nil.
func (s *Socket) Send(data []byte, flags int, total *int) error {
	runtimex.Assert(total != nil)
	t0 := s.TimeNow()
	s.logStart(s.Logger.Debug, "sendStart", t0, slog.Int("ioBufferSize", len(data)))
	count, err := s.send(data, flags)
	if err == nil {
		*total += count
	}
	s.logDone(s.Logger.Debug, "sendDone", t0, err, slog.Int("ioBytesCount", count))
	return err
}

func (s *Socket) send(data []byte, flags int) (int, error) {
	if s.fd == InvalidHandle {
		return 0, ErrInvalidSocket
	}
	count, err := s.Syscalls.Send(s.fd, data, flags)
	if err != nil {
		return 0, err
	}
	if count <= 0 {
		return 0, ErrZeroBytesSent
	}
	return count, nil
}

// SendAll calls [*Socket.Send] until all of data has been transmitted
// or an error occurs.
func (s *Socket) SendAll(data []byte, flags int) error {
	var total int
	for total < len(data) {
		if err := s.Send(data[total:], flags, &total); err != nil {
			return err
		}
	}
	return nil
}

// ReceiveOutcome tells apart the possible results of [*Socket.Receive].
type ReceiveOutcome int

const (
	// ReceiveData means that one or more bytes were received.
	ReceiveData ReceiveOutcome = iota

	// ReceiveClosed means that the peer closed its send direction.
	ReceiveClosed

	// ReceiveWouldBlock means that no data is available in non-blocking mode.
	ReceiveWouldBlock

	// ReceiveError means that the receive call failed.
	ReceiveError
)

// String returns a short name for the outcome.
func (o ReceiveOutcome) String() string {
	switch o {
	case ReceiveData:
		return "data"
	case ReceiveClosed:
		return "closed"
	case ReceiveWouldBlock:
		return "wouldBlock"
	default:
		return "error"
	}
}

// ReceiveResult is the result of [*Socket.Receive].
type ReceiveResult struct {
	// Outcome is the kind of result.
	Outcome ReceiveOutcome

	// Count is the number of bytes received when Outcome is [ReceiveData].
	Count int

	// Err is the error when Outcome is [ReceiveWouldBlock] or [ReceiveError].
	Err error
}

// Receive performs exactly one receive call into buf with the given flags.
//
// The result distinguishes received data, clean peer closure, transient
// unavailability in non-blocking mode, and failure. Like [*Socket.Send],
// a call may return fewer bytes than len(buf). An empty buf yields
// [ReceiveData] with a zero Count without entering the OS.
func (s *Socket) Receive(buf []byte, flags int) ReceiveResult {
	t0 := s.TimeNow()
	s.logStart(s.Logger.Debug, "recvStart", t0, slog.Int("ioBufferSize", len(buf)))
	res := s.receive(buf, flags)
	s.logDone(s.Logger.Debug, "recvDone", t0, res.Err,
		slog.Int("ioBytesCount", res.Count), slog.String("recvOutcome", res.Outcome.String()))
	return res
}

func (s *Socket) receive(buf []byte, flags int) ReceiveResult {
	if s.fd == InvalidHandle {
		return ReceiveResult{Outcome: ReceiveError, Err: ErrInvalidSocket}
	}
	if len(buf) <= 0 {
		return ReceiveResult{Outcome: ReceiveData}
	}
	count, err := s.Syscalls.Recv(s.fd, buf, flags)
	switch {
	case errors.Is(err, ErrWouldBlock):
		return ReceiveResult{Outcome: ReceiveWouldBlock, Err: err}
	case err != nil:
		return ReceiveResult{Outcome: ReceiveError, Err: err}
	case count <= 0:
		return ReceiveResult{Outcome: ReceiveClosed}
	default:
		return ReceiveResult{Outcome: ReceiveData, Count: count}
	}
}
