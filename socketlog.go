// SPDX-License-Identifier: GPL-3.0-or-later

package rawsock

import (
	"log/slog"
	"time"
)

// logStart emits a *Start event (or a single-shot event) using logfn.
//
// Pass s.Logger.Info or s.Logger.Debug as logfn.
func (s *Socket) logStart(logfn func(msg string, args ...any), event string, t0 time.Time, extra ...slog.Attr) {
	args := s.commonLogArgs()
	args = append(args, slog.Time("t", t0))
	for _, attr := range extra {
		args = append(args, attr)
	}
	logfn(event, args...)
}

// logDone emits a *Done event using logfn.
//
// The errCode field contains the platform error number, if any.
func (s *Socket) logDone(logfn func(msg string, args ...any), event string, t0 time.Time, err error, extra ...slog.Attr) {
	args := s.commonLogArgs()
	args = append(args,
		slog.Any("err", err),
		slog.String("errClass", s.ErrClassifier.Classify(err)),
		slog.Int("errCode", ErrCode(err)),
		slog.Time("t0", t0),
		slog.Time("t", s.TimeNow()),
	)
	for _, attr := range extra {
		args = append(args, attr)
	}
	logfn(event, args...)
}

// commonLogArgs returns the fields shared by all the socket events.
func (s *Socket) commonLogArgs() []any {
	return []any{
		slog.String("address", s.addressAttr()),
		slog.Int64("fd", s.fdAttr()),
		slog.String("protocol", "tcp"),
	}
}

// addressAttr returns the current candidate endpoint or "".
func (s *Socket) addressAttr() string {
	if s.address == nil {
		return ""
	}
	candidate, ok := s.address.Current()
	if !ok {
		return ""
	}
	return candidate.AddrPort.String()
}

// fdAttr returns the handle as a number, using -1 for invalid or nil sockets.
func (s *Socket) fdAttr() int64 {
	if s == nil || s.fd == InvalidHandle {
		return -1
	}
	return int64(s.fd)
}
