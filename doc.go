// SPDX-License-Identifier: GPL-3.0-or-later

// Package rawsock provides a cross-platform abstraction over OS stream
// sockets (BSD sockets on Unix, Winsock on Windows).
//
// It is meant to be the transport layer beneath client/server code that
// wants explicit control over the socket lifecycle, blocking mode and
// readiness, rather than the [net.Conn] abstraction.
//
// # Core Abstraction
//
// A [*Socket] owns exactly one native [Handle]. It is created either
// from the current candidate of an [Address] ([NewSocket]) or by wrapping
// a handle returned by accept ([WrapSocket], [*Socket.Accept]), and it
// exposes explicit state transitions:
//
//   - [*Socket.Bind], [*Socket.Listen], [*Socket.Accept] for servers
//   - [*Socket.Connect] for clients
//   - [*Socket.Send] and [*Socket.Receive] for I/O
//   - [*Socket.IsReadable], [*Socket.IsWritable], [*Socket.IsInvalid]
//     for bounded readiness polls
//   - [*Socket.SetNonBlocking] and [*Socket.SetNagle] for modes
//   - [*Socket.Close] for best-effort release
//
// The caller is responsible for sequencing these operations.
//
// # Partial I/O
//
// [*Socket.Send] performs exactly one send call and adds the bytes
// actually transmitted to a caller-supplied running total. Callers loop
// on the unsent tail until the total reaches the buffer length (see
// [*Socket.SendAll]). [*Socket.Receive] performs exactly one receive call
// and returns a [ReceiveResult] telling apart data, peer closure,
// would-block and failure.
//
// # Non-blocking Connect
//
// In non-blocking mode [*Socket.Connect] returns as soon as the OS has
// started the handshake. Poll [*Socket.IsWritable] until it is true and
// then check [*Socket.PendingError]. [*AwaitConnectFunc] implements this
// protocol honouring a context.
//
// # Platforms
//
// All OS calls go through the [Syscalls] interface. [DefaultSyscalls]
// returns the implementation selected at build time: one based on
// golang.org/x/sys/unix and one based on golang.org/x/sys/windows.
//
// # Pipelines
//
// [OpenFunc], [NonBlockingFunc], [ListenFunc], [ConnectFunc] and
// [AwaitConnectFunc] implement [Func] and can be chained with [Compose2]
// through [Compose5]. Each stage closes its input socket on failure.
//
// # Observability
//
// Sockets emit structured events via [SLogger] (compatible with [log/slog]).
// By default logging is disabled. Lifecycle events (socketStart/Done,
// bindStart/Done, connectStart/Done, ...) use [slog.LevelInfo]; I/O and
// poll events use [slog.LevelDebug]. Done events carry err, errClass
// (see [ErrClassifier]) and errCode, the platform error number.
//
// # Concurrency
//
// A [*Socket] must be owned by a single goroutine. An [Address] is
// read-only from the socket's point of view and may be shared.
package rawsock
