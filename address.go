// SPDX-License-Identifier: GPL-3.0-or-later

package rawsock

import (
	"net/netip"
	"sync/atomic"
)

// Family is a portable address family.
//
// The platform layer translates it to AF_INET, AF_INET6, etc.
type Family int

const (
	// FamilyUnspec is the zero value and is rejected by the platform layer.
	FamilyUnspec Family = iota

	// FamilyINET is the IPv4 family.
	FamilyINET

	// FamilyINET6 is the IPv6 family.
	FamilyINET6
)

// String returns the conventional name of the family.
func (f Family) String() string {
	switch f {
	case FamilyINET:
		return "inet"
	case FamilyINET6:
		return "inet6"
	default:
		return "unspec"
	}
}

// SockType is a portable socket type.
type SockType int

// SockStream is a reliable byte stream (SOCK_STREAM).
const SockStream SockType = 1

// Protocol is a portable transport protocol.
type Protocol int

const (
	// ProtocolDefault lets the OS pick the protocol for the socket type.
	ProtocolDefault Protocol = iota

	// ProtocolTCP is IPPROTO_TCP.
	ProtocolTCP
)

// Candidate is a single resolved endpoint of an [Address].
//
// It carries everything needed to create a socket and to bind or
// connect it: the platform layer derives the native sockaddr and its
// length from AddrPort.
type Candidate struct {
	// Family is the address family.
	Family Family

	// SockType is the socket type.
	SockType SockType

	// Protocol is the transport protocol.
	Protocol Protocol

	// AddrPort is the endpoint.
	AddrPort netip.AddrPort
}

// NewCandidate returns a TCP stream [Candidate] for the given endpoint.
//
// IPv4-mapped IPv6 addresses are unmapped, so that ::ffff:127.0.0.1
// yields an IPv4 candidate.
func NewCandidate(endpoint netip.AddrPort) Candidate {
	addr := endpoint.Addr().Unmap()
	family := FamilyUnspec
	switch {
	case addr.Is4():
		family = FamilyINET
	case addr.Is6():
		family = FamilyINET6
	}
	return Candidate{
		Family:   family,
		SockType: SockStream,
		Protocol: ProtocolTCP,
		AddrPort: netip.AddrPortFrom(addr, endpoint.Port()),
	}
}

// Address is an ordered set of resolved candidate endpoints.
//
// A [*Socket] only reads the current candidate and never advances it:
// moving to the next candidate (e.g., after a failed connect) is up to
// the caller. The same Address may be shared by many sockets, including
// the sockets returned by [*Socket.Accept].
type Address interface {
	// Current returns the current candidate or false if there is none.
	Current() (Candidate, bool)
}

// AddressList is an [Address] backed by a fixed slice of candidates.
//
// The candidate cursor is safe for concurrent use.
type AddressList struct {
	candidates []Candidate
	index      atomic.Int64
}

var _ Address = &AddressList{}

// NewAddress returns an [*AddressList] containing a TCP stream
// [Candidate] for each endpoint, in order.
func NewAddress(endpoints ...netip.AddrPort) *AddressList {
	al := &AddressList{}
	for _, epnt := range endpoints {
		al.candidates = append(al.candidates, NewCandidate(epnt))
	}
	return al
}

// NewAddressFromCandidates returns an [*AddressList] using the given candidates.
func NewAddressFromCandidates(candidates ...Candidate) *AddressList {
	return &AddressList{candidates: candidates}
}

// Current implements [Address].
func (al *AddressList) Current() (Candidate, bool) {
	idx := al.index.Load()
	if idx < 0 || idx >= int64(len(al.candidates)) {
		return Candidate{}, false
	}
	return al.candidates[idx], true
}

// Next advances to the next candidate and reports whether one exists.
//
// Once the list is exhausted, [*AddressList.Current] returns false
// until [*AddressList.Reset] is called.
func (al *AddressList) Next() bool {
	size := int64(len(al.candidates))
	for {
		idx := al.index.Load()
		if idx >= size {
			return false
		}
		if al.index.CompareAndSwap(idx, idx+1) {
			return idx+1 < size
		}
	}
}

// Reset moves the cursor back to the first candidate.
func (al *AddressList) Reset() {
	al.index.Store(0)
}

// Len returns the number of candidates.
func (al *AddressList) Len() int {
	return len(al.candidates)
}
