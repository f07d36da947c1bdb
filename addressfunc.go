// SPDX-License-Identifier: GPL-3.0-or-later

package rawsock

import "net/netip"

// NewAddressFunc returns a [Func] that always returns the same [*AddressList]
// built from the given endpoints.
//
// Use it as the first stage of a pipeline. Since every call returns the
// same shared address, sockets created by subsequent stages share it too.
func NewAddressFunc(endpoints ...netip.AddrPort) Func[Unit, Address] {
	return ConstFunc[Address](NewAddress(endpoints...))
}
