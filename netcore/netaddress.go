package netcore

import (
	"fmt"
	"net"
	"strconv"

	"github.com/btcsuite/btcd/wire"
)

// NetworkAddress is the address type the core moves around: a 16-byte IP
// field, a port, and the optional service bitmask / timestamp a peer
// advertises about itself. wire.NetAddress already carries exactly these
// fields, so the core uses it directly rather than reinventing it.
type NetworkAddress = wire.NetAddress

// addrKey returns the (ip, port) dedup key for a NetworkAddress. Per
// SPEC_FULL.md §3, equality for dedup purposes ignores everything else
// (services, timestamp).
func addrKey(addr NetworkAddress) string {
	return net.JoinHostPort(addr.IP.String(), strconv.FormatUint(uint64(addr.Port), 10))
}

func sameAddr(a, b NetworkAddress) bool {
	return a.IP.Equal(b.IP) && a.Port == b.Port
}

// prettyIPv4 renders the dotted-quad form of an IPv4-mapped 16-byte address
// by reading bytes 12-15 directly, exactly as the original libbitcoin
// pretty() helper does. Non-IPv4-mapped addresses render incorrectly; this
// is a documented limitation (SPEC_FULL.md §9), not a bug to fix here.
func prettyIPv4(ip net.IP) string {
	b := ip.To16()
	if b == nil {
		return ip.String()
	}
	return fmt.Sprintf("%d.%d.%d.%d", b[12], b[13], b[14], b[15])
}
