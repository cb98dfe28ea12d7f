package netutil

import (
	"net"
)

// SubnetKey groups an address with its neighbours: the /24 for IPv4 and the /48 for IPv6.
// Unparseable input yields "".
func SubnetKey(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if v4 := parsed.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String() + "/24"
	}
	return parsed.Mask(net.CIDRMask(48, 128)).String() + "/48"
}

// SameSubnet reports whether two players connect from the same network. Unknown addresses never match.
func SameSubnet(ip1, ip2 string) bool {
	a, b := SubnetKey(ip1), SubnetKey(ip2)
	return a != "" && a == b
}
