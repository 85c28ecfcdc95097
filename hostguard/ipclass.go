package hostguard

import "net"

// Pre-compiled CIDR networks for private/reserved IP ranges.
// These are parsed once at package initialization for efficiency.
var (
	cgnat    *net.IPNet // 100.64.0.0/10 - Carrier-grade NAT
	v6unique *net.IPNet // fc00::/7 - IPv6 unique local
	v6link   *net.IPNet // fe80::/10 - IPv6 link-local
)

func init() {
	var err error

	_, cgnat, err = net.ParseCIDR("100.64.0.0/10")
	if err != nil {
		panic("invalid CGNAT CIDR: " + err.Error())
	}

	_, v6unique, err = net.ParseCIDR("fc00::/7")
	if err != nil {
		panic("invalid IPv6 unique local CIDR: " + err.Error())
	}

	_, v6link, err = net.ParseCIDR("fe80::/10")
	if err != nil {
		panic("invalid IPv6 link-local CIDR: " + err.Error())
	}
}

// IsPrivateIP reports whether ip is in a private or reserved range.
// It handles IPv4, IPv6, and IPv6-mapped IPv4 addresses, and is total:
// any address not matched by a private range is public.
//
// IPv4 private ranges: 0.0.0.0/8, 10.0.0.0/8, 127.0.0.0/8, 169.254.0.0/16,
// 172.16.0.0/12, 192.168.0.0/16, and 100.64.0.0/10 (CGNAT).
// IPv6 private ranges: loopback, unspecified, fc00::/7, fe80::/10.
func IsPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsUnspecified() || ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	// Unwrap IPv6-mapped IPv4 addresses (::ffff:x.x.x.x) so the IPv4
	// ranges below apply to them as well.
	if v4 := ip.To4(); v4 != nil {
		ip = v4
		if ip.IsLoopback() || ip.IsUnspecified() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
			return true
		}
		// 0.0.0.0/8 "this network"
		if ip[0] == 0 {
			return true
		}
		return cgnat.Contains(ip)
	}

	return v6unique.Contains(ip) || v6link.Contains(ip)
}
