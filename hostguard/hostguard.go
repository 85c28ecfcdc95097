// Package hostguard decides whether an outbound host may be contacted.
// It implements SSRF prevention including private IP detection and
// per-target DNS screening.
package hostguard

import (
	"context"
	"net"
	"strings"
)

// Resolver resolves a hostname to candidate IP addresses. It is satisfied
// by *net.Resolver and can be replaced in tests.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Rules holds the host admission policy. The zero value denies localhost
// and anything that is, or resolves to, a private address.
type Rules struct {
	// AllowedHosts, when non-empty, fully defines the allow set. Hosts are
	// compared case-insensitively by exact match and no further checks run,
	// including private-IP screening: listing a host is an explicit
	// operator override.
	AllowedHosts []string

	// AllowPrivate disables localhost and private-IP screening entirely.
	AllowPrivate bool

	// Resolver overrides DNS resolution for hostname targets.
	// Nil means net.DefaultResolver.
	Resolver Resolver
}

// Denial reasons. Stable strings: they surface in errors and metric labels.
const (
	ReasonMissingHost      = "missing host"
	ReasonNotInAllowlist   = "not in allowlist"
	ReasonLocalHost        = "local host blocked"
	ReasonPrivateIP        = "private IP blocked"
	ReasonResolutionFailed = "resolution failed"
	ReasonResolvesPrivate  = "resolves to private IP"
)

// Decision is the outcome of evaluating a host against Rules.
type Decision struct {
	Allowed bool
	// Reason explains a denial. Empty when Allowed.
	Reason string
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(r string) Decision { return Decision{Reason: r} }

// Evaluate decides whether host may be contacted under rules. It is run
// fresh for every redirect hop; results must never be cached across hops
// because a safe host can redirect to an unsafe one.
//
// Rule order, first match wins:
//  1. allowlist set: exact match allows, anything else denies
//  2. AllowPrivate: allows
//  3. localhost and *.localhost: denies
//  4. IP literal: denied iff private
//  5. hostname: resolved; denied if resolution fails, yields no addresses,
//     or any returned address is private
//
// The conservative any-private-address rule exists because the attacker
// controls the DNS answer set while the client does not control which
// record the transport picks. A resolved answer can still change between
// this check and the actual connection; that rebinding window is a known,
// accepted residual risk.
func Evaluate(ctx context.Context, host string, rules Rules) Decision {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" {
		return deny(ReasonMissingHost)
	}

	if len(rules.AllowedHosts) > 0 {
		for _, allowed := range rules.AllowedHosts {
			if strings.ToLower(allowed) == h {
				return allow()
			}
		}
		return deny(ReasonNotInAllowlist)
	}

	if rules.AllowPrivate {
		return allow()
	}

	if h == "localhost" || strings.HasSuffix(h, ".localhost") {
		return deny(ReasonLocalHost)
	}

	if ip := net.ParseIP(h); ip != nil {
		if IsPrivateIP(ip) {
			return deny(ReasonPrivateIP)
		}
		return allow()
	}

	resolver := rules.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupIPAddr(ctx, h)
	if err != nil {
		return deny(ReasonResolutionFailed)
	}
	if len(addrs) == 0 {
		return deny(ReasonResolutionFailed)
	}
	for _, addr := range addrs {
		if IsPrivateIP(addr.IP) {
			return deny(ReasonResolvesPrivate)
		}
	}
	return allow()
}
