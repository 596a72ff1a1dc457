// Package classify decides whether an interface address is publicly routable.
//
// Only IPv4 is supported. An address is public when it is outside the
// private and reserved blocks below, outside the RFC 6598 shared address
// space, and outside any extra prefixes the operator excluded.
package classify

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

var (
	ErrInvalidAddress = errors.New("invalid interface address")
	ErrNotIPv4        = errors.New("not an IPv4 address")
)

// SharedAddressSpace is the carrier-grade NAT block from RFC 6598.
var SharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// privateIPv4 lists the blocks reported as private. Documentation networks
// (192.0.2.0/24, 198.51.100.0/24, 203.0.113.0/24) are intentionally absent.
var privateIPv4 = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("255.255.255.255/32"),
}

// globalIPv4 are the globally reachable anycast assignments inside
// 192.0.0.0/24 (RFC 7723 PCP, RFC 8155 TURN).
var globalIPv4 = []netip.Prefix{
	netip.MustParsePrefix("192.0.0.9/32"),
	netip.MustParsePrefix("192.0.0.10/32"),
}

// Classifier holds the exclusion set used by IsPublic.
type Classifier struct {
	excluded []netip.Prefix
}

var defaultClassifier = New()

// New returns a classifier that additionally treats the given prefixes as
// non-public.
func New(extra ...netip.Prefix) *Classifier {
	excluded := make([]netip.Prefix, 0, len(extra))
	for _, p := range extra {
		excluded = append(excluded, p.Masked())
	}
	return &Classifier{excluded: excluded}
}

// IsPublic classifies address with the default classifier.
func IsPublic(address string) (bool, error) {
	return defaultClassifier.IsPublic(address)
}

// IsPublic parses address as an IPv4 interface and reports whether it is
// public.
func (c *Classifier) IsPublic(address string) (bool, error) {
	iface, err := ParseInterface(address)
	if err != nil {
		return false, err
	}

	addr := iface.Addr()
	if IsPrivate(addr) || SharedAddressSpace.Contains(addr) {
		return false, nil
	}
	for _, p := range c.excluded {
		if p.Contains(addr) {
			return false, nil
		}
	}
	return true, nil
}

// ParseInterface parses "a.b.c.d/len" keeping the host bits. A bare address
// is read as a /32.
func ParseInterface(address string) (netip.Prefix, error) {
	address = strings.TrimSpace(address)

	var (
		p   netip.Prefix
		err error
	)
	if strings.Contains(address, "/") {
		p, err = netip.ParsePrefix(address)
	} else {
		var a netip.Addr
		a, err = netip.ParseAddr(address)
		if err == nil {
			p = netip.PrefixFrom(a, a.BitLen())
		}
	}
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w %q: %v", ErrInvalidAddress, address, err)
	}
	if !p.Addr().Is4() {
		return netip.Prefix{}, fmt.Errorf("%w: %s", ErrNotIPv4, address)
	}
	return p, nil
}

// IsPrivate reports whether addr falls in a private or reserved IPv4 block.
func IsPrivate(addr netip.Addr) bool {
	for _, p := range globalIPv4 {
		if p.Contains(addr) {
			return false
		}
	}
	for _, p := range privateIPv4 {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ParsePrefixes parses a list of CIDR prefixes, as used for operator
// exclusions.
func ParsePrefixes(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		p, err := netip.ParsePrefix(v)
		if err != nil {
			return nil, fmt.Errorf("parsing prefix %q: %w", v, err)
		}
		prefixes = append(prefixes, p)
	}
	return prefixes, nil
}
