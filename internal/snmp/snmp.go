// Package snmp reads interface names and IPv4 addresses from a device over
// SNMP so they can be stored for classification.
package snmp

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/martinsuchenak/edgetag/internal/log"
	"github.com/martinsuchenak/edgetag/internal/model"
)

const (
	oidIfDescr        = ".1.3.6.1.2.1.2.2.1.2"
	oidIfName         = ".1.3.6.1.2.1.31.1.1.1.1"
	oidIPAdEntIfIndex = ".1.3.6.1.2.1.4.20.1.2"
	oidIPAdEntNetMask = ".1.3.6.1.2.1.4.20.1.3"
)

// Walker is the subset of gosnmp used by the collector
type Walker interface {
	BulkWalkAll(rootOid string) ([]gosnmp.SnmpPDU, error)
}

// Options configure an SNMP v2c session
type Options struct {
	Target    string
	Port      uint16
	Community string
	Timeout   time.Duration
	Retries   int
}

// Collector reads the interface table of one agent
type Collector struct {
	walker Walker
}

// NewCollector wraps an existing walker
func NewCollector(w Walker) *Collector {
	return &Collector{walker: w}
}

// Dial opens an SNMP session. The returned close function releases the
// socket.
func Dial(ctx context.Context, opts Options) (*Collector, func() error, error) {
	if opts.Port == 0 {
		opts.Port = 161
	}
	if opts.Community == "" {
		opts.Community = "public"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}

	g := &gosnmp.GoSNMP{
		Target:             opts.Target,
		Port:               opts.Port,
		Community:          opts.Community,
		Version:            gosnmp.Version2c,
		Timeout:            opts.Timeout,
		Retries:            opts.Retries,
		MaxRepetitions:     gosnmp.Default.MaxRepetitions,
		ExponentialTimeout: true,
		Context:            ctx,
	}
	if err := g.Connect(); err != nil {
		return nil, nil, fmt.Errorf("connecting to %s: %w", opts.Target, err)
	}

	return NewCollector(g), g.Conn.Close, nil
}

type ifAddress struct {
	ifIndex int
	prefix  netip.Prefix
}

// Interfaces returns every interface that carries at least one IPv4
// address, ordered by ifIndex. Addresses are reported active.
func (c *Collector) Interfaces() ([]model.Interface, error) {
	names, err := c.interfaceNames()
	if err != nil {
		return nil, err
	}

	indexPDUs, err := c.walker.BulkWalkAll(oidIPAdEntIfIndex)
	if err != nil {
		return nil, fmt.Errorf("walking ipAdEntIfIndex: %w", err)
	}
	maskPDUs, err := c.walker.BulkWalkAll(oidIPAdEntNetMask)
	if err != nil {
		return nil, fmt.Errorf("walking ipAdEntNetMask: %w", err)
	}

	masks := make(map[string]int, len(maskPDUs))
	for _, pdu := range maskPDUs {
		ip := suffix(pdu.Name, oidIPAdEntNetMask)
		bits, ok := maskBits(pdu.Value)
		if !ok {
			log.Warn("Ignoring unusable netmask", "address", ip, "value", pdu.Value)
			continue
		}
		masks[ip] = bits
	}

	var addrs []ifAddress
	for _, pdu := range indexPDUs {
		ip := suffix(pdu.Name, oidIPAdEntIfIndex)
		addr, err := netip.ParseAddr(ip)
		if err != nil || !addr.Is4() {
			log.Warn("Ignoring address with unexpected index", "oid", pdu.Name)
			continue
		}
		bits, ok := masks[ip]
		if !ok {
			bits = 32
		}
		addrs = append(addrs, ifAddress{
			ifIndex: int(gosnmp.ToBigInt(pdu.Value).Int64()),
			prefix:  netip.PrefixFrom(addr, bits),
		})
	}

	return buildInterfaces(names, addrs), nil
}

// interfaceNames maps ifIndex to ifName, falling back to ifDescr
func (c *Collector) interfaceNames() (map[int]string, error) {
	names := map[int]string{}

	descr, err := c.walker.BulkWalkAll(oidIfDescr)
	if err != nil {
		return nil, fmt.Errorf("walking ifDescr: %w", err)
	}
	collectNames(names, descr, oidIfDescr)

	// ifXTable is optional on older agents
	ifName, err := c.walker.BulkWalkAll(oidIfName)
	if err != nil {
		log.Debug("ifName walk failed, using ifDescr", "error", err)
		return names, nil
	}
	collectNames(names, ifName, oidIfName)

	return names, nil
}

func collectNames(names map[int]string, pdus []gosnmp.SnmpPDU, root string) {
	for _, pdu := range pdus {
		idx, err := strconv.Atoi(suffix(pdu.Name, root))
		if err != nil {
			continue
		}
		b, ok := pdu.Value.([]byte)
		if !ok || len(b) == 0 {
			continue
		}
		names[idx] = string(b)
	}
}

func buildInterfaces(names map[int]string, addrs []ifAddress) []model.Interface {
	byIndex := map[int][]netip.Prefix{}
	for _, a := range addrs {
		byIndex[a.ifIndex] = append(byIndex[a.ifIndex], a.prefix)
	}

	indexes := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	interfaces := make([]model.Interface, 0, len(indexes))
	for _, idx := range indexes {
		prefixes := byIndex[idx]
		sort.Slice(prefixes, func(i, j int) bool {
			return prefixes[i].Addr().Less(prefixes[j].Addr())
		})

		name, ok := names[idx]
		if !ok {
			name = "if" + strconv.Itoa(idx)
		}
		iface := model.Interface{Name: name}
		for _, p := range prefixes {
			iface.Addresses = append(iface.Addresses, model.IPAddress{
				Address: p.String(),
				Status:  model.AddressStatusActive,
			})
		}
		interfaces = append(interfaces, iface)
	}
	return interfaces
}

// suffix strips root and the separating dot from oid
func suffix(oid, root string) string {
	return strings.TrimPrefix(strings.TrimPrefix(oid, root), ".")
}

// maskBits converts a dotted netmask to a prefix length
func maskBits(value any) (int, bool) {
	s, ok := value.(string)
	if !ok {
		return 0, false
	}
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return 0, false
	}
	ones, bits := net.IPMask(addr.AsSlice()).Size()
	if bits == 0 {
		return 0, false
	}
	return ones, true
}
