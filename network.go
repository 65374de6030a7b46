package pastemagic

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"net/netip"
	"regexp"
	"strconv"
	"strings"
)

var (
	reIPv4         = regexp.MustCompile(`^((25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)
	reIPv6Full     = regexp.MustCompile(`^([0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}$`)
	reIPv6Compress = regexp.MustCompile(`^(([0-9a-fA-F]{1,4}:){1,7}:|:(([0-9a-fA-F]{1,4}:){1,7}|:)|([0-9a-fA-F]{1,4}:){1,6}:[0-9a-fA-F]{1,4}|([0-9a-fA-F]{1,4}:){1,5}(:[0-9a-fA-F]{1,4}){1,2}|([0-9a-fA-F]{1,4}:){1,4}(:[0-9a-fA-F]{1,4}){1,3}|([0-9a-fA-F]{1,4}:){1,3}(:[0-9a-fA-F]{1,4}){1,4}|([0-9a-fA-F]{1,4}:){1,2}(:[0-9a-fA-F]{1,4}){1,5}|[0-9a-fA-F]{1,4}:((:[0-9a-fA-F]{1,4}){1,6})|:((:[0-9a-fA-F]{1,4}){1,7}|:))$`)
	reCIDR         = regexp.MustCompile(`^((25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)/([1-9]|[12][0-9]|3[0-2])$`)
	rePrefixLen    = regexp.MustCompile(`^\d{1,3}$`)
)

// IPKind is the classification applied by the IP tool.
type IPKind string

const (
	IPKindIPv4     IPKind = "ipv4"
	IPKindIPv6     IPKind = "ipv6"
	IPKindCIDR     IPKind = "cidr"
	IPKindIPv6CIDR IPKind = "ipv6cidr"
	IPKindInvalid  IPKind = "invalid"
)

// IsValidIPv4 reports whether s is a dotted-quad IPv4 address.
// Octets above 255 are rejected; leading zeros are tolerated.
func IsValidIPv4(s string) bool {
	return reIPv4.MatchString(s)
}

// IsValidIPv6 reports whether s is an IPv6 address in full or compressed
// hexadecimal notation. Embedded IPv4 suffixes and zones are not accepted.
func IsValidIPv6(s string) bool {
	return reIPv6Full.MatchString(s) || reIPv6Compress.MatchString(s)
}

// IsValidCIDR reports whether s is an IPv4 network in CIDR notation with a
// prefix length between 1 and 32.
func IsValidCIDR(s string) bool {
	return reCIDR.MatchString(s)
}

// IsValidIPv6CIDR reports whether s is an IPv6 address followed by a prefix
// length between 0 and 128.
func IsValidIPv6CIDR(s string) bool {
	addr, prefix, ok := strings.Cut(s, "/")
	if !ok || !rePrefixLen.MatchString(prefix) {
		return false
	}
	n, err := strconv.Atoi(prefix)
	if err != nil || n > 128 {
		return false
	}
	return IsValidIPv6(addr)
}

// IsValidDomain reports whether s is an ASCII host name with at least two
// labels and an alphabetic top-level label. Internationalized names must be
// converted to their punycode form first.
func IsValidDomain(s string) bool {
	return reDomain.MatchString(strings.TrimSpace(s))
}

// ClassifyIP applies the IP tool's own priority, which differs from Detect:
// prefixes are recognized before bare addresses.
func ClassifyIP(s string) IPKind {
	s = strings.TrimSpace(s)
	switch {
	case IsValidIPv6CIDR(s):
		return IPKindIPv6CIDR
	case IsValidCIDR(s):
		return IPKindCIDR
	case IsValidIPv6(s):
		return IPKindIPv6
	case IsValidIPv4(s):
		return IPKindIPv4
	default:
		return IPKindInvalid
	}
}

// CIDRInfo describes an IPv4 network.
type CIDRInfo struct {
	NetworkAddress   string `json:"networkAddress" yaml:"networkAddress" xml:"networkAddress"`
	SubnetMask       string `json:"subnetMask" yaml:"subnetMask" xml:"subnetMask"`
	PrefixLength     int    `json:"prefixLength" yaml:"prefixLength" xml:"prefixLength"`
	TotalIPCount     uint64 `json:"totalIPCount" yaml:"totalIPCount" xml:"totalIPCount"`
	UsableIPCount    uint64 `json:"usableIPCount" yaml:"usableIPCount" xml:"usableIPCount"`
	StartIP          string `json:"startIP" yaml:"startIP" xml:"startIP"`
	EndIP            string `json:"endIP" yaml:"endIP" xml:"endIP"`
	BroadcastAddress string `json:"broadcastAddress" yaml:"broadcastAddress" xml:"broadcastAddress"`
}

// ParseCIDR computes the subnet facts of an IPv4 network such as
// "192.168.1.0/24". The host part of the input address is masked off.
//
// Usable hosts exclude the network and broadcast addresses, except for /31
// (two point-to-point hosts) and /32 (a single host).
func ParseCIDR(cidr string) (*CIDRInfo, error) {
	cidr = strings.TrimSpace(cidr)
	if !IsValidCIDR(cidr) {
		return nil, fmt.Errorf("%w: %q is not an IPv4 CIDR", ErrInvalidInput, cidr)
	}

	addrPart, prefixPart, _ := strings.Cut(cidr, "/")
	prefixLen, _ := strconv.Atoi(prefixPart)

	var octets [4]byte
	for i, p := range strings.Split(addrPart, ".") {
		n, _ := strconv.Atoi(p)
		octets[i] = byte(n)
	}

	ip := binary.BigEndian.Uint32(octets[:])
	mask := ^uint32(0) << (32 - prefixLen)
	network := ip & mask
	broadcast := network | ^mask
	total := uint64(1) << (32 - prefixLen)

	info := &CIDRInfo{
		NetworkAddress:   uint32ToIPv4(network),
		SubnetMask:       uint32ToIPv4(mask),
		PrefixLength:     prefixLen,
		TotalIPCount:     total,
		BroadcastAddress: uint32ToIPv4(broadcast),
	}

	switch prefixLen {
	case 32:
		info.UsableIPCount = 1
		info.StartIP = info.NetworkAddress
		info.EndIP = info.NetworkAddress
	case 31:
		info.UsableIPCount = 2
		info.StartIP = info.NetworkAddress
		info.EndIP = info.BroadcastAddress
	default:
		info.UsableIPCount = total - 2
		info.StartIP = uint32ToIPv4(network + 1)
		info.EndIP = uint32ToIPv4(broadcast - 1)
	}

	return info, nil
}

func uint32ToIPv4(v uint32) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b).String()
}

// IPv6CIDRInfo describes an IPv6 network. Address counts are decimal strings
// because they overflow every fixed-size integer.
type IPv6CIDRInfo struct {
	NetworkAddress  string `json:"networkAddress" yaml:"networkAddress" xml:"networkAddress"`
	LastAddress     string `json:"lastAddress" yaml:"lastAddress" xml:"lastAddress"`
	PrefixLength    int    `json:"prefixLength" yaml:"prefixLength" xml:"prefixLength"`
	TotalAddresses  string `json:"totalAddresses" yaml:"totalAddresses" xml:"totalAddresses"`
	UsableAddresses string `json:"usableAddresses" yaml:"usableAddresses" xml:"usableAddresses"`
}

// ParseIPv6CIDR computes the facts of an IPv6 network such as "2001:db8::/32".
func ParseIPv6CIDR(cidr string) (*IPv6CIDRInfo, error) {
	cidr = strings.TrimSpace(cidr)
	if !IsValidIPv6CIDR(cidr) {
		return nil, fmt.Errorf("%w: %q is not an IPv6 CIDR", ErrInvalidInput, cidr)
	}

	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	prefix = prefix.Masked()
	bits := prefix.Bits()

	total := new(big.Int).Lsh(big.NewInt(1), uint(128-bits))
	usable := big.NewInt(0)
	if total.Cmp(big.NewInt(2)) > 0 {
		usable.Sub(total, big.NewInt(2))
	}

	netBytes := prefix.Addr().As16()
	last := new(big.Int).SetBytes(netBytes[:])
	last.Add(last, new(big.Int).Sub(total, big.NewInt(1)))
	var lastBytes [16]byte
	last.FillBytes(lastBytes[:])

	return &IPv6CIDRInfo{
		NetworkAddress:  prefix.Addr().String(),
		LastAddress:     netip.AddrFrom16(lastBytes).String(),
		PrefixLength:    bits,
		TotalAddresses:  total.String(),
		UsableAddresses: usable.String(),
	}, nil
}
