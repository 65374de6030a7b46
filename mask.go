package pastemagic

import (
	"net/netip"
	"strings"
)

// MaskType represents a known data format with masking rules.
type MaskType string

const (
	MaskSecret MaskType = "secret" // 0123456789abcdef0123 -> 0123************0123
	MaskPEM    MaskType = "pem"    // keeps the BEGIN/END lines, masks the body
	MaskIP     MaskType = "ip"     // 192.168.1.100 -> 192.168.xxx.xxx
)

// Masker applies content-aware masking.
type Masker interface {
	// Mask applies masking to the value.
	Mask(value string) string
}

// secretMasker masks key material, keeping four characters at each end of
// long values.
type secretMasker struct{}

// SecretMasker returns a masker for keys and IVs.
// Values of 12 characters or fewer are masked entirely.
func SecretMasker() Masker {
	return &secretMasker{}
}

func (m *secretMasker) Mask(value string) string {
	runes := []rune(value)
	if len(runes) <= 12 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:4]) + strings.Repeat("*", len(runes)-8) + string(runes[len(runes)-4:])
}

// pemMasker masks PEM bodies.
type pemMasker struct{}

// PEMMasker returns a masker for PEM blocks. Armor lines survive so the key
// type stays visible; other text falls back to the secret masker.
func PEMMasker() Masker {
	return &pemMasker{}
}

func (m *pemMasker) Mask(value string) string {
	if !strings.Contains(value, "-----BEGIN") {
		return SecretMasker().Mask(value)
	}

	lines := strings.Split(strings.TrimSpace(value), "\n")
	out := make([]string, 0, 3)
	body := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "-----") {
			out = append(out, line)
			body = false
			continue
		}
		if !body {
			out = append(out, "****")
			body = true
		}
	}
	return strings.Join(out, "\n")
}

// ipMasker masks IP addresses.
// IPv4: 192.168.1.100 -> 192.168.xxx.xxx
// IPv6: 2001:db8:85a3::8a2e:370:7334 -> 2001:0db8:85a3:0000:xxxx:xxxx:xxxx:xxxx
type ipMasker struct{}

// IPMasker returns a masker for IP addresses.
// IPv4 keeps the first two octets; IPv6 keeps the 64-bit network prefix.
func IPMasker() Masker {
	return &ipMasker{}
}

func (m *ipMasker) Mask(value string) string {
	if parts := strings.Split(value, "."); len(parts) == 4 {
		return parts[0] + "." + parts[1] + ".xxx.xxx"
	}

	if strings.Contains(value, ":") {
		addr, err := netip.ParseAddr(value)
		if err == nil && addr.Is6() {
			groups := strings.Split(addr.StringExpanded(), ":")
			return strings.Join(groups[:4], ":") + ":xxxx:xxxx:xxxx:xxxx"
		}
	}

	return strings.Repeat("*", len(value))
}

// builtinMaskers returns the default masker registry.
func builtinMaskers() map[MaskType]Masker {
	return map[MaskType]Masker{
		MaskSecret: SecretMasker(),
		MaskPEM:    PEMMasker(),
		MaskIP:     IPMasker(),
	}
}
