package pastemagic

import "testing"

func TestSecretMasker(t *testing.T) {
	m := SecretMasker()
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "*****"},
		{"twelve chars", "************"},
		{"0123456789abcdef0123", "0123************0123"},
	}
	for _, tt := range tests {
		if got := m.Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPEMMasker(t *testing.T) {
	in := "-----BEGIN PUBLIC KEY-----\nMIIBIjANBgkq\nhkiG9w0BAQEF\n-----END PUBLIC KEY-----\n"
	want := "-----BEGIN PUBLIC KEY-----\n****\n-----END PUBLIC KEY-----"

	if got := PEMMasker().Mask(in); got != want {
		t.Errorf("Mask() = %q, want %q", got, want)
	}
}

func TestPEMMasker_FallsBackToSecret(t *testing.T) {
	if got := PEMMasker().Mask("0123456789abcdef0123"); got != "0123************0123" {
		t.Errorf("Mask() = %q", got)
	}
}

func TestIPMasker(t *testing.T) {
	m := IPMasker()
	tests := []struct {
		in   string
		want string
	}{
		{"192.168.1.100", "192.168.xxx.xxx"},
		{"2001:db8:85a3::8a2e:370:7334", "2001:0db8:85a3:0000:xxxx:xxxx:xxxx:xxxx"},
		{"garbage", "*******"},
	}
	for _, tt := range tests {
		if got := m.Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
