package pastemagic

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"", KindEmpty},
		{"   \n\t", KindEmpty},
		{"192.168.1.1", KindIPv4},
		{" 10.0.0.1 ", KindIPv4},
		{"010.001.000.001", KindIPv4},
		{"2001:db8::1", KindIPv6},
		{"::1", KindIPv6},
		{"fe80:0000:0000:0000:0202:b3ff:fe1e:8329", KindIPv6},
		{"192.168.0.0/24", KindCIDR},
		{"2001:db8::/32", KindIPv6CIDR},
		{"*/5 * * * *", KindCron},
		{"0 0 12 * * ?", KindCron},
		{"0 15 10 ? * * 2025", KindCron},
		{"1700000000", KindTimestamp},
		{"1700000000123", KindTimestamp},
		{"2024-01-15", KindDateTime},
		{"2024-01-15 08:30:00", KindDateTime},
		{`{"a":1}`, KindJSON},
		{`{"a":`, KindJSON},
		{`[1,2,3]`, KindJSON},
		{"true", KindJSON},
		{"12345", KindJSON},
		{"https://example.com/path?q=1", KindURL},
		{"HTTP://EXAMPLE.COM", KindURL},
		{"https%3A%2F%2Fexample.com%2Fa", KindURL},
		{"example.com", KindDomain},
		{"sub.example.co.uk", KindDomain},
		{"SGVsbG8gV29ybGQ=", KindEncoded},
		{"hello world", KindEncoded},
		{"%E4%BD%A0%E5%A5%BD", KindEncoded},
	}

	for _, tt := range tests {
		if got := Detect(tt.in); got != tt.want {
			t.Errorf("Detect(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetect_RejectsOutOfRangeOctets(t *testing.T) {
	if got := Detect("256.1.1.1"); got == KindIPv4 {
		t.Errorf("Detect(256.1.1.1) = %q, octets above 255 must not be IPv4", got)
	}
	if got := Detect("192.168.1.300"); got == KindIPv4 {
		t.Errorf("Detect(192.168.1.300) = %q, octets above 255 must not be IPv4", got)
	}
}

func TestDetect_CronBeforeTimestamp(t *testing.T) {
	// Five numeric fields are a cron expression even though they are digits.
	if got := Detect("0 0 1 1 0"); got != KindCron {
		t.Errorf("Detect() = %q, want %q", got, KindCron)
	}
}

func TestDetect_NineDigitsAreJSON(t *testing.T) {
	if got := Detect("123456789"); got != KindJSON {
		t.Errorf("Detect() = %q, want %q", got, KindJSON)
	}
}

func TestKind_Label(t *testing.T) {
	if got := KindCIDR.Label(); got != "IPv4 subnet" {
		t.Errorf("Label() = %q", got)
	}
	if got := Kind("custom").Label(); got != "custom" {
		t.Errorf("Label() of unknown kind = %q, want the raw value", got)
	}
}

func TestKind_IsNetwork(t *testing.T) {
	for _, k := range []Kind{KindIPv4, KindIPv6, KindCIDR, KindIPv6CIDR} {
		if !k.IsNetwork() {
			t.Errorf("%q.IsNetwork() = false", k)
		}
	}
	if KindDomain.IsNetwork() {
		t.Error("domain is resolved by the DNS tool, not the IP tool")
	}
}
