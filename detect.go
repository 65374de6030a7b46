package pastemagic

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	reDigitsDots  = regexp.MustCompile(`^[\d.]+$`)
	reDigits      = regexp.MustCompile(`^\d+$`)
	reCronField   = regexp.MustCompile(`^[\d*/,\-?]+$`)
	reTimestamp   = regexp.MustCompile(`^(\d{10}|\d{13})$`)
	reDateTime    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(\s+\d{2}:\d{2}:\d{2})?$`)
	rePercentByte = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)
	reDomain      = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?)*\.[a-zA-Z]{2,}$`)

	// Text that looks like a JSON fragment even when it does not parse.
	jsonIndicators = []*regexp.Regexp{
		regexp.MustCompile(`^\s*\{`),
		regexp.MustCompile(`\}\s*$`),
		regexp.MustCompile(`"[^"]*":`),
		regexp.MustCompile(`\[\s*\]`),
		regexp.MustCompile(`\{\s*\}`),
	}
)

type detector func(string) (Kind, bool)

// Ordered cascade, first match wins. Network shapes are the most specific
// and run first; the domain check must come after URLs, and everything that
// matches nothing is handed to the encode tool.
var detectors = []detector{
	detectIPv4,
	detectIPv6,
	detectCIDR,
	detectIPv6CIDR,
	detectCron,
	detectTimestamp,
	detectDateTime,
	detectJSON,
	detectURL,
	detectEncodedURL,
	detectDomain,
}

// Detect classifies pasted content. Surrounding whitespace is ignored.
func Detect(content string) Kind {
	s := strings.TrimSpace(content)
	if s == "" {
		return KindEmpty
	}

	for _, detect := range detectors {
		if kind, ok := detect(s); ok {
			return kind
		}
	}

	return KindEncoded
}

func detectIPv4(s string) (Kind, bool) {
	return KindIPv4, IsValidIPv4(s)
}

func detectIPv6(s string) (Kind, bool) {
	if !strings.Contains(s, ":") || reDigitsDots.MatchString(s) {
		return "", false
	}
	return KindIPv6, IsValidIPv6(s)
}

func detectCIDR(s string) (Kind, bool) {
	if !strings.Contains(s, "/") {
		return "", false
	}
	return KindCIDR, IsValidCIDR(s)
}

func detectIPv6CIDR(s string) (Kind, bool) {
	if !strings.Contains(s, ":") || !strings.Contains(s, "/") {
		return "", false
	}
	return KindIPv6CIDR, IsValidIPv6CIDR(s)
}

// detectCron accepts 5 fields (standard), 6 (with seconds) and 7 (Quartz,
// with seconds and year).
func detectCron(s string) (Kind, bool) {
	fields := strings.Fields(s)
	if len(fields) < 5 || len(fields) > 7 {
		return "", false
	}
	for _, f := range fields {
		if !reCronField.MatchString(f) {
			return "", false
		}
	}
	return KindCron, true
}

func detectTimestamp(s string) (Kind, bool) {
	return KindTimestamp, reTimestamp.MatchString(s)
}

func detectDateTime(s string) (Kind, bool) {
	return KindDateTime, reDateTime.MatchString(s)
}

// detectJSON claims text with JSON structure even when it is broken, so the
// JSON tool can point at the error. Bare JSON scalars ("true", "12") are
// claimed only when they parse.
func detectJSON(s string) (Kind, bool) {
	if !reDigits.MatchString(s) {
		for _, re := range jsonIndicators {
			if re.MatchString(s) {
				return KindJSON, true
			}
		}
	}
	return KindJSON, json.Valid([]byte(s))
}

func detectURL(s string) (Kind, bool) {
	return KindURL, strings.HasPrefix(strings.ToLower(s), "http")
}

func detectEncodedURL(s string) (Kind, bool) {
	if !rePercentByte.MatchString(s) {
		return "", false
	}
	decoded, err := decodeURIComponent(s)
	if err != nil {
		return "", false
	}
	return KindURL, strings.HasPrefix(strings.ToLower(decoded), "http")
}

func detectDomain(s string) (Kind, bool) {
	return KindDomain, reDomain.MatchString(s)
}
