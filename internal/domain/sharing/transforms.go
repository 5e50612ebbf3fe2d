package sharing

import (
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// anonymizedPlaceholder replaces observable values at the full tier.
const anonymizedPlaceholder = "ANONYMIZED"

// truncateIPv4 reduces an IPv4 address (or CIDR) to the given prefix
// length. Values already at or broader than the target prefix pass through
// unchanged, which makes repeated application idempotent and tiers
// monotonic.
func truncateIPv4(value string, prefixLen int) string {
	addr, existing, ok := splitCIDR(value)
	if !ok {
		return value
	}
	ip := net.ParseIP(addr)
	if ip == nil || ip.To4() == nil {
		return value
	}
	if existing <= prefixLen {
		return value
	}
	masked := ip.Mask(net.CIDRMask(prefixLen, 32))
	return fmt.Sprintf("%s/%d", masked.String(), prefixLen)
}

// truncateIPv6 reduces an IPv6 address (or CIDR) to the given prefix length.
func truncateIPv6(value string, prefixLen int) string {
	addr, existing, ok := splitCIDR(value)
	if !ok {
		return value
	}
	ip := net.ParseIP(addr)
	if ip == nil || ip.To4() != nil {
		return value
	}
	if existing <= prefixLen {
		return value
	}
	masked := ip.Mask(net.CIDRMask(prefixLen, 128))
	return fmt.Sprintf("%s/%d", masked.String(), prefixLen)
}

// splitCIDR splits "addr/len" or bare "addr". The returned prefix defaults
// to the full host length (so bare addresses always get truncated).
func splitCIDR(value string) (addr string, prefixLen int, ok bool) {
	if idx := strings.IndexByte(value, '/'); idx >= 0 {
		var n int
		if _, err := fmt.Sscanf(value[idx+1:], "%d", &n); err != nil {
			return "", 0, false
		}
		return value[:idx], n, true
	}
	if strings.Contains(value, ":") {
		return value, 128, true
	}
	return value, 32, true
}

// registrableDomain reduces a hostname to its registered (eTLD+1) domain.
// Already-registrable domains pass through unchanged.
func registrableDomain(value string) string {
	host := strings.ToLower(strings.TrimSuffix(value, "."))
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return value
	}
	return etld1
}

// stripEmailLocalPart replaces the local part of an email address with a
// fixed token, keeping only the domain.
func stripEmailLocalPart(value string) string {
	at := strings.LastIndexByte(value, '@')
	if at < 0 {
		return value
	}
	return "anonymous@" + registrableDomain(value[at+1:])
}

// generalizeURL reduces a URL to its scheme and registrable host.
func generalizeURL(value string) string {
	rest := value
	scheme := ""
	if idx := strings.Index(rest, "://"); idx >= 0 {
		scheme = rest[:idx]
		rest = rest[idx+3:]
	}
	if idx := strings.IndexAny(rest, "/?#"); idx >= 0 {
		rest = rest[:idx]
	}
	if idx := strings.IndexByte(rest, '@'); idx >= 0 {
		rest = rest[idx+1:]
	}
	if idx := strings.IndexByte(rest, ':'); idx >= 0 {
		rest = rest[:idx]
	}
	host := registrableDomain(rest)
	if scheme == "" {
		return host
	}
	return scheme + "://" + host + "/"
}

// truncateTimestamp drops sub-minute precision from an RFC 3339 timestamp.
// Non-timestamp values pass through unchanged.
func truncateTimestamp(value string) string {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return value
	}
	return t.UTC().Truncate(time.Minute).Format("2006-01-02T15:04:05Z")
}

// timestampFields are the top-level payload fields whose precision is
// reduced from the minimal tier upward.
var timestampFields = []string{
	"created", "modified", "valid_from", "valid_until",
	"first_seen", "last_seen", "first_observed", "last_observed",
}

func truncatePayloadTimestamps(raw map[string]any) {
	for _, field := range timestampFields {
		if s, ok := raw[field].(string); ok {
			raw[field] = truncateTimestamp(s)
		}
	}
}

// redactText blanks organization names from free text. Matching is
// case-insensitive; the replacement token is stable so repeated application
// is a no-op.
func redactText(text string, names []string) string {
	out := text
	for _, name := range names {
		if name == "" {
			continue
		}
		out = replaceFold(out, name, "[REDACTED]")
	}
	return out
}

func replaceFold(s, old, replacement string) string {
	if old == "" {
		return s
	}
	var b strings.Builder
	lower := strings.ToLower(s)
	oldLower := strings.ToLower(old)
	start := 0
	for {
		idx := strings.Index(lower[start:], oldLower)
		if idx < 0 {
			b.WriteString(s[start:])
			return b.String()
		}
		b.WriteString(s[start : start+idx])
		b.WriteString(replacement)
		start += idx + len(old)
	}
}
