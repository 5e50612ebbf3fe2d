package sharing

import (
	"strings"

	"stixgate/internal/domain/stix"
	vo "stixgate/internal/domain/trust/valueobjects"
)

// partialStrategy generalizes network identifiers further than minimal
// (IPv4 to /16, IPv6 to /48, hostnames to the registered domain, emails to
// domain only), replaces direct attribution with a generic shared identity,
// and redacts organization names from free text.
type partialStrategy struct{}

// NewPartialStrategy returns the partial-tier strategy.
func NewPartialStrategy() Strategy {
	return partialStrategy{}
}

func (partialStrategy) Name() string {
	return "partial"
}

func (partialStrategy) Level() vo.AnonymizationLevel {
	return vo.AnonymizationPartial
}

func (s partialStrategy) Apply(obj *stix.Object, opts Options) (*stix.Object, error) {
	raw := obj.Raw()
	truncatePayloadTimestamps(raw)

	if pattern, ok := raw["pattern"].(string); ok {
		rewritten, err := stix.RewritePattern(pattern, rewritePartialValue)
		if err != nil {
			return nil, err
		}
		raw["pattern"] = rewritten
	}

	if _, ok := raw["created_by_ref"]; ok {
		raw["created_by_ref"] = sharedIdentityRef
	}

	if desc, ok := raw["description"].(string); ok && len(opts.OrgNames) > 0 {
		raw["description"] = redactText(desc, opts.OrgNames)
	}

	return obj.Derive(raw, s.Name())
}

func rewritePartialValue(path, value string) string {
	switch {
	case strings.HasPrefix(path, "ipv4-addr:"):
		return truncateIPv4(value, 16)
	case strings.HasPrefix(path, "ipv6-addr:"):
		return truncateIPv6(value, 48)
	case strings.HasPrefix(path, "domain-name:"):
		return registrableDomain(value)
	case strings.HasPrefix(path, "email-addr:") || strings.HasPrefix(path, "email-message:"):
		return stripEmailLocalPart(value)
	case strings.HasPrefix(path, "url:"):
		return generalizeURL(value)
	}
	return value
}
