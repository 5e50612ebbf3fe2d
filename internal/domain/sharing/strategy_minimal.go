package sharing

import (
	"strings"

	"stixgate/internal/domain/stix"
	vo "stixgate/internal/domain/trust/valueobjects"
)

// minimalStrategy truncates only high-precision fields: IPv4 observables to
// /24 (IPv6 to /64) and timestamps to minute precision. Labels and free
// text are untouched.
type minimalStrategy struct{}

// NewMinimalStrategy returns the minimal-tier strategy.
func NewMinimalStrategy() Strategy {
	return minimalStrategy{}
}

func (minimalStrategy) Name() string {
	return "minimal"
}

func (minimalStrategy) Level() vo.AnonymizationLevel {
	return vo.AnonymizationMinimal
}

func (s minimalStrategy) Apply(obj *stix.Object, _ Options) (*stix.Object, error) {
	raw := obj.Raw()
	truncatePayloadTimestamps(raw)

	if pattern, ok := raw["pattern"].(string); ok {
		rewritten, err := stix.RewritePattern(pattern, func(path, value string) string {
			switch {
			case strings.HasPrefix(path, "ipv4-addr:"):
				return truncateIPv4(value, 24)
			case strings.HasPrefix(path, "ipv6-addr:"):
				return truncateIPv6(value, 64)
			}
			return value
		})
		if err != nil {
			return nil, err
		}
		raw["pattern"] = rewritten
	}

	return obj.Derive(raw, s.Name())
}
