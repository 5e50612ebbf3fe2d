package sharing

import (
	"stixgate/internal/domain/stix"
	vo "stixgate/internal/domain/trust/valueobjects"
)

// fallbackPattern replaces patterns that cannot be parsed at the full tier.
const fallbackPattern = "[unknown:value = '" + anonymizedPlaceholder + "']"

// fullStrategy replaces every observable value with a generic placeholder
// and strips all attribution: name, description, external references, and
// the creator reference. It never fails; an unparseable pattern is replaced
// wholesale.
type fullStrategy struct{}

// NewFullStrategy returns the full-tier strategy.
func NewFullStrategy() Strategy {
	return fullStrategy{}
}

func (fullStrategy) Name() string {
	return "full"
}

func (fullStrategy) Level() vo.AnonymizationLevel {
	return vo.AnonymizationFull
}

func (s fullStrategy) Apply(obj *stix.Object, _ Options) (*stix.Object, error) {
	raw := obj.Raw()
	truncatePayloadTimestamps(raw)

	if pattern, ok := raw["pattern"].(string); ok {
		rewritten, err := stix.RewritePattern(pattern, func(path, value string) string {
			return anonymizedPlaceholder
		})
		if err != nil {
			rewritten = fallbackPattern
		}
		raw["pattern"] = rewritten
	}

	delete(raw, "name")
	delete(raw, "description")
	delete(raw, "external_references")
	delete(raw, "created_by_ref")

	return obj.Derive(raw, s.Name())
}
