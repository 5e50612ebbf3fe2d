package sharing

import (
	"stixgate/internal/domain/stix"
	vo "stixgate/internal/domain/trust/valueobjects"
)

// noneStrategy is the identity transform used between fully trusting
// organizations.
type noneStrategy struct{}

// NewNoneStrategy returns the identity strategy.
func NewNoneStrategy() Strategy {
	return noneStrategy{}
}

func (noneStrategy) Name() string {
	return "none"
}

func (noneStrategy) Level() vo.AnonymizationLevel {
	return vo.AnonymizationNone
}

func (s noneStrategy) Apply(obj *stix.Object, _ Options) (*stix.Object, error) {
	return obj.Derive(obj.Raw(), s.Name())
}
