package stix

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"stixgate/internal/shared/errors"
)

// Spec versions accepted by the factory.
const (
	SpecVersion20 = "2.0"
	SpecVersion21 = "2.1"
)

// envelope holds the fields every STIX object must carry.
type envelope struct {
	Type        string `json:"type" validate:"required"`
	ID          string `json:"id" validate:"required,stixid"`
	SpecVersion string `json:"spec_version" validate:"required,oneof=2.0 2.1"`
	Created     string `json:"created" validate:"required,stixtime"`
	Modified    string `json:"modified" validate:"required,stixtime"`
}

// indicator20 captures the extra requirements of STIX 2.0 indicators.
type indicator20 struct {
	Pattern string   `json:"pattern" validate:"required"`
	Labels  []string `json:"labels" validate:"required,min=1,dive,required"`
}

// indicator21 captures the extra requirements of STIX 2.1 indicators.
type indicator21 struct {
	Pattern        string   `json:"pattern" validate:"required"`
	PatternType    string   `json:"pattern_type" validate:"required"`
	IndicatorTypes []string `json:"indicator_types" validate:"required,min=1,dive,required"`
}

// identityFields captures required identity fields.
type identityFields struct {
	Name          string `json:"name" validate:"required"`
	IdentityClass string `json:"identity_class" validate:"required"`
}

// relationshipFields captures required SRO fields.
type relationshipFields struct {
	RelationshipType string `json:"relationship_type" validate:"required"`
	SourceRef        string `json:"source_ref" validate:"required,stixid"`
	TargetRef        string `json:"target_ref" validate:"required,stixid"`
}

// Factory constructs and validates STIX objects from raw wire payloads.
// Known object types get per-type required-field checks; unrecognized types
// (extensions) fall back to envelope validation only.
type Factory struct {
	validate *validator.Validate
}

// NewFactory creates a factory with the STIX-specific validation rules
// registered.
func NewFactory() *Factory {
	v := validator.New(validator.WithRequiredStructEnabled())

	// {type}--{uuid}
	_ = v.RegisterValidation("stixid", func(fl validator.FieldLevel) bool {
		return isValidStixID(fl.Field().String())
	})
	_ = v.RegisterValidation("stixtime", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.RFC3339Nano, fl.Field().String())
		return err == nil
	})

	return &Factory{validate: v}
}

// NewObject validates a raw payload and wraps it as a domain object
// attributed to the given source organization.
func (f *Factory) NewObject(raw map[string]any, sourceOrgID uint) (*Object, error) {
	var env envelope
	if err := f.decodeInto(raw, &env); err != nil {
		return nil, err
	}
	if err := f.validate.Struct(&env); err != nil {
		return nil, errors.NewValidationError("invalid STIX object", err.Error())
	}
	if !strings.HasPrefix(env.ID, env.Type+"--") {
		return nil, errors.NewValidationError("invalid STIX object",
			fmt.Sprintf("id %q does not match type %q", env.ID, env.Type))
	}

	if err := f.validateTyped(raw, env.Type, env.SpecVersion); err != nil {
		return nil, err
	}

	created, err := time.Parse(time.RFC3339Nano, env.Created)
	if err != nil {
		return nil, errors.NewValidationError("invalid STIX object", "unparseable created timestamp")
	}
	modified, err := time.Parse(time.RFC3339Nano, env.Modified)
	if err != nil {
		return nil, errors.NewValidationError("invalid STIX object", "unparseable modified timestamp")
	}

	return &Object{
		stixID:      env.ID,
		stixType:    env.Type,
		specVersion: env.SpecVersion,
		created:     created.UTC(),
		modified:    modified.UTC(),
		raw:         deepCopyMap(raw),
		sourceOrgID: sourceOrgID,
	}, nil
}

func (f *Factory) validateTyped(raw map[string]any, stixType, specVersion string) error {
	var target any
	switch stixType {
	case "indicator":
		if specVersion == SpecVersion20 {
			target = &indicator20{}
		} else {
			target = &indicator21{}
		}
	case "identity":
		target = &identityFields{}
	case "relationship":
		target = &relationshipFields{}
	default:
		// Unknown or extension type: envelope validation already passed.
		return nil
	}

	if err := f.decodeInto(raw, target); err != nil {
		return err
	}
	if err := f.validate.Struct(target); err != nil {
		return errors.NewValidationError(
			fmt.Sprintf("invalid STIX %s (%s)", stixType, specVersion), err.Error())
	}
	return nil
}

func (f *Factory) decodeInto(raw map[string]any, target any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return errors.NewValidationError("invalid STIX object", "payload is not JSON-serializable")
	}
	if err := json.Unmarshal(data, target); err != nil {
		return errors.NewValidationError("invalid STIX object", err.Error())
	}
	return nil
}

// NewID generates a fresh STIX identifier for the given type.
func NewID(stixType string) string {
	return stixType + "--" + uuid.NewString()
}

func isValidStixID(id string) bool {
	idx := strings.Index(id, "--")
	if idx <= 0 {
		return false
	}
	_, err := uuid.Parse(id[idx+2:])
	return err == nil
}
