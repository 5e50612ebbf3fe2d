// Package stix models STIX 2.0/2.1 objects: a strongly validated envelope
// around the loosely structured JSON payloads exchanged over TAXII.
package stix

import (
	"fmt"
	"time"
)

// Object is the canonical threat intelligence record. The full wire payload
// is kept in raw; the envelope fields are extracted and validated at
// construction. An object is immutable once anonymized: anonymization always
// derives a new object, never mutates the original.
type Object struct {
	stixID        string
	stixType      string
	specVersion   string
	created       time.Time
	modified      time.Time
	raw           map[string]any
	sourceOrgID   uint
	anonymized    bool
	anonymizedVia string
}

// ID returns the globally unique STIX identifier ({type}--{uuid}).
func (o *Object) ID() string {
	return o.stixID
}

// Type returns the STIX object type.
func (o *Object) Type() string {
	return o.stixType
}

// SpecVersion returns "2.0" or "2.1".
func (o *Object) SpecVersion() string {
	return o.specVersion
}

// Created returns the created timestamp.
func (o *Object) Created() time.Time {
	return o.created
}

// Modified returns the modified timestamp.
func (o *Object) Modified() time.Time {
	return o.modified
}

// SourceOrgID returns the organization that contributed the object.
func (o *Object) SourceOrgID() uint {
	return o.sourceOrgID
}

// Anonymized reports whether this object is a derived anonymized view.
func (o *Object) Anonymized() bool {
	return o.anonymized
}

// AnonymizedVia returns the strategy name used to derive this view, empty
// for originals.
func (o *Object) AnonymizedVia() string {
	return o.anonymizedVia
}

// Raw returns a deep copy of the wire payload. Callers may mutate the copy
// freely; the stored original never changes.
func (o *Object) Raw() map[string]any {
	return deepCopyMap(o.raw)
}

// RawField returns a top-level payload field without copying the whole
// payload. The returned value must not be mutated.
func (o *Object) RawField(key string) (any, bool) {
	v, ok := o.raw[key]
	return v, ok
}

// Pattern returns the STIX pattern expression for indicator objects.
func (o *Object) Pattern() (string, bool) {
	v, ok := o.raw["pattern"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Derive produces a new object carrying the transformed payload, flagged as
// anonymized via the named strategy. Envelope fields are re-read from the
// transformed payload so that e.g. truncated timestamps stay consistent.
func (o *Object) Derive(raw map[string]any, strategy string) (*Object, error) {
	if strategy == "" {
		return nil, fmt.Errorf("anonymization strategy name is required")
	}

	derived := &Object{
		stixID:        o.stixID,
		stixType:      o.stixType,
		specVersion:   o.specVersion,
		created:       o.created,
		modified:      o.modified,
		raw:           deepCopyMap(raw),
		sourceOrgID:   o.sourceOrgID,
		anonymized:    true,
		anonymizedVia: strategy,
	}

	if ts, ok := raw["created"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			derived.created = t.UTC()
		}
	}
	if ts, ok := raw["modified"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			derived.modified = t.UTC()
		}
	}

	return derived, nil
}

// ReconstructObject rebuilds an object from persistence without re-running
// wire validation.
func ReconstructObject(
	stixID, stixType, specVersion string,
	created, modified time.Time,
	raw map[string]any,
	sourceOrgID uint,
	anonymized bool,
	anonymizedVia string,
) (*Object, error) {
	if stixID == "" || stixType == "" {
		return nil, fmt.Errorf("stix id and type are required")
	}
	return &Object{
		stixID:        stixID,
		stixType:      stixType,
		specVersion:   specVersion,
		created:       created,
		modified:      modified,
		raw:           raw,
		sourceOrgID:   sourceOrgID,
		anonymized:    anonymized,
		anonymizedVia: anonymizedVia,
	}, nil
}

func deepCopyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return deepCopyMap(tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}
