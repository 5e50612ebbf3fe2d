package stix

// Bundle wraps a list of STIX objects for transport.
type Bundle struct {
	ID      string
	Objects []*Object
}

// NewBundle creates a bundle with a fresh identifier.
func NewBundle(objects []*Object) *Bundle {
	return &Bundle{
		ID:      NewID("bundle"),
		Objects: objects,
	}
}

// ToRaw renders the bundle in STIX wire format.
func (b *Bundle) ToRaw() map[string]any {
	objs := make([]any, len(b.Objects))
	for i, o := range b.Objects {
		objs[i] = o.Raw()
	}
	return map[string]any{
		"type":    "bundle",
		"id":      b.ID,
		"objects": objs,
	}
}
