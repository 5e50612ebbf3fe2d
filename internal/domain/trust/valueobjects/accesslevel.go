package valueobjects

// AccessLevel is what a counterpart organization is allowed to do with
// shared intelligence.
type AccessLevel string

const (
	AccessNone       AccessLevel = "none"
	AccessRead       AccessLevel = "read"
	AccessSubscribe  AccessLevel = "subscribe"
	AccessContribute AccessLevel = "contribute"
	AccessFull       AccessLevel = "full"
)

// IsValid reports whether the level is a known access level.
func (l AccessLevel) IsValid() bool {
	switch l {
	case AccessNone, AccessRead, AccessSubscribe, AccessContribute, AccessFull:
		return true
	}
	return false
}

// Rank returns the position in the access ordering. Unknown levels rank as
// None (fail closed).
func (l AccessLevel) Rank() int {
	switch l {
	case AccessRead:
		return 1
	case AccessSubscribe:
		return 2
	case AccessContribute:
		return 3
	case AccessFull:
		return 4
	default:
		return 0
	}
}

// AllowsRead reports whether objects may be read at this access level.
func (l AccessLevel) AllowsRead() bool {
	return l.Rank() >= AccessRead.Rank()
}

func (l AccessLevel) String() string {
	return string(l)
}
