package valueobjects

// PollStatus is the outcome recorded on a consumption log. A log opens as
// success and is downgraded while the poll runs: any object-level failure
// makes it partial, an irrecoverable request failure makes it failure.
type PollStatus string

const (
	StatusSuccess PollStatus = "success"
	StatusPartial PollStatus = "partial"
	StatusFailure PollStatus = "failure"
)

// IsValid reports whether the status is known.
func (s PollStatus) IsValid() bool {
	switch s {
	case StatusSuccess, StatusPartial, StatusFailure:
		return true
	}
	return false
}

func (s PollStatus) String() string {
	return string(s)
}
