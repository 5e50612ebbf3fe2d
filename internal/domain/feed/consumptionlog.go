package feed

import (
	"fmt"
	"strings"
	"time"

	vo "stixgate/internal/domain/feed/valueobjects"
)

// ConsumptionLog records one poll attempt against a feed source. It opens
// as success and is only ever downgraded; error messages accumulate and are
// never overwritten.
type ConsumptionLog struct {
	id               uint
	feedID           uint
	status           vo.PollStatus
	objectsRetrieved int
	objectsProcessed int
	objectsFailed    int
	errorMessage     string
	startedAt        time.Time
	completedAt      *time.Time
	createdAt        time.Time
}

// OpenLog starts a consumption log for a poll beginning at startedAt.
func OpenLog(feedID uint, startedAt time.Time) (*ConsumptionLog, error) {
	if feedID == 0 {
		return nil, fmt.Errorf("feed ID is required")
	}
	return &ConsumptionLog{
		feedID:    feedID,
		status:    vo.StatusSuccess,
		startedAt: startedAt.UTC(),
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructLog reconstructs a consumption log from persistence.
func ReconstructLog(
	id, feedID uint,
	status vo.PollStatus,
	objectsRetrieved, objectsProcessed, objectsFailed int,
	errorMessage string,
	startedAt time.Time,
	completedAt *time.Time,
	createdAt time.Time,
) (*ConsumptionLog, error) {
	if id == 0 {
		return nil, fmt.Errorf("log ID cannot be zero")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid poll status: %s", status)
	}
	return &ConsumptionLog{
		id:               id,
		feedID:           feedID,
		status:           status,
		objectsRetrieved: objectsRetrieved,
		objectsProcessed: objectsProcessed,
		objectsFailed:    objectsFailed,
		errorMessage:     errorMessage,
		startedAt:        startedAt,
		completedAt:      completedAt,
		createdAt:        createdAt,
	}, nil
}

// ID returns the log ID.
func (l *ConsumptionLog) ID() uint {
	return l.id
}

// FeedID returns the polled feed's ID.
func (l *ConsumptionLog) FeedID() uint {
	return l.feedID
}

// Status returns the current poll outcome.
func (l *ConsumptionLog) Status() vo.PollStatus {
	return l.status
}

// ObjectsRetrieved returns how many objects the remote returned.
func (l *ConsumptionLog) ObjectsRetrieved() int {
	return l.objectsRetrieved
}

// ObjectsProcessed returns how many objects were validated and stored.
func (l *ConsumptionLog) ObjectsProcessed() int {
	return l.objectsProcessed
}

// ObjectsFailed returns how many objects failed validation or storage.
func (l *ConsumptionLog) ObjectsFailed() int {
	return l.objectsFailed
}

// ErrorMessage returns the accumulated error text, empty for a clean poll.
func (l *ConsumptionLog) ErrorMessage() string {
	return l.errorMessage
}

// StartedAt returns when the poll started.
func (l *ConsumptionLog) StartedAt() time.Time {
	return l.startedAt
}

// CompletedAt returns when the poll finished, nil while still running.
func (l *ConsumptionLog) CompletedAt() *time.Time {
	return l.completedAt
}

// CreatedAt returns when the log row was created.
func (l *ConsumptionLog) CreatedAt() time.Time {
	return l.createdAt
}

// SetID sets the log ID (only for persistence layer use).
func (l *ConsumptionLog) SetID(id uint) error {
	if l.id != 0 {
		return fmt.Errorf("log ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("log ID cannot be zero")
	}
	l.id = id
	return nil
}

// AddRetrieved adds to the retrieved-object count.
func (l *ConsumptionLog) AddRetrieved(n int) {
	l.objectsRetrieved += n
}

// AddProcessed adds to the processed-object count.
func (l *ConsumptionLog) AddProcessed(n int) {
	l.objectsProcessed += n
}

// AddFailed adds to the failed-object count and downgrades the status to
// partial unless the poll has already failed outright.
func (l *ConsumptionLog) AddFailed(n int) {
	if n <= 0 {
		return
	}
	l.objectsFailed += n
	if l.status == vo.StatusSuccess {
		l.status = vo.StatusPartial
	}
}

// AppendError appends a message to the error log. Existing messages are
// preserved; entries are separated by "; ".
func (l *ConsumptionLog) AppendError(msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	if l.errorMessage == "" {
		l.errorMessage = msg
		return
	}
	l.errorMessage = l.errorMessage + "; " + msg
}

// MarkPartial downgrades a clean poll to partial. A poll already marked
// failure stays failed.
func (l *ConsumptionLog) MarkPartial() {
	if l.status == vo.StatusSuccess {
		l.status = vo.StatusPartial
	}
}

// MarkFailure downgrades the poll to an outright failure.
func (l *ConsumptionLog) MarkFailure() {
	l.status = vo.StatusFailure
}

// Finalize closes the log at completedAt. The status is whatever the poll
// accumulated; Finalize never upgrades it.
func (l *ConsumptionLog) Finalize(completedAt time.Time) {
	t := completedAt.UTC()
	l.completedAt = &t
}
