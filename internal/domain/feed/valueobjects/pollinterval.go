package valueobjects

import "time"

// PollInterval is how often an external feed is polled.
type PollInterval string

const (
	IntervalHourly  PollInterval = "hourly"
	IntervalDaily   PollInterval = "daily"
	IntervalWeekly  PollInterval = "weekly"
	IntervalMonthly PollInterval = "monthly"
)

// IsValid reports whether the interval is a known setting.
func (p PollInterval) IsValid() bool {
	switch p {
	case IntervalHourly, IntervalDaily, IntervalWeekly, IntervalMonthly:
		return true
	}
	return false
}

// Duration returns the minimum time between polls. Unknown intervals map to
// daily.
func (p PollInterval) Duration() time.Duration {
	switch p {
	case IntervalHourly:
		return time.Hour
	case IntervalWeekly:
		return 7 * 24 * time.Hour
	case IntervalMonthly:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

func (p PollInterval) String() string {
	return string(p)
}
