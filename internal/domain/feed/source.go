// Package feed models external TAXII feed sources and the append-only log
// of consumption attempts against them.
package feed

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	vo "stixgate/internal/domain/feed/valueobjects"
)

// Source is a remote TAXII origin polled by the consumption pipeline.
type Source struct {
	id           uint
	name         string
	discoveryURL string
	apiRoot      string
	collectionID string
	pollInterval vo.PollInterval
	authType     vo.AuthType
	credentials  map[string]string
	timeout      time.Duration
	rateLimit    int
	sourceOrgID  uint
	isActive     bool
	lastPollTime *time.Time
	createdAt    time.Time
	updatedAt    time.Time
	version      int
}

// NewSource creates an active feed source. rateLimit is requests per
// minute; zero disables rate limiting. timeout zero means the pipeline
// default applies.
func NewSource(
	name, discoveryURL, apiRoot, collectionID string,
	pollInterval vo.PollInterval,
	authType vo.AuthType,
	credentials map[string]string,
	timeout time.Duration,
	rateLimit int,
	sourceOrgID uint,
) (*Source, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("feed name is required")
	}
	if _, err := url.ParseRequestURI(discoveryURL); err != nil {
		return nil, fmt.Errorf("invalid discovery URL: %w", err)
	}
	if apiRoot == "" {
		return nil, fmt.Errorf("API root is required")
	}
	if collectionID == "" {
		return nil, fmt.Errorf("collection ID is required")
	}
	if !pollInterval.IsValid() {
		return nil, fmt.Errorf("invalid poll interval: %s", pollInterval)
	}
	if !authType.IsValid() {
		return nil, fmt.Errorf("invalid auth type: %s", authType)
	}
	if rateLimit < 0 {
		return nil, fmt.Errorf("rate limit cannot be negative")
	}
	if sourceOrgID == 0 {
		return nil, fmt.Errorf("source organization ID is required")
	}
	if credentials == nil {
		credentials = make(map[string]string)
	}

	now := time.Now().UTC()
	return &Source{
		name:         name,
		discoveryURL: discoveryURL,
		apiRoot:      strings.TrimSuffix(apiRoot, "/"),
		collectionID: collectionID,
		pollInterval: pollInterval,
		authType:     authType,
		credentials:  credentials,
		timeout:      timeout,
		rateLimit:    rateLimit,
		sourceOrgID:  sourceOrgID,
		isActive:     true,
		createdAt:    now,
		updatedAt:    now,
		version:      1,
	}, nil
}

// ReconstructSource reconstructs a feed source from persistence.
func ReconstructSource(
	id uint,
	name, discoveryURL, apiRoot, collectionID string,
	pollInterval vo.PollInterval,
	authType vo.AuthType,
	credentials map[string]string,
	timeout time.Duration,
	rateLimit int,
	sourceOrgID uint,
	isActive bool,
	lastPollTime *time.Time,
	createdAt, updatedAt time.Time,
	version int,
) (*Source, error) {
	if id == 0 {
		return nil, fmt.Errorf("feed ID cannot be zero")
	}
	if !pollInterval.IsValid() {
		return nil, fmt.Errorf("invalid poll interval: %s", pollInterval)
	}
	if !authType.IsValid() {
		return nil, fmt.Errorf("invalid auth type: %s", authType)
	}
	if credentials == nil {
		credentials = make(map[string]string)
	}

	return &Source{
		id:           id,
		name:         name,
		discoveryURL: discoveryURL,
		apiRoot:      apiRoot,
		collectionID: collectionID,
		pollInterval: pollInterval,
		authType:     authType,
		credentials:  credentials,
		timeout:      timeout,
		rateLimit:    rateLimit,
		sourceOrgID:  sourceOrgID,
		isActive:     isActive,
		lastPollTime: lastPollTime,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
		version:      version,
	}, nil
}

// ID returns the feed ID.
func (s *Source) ID() uint {
	return s.id
}

// Name returns the feed name.
func (s *Source) Name() string {
	return s.name
}

// DiscoveryURL returns the TAXII discovery endpoint.
func (s *Source) DiscoveryURL() string {
	return s.discoveryURL
}

// APIRoot returns the TAXII API root URL.
func (s *Source) APIRoot() string {
	return s.apiRoot
}

// CollectionID returns the TAXII collection identifier.
func (s *Source) CollectionID() string {
	return s.collectionID
}

// PollInterval returns the configured poll cadence.
func (s *Source) PollInterval() vo.PollInterval {
	return s.pollInterval
}

// AuthType returns the configured authentication mechanism.
func (s *Source) AuthType() vo.AuthType {
	return s.authType
}

// Credential returns a named credential value.
func (s *Source) Credential(key string) string {
	return s.credentials[key]
}

// Credentials returns a copy of all credential values.
func (s *Source) Credentials() map[string]string {
	out := make(map[string]string, len(s.credentials))
	for k, v := range s.credentials {
		out[k] = v
	}
	return out
}

// Timeout returns the per-poll deadline override, zero for the default.
func (s *Source) Timeout() time.Duration {
	return s.timeout
}

// RateLimit returns the requests-per-minute cap, zero for unlimited.
func (s *Source) RateLimit() int {
	return s.rateLimit
}

// SourceOrgID returns the organization that objects from this feed are
// attributed to.
func (s *Source) SourceOrgID() uint {
	return s.sourceOrgID
}

// IsActive reports whether the feed participates in scheduling.
func (s *Source) IsActive() bool {
	return s.isActive
}

// LastPollTime returns when the last successful poll started, nil if never
// polled.
func (s *Source) LastPollTime() *time.Time {
	return s.lastPollTime
}

// CreatedAt returns when the feed was created.
func (s *Source) CreatedAt() time.Time {
	return s.createdAt
}

// UpdatedAt returns when the feed was last updated.
func (s *Source) UpdatedAt() time.Time {
	return s.updatedAt
}

// Version returns the aggregate version.
func (s *Source) Version() int {
	return s.version
}

// SetID sets the feed ID (only for persistence layer use).
func (s *Source) SetID(id uint) error {
	if s.id != 0 {
		return fmt.Errorf("feed ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("feed ID cannot be zero")
	}
	s.id = id
	return nil
}

// IsDue reports whether a poll should run: never polled, or the configured
// interval has elapsed since the last poll started.
func (s *Source) IsDue(now time.Time) bool {
	if !s.isActive {
		return false
	}
	if s.lastPollTime == nil {
		return true
	}
	return now.Sub(*s.lastPollTime) >= s.pollInterval.Duration()
}

// RecordPoll updates last_poll_time to the poll's start time. Using the
// start (not completion) keeps a slow poll from permanently pushing the
// next window out.
func (s *Source) RecordPoll(startedAt time.Time) {
	t := startedAt.UTC()
	s.lastPollTime = &t
	s.touch()
}

// Deactivate pauses scheduling for this feed.
func (s *Source) Deactivate() {
	s.isActive = false
	s.touch()
}

// Activate resumes scheduling for this feed.
func (s *Source) Activate() {
	s.isActive = true
	s.touch()
}

func (s *Source) touch() {
	s.updatedAt = time.Now().UTC()
	s.version++
}
