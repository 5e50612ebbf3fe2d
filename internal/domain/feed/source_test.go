package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "stixgate/internal/domain/feed/valueobjects"
)

func newTestSource(t *testing.T) *Source {
	t.Helper()
	source, err := NewSource(
		"circl-osint",
		"https://taxii.example.org/taxii2/",
		"https://taxii.example.org/api1/",
		"collection-1",
		vo.IntervalHourly,
		vo.AuthAPIKey,
		map[string]string{"api_key": "secret"},
		30*time.Second,
		60,
		1,
	)
	require.NoError(t, err)
	return source
}

func TestNewSource(t *testing.T) {
	source := newTestSource(t)

	assert.Equal(t, "circl-osint", source.Name())
	// Trailing slash on the API root is normalized away.
	assert.Equal(t, "https://taxii.example.org/api1", source.APIRoot())
	assert.True(t, source.IsActive())
	assert.Nil(t, source.LastPollTime())
	assert.Equal(t, 1, source.Version())
	assert.Equal(t, "secret", source.Credential("api_key"))
}

func TestNewSource_Validation(t *testing.T) {
	tests := []struct {
		name    string
		build   func() (*Source, error)
		wantErr string
	}{
		{
			name: "empty name",
			build: func() (*Source, error) {
				return NewSource(" ", "https://x.test/", "https://x.test/api/", "c", vo.IntervalHourly, vo.AuthNone, nil, 0, 0, 1)
			},
			wantErr: "feed name is required",
		},
		{
			name: "bad discovery url",
			build: func() (*Source, error) {
				return NewSource("f", "not a url", "https://x.test/api/", "c", vo.IntervalHourly, vo.AuthNone, nil, 0, 0, 1)
			},
			wantErr: "invalid discovery URL",
		},
		{
			name: "missing collection",
			build: func() (*Source, error) {
				return NewSource("f", "https://x.test/", "https://x.test/api/", "", vo.IntervalHourly, vo.AuthNone, nil, 0, 0, 1)
			},
			wantErr: "collection ID is required",
		},
		{
			name: "bad poll interval",
			build: func() (*Source, error) {
				return NewSource("f", "https://x.test/", "https://x.test/api/", "c", "fortnightly", vo.AuthNone, nil, 0, 0, 1)
			},
			wantErr: "invalid poll interval",
		},
		{
			name: "bad auth type",
			build: func() (*Source, error) {
				return NewSource("f", "https://x.test/", "https://x.test/api/", "c", vo.IntervalHourly, "kerberos", nil, 0, 0, 1)
			},
			wantErr: "invalid auth type",
		},
		{
			name: "negative rate limit",
			build: func() (*Source, error) {
				return NewSource("f", "https://x.test/", "https://x.test/api/", "c", vo.IntervalHourly, vo.AuthNone, nil, 0, -1, 1)
			},
			wantErr: "rate limit cannot be negative",
		},
		{
			name: "missing source org",
			build: func() (*Source, error) {
				return NewSource("f", "https://x.test/", "https://x.test/api/", "c", vo.IntervalHourly, vo.AuthNone, nil, 0, 0, 0)
			},
			wantErr: "source organization ID is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := tt.build()
			require.Error(t, err)
			assert.Nil(t, source)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSource_IsDue(t *testing.T) {
	source := newTestSource(t)
	now := time.Now().UTC()

	// Never polled: always due.
	assert.True(t, source.IsDue(now))

	source.RecordPoll(now.Add(-30 * time.Minute))
	assert.False(t, source.IsDue(now), "hourly feed polled 30 minutes ago is not due")

	source.RecordPoll(now.Add(-61 * time.Minute))
	assert.True(t, source.IsDue(now), "hourly feed polled 61 minutes ago is due")

	// Inactive feeds are never due.
	source.Deactivate()
	assert.False(t, source.IsDue(now))

	source.Activate()
	assert.True(t, source.IsDue(now))
}

func TestSource_RecordPoll(t *testing.T) {
	source := newTestSource(t)
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	versionBefore := source.Version()
	source.RecordPoll(start)

	require.NotNil(t, source.LastPollTime())
	assert.Equal(t, start, *source.LastPollTime())
	assert.Equal(t, versionBefore+1, source.Version())
}

func TestSource_CredentialsAreCopied(t *testing.T) {
	source := newTestSource(t)

	creds := source.Credentials()
	creds["api_key"] = "tampered"

	assert.Equal(t, "secret", source.Credential("api_key"))
}
