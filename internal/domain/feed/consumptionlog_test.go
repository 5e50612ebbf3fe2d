package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "stixgate/internal/domain/feed/valueobjects"
)

func TestOpenLog(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	log, err := OpenLog(42, start)
	require.NoError(t, err)
	assert.Equal(t, uint(42), log.FeedID())
	assert.Equal(t, vo.StatusSuccess, log.Status())
	assert.Equal(t, start, log.StartedAt())
	assert.Nil(t, log.CompletedAt())

	_, err = OpenLog(0, start)
	assert.Error(t, err)
}

func TestConsumptionLog_PartialAccounting(t *testing.T) {
	log, err := OpenLog(1, time.Now().UTC())
	require.NoError(t, err)

	log.AddRetrieved(10)
	log.AddProcessed(7)
	log.AddFailed(3)

	assert.Equal(t, 10, log.ObjectsRetrieved())
	assert.Equal(t, 7, log.ObjectsProcessed())
	assert.Equal(t, 3, log.ObjectsFailed())
	assert.Equal(t, vo.StatusPartial, log.Status())
}

func TestConsumptionLog_StatusOnlyDowngrades(t *testing.T) {
	log, err := OpenLog(1, time.Now().UTC())
	require.NoError(t, err)

	log.MarkPartial()
	assert.Equal(t, vo.StatusPartial, log.Status())

	log.MarkFailure()
	assert.Equal(t, vo.StatusFailure, log.Status())

	// Nothing upgrades a failed poll.
	log.MarkPartial()
	assert.Equal(t, vo.StatusFailure, log.Status())
	log.AddFailed(1)
	assert.Equal(t, vo.StatusFailure, log.Status())
	log.Finalize(time.Now().UTC())
	assert.Equal(t, vo.StatusFailure, log.Status())
}

func TestConsumptionLog_AddFailedIgnoresNonPositive(t *testing.T) {
	log, err := OpenLog(1, time.Now().UTC())
	require.NoError(t, err)

	log.AddFailed(0)
	log.AddFailed(-5)
	assert.Equal(t, 0, log.ObjectsFailed())
	assert.Equal(t, vo.StatusSuccess, log.Status())
}

func TestConsumptionLog_ErrorsAppend(t *testing.T) {
	log, err := OpenLog(1, time.Now().UTC())
	require.NoError(t, err)

	log.AppendError("object indicator--x: missing pattern")
	log.AppendError("request failed after 3 attempts")
	log.AppendError("   ")

	assert.Equal(t,
		"object indicator--x: missing pattern; request failed after 3 attempts",
		log.ErrorMessage())
}

func TestConsumptionLog_Finalize(t *testing.T) {
	log, err := OpenLog(1, time.Now().UTC())
	require.NoError(t, err)

	done := time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC)
	log.Finalize(done)

	require.NotNil(t, log.CompletedAt())
	assert.Equal(t, done, *log.CompletedAt())
	assert.Equal(t, vo.StatusSuccess, log.Status())
}
