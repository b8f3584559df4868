package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRun(t *testing.T) {
	from := time.Date(2024, 3, 10, 2, 30, 0, 0, time.UTC)

	next, err := NextRun("0 3 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC), next)

	next, err = NextRun("*/5 * * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 2, 35, 0, 0, time.UTC), next)
}

func TestNextRun_InvalidSpec(t *testing.T) {
	_, err := NextRun("every tuesday", time.Now())
	assert.ErrorContains(t, err, "invalid cron spec")

	_, err = NextRun("0 3 * *", time.Now())
	assert.Error(t, err)
}
