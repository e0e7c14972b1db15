package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("09:05")
	require.NoError(t, err)
	assert.Equal(t, "0 5 9 * * *", spec)

	for _, bad := range []string{"", "9", "24:00", "12:60", "ab:cd"} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestBuildIntervalSpec(t *testing.T) {
	spec, err := buildIntervalSpec(5 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "@every 18000s", spec)

	spec, err = buildIntervalSpec(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "@every 1s", spec)

	_, err = buildIntervalSpec(0)
	assert.Error(t, err)
}

func TestSchedulerService_Register(t *testing.T) {
	s := NewSchedulerService(time.UTC)
	_, err := s.ScheduleInterval(time.Hour, func() {})
	require.NoError(t, err)
	_, err = s.ScheduleDaily("08:00", func() {})
	require.NoError(t, err)
	_, err = s.ScheduleDaily("nope", func() {})
	assert.Error(t, err)
	assert.Equal(t, 2, s.Entries())

	s.Start()
	s.Stop()
}
