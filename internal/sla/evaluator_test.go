package sla

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intellectdca/internal/domain"
)

var frozen = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestEvaluate(t *testing.T) {
	clock := clockwork.NewFakeClockAt(frozen)
	e := New(WithClock(clock))

	t.Run("breach after 50 hours", func(t *testing.T) {
		v := e.Evaluate(frozen.Add(-50 * time.Hour))
		assert.Equal(t, domain.StatusNonCompliant, v.Status)
		assert.Equal(t, domain.ActionAutoReallocate, v.Action)
		require.NotNil(t, v.DelayHours)
		assert.Equal(t, 2.0, *v.DelayHours)
		assert.True(t, v.Breached())
	})

	t.Run("compliant after 10 hours", func(t *testing.T) {
		v := e.Evaluate(frozen.Add(-10 * time.Hour))
		assert.Equal(t, domain.SLAVerdict{Status: domain.StatusCompliant, Action: domain.ActionNone}, v)
		assert.Nil(t, v.DelayHours)
	})

	t.Run("exactly on the threshold is compliant", func(t *testing.T) {
		v := e.Evaluate(frozen.Add(-48 * time.Hour))
		assert.Equal(t, domain.StatusCompliant, v.Status)
	})

	t.Run("delay rounds to one decimal", func(t *testing.T) {
		v := e.Evaluate(frozen.Add(-(48*time.Hour + 20*time.Minute)))
		require.NotNil(t, v.DelayHours)
		assert.Equal(t, 0.3, *v.DelayHours)
	})

	t.Run("exact half hour ties round to even", func(t *testing.T) {
		for overrun, want := range map[time.Duration]float64{
			15 * time.Minute:             0.2,
			time.Hour + 15*time.Minute:   1.2,
			2*time.Hour + 15*time.Minute: 2.2,
			2*time.Hour + 21*time.Minute: 2.4,
		} {
			v := e.Evaluate(frozen.Add(-(48*time.Hour + overrun)))
			require.NotNil(t, v.DelayHours, overrun)
			assert.Equal(t, want, *v.DelayHours, overrun)
		}
	})

	t.Run("future update is compliant", func(t *testing.T) {
		v := e.Evaluate(frozen.Add(3 * time.Hour))
		assert.Equal(t, domain.StatusCompliant, v.Status)
		assert.Equal(t, domain.ActionNone, v.Action)
		assert.Nil(t, v.DelayHours)
	})
}

func TestEvaluate_Idempotent(t *testing.T) {
	e := New(WithClock(clockwork.NewFakeClockAt(frozen)))
	last := frozen.Add(-72 * time.Hour)
	assert.Equal(t, e.Evaluate(last), e.Evaluate(last))
}

func TestEvaluate_ClockAdvance(t *testing.T) {
	clock := clockwork.NewFakeClockAt(frozen)
	e := New(WithClock(clock))
	last := frozen.Add(-47 * time.Hour)

	assert.False(t, e.Evaluate(last).Breached())
	clock.Advance(90 * time.Minute)
	v := e.Evaluate(last)
	require.True(t, v.Breached())
	assert.Equal(t, 0.5, *v.DelayHours)
}

func TestWithThresholdHours(t *testing.T) {
	clock := clockwork.NewFakeClockAt(frozen)

	short := New(WithClock(clock), WithThresholdHours(4))
	assert.Equal(t, 4.0, short.ThresholdHours())
	v := short.Evaluate(frozen.Add(-10 * time.Hour))
	require.True(t, v.Breached())
	assert.Equal(t, 6.0, *v.DelayHours)

	assert.Equal(t, DefaultThresholdHours, New(WithThresholdHours(0)).ThresholdHours())
	assert.Equal(t, DefaultThresholdHours, New(WithThresholdHours(-3)).ThresholdHours())
}
