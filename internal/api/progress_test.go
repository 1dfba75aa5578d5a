package telegram

import (
	"testing"

	"github.com/stretchr/testify/require"

	"damage-bot/internal/domain/entity"
)

func TestProgressThrottle_Known(t *testing.T) {
	throttle := newProgressThrottle(10)

	var reported []int
	for i := 1; i <= 200; i++ {
		if throttle.due(entity.NewProgress(i, 200)) {
			reported = append(reported, i)
		}
	}
	require.Equal(t, []int{20, 40, 60, 80, 100, 120, 140, 160, 180, 200}, reported)
}

func TestProgressThrottle_Indeterminate(t *testing.T) {
	throttle := newProgressThrottle(10)

	var reported []int
	for i := 1; i <= 60; i++ {
		if throttle.due(entity.NewProgress(i, 0)) {
			reported = append(reported, i)
		}
	}
	require.Equal(t, []int{25, 50}, reported)
}

func TestProgressThrottle_FinalUpdateOnce(t *testing.T) {
	throttle := newProgressThrottle(50)

	require.False(t, throttle.due(entity.NewProgress(1, 3)))
	require.True(t, throttle.due(entity.NewProgress(2, 3)))
	require.True(t, throttle.due(entity.NewProgress(3, 3)))
	// кадров больше, чем заявлено: доля упирается в 1
	require.False(t, throttle.due(entity.NewProgress(4, 3)))
}
