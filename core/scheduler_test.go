package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerOrder(t *testing.T) {
	s := NewScheduler()

	var order []int
	mk := func(id int, wake uint32) *Timer {
		return &Timer{WakeTime: wake, Handler: func(*Timer) uint8 {
			order = append(order, id)
			return SF_DONE
		}}
	}

	s.Schedule(mk(3, 300))
	s.Schedule(mk(1, 100))
	s.Schedule(mk(2, 200))

	assert.Equal(t, 0, s.Dispatch(99))
	assert.Equal(t, 2, s.Dispatch(200))
	assert.Equal(t, []int{1, 2}, order)

	wake, ok := s.NextWake()
	assert.True(t, ok)
	assert.Equal(t, uint32(300), wake)

	assert.Equal(t, 1, s.Dispatch(1000))
	_, ok = s.NextWake()
	assert.False(t, ok)
}

func TestSchedulerEvery(t *testing.T) {
	s := NewScheduler()

	var runs []uint32
	s.Every(1000, 6667, func(now uint32) {
		runs = append(runs, now)
	})

	// A late dispatch runs each missed period once without drifting
	s.Dispatch(14400)
	assert.Equal(t, []uint32{1000, 7667, 14334}, runs)

	wake, _ := s.NextWake()
	assert.Equal(t, uint32(21001), wake)
}

func TestSchedulerWraparound(t *testing.T) {
	s := NewScheduler()

	var fired []string
	s.Schedule(&Timer{WakeTime: 10, Handler: func(*Timer) uint8 {
		fired = append(fired, "after-wrap")
		return SF_DONE
	}})
	s.Schedule(&Timer{WakeTime: 0xFFFFFFF0, Handler: func(*Timer) uint8 {
		fired = append(fired, "before-wrap")
		return SF_DONE
	}})

	s.Dispatch(0xFFFFFFF5)
	assert.Equal(t, []string{"before-wrap"}, fired)

	s.Dispatch(20)
	assert.Equal(t, []string{"before-wrap", "after-wrap"}, fired)
}

func TestSchedulerCancel(t *testing.T) {
	s := NewScheduler()

	called := false
	timer := &Timer{WakeTime: 5, Handler: func(*Timer) uint8 {
		called = true
		return SF_DONE
	}}
	s.Schedule(timer)

	assert.True(t, s.Cancel(timer))
	assert.False(t, s.Cancel(timer))

	s.Dispatch(10)
	assert.False(t, called)
}

func TestSchedulerHandlerMaySchedule(t *testing.T) {
	s := NewScheduler()

	second := false
	s.Schedule(&Timer{WakeTime: 1, Handler: func(*Timer) uint8 {
		s.Schedule(&Timer{WakeTime: 2, Handler: func(*Timer) uint8 {
			second = true
			return SF_DONE
		}})
		return SF_DONE
	}})

	assert.Equal(t, 2, s.Dispatch(5))
	assert.True(t, second)
}
