package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler keeps timers sorted by wake time
type Scheduler struct {
	cs        CriticalSection
	timerList *Timer
}

// NewScheduler creates an empty scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule adds a timer to the schedule
func (s *Scheduler) Schedule(t *Timer) {
	state := s.cs.Enter()
	defer s.cs.Exit(state)

	s.insertTimer(t)
}

// Every schedules fn to run every interval microseconds starting at first.
// The wake time advances by interval on each run, so late runs do not drift.
func (s *Scheduler) Every(first, interval uint32, fn func(now uint32)) *Timer {
	t := &Timer{
		WakeTime: first,
		Handler: func(t *Timer) uint8 {
			fn(t.WakeTime)
			t.WakeTime += interval
			return SF_RESCHEDULE
		},
	}
	s.Schedule(t)
	return t
}

// Cancel removes a timer. It reports whether the timer was scheduled.
func (s *Scheduler) Cancel(t *Timer) bool {
	state := s.cs.Enter()
	defer s.cs.Exit(state)

	link := &s.timerList
	for *link != nil {
		if *link == t {
			*link = t.Next
			t.Next = nil
			return true
		}
		link = &(*link).Next
	}
	return false
}

// NextWake returns the wake time of the earliest timer
func (s *Scheduler) NextWake() (uint32, bool) {
	state := s.cs.Enter()
	defer s.cs.Exit(state)

	if s.timerList == nil {
		return 0, false
	}
	return s.timerList.WakeTime, true
}

// insertTimer inserts a timer in sorted order by WakeTime
func (s *Scheduler) insertTimer(t *Timer) {
	if s.timerList == nil || TimeAfter(s.timerList.WakeTime, t.WakeTime) {
		t.Next = s.timerList
		s.timerList = t
		return
	}

	current := s.timerList
	for current.Next != nil && !TimeAfter(current.Next.WakeTime, t.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// popDue removes and returns the first timer due at now, or nil
func (s *Scheduler) popDue(now uint32) *Timer {
	state := s.cs.Enter()
	defer s.cs.Exit(state)

	timer := s.timerList
	if timer == nil || TimeAfter(timer.WakeTime, now) {
		return nil
	}
	s.timerList = timer.Next
	timer.Next = nil // Clear Next pointer to avoid circular references
	return timer
}

// Dispatch runs all timers with WakeTime <= now.
// Handlers run outside the critical section and may schedule other timers.
func (s *Scheduler) Dispatch(now uint32) int {
	ran := 0
	for {
		timer := s.popDue(now)
		if timer == nil {
			return ran
		}

		ran++
		if timer.Handler(timer) == SF_RESCHEDULE {
			s.Schedule(timer)
		}
	}
}
