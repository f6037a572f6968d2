package metrics

import (
	"strconv"

	"alcyxob/fittrack/internal/domain"
)

// Recorder is what the services report to. A nil *Manager records nothing.
type Recorder interface {
	WorkoutTransition(res domain.TransitionResult, to domain.WorkoutStatus)
	EntryLogged(method domain.LogMethod)
}

func (m *Manager) WorkoutTransition(res domain.TransitionResult, to domain.WorkoutStatus) {
	if m == nil {
		return
	}
	m.CounterWorkoutTransitions.WithLabelValues(string(to), strconv.FormatBool(res.Accepted)).Inc()
}

func (m *Manager) EntryLogged(method domain.LogMethod) {
	if m == nil {
		return
	}
	m.CounterEntriesLogged.WithLabelValues(string(method)).Inc()
}
