package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutStatus is the lifecycle state of a Workout.
type WorkoutStatus string

const (
	WorkoutPlanned    WorkoutStatus = "planned"
	WorkoutInProgress WorkoutStatus = "inProgress"
	WorkoutCompleted  WorkoutStatus = "completed"
	WorkoutCancelled  WorkoutStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s WorkoutStatus) Valid() bool {
	switch s {
	case WorkoutPlanned, WorkoutInProgress, WorkoutCompleted, WorkoutCancelled:
		return true
	}
	return false
}

// IsTerminal is true for completed and cancelled workouts.
func (s WorkoutStatus) IsTerminal() bool {
	return s == WorkoutCompleted || s == WorkoutCancelled
}

// TransitionResult tells the caller whether a lifecycle call changed anything.
// A rejected transition leaves the workout untouched.
type TransitionResult struct {
	Accepted bool          `json:"accepted"`
	From     WorkoutStatus `json:"from"`
	To       WorkoutStatus `json:"to"`
}

// Workout is a training session (or a reusable template). It owns its exercises.
type Workout struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	UserID      primitive.ObjectID  `bson:"userId" json:"userId"`
	Name        string              `bson:"name" json:"name"` // e.g., "Push A", "Long Run"
	Notes       string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Status      WorkoutStatus       `bson:"status" json:"status"`
	StartedAt   *time.Time          `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	TemplateID  *primitive.ObjectID `bson:"templateId,omitempty" json:"templateId,omitempty"` // Template this workout was copied from
	IsTemplate  bool                `bson:"isTemplate" json:"isTemplate"`
	Exercises   []*Exercise         `bson:"exercises" json:"exercises"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// NewWorkout creates an empty planned workout owned by userID.
func NewWorkout(userID primitive.ObjectID, name string, now time.Time) (*Workout, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	return &Workout{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Name:      name,
		Status:    WorkoutPlanned,
		Exercises: []*Exercise{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Start moves a planned workout to in progress.
func (w *Workout) Start(now time.Time) TransitionResult {
	return w.transition(WorkoutPlanned, WorkoutInProgress, func() {
		t := now
		w.StartedAt = &t
	})
}

// Complete finishes an in-progress workout.
func (w *Workout) Complete(now time.Time) TransitionResult {
	return w.transition(WorkoutInProgress, WorkoutCompleted, func() {
		t := now
		w.CompletedAt = &t
	})
}

// Cancel abandons an in-progress workout.
func (w *Workout) Cancel() TransitionResult {
	return w.transition(WorkoutInProgress, WorkoutCancelled, nil)
}

func (w *Workout) transition(from, to WorkoutStatus, apply func()) TransitionResult {
	res := TransitionResult{From: w.Status, To: w.Status}
	if w.Status != from {
		return res
	}
	if apply != nil {
		apply()
	}
	w.Status = to
	res.To = to
	res.Accepted = true
	return res
}

// AddExercise appends ex at the end of the workout and takes ownership of it.
// Nil exercises and exercises already in the workout are ignored.
func (w *Workout) AddExercise(ex *Exercise) {
	if ex == nil || w.indexOfExercise(ex.ID) >= 0 {
		return
	}
	ex.Order = len(w.Exercises)
	ex.WorkoutID = w.ID
	ex.workout = w
	w.Exercises = append(w.Exercises, ex)
}

// RemoveExercise removes ex together with all of its sets, then renumbers the
// remaining exercises. It reports whether anything was removed.
func (w *Workout) RemoveExercise(ex *Exercise) bool {
	if ex == nil {
		return false
	}
	return w.RemoveExerciseByID(ex.ID)
}

// RemoveExerciseByID is RemoveExercise keyed by id.
func (w *Workout) RemoveExerciseByID(id primitive.ObjectID) bool {
	idx := w.indexOfExercise(id)
	if idx < 0 {
		return false
	}
	removed := w.Exercises[idx]
	w.Exercises = append(w.Exercises[:idx], w.Exercises[idx+1:]...)
	for _, s := range removed.Sets {
		s.exercise = nil
	}
	removed.Sets = []*ExerciseSet{}
	removed.workout = nil
	for i, ex := range w.Exercises {
		ex.Order = i
	}
	return true
}

// Exercise returns the exercise with the given id, or nil.
func (w *Workout) Exercise(id primitive.ObjectID) *Exercise {
	if idx := w.indexOfExercise(id); idx >= 0 {
		return w.Exercises[idx]
	}
	return nil
}

// FindSet locates a set anywhere in the workout.
func (w *Workout) FindSet(setID primitive.ObjectID) (*Exercise, *ExerciseSet) {
	for _, ex := range w.Exercises {
		if s := ex.Set(setID); s != nil {
			return ex, s
		}
	}
	return nil, nil
}

// DuplicateAsTemplate deep-copies the workout into a new planned template that
// records this workout as its origin.
func (w *Workout) DuplicateAsTemplate(name string, now time.Time) *Workout {
	dup := w.copyAs(name, now)
	dup.IsTemplate = true
	origin := w.ID
	dup.TemplateID = &origin
	return dup
}

// InstantiateTemplate creates a planned, non-template workout from a template.
// The copy keeps a link to the template it came from.
func (w *Workout) InstantiateTemplate(name string, now time.Time) *Workout {
	dup := w.copyAs(name, now)
	origin := w.ID
	dup.TemplateID = &origin
	return dup
}

func (w *Workout) copyAs(name string, now time.Time) *Workout {
	name = strings.TrimSpace(name)
	if name == "" {
		name = w.Name
	}
	dup := &Workout{
		ID:        primitive.NewObjectID(),
		UserID:    w.UserID,
		Name:      name,
		Notes:     w.Notes,
		Status:    WorkoutPlanned,
		Exercises: make([]*Exercise, 0, len(w.Exercises)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, ex := range w.Exercises {
		c := ex.Duplicate()
		c.CreatedAt = now
		dup.AddExercise(c)
	}
	return dup
}

// Duration is completedAt − startedAt, or nil unless both are set.
func (w *Workout) Duration() *time.Duration {
	if w.StartedAt == nil || w.CompletedAt == nil {
		return nil
	}
	d := w.CompletedAt.Sub(*w.StartedAt)
	return &d
}

func (w *Workout) TotalSets() int {
	n := 0
	for _, ex := range w.Exercises {
		n += len(ex.Sets)
	}
	return n
}

func (w *Workout) CompletedSetsCount() int {
	n := 0
	for _, ex := range w.Exercises {
		n += ex.CompletedSetsCount()
	}
	return n
}

// TotalWeight is the lifted volume of the workout: the sum of every exercise's
// TotalVolume, so only resistance work counts.
func (w *Workout) TotalWeight() float64 {
	var total float64
	for _, ex := range w.Exercises {
		total += ex.TotalVolume()
	}
	return total
}

// CompletionPercentage is completed sets over total sets, 0..100.
func (w *Workout) CompletionPercentage() float64 {
	total := w.TotalSets()
	if total == 0 {
		return 0
	}
	return float64(w.CompletedSetsCount()) / float64(total) * 100
}

// Relink restores parent links and renumbers orders after the workout has been
// decoded from storage or JSON.
func (w *Workout) Relink() {
	if w.Exercises == nil {
		w.Exercises = []*Exercise{}
	}
	for i, ex := range w.Exercises {
		ex.WorkoutID = w.ID
		ex.workout = w
		ex.Order = i
		ex.relink()
	}
}

// Validate checks a whole workout, as when it is read back from a client
// snapshot. The timestamps must agree with the status the lifecycle would
// have produced.
func (w *Workout) Validate() error {
	if w.ID.IsZero() {
		return invalid("id", "is required")
	}
	if w.UserID.IsZero() {
		return invalid("userId", "is required")
	}
	if strings.TrimSpace(w.Name) == "" {
		return invalid("name", "is required")
	}
	if !w.Status.Valid() {
		return invalid("status", "unknown status "+string(w.Status))
	}
	started, completed := w.StartedAt != nil, w.CompletedAt != nil
	switch {
	case w.Status == WorkoutPlanned && (started || completed):
		return invalid("status", "a planned workout has no start or completion time")
	case w.Status != WorkoutPlanned && !started:
		return invalid("startedAt", "is required once a workout has started")
	case w.Status == WorkoutCompleted && !completed:
		return invalid("completedAt", "is required for a completed workout")
	case w.Status != WorkoutCompleted && completed:
		return invalid("completedAt", "is only set on completed workouts")
	case completed && w.CompletedAt.Before(*w.StartedAt):
		return invalid("completedAt", "is before startedAt")
	}

	seen := make(map[primitive.ObjectID]bool, len(w.Exercises))
	for _, ex := range w.Exercises {
		if ex == nil {
			return invalid("exercises", "must not contain null")
		}
		if seen[ex.ID] {
			return invalid("exercise.id", "duplicate "+ex.ID.Hex())
		}
		seen[ex.ID] = true
		if err := ex.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workout) indexOfExercise(id primitive.ObjectID) int {
	for i, ex := range w.Exercises {
		if ex.ID == id {
			return i
		}
	}
	return -1
}
