package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseType decides which metrics apply to an exercise and how its sets are seeded.
type ExerciseType string

const (
	ExerciseResistance ExerciseType = "resistance"
	ExerciseCardio     ExerciseType = "cardio"
	ExerciseRecovery   ExerciseType = "recovery"
)

// DefaultRestTime is the rest target, in seconds, given to new exercises.
const DefaultRestTime = 90

// Valid reports whether t is one of the known exercise types.
func (t ExerciseType) Valid() bool {
	switch t {
	case ExerciseResistance, ExerciseCardio, ExerciseRecovery:
		return true
	}
	return false
}

// Exercise is one movement within a Workout. It owns its sets.
type Exercise struct {
	ID                 primitive.ObjectID `bson:"_id" json:"id"`
	WorkoutID          primitive.ObjectID `bson:"workoutId" json:"workoutId"` // Non-owning link to the parent
	Name               string             `bson:"name" json:"name"`
	Type               ExerciseType       `bson:"type" json:"type"`
	Category           string             `bson:"category,omitempty" json:"category,omitempty"` // e.g., "Chest", "Legs"
	Notes              string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Order              int                `bson:"order" json:"order"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	RestTime           int                `bson:"restTime" json:"restTime"` // Seconds
	LastSetCompletedAt *time.Time         `bson:"lastSetCompletedAt,omitempty" json:"lastSetCompletedAt,omitempty"`
	Sets               []*ExerciseSet     `bson:"sets" json:"sets"`

	workout *Workout
}

// NewExercise creates a detached exercise with no sets.
func NewExercise(name string, typ ExerciseType, now time.Time) (*Exercise, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	if !typ.Valid() {
		return nil, invalid("type", "must be resistance, cardio or recovery")
	}
	return &Exercise{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Type:      typ,
		CreatedAt: now,
		RestTime:  DefaultRestTime,
		Sets:      []*ExerciseSet{},
	}, nil
}

// ExerciseUpdate carries the descriptive fields to overwrite; nil fields are
// left untouched.
type ExerciseUpdate struct {
	Name     *string `json:"name,omitempty"`
	Category *string `json:"category,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	RestTime *int    `json:"restTime,omitempty"` // Seconds
}

// Update applies u. Either every field is applied or none is.
func (e *Exercise) Update(u ExerciseUpdate) error {
	var name string
	if u.Name != nil {
		name = strings.TrimSpace(*u.Name)
		if name == "" {
			return invalid("name", "is required")
		}
	}
	if u.RestTime != nil && *u.RestTime < 0 {
		return invalid("restTime", "must not be negative")
	}
	if u.Name != nil {
		e.Name = name
	}
	if u.Category != nil {
		e.Category = *u.Category
	}
	if u.Notes != nil {
		e.Notes = *u.Notes
	}
	if u.RestTime != nil {
		e.RestTime = *u.RestTime
	}
	return nil
}

// Workout returns the owning workout, or nil for a detached exercise.
func (e *Exercise) Workout() *Workout {
	return e.workout
}

// AddSet appends set at the end of the exercise and takes ownership of it.
// Nil sets and sets already owned by e are ignored.
func (e *Exercise) AddSet(set *ExerciseSet) {
	if set == nil || e.indexOfSet(set.ID) >= 0 {
		return
	}
	set.Order = len(e.Sets)
	set.ExerciseID = e.ID
	set.exercise = e
	e.Sets = append(e.Sets, set)
}

// RemoveSet removes set (matched by id) and renumbers the remaining sets.
// It reports whether anything was removed; an unknown set is a no-op.
func (e *Exercise) RemoveSet(set *ExerciseSet) bool {
	if set == nil {
		return false
	}
	return e.RemoveSetByID(set.ID)
}

// RemoveSetByID is RemoveSet keyed by id.
func (e *Exercise) RemoveSetByID(id primitive.ObjectID) bool {
	idx := e.indexOfSet(id)
	if idx < 0 {
		return false
	}
	removed := e.Sets[idx]
	e.Sets = append(e.Sets[:idx], e.Sets[idx+1:]...)
	removed.exercise = nil
	e.renumberSets()
	return true
}

// Set returns the set with the given id, or nil.
func (e *Exercise) Set(id primitive.ObjectID) *ExerciseSet {
	if idx := e.indexOfSet(id); idx >= 0 {
		return e.Sets[idx]
	}
	return nil
}

// LastSet returns the highest-ordered set, or nil when there are none.
func (e *Exercise) LastSet() *ExerciseSet {
	if len(e.Sets) == 0 {
		return nil
	}
	return e.Sets[len(e.Sets)-1]
}

// CreateDefaultSet returns a new set seeded for the exercise type.
// The set is not added; callers pass it to AddSet.
func (e *Exercise) CreateDefaultSet() *ExerciseSet {
	set := &ExerciseSet{
		ID:         primitive.NewObjectID(),
		ExerciseID: e.ID,
		Order:      len(e.Sets),
	}
	switch e.Type {
	case ExerciseResistance:
		set.Reps = 8
		set.Weight = 0
	case ExerciseCardio:
		set.Duration = 300
	case ExerciseRecovery:
		set.Duration = 60
	}
	return set
}

// CompleteSet records a set completion for the rest timer. Called by ExerciseSet.Complete.
func (e *Exercise) CompleteSet(now time.Time) {
	t := now
	e.LastSetCompletedAt = &t
}

// Duplicate deep-copies the exercise under a new identity. Every set is
// duplicated with its completion cleared, and the copy is detached.
func (e *Exercise) Duplicate() *Exercise {
	dup := &Exercise{
		ID:        primitive.NewObjectID(),
		Name:      e.Name,
		Type:      e.Type,
		Category:  e.Category,
		Notes:     e.Notes,
		Order:     e.Order,
		CreatedAt: e.CreatedAt,
		RestTime:  e.RestTime,
		Sets:      make([]*ExerciseSet, 0, len(e.Sets)),
	}
	for _, s := range e.Sets {
		dup.AddSet(s.Duplicate())
	}
	return dup
}

// TotalVolume is Σ weight×reps. Only resistance exercises have volume.
func (e *Exercise) TotalVolume() float64 {
	if e.Type != ExerciseResistance {
		return 0
	}
	var total float64
	for _, s := range e.Sets {
		total += s.volume()
	}
	return total
}

// TotalDuration is Σ duration in seconds. Only cardio exercises report duration.
func (e *Exercise) TotalDuration() float64 {
	if e.Type != ExerciseCardio {
		return 0
	}
	var total float64
	for _, s := range e.Sets {
		total += s.Duration
	}
	return total
}

func (e *Exercise) CompletedSetsCount() int {
	n := 0
	for _, s := range e.Sets {
		if s.IsCompleted {
			n++
		}
	}
	return n
}

// IsCompleted is true when there is at least one set and all sets are done.
func (e *Exercise) IsCompleted() bool {
	return len(e.Sets) > 0 && e.CompletedSetsCount() == len(e.Sets)
}

// IsInRestPeriod reports whether the rest timer started by the last completed set is running.
func (e *Exercise) IsInRestPeriod(now time.Time) bool {
	if e.LastSetCompletedAt == nil {
		return false
	}
	return now.Sub(*e.LastSetCompletedAt) < e.restDuration()
}

// RemainingRestTime is restTime minus the time since the last completed set, floored at zero.
func (e *Exercise) RemainingRestTime(now time.Time) time.Duration {
	if e.LastSetCompletedAt == nil {
		return 0
	}
	remaining := e.restDuration() - now.Sub(*e.LastSetCompletedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (e *Exercise) restDuration() time.Duration {
	return time.Duration(e.RestTime) * time.Second
}

func (e *Exercise) indexOfSet(id primitive.ObjectID) int {
	for i, s := range e.Sets {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (e *Exercise) renumberSets() {
	for i, s := range e.Sets {
		s.Order = i
	}
}

// Validate checks the exercise and every one of its sets.
func (e *Exercise) Validate() error {
	if e.ID.IsZero() {
		return invalid("exercise.id", "is required")
	}
	if strings.TrimSpace(e.Name) == "" {
		return invalid("name", "is required")
	}
	if !e.Type.Valid() {
		return invalid("type", "must be resistance, cardio or recovery")
	}
	if e.RestTime < 0 {
		return invalid("restTime", "must not be negative")
	}
	seen := make(map[primitive.ObjectID]bool, len(e.Sets))
	for _, s := range e.Sets {
		if s == nil {
			return invalid("sets", "must not contain null")
		}
		if seen[s.ID] {
			return invalid("set.id", "duplicate "+s.ID.Hex())
		}
		seen[s.ID] = true
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// relink restores the set back-references after decoding.
func (e *Exercise) relink() {
	if e.Sets == nil {
		e.Sets = []*ExerciseSet{}
	}
	for _, s := range e.Sets {
		s.ExerciseID = e.ID
		s.exercise = e
	}
	e.renumberSets()
}
