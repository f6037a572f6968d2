// internal/domain/exercise_set.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// progressiveWeightStep is the load added by CreateProgressiveSet.
const progressiveWeightStep = 2.5

// ExerciseSet is one logged set of work. It is owned by exactly one Exercise.
type ExerciseSet struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	ExerciseID   primitive.ObjectID `bson:"exerciseId" json:"exerciseId"` // Non-owning link to the parent
	Order        int                `bson:"order" json:"order"`           // Zero-based position within the parent
	Weight       float64            `bson:"weight" json:"weight"`
	Reps         int                `bson:"reps" json:"reps"`
	Duration     float64            `bson:"duration" json:"duration"` // Seconds
	Distance     float64            `bson:"distance" json:"distance"`
	TargetWeight *float64           `bson:"targetWeight,omitempty" json:"targetWeight,omitempty"`
	TargetReps   *int               `bson:"targetReps,omitempty" json:"targetReps,omitempty"`
	IsCompleted  bool               `bson:"isCompleted" json:"isCompleted"`
	CompletedAt  *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`

	exercise *Exercise
}

// SetUpdate carries the fields to overwrite; nil fields are left untouched.
type SetUpdate struct {
	Weight       *float64 `json:"weight,omitempty"`
	Reps         *int     `json:"reps,omitempty"`
	Duration     *float64 `json:"duration,omitempty"`
	Distance     *float64 `json:"distance,omitempty"`
	TargetWeight *float64 `json:"targetWeight,omitempty"`
	TargetReps   *int     `json:"targetReps,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
}

func (u SetUpdate) validate() error {
	checks := []struct {
		field string
		value *float64
	}{
		{"weight", u.Weight},
		{"duration", u.Duration},
		{"distance", u.Distance},
		{"targetWeight", u.TargetWeight},
	}
	for _, c := range checks {
		if c.value != nil {
			if err := nonNegative(c.field, *c.value); err != nil {
				return err
			}
		}
	}
	if u.Reps != nil && *u.Reps < 0 {
		return invalid("reps", "must not be negative")
	}
	if u.TargetReps != nil && *u.TargetReps < 0 {
		return invalid("targetReps", "must not be negative")
	}
	return nil
}

// Exercise returns the owning exercise, or nil for a detached set.
func (s *ExerciseSet) Exercise() *Exercise {
	return s.exercise
}

// Update overwrites the supplied fields. Either every field is applied or none is.
func (s *ExerciseSet) Update(u SetUpdate) error {
	if err := u.validate(); err != nil {
		return err
	}
	if u.Weight != nil {
		s.Weight = *u.Weight
	}
	if u.Reps != nil {
		s.Reps = *u.Reps
	}
	if u.Duration != nil {
		s.Duration = *u.Duration
	}
	if u.Distance != nil {
		s.Distance = *u.Distance
	}
	if u.TargetWeight != nil {
		tw := *u.TargetWeight
		s.TargetWeight = &tw
	}
	if u.TargetReps != nil {
		tr := *u.TargetReps
		s.TargetReps = &tr
	}
	if u.Notes != nil {
		s.Notes = *u.Notes
	}
	return nil
}

// Complete marks the set done and records the completion on the parent exercise,
// which starts its rest timer. A detached set only updates its own fields.
func (s *ExerciseSet) Complete(now time.Time) {
	t := now
	s.IsCompleted = true
	s.CompletedAt = &t
	if s.exercise != nil {
		s.exercise.CompleteSet(now)
	}
}

// Reset clears the completion state. The parent's rest timer is left as is.
func (s *ExerciseSet) Reset() {
	s.IsCompleted = false
	s.CompletedAt = nil
}

// Duplicate copies the set under a new identity, detached and not completed.
func (s *ExerciseSet) Duplicate() *ExerciseSet {
	dup := &ExerciseSet{
		ID:       primitive.NewObjectID(),
		Order:    s.Order,
		Weight:   s.Weight,
		Reps:     s.Reps,
		Duration: s.Duration,
		Distance: s.Distance,
		Notes:    s.Notes,
	}
	if s.TargetWeight != nil {
		tw := *s.TargetWeight
		dup.TargetWeight = &tw
	}
	if s.TargetReps != nil {
		tr := *s.TargetReps
		dup.TargetReps = &tr
	}
	return dup
}

// CreateProgressiveSet returns a duplicate with a little more work:
// +2.5 weight when the set is loaded, otherwise +1 rep when reps are counted.
func (s *ExerciseSet) CreateProgressiveSet() *ExerciseSet {
	next := s.Duplicate()
	switch {
	case s.Weight > 0:
		next.Weight = s.Weight + progressiveWeightStep
	case s.Reps > 0:
		next.Reps = s.Reps + 1
	}
	return next
}

// Validate checks the stored fields of a set.
func (s *ExerciseSet) Validate() error {
	if s.ID.IsZero() {
		return invalid("set.id", "is required")
	}
	if err := (SetUpdate{
		Weight:       &s.Weight,
		Reps:         &s.Reps,
		Duration:     &s.Duration,
		Distance:     &s.Distance,
		TargetWeight: s.TargetWeight,
		TargetReps:   s.TargetReps,
	}).validate(); err != nil {
		return err
	}
	if s.IsCompleted != (s.CompletedAt != nil) {
		return invalid("completedAt", "must be set exactly when the set is completed")
	}
	return nil
}

// volume is weight × reps for this set.
func (s *ExerciseSet) volume() float64 {
	return s.Weight * float64(s.Reps)
}
