package service

import (
	"context"
	"errors"
	"time"

	"alcyxob/fittrack/internal/clock"
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/metrics"
	"alcyxob/fittrack/internal/repository"
	"alcyxob/fittrack/internal/templates"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrWorkoutNotFound  = errors.New("workout not found")
	ErrWorkoutExists    = errors.New("workout already exists")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrSetNotFound      = errors.New("set not found")
	ErrNotATemplate     = errors.New("workout is not a template")
)

// WorkoutFilter narrows ListWorkouts. Nil pointers mean "any".
type WorkoutFilter struct {
	Status     *domain.WorkoutStatus
	Templates  *bool
	SortBy     string
	Descending bool
}

// NewExerciseInput describes an exercise to add. Empty Type means resistance;
// nil RestTime keeps the default.
type NewExerciseInput struct {
	Name     string
	Type     domain.ExerciseType
	Category string
	Notes    string
	RestTime *int
}

// RestStatus is the state of an exercise's rest timer.
type RestStatus struct {
	InRest    bool          `json:"inRest"`
	Remaining time.Duration `json:"remaining"`
}

type WorkoutService interface {
	CreateWorkout(ctx context.Context, userID primitive.ObjectID, name, notes string) (*domain.Workout, error)
	GetWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error)
	ListWorkouts(ctx context.Context, userID primitive.ObjectID, filter WorkoutFilter) ([]*domain.Workout, error)
	// DeleteWorkout returns the deleted aggregate so it can be restored.
	DeleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error)
	RestoreWorkout(ctx context.Context, userID primitive.ObjectID, snapshot *domain.Workout) (*domain.Workout, error)

	StartWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, domain.TransitionResult, error)
	CompleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, domain.TransitionResult, error)
	CancelWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, domain.TransitionResult, error)

	AddExercise(ctx context.Context, userID, workoutID primitive.ObjectID, in NewExerciseInput) (*domain.Workout, *domain.Exercise, error)
	RemoveExercise(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID) (*domain.Workout, error)
	UpdateExercise(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID, u domain.ExerciseUpdate) (*domain.Workout, error)
	RestStatus(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID) (RestStatus, error)

	AddSet(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID, overrides domain.SetUpdate) (*domain.Workout, *domain.ExerciseSet, error)
	AddProgressiveSet(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID) (*domain.Workout, *domain.ExerciseSet, error)
	UpdateSet(ctx context.Context, userID, workoutID, exerciseID, setID primitive.ObjectID, u domain.SetUpdate) (*domain.Workout, error)
	CompleteSet(ctx context.Context, userID, workoutID, exerciseID, setID primitive.ObjectID) (*domain.Workout, error)
	ResetSet(ctx context.Context, userID, workoutID, exerciseID, setID primitive.ObjectID) (*domain.Workout, error)
	RemoveSet(ctx context.Context, userID, workoutID, exerciseID, setID primitive.ObjectID) (*domain.Workout, error)

	DuplicateAsTemplate(ctx context.Context, userID, workoutID primitive.ObjectID, name string) (*domain.Workout, error)
	InstantiateTemplate(ctx context.Context, userID, templateID primitive.ObjectID, name string) (*domain.Workout, error)
	ImportTemplates(ctx context.Context, userID primitive.ObjectID, defs []templates.TemplateDef) ([]*domain.Workout, error)
}

type workoutService struct {
	workoutRepo repository.WorkoutRepository
	clock       clock.Clock
	metrics     metrics.Recorder
	locks       *lockTable
}

// NewWorkoutService creates a new instance of workoutService. rec may be nil.
func NewWorkoutService(workoutRepo repository.WorkoutRepository, clk clock.Clock, rec metrics.Recorder) WorkoutService {
	return &workoutService{
		workoutRepo: workoutRepo,
		clock:       clk,
		metrics:     recorderOrNoop(rec),
		locks:       newLockTable(),
	}
}

func (s *workoutService) CreateWorkout(ctx context.Context, userID primitive.ObjectID, name, notes string) (*domain.Workout, error) {
	w, err := domain.NewWorkout(userID, name, s.clock.Now())
	if err != nil {
		return nil, err
	}
	w.Notes = notes
	if _, err := s.workoutRepo.Create(ctx, w); err != nil {
		return nil, persistence("create workout", err)
	}
	return w, nil
}

func (s *workoutService) GetWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	return s.load(ctx, userID, workoutID)
}

func (s *workoutService) ListWorkouts(ctx context.Context, userID primitive.ObjectID, filter WorkoutFilter) ([]*domain.Workout, error) {
	workouts, err := s.workoutRepo.List(ctx, repository.WorkoutQuery{
		UserID:     userID,
		Status:     filter.Status,
		Templates:  filter.Templates,
		SortBy:     filter.SortBy,
		Descending: filter.Descending,
	})
	if err != nil {
		return nil, persistence("list workouts", err)
	}
	return workouts, nil
}

func (s *workoutService) DeleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	unlock := s.locks.lock(workoutID)
	defer unlock()

	w, err := s.load(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if err := s.workoutRepo.Delete(ctx, workoutID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, persistence("delete workout", err)
	}
	return w, nil
}

func (s *workoutService) RestoreWorkout(ctx context.Context, userID primitive.ObjectID, snapshot *domain.Workout) (*domain.Workout, error) {
	if snapshot == nil || snapshot.UserID != userID {
		return nil, ErrWorkoutNotFound
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	unlock := s.locks.lock(snapshot.ID)
	defer unlock()

	snapshot.Relink()
	if _, err := s.workoutRepo.Create(ctx, snapshot); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrWorkoutExists
		}
		return nil, persistence("restore workout", err)
	}
	return snapshot, nil
}

func (s *workoutService) StartWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, domain.TransitionResult, error) {
	return s.transition(ctx, userID, workoutID, domain.WorkoutInProgress, func(w *domain.Workout, now time.Time) domain.TransitionResult {
		return w.Start(now)
	})
}

func (s *workoutService) CompleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, domain.TransitionResult, error) {
	return s.transition(ctx, userID, workoutID, domain.WorkoutCompleted, func(w *domain.Workout, now time.Time) domain.TransitionResult {
		return w.Complete(now)
	})
}

func (s *workoutService) CancelWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, domain.TransitionResult, error) {
	return s.transition(ctx, userID, workoutID, domain.WorkoutCancelled, func(w *domain.Workout, _ time.Time) domain.TransitionResult {
		return w.Cancel()
	})
}

// transition applies a lifecycle call. Rejected transitions are reported, not
// saved.
func (s *workoutService) transition(ctx context.Context, userID, workoutID primitive.ObjectID, to domain.WorkoutStatus,
	apply func(*domain.Workout, time.Time) domain.TransitionResult) (*domain.Workout, domain.TransitionResult, error) {
	var res domain.TransitionResult
	w, err := s.mutate(ctx, userID, workoutID, func(w *domain.Workout, now time.Time) (bool, error) {
		res = apply(w, now)
		if !res.Accepted {
			log.Debugf("workout %s: transition %s -> %s rejected", workoutID.Hex(), res.From, to)
		}
		return res.Accepted, nil
	})
	if err != nil {
		return nil, domain.TransitionResult{}, err
	}
	s.metrics.WorkoutTransition(res, to)
	return w, res, nil
}

func (s *workoutService) AddExercise(ctx context.Context, userID, workoutID primitive.ObjectID, in NewExerciseInput) (*domain.Workout, *domain.Exercise, error) {
	typ := in.Type
	if typ == "" {
		typ = domain.ExerciseResistance
	}
	var added *domain.Exercise
	w, err := s.mutate(ctx, userID, workoutID, func(w *domain.Workout, now time.Time) (bool, error) {
		ex, err := domain.NewExercise(in.Name, typ, now)
		if err != nil {
			return false, err
		}
		if err := ex.Update(domain.ExerciseUpdate{Category: &in.Category, Notes: &in.Notes, RestTime: in.RestTime}); err != nil {
			return false, err
		}
		w.AddExercise(ex)
		added = ex
		return true, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return w, added, nil
}

func (s *workoutService) RemoveExercise(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID) (*domain.Workout, error) {
	return s.mutate(ctx, userID, workoutID, func(w *domain.Workout, _ time.Time) (bool, error) {
		if !w.RemoveExerciseByID(exerciseID) {
			return false, ErrExerciseNotFound
		}
		return true, nil
	})
}

func (s *workoutService) UpdateExercise(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID, u domain.ExerciseUpdate) (*domain.Workout, error) {
	return s.mutateExercise(ctx, userID, workoutID, exerciseID, func(ex *domain.Exercise, _ time.Time) error {
		return ex.Update(u)
	})
}

func (s *workoutService) RestStatus(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID) (RestStatus, error) {
	w, err := s.load(ctx, userID, workoutID)
	if err != nil {
		return RestStatus{}, err
	}
	ex := w.Exercise(exerciseID)
	if ex == nil {
		return RestStatus{}, ErrExerciseNotFound
	}
	now := s.clock.Now()
	return RestStatus{InRest: ex.IsInRestPeriod(now), Remaining: ex.RemainingRestTime(now)}, nil
}

func (s *workoutService) AddSet(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID, overrides domain.SetUpdate) (*domain.Workout, *domain.ExerciseSet, error) {
	var added *domain.ExerciseSet
	w, err := s.mutateExercise(ctx, userID, workoutID, exerciseID, func(ex *domain.Exercise, _ time.Time) error {
		set := ex.CreateDefaultSet()
		if err := set.Update(overrides); err != nil {
			return err
		}
		ex.AddSet(set)
		added = set
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return w, added, nil
}

// AddProgressiveSet appends a slightly harder copy of the last set, or a
// default set when the exercise has none yet.
func (s *workoutService) AddProgressiveSet(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID) (*domain.Workout, *domain.ExerciseSet, error) {
	var added *domain.ExerciseSet
	w, err := s.mutateExercise(ctx, userID, workoutID, exerciseID, func(ex *domain.Exercise, _ time.Time) error {
		if last := ex.LastSet(); last != nil {
			added = last.CreateProgressiveSet()
		} else {
			added = ex.CreateDefaultSet()
		}
		ex.AddSet(added)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return w, added, nil
}

func (s *workoutService) UpdateSet(ctx context.Context, userID, workoutID, exerciseID, setID primitive.ObjectID, u domain.SetUpdate) (*domain.Workout, error) {
	return s.mutateSet(ctx, userID, workoutID, exerciseID, setID, func(set *domain.ExerciseSet, _ time.Time) error {
		return set.Update(u)
	})
}

func (s *workoutService) CompleteSet(ctx context.Context, userID, workoutID, exerciseID, setID primitive.ObjectID) (*domain.Workout, error) {
	return s.mutateSet(ctx, userID, workoutID, exerciseID, setID, func(set *domain.ExerciseSet, now time.Time) error {
		set.Complete(now)
		return nil
	})
}

func (s *workoutService) ResetSet(ctx context.Context, userID, workoutID, exerciseID, setID primitive.ObjectID) (*domain.Workout, error) {
	return s.mutateSet(ctx, userID, workoutID, exerciseID, setID, func(set *domain.ExerciseSet, _ time.Time) error {
		set.Reset()
		return nil
	})
}

func (s *workoutService) RemoveSet(ctx context.Context, userID, workoutID, exerciseID, setID primitive.ObjectID) (*domain.Workout, error) {
	return s.mutateExercise(ctx, userID, workoutID, exerciseID, func(ex *domain.Exercise, _ time.Time) error {
		if !ex.RemoveSetByID(setID) {
			return ErrSetNotFound
		}
		return nil
	})
}

func (s *workoutService) DuplicateAsTemplate(ctx context.Context, userID, workoutID primitive.ObjectID, name string) (*domain.Workout, error) {
	w, err := s.load(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	dup := w.DuplicateAsTemplate(name, s.clock.Now())
	if _, err := s.workoutRepo.Create(ctx, dup); err != nil {
		return nil, persistence("create template", err)
	}
	return dup, nil
}

func (s *workoutService) InstantiateTemplate(ctx context.Context, userID, templateID primitive.ObjectID, name string) (*domain.Workout, error) {
	tpl, err := s.load(ctx, userID, templateID)
	if err != nil {
		return nil, err
	}
	if !tpl.IsTemplate {
		return nil, ErrNotATemplate
	}
	w := tpl.InstantiateTemplate(name, s.clock.Now())
	if _, err := s.workoutRepo.Create(ctx, w); err != nil {
		return nil, persistence("instantiate template", err)
	}
	return w, nil
}

// ImportTemplates stores every template of defs, or none: when a save fails
// the templates already stored by this call are deleted again.
func (s *workoutService) ImportTemplates(ctx context.Context, userID primitive.ObjectID, defs []templates.TemplateDef) ([]*domain.Workout, error) {
	now := s.clock.Now()
	built := make([]*domain.Workout, 0, len(defs))
	for _, def := range defs {
		w, err := def.Build(userID, now)
		if err != nil {
			return nil, err
		}
		built = append(built, w)
	}

	for i, w := range built {
		if _, err := s.workoutRepo.Create(ctx, w); err != nil {
			for _, done := range built[:i] {
				if delErr := s.workoutRepo.Delete(ctx, done.ID, userID); delErr != nil {
					log.Errorf("import rollback: failed to delete template %s: %v", done.ID.Hex(), delErr)
				}
			}
			return nil, persistence("import template "+w.Name, err)
		}
	}
	log.Debugf("imported %d templates for user %s", len(built), userID.Hex())
	return built, nil
}

// load fetches a workout owned by userID. Foreign workouts are reported as missing.
func (s *workoutService) load(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	w, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, persistence("load workout", err)
	}
	if w.UserID != userID {
		return nil, ErrWorkoutNotFound
	}
	return w, nil
}

// mutate runs fn on a freshly loaded workout under the workout's lock and
// saves the result when fn reports a change. On any error the loaded copy is
// dropped, so the stored aggregate is untouched.
func (s *workoutService) mutate(ctx context.Context, userID, workoutID primitive.ObjectID, fn func(*domain.Workout, time.Time) (bool, error)) (*domain.Workout, error) {
	unlock := s.locks.lock(workoutID)
	defer unlock()

	w, err := s.load(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	changed, err := fn(w, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return w, nil
	}
	w.UpdatedAt = now
	if err := s.workoutRepo.Update(ctx, w); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, persistence("save workout", err)
	}
	return w, nil
}

func (s *workoutService) mutateExercise(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID, fn func(*domain.Exercise, time.Time) error) (*domain.Workout, error) {
	return s.mutate(ctx, userID, workoutID, func(w *domain.Workout, now time.Time) (bool, error) {
		ex := w.Exercise(exerciseID)
		if ex == nil {
			return false, ErrExerciseNotFound
		}
		return true, fn(ex, now)
	})
}

func (s *workoutService) mutateSet(ctx context.Context, userID, workoutID, exerciseID, setID primitive.ObjectID, fn func(*domain.ExerciseSet, time.Time) error) (*domain.Workout, error) {
	return s.mutateExercise(ctx, userID, workoutID, exerciseID, func(ex *domain.Exercise, now time.Time) error {
		set := ex.Set(setID)
		if set == nil {
			return ErrSetNotFound
		}
		return fn(set, now)
	})
}
