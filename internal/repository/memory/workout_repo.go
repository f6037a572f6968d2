package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type workoutRepository struct {
	mu       sync.RWMutex
	workouts map[primitive.ObjectID]*domain.Workout
	order    []primitive.ObjectID // insertion order
}

// NewWorkoutRepository creates an empty in-memory workout store.
func NewWorkoutRepository() repository.WorkoutRepository {
	return &workoutRepository{workouts: make(map[primitive.ObjectID]*domain.Workout)}
}

func (r *workoutRepository) Create(_ context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.UserID == primitive.NilObjectID || workout.Name == "" {
		return primitive.NilObjectID, errors.New("workout requires userId and name")
	}
	if workout.ID == primitive.NilObjectID {
		workout.ID = primitive.NewObjectID()
	}
	workout.Relink()
	stored, err := clone(workout)
	if err != nil {
		return primitive.NilObjectID, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.workouts[workout.ID]; exists {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	r.workouts[workout.ID] = stored
	r.order = append(r.order, workout.ID)
	return workout.ID, nil
}

func (r *workoutRepository) Update(_ context.Context, workout *domain.Workout) error {
	stored, err := clone(workout)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.workouts[workout.ID]
	if !ok || current.UserID != workout.UserID {
		return repository.ErrNotFound
	}
	r.workouts[workout.ID] = stored
	return nil
}

func (r *workoutRepository) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.workouts[id]
	if !ok || current.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.workouts, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *workoutRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	r.mu.RLock()
	stored, ok := r.workouts[id]
	r.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.load(stored)
}

func (r *workoutRepository) List(_ context.Context, q repository.WorkoutQuery) ([]*domain.Workout, error) {
	r.mu.RLock()
	matched := make([]*domain.Workout, 0)
	for _, id := range r.order {
		w := r.workouts[id]
		if w.UserID != q.UserID {
			continue
		}
		if q.Status != nil && w.Status != *q.Status {
			continue
		}
		if q.Templates != nil && w.IsTemplate != *q.Templates {
			continue
		}
		matched = append(matched, w)
	}
	r.mu.RUnlock()

	out := make([]*domain.Workout, 0, len(matched))
	for _, w := range matched {
		c, err := r.load(w)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sortBy(out, workoutSortKey(q.SortBy), q.Descending)
	return out, nil
}

func (r *workoutRepository) load(stored *domain.Workout) (*domain.Workout, error) {
	w, err := clone(stored)
	if err != nil {
		return nil, err
	}
	w.Relink()
	return w, nil
}

func workoutSortKey(field string) func(*domain.Workout) sortKey {
	switch field {
	case repository.SortUpdatedAt:
		return func(w *domain.Workout) sortKey { return sortKey{t: w.UpdatedAt} }
	case repository.SortName:
		return func(w *domain.Workout) sortKey { return sortKey{s: w.Name} }
	case repository.SortStartedAt:
		return func(w *domain.Workout) sortKey {
			var t time.Time
			if w.StartedAt != nil {
				t = *w.StartedAt
			}
			return sortKey{t: t}
		}
	}
	return func(w *domain.Workout) sortKey { return sortKey{t: w.CreatedAt} }
}
