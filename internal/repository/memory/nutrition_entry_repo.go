package memory

import (
	"context"
	"errors"
	"sync"

	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type nutritionEntryRepository struct {
	mu      sync.RWMutex
	entries map[primitive.ObjectID]*domain.NutritionEntry
	order   []primitive.ObjectID
}

// NewNutritionEntryRepository creates an empty in-memory entry store.
func NewNutritionEntryRepository() repository.NutritionEntryRepository {
	return &nutritionEntryRepository{entries: make(map[primitive.ObjectID]*domain.NutritionEntry)}
}

func (r *nutritionEntryRepository) Create(_ context.Context, entry *domain.NutritionEntry) (primitive.ObjectID, error) {
	if entry.UserID == primitive.NilObjectID || entry.FoodName == "" {
		return primitive.NilObjectID, errors.New("nutrition entry requires userId and foodName")
	}
	if entry.ID == primitive.NilObjectID {
		entry.ID = primitive.NewObjectID()
	}
	stored, err := clone(entry)
	if err != nil {
		return primitive.NilObjectID, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[entry.ID]; exists {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	r.entries[entry.ID] = stored
	r.order = append(r.order, entry.ID)
	return entry.ID, nil
}

func (r *nutritionEntryRepository) Update(_ context.Context, entry *domain.NutritionEntry) error {
	stored, err := clone(entry)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.entries[entry.ID]
	if !ok || current.UserID != entry.UserID {
		return repository.ErrNotFound
	}
	r.entries[entry.ID] = stored
	return nil
}

func (r *nutritionEntryRepository) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.entries[id]
	if !ok || current.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.entries, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *nutritionEntryRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.NutritionEntry, error) {
	r.mu.RLock()
	stored, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(stored)
}

func (r *nutritionEntryRepository) List(_ context.Context, q repository.EntryQuery) ([]*domain.NutritionEntry, error) {
	r.mu.RLock()
	matched := make([]*domain.NutritionEntry, 0)
	for _, id := range r.order {
		e := r.entries[id]
		if e.UserID != q.UserID {
			continue
		}
		if !q.From.IsZero() && e.LoggedAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && !e.LoggedAt.Before(q.To) {
			continue
		}
		if q.MealType != "" && e.MealType != q.MealType {
			continue
		}
		if q.FavoritesOnly && !e.IsFavorite {
			continue
		}
		matched = append(matched, e)
	}
	r.mu.RUnlock()

	out := make([]*domain.NutritionEntry, 0, len(matched))
	for _, e := range matched {
		c, err := clone(e)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sortBy(out, entrySortKey(q.SortBy), q.Descending)
	return out, nil
}

func entrySortKey(field string) func(*domain.NutritionEntry) sortKey {
	switch field {
	case repository.SortCreatedAt:
		return func(e *domain.NutritionEntry) sortKey { return sortKey{t: e.CreatedAt} }
	case repository.SortFoodName:
		return func(e *domain.NutritionEntry) sortKey { return sortKey{s: e.FoodName} }
	}
	return func(e *domain.NutritionEntry) sortKey { return sortKey{t: e.LoggedAt} }
}
