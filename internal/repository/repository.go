//go:generate mockgen -source=$GOFILE -destination=mocks/repository_mocks.go -package=mocks

package repository

import (
	"context"
	"time"

	"alcyxob/fittrack/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("already exists")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Sort fields accepted by the List queries. Unknown values fall back to the
// first entry of each group.
const (
	SortCreatedAt = "createdAt"
	SortUpdatedAt = "updatedAt"
	SortName      = "name"
	SortStartedAt = "startedAt"

	SortLoggedAt = "loggedAt"
	SortFoodName = "foodName"
)

// WorkoutQuery filters workouts of one user. Nil pointers mean "any".
type WorkoutQuery struct {
	UserID     primitive.ObjectID
	Status     *domain.WorkoutStatus
	Templates  *bool // true: templates only, false: sessions only
	SortBy     string
	Descending bool
}

// EntryQuery filters nutrition entries of one user. Zero times leave that end
// of the range open; To is exclusive.
type EntryQuery struct {
	UserID        primitive.ObjectID
	From          time.Time
	To            time.Time
	MealType      domain.MealType
	FavoritesOnly bool
	SortBy        string
	Descending    bool
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// WorkoutRepository stores whole Workout aggregates (exercises and sets embedded).
// Returned workouts are relinked and never alias stored state.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	Update(ctx context.Context, workout *domain.Workout) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	List(ctx context.Context, q WorkoutQuery) ([]*domain.Workout, error)
}

// NutritionEntryRepository defines the interface for interacting with nutrition entries.
type NutritionEntryRepository interface {
	Create(ctx context.Context, entry *domain.NutritionEntry) (primitive.ObjectID, error)
	Update(ctx context.Context, entry *domain.NutritionEntry) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.NutritionEntry, error)
	List(ctx context.Context, q EntryQuery) ([]*domain.NutritionEntry, error)
}
