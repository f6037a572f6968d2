package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRepository struct {
	mu      sync.RWMutex
	byID    map[primitive.ObjectID]*domain.User
	byEmail map[string]primitive.ObjectID
}

// NewUserRepository creates an empty in-memory user store. Emails are unique
// and compared case-insensitively.
func NewUserRepository() repository.UserRepository {
	return &userRepository{
		byID:    make(map[primitive.ObjectID]*domain.User),
		byEmail: make(map[string]primitive.ObjectID),
	}
}

func (r *userRepository) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" {
		return primitive.NilObjectID, errors.New("user email and password hash are required")
	}
	user.Email = strings.ToLower(user.Email)
	if user.ID == primitive.NilObjectID {
		user.ID = primitive.NewObjectID()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[user.Email]; taken {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[user.Email] = user.ID
	return user.ID, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := *r.byID[id]
	return &u, nil
}

func (r *userRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := *stored
	return &u, nil
}
