package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	// Key is the per-user secret mixed into every ticket key.
	Key       string
	Roles     []string
	CreatedAt time.Time
}

type UserRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]User
	byEmail map[string]int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    map[int64]User{},
		byEmail: map[string]int64{},
	}
}

// Create stores a new user. Emails are unique case-insensitively.
func (r *UserRepository) Create(_ context.Context, user User) (User, error) {
	email := strings.ToLower(strings.TrimSpace(user.Email))

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return User{}, ErrConflict
	}

	r.nextID++
	user.ID = r.nextID
	user.Email = email
	if user.Key == "" {
		user.Key = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Roles = slices.Clone(user.Roles)

	r.byID[user.ID] = user
	r.byEmail[email] = user.ID
	return cloneUser(user), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !exists {
		return User{}, ErrNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.byID[id]
	if !exists {
		return User{}, ErrNotFound
	}
	return cloneUser(user), nil
}

func cloneUser(user User) User {
	user.Roles = slices.Clone(user.Roles)
	return user
}
