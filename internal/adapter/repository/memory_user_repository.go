package repository

import (
	"context"
	"strings"
	"sync"

	"pairchat/internal/domain/entity"
	"pairchat/internal/domain/repository"
	"pairchat/pkg/errors"
)

type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
	order []string // registration order, for stable listing
}

func NewMemoryUserRepository() repository.UserRepository {
	return &memoryUserRepository{
		users: make(map[string]*entity.User),
	}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == "" || user.Email == "" {
		return errors.InvalidArgument("user id and email are required", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return errors.Conflict("user already exists")
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return errors.Conflict("email already in use")
		}
	}

	r.users[user.ID] = cloneUser(user)
	r.order = append(r.order, user.ID)
	return nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return cloneUser(user), nil
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

func (r *memoryUserRepository) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return errors.NotFound("User", nil)
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *memoryUserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return errors.NotFound("User", nil)
	}
	delete(r.users, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memoryUserRepository) List(ctx context.Context, limit, offset int) ([]*entity.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*entity.User, 0, len(r.order))
	for _, id := range r.order {
		if user, ok := r.users[id]; ok {
			all = append(all, cloneUser(user))
		}
	}
	return paginateUsers(all, limit, offset)
}

func (r *memoryUserRepository) SearchByDisplayName(ctx context.Context, name string, limit, offset int) ([]*entity.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(name)
	matched := make([]*entity.User, 0)
	for _, id := range r.order {
		user, ok := r.users[id]
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(user.DisplayName), needle) {
			matched = append(matched, cloneUser(user))
		}
	}
	return paginateUsers(matched, limit, offset)
}

func paginateUsers(users []*entity.User, limit, offset int) ([]*entity.User, int64, error) {
	total := int64(len(users))
	if offset > 0 {
		if offset >= len(users) {
			return []*entity.User{}, total, nil
		}
		users = users[offset:]
	}
	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}
	return users, total, nil
}

func cloneUser(u *entity.User) *entity.User {
	out := *u
	return &out
}
