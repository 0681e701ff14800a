package users

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/statelessauth/internal/common"
	"github.com/dmitrijs2005/statelessauth/internal/server/models"
)

// MemoryRepository keeps users in process memory. Stored and returned
// users are copies, so callers may mutate what they get back.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: map[int64]*models.User{}}
}

func clone(u *models.User) *models.User {
	c := *u
	c.Authorities = append([]models.Authority(nil), u.Authorities...)
	return &c
}

func (r *MemoryRepository) FindByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return clone(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) FindByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) Save(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, other := range r.users {
		if id != u.ID && other.Username == u.Username {
			return nil, common.ErrorAlreadyExists
		}
	}

	if u.ID == 0 {
		r.nextID++
		u.ID = r.nextID
	} else if _, ok := r.users[u.ID]; !ok {
		return nil, common.ErrorNotFound
	}

	auths := models.DedupAuthorities(u.Authorities)
	for i := range auths {
		auths[i].UserID = u.ID
	}
	u.Authorities = auths

	r.users[u.ID] = clone(u)
	return u, nil
}

// Snapshot returns a function that puts the repository back to its
// current contents.
func (r *MemoryRepository) Snapshot() func() {
	r.mu.RLock()
	saved := make(map[int64]*models.User, len(r.users))
	for id, u := range r.users {
		saved[id] = clone(u)
	}
	nextID := r.nextID
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		r.users = saved
		r.nextID = nextID
		r.mu.Unlock()
	}
}
