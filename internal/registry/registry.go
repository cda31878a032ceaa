// Package registry provides the process-wide in-memory user store.
// All operations are serialized through a single RWMutex, so concurrent
// request handlers always observe fully applied inserts and removals.
package registry

import (
	"math"
	"sort"
	"sync"

	"github.com/patric-chuzhbe/instabackend/internal/models"
)

// Registry maps user identifiers to user records.
type Registry struct {
	mu     sync.RWMutex
	users  map[models.UserID]models.User
	nextID uint64
}

type InitOption func(*initOptions)

type initOptions struct {
	firstID uint64
}

// WithFirstID makes the registry start assigning identifiers from id
// instead of 1.
func WithFirstID(id uint64) InitOption {
	return func(options *initOptions) {
		options.firstID = id
	}
}

// New returns an empty registry.
func New(optionsProto ...InitOption) *Registry {
	options := &initOptions{
		firstID: 1,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	return &Registry{
		users:  map[models.UserID]models.User{},
		nextID: options.firstID,
	}
}

// Insert stores a copy of usr under the next unused identifier and returns
// that identifier. The ID field of usr is ignored.
func (r *Registry) Insert(usr models.User) (models.UserID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nextID == 0 || r.nextID > math.MaxUint32 {
		return 0, models.ErrCapacityExceeded
	}

	id := models.UserID(r.nextID)
	r.nextID++

	stored := usr.Clone()
	stored.ID = id
	r.users[id] = stored

	return id, nil
}

// Get returns a copy of the user with the given id. The second result
// reports whether the user exists.
func (r *Registry) Get(id models.UserID) (models.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	usr, found := r.users[id]
	if !found {
		return models.User{}, false
	}

	return usr.Clone(), true
}

// List returns a snapshot of all users ordered by identifier, which is
// also their insertion order.
func (r *Registry) List() []models.User {
	r.mu.RLock()
	result := make([]models.User, 0, len(r.users))
	for _, usr := range r.users {
		result = append(result, usr.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Remove deletes the user with the given id and reports whether it existed.
func (r *Registry) Remove(id models.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeLocked(id)
}

// RemoveMany deletes all listed users in one critical section and returns
// how many of them existed.
func (r *Registry) RemoveMany(ids []models.UserID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for _, id := range ids {
		if r.removeLocked(id) {
			removed++
		}
	}

	return removed
}

// Count returns the number of stored users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.users)
}

func (r *Registry) removeLocked(id models.UserID) bool {
	if _, found := r.users[id]; !found {
		return false
	}
	delete(r.users, id)

	return true
}
