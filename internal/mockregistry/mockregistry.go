// Package mockregistry provides a testify-based mock of the user registry
// for unit tests of the service layer and the HTTP handlers.
package mockregistry

import (
	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/instabackend/internal/models"
)

// RegistryMock implements every registry method the service and the
// background remover depend on.
type RegistryMock struct {
	mock.Mock

	// OnCount, when set, replaces the generic mock handler for Count.
	OnCount func() int
}

// Insert records the call and returns the configured id and error.
func (m *RegistryMock) Insert(usr models.User) (models.UserID, error) {
	args := m.Called(usr)
	return args.Get(0).(models.UserID), args.Error(1)
}

func (m *RegistryMock) Get(id models.UserID) (models.User, bool) {
	args := m.Called(id)
	return args.Get(0).(models.User), args.Bool(1)
}

func (m *RegistryMock) List() []models.User {
	args := m.Called()
	users, _ := args.Get(0).([]models.User)
	return users
}

func (m *RegistryMock) Remove(id models.UserID) bool {
	args := m.Called(id)
	return args.Bool(0)
}

func (m *RegistryMock) RemoveMany(ids []models.UserID) int {
	args := m.Called(ids)
	return args.Int(0)
}

// Count returns OnCount() when it is set and goes through the mock otherwise.
func (m *RegistryMock) Count() int {
	if m.OnCount != nil {
		return m.OnCount()
	}
	args := m.Called()
	return args.Int(0)
}
