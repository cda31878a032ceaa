// Package models holds the data types shared by the registry, the service layer
// and the transport surfaces.
package models

import "errors"

// UserID is the registry-assigned identifier of a user.
type UserID uint32

// User is a registered account.
type User struct {
	ID       UserID  `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Bio      *string `json:"bio"`
}

// Clone returns a copy of the user that shares no memory with u.
func (u User) Clone() User {
	if u.Bio != nil {
		bio := *u.Bio
		u.Bio = &bio
	}
	return u
}

// CreateUserRequest is the body of POST /users. A missing bio stays nil.
type CreateUserRequest struct {
	Username string  `json:"username" validate:"required"`
	Email    string  `json:"email"`
	Bio      *string `json:"bio"`
}

// DeleteUsersRequest is the body of DELETE /users.
type DeleteUsersRequest []UserID

// UserDeleteJob carries ids to the background users remover.
type UserDeleteJob struct {
	UsersToDelete DeleteUsersRequest
}

// RootResponse describes the service at GET /.
type RootResponse struct {
	Message   string   `json:"message"`
	Status    string   `json:"status"`
	Endpoints []string `json:"endpoints"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// InternalStatsResponse is the body of GET /internal/stats.
type InternalStatsResponse struct {
	Users int `json:"users"`
}

// ErrorResponse is the body of every error answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrCapacityExceeded is returned when no more user identifiers can be assigned.
var ErrCapacityExceeded = errors.New("user identifier space exhausted")
