// Package service implements the user operations exposed over HTTP on top
// of the user registry and the background users remover.
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/instabackend/internal/models"
)

type userKeeper interface {
	Insert(usr models.User) (models.UserID, error)
	Get(id models.UserID) (models.User, bool)
	List() []models.User
	Remove(id models.UserID) bool
	Count() int
}

type usersRemover interface {
	EnqueueJob(ctx context.Context, job *models.UserDeleteJob) error
}

// ErrInvalidUser is returned when a create request fails validation.
var ErrInvalidUser = errors.New("invalid user")

// ErrCapacityExceeded is returned by CreateUser when no user id is left.
var ErrCapacityExceeded = models.ErrCapacityExceeded

// Service validates requests and forwards them to the registry.
type Service struct {
	db           userKeeper
	usersRemover usersRemover
	validate     *validator.Validate
}

// New creates a Service. Validation messages name fields by their JSON keys.
func New(db userKeeper, usersRemover usersRemover) *Service {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Service{
		db:           db,
		usersRemover: usersRemover,
		validate:     validate,
	}
}

// CreateUser validates the request and stores a new user. A username made of
// whitespace only is rejected; otherwise the username is stored as sent.
func (s *Service) CreateUser(ctx context.Context, request models.CreateUserRequest) (models.User, error) {
	checked := request
	checked.Username = strings.TrimSpace(request.Username)
	if err := s.validate.StructCtx(ctx, checked); err != nil {
		return models.User{}, describeValidationError(err)
	}

	usr := models.User{
		Username: request.Username,
		Email:    request.Email,
		Bio:      request.Bio,
	}

	id, err := s.db.Insert(usr)
	if err != nil {
		return models.User{}, fmt.Errorf("inserting user %q: %w", usr.Username, err)
	}
	usr.ID = id

	return usr.Clone(), nil
}

// GetUser looks a user up. An unknown id is reported through found, not err.
func (s *Service) GetUser(ctx context.Context, id models.UserID) (usr models.User, found bool, err error) {
	usr, found = s.db.Get(id)
	return usr, found, nil
}

// ListUsers returns every user in ascending id order.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.db.List(), nil
}

// DeleteUser removes a user and reports whether it existed.
func (s *Service) DeleteUser(ctx context.Context, id models.UserID) (bool, error) {
	return s.db.Remove(id), nil
}

// DeleteUsersAsync hands the deduplicated ids to the background remover.
func (s *Service) DeleteUsersAsync(ctx context.Context, ids models.DeleteUsersRequest) error {
	unique := funk.Uniq([]models.UserID(ids)).([]models.UserID)
	if len(unique) == 0 {
		return nil
	}

	return s.usersRemover.EnqueueJob(ctx, &models.UserDeleteJob{
		UsersToDelete: unique,
	})
}

// GetInternalStats returns the number of registered users.
func (s *Service) GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error) {
	return models.InternalStatsResponse{
		Users: s.db.Count(),
	}, nil
}

func describeValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return fmt.Errorf("%w: %s", ErrInvalidUser, err)
	}

	problems := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		if fieldErr.Tag() == "required" {
			problems = append(problems, fieldErr.Field()+" must not be empty")
			continue
		}
		problems = append(problems, fmt.Sprintf("%s failed the %q rule", fieldErr.Field(), fieldErr.Tag()))
	}

	return fmt.Errorf("%w: %s", ErrInvalidUser, strings.Join(problems, "; "))
}
