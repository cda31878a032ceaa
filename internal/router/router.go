// Package router wires the HTTP routes of the service to the user service
// and translates service results into JSON responses and status codes.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/instabackend/internal/gzippedhttp"
	"github.com/patric-chuzhbe/instabackend/internal/logger"
	"github.com/patric-chuzhbe/instabackend/internal/models"
	"github.com/patric-chuzhbe/instabackend/internal/service"
)

type userService interface {
	CreateUser(ctx context.Context, request models.CreateUserRequest) (models.User, error)
	GetUser(ctx context.Context, id models.UserID) (models.User, bool, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id models.UserID) (bool, error)
	DeleteUsersAsync(ctx context.Context, ids models.DeleteUsersRequest) error
	GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error)
}

type trustedSubnetGuard interface {
	TrustedOnly(h http.Handler) http.Handler
}

var endpoints = []string{"/users", "/users/:id", "/health"}

// Router holds the handlers of every HTTP route.
type Router struct {
	svc         userService
	serviceName string
}

// New builds the chi router with the full middleware chain.
func New(svc userService, serviceName string, ipChecker trustedSubnetGuard) *chi.Mux {
	myRouter := &Router{
		svc:         svc,
		serviceName: serviceName,
	}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		middleware.Recoverer,
		gzippedhttp.UngzipRequest,
		gzippedhttp.GzipResponse,
	)
	router.NotFound(func(response http.ResponseWriter, request *http.Request) {
		writeError(response, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(response http.ResponseWriter, request *http.Request) {
		writeError(response, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Get(`/`, myRouter.GetRoot)
	router.Get(`/health`, myRouter.GetHealth)
	router.Route(`/users`, func(r chi.Router) {
		r.Get(`/`, myRouter.GetUsers)
		r.Post(`/`, myRouter.PostUsers)
		r.Delete(`/`, myRouter.DeleteUsers)
		r.Get(`/{id}`, myRouter.GetUser)
		r.Delete(`/{id}`, myRouter.DeleteUser)
	})
	router.With(ipChecker.TrustedOnly).Get(`/internal/stats`, myRouter.GetInternalStats)

	return router
}

// GetRoot describes the service and its endpoints.
func (rt *Router) GetRoot(response http.ResponseWriter, request *http.Request) {
	writeJSON(response, http.StatusOK, models.RootResponse{
		Message:   "Welcome to Instagram Backend!",
		Status:    "running",
		Endpoints: endpoints,
	})
}

// GetHealth always answers healthy; it does not depend on the registry state.
func (rt *Router) GetHealth(response http.ResponseWriter, request *http.Request) {
	writeJSON(response, http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Service: rt.serviceName,
	})
}

// GetUsers lists every user, [] when there are none.
func (rt *Router) GetUsers(response http.ResponseWriter, request *http.Request) {
	users, err := rt.svc.ListUsers(request.Context())
	if err != nil {
		writeInternalError(response, "listing users", err)
		return
	}

	writeJSON(response, http.StatusOK, users)
}

// GetUser answers 400 for a malformed id and 404 for an unknown one.
func (rt *Router) GetUser(response http.ResponseWriter, request *http.Request) {
	id, ok := parseUserID(response, request)
	if !ok {
		return
	}

	usr, found, err := rt.svc.GetUser(request.Context(), id)
	if err != nil {
		writeInternalError(response, "getting user", err)
		return
	}
	if !found {
		writeError(response, http.StatusNotFound, fmt.Sprintf("user with id %d not found", id))
		return
	}

	writeJSON(response, http.StatusOK, usr)
}

// PostUsers creates a user and points Location at it.
func (rt *Router) PostUsers(response http.ResponseWriter, request *http.Request) {
	var createRequest models.CreateUserRequest
	if err := json.NewDecoder(request.Body).Decode(&createRequest); err != nil {
		writeError(response, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	usr, err := rt.svc.CreateUser(request.Context(), createRequest)
	switch {
	case errors.Is(err, service.ErrInvalidUser):
		writeError(response, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, service.ErrCapacityExceeded):
		writeError(response, http.StatusInsufficientStorage, "no more users can be registered")
		return
	case err != nil:
		writeInternalError(response, "creating user", err)
		return
	}

	response.Header().Set("Location", fmt.Sprintf("/users/%d", usr.ID))
	writeJSON(response, http.StatusCreated, usr)
}

// DeleteUser removes a single user and answers 204.
func (rt *Router) DeleteUser(response http.ResponseWriter, request *http.Request) {
	id, ok := parseUserID(response, request)
	if !ok {
		return
	}

	deleted, err := rt.svc.DeleteUser(request.Context(), id)
	if err != nil {
		writeInternalError(response, "deleting user", err)
		return
	}
	if !deleted {
		writeError(response, http.StatusNotFound, fmt.Sprintf("user with id %d not found", id))
		return
	}

	response.WriteHeader(http.StatusNoContent)
}

// DeleteUsers accepts a JSON array of ids and removes them in the background.
func (rt *Router) DeleteUsers(response http.ResponseWriter, request *http.Request) {
	var ids models.DeleteUsersRequest
	if err := json.NewDecoder(request.Body).Decode(&ids); err != nil {
		writeError(response, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := rt.svc.DeleteUsersAsync(request.Context(), ids); err != nil {
		writeInternalError(response, "enqueueing users deletion", err)
		return
	}

	response.WriteHeader(http.StatusAccepted)
}

// GetInternalStats reports the number of users. It is mounted behind the
// trusted subnet check.
func (rt *Router) GetInternalStats(response http.ResponseWriter, request *http.Request) {
	stats, err := rt.svc.GetInternalStats(request.Context())
	if err != nil {
		writeInternalError(response, "collecting stats", err)
		return
	}

	writeJSON(response, http.StatusOK, stats)
}

func parseUserID(response http.ResponseWriter, request *http.Request) (models.UserID, bool) {
	rawID := chi.URLParam(request, "id")
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		writeError(response, http.StatusBadRequest, fmt.Sprintf("invalid user id %q: must be an unsigned integer", rawID))
		return 0, false
	}

	return models.UserID(id), true
}

func writeJSON(response http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		writeInternalError(response, "encoding response", err)
		return
	}

	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	if _, err := response.Write(body); err != nil {
		logger.Log.Debugln("error writing response:", zap.Error(err))
	}
}

func writeError(response http.ResponseWriter, status int, message string) {
	writeJSON(response, status, models.ErrorResponse{Error: message})
}

// writeInternalError logs err and answers 500 without exposing it.
func writeInternalError(response http.ResponseWriter, action string, err error) {
	logger.Log.Errorln("error while "+action+":", zap.Error(err))

	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(http.StatusInternalServerError)
	_, _ = response.Write([]byte(`{"error":"internal server error"}`))
}
