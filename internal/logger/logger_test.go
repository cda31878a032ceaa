package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	require.NoError(t, Init("debug"))
	assert.NotNil(t, Log)

	assert.Error(t, Init("not-a-level"))
}

func TestWithLoggingHTTPMiddleware(t *testing.T) {
	require.NoError(t, Init("info"))

	handler := WithLoggingHTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	t.Run("assigns a request id", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusTeapot, recorder.Code)
		_, err := uuid.Parse(recorder.Header().Get(RequestIDHeader))
		assert.NoError(t, err)
	})

	t.Run("keeps the client request id", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set(RequestIDHeader, "client-id")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, "client-id", recorder.Header().Get(RequestIDHeader))
		assert.Equal(t, "short and stout", recorder.Body.String())
	})
}
