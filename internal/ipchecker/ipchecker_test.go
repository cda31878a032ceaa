package ipchecker

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New("not a cidr")
	assert.Error(t, err)

	checker, err := New("")
	require.NoError(t, err)
	assert.False(t, checker.Check(net.ParseIP("127.0.0.1")), "an empty subnet trusts nobody")
}

func TestGetClientIP(t *testing.T) {
	checker, err := New("192.168.1.0/24")
	require.NoError(t, err)

	testCases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "X-Real-IP wins",
			headers:    map[string]string{"X-Real-IP": "192.168.1.7", "X-Forwarded-For": "10.0.0.1"},
			remoteAddr: "1.2.3.4:5555",
			want:       "192.168.1.7",
		},
		{
			name:       "first X-Forwarded-For entry",
			headers:    map[string]string{"X-Forwarded-For": "10.0.0.1, 192.168.1.1"},
			remoteAddr: "1.2.3.4:5555",
			want:       "10.0.0.1",
		},
		{
			name:       "remote address",
			remoteAddr: "1.2.3.4:5555",
			want:       "1.2.3.4",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.RemoteAddr = testCase.remoteAddr
			for name, value := range testCase.headers {
				request.Header.Set(name, value)
			}

			ip, err := checker.GetClientIP(request)
			require.NoError(t, err)
			assert.Equal(t, testCase.want, ip.String())
		})
	}
}

func TestTrustedOnly(t *testing.T) {
	checker, err := New("192.168.1.0/24")
	require.NoError(t, err)

	handler := checker.TrustedOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	trusted := httptest.NewRequest(http.MethodGet, "/", nil)
	trusted.Header.Set("X-Real-IP", "192.168.1.10")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, trusted)
	assert.Equal(t, http.StatusOK, recorder.Code)

	untrusted := httptest.NewRequest(http.MethodGet, "/", nil)
	untrusted.Header.Set("X-Real-IP", "10.1.1.1")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, untrusted)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.JSONEq(t, `{"error":"access denied"}`, recorder.Body.String())
}
