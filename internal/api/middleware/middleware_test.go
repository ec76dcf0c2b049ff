package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medly/scheduleconsole/internal/api/middleware"
	"github.com/medly/scheduleconsole/internal/application/services"
)

func TestSessionMiddleware(t *testing.T) {
	console := services.NewConsoleService(nil, nil, nil, nil, nil, services.ConsoleConfig{Location: time.UTC})
	defer console.Close()

	var seen *services.ConsoleSession
	handler := middleware.SessionMiddleware(console, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := services.SessionFromContext(r.Context())
		require.True(t, ok)
		seen = sess
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/console/view/day", nil))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookieName, cookies[0].Name)
	assert.Equal(t, seen.ID(), cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	first := seen

	req := httptest.NewRequest("GET", "/console/view/day", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Result().Cookies())
	assert.Same(t, first, seen)
	assert.Equal(t, 1, console.SessionCount())
}

func TestRateLimiter(t *testing.T) {
	limiter, err := middleware.NewRateLimiter(1, 2)
	require.NoError(t, err)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(ip string) int {
		req := httptest.NewRequest("GET", "/console/view/day", nil)
		req.RemoteAddr = ip + ":5000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2"))

	t.Run("disabled", func(t *testing.T) {
		off, err := middleware.NewRateLimiter(0, 0)
		require.NoError(t, err)
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
		h := off.Middleware(next)
		for i := 0; i < 10; i++ {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	t.Run("explicit origin", func(t *testing.T) {
		handler := middleware.CORSMiddleware([]string{"http://localhost:5173"})(next)

		req := httptest.NewRequest("GET", "/console/selection", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

		req = httptest.NewRequest("GET", "/console/selection", nil)
		req.Header.Set("Origin", "http://evil.example")
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		called := false
		handler := middleware.CORSMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

		req := httptest.NewRequest(http.MethodOptions, "/console/bulk-adjust", nil)
		req.Header.Set("Origin", "http://anywhere")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.False(t, called)
	})
}

func TestLoggingMiddleware_KeepsStatusAndFlush(t *testing.T) {
	handler := middleware.LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := w.(http.Flusher)
		assert.True(t, ok)
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestObservabilityMiddlewareServesMatchedRoute(t *testing.T) {
	mux := http.NewServeMux()
	var doctorID string
	mux.HandleFunc("GET /console/rows/{doctorId}/drag", func(w http.ResponseWriter, r *http.Request) {
		doctorID = r.PathValue("doctorId")
		w.WriteHeader(http.StatusAccepted)
	})
	handler := middleware.ObservabilityMiddleware(nil)(mux)

	req := httptest.NewRequest("GET", "/console/rows/7/drag", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "abc"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "7", doctorID)
}

func TestObservabilityMiddlewarePassesFlush(t *testing.T) {
	handler := middleware.ObservabilityMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		_, _ = w.Write([]byte("event: heartbeat\n\n"))
		flusher.Flush()
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/console/stream", nil))

	assert.True(t, w.Flushed)
}
