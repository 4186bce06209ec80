package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tributes/internal/identity"

	"github.com/stretchr/testify/assert"
)

func TestLimitersPerKeyAndSweep(t *testing.T) {
	l := NewLimiters(0.001, 1)
	clock := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	clock = clock.Add(11 * time.Minute)
	assert.True(t, l.Allow("c"))
	assert.Len(t, l.buckets, 1)
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimit(NewLimiters(0.001, 1))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(uid string) int {
		req := httptest.NewRequest(http.MethodPost, "/messages", nil)
		if uid != "" {
			req = req.WithContext(identity.WithUserID(req.Context(), uid))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send("user_a"))
	assert.Equal(t, http.StatusTooManyRequests, send("user_a"))
	// falls back to remote address
	assert.Equal(t, http.StatusNoContent, send(""))
	assert.Equal(t, http.StatusTooManyRequests, send(""))
}
