package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"tributes/internal/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotIsStableWithinProfile(t *testing.T) {
	slots := kv.NewMemory()
	p := &Slot{Slots: slots}

	a, err := p.UserID(context.Background())
	require.NoError(t, err)
	b, err := p.UserID(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.True(t, strings.HasPrefix(a, "user_"))
	assert.Equal(t, a, b)

	// a second provider over the same profile sees the persisted id
	again, err := (&Slot{Slots: slots}).UserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a, again)
}

func TestSlotFreshProfileDiffers(t *testing.T) {
	a, err := (&Slot{Slots: kv.NewMemory()}).UserID(context.Background())
	require.NoError(t, err)
	b, err := (&Slot{Slots: kv.NewMemory()}).UserID(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSlotConcurrentFirstUse(t *testing.T) {
	p := &Slot{Slots: kv.NewMemory()}
	ids := make([]string, 16)

	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], _ = p.UserID(context.Background())
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestFixedAndRequest(t *testing.T) {
	id, _ := Fixed("user_x").UserID(context.Background())
	assert.Equal(t, "user_x", id)

	_, err := Request{}.UserID(context.Background())
	assert.ErrorIs(t, err, ErrNoIdentity)

	id, err = Request{}.UserID(WithUserID(context.Background(), "user_y"))
	require.NoError(t, err)
	assert.Equal(t, "user_y", id)
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret")
	tok, err := tokens.Sign("user_1")
	require.NoError(t, err)

	id, err := tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user_1", id)

	_, err = NewTokens("other").Verify(tok)
	assert.Error(t, err)
	_, err = tokens.Verify("garbage")
	assert.Error(t, err)
}

func TestMiddlewareIssuesAndReusesCookie(t *testing.T) {
	tokens := NewTokens("secret")
	var seen []string
	h := Middleware(tokens, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := FromContext(r.Context())
		seen = append(seen, id)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, CookieName, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Result().Cookies())

	require.Len(t, seen, 2)
	assert.NotEmpty(t, seen[0])
	assert.Equal(t, seen[0], seen[1])
}

func TestMiddlewareReplacesTamperedCookie(t *testing.T) {
	var seen string
	h := Middleware(NewTokens("secret"), false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
	}))

	forged, _ := NewTokens("attacker").Sign("user_victim")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: forged})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.NotEqual(t, "user_victim", seen)
	assert.Len(t, rec.Result().Cookies(), 1)
}
