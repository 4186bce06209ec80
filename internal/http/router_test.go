package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"tributes/internal/board"
	"tributes/internal/config"
	"tributes/internal/identity"
	"tributes/internal/kv"
	"tributes/internal/message"
	"tributes/internal/message/local"
	"tributes/internal/metrics"
	"tributes/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	h      http.Handler
	tokens *identity.Tokens
	slots  *kv.Memory
}

func newTestServer(t *testing.T, cfg config.Config) *testServer {
	t.Helper()
	if cfg.PostRPS == 0 {
		cfg.PostRPS = 100
		cfg.PostBurst = 100
	}
	reg := prometheus.NewRegistry()
	ids := identity.Request{}
	slots := kv.NewMemory()
	repo := repository.New(repository.ModeLocal, local.New(slots, ids, 1024), ids, metrics.New(reg))
	tokens := identity.NewTokens("test-secret")
	return &testServer{
		h:      NewRouter(cfg, repo, board.New(repo, 1612), tokens, reg),
		tokens: tokens,
		slots:  slots,
	}
}

func (s *testServer) do(t *testing.T, uid, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		tok, err := s.tokens.Sign(uid)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: identity.CookieName, Value: tok})
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, config.Config{})
	rec := s.do(t, "", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMeIssuesIdentity(t *testing.T) {
	s := newTestServer(t, config.Config{})
	rec := s.do(t, "", http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, strings.HasPrefix(got["userId"], "user_"))
	assert.Equal(t, "local", got["mode"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, identity.CookieName, cookies[0].Name)

	rec = s.do(t, "user_known", http.MethodGet, "/me", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "user_known", got["userId"])
}

func TestMeta(t *testing.T) {
	s := newTestServer(t, config.Config{})
	rec := s.do(t, "", http.MethodGet, "/meta", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Categories []struct{ Name, Color string }
		Principles []string
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Categories, len(message.Categories))
	assert.Equal(t, message.ColorFor(message.CategoryQuote), got.Categories[0].Color)
	assert.Len(t, got.Principles, len(message.Principles))
}

func TestMessageLifecycle(t *testing.T) {
	s := newTestServer(t, config.Config{})

	rec := s.do(t, "user_a", http.MethodPost, "/messages", map[string]string{
		"name": "Ana", "category": string(message.CategoryMemory), "content": "Road trip",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created message.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "user_a", created.AuthorID)
	assert.Equal(t, message.ColorFor(message.CategoryMemory), created.Color)

	rec = s.do(t, "user_b", http.MethodGet, "/messages?category="+url.QueryEscape(string(message.CategoryMemory)), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []message.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = s.do(t, "user_b", http.MethodGet, "/messages?category="+url.QueryEscape(string(message.CategoryJoke)), nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list)

	rec = s.do(t, "user_b", http.MethodPatch, "/messages/"+created.ID, map[string]string{"content": "mine now"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, "user_a", http.MethodPatch, "/messages/"+created.ID, map[string]string{"content": "Road trip 2"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated message.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Road trip 2", updated.Content)

	rec = s.do(t, "user_b", http.MethodDelete, "/messages/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, "user_a", http.MethodDelete, "/messages/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, "user_a", http.MethodGet, "/stats", nil)
	var st board.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Zero(t, st.TotalMessages)
}

func TestStatsSeeWritesFromOtherClients(t *testing.T) {
	s := newTestServer(t, config.Config{})

	// a second writer on the same backend, e.g. tributectl
	other := local.New(s.slots, identity.Fixed("user_cli"), 0)
	_, err := other.Add(context.Background(), message.Draft{Name: "Bo", Category: message.CategoryWishes, Content: "Congrats"})
	require.NoError(t, err)

	rec := s.do(t, "user_a", http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st board.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 1, st.TotalMessages)
	assert.Equal(t, 1, st.TeamMembers)
	assert.Equal(t, 1, st.Categories[message.CategoryWishes])
}

func TestInvalidInput(t *testing.T) {
	s := newTestServer(t, config.Config{})

	rec := s.do(t, "user_a", http.MethodPost, "/messages", map[string]string{
		"name": "Ana", "category": "Roasts", "content": "x",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "user_a", http.MethodPost, "/messages", map[string]string{
		"name": "Ana", "category": string(message.CategoryJoke), "content": strings.Repeat("a", 501),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "user_a", http.MethodGet, "/messages?category=Roasts", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimitOnWrites(t *testing.T) {
	s := newTestServer(t, config.Config{PostRPS: 0.001, PostBurst: 1})
	d := map[string]string{"name": "Ana", "category": string(message.CategoryJoke), "content": "x"}

	assert.Equal(t, http.StatusCreated, s.do(t, "user_a", http.MethodPost, "/messages", d).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(t, "user_a", http.MethodPost, "/messages", d).Code)
	// separate budget per identity
	assert.Equal(t, http.StatusCreated, s.do(t, "user_b", http.MethodPost, "/messages", d).Code)
	// reads are not limited
	assert.Equal(t, http.StatusOK, s.do(t, "user_a", http.MethodGet, "/messages", nil).Code)
}

func TestMediaUpload(t *testing.T) {
	s := newTestServer(t, config.Config{MaxUploadBytes: 1024})

	upload := func(name, ct string, size int) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{`form-data; name="file"; filename="` + name + `"`}
		h["Content-Type"] = []string{ct}
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, _ = part.Write(bytes.Repeat([]byte("x"), size))
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/media", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rec := httptest.NewRecorder()
		s.h.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("clip.mp4", "video/mp4", 10)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, strings.HasPrefix(got["url"], "data:video/mp4;base64,"))
	assert.Equal(t, "video", got["type"])

	rec = upload("big.png", "image/png", 2048)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, config.Config{})
	s.do(t, "user_a", http.MethodPost, "/messages", map[string]string{
		"name": "Ana", "category": string(message.CategoryJoke), "content": "x",
	})
	rec := s.do(t, "", http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tributes_repository_operations_total{mode="local",op="add",outcome="ok"} 1`)
}
