package http

import (
	"net/http"

	"tributes/internal/board"
	"tributes/internal/config"
	"tributes/internal/http/handler"
	mw "tributes/internal/http/middleware"
	"tributes/internal/identity"
	"tributes/internal/repository"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(cfg config.Config, repo *repository.Repository, b *board.Board, tokens *identity.Tokens, reg prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	r.Get("/meta", handler.Meta)

	limit := mw.RateLimit(mw.NewLimiters(cfg.PostRPS, cfg.PostBurst))
	me := &handler.MeHandler{Repo: repo}
	msgs := &handler.MessageHandler{Board: b}
	media := &handler.MediaHandler{Repo: repo, MaxBytes: maxUpload(cfg)}

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(tokens, cfg.SecureCookies))

		r.Get("/me", me.Me)
		r.Get("/stats", msgs.Stats)

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", msgs.List)
			r.With(limit).Post("/", msgs.Create)
			r.With(limit).Patch("/{id}", msgs.Update)
			r.With(limit).Delete("/{id}", msgs.Delete)
		})

		r.With(limit).Post("/media", media.Upload)
	})

	return r
}

func maxUpload(cfg config.Config) int64 {
	if cfg.MaxUploadBytes > 0 {
		return cfg.MaxUploadBytes
	}
	return 5 << 20
}
