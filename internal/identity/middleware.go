package identity

import (
	"log/slog"
	"net/http"
)

const CookieName = "tributes_id"

// ten years; the browser profile is the real lifetime
const cookieMaxAge = 10 * 365 * 24 * 60 * 60

// Middleware makes sure every request carries an identity. A missing or
// tampered cookie gets a fresh identity.
func Middleware(tokens *Tokens, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(CookieName); err == nil {
				if id, err := tokens.Verify(c.Value); err == nil {
					next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
					return
				}
			}

			id := NewUserID()
			token, err := tokens.Sign(id)
			if err != nil {
				slog.Error("identity_sign_failed", "error", err)
				http.Error(w, "server error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   cookieMaxAge,
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
		})
	}
}
