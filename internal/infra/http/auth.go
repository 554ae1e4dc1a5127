package http

import (
	"context"
	"net/http"
	"time"

	"tg-channel-catalog/internal/auth"
	"tg-channel-catalog/internal/domain"
)

// SessionCookie — имя cookie с токеном сессии.
const SessionCookie = "catalog_session"

type identityKey struct{}

// IdentityFrom возвращает личность из контекста запроса.
// Для запросов без сессии возвращается гость.
func IdentityFrom(ctx context.Context) domain.Identity {
	if identity, ok := ctx.Value(identityKey{}).(domain.Identity); ok {
		return identity
	}
	return domain.Identity{Role: domain.RoleGuest}
}

// SessionMiddleware разрешает личность по cookie сессии и кладёт её в контекст.
func SessionMiddleware(sessions domain.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := domain.Identity{Role: domain.RoleGuest}
			if cookie, err := r.Cookie(SessionCookie); err == nil {
				resolved, err := sessions.Current(r.Context(), cookie.Value)
				if err != nil {
					WriteError(w, http.StatusInternalServerError, err)
					return
				}
				identity = resolved
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, identity)))
		})
	}
}

// RequireUser пропускает только аутентифицированные запросы.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFrom(r.Context())
		if identity.Role == domain.RoleGuest || identity.ID == 0 {
			WriteError(w, http.StatusUnauthorized, domain.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireModerator пропускает только модераторов.
func RequireModerator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IdentityFrom(r.Context()).IsModerator() {
			WriteError(w, http.StatusForbidden, domain.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginCallbackHandler обрабатывает колбэк Telegram Login Widget.
// При любой ошибке проверки пользователь возвращается на страницу входа.
func LoginCallbackHandler(verifier *auth.WidgetVerifier, sessions domain.SessionStore, sessionTTL time.Duration, loginURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields := make(map[string]string, len(r.URL.Query()))
		for key, values := range r.URL.Query() {
			if len(values) > 0 {
				fields[key] = values[0]
			}
		}

		identity, err := verifier.Verify(fields)
		if err != nil {
			http.Redirect(w, r, loginURL, http.StatusFound)
			return
		}

		token, err := sessions.Login(r.Context(), identity)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    token,
			Path:     "/",
			MaxAge:   int(sessionTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// LogoutHandler завершает сессию и сбрасывает cookie.
func LogoutHandler(sessions domain.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(SessionCookie); err == nil {
			if err := sessions.Logout(r.Context(), cookie.Value); err != nil {
				WriteError(w, http.StatusInternalServerError, err)
				return
			}
		}
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}
