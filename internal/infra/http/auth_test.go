package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tg-channel-catalog/internal/domain"
)

type stubSessions struct {
	identities map[string]domain.Identity
}

func (s *stubSessions) Login(_ context.Context, identity domain.Identity) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubSessions) Current(_ context.Context, token string) (domain.Identity, error) {
	if identity, ok := s.identities[token]; ok {
		return identity, nil
	}
	return domain.Identity{Role: domain.RoleGuest}, nil
}

func (s *stubSessions) Logout(context.Context, string) error { return nil }

func identityEcho() (http.Handler, *domain.Identity) {
	var captured domain.Identity
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return handler, &captured
}

func TestSessionMiddlewareResolvesIdentity(t *testing.T) {
	sessions := &stubSessions{identities: map[string]domain.Identity{
		"token-1": {ID: 42, Role: domain.RoleUser},
	}}
	handler, captured := identityEcho()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "token-1"})
	rec := httptest.NewRecorder()
	SessionMiddleware(sessions)(handler).ServeHTTP(rec, req)

	if captured.ID != 42 || captured.Role != domain.RoleUser {
		t.Fatalf("ожидали личность из сессии, получили %+v", *captured)
	}
}

func TestSessionMiddlewareWithoutCookie(t *testing.T) {
	handler, captured := identityEcho()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	SessionMiddleware(&stubSessions{})(handler).ServeHTTP(rec, req)

	if captured.Role != domain.RoleGuest {
		t.Fatalf("без cookie ожидали гостя, получили %+v", *captured)
	}
}

func TestRequireUserRejectsGuest(t *testing.T) {
	handler, _ := identityEcho()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	RequireUser(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("ожидали 401 для гостя, получили %d", rec.Code)
	}
}

func TestRequireModerator(t *testing.T) {
	handler, _ := identityEcho()

	user := context.WithValue(context.Background(), identityKey{}, domain.Identity{ID: 42, Role: domain.RoleUser})
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(user)
	rec := httptest.NewRecorder()
	RequireModerator(handler).ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("ожидали 403 для обычного пользователя, получили %d", rec.Code)
	}

	mod := context.WithValue(context.Background(), identityKey{}, domain.Identity{ID: 7, Role: domain.RoleModerator})
	req = httptest.NewRequest(http.MethodGet, "/", nil).WithContext(mod)
	rec = httptest.NewRecorder()
	RequireModerator(handler).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("модератор должен проходить, получили %d", rec.Code)
	}
}
