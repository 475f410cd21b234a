// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/response"
	"go.uber.org/zap"
)

const (
	isAuthKey  = "is_authenticated"
	userIDKey  = "member_id"
	userName   = "member_name"
	userRole   = "member_role"
	signedInAt = "signed_in_at"
)

// ErrShortKey is returned for session keys under 32 bytes.
var ErrShortKey = errors.New("session key must be at least 32 characters")

// SessionUser is what we cache in the session and inject into r.Context().
type SessionUser struct {
	ID   string
	Name string
	Role string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// SessionManager owns the cookie store and the auth middleware.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds a cookie-backed session manager. secure selects
// Secure + SameSite=None cookies; use false for plain-http development.
func NewSessionManager(key, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if len(key) < 32 {
		return nil, ErrShortKey
	}
	store := sessions.NewCookieStore([]byte(key))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// CurrentUser returns the signed-in member, if any.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// LoadSessionUser injects the session member into the request context.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			// Tampered or rotated-key cookie: treat as signed out.
			if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
				sm.log.Debug("session cookie invalid, ignoring", zap.Error(err))
			} else {
				sm.log.Warn("session store error", zap.Error(err))
			}
		}
		if sess != nil {
			if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
				r = withUser(r, &SessionUser{
					ID:   getString(sess, userIDKey),
					Name: getString(sess, userName),
					Role: getString(sess, userRole),
				})
			}
		}
		next.ServeHTTP(w, r)
	})
}

// SignIn stores u in the session cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userName] = u.Name
	sess.Values[userRole] = u.Role
	sess.Values[signedInAt] = time.Now().UTC().Unix()
	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// RequireSignedIn rejects requests without a session member (401).
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			response.Unauthorized(w, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole lets through members whose role is one of allowed. Roles are
// compared case- and accent-insensitively, so "SECRETARIO" matches
// "Secretário". Not signed in is 401, wrong role is 403.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[text.Fold(role)] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				response.Unauthorized(w, "sign in required")
				return
			}
			if _, has := set[text.Fold(u.Role)]; !has {
				response.Forbidden(w, "command role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HasRole reports whether role is in allowed, with RequireRole's matching.
func HasRole(role string, allowed []string) bool {
	f := text.Fold(role)
	for _, a := range allowed {
		if text.Fold(a) == f {
			return true
		}
	}
	return false
}

// WithTestUser injects u as the current user, bypassing the session cookie.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
