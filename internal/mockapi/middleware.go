package mockapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/roktofy/client/internal/auth"
	"github.com/roktofy/client/internal/model"
)

type contextKey string

const userKey contextKey = "user"

// schemes accepted in the Authorization header
var authSchemes = map[string]bool{"JWT": true, "Bearer": true}

// CurrentUser returns the user attached by the auth middleware
func CurrentUser(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// userFromHeader resolves the Authorization header. It returns nil, nil
// when no header is present.
func (s *Server) userFromHeader(r *http.Request) (*model.User, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !authSchemes[parts[0]] || strings.TrimSpace(parts[1]) == "" {
		return nil, errBadToken
	}
	claims, err := s.jwt.VerifyToken(strings.TrimSpace(parts[1]), auth.TokenTypeAccess)
	if err != nil {
		return nil, errBadToken
	}
	return s.store.User(claims.UserID)
}

// requireAuth rejects requests without a valid access token
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.userFromHeader(r)
		if err != nil {
			respondWithError(w, err)
			return
		}
		if user == nil {
			respondWithError(w, errNotAuthed)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// optionalAuth attaches the user when a header is sent. A bad token is
// still rejected.
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.userFromHeader(r)
		if err != nil {
			respondWithError(w, err)
			return
		}
		if user != nil {
			r = r.WithContext(context.WithValue(r.Context(), userKey, user))
		}
		next.ServeHTTP(w, r)
	})
}

// requireStaff must run after requireAuth
func requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r.Context())
		if !ok || !user.IsStaff {
			respondWithError(w, errForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// instrument logs every request and feeds the request metrics
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		elapsed := time.Since(start)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.observe(r.Method, route, ww.Status(), elapsed)
		s.logger.Info("request",
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", elapsed),
		)
	})
}
