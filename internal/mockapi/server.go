// Package mockapi is a local stand-in for the Roktofy REST API. It keeps
// everything in memory and enforces only the simple business rules the
// client's wire shapes depend on.
package mockapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/roktofy/client/internal/auth"
	"github.com/roktofy/client/internal/config"
)

// APIPrefix is where the API routes are mounted
const APIPrefix = "/api/v1"

const maxBodyBytes = 1 << 20

// Server serves the mock API
type Server struct {
	store        *Store
	jwt          *auth.JWTService
	logger       *zap.Logger
	loginLimiter *RateLimiter
	metrics      *metrics
}

// NewServer creates a server over store
func NewServer(cfg *config.MockConfig, store *Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:        store,
		jwt:          auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		logger:       logger,
		loginLimiter: NewRateLimiter(time.Minute, cfg.LoginRateLimit),
		metrics:      newMetrics(),
	}
}

// Store returns the backing store
func (s *Server) Store() *Store { return s.store }

// Close releases background resources
func (s *Server) Close() {
	s.loginLimiter.Stop()
}

// Router builds the HTTP handler with every route configured
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.instrument)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Handle("/metrics", s.metrics.handler())

	r.Route(APIPrefix, func(r chi.Router) {
		r.With(RateLimit(s.loginLimiter, ClientIPKey)).Post("/auth/jwt/create/", s.handleLogin)

		r.Route("/auth/users", func(r chi.Router) {
			r.Post("/", s.handleRegister)
			r.Post("/activation/", s.handleActivate)
			r.Post("/resend_activation/", s.handleResendActivation)
			r.Post("/reset_password/", s.handleResetPassword)
			r.Post("/reset_password_confirm/", s.handleResetPasswordConfirm)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Get("/me", s.handleMe)
				r.Get("/me/", s.handleMe)
				r.Patch("/me/", s.handleUpdateMe)
				r.Post("/set_password/", s.handleSetPassword)
			})
		})

		r.With(s.optionalAuth).Get("/donor-list/", s.handleDonors)
		r.With(s.optionalAuth).Get("/stats/public/", s.handleStats)
		r.Get("/payment/gateway/{tranID}", s.handlePaymentGateway)

		r.Route("/blood-events", func(r chi.Router) {
			r.With(s.optionalAuth).Get("/", s.handleListEvents)
			r.With(s.requireAuth).Post("/", s.handleCreateEvent)
			r.With(s.requireAuth).Post("/{id}/accept/", s.handleAcceptEvent)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/blood-requests/", s.handleListRequests)
			r.Post("/blood-requests/", s.handleCreateRequest)
			r.Post("/blood-requests/{id}/accept/", s.handleAcceptRequest)
			r.Post("/blood-requests/{id}/cancel/", s.handleCancelRequest)

			r.Get("/donations/", s.handleListDonations)
			r.Post("/donations/", s.handleCreateDonation)

			r.Get("/dashboard/", s.handleDashboard)

			r.Post("/payment/initiate/", s.handleInitiatePayment)
			r.Get("/payment/history/", s.handlePaymentHistory)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Use(requireStaff)

			r.Get("/users/", s.handleAdminUsers)
			r.Patch("/users/{id}/", s.handleAdminUpdateUser)
			r.Delete("/users/{id}/", s.handleAdminDeleteUser)
			r.Get("/donations/", s.handleAdminDonations)
			r.Patch("/donations/{id}/", s.handleAdminUpdateDonation)
			r.Get("/blood-events/", s.handleAdminEvents)
			r.Delete("/blood-events/{id}/", s.handleAdminDeleteEvent)
		})
	})

	return r
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched so
// field validation reports what is missing.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errInvalidBody
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	return parseID(chi.URLParam(r, "id"))
}

// mustUser returns the authenticated user. Routes using it sit behind
// requireAuth.
func mustUser(r *http.Request) int64 {
	u, _ := CurrentUser(r.Context())
	return u.ID
}
