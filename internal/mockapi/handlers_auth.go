package mockapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/roktofy/client/internal/model"
)

// handleLogin handles POST /auth/jwt/create/
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	errs := fieldErrors{}
	if strings.TrimSpace(req.Email) == "" {
		errs.add("email", "This field is required.")
	}
	if req.Password == "" {
		errs.add("password", "This field is required.")
	}
	if err := errs.err(); err != nil {
		respondWithError(w, err)
		return
	}

	user, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		s.logger.Info("login rejected", zap.String("email", normalizeEmail(req.Email)))
		respondWithError(w, err)
		return
	}
	access, refresh, err := s.jwt.SignPair(user.ID)
	if err != nil {
		s.logger.Error("failed to sign tokens", zap.Error(err))
		respondWithError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, model.Credentials{Access: access, Refresh: refresh})
}

// handleRegister handles POST /auth/users/
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg model.Registration
	if err := decodeJSON(w, r, &reg); err != nil {
		respondWithError(w, err)
		return
	}
	user, err := s.store.CreateUser(reg, false, false)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if m, ok := s.store.LastMail(user.Email, MailActivation); ok {
		s.logger.Info("activation mail", zap.String("to", m.To), zap.String("uid", m.UID), zap.String("token", m.Token))
	}
	respondJSON(w, http.StatusCreated, user)
}

// handleActivate handles POST /auth/users/activation/
func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req model.Activation
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := s.store.Activate(req.UID, req.Token); err != nil {
		respondWithError(w, err)
		return
	}
	respondNoContent(w)
}

// handleResendActivation handles POST /auth/users/resend_activation/
func (s *Server) handleResendActivation(w http.ResponseWriter, r *http.Request) {
	var req model.EmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := s.store.ResendActivation(req.Email); err != nil {
		respondWithError(w, err)
		return
	}
	if m, ok := s.store.LastMail(req.Email, MailActivation); ok {
		s.logger.Info("activation mail", zap.String("to", m.To), zap.String("uid", m.UID), zap.String("token", m.Token))
	}
	respondNoContent(w)
}

// handleResetPassword handles POST /auth/users/reset_password/
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.EmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := s.store.RequestPasswordReset(req.Email); err != nil {
		respondWithError(w, err)
		return
	}
	if m, ok := s.store.LastMail(req.Email, MailPasswordReset); ok {
		s.logger.Info("password reset mail", zap.String("to", m.To), zap.String("uid", m.UID), zap.String("token", m.Token))
	}
	respondNoContent(w)
}

// handleResetPasswordConfirm handles POST /auth/users/reset_password_confirm/
func (s *Server) handleResetPasswordConfirm(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordResetConfirm
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := s.store.ConfirmPasswordReset(req); err != nil {
		respondWithError(w, err)
		return
	}
	respondNoContent(w)
}

// handleMe handles GET /auth/users/me
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())
	respondJSON(w, http.StatusOK, user)
}

// handleUpdateMe handles PATCH /auth/users/me/
func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var upd model.ProfileUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		respondWithError(w, err)
		return
	}
	user, err := s.store.UpdateProfile(mustUser(r), upd)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// handleSetPassword handles POST /auth/users/set_password/
func (s *Server) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordChange
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := s.store.SetPassword(mustUser(r), req); err != nil {
		respondWithError(w, err)
		return
	}
	respondNoContent(w)
}
