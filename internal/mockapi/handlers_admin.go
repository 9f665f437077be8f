package mockapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/roktofy/client/internal/model"
)

func (s *Server) handleAdminUsers(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Users())
}

func (s *Server) handleAdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, err)
		return
	}
	var patch UserPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondWithError(w, err)
		return
	}
	user, err := s.store.UpdateUser(mustUser(r), id, patch)
	if err != nil {
		respondWithError(w, err)
		return
	}
	s.logger.Info("admin updated user", zap.Int64("actor", mustUser(r)), zap.Int64("user", id), zap.Bool("active", user.IsActive))
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if err := s.store.DeleteUser(mustUser(r), id); err != nil {
		respondWithError(w, err)
		return
	}
	s.logger.Info("admin deleted user", zap.Int64("actor", mustUser(r)), zap.Int64("user", id))
	respondNoContent(w)
}

func (s *Server) handleAdminDonations(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.store.AllDonations())
}

func (s *Server) handleAdminUpdateDonation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, err)
		return
	}
	var patch DonationPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondWithError(w, err)
		return
	}
	d, err := s.store.UpdateDonation(id, patch)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleAdminEvents(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Events())
}

func (s *Server) handleAdminDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if err := s.store.DeleteEvent(id); err != nil {
		respondWithError(w, err)
		return
	}
	respondNoContent(w)
}

func (s *Server) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req model.PaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	gateway := scheme + "://" + r.Host + APIPrefix + "/payment/gateway/"
	ps, err := s.store.InitiatePayment(mustUser(r), req.Amount, gateway)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ps)
}

func (s *Server) handlePaymentHistory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Payments(mustUser(r)))
}

// handlePaymentGateway stands in for the hosted checkout page: visiting it
// completes the payment
func (s *Server) handlePaymentGateway(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.CompletePayment(chi.URLParam(r, "tranID"))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}
