package mockapi

import (
	"net/http"
	"strconv"

	"github.com/roktofy/client/internal/model"
)

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Events())
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in model.NewBloodEvent
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, err)
		return
	}
	ev, err := s.store.CreateEvent(mustUser(r), in)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, ev)
}

func (s *Server) handleAcceptEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if err := s.store.AcceptEvent(mustUser(r), id); err != nil {
		respondWithError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"detail": "Event accepted."})
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Requests(mustUser(r)))
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var in model.NewBloodRequest
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, err)
		return
	}
	req, err := s.store.CreateRequest(mustUser(r), in)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, req)
}

func (s *Server) handleAcceptRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if err := s.store.AcceptRequest(mustUser(r), id); err != nil {
		respondWithError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"detail": "Request accepted."})
}

func (s *Server) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, err)
		return
	}
	req, err := s.store.CancelRequest(mustUser(r), id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}

func (s *Server) handleListDonations(w http.ResponseWriter, r *http.Request) {
	donations := s.store.Donations(mustUser(r))
	if donations == nil {
		donations = []model.Donation{}
	}
	respondJSON(w, http.StatusOK, donations)
}

func (s *Server) handleCreateDonation(w http.ResponseWriter, r *http.Request) {
	var in model.NewDonation
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, err)
		return
	}
	d, err := s.store.CreateDonation(mustUser(r), in)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

// handleDonors handles GET /donor-list/?blood_type=&is_available=&search=
func (s *Server) handleDonors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := DonorQuery{BloodType: q.Get("blood_type"), Search: q.Get("search")}
	if raw := q.Get("is_available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, fieldError("is_available", "Must be a valid boolean."))
			return
		}
		query.Available = &available
	}
	respondJSON(w, http.StatusOK, s.store.Donors(query))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Dashboard(mustUser(r)))
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Stats())
}
