package mockapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
)

// Problem is a client error rendered the way the real API renders it:
// field errors as {"field": ["msg"]}, everything else as {"detail": "msg"}.
type Problem struct {
	Status int
	Fields map[string][]string
	Detail string
}

func (p *Problem) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(p.Fields[k], " "))
	}
	return strings.Join(parts, "; ")
}

func fieldError(field, msg string) *Problem {
	return &Problem{Status: http.StatusBadRequest, Fields: map[string][]string{field: {msg}}}
}

func detailError(status int, msg string) *Problem {
	return &Problem{Status: status, Detail: msg}
}

var (
	errNotFound     = detailError(http.StatusNotFound, "Not found.")
	errNotAuthed    = detailError(http.StatusUnauthorized, "Authentication credentials were not provided.")
	errBadToken     = detailError(http.StatusUnauthorized, "Given token not valid for any token type")
	errForbidden    = detailError(http.StatusForbidden, "You do not have permission to perform this action.")
	errBadLogin     = detailError(http.StatusUnauthorized, "No active account found with the given credentials")
	errRateLimited  = detailError(http.StatusTooManyRequests, "Request was throttled.")
	errInvalidBody  = detailError(http.StatusBadRequest, "JSON parse error.")
	errAlreadyGiven = fieldError("non_field_errors", "You have already donated to this request.")
)

// respondJSON writes v as JSON with the given status
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondWithError renders err. Anything that is not a *Problem is a 500.
func respondWithError(w http.ResponseWriter, err error) {
	p, ok := err.(*Problem)
	if !ok {
		respondJSON(w, http.StatusInternalServerError, map[string]string{"detail": "A server error occurred."})
		return
	}
	if p.Detail != "" || len(p.Fields) == 0 {
		respondJSON(w, p.Status, map[string]string{"detail": p.Detail})
		return
	}
	respondJSON(w, p.Status, p.Fields)
}

func respondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
