package mockapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/roktofy/client/internal/model"
)

const dateLayout = "2006-01-02"

func cloneIDs(ids []int64) []int64 {
	return append(make([]int64, 0, len(ids)), ids...)
}

func cloneEvent(ev *model.BloodEvent) model.BloodEvent {
	c := *ev
	c.AcceptedBy = cloneIDs(ev.AcceptedBy)
	return c
}

func cloneRequest(req *model.BloodRequest) model.BloodRequest {
	c := *req
	c.AcceptedBy = cloneIDs(req.AcceptedBy)
	return c
}

func cloneDonation(d *model.Donation) model.Donation {
	c := *d
	if d.BloodRequest != nil {
		id := *d.BloodRequest
		c.BloodRequest = &id
	}
	if d.BloodEvent != nil {
		id := *d.BloodEvent
		c.BloodEvent = &id
	}
	return c
}

func hasID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func addID(ids []int64, id int64) []int64 {
	if hasID(ids, id) {
		return ids
	}
	return append(ids, id)
}

// donorLocked returns the account of an active donor, or a 403
func (s *Store) donorLocked(userID int64, msg string) (*account, error) {
	acc, ok := s.accounts[userID]
	if !ok {
		return nil, errNotAuthed
	}
	if !acc.user.IsDonor() {
		return nil, detailError(http.StatusForbidden, msg)
	}
	return acc, nil
}

// Events lists every event, newest first
func (s *Store) Events() []model.BloodEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.BloodEvent, 0, len(s.events))
	for i := len(s.events) - 1; i >= 0; i-- {
		out = append(out, cloneEvent(s.events[i]))
	}
	return out
}

func (s *Store) eventLocked(id int64) (*model.BloodEvent, int) {
	for i, ev := range s.events {
		if ev.ID == id {
			return ev, i
		}
	}
	return nil, -1
}

// CreateEvent validates and stores a new event owned by userID
func (s *Store) CreateEvent(userID int64, in model.NewBloodEvent) (*model.BloodEvent, error) {
	errs := fieldErrors{}
	if strings.TrimSpace(in.Title) == "" {
		errs.add("title", "This field is required.")
	}
	if !validBloodType(in.BloodType) {
		errs.add("blood_type", `"`+in.BloodType+`" is not a valid choice.`)
	}
	if in.UnitsNeeded < 1 {
		errs.add("units_needed", "Ensure this value is greater than or equal to 1.")
	}
	if strings.TrimSpace(in.Location) == "" {
		errs.add("location", "This field is required.")
	}
	if _, err := time.Parse(dateLayout, in.EventDate); err != nil {
		errs.add("event_date", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[userID]
	if !ok {
		return nil, errNotAuthed
	}
	s.nextEvent++
	ev := &model.BloodEvent{
		ID:          s.nextEvent,
		CreatedBy:   userID,
		CreatorName: acc.user.FullName(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		BloodType:   in.BloodType,
		UnitsNeeded: in.UnitsNeeded,
		Location:    strings.TrimSpace(in.Location),
		EventDate:   in.EventDate,
		Status:      model.StatusPending,
		AcceptedBy:  []int64{},
		CreatedAt:   s.now().UTC(),
	}
	s.events = append(s.events, ev)
	c := cloneEvent(ev)
	return &c, nil
}

// AcceptEvent pledges userID to an event. The event turns accepted once
// it has as many pledges as units needed.
func (s *Store) AcceptEvent(userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, _ := s.eventLocked(id)
	if ev == nil {
		return errNotFound
	}
	if _, err := s.donorLocked(userID, "Only donors can accept blood events."); err != nil {
		return err
	}
	switch {
	case ev.CreatedBy == userID:
		return detailError(http.StatusBadRequest, "You cannot accept your own event.")
	case ev.Status != model.StatusPending:
		return detailError(http.StatusBadRequest, "This event is no longer accepting donors.")
	case hasID(ev.AcceptedBy, userID):
		return detailError(http.StatusBadRequest, "You have already accepted this event.")
	}
	ev.AcceptedBy = addID(ev.AcceptedBy, userID)
	if len(ev.AcceptedBy) >= ev.UnitsNeeded {
		ev.Status = model.StatusAccepted
	}
	return nil
}

// Requests lists the requests visible to userID: their own, those sent to
// them and open ones, newest first
func (s *Store) Requests(userID int64) []model.BloodRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.BloodRequest, 0, len(s.requests))
	for i := len(s.requests) - 1; i >= 0; i-- {
		if req := s.requests[i]; visibleTo(req, userID) {
			out = append(out, cloneRequest(req))
		}
	}
	return out
}

func visibleTo(req *model.BloodRequest, userID int64) bool {
	return req.Requester == userID || req.Donor == userID || req.Donor == 0
}

func (s *Store) requestLocked(id, userID int64) *model.BloodRequest {
	for _, req := range s.requests {
		if req.ID == id && visibleTo(req, userID) {
			return req
		}
	}
	return nil
}

// CreateRequest validates and stores a new request from userID
func (s *Store) CreateRequest(userID int64, in model.NewBloodRequest) (*model.BloodRequest, error) {
	errs := fieldErrors{}
	if !validBloodType(in.BloodType) {
		errs.add("blood_type", `"`+in.BloodType+`" is not a valid choice.`)
	}
	if in.UnitsNeeded < 1 {
		errs.add("units_needed", "Ensure this value is greater than or equal to 1.")
	}
	if strings.TrimSpace(in.Hospital) == "" {
		errs.add("hospital", "This field is required.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if in.Donor != 0 {
		donor, ok := s.accounts[in.Donor]
		switch {
		case !ok:
			errs.add("donor", `Invalid pk "`+strconv.FormatInt(in.Donor, 10)+`" - object does not exist.`)
		case in.Donor == userID:
			errs.add("donor", "You cannot send a request to yourself.")
		case !donor.user.IsDonor():
			errs.add("donor", "The selected user is not a donor.")
		}
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	s.nextRequest++
	req := &model.BloodRequest{
		ID:          s.nextRequest,
		Requester:   userID,
		Donor:       in.Donor,
		BloodType:   in.BloodType,
		UnitsNeeded: in.UnitsNeeded,
		Hospital:    strings.TrimSpace(in.Hospital),
		Message:     in.Message,
		Status:      model.StatusPending,
		AcceptedBy:  []int64{},
		CreatedAt:   s.now().UTC(),
	}
	s.requests = append(s.requests, req)
	c := cloneRequest(req)
	return &c, nil
}

// AcceptRequest accepts a request as userID
func (s *Store) AcceptRequest(userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := s.requestLocked(id, userID)
	if req == nil {
		return errNotFound
	}
	if _, err := s.donorLocked(userID, "Only donors can accept blood requests."); err != nil {
		return err
	}
	switch {
	case req.Requester == userID:
		return detailError(http.StatusBadRequest, "You cannot accept your own request.")
	case hasID(req.AcceptedBy, userID):
		return detailError(http.StatusBadRequest, "You have already accepted this request.")
	case req.Status != model.StatusPending:
		return detailError(http.StatusBadRequest, "This request is no longer pending.")
	}
	req.AcceptedBy = addID(req.AcceptedBy, userID)
	req.Status = model.StatusAccepted
	return nil
}

// CancelRequest cancels one of userID's own requests
func (s *Store) CancelRequest(userID, id int64) (*model.BloodRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := s.requestLocked(id, userID)
	if req == nil {
		return nil, errNotFound
	}
	if req.Requester != userID {
		return nil, detailError(http.StatusForbidden, "Only the requester can cancel this request.")
	}
	if req.Status != model.StatusPending && req.Status != model.StatusAccepted {
		return nil, detailError(http.StatusBadRequest, "Only pending or accepted requests can be cancelled.")
	}
	req.Status = model.StatusCancelled
	c := cloneRequest(req)
	return &c, nil
}

// Donations lists userID's donations in the order they were made
func (s *Store) Donations(userID int64) []model.Donation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Donation
	for _, d := range s.donations {
		if d.Donor == userID {
			out = append(out, cloneDonation(d))
		}
	}
	return out
}

// CreateDonation records a donation towards a request or an event. Donating
// to an event also pledges the donor to it, and donating to a request
// completes it.
func (s *Store) CreateDonation(userID int64, in model.NewDonation) (*model.Donation, error) {
	if (in.BloodRequest == nil) == (in.BloodEvent == nil) {
		return nil, fieldError("non_field_errors", "Provide either blood_request or blood_event.")
	}
	if in.Units < 1 {
		return nil, fieldError("units", "Ensure this value is greater than or equal to 1.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.donorLocked(userID, "Only donors can record donations.")
	if err != nil {
		return nil, err
	}

	var (
		req *model.BloodRequest
		ev  *model.BloodEvent
	)
	if in.BloodRequest != nil {
		if req = s.requestLocked(*in.BloodRequest, userID); req == nil {
			return nil, fieldError("blood_request", `Invalid pk "`+strconv.FormatInt(*in.BloodRequest, 10)+`" - object does not exist.`)
		}
		if req.Status == model.StatusCancelled {
			return nil, fieldError("blood_request", "This request has been cancelled.")
		}
	} else {
		if ev, _ = s.eventLocked(*in.BloodEvent); ev == nil {
			return nil, fieldError("blood_event", `Invalid pk "`+strconv.FormatInt(*in.BloodEvent, 10)+`" - object does not exist.`)
		}
	}

	for _, d := range s.donations {
		if d.Donor != userID {
			continue
		}
		if (req != nil && d.BloodRequest != nil && *d.BloodRequest == req.ID) ||
			(ev != nil && d.BloodEvent != nil && *d.BloodEvent == ev.ID) {
			return nil, errAlreadyGiven
		}
	}

	now := s.now().UTC()
	s.nextDonation++
	d := &model.Donation{
		ID:         s.nextDonation,
		Donor:      userID,
		DonorEmail: acc.user.Email,
		Units:      in.Units,
		DonatedAt:  now,
	}
	if req != nil {
		id := req.ID
		d.BloodRequest = &id
		req.AcceptedBy = addID(req.AcceptedBy, userID)
		req.Status = model.StatusCompleted
	} else {
		id := ev.ID
		d.BloodEvent = &id
		ev.AcceptedBy = addID(ev.AcceptedBy, userID)
	}
	s.donations = append(s.donations, d)
	if acc.user.Profile != nil {
		acc.user.Profile.LastDonationDate = now.Format(dateLayout)
	}
	c := cloneDonation(d)
	return &c, nil
}

// DonorQuery filters the public donor list
type DonorQuery struct {
	BloodType string
	Available *bool
	Search    string
}

// Donors lists active donors matching q, ordered by id
func (s *Store) Donors(q DonorQuery) []model.Donor {
	s.mu.Lock()
	defer s.mu.Unlock()
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := []model.Donor{}
	for _, acc := range s.accounts {
		u := acc.user
		if !u.IsActive || !u.IsDonor() {
			continue
		}
		var p model.Profile
		if u.Profile != nil {
			p = *u.Profile
		}
		if q.BloodType != "" && p.BloodType != q.BloodType {
			continue
		}
		if q.Available != nil && p.IsAvailable != *q.Available {
			continue
		}
		if search != "" {
			haystack := strings.ToLower(u.FullName() + " " + u.Email + " " + p.Address)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		out = append(out, model.Donor{
			ID:               u.ID,
			FullName:         u.FullName(),
			Email:            u.Email,
			BloodType:        p.BloodType,
			IsAvailable:      p.IsAvailable,
			Address:          p.Address,
			LastDonationDate: p.LastDonationDate,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Dashboard aggregates everything userID is involved in
func (s *Store) Dashboard(userID int64) model.Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	dash := model.Dashboard{
		MyRequests:     []model.BloodRequest{},
		MyEvents:       []model.BloodEvent{},
		MyDonations:    []model.Donation{},
		AcceptedEvents: []model.BloodEvent{},
	}
	for i := len(s.requests) - 1; i >= 0; i-- {
		if req := s.requests[i]; req.Requester == userID {
			dash.MyRequests = append(dash.MyRequests, cloneRequest(req))
		}
	}
	for i := len(s.events) - 1; i >= 0; i-- {
		ev := s.events[i]
		if ev.CreatedBy == userID {
			dash.MyEvents = append(dash.MyEvents, cloneEvent(ev))
		}
		if hasID(ev.AcceptedBy, userID) {
			dash.AcceptedEvents = append(dash.AcceptedEvents, cloneEvent(ev))
		}
	}
	for _, d := range s.donations {
		if d.Donor == userID {
			dash.MyDonations = append(dash.MyDonations, cloneDonation(d))
			dash.TotalDonated += d.Units
		}
	}
	return dash
}

// Stats returns the public landing-page counters
func (s *Store) Stats() model.PublicStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats model.PublicStats
	for _, acc := range s.accounts {
		if !acc.user.IsActive || !acc.user.IsDonor() {
			continue
		}
		stats.TotalDonors++
		if acc.user.Profile != nil && acc.user.Profile.IsAvailable {
			stats.AvailableDonor++
		}
	}
	stats.TotalEvents = len(s.events)
	stats.TotalDonations = len(s.donations)
	return stats
}
