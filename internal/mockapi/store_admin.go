package mockapi

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/roktofy/client/internal/model"
)

// Payment statuses
const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
)

// UserPatch is the admin's partial update of a user
type UserPatch struct {
	IsActive *bool `json:"is_active,omitempty"`
	IsStaff  *bool `json:"is_staff,omitempty"`
}

// DonationPatch is the admin's partial update of a donation
type DonationPatch struct {
	IsVerified *bool `json:"is_verified,omitempty"`
}

// Users lists every account ordered by id
func (s *Store) Users() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, *acc.user.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateUser applies an admin patch. Staff cannot lock themselves out.
func (s *Store) UpdateUser(actorID, id int64, patch UserPatch) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, errNotFound
	}
	if id == actorID && ((patch.IsActive != nil && !*patch.IsActive) || (patch.IsStaff != nil && !*patch.IsStaff)) {
		return nil, detailError(http.StatusBadRequest, "You cannot deactivate or demote your own account.")
	}
	if patch.IsActive != nil {
		acc.user.IsActive = *patch.IsActive
	}
	if patch.IsStaff != nil {
		acc.user.IsStaff = *patch.IsStaff
	}
	return acc.user.Clone(), nil
}

// DeleteUser removes an account
func (s *Store) DeleteUser(actorID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return errNotFound
	}
	if id == actorID {
		return detailError(http.StatusBadRequest, "You cannot delete your own account.")
	}
	delete(s.accounts, id)
	delete(s.byEmail, acc.user.Email)
	delete(s.byUID, acc.uid)
	return nil
}

// AllDonations lists every donation, unverified first
func (s *Store) AllDonations() []model.Donation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Donation, 0, len(s.donations))
	for _, d := range s.donations {
		out = append(out, cloneDonation(d))
	}
	sort.SliceStable(out, func(i, j int) bool { return !out[i].IsVerified && out[j].IsVerified })
	return out
}

// UpdateDonation applies an admin patch to a donation
func (s *Store) UpdateDonation(id int64, patch DonationPatch) (*model.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.donations {
		if d.ID != id {
			continue
		}
		if patch.IsVerified != nil {
			d.IsVerified = *patch.IsVerified
		}
		c := cloneDonation(d)
		return &c, nil
	}
	return nil, errNotFound
}

// DeleteEvent removes an event
func (s *Store) DeleteEvent(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, i := s.eventLocked(id)
	if i < 0 {
		return errNotFound
	}
	s.events = append(s.events[:i:i], s.events[i+1:]...)
	return nil
}

// InitiatePayment starts a pending payment and returns its gateway session.
// gateway is the checkout URL prefix the transaction id is appended to.
func (s *Store) InitiatePayment(userID int64, amount, gateway string) (*model.PaymentSession, error) {
	n, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return nil, fieldError("amount", "A valid number is required.")
	}
	if n <= 0 {
		return nil, fieldError("amount", "Ensure this value is greater than 0.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPayment++
	p := &payment{
		Payment: model.Payment{
			ID:            s.nextPayment,
			TransactionID: "TXN-" + uuid.NewString(),
			Amount:        fmt.Sprintf("%.2f", n),
			Status:        PaymentPending,
			CreatedAt:     s.now().UTC(),
		},
		owner: userID,
	}
	s.payments = append(s.payments, p)
	return &model.PaymentSession{PaymentURL: gateway + p.TransactionID, TransactionID: p.TransactionID}, nil
}

// CompletePayment marks a pending payment as paid
func (s *Store) CompletePayment(tranID string) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.TransactionID == tranID {
			p.Status = PaymentSuccess
			c := p.Payment
			return &c, nil
		}
	}
	return nil, errNotFound
}

// Payments lists userID's payments, newest first
func (s *Store) Payments(userID int64) []model.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Payment{}
	for i := len(s.payments) - 1; i >= 0; i-- {
		if p := s.payments[i]; p.owner == userID {
			out = append(out, p.Payment)
		}
	}
	return out
}
