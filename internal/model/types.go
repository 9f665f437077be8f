package model

import "time"

// User types reported by the server
const (
	UserTypeDonor     = "donor"
	UserTypeRecipient = "recipient"
	UserTypeBoth      = "both"
)

// Status values shared by blood requests and blood events
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Credentials is the access/refresh pair issued by the identity endpoint
type Credentials struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Profile holds the donor-facing part of a user
type Profile struct {
	Avatar           string `json:"avatar,omitempty"`
	BloodType        string `json:"blood_type,omitempty"`
	IsAvailable      bool   `json:"is_available"`
	LastDonationDate string `json:"last_donation_date,omitempty"`
	Address          string `json:"address,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Age              int    `json:"age,omitempty"`
}

// User is the server-reported identity of an account
type User struct {
	ID        int64    `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	UserType  string   `json:"user_type"`
	IsStaff   bool     `json:"is_staff"`
	IsActive  bool     `json:"is_active"`
	Profile   *Profile `json:"profile,omitempty"`
}

// FullName returns "First Last", falling back to the email
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

// IsDonor reports whether the user can pledge donations
func (u *User) IsDonor() bool {
	return u.UserType == UserTypeDonor || u.UserType == UserTypeBoth
}

// IsRecipient reports whether the user can post requests and events
func (u *User) IsRecipient() bool {
	return u.UserType == UserTypeRecipient || u.UserType == UserTypeBoth
}

// Clone returns a deep copy
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Profile != nil {
		p := *u.Profile
		c.Profile = &p
	}
	return &c
}

// BloodEvent is a donation-need posting created by a recipient
type BloodEvent struct {
	ID          int64     `json:"id"`
	CreatedBy   int64     `json:"created_by"`
	CreatorName string    `json:"creator_name,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	BloodType   string    `json:"blood_type"`
	UnitsNeeded int       `json:"units_needed"`
	Location    string    `json:"location"`
	EventDate   string    `json:"event_date"`
	Status      string    `json:"status"`
	AcceptedBy  []int64   `json:"accepted_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// BloodRequest is a direct request a recipient sends to a donor
type BloodRequest struct {
	ID          int64     `json:"id"`
	Requester   int64     `json:"requester"`
	Donor       int64     `json:"donor,omitempty"`
	BloodType   string    `json:"blood_type"`
	UnitsNeeded int       `json:"units_needed"`
	Hospital    string    `json:"hospital"`
	Message     string    `json:"message,omitempty"`
	Status      string    `json:"status"`
	AcceptedBy  []int64   `json:"accepted_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Donation links a donor to the request or event they fulfilled
type Donation struct {
	ID           int64     `json:"id"`
	Donor        int64     `json:"donor"`
	DonorEmail   string    `json:"donor_email,omitempty"`
	BloodRequest *int64    `json:"blood_request,omitempty"`
	BloodEvent   *int64    `json:"blood_event,omitempty"`
	Units        int       `json:"units"`
	IsVerified   bool      `json:"is_verified"`
	DonatedAt    time.Time `json:"donated_at"`
}

// Donor is a row of the public donor list
type Donor struct {
	ID               int64  `json:"id"`
	FullName         string `json:"full_name"`
	Email            string `json:"email"`
	BloodType        string `json:"blood_type"`
	IsAvailable      bool   `json:"is_available"`
	Address          string `json:"address,omitempty"`
	LastDonationDate string `json:"last_donation_date,omitempty"`
}

// Dashboard is the per-user aggregate view
type Dashboard struct {
	MyRequests     []BloodRequest `json:"my_requests"`
	MyEvents       []BloodEvent   `json:"my_events"`
	MyDonations    []Donation     `json:"my_donations"`
	AcceptedEvents []BloodEvent   `json:"accepted_events"`
	TotalDonated   int            `json:"total_donated"`
}

// Clone returns a deep copy
func (d *Dashboard) Clone() *Dashboard {
	if d == nil {
		return nil
	}
	c := *d
	c.MyRequests = make([]BloodRequest, len(d.MyRequests))
	for i, r := range d.MyRequests {
		r.AcceptedBy = append([]int64(nil), r.AcceptedBy...)
		c.MyRequests[i] = r
	}
	c.MyEvents = cloneEvents(d.MyEvents)
	c.AcceptedEvents = cloneEvents(d.AcceptedEvents)
	c.MyDonations = make([]Donation, len(d.MyDonations))
	for i, dn := range d.MyDonations {
		if dn.BloodRequest != nil {
			id := *dn.BloodRequest
			dn.BloodRequest = &id
		}
		if dn.BloodEvent != nil {
			id := *dn.BloodEvent
			dn.BloodEvent = &id
		}
		c.MyDonations[i] = dn
	}
	return &c
}

func cloneEvents(events []BloodEvent) []BloodEvent {
	out := make([]BloodEvent, len(events))
	for i, ev := range events {
		ev.AcceptedBy = append([]int64(nil), ev.AcceptedBy...)
		out[i] = ev
	}
	return out
}

// PublicStats is the anonymous landing-page aggregate
type PublicStats struct {
	TotalDonors    int `json:"total_donors"`
	AvailableDonor int `json:"available_donors"`
	TotalEvents    int `json:"total_events"`
	TotalDonations int `json:"total_donations"`
}

// Payment is one monetary donation attempt
type Payment struct {
	ID            int64     `json:"id"`
	TransactionID string    `json:"tran_id"`
	Amount        string    `json:"amount"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// PaymentSession is returned when a payment is initiated
type PaymentSession struct {
	PaymentURL    string `json:"payment_url"`
	TransactionID string `json:"tran_id"`
}
