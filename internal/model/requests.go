package model

// LoginRequest is the body for POST /auth/jwt/create/
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration holds the sign-up form. RePassword is checked locally and
// never sent.
type Registration struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	UserType   string `json:"user_type"`
	BloodType  string `json:"blood_type,omitempty"`
	Address    string `json:"address,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Password   string `json:"password"`
	RePassword string `json:"-"`
}

// ProfileUpdate is a partial PATCH of /auth/users/me/
type ProfileUpdate struct {
	FirstName        *string `json:"first_name,omitempty"`
	LastName         *string `json:"last_name,omitempty"`
	UserType         *string `json:"user_type,omitempty"`
	BloodType        *string `json:"blood_type,omitempty"`
	Address          *string `json:"address,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	Age              *int    `json:"age,omitempty"`
	IsAvailable      *bool   `json:"is_available,omitempty"`
	LastDonationDate *string `json:"last_donation_date,omitempty"`
	Avatar           *string `json:"avatar,omitempty"`
}

// Empty reports whether no field is set
func (p ProfileUpdate) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.UserType == nil &&
		p.BloodType == nil && p.Address == nil && p.Phone == nil && p.Age == nil &&
		p.IsAvailable == nil && p.LastDonationDate == nil && p.Avatar == nil
}

// PasswordChange is the body for POST /auth/users/set_password/
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Activation carries the uid/token pair from an activation or reset link
type Activation struct {
	UID   string `json:"uid"`
	Token string `json:"token"`
}

// PasswordResetConfirm is the body for POST /auth/users/reset_password_confirm/
type PasswordResetConfirm struct {
	UID         string `json:"uid"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// EmailRequest is used by resend_activation and reset_password
type EmailRequest struct {
	Email string `json:"email"`
}

// NewBloodEvent is the body for POST /blood-events/
type NewBloodEvent struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	BloodType   string `json:"blood_type"`
	UnitsNeeded int    `json:"units_needed"`
	Location    string `json:"location"`
	EventDate   string `json:"event_date"`
}

// NewBloodRequest is the body for POST /blood-requests/
type NewBloodRequest struct {
	Donor       int64  `json:"donor,omitempty"`
	BloodType   string `json:"blood_type"`
	UnitsNeeded int    `json:"units_needed"`
	Hospital    string `json:"hospital"`
	Message     string `json:"message,omitempty"`
}

// NewDonation is the body for POST /donations/
type NewDonation struct {
	BloodRequest *int64 `json:"blood_request,omitempty"`
	BloodEvent   *int64 `json:"blood_event,omitempty"`
	Units        int    `json:"units"`
}

// PaymentRequest is the body for POST /payment/initiate/
type PaymentRequest struct {
	Amount string `json:"amount"`
}
