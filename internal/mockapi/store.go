package mockapi

import (
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/roktofy/client/internal/auth"
	"github.com/roktofy/client/internal/model"
)

// BloodTypes accepted by the API
var BloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

const (
	minPasswordLen = 8
	maxFieldLen    = 255
)

// Mail kinds recorded in the outbox
const (
	MailActivation    = "activation"
	MailPasswordReset = "password_reset"
)

// Mail is an email the API would have sent. The mock keeps them in an
// outbox instead.
type Mail struct {
	To    string
	Kind  string
	UID   string
	Token string
}

type account struct {
	user         model.User
	passwordHash []byte
	uid          string
	tokens       map[string]string // mail kind -> pending one-time token
}

// Store is the in-memory state of the mock API
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	nextUser, nextEvent, nextRequest, nextDonation, nextPayment int64

	accounts  map[int64]*account
	byEmail   map[string]int64
	byUID     map[string]int64
	events    []*model.BloodEvent
	requests  []*model.BloodRequest
	donations []*model.Donation
	payments  []*payment
	outbox    []Mail
}

type payment struct {
	model.Payment
	owner int64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		now:      time.Now,
		accounts: make(map[int64]*account),
		byEmail:  make(map[string]int64),
		byUID:    make(map[string]int64),
	}
}

type fieldErrors map[string][]string

func (f fieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &Problem{Status: http.StatusBadRequest, Fields: f}
}

func validBloodType(bt string) bool {
	for _, t := range BloodTypes {
		if t == bt {
			return true
		}
	}
	return false
}

func validUserType(ut string) bool {
	switch ut {
	case model.UserTypeDonor, model.UserTypeRecipient, model.UserTypeBoth:
		return true
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser validates a registration and stores the account. Accounts
// created inactive get an activation mail in the outbox.
func (s *Store) CreateUser(reg model.Registration, active, staff bool) (*model.User, error) {
	email := normalizeEmail(reg.Email)
	errs := fieldErrors{}
	if email == "" {
		errs.add("email", "This field is required.")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.add("email", "Enter a valid email address.")
	}
	if len(reg.Password) < minPasswordLen {
		errs.add("password", "This password is too short. It must contain at least 8 characters.")
	}
	if strings.TrimSpace(reg.FirstName) == "" {
		errs.add("first_name", "This field is required.")
	}
	if reg.UserType == "" {
		reg.UserType = model.UserTypeDonor
	}
	if !validUserType(reg.UserType) {
		errs.add("user_type", `"`+reg.UserType+`" is not a valid choice.`)
	}
	if reg.BloodType != "" && !validBloodType(reg.BloodType) {
		errs.add("blood_type", `"`+reg.BloodType+`" is not a valid choice.`)
	}
	if len(reg.Address) > maxFieldLen {
		errs.add("address", "Ensure this field has no more than 255 characters.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[email]; taken && email != "" {
		errs.add("email", "user with this email already exists.")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	s.nextUser++
	acc := &account{
		user: model.User{
			ID:        s.nextUser,
			Email:     email,
			FirstName: strings.TrimSpace(reg.FirstName),
			LastName:  strings.TrimSpace(reg.LastName),
			UserType:  reg.UserType,
			IsStaff:   staff,
			IsActive:  active,
			Profile: &model.Profile{
				BloodType:   reg.BloodType,
				IsAvailable: true,
				Address:     reg.Address,
				Phone:       reg.Phone,
			},
		},
		passwordHash: hash,
		uid:          uuid.NewString(),
		tokens:       make(map[string]string),
	}
	s.accounts[acc.user.ID] = acc
	s.byEmail[email] = acc.user.ID
	s.byUID[acc.uid] = acc.user.ID

	if !active {
		if err := s.sendLocked(acc, MailActivation); err != nil {
			return nil, err
		}
	}
	return acc.user.Clone(), nil
}

// sendLocked issues a fresh one-time token of the given kind and records
// the mail
func (s *Store) sendLocked(acc *account, kind string) error {
	token, err := auth.GenerateOneTimeToken()
	if err != nil {
		return err
	}
	acc.tokens[kind] = token
	s.outbox = append(s.outbox, Mail{To: acc.user.Email, Kind: kind, UID: acc.uid, Token: token})
	return nil
}

// LastMail returns the most recent mail of the given kind sent to email
func (s *Store) LastMail(email, kind string) (Mail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = normalizeEmail(email)
	for i := len(s.outbox) - 1; i >= 0; i-- {
		if m := s.outbox[i]; m.To == email && m.Kind == kind {
			return m, true
		}
	}
	return Mail{}, false
}

// Authenticate checks a login. Inactive accounts fail like unknown ones.
func (s *Store) Authenticate(email, password string) (*model.User, error) {
	s.mu.Lock()
	acc, ok := s.accounts[s.byEmail[normalizeEmail(email)]]
	s.mu.Unlock()
	if !ok {
		return nil, errBadLogin
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return nil, errBadLogin
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !acc.user.IsActive {
		return nil, errBadLogin
	}
	return acc.user.Clone(), nil
}

// User returns an active user by id
func (s *Store) User(id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok || !acc.user.IsActive {
		return nil, errBadToken
	}
	return acc.user.Clone(), nil
}

// UpdateProfile applies a partial update to the user's account and profile
func (s *Store) UpdateProfile(id int64, upd model.ProfileUpdate) (*model.User, error) {
	errs := fieldErrors{}
	if upd.FirstName != nil && strings.TrimSpace(*upd.FirstName) == "" {
		errs.add("first_name", "This field may not be blank.")
	}
	if upd.UserType != nil && !validUserType(*upd.UserType) {
		errs.add("user_type", `"`+*upd.UserType+`" is not a valid choice.`)
	}
	if upd.BloodType != nil && *upd.BloodType != "" && !validBloodType(*upd.BloodType) {
		errs.add("blood_type", `"`+*upd.BloodType+`" is not a valid choice.`)
	}
	if upd.Address != nil && len(*upd.Address) > maxFieldLen {
		errs.add("address", "Ensure this field has no more than 255 characters.")
	}
	if upd.Age != nil && (*upd.Age < 18 || *upd.Age > 65) {
		errs.add("age", "Donors must be between 18 and 65 years old.")
	}
	if upd.LastDonationDate != nil && *upd.LastDonationDate != "" {
		if _, err := time.Parse("2006-01-02", *upd.LastDonationDate); err != nil {
			errs.add("last_donation_date", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
		}
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, errNotFound
	}
	u := &acc.user
	if u.Profile == nil {
		u.Profile = &model.Profile{}
	}
	setString(&u.FirstName, upd.FirstName)
	setString(&u.LastName, upd.LastName)
	setString(&u.UserType, upd.UserType)
	setString(&u.Profile.BloodType, upd.BloodType)
	setString(&u.Profile.Address, upd.Address)
	setString(&u.Profile.Phone, upd.Phone)
	setString(&u.Profile.LastDonationDate, upd.LastDonationDate)
	setString(&u.Profile.Avatar, upd.Avatar)
	if upd.Age != nil {
		u.Profile.Age = *upd.Age
	}
	if upd.IsAvailable != nil {
		u.Profile.IsAvailable = *upd.IsAvailable
	}
	return u.Clone(), nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// SetPassword changes a password after checking the current one
func (s *Store) SetPassword(id int64, change model.PasswordChange) error {
	s.mu.Lock()
	acc, ok := s.accounts[id]
	s.mu.Unlock()
	if !ok {
		return errNotFound
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(change.CurrentPassword)); err != nil {
		return fieldError("current_password", "Invalid password.")
	}
	return s.replacePassword(acc, change.NewPassword)
}

func (s *Store) replacePassword(acc *account, password string) error {
	if len(password) < minPasswordLen {
		return fieldError("new_password", "This password is too short. It must contain at least 8 characters.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	acc.passwordHash = hash
	s.mu.Unlock()
	return nil
}

// consumeLocked checks and spends a one-time token
func (s *Store) consumeLocked(uid, token, kind string) (*account, error) {
	acc, ok := s.accounts[s.byUID[uid]]
	if !ok || uid == "" {
		return nil, fieldError("uid", "Invalid user id or user doesn't exist.")
	}
	if want := acc.tokens[kind]; want == "" || want != token {
		return nil, fieldError("token", "Invalid token for given user.")
	}
	delete(acc.tokens, kind)
	return acc, nil
}

// Activate activates an account from its activation link
func (s *Store) Activate(uid, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[s.byUID[uid]]; ok && acc.user.IsActive {
		return detailError(http.StatusForbidden, "Stale token for given user.")
	}
	acc, err := s.consumeLocked(uid, token, MailActivation)
	if err != nil {
		return err
	}
	acc.user.IsActive = true
	return nil
}

// ResendActivation re-sends the activation mail of an inactive account.
// Unknown addresses are not revealed.
func (s *Store) ResendActivation(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[s.byEmail[normalizeEmail(email)]]
	if !ok || acc.user.IsActive {
		return nil
	}
	return s.sendLocked(acc, MailActivation)
}

// RequestPasswordReset mails a reset link to an active account
func (s *Store) RequestPasswordReset(email string) error {
	if normalizeEmail(email) == "" {
		return fieldError("email", "This field is required.")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[s.byEmail[normalizeEmail(email)]]
	if !ok || !acc.user.IsActive {
		return nil
	}
	return s.sendLocked(acc, MailPasswordReset)
}

// ConfirmPasswordReset sets a new password from a reset link
func (s *Store) ConfirmPasswordReset(confirm model.PasswordResetConfirm) error {
	if len(confirm.NewPassword) < minPasswordLen {
		return fieldError("new_password", "This password is too short. It must contain at least 8 characters.")
	}
	s.mu.Lock()
	acc, err := s.consumeLocked(confirm.UID, confirm.Token, MailPasswordReset)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.replacePassword(acc, confirm.NewPassword)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errNotFound
	}
	return id, nil
}
