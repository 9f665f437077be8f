// Package session owns the authenticated identity: it logs in and out,
// mirrors the server's profile, and notifies dependents of every change.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/roktofy/client/internal/apiclient"
	"github.com/roktofy/client/internal/auth"
	"github.com/roktofy/client/internal/model"
)

// Display messages
const (
	MsgLoginFailed        = "Login failed. Please check your credentials."
	MsgRegisterFailed     = "Registration failed."
	MsgRegistered         = "Registration successful! Please check your email to activate your account."
	MsgPasswordMismatch   = "Passwords do not match."
	MsgActivated          = "Your account has been activated. You can now log in."
	MsgActivationSent     = "Activation email sent. Please check your inbox."
	MsgResetSent          = "Password reset email sent. Please check your inbox."
	MsgResetDone          = "Your password has been reset. You can now log in."
	MsgNotLoggedIn        = "You are not logged in."
	MsgProfileFetchFailed = "Failed to load your profile."
)

// API paths used by the session
const (
	pathLogin            = "/auth/jwt/create/"
	pathRegister         = "/auth/users/"
	pathMe               = "/auth/users/me"
	pathMeUpdate         = "/auth/users/me/"
	pathSetPassword      = "/auth/users/set_password/"
	pathActivation       = "/auth/users/activation/"
	pathResendActivation = "/auth/users/resend_activation/"
	pathResetPassword    = "/auth/users/reset_password/"
	pathResetConfirm     = "/auth/users/reset_password_confirm/"
)

type subscriber struct {
	id int
	fn func(State)
}

// Manager is the single owner of the session. It does not serialize
// operations: overlapping calls race and the last response to land wins.
type Manager struct {
	client *apiclient.Client
	tokens *auth.TokenStore
	logger *zap.Logger

	mu      sync.Mutex
	status  Status
	user    *model.User
	lastErr string

	busy atomic.Int32

	subMu  sync.Mutex
	subs   []subscriber
	nextID int
}

// New creates a session manager and registers it for the client's 401 policy
func New(client *apiclient.Client, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		client: client,
		tokens: client.Tokens(),
		logger: logger,
	}
	client.OnUnauthorized(m.expire)
	return m
}

// Snapshot returns the current state; the user is a copy
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() State {
	return State{Status: m.status, User: m.user.Clone(), Err: m.lastErr}
}

// User returns a copy of the mirrored profile, or nil
func (m *Manager) User() *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user.Clone()
}

// Busy reports whether any operation is in flight
func (m *Manager) Busy() bool {
	return m.busy.Load() > 0
}

// Subscribe registers fn to receive every state change in registration
// order. The returned func unsubscribes.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.nextID++
	id := m.nextID
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

// update mutates state under the lock and then notifies subscribers
func (m *Manager) update(fn func()) {
	m.mu.Lock()
	fn()
	st := m.snapshotLocked()
	m.mu.Unlock()

	m.subMu.Lock()
	subs := append([]subscriber(nil), m.subs...)
	m.subMu.Unlock()
	for _, s := range subs {
		s.fn(st)
	}
}

func (m *Manager) begin() func() {
	m.busy.Add(1)
	return func() { m.busy.Add(-1) }
}

func (m *Manager) fail(op string, err error, fallback string) error {
	msg := apiclient.DisplayMessage(err, fallback)
	m.logger.Debug("session operation failed", zap.String("op", op), zap.Error(err))
	m.update(func() { m.lastErr = msg })
	return &Error{Op: op, Message: msg, Err: err}
}

// expire runs when the API rejected the stored credential
func (m *Manager) expire() {
	m.logger.Info("session expired")
	m.update(func() {
		m.status = Anonymous
		m.user = nil
		m.lastErr = MsgNotLoggedIn
	})
}

// Login exchanges credentials for a token pair, stores it and loads the
// profile. Nothing is stored on failure, and a session that was already
// authenticated stays so.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	defer m.begin()()
	var (
		prevStatus Status
		prevUser   *model.User
	)
	m.update(func() {
		prevStatus, prevUser = m.status, m.user
		m.status = Authenticating
		m.user = nil
		m.lastErr = ""
	})
	// a failed attempt leaves an existing session as it was
	restore := func() {
		m.update(func() {
			if m.status == Authenticating {
				m.status, m.user = prevStatus, prevUser
			}
		})
	}

	var creds model.Credentials
	err := m.client.Post(apiclient.Anonymous(ctx), pathLogin, model.LoginRequest{Email: email, Password: password}, &creds)
	if err == nil && creds.Access == "" {
		err = errors.New("token response without access token")
	}
	if err != nil {
		restore()
		return m.fail("login", err, MsgLoginFailed)
	}

	if err := m.tokens.Save(ctx, creds); err != nil {
		restore()
		return m.fail("login", err, MsgLoginFailed)
	}

	return m.fetchProfile(ctx)
}

// Register creates an account. It does not log the user in.
func (m *Manager) Register(ctx context.Context, reg model.Registration) (string, error) {
	defer m.begin()()
	if reg.RePassword != "" && reg.RePassword != reg.Password {
		err := errors.New("password confirmation mismatch")
		m.update(func() { m.lastErr = MsgPasswordMismatch })
		return "", &Error{Op: "register", Message: MsgPasswordMismatch, Err: err}
	}
	if err := m.client.Post(apiclient.Anonymous(ctx), pathRegister, reg, nil); err != nil {
		return "", m.fail("register", err, MsgRegisterFailed)
	}
	m.update(func() { m.lastErr = "" })
	return MsgRegistered, nil
}

// Activate confirms an account from its activation link
func (m *Manager) Activate(ctx context.Context, uid, token string) (string, error) {
	return m.post(ctx, "activate", pathActivation, model.Activation{UID: uid, Token: token}, MsgActivated)
}

// ResendActivation asks the server to send the activation email again
func (m *Manager) ResendActivation(ctx context.Context, email string) (string, error) {
	return m.post(ctx, "resend activation", pathResendActivation, model.EmailRequest{Email: email}, MsgActivationSent)
}

// RequestPasswordReset starts the password reset flow
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	return m.post(ctx, "reset password", pathResetPassword, model.EmailRequest{Email: email}, MsgResetSent)
}

// ConfirmPasswordReset completes the password reset flow
func (m *Manager) ConfirmPasswordReset(ctx context.Context, confirm model.PasswordResetConfirm) (string, error) {
	return m.post(ctx, "confirm password reset", pathResetConfirm, confirm, MsgResetDone)
}

// post is an anonymous call whose outcome is only a message
func (m *Manager) post(ctx context.Context, op, path string, body interface{}, success string) (string, error) {
	defer m.begin()()
	if err := m.client.Post(apiclient.Anonymous(ctx), path, body, nil); err != nil {
		return "", m.fail(op, err, apiclient.GenericMessage)
	}
	m.update(func() { m.lastErr = "" })
	return success, nil
}

// FetchProfile replaces the mirrored profile with the server's. On failure
// the profile is left as is and the stored credential is kept; a rejected
// credential is handled by the client's 401 policy.
func (m *Manager) FetchProfile(ctx context.Context) error {
	defer m.begin()()
	return m.fetchProfile(ctx)
}

func (m *Manager) fetchProfile(ctx context.Context) error {
	creds, err := m.tokens.Load(ctx)
	if err != nil {
		return m.profileFailed(err)
	}
	if creds == nil {
		m.update(func() {
			m.status = Anonymous
			m.user = nil
		})
		return m.fail("fetch profile", auth.ErrNoCredentials, MsgNotLoggedIn)
	}

	var user model.User
	if err := m.client.Get(ctx, pathMe, &user); err != nil {
		return m.profileFailed(err)
	}

	m.update(func() {
		m.user = &user
		m.status = Authenticated
		m.lastErr = ""
	})
	return nil
}

func (m *Manager) profileFailed(err error) error {
	m.update(func() {
		if m.user == nil {
			m.status = Anonymous
		}
	})
	return m.fail("fetch profile", err, MsgProfileFetchFailed)
}

// UpdateProfile patches the profile and re-fetches it
func (m *Manager) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) error {
	defer m.begin()()
	if err := m.client.Patch(ctx, pathMeUpdate, upd, nil); err != nil {
		return m.fail("update profile", err, apiclient.GenericMessage)
	}
	return m.fetchProfile(ctx)
}

// ChangePassword sets a new password and re-fetches the profile
func (m *Manager) ChangePassword(ctx context.Context, change model.PasswordChange) error {
	defer m.begin()()
	if err := m.client.Post(ctx, pathSetPassword, change, nil); err != nil {
		return m.fail("change password", err, apiclient.GenericMessage)
	}
	return m.fetchProfile(ctx)
}

// Logout forgets the profile and clears the token store. No server call.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.tokens.Clear(ctx)
	m.update(func() {
		m.status = Anonymous
		m.user = nil
		m.lastErr = ""
	})
	if err != nil {
		return &Error{Op: "logout", Message: apiclient.GenericMessage, Err: err}
	}
	return nil
}

// Restore picks up a credential persisted by an earlier run and loads the
// profile for it. Without a credential the session stays anonymous.
func (m *Manager) Restore(ctx context.Context) error {
	defer m.begin()()
	creds, err := m.tokens.Load(ctx)
	if err != nil {
		return m.profileFailed(err)
	}
	if creds == nil {
		m.update(func() { m.status = Anonymous })
		return nil
	}
	return m.fetchProfile(ctx)
}
