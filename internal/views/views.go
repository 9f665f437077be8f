// Package views holds the client's resource views and the action workflows
// that mutate them. Every workflow is one HTTP call followed, on success, by
// an optimistic patch of the local collection; failures leave it untouched.
package views

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roktofy/client/internal/apiclient"
	"github.com/roktofy/client/internal/auth"
	"github.com/roktofy/client/internal/model"
	"github.com/roktofy/client/internal/session"
)

// Display messages
const (
	MsgLoginRequired   = "Please log in to continue."
	MsgAlreadyDonated  = "You have already donated to this request"
	MsgOwnPosting      = "You cannot accept your own posting."
	MsgNotPending      = "This posting is no longer pending."
	MsgNotDonor        = "Only donors can accept postings."
	MsgAlreadyAccepted = "You have already accepted this posting."
	MsgNotRequester    = "Only the requester can cancel this request."
	MsgInvalidAmount   = "Please enter a valid amount."
)

var (
	ErrAlreadyDonated = errors.New("already donated")
	ErrNotAcceptable  = errors.New("not acceptable")
)

// Error is returned by failing workflows; its message is meant for display
type Error struct {
	Action  string
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// deps bundles what every view needs
type deps struct {
	client  *apiclient.Client
	session *session.Manager
	logger  *zap.Logger
}

func newDeps(client *apiclient.Client, sess *session.Manager, logger *zap.Logger) deps {
	if logger == nil {
		logger = zap.NewNop()
	}
	return deps{client: client, session: sess, logger: logger}
}

func (d deps) fail(action string, err error) error {
	d.logger.Debug("workflow failed", zap.String("action", action), zap.Error(err))
	return &Error{Action: action, Message: apiclient.DisplayMessage(err, apiclient.GenericMessage), Err: err}
}

// currentUser returns the session's user or a login-required error
func (d deps) currentUser(action string) (*model.User, error) {
	var user *model.User
	if d.session != nil {
		user = d.session.User()
	}
	if user == nil {
		return nil, &Error{Action: action, Message: MsgLoginRequired, Err: auth.ErrNoCredentials}
	}
	return user, nil
}

func rejected(action, msg string) error {
	return &Error{Action: action, Message: msg, Err: ErrNotAcceptable}
}

func itemPath(prefix string, id int64, suffix string) string {
	return fmt.Sprintf("%s%d/%s", prefix, id, suffix)
}
