package views

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/roktofy/client/internal/apiclient"
	"github.com/roktofy/client/internal/model"
	"github.com/roktofy/client/internal/session"
)

const pathDonations = "/donations/"

// Donations is the current user's donation history
type Donations struct {
	deps
	items *Collection[model.Donation]
}

// NewDonations creates an empty donation view
func NewDonations(client *apiclient.Client, sess *session.Manager, logger *zap.Logger) *Donations {
	return &Donations{
		deps:  newDeps(client, sess, logger),
		items: NewCollection(func(d model.Donation) int64 { return d.ID }),
	}
}

// Items returns the local copy of the list
func (v *Donations) Items() []model.Donation { return v.items.Items() }

// Load fetches the list and replaces the local copy
func (v *Donations) Load(ctx context.Context) error {
	var donations []model.Donation
	if err := v.client.Get(ctx, pathDonations, &donations); err != nil {
		return v.fail("load donations", err)
	}
	v.items.Replace(donations)
	return nil
}

// Create records a donation and appends the server's copy. A second
// donation to the same request fails with ErrAlreadyDonated.
func (v *Donations) Create(ctx context.Context, d model.NewDonation) (*model.Donation, error) {
	if _, err := v.currentUser("donate"); err != nil {
		return nil, err
	}
	var created model.Donation
	if err := v.client.Post(ctx, pathDonations, d, &created); err != nil {
		if isDuplicateDonation(err) {
			return nil, &Error{Action: "donate", Message: MsgAlreadyDonated, Err: errors.Join(ErrAlreadyDonated, err)}
		}
		return nil, v.fail("donate", err)
	}
	v.items.Append(created)
	return &created, nil
}

func isDuplicateDonation(err error) bool {
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == http.StatusConflict {
		return true
	}
	return apiErr.StatusCode == http.StatusBadRequest && apiErr.Contains("already")
}
