package views

import (
	"context"

	"go.uber.org/zap"

	"github.com/roktofy/client/internal/apiclient"
	"github.com/roktofy/client/internal/model"
	"github.com/roktofy/client/internal/session"
)

const pathRequests = "/blood-requests/"

// Requests is the blood-request list and its workflows
type Requests struct {
	deps
	items *Collection[model.BloodRequest]
}

// NewRequests creates an empty request view
func NewRequests(client *apiclient.Client, sess *session.Manager, logger *zap.Logger) *Requests {
	return &Requests{
		deps:  newDeps(client, sess, logger),
		items: NewCollection(func(r model.BloodRequest) int64 { return r.ID }),
	}
}

// Items returns the local copy of the list
func (v *Requests) Items() []model.BloodRequest { return v.items.Items() }

// Load fetches the list and replaces the local copy
func (v *Requests) Load(ctx context.Context) error {
	var reqs []model.BloodRequest
	if err := v.client.Get(ctx, pathRequests, &reqs); err != nil {
		return v.fail("load requests", err)
	}
	v.items.Replace(reqs)
	return nil
}

// Create posts a new request and prepends the server's copy
func (v *Requests) Create(ctx context.Context, req model.NewBloodRequest) (*model.BloodRequest, error) {
	if _, err := v.currentUser("create request"); err != nil {
		return nil, err
	}
	var created model.BloodRequest
	if err := v.client.Post(ctx, pathRequests, req, &created); err != nil {
		return nil, v.fail("create request", err)
	}
	v.items.Upsert(created)
	return &created, nil
}

// CanAcceptRequest is advisory gating for the accept action
func CanAcceptRequest(req model.BloodRequest, user *model.User) (bool, string) {
	switch {
	case user == nil:
		return false, MsgLoginRequired
	case req.Requester == user.ID:
		return false, MsgOwnPosting
	case req.Status != model.StatusPending:
		return false, MsgNotPending
	case !user.IsDonor():
		return false, MsgNotDonor
	case containsID(req.AcceptedBy, user.ID):
		return false, MsgAlreadyAccepted
	}
	return true, ""
}

// Accept accepts a request as the current user and merges the user into
// accepted_by. The status is left to the server.
func (v *Requests) Accept(ctx context.Context, id int64) error {
	user, err := v.currentUser("accept request")
	if err != nil {
		return err
	}
	if req, ok := v.items.Get(id); ok {
		if ok, reason := CanAcceptRequest(req, user); !ok {
			return rejected("accept request", reason)
		}
	}
	if err := v.client.Post(ctx, itemPath(pathRequests, id, "accept/"), nil, nil); err != nil {
		return v.fail("accept request", err)
	}
	v.items.Patch(id, func(req *model.BloodRequest) {
		req.AcceptedBy = mergeID(req.AcceptedBy, user.ID)
	})
	return nil
}

// Cancel cancels one of the current user's requests. The server's copy is
// used when the response carries it.
func (v *Requests) Cancel(ctx context.Context, id int64) error {
	user, err := v.currentUser("cancel request")
	if err != nil {
		return err
	}
	if req, ok := v.items.Get(id); ok {
		if req.Requester != user.ID {
			return rejected("cancel request", MsgNotRequester)
		}
		if req.Status != model.StatusPending && req.Status != model.StatusAccepted {
			return rejected("cancel request", MsgNotPending)
		}
	}

	var updated model.BloodRequest
	if err := v.client.Post(ctx, itemPath(pathRequests, id, "cancel/"), nil, &updated); err != nil {
		return v.fail("cancel request", err)
	}
	if updated.ID == id {
		v.items.Patch(id, func(req *model.BloodRequest) { *req = updated })
		return nil
	}
	v.items.Patch(id, func(req *model.BloodRequest) { req.Status = model.StatusCancelled })
	return nil
}
