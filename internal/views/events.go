package views

import (
	"context"

	"go.uber.org/zap"

	"github.com/roktofy/client/internal/apiclient"
	"github.com/roktofy/client/internal/model"
	"github.com/roktofy/client/internal/session"
)

const pathEvents = "/blood-events/"

// Events is the blood-event list and its workflows
type Events struct {
	deps
	items *Collection[model.BloodEvent]
}

// NewEvents creates an empty event view
func NewEvents(client *apiclient.Client, sess *session.Manager, logger *zap.Logger) *Events {
	return &Events{
		deps:  newDeps(client, sess, logger),
		items: NewCollection(func(e model.BloodEvent) int64 { return e.ID }),
	}
}

// Items returns the local copy of the list
func (v *Events) Items() []model.BloodEvent { return v.items.Items() }

// Load fetches the list and replaces the local copy
func (v *Events) Load(ctx context.Context) error {
	var events []model.BloodEvent
	if err := v.client.Get(ctx, pathEvents, &events); err != nil {
		return v.fail("load events", err)
	}
	v.items.Replace(events)
	return nil
}

// Create posts a new event and prepends the server's copy
func (v *Events) Create(ctx context.Context, ev model.NewBloodEvent) (*model.BloodEvent, error) {
	if _, err := v.currentUser("create event"); err != nil {
		return nil, err
	}
	var created model.BloodEvent
	if err := v.client.Post(ctx, pathEvents, ev, &created); err != nil {
		return nil, v.fail("create event", err)
	}
	v.items.Upsert(created)
	return &created, nil
}

// CanAcceptEvent is advisory gating for the accept action; the server has the
// final say. The reason is empty when accepting is allowed.
func CanAcceptEvent(ev model.BloodEvent, user *model.User) (bool, string) {
	switch {
	case user == nil:
		return false, MsgLoginRequired
	case ev.CreatedBy == user.ID:
		return false, MsgOwnPosting
	case ev.Status != model.StatusPending:
		return false, MsgNotPending
	case !user.IsDonor():
		return false, MsgNotDonor
	case containsID(ev.AcceptedBy, user.ID):
		return false, MsgAlreadyAccepted
	}
	return true, ""
}

// Accept pledges the current user to an event. On success the user is
// merged into the event's accepted_by; the status is left to the server.
func (v *Events) Accept(ctx context.Context, id int64) error {
	user, err := v.currentUser("accept event")
	if err != nil {
		return err
	}
	if ev, ok := v.items.Get(id); ok {
		if ok, reason := CanAcceptEvent(ev, user); !ok {
			return rejected("accept event", reason)
		}
	}
	if err := v.client.Post(ctx, itemPath(pathEvents, id, "accept/"), nil, nil); err != nil {
		return v.fail("accept event", err)
	}
	v.items.Patch(id, func(ev *model.BloodEvent) {
		ev.AcceptedBy = mergeID(ev.AcceptedBy, user.ID)
	})
	return nil
}
