package views

import (
	"context"

	"go.uber.org/zap"

	"github.com/roktofy/client/internal/apiclient"
	"github.com/roktofy/client/internal/model"
	"github.com/roktofy/client/internal/session"
)

const (
	pathAdminUsers     = "/admin/users/"
	pathAdminDonations = "/admin/donations/"
	pathAdminEvents    = "/admin/blood-events/"
)

const (
	MsgStaffOnly   = "Only staff members can use the admin panel."
	MsgUnknownUser = "User not found. Reload the user list."
)

// Admin is the staff panel: users, donations awaiting verification, events
type Admin struct {
	deps
	users     *Collection[model.User]
	donations *Collection[model.Donation]
	events    *Collection[model.BloodEvent]
}

// NewAdmin creates an empty admin view
func NewAdmin(client *apiclient.Client, sess *session.Manager, logger *zap.Logger) *Admin {
	return &Admin{
		deps:      newDeps(client, sess, logger),
		users:     NewCollection(func(u model.User) int64 { return u.ID }),
		donations: NewCollection(func(d model.Donation) int64 { return d.ID }),
		events:    NewCollection(func(e model.BloodEvent) int64 { return e.ID }),
	}
}

// Users returns the local copy of the user list
func (v *Admin) Users() []model.User { return v.users.Items() }

// Donations returns the local copy of the donation list
func (v *Admin) Donations() []model.Donation { return v.donations.Items() }

// Events returns the local copy of the event list
func (v *Admin) Events() []model.BloodEvent { return v.events.Items() }

// requireStaff is advisory; the server enforces staff access
func (v *Admin) requireStaff(action string) error {
	user, err := v.currentUser(action)
	if err != nil {
		return err
	}
	if !user.IsStaff {
		return rejected(action, MsgStaffOnly)
	}
	return nil
}

// LoadUsers fetches every user
func (v *Admin) LoadUsers(ctx context.Context) error {
	if err := v.requireStaff("load users"); err != nil {
		return err
	}
	var users []model.User
	if err := v.client.Get(ctx, pathAdminUsers, &users); err != nil {
		return v.fail("load users", err)
	}
	v.users.Replace(users)
	return nil
}

// ToggleActive flips a user's active flag
func (v *Admin) ToggleActive(ctx context.Context, id int64) error {
	if err := v.requireStaff("toggle user"); err != nil {
		return err
	}
	u, ok := v.users.Get(id)
	if !ok {
		return rejected("toggle user", MsgUnknownUser)
	}
	active := !u.IsActive

	var updated model.User
	body := map[string]bool{"is_active": active}
	if err := v.client.Patch(ctx, itemPath(pathAdminUsers, id, ""), body, &updated); err != nil {
		return v.fail("toggle user", err)
	}
	if updated.ID == id {
		v.users.Patch(id, func(u *model.User) { *u = updated })
		return nil
	}
	v.users.Patch(id, func(u *model.User) { u.IsActive = active })
	return nil
}

// DeleteUser removes a user
func (v *Admin) DeleteUser(ctx context.Context, id int64) error {
	if err := v.requireStaff("delete user"); err != nil {
		return err
	}
	if err := v.client.Delete(ctx, itemPath(pathAdminUsers, id, "")); err != nil {
		return v.fail("delete user", err)
	}
	v.users.Remove(id)
	return nil
}

// LoadDonations fetches every donation
func (v *Admin) LoadDonations(ctx context.Context) error {
	if err := v.requireStaff("load donations"); err != nil {
		return err
	}
	var donations []model.Donation
	if err := v.client.Get(ctx, pathAdminDonations, &donations); err != nil {
		return v.fail("load donations", err)
	}
	v.donations.Replace(donations)
	return nil
}

// VerifyDonation marks a donation as verified
func (v *Admin) VerifyDonation(ctx context.Context, id int64) error {
	if err := v.requireStaff("verify donation"); err != nil {
		return err
	}
	var updated model.Donation
	body := map[string]bool{"is_verified": true}
	if err := v.client.Patch(ctx, itemPath(pathAdminDonations, id, ""), body, &updated); err != nil {
		return v.fail("verify donation", err)
	}
	if updated.ID == id {
		v.donations.Patch(id, func(d *model.Donation) { *d = updated })
		return nil
	}
	v.donations.Patch(id, func(d *model.Donation) { d.IsVerified = true })
	return nil
}

// LoadEvents fetches every event
func (v *Admin) LoadEvents(ctx context.Context) error {
	if err := v.requireStaff("load events"); err != nil {
		return err
	}
	var events []model.BloodEvent
	if err := v.client.Get(ctx, pathAdminEvents, &events); err != nil {
		return v.fail("load events", err)
	}
	v.events.Replace(events)
	return nil
}

// DeleteEvent removes an event
func (v *Admin) DeleteEvent(ctx context.Context, id int64) error {
	if err := v.requireStaff("delete event"); err != nil {
		return err
	}
	if err := v.client.Delete(ctx, itemPath(pathAdminEvents, id, "")); err != nil {
		return v.fail("delete event", err)
	}
	v.events.Remove(id)
	return nil
}
