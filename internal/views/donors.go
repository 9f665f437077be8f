package views

import (
	"context"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/roktofy/client/internal/apiclient"
	"github.com/roktofy/client/internal/model"
)

const pathDonors = "/donor-list/"

// DonorFilter narrows the donor list server-side
type DonorFilter struct {
	BloodType string
	Available *bool
	Search    string
}

func (f DonorFilter) query() string {
	q := url.Values{}
	if f.BloodType != "" {
		q.Set("blood_type", f.BloodType)
	}
	if f.Available != nil {
		q.Set("is_available", strconv.FormatBool(*f.Available))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// Donors is the public donor list. It needs no session.
type Donors struct {
	deps
	items *Collection[model.Donor]
}

// NewDonors creates an empty donor view
func NewDonors(client *apiclient.Client, logger *zap.Logger) *Donors {
	return &Donors{
		deps:  newDeps(client, nil, logger),
		items: NewCollection(func(d model.Donor) int64 { return d.ID }),
	}
}

// Items returns the local copy of the list
func (v *Donors) Items() []model.Donor { return v.items.Items() }

// Load fetches the donors matching filter
func (v *Donors) Load(ctx context.Context, filter DonorFilter) error {
	var donors []model.Donor
	if err := v.client.Get(ctx, pathDonors+filter.query(), &donors); err != nil {
		return v.fail("load donors", err)
	}
	v.items.Replace(donors)
	return nil
}
