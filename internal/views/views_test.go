package views

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roktofy/client/internal/apiclient"
	"github.com/roktofy/client/internal/auth"
	"github.com/roktofy/client/internal/model"
	"github.com/roktofy/client/internal/session"
	"github.com/roktofy/client/internal/storage"
)

// fakeAPI routes by "METHOD path" and records the last body and query
type fakeAPI struct {
	mu      sync.Mutex
	routes  map[string]http.HandlerFunc
	hits    map[string]int
	bodies  map[string][]byte
	queries map[string]string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		routes:  make(map[string]http.HandlerFunc),
		hits:    make(map[string]int),
		bodies:  make(map[string][]byte),
		queries: make(map[string]string),
	}
}

func (f *fakeAPI) handle(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = h
}

func (f *fakeAPI) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[method+" "+path]
}

func (f *fakeAPI) body(method, path string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[method+" "+path]
}

func (f *fakeAPI) query(method, path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[method+" "+path]
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.hits[key]++
	f.bodies[key] = body
	f.queries[key] = r.URL.RawQuery
	h, ok := f.routes[key]
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func jsonReply(status int, v interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
}

type harness struct {
	api    *fakeAPI
	client *apiclient.Client
	sess   *session.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	tokens := auth.NewTokenStore(storage.NewMemory(), nil)
	client, err := apiclient.New(srv.URL, tokens, apiclient.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return &harness{api: api, client: client, sess: session.New(client, nil)}
}

// login signs the harness in as user
func (h *harness) login(t *testing.T, user model.User) {
	t.Helper()
	h.api.handle(http.MethodPost, "/auth/jwt/create/", jsonReply(http.StatusOK, model.Credentials{Access: "A", Refresh: "B"}))
	h.api.handle(http.MethodGet, "/auth/users/me", jsonReply(http.StatusOK, user))
	require.NoError(t, h.sess.Login(context.Background(), user.Email, "demo1234"))
}

var (
	donor = model.User{ID: 7, Email: "donor@roktofy.com", FirstName: "Dana", UserType: model.UserTypeDonor, IsActive: true}
	staff = model.User{ID: 1, Email: "admin@roktofy.com", FirstName: "Ada", UserType: model.UserTypeBoth, IsStaff: true, IsActive: true}
)

func requireViewError(t *testing.T, err error, msg string) *Error {
	t.Helper()
	require.Error(t, err)
	var viewErr *Error
	require.True(t, errors.As(err, &viewErr), "expected *views.Error, got %T", err)
	assert.Equal(t, msg, viewErr.Message)
	return viewErr
}

func TestAcceptRequestMarksUserWithoutChangingStatus(t *testing.T) {
	h := newHarness(t)
	h.login(t, donor)
	ctx := context.Background()

	h.api.handle(http.MethodGet, "/blood-requests/", jsonReply(http.StatusOK, []model.BloodRequest{
		{ID: 42, Requester: 3, BloodType: "A+", UnitsNeeded: 2, Status: model.StatusPending},
	}))
	h.api.handle(http.MethodPost, "/blood-requests/42/accept/", jsonReply(http.StatusOK, map[string]string{"status": "accepted"}))

	reqs := NewRequests(h.client, h.sess, nil)
	require.NoError(t, reqs.Load(ctx))
	require.NoError(t, reqs.Accept(ctx, 42))

	items := reqs.Items()
	require.Len(t, items, 1)
	assert.Equal(t, model.StatusPending, items[0].Status)
	assert.Equal(t, []int64{7}, items[0].AcceptedBy)
	assert.Equal(t, 1, h.api.count(http.MethodPost, "/blood-requests/42/accept/"))

	// already accepted locally: gated before any request is sent
	err := reqs.Accept(ctx, 42)
	viewErr := requireViewError(t, err, MsgAlreadyAccepted)
	assert.ErrorIs(t, viewErr, ErrNotAcceptable)
	assert.Equal(t, 1, h.api.count(http.MethodPost, "/blood-requests/42/accept/"))
}

func TestAcceptFailureLeavesListUntouched(t *testing.T) {
	h := newHarness(t)
	h.login(t, donor)
	ctx := context.Background()

	h.api.handle(http.MethodGet, "/blood-events/", jsonReply(http.StatusOK, []model.BloodEvent{
		{ID: 5, CreatedBy: 3, Status: model.StatusPending},
	}))
	h.api.handle(http.MethodPost, "/blood-events/5/accept/", jsonReply(http.StatusBadRequest, map[string]string{"detail": "Event is full."}))

	events := NewEvents(h.client, h.sess, nil)
	require.NoError(t, events.Load(ctx))
	before := events.Items()

	err := events.Accept(ctx, 5)
	requireViewError(t, err, "Event is full.")
	assert.Equal(t, before, events.Items())
}

func TestAcceptEventUnloadedStillPosts(t *testing.T) {
	h := newHarness(t)
	h.login(t, donor)
	h.api.handle(http.MethodPost, "/blood-events/9/accept/", jsonReply(http.StatusOK, map[string]string{}))

	events := NewEvents(h.client, h.sess, nil)
	require.NoError(t, events.Accept(context.Background(), 9))
	assert.Equal(t, 1, h.api.count(http.MethodPost, "/blood-events/9/accept/"))
	assert.Empty(t, events.Items())
}

func TestWorkflowsRequireLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := NewEvents(h.client, h.sess, nil).Accept(ctx, 1)
	viewErr := requireViewError(t, err, MsgLoginRequired)
	assert.ErrorIs(t, viewErr, auth.ErrNoCredentials)

	_, err = NewDonations(h.client, h.sess, nil).Create(ctx, model.NewDonation{Units: 1})
	requireViewError(t, err, MsgLoginRequired)

	err = NewOverview(h.client, h.sess, nil).Load(ctx)
	requireViewError(t, err, MsgLoginRequired)
}

func TestCanAcceptGating(t *testing.T) {
	recipient := &model.User{ID: 8, UserType: model.UserTypeRecipient}
	d := &donor

	cases := []struct {
		name   string
		ev     model.BloodEvent
		user   *model.User
		ok     bool
		reason string
	}{
		{"anonymous", model.BloodEvent{Status: model.StatusPending}, nil, false, MsgLoginRequired},
		{"own posting", model.BloodEvent{CreatedBy: 7, Status: model.StatusPending}, d, false, MsgOwnPosting},
		{"not pending", model.BloodEvent{CreatedBy: 3, Status: model.StatusCompleted}, d, false, MsgNotPending},
		{"recipient", model.BloodEvent{CreatedBy: 3, Status: model.StatusPending}, recipient, false, MsgNotDonor},
		{"already accepted", model.BloodEvent{CreatedBy: 3, Status: model.StatusPending, AcceptedBy: []int64{7}}, d, false, MsgAlreadyAccepted},
		{"allowed", model.BloodEvent{CreatedBy: 3, Status: model.StatusPending}, d, true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := CanAcceptEvent(tc.ev, tc.user)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.reason, reason)

			req := model.BloodRequest{Requester: tc.ev.CreatedBy, Status: tc.ev.Status, AcceptedBy: tc.ev.AcceptedBy}
			ok, reason = CanAcceptRequest(req, tc.user)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.reason, reason)
		})
	}
}

func TestCreatePrependsServerCopy(t *testing.T) {
	h := newHarness(t)
	h.login(t, donor)
	ctx := context.Background()

	h.api.handle(http.MethodGet, "/blood-events/", jsonReply(http.StatusOK, []model.BloodEvent{{ID: 1}, {ID: 2}}))
	h.api.handle(http.MethodPost, "/blood-events/", jsonReply(http.StatusCreated, model.BloodEvent{
		ID: 3, CreatedBy: 7, Title: "Campus drive", Status: model.StatusPending,
	}))

	events := NewEvents(h.client, h.sess, nil)
	require.NoError(t, events.Load(ctx))

	created, err := events.Create(ctx, model.NewBloodEvent{Title: "Campus drive", BloodType: "O-", UnitsNeeded: 10, Location: "Hall", EventDate: "2026-11-01"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.ID)

	items := events.Items()
	require.Len(t, items, 3)
	assert.Equal(t, int64(3), items[0].ID)

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(h.api.body(http.MethodPost, "/blood-events/"), &sent))
	assert.Equal(t, "Campus drive", sent["title"])
	assert.EqualValues(t, 10, sent["units_needed"])
}

func TestCancelRequest(t *testing.T) {
	h := newHarness(t)
	h.login(t, donor)
	ctx := context.Background()

	h.api.handle(http.MethodGet, "/blood-requests/", jsonReply(http.StatusOK, []model.BloodRequest{
		{ID: 10, Requester: 7, Status: model.StatusPending},
		{ID: 11, Requester: 7, Status: model.StatusAccepted},
		{ID: 12, Requester: 3, Status: model.StatusPending},
	}))
	h.api.handle(http.MethodPost, "/blood-requests/10/cancel/", jsonReply(http.StatusOK, model.BloodRequest{
		ID: 10, Requester: 7, Status: model.StatusCancelled, Message: "no longer needed",
	}))
	h.api.handle(http.MethodPost, "/blood-requests/11/cancel/", jsonReply(http.StatusOK, map[string]string{"status": "cancelled"}))

	reqs := NewRequests(h.client, h.sess, nil)
	require.NoError(t, reqs.Load(ctx))

	require.NoError(t, reqs.Cancel(ctx, 10))
	require.NoError(t, reqs.Cancel(ctx, 11))

	err := reqs.Cancel(ctx, 12)
	requireViewError(t, err, MsgNotRequester)
	assert.Zero(t, h.api.count(http.MethodPost, "/blood-requests/12/cancel/"))

	byID := map[int64]model.BloodRequest{}
	for _, r := range reqs.Items() {
		byID[r.ID] = r
	}
	assert.Equal(t, model.StatusCancelled, byID[10].Status)
	assert.Equal(t, "no longer needed", byID[10].Message)
	assert.Equal(t, model.StatusCancelled, byID[11].Status)
	assert.Equal(t, model.StatusPending, byID[12].Status)

	err = reqs.Cancel(ctx, 10)
	requireViewError(t, err, MsgNotPending)
}

func TestDuplicateDonation(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   interface{}
	}{
		{"conflict", http.StatusConflict, map[string]string{"detail": "Duplicate."}},
		{"bad request", http.StatusBadRequest, map[string][]string{"non_field_errors": {"You have already donated to this request."}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.login(t, donor)
			h.api.handle(http.MethodPost, "/donations/", jsonReply(tc.status, tc.body))

			donations := NewDonations(h.client, h.sess, nil)
			reqID := int64(42)
			_, err := donations.Create(context.Background(), model.NewDonation{BloodRequest: &reqID, Units: 1})
			viewErr := requireViewError(t, err, MsgAlreadyDonated)
			assert.ErrorIs(t, viewErr, ErrAlreadyDonated)
			assert.Empty(t, donations.Items())
		})
	}
}

func TestDonationCreateAppends(t *testing.T) {
	h := newHarness(t)
	h.login(t, donor)
	ctx := context.Background()
	reqID := int64(42)

	h.api.handle(http.MethodGet, "/donations/", jsonReply(http.StatusOK, []model.Donation{{ID: 1, Donor: 7, Units: 1}}))
	h.api.handle(http.MethodPost, "/donations/", jsonReply(http.StatusCreated, model.Donation{ID: 2, Donor: 7, BloodRequest: &reqID, Units: 2}))

	donations := NewDonations(h.client, h.sess, nil)
	require.NoError(t, donations.Load(ctx))
	_, err := donations.Create(ctx, model.NewDonation{BloodRequest: &reqID, Units: 2})
	require.NoError(t, err)

	items := donations.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[1].ID)

	// a plain validation error keeps the server's message
	h.api.handle(http.MethodPost, "/donations/", jsonReply(http.StatusBadRequest, map[string][]string{"units": {"Ensure this value is greater than 0."}}))
	_, err = donations.Create(ctx, model.NewDonation{BloodRequest: &reqID})
	viewErr := requireViewError(t, err, "Ensure this value is greater than 0.")
	assert.False(t, errors.Is(viewErr, ErrAlreadyDonated))
}

func TestDonorFilterQuery(t *testing.T) {
	h := newHarness(t)
	h.api.handle(http.MethodGet, "/donor-list/", jsonReply(http.StatusOK, []model.Donor{{ID: 4, FullName: "Rafi", BloodType: "B+", IsAvailable: true}}))

	donors := NewDonors(h.client, nil)
	available := true
	require.NoError(t, donors.Load(context.Background(), DonorFilter{BloodType: "B+", Available: &available, Search: "raf"}))

	assert.Equal(t, "blood_type=B%2B&is_available=true&search=raf", h.api.query(http.MethodGet, "/donor-list/"))
	require.Len(t, donors.Items(), 1)

	require.NoError(t, donors.Load(context.Background(), DonorFilter{}))
	assert.Empty(t, h.api.query(http.MethodGet, "/donor-list/"))
}

func TestOverviewLoadsBoth(t *testing.T) {
	h := newHarness(t)
	h.login(t, donor)
	ctx := context.Background()

	h.api.handle(http.MethodGet, "/dashboard/", jsonReply(http.StatusOK, model.Dashboard{TotalDonated: 3}))
	h.api.handle(http.MethodGet, "/stats/public/", jsonReply(http.StatusOK, model.PublicStats{TotalDonors: 120, AvailableDonor: 80}))

	ov := NewOverview(h.client, h.sess, nil)
	require.NoError(t, ov.Load(ctx))
	require.NotNil(t, ov.Dashboard())
	assert.Equal(t, 3, ov.Dashboard().TotalDonated)
	assert.Equal(t, 80, ov.Stats().AvailableDonor)

	h.api.handle(http.MethodGet, "/dashboard/", jsonReply(http.StatusInternalServerError, map[string]string{}))
	err := ov.Load(ctx)
	requireViewError(t, err, apiclient.GenericMessage)
	// previous copies survive a failed load
	assert.Equal(t, 3, ov.Dashboard().TotalDonated)
}

func TestOverviewReturnsCopies(t *testing.T) {
	h := newHarness(t)
	h.login(t, donor)

	h.api.handle(http.MethodGet, "/dashboard/", jsonReply(http.StatusOK, model.Dashboard{
		MyEvents:     []model.BloodEvent{{ID: 5, AcceptedBy: []int64{7}}},
		TotalDonated: 2,
	}))
	h.api.handle(http.MethodGet, "/stats/public/", jsonReply(http.StatusOK, model.PublicStats{TotalDonors: 4}))

	ov := NewOverview(h.client, h.sess, nil)
	require.NoError(t, ov.Load(context.Background()))

	d := ov.Dashboard()
	d.TotalDonated = 99
	d.MyEvents[0].AcceptedBy[0] = 1
	d.MyEvents = nil
	ov.Stats().TotalDonors = 0

	fresh := ov.Dashboard()
	assert.Equal(t, 2, fresh.TotalDonated)
	require.Len(t, fresh.MyEvents, 1)
	assert.Equal(t, []int64{7}, fresh.MyEvents[0].AcceptedBy)
	assert.Equal(t, 4, ov.Stats().TotalDonors)
}

func TestOverviewStatsWithoutSession(t *testing.T) {
	h := newHarness(t)
	h.api.handle(http.MethodGet, "/stats/public/", jsonReply(http.StatusOK, model.PublicStats{TotalEvents: 9}))

	ov := NewOverview(h.client, h.sess, nil)
	require.NoError(t, ov.LoadStats(context.Background()))
	assert.Equal(t, 9, ov.Stats().TotalEvents)
	assert.Nil(t, ov.Dashboard())
}

func TestAdminRequiresStaff(t *testing.T) {
	h := newHarness(t)
	h.login(t, donor)

	err := NewAdmin(h.client, h.sess, nil).LoadUsers(context.Background())
	requireViewError(t, err, MsgStaffOnly)
	assert.Zero(t, h.api.count(http.MethodGet, "/admin/users/"))
}

func TestAdminToggleVerifyDelete(t *testing.T) {
	h := newHarness(t)
	h.login(t, staff)
	ctx := context.Background()

	h.api.handle(http.MethodGet, "/admin/users/", jsonReply(http.StatusOK, []model.User{staff, donor}))
	h.api.handle(http.MethodPatch, "/admin/users/7/", jsonReply(http.StatusOK, map[string]string{}))
	h.api.handle(http.MethodDelete, "/admin/users/7/", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h.api.handle(http.MethodGet, "/admin/donations/", jsonReply(http.StatusOK, []model.Donation{{ID: 30, Donor: 7, Units: 1}}))
	h.api.handle(http.MethodPatch, "/admin/donations/30/", jsonReply(http.StatusOK, model.Donation{ID: 30, Donor: 7, Units: 1, IsVerified: true, DonorEmail: "donor@roktofy.com"}))

	admin := NewAdmin(h.client, h.sess, nil)

	err := admin.ToggleActive(ctx, 7)
	requireViewError(t, err, MsgUnknownUser)

	require.NoError(t, admin.LoadUsers(ctx))
	require.NoError(t, admin.ToggleActive(ctx, 7))
	assert.JSONEq(t, `{"is_active":false}`, string(h.api.body(http.MethodPatch, "/admin/users/7/")))
	for _, u := range admin.Users() {
		if u.ID == 7 {
			assert.False(t, u.IsActive)
		}
	}

	require.NoError(t, admin.LoadDonations(ctx))
	require.NoError(t, admin.VerifyDonation(ctx, 30))
	assert.JSONEq(t, `{"is_verified":true}`, string(h.api.body(http.MethodPatch, "/admin/donations/30/")))
	donations := admin.Donations()
	require.Len(t, donations, 1)
	assert.True(t, donations[0].IsVerified)
	assert.Equal(t, "donor@roktofy.com", donations[0].DonorEmail)

	require.NoError(t, admin.DeleteUser(ctx, 7))
	assert.Len(t, admin.Users(), 1)
}

func TestAdminDeleteEvent(t *testing.T) {
	h := newHarness(t)
	h.login(t, staff)
	ctx := context.Background()

	h.api.handle(http.MethodGet, "/admin/blood-events/", jsonReply(http.StatusOK, []model.BloodEvent{{ID: 5}, {ID: 6}}))
	h.api.handle(http.MethodDelete, "/admin/blood-events/5/", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h.api.handle(http.MethodDelete, "/admin/blood-events/6/", jsonReply(http.StatusNotFound, map[string]string{"detail": "Not found."}))

	admin := NewAdmin(h.client, h.sess, nil)
	require.NoError(t, admin.LoadEvents(ctx))
	require.NoError(t, admin.DeleteEvent(ctx, 5))

	err := admin.DeleteEvent(ctx, 6)
	viewErr := requireViewError(t, err, "Not found.")
	assert.ErrorIs(t, viewErr, apiclient.ErrNotFound)
	assert.Len(t, admin.Events(), 1)
}

func TestPaymentsValidateAmount(t *testing.T) {
	h := newHarness(t)
	h.login(t, donor)
	ctx := context.Background()

	h.api.handle(http.MethodPost, "/payment/initiate/", jsonReply(http.StatusOK, model.PaymentSession{
		PaymentURL: "https://sandbox.example.test/pay/abc", TransactionID: "TXN-1",
	}))
	h.api.handle(http.MethodGet, "/payment/history/", jsonReply(http.StatusOK, []model.Payment{{ID: 1, TransactionID: "TXN-1", Amount: "500.00", Status: "pending"}}))

	payments := NewPayments(h.client, h.sess, nil)
	for _, bad := range []string{"", "abc", "0", "-5"} {
		_, err := payments.Initiate(ctx, bad)
		requireViewError(t, err, MsgInvalidAmount)
	}
	assert.Zero(t, h.api.count(http.MethodPost, "/payment/initiate/"))

	ps, err := payments.Initiate(ctx, "500")
	require.NoError(t, err)
	assert.Equal(t, "TXN-1", ps.TransactionID)
	assert.JSONEq(t, `{"amount":"500"}`, string(h.api.body(http.MethodPost, "/payment/initiate/")))

	require.NoError(t, payments.History(ctx))
	require.Len(t, payments.Items(), 1)
	assert.Equal(t, "500.00", payments.Items()[0].Amount)
}
