package mockapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roktofy/client/internal/apiclient"
	"github.com/roktofy/client/internal/auth"
	"github.com/roktofy/client/internal/config"
	"github.com/roktofy/client/internal/model"
	"github.com/roktofy/client/internal/session"
	"github.com/roktofy/client/internal/storage"
	"github.com/roktofy/client/internal/views"
)

type testServer struct {
	*httptest.Server
	api *Server
}

func newTestServer(t *testing.T, loginLimit int) *testServer {
	t.Helper()
	cfg := &config.MockConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		LoginRateLimit:  loginLimit,
	}
	store := NewStore()
	require.NoError(t, store.Seed())
	api := NewServer(cfg, store, nil)
	srv := httptest.NewServer(api.Router())
	t.Cleanup(func() {
		srv.Close()
		api.Close()
	})
	return &testServer{Server: srv, api: api}
}

func (ts *testServer) BaseURL() string { return ts.URL + APIPrefix }

// clientStack is one logged-in (or anonymous) client: its own token store,
// API client and session
type clientStack struct {
	tokens *auth.TokenStore
	client *apiclient.Client
	sess   *session.Manager
}

func (ts *testServer) newClient(t *testing.T) *clientStack {
	t.Helper()
	tokens := auth.NewTokenStore(storage.NewMemory(), nil)
	client, err := apiclient.New(ts.BaseURL(), tokens, apiclient.WithHTTPClient(ts.Client()))
	require.NoError(t, err)
	return &clientStack{tokens: tokens, client: client, sess: session.New(client, nil)}
}

func (ts *testServer) loginAs(t *testing.T, email, password string) *clientStack {
	t.Helper()
	c := ts.newClient(t)
	require.NoError(t, c.sess.Login(context.Background(), email, password))
	require.Equal(t, session.Authenticated, c.sess.Snapshot().Status)
	return c
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestMockAPIE2E(t *testing.T) {
	ts := newTestServer(t, 100)
	ctx := context.Background()

	t.Run("A_Health", func(t *testing.T) {
		resp, err := ts.Client().Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]bool
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body["ok"])
	})

	t.Run("B_RegisterActivateLogin", func(t *testing.T) {
		c := ts.newClient(t)
		reg := model.Registration{
			Email: "new.donor@example.com", FirstName: "Nadia", LastName: "Islam",
			UserType: model.UserTypeDonor, BloodType: "AB+", Password: "secret123", RePassword: "secret123",
		}
		msg, err := c.sess.Register(ctx, reg)
		require.NoError(t, err)
		assert.Equal(t, session.MsgRegistered, msg)

		_, err = c.sess.Register(ctx, reg)
		require.Error(t, err)
		assert.Equal(t, "user with this email already exists.", err.Error())

		// not active yet
		err = c.sess.Login(ctx, reg.Email, reg.Password)
		require.Error(t, err)
		assert.Equal(t, "No active account found with the given credentials", err.Error())
		assert.Equal(t, session.Anonymous, c.sess.Snapshot().Status)

		mail, ok := ts.api.Store().LastMail(reg.Email, MailActivation)
		require.True(t, ok)
		msg, err = c.sess.Activate(ctx, mail.UID, mail.Token)
		require.NoError(t, err)
		assert.Equal(t, session.MsgActivated, msg)

		require.NoError(t, c.sess.Login(ctx, reg.Email, reg.Password))
		user := c.sess.User()
		require.NotNil(t, user)
		assert.Equal(t, "Nadia Islam", user.FullName())
		assert.Equal(t, "AB+", user.Profile.BloodType)

		creds, err := c.tokens.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, creds)
		claims, err := auth.Inspect(creds.Access)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
	})

	t.Run("C_ProfileMirror", func(t *testing.T) {
		c := ts.loginAs(t, DemoEmail, DemoPassword)

		addr := "Khulna"
		require.NoError(t, c.sess.UpdateProfile(ctx, model.ProfileUpdate{Address: &addr}))
		assert.Equal(t, "Khulna", c.sess.User().Profile.Address)

		age := 12
		err := c.sess.UpdateProfile(ctx, model.ProfileUpdate{Age: &age})
		require.Error(t, err)
		assert.Equal(t, "Donors must be between 18 and 65 years old.", err.Error())
		assert.Equal(t, "Khulna", c.sess.User().Profile.Address)

		err = c.sess.ChangePassword(ctx, model.PasswordChange{CurrentPassword: "wrong", NewPassword: "whatever1"})
		require.Error(t, err)
		assert.Equal(t, "Invalid password.", err.Error())
	})

	t.Run("D_AcceptRequestKeepsStatus", func(t *testing.T) {
		recipient := ts.loginAs(t, RecipientEmail, RecipientPassword)
		donor := ts.loginAs(t, DemoEmail, DemoPassword)

		recipientReqs := views.NewRequests(recipient.client, recipient.sess, nil)
		created, err := recipientReqs.Create(ctx, model.NewBloodRequest{BloodType: "O+", UnitsNeeded: 1, Hospital: "Dhaka Medical"})
		require.NoError(t, err)
		assert.Equal(t, created.ID, recipientReqs.Items()[0].ID)

		reqs := views.NewRequests(donor.client, donor.sess, nil)
		require.NoError(t, reqs.Load(ctx))
		require.NoError(t, reqs.Accept(ctx, created.ID))

		var local model.BloodRequest
		for _, r := range reqs.Items() {
			if r.ID == created.ID {
				local = r
			}
		}
		assert.Equal(t, model.StatusPending, local.Status, "status stays as last fetched")
		assert.Equal(t, []int64{donor.sess.User().ID}, local.AcceptedBy)

		require.NoError(t, reqs.Load(ctx))
		for _, r := range reqs.Items() {
			if r.ID == created.ID {
				assert.Equal(t, model.StatusAccepted, r.Status, "server moved it on")
			}
		}

		require.NoError(t, recipientReqs.Cancel(ctx, created.ID))
		assert.Equal(t, model.StatusCancelled, recipientReqs.Items()[0].Status)
	})

	t.Run("E_EventsAndDuplicateDonation", func(t *testing.T) {
		donor := ts.loginAs(t, DemoEmail, DemoPassword)

		events := views.NewEvents(donor.client, donor.sess, nil)
		require.NoError(t, events.Load(ctx))
		require.NotEmpty(t, events.Items())
		ev := events.Items()[len(events.Items())-1]

		require.NoError(t, events.Accept(ctx, ev.ID))
		err := events.Accept(ctx, ev.ID)
		require.Error(t, err)
		assert.Equal(t, views.MsgAlreadyAccepted, err.Error())

		donations := views.NewDonations(donor.client, donor.sess, nil)
		_, err = donations.Create(ctx, model.NewDonation{BloodEvent: &ev.ID, Units: 1})
		require.NoError(t, err)
		_, err = donations.Create(ctx, model.NewDonation{BloodEvent: &ev.ID, Units: 1})
		require.Error(t, err)
		assert.Equal(t, views.MsgAlreadyDonated, err.Error())
		assert.ErrorIs(t, err, views.ErrAlreadyDonated)
		assert.Len(t, donations.Items(), 1)

		ov := views.NewOverview(donor.client, donor.sess, nil)
		require.NoError(t, ov.Load(ctx))
		assert.GreaterOrEqual(t, ov.Dashboard().TotalDonated, 1)
		assert.GreaterOrEqual(t, ov.Stats().TotalDonations, 1)
	})

	t.Run("F_DonorList", func(t *testing.T) {
		anon := ts.newClient(t)
		donors := views.NewDonors(anon.client, nil)
		require.NoError(t, donors.Load(ctx, views.DonorFilter{BloodType: "O+"}))
		require.NotEmpty(t, donors.Items())
		for _, d := range donors.Items() {
			assert.Equal(t, "O+", d.BloodType)
		}
	})

	t.Run("G_AdminDeactivationExpiresSession", func(t *testing.T) {
		admin := ts.loginAs(t, AdminEmail, AdminPassword)
		donor := ts.loginAs(t, DemoEmail, DemoPassword)
		donorID := donor.sess.User().ID

		denied := views.NewAdmin(donor.client, donor.sess, nil)
		err := denied.LoadUsers(ctx)
		require.Error(t, err)
		assert.Equal(t, views.MsgStaffOnly, err.Error())

		panel := views.NewAdmin(admin.client, admin.sess, nil)
		require.NoError(t, panel.LoadUsers(ctx))
		require.NoError(t, panel.ToggleActive(ctx, donorID))

		err = donor.sess.FetchProfile(ctx)
		require.Error(t, err)
		assert.Equal(t, session.Anonymous, donor.sess.Snapshot().Status)
		creds, err := donor.tokens.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, creds, "rejected credential is cleared")

		require.NoError(t, panel.ToggleActive(ctx, donorID))
		for _, u := range panel.Users() {
			if u.ID == donorID {
				assert.True(t, u.IsActive)
			}
		}

		require.NoError(t, panel.LoadDonations(ctx))
		require.NotEmpty(t, panel.Donations())
		target := panel.Donations()[0].ID
		require.NoError(t, panel.VerifyDonation(ctx, target))
		for _, d := range panel.Donations() {
			if d.ID == target {
				assert.True(t, d.IsVerified)
			}
		}

		require.NoError(t, panel.LoadEvents(ctx))
		before := len(panel.Events())
		require.NoError(t, panel.DeleteEvent(ctx, panel.Events()[0].ID))
		assert.Len(t, panel.Events(), before-1)
	})

	t.Run("H_Payments", func(t *testing.T) {
		donor := ts.loginAs(t, DemoEmail, DemoPassword)
		payments := views.NewPayments(donor.client, donor.sess, nil)

		ps, err := payments.Initiate(ctx, "100")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(ps.PaymentURL, ts.BaseURL()+"/payment/gateway/"), ps.PaymentURL)

		resp, err := ts.Client().Get(ps.PaymentURL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		require.NoError(t, payments.History(ctx))
		require.Len(t, payments.Items(), 1)
		assert.Equal(t, PaymentSuccess, payments.Items()[0].Status)
		assert.Equal(t, "100.00", payments.Items()[0].Amount)
	})

	t.Run("I_Metrics", func(t *testing.T) {
		resp, err := ts.Client().Get(ts.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		body := readBody(t, resp)
		assert.Contains(t, body, "roktofy_mock_http_requests_total")
		assert.Contains(t, body, `route="/api/v1/auth/jwt/create/"`)
	})
}

func TestAuthErrors(t *testing.T) {
	ts := newTestServer(t, 100)
	client := ts.Client()

	t.Run("MissingHeader", func(t *testing.T) {
		resp, err := client.Get(ts.BaseURL() + "/auth/users/me")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.JSONEq(t, `{"detail":"Authentication credentials were not provided."}`, readBody(t, resp))
	})

	t.Run("WrongScheme", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, ts.BaseURL()+"/auth/users/me", nil)
		req.Header.Set("Authorization", "Token abc")
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("BearerAccepted", func(t *testing.T) {
		access, _, err := ts.api.jwt.SignPair(1)
		require.NoError(t, err)
		req, _ := http.NewRequest(http.MethodGet, ts.BaseURL()+"/auth/users/me/", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("RefreshTokenRejected", func(t *testing.T) {
		_, refresh, err := ts.api.jwt.SignPair(1)
		require.NoError(t, err)
		req, _ := http.NewRequest(http.MethodGet, ts.BaseURL()+"/dashboard/", nil)
		req.Header.Set("Authorization", "JWT "+refresh)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("FieldErrors", func(t *testing.T) {
		resp, err := client.Post(ts.BaseURL()+"/auth/jwt/create/", "application/json", bytes.NewReader([]byte(`{}`)))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{"email":["This field is required."],"password":["This field is required."]}`, readBody(t, resp))
	})
}

func TestLoginRateLimit(t *testing.T) {
	ts := newTestServer(t, 2)
	c := ts.newClient(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := c.sess.Login(ctx, DemoEmail, "wrong-password")
		require.Error(t, err)
		assert.Equal(t, "No active account found with the given credentials", err.Error())
	}

	err := c.sess.Login(ctx, DemoEmail, DemoPassword)
	require.Error(t, err)
	assert.Equal(t, "Request was throttled.", err.Error())
}

func TestFailedReloginKeepsCredential(t *testing.T) {
	ts := newTestServer(t, 100)
	c := ts.loginAs(t, DemoEmail, DemoPassword)
	ctx := context.Background()

	err := c.sess.Login(ctx, DemoEmail, "wrong-password")
	require.Error(t, err)
	assert.Equal(t, "No active account found with the given credentials", err.Error())

	creds, err := c.tokens.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, session.Authenticated, c.sess.Snapshot().Status)
	require.NoError(t, c.sess.FetchProfile(ctx))
	assert.Equal(t, DemoEmail, c.sess.User().Email)
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 2)
	defer rl.Stop()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("ip:1"))
	assert.True(t, rl.Allow("ip:1"))
	assert.False(t, rl.Allow("ip:1"))
	assert.True(t, rl.Allow("ip:2"), "keys are independent")

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("ip:1"))
}
