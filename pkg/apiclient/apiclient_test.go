package apiclient_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomorewaste/cmd/config"
	"nomorewaste/domain"
	"nomorewaste/entities"
	"nomorewaste/internal/testdb"
	"nomorewaste/pkg/apiclient"
	"nomorewaste/pkg/fridge"
	"nomorewaste/pkg/jwt"
	"nomorewaste/pkg/realtime"
	"nomorewaste/pkg/receipt"
)

type cannedModel struct{}

func (cannedModel) Extract(ctx context.Context, image []byte, today time.Time) ([]byte, error) {
	return []byte(`[{"name":"Eggs","price":"$4.10","quantity":2,"category":"dairy","expiry":"2025-02-01"}]`), nil
}

func (cannedModel) GenerateContent(ctx context.Context, parts []map[string]interface{}, cfg map[string]interface{}) (string, error) {
	return "Scrambled eggs", nil
}

type stack struct {
	api  *httptest.Server
	feed *httptest.Server
	hub  *realtime.Hub
	jwt  jwt.JWTService
}

func newStack(t *testing.T) *stack {
	t.Helper()
	jwtService := jwt.NewJWTServiceWithSecret("client-secret")
	srv, err := config.NewApp(testdb.Open(t),
		config.WithJWTService(jwtService),
		config.WithModel(cannedModel{}),
		config.WithStorage(nil),
		config.WithMailer(nil),
		config.WithAccessLog(io.Discard),
		config.WithRateLimit(0),
		config.WithGatewayOptions(realtime.WithHeartbeat(time.Second, 2*time.Second)),
	)
	require.NoError(t, err)

	s := &stack{
		api:  httptest.NewServer(adaptor.FiberApp(srv.App)),
		feed: httptest.NewServer(srv.Gateway),
		hub:  srv.Hub,
		jwt:  jwtService,
	}
	t.Cleanup(s.api.Close)
	t.Cleanup(s.feed.Close)
	return s
}

func (s *stack) member(t *testing.T, userID string) (*apiclient.Client, *apiclient.Feed) {
	t.Helper()
	tok, err := s.jwt.GenerateToken(userID, userID+"@example.com", time.Hour)
	require.NoError(t, err)
	return apiclient.New(s.api.URL, tok, nil), apiclient.NewFeed(s.feed.URL, tok, nil)
}

func TestAPIError_UnwrapsDomainErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":false,"message":"failed to mark item as wasted","error":"amount must be between 1 and the remaining quantity"}`))
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, "tok", nil)
	_, err := c.Split(context.Background(), "i1", "wasted", 9)
	require.ErrorIs(t, err, domain.ErrAmountOutOfRange)

	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "failed to mark item as wasted", apiErr.Message)
}

func TestClient_HouseholdLifecycle(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	ana, _ := s.member(t, "ana")
	ben, _ := s.member(t, "ben")

	_, err := ana.MyHousehold(ctx)
	require.True(t, apiclient.IsNotAMember(err))

	created, err := ana.CreateHousehold(ctx, "Flat 4B")
	require.NoError(t, err)

	code, err := ana.GenerateInviteCode(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, created.InviteCode, code.InviteCode)

	_, err = ben.JoinHousehold(ctx, created.InviteCode)
	require.ErrorIs(t, err, domain.ErrInviteCodeNotFound)

	joined, err := ben.JoinHousehold(ctx, code.InviteCode)
	require.NoError(t, err)
	assert.Len(t, joined.Members, 2)

	_, err = ben.JoinHousehold(ctx, code.InviteCode)
	require.ErrorIs(t, err, domain.ErrAlreadyInHousehold)

	require.NoError(t, ben.LeaveHousehold(ctx))
	require.NoError(t, ana.DeleteHousehold(ctx))
	_, err = ana.Fetch(ctx)
	require.ErrorIs(t, err, domain.ErrNotAMember)
}

func TestSessions_SeeEachOthersWrites(t *testing.T) {
	s := newStack(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	anaAPI, anaFeed := s.member(t, "ana")
	benAPI, benFeed := s.member(t, "ben")
	household, err := anaAPI.CreateHousehold(ctx, "Flat 4B")
	require.NoError(t, err)
	_, err = benAPI.JoinHousehold(ctx, household.InviteCode)
	require.NoError(t, err)

	var notices []fridge.Notice
	ana := fridge.NewSession(anaAPI, fridge.WithActor("ana@example.com", household.ID),
		fridge.WithNotifier(fridge.NotifierFunc(func(n fridge.Notice) { notices = append(notices, n) })))
	ben := fridge.NewSession(benAPI, fridge.WithActor("ben@example.com", household.ID))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() { _ = ana.Run(runCtx, anaFeed) }()
	go func() { _ = ben.Run(runCtx, benFeed) }()
	require.Eventually(t, func() bool {
		return s.hub.GetOrCreateChannel(household.ID).Len() == 2
	}, 5*time.Second, 10*time.Millisecond)

	op, err := ana.AddItems(ctx, []domain.NewItemRequest{{Name: "Milk", Price: 2, Quantity: 3, Category: "Dairy"}})
	require.NoError(t, err)
	require.NoError(t, op.Wait(ctx))

	var milk entities.Item
	require.Eventually(t, func() bool {
		snap := ben.Snapshot()
		if len(snap.Items) != 1 {
			return false
		}
		milk = snap.Items[0]
		return milk.Name == "Milk"
	}, 5*time.Second, 10*time.Millisecond)
	assert.False(t, ben.Snapshot().IsUnconfirmed(milk.ID))

	two := 2
	op, err = ben.Consume(ctx, milk.ID, &two)
	require.NoError(t, err)
	require.NoError(t, op.Wait(ctx))

	require.Eventually(t, func() bool {
		snap := ana.Snapshot()
		item, ok := snap.Item(milk.ID)
		return ok && item.Quantity == 1 && len(snap.Consumed) == 1
	}, 5*time.Second, 10*time.Millisecond)

	// only one unit is left locally, so this never reaches the server
	op, err = ana.Waste(ctx, milk.ID, &two)
	require.ErrorIs(t, err, domain.ErrAmountOutOfRange)
	assert.Nil(t, op)

	ana.Wait()
	assert.Empty(t, notices)
}

func TestRemoteExtractor_FeedsThePipeline(t *testing.T) {
	s := newStack(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	api, _ := s.member(t, "ana")
	household, err := api.CreateHousehold(ctx, "Flat 4B")
	require.NoError(t, err)
	session := fridge.NewSession(api, fridge.WithActor("ana@example.com", household.ID))
	require.NoError(t, session.Reconcile(ctx))

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 32))))

	p := receipt.NewPipeline(api.Extractor(), session)
	drafts, err := p.Submit(ctx, buf.Bytes())
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Eggs", drafts[0].Name)
	assert.Equal(t, 4.1, drafts[0].Price)
	assert.Equal(t, "Dairy", drafts[0].Category)
	require.NotNil(t, drafts[0].Expiry)
	assert.Equal(t, "2025-02-01", drafts[0].Expiry.String())

	require.NoError(t, p.Commit(ctx))
	assert.Equal(t, receipt.StateIdle, p.State())
	session.Wait()

	snap := session.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Eggs", snap.Items[0].Name)
	assert.Equal(t, 2, snap.Items[0].Quantity)
	assert.Empty(t, snap.Unconfirmed)
}

func TestClient_Me(t *testing.T) {
	s := newStack(t)
	api, _ := s.member(t, "ana")
	userID, email, err := api.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ana", userID)
	assert.Equal(t, "ana@example.com", email)
}
