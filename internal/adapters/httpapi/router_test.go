package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ogurasousui/referral-platform/internal/adapters/auth"
	"github.com/ogurasousui/referral-platform/internal/core/access"
	"github.com/ogurasousui/referral-platform/internal/core/deck"
	"github.com/ogurasousui/referral-platform/internal/core/response"
	"github.com/ogurasousui/referral-platform/internal/core/subscription"
	"github.com/ogurasousui/referral-platform/internal/core/user"
	"github.com/ogurasousui/referral-platform/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	callers map[string]*access.Caller
}

func (s stubResolver) Resolve(_ context.Context, header string) (*access.Caller, error) {
	if header == "" {
		return nil, nil
	}
	token, ok := auth.BearerToken(header)
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	caller, ok := s.callers[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return caller, nil
}

type stubTokens struct{}

func (stubTokens) Issue(userID string) (string, time.Time, error) {
	return "token-" + userID, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

type stubUsers struct {
	user.UseCase
	users     map[string]*user.User
	listInput user.ListUsersInput
}

func (s *stubUsers) CreateUser(_ context.Context, in user.CreateUserInput) (*user.User, error) {
	role, err := access.ParseRole(in.Role)
	if err != nil {
		return nil, user.ErrInvalidRole
	}
	u := &user.User{ID: "new-user", Email: in.Email, Name: in.Name, Role: role, Status: user.StatusActive}
	s.users[u.ID] = u
	return u, nil
}

func (s *stubUsers) GetUser(_ context.Context, in user.GetUserInput) (*user.User, error) {
	u, ok := s.users[in.ID]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (s *stubUsers) UpdateUser(_ context.Context, in user.UpdateUserInput) (*user.User, error) {
	u, ok := s.users[in.ID]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	if in.Role != nil {
		role, err := access.ParseRole(*in.Role)
		if err != nil {
			return nil, user.ErrInvalidRole
		}
		u.Role = role
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	return u, nil
}

func (s *stubUsers) DeleteUser(_ context.Context, in user.DeleteUserInput) error {
	if _, ok := s.users[in.ID]; !ok {
		return user.ErrUserNotFound
	}
	delete(s.users, in.ID)
	return nil
}

func (s *stubUsers) ListUsers(_ context.Context, in user.ListUsersInput) (*user.ListUsersResult, error) {
	s.listInput = in
	var out []*user.User
	for _, id := range []string{"u-ref", "u-trial"} {
		u, ok := s.users[id]
		if !ok {
			continue
		}
		if in.Role != nil && string(u.Role) != *in.Role {
			continue
		}
		out = append(out, u)
	}
	return &user.ListUsersResult{Users: out, NextPageToken: "next"}, nil
}

type stubSubscriptions struct {
	subscription.UseCase
	tracks map[string]*subscription.Tracks
}

func (s *stubSubscriptions) GetTracks(_ context.Context, in subscription.GetTracksInput) (*subscription.Tracks, error) {
	t, ok := s.tracks[in.UserID]
	if !ok {
		return nil, subscription.ErrAccountNotFound
	}
	return t, nil
}

func (s *stubSubscriptions) ListPlans(_ context.Context, in subscription.ListPlansInput) ([]*subscription.Plan, error) {
	if in.Role != "" && in.Role != "candidate" && in.Role != "referrer" {
		return nil, subscription.ErrInvalidRole
	}
	return []*subscription.Plan{{ID: "plan-1", Role: access.RoleCandidate, Name: "Candidate Monthly", Interval: subscription.IntervalMonthly, PriceCents: 1900, Currency: "USD"}}, nil
}

type stubDecks struct {
	deck.UseCase
	decks map[string]*deck.Deck
}

func (s *stubDecks) CreateDeck(_ context.Context, in deck.CreateDeckInput) (*deck.Deck, error) {
	if in.OwnerRole != access.RoleCandidate {
		return nil, deck.ErrNotCandidate
	}
	d := &deck.Deck{ID: "deck-new", OwnerID: in.OwnerID, Title: in.Title, Summary: in.Summary, Status: deck.StatusDraft}
	s.decks[d.ID] = d
	return d, nil
}

func (s *stubDecks) GetDeck(_ context.Context, in deck.GetDeckInput) (*deck.Deck, error) {
	d, ok := s.decks[in.ID]
	if !ok {
		return nil, deck.ErrDeckNotFound
	}
	return d, nil
}

func (s *stubDecks) PublishDeck(_ context.Context, in deck.PublishDeckInput) (*deck.Deck, error) {
	d, ok := s.decks[in.ID]
	if !ok {
		return nil, deck.ErrDeckNotFound
	}
	if d.OwnerID != in.ActorID {
		return nil, deck.ErrNotOwner
	}
	if d.Status == deck.StatusPublished {
		return nil, deck.ErrAlreadyPublished
	}
	d.Status = deck.StatusPublished
	return d, nil
}

func (s *stubDecks) DeleteDeck(_ context.Context, in deck.DeleteDeckInput) error {
	d, ok := s.decks[in.ID]
	if !ok {
		return deck.ErrDeckNotFound
	}
	if d.OwnerID != in.ActorID {
		return deck.ErrNotOwner
	}
	delete(s.decks, in.ID)
	return nil
}

type stubResponses struct {
	response.UseCase
	responses map[string]*response.Response
}

func (s *stubResponses) ReviewResponse(_ context.Context, in response.ReviewResponseInput) (*response.Response, error) {
	if in.Decision != response.StatusAccepted && in.Decision != response.StatusRejected {
		return nil, response.ErrInvalidDecision
	}
	resp, ok := s.responses[in.ID]
	if !ok {
		return nil, response.ErrResponseNotFound
	}
	if resp.ReferrerID != in.ReviewerID {
		return nil, response.ErrNotRecipient
	}
	if resp.Status != response.StatusSubmitted {
		return nil, response.ErrAlreadyReviewed
	}
	resp.Status = in.Decision
	return resp, nil
}

func (*stubResponses) ListResponses(_ context.Context, in response.ListResponsesInput) (*response.ListResponsesResult, error) {
	return &response.ListResponsesResult{Responses: []*response.Response{{ID: "resp-1", ReferrerID: in.ActorID, CandidateID: "cand", Status: response.StatusSubmitted}}}, nil
}

const (
	tokenNoRole        = "no-role"
	tokenFreeCandidate = "free-candidate"
	tokenTrialCand     = "trial-candidate"
	tokenActiveRef     = "active-referrer"
	tokenDormantRef    = "dormant-referrer"
)

type fixture struct {
	handler   http.Handler
	registry  *prometheus.Registry
	users     *stubUsers
	decks     *stubDecks
	responses *stubResponses
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	callers := map[string]*access.Caller{
		tokenNoRole:        {UserID: "u-admin", Role: access.Role("admin"), ReferrerSubscriptionStatus: "active", CandidateSubscriptionStatus: "active"},
		tokenFreeCandidate: {UserID: "u-free", Role: access.RoleCandidate, ReferrerSubscriptionStatus: "active", CandidateSubscriptionStatus: "free"},
		tokenTrialCand:     {UserID: "u-trial", Role: access.RoleCandidate, ReferrerSubscriptionStatus: "free", CandidateSubscriptionStatus: "trialing"},
		tokenActiveRef:     {UserID: "u-ref", Role: access.RoleReferrer, ReferrerSubscriptionStatus: "active", CandidateSubscriptionStatus: "free"},
		tokenDormantRef:    {UserID: "u-dormant", Role: access.RoleReferrer, ReferrerSubscriptionStatus: "canceled", CandidateSubscriptionStatus: "active"},
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	decks := &stubDecks{decks: map[string]*deck.Deck{
		"deck-pub":   {ID: "deck-pub", OwnerID: "u-other", Title: "Published", Status: deck.StatusPublished},
		"deck-draft": {ID: "deck-draft", OwnerID: "u-trial", Title: "Draft", Status: deck.StatusDraft},
	}}

	users := &stubUsers{users: map[string]*user.User{
		"u-trial": {
			ID: "u-trial", Email: "trial@example.com", Name: "Trial", Role: access.RoleCandidate, Status: user.StatusActive,
			Subscriptions: subscription.Tracks{Referrer: subscription.FreeTrack(), Candidate: subscription.Track{Status: subscription.StatusTrialing}},
		},
		"u-ref": {ID: "u-ref", Email: "ref@example.com", Name: "Referrer", Role: access.RoleReferrer, Status: user.StatusActive},
	}}
	responses := &stubResponses{responses: map[string]*response.Response{
		"resp-open":     {ID: "resp-open", ReferrerID: "u-ref", CandidateID: "u-trial", Answer: "a", Status: response.StatusSubmitted},
		"resp-reviewed": {ID: "resp-reviewed", ReferrerID: "u-ref", CandidateID: "u-trial", Answer: "b", Status: response.StatusRejected},
		"resp-other":    {ID: "resp-other", ReferrerID: "u-dormant", CandidateID: "u-trial", Answer: "c", Status: response.StatusSubmitted},
	}}

	handler := NewRouter(Dependencies{
		Users: users,
		Subscriptions: &stubSubscriptions{tracks: map[string]*subscription.Tracks{
			"u-trial": {Referrer: subscription.FreeTrack(), Candidate: subscription.Track{Status: subscription.StatusTrialing}},
		}},
		Decks:     decks,
		Responses: responses,
		Resolver:  stubResolver{callers: callers},
		Tokens:    stubTokens{},
		Gate:      access.NewEvaluator(DefaultPolicy(), access.WithRecorder(m)),
		Metrics:   m,
		Gatherer:  registry,
		Logger:    zerolog.Nop(),
	})

	return &fixture{handler: handler, registry: registry, users: users, decks: decks, responses: responses}
}

func (f *fixture) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_ProtectedWithoutCallerIsForbidden(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/v1/decks", "", `{"title":"x"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden", decodeError(t, rec))
}

func TestRouter_InvalidTokenIsUnauthorized(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/decks", "unknown-token", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_InsufficientSubscriptionCarriesMessage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/v1/decks", tokenFreeCandidate, `{"title":"x"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "this operation requires a candidate subscription that is active or trialing", decodeError(t, rec))
}

func TestRouter_GroupRequirementAllowsTrialing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/v1/decks", tokenTrialCand, `{"title":"My deck"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var created deckView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "u-trial", created.OwnerID)
}

func TestRouter_OperationOverrideUnrestricted(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/decks/deck-pub", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/decks/deck-draft", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/decks/deck-draft", tokenTrialCand, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_OperationOverrideNarrowsGroup(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/responses", tokenTrialCand, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "this operation requires a candidate subscription that is active", decodeError(t, rec))

	rec = f.do(t, http.MethodGet, "/v1/responses", tokenActiveRef, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_DormantTrackIsIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/responses", tokenDormantRef, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "this operation requires a referrer subscription that is active", decodeError(t, rec))
}

func TestRouter_UnrecognizedRole(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/decks", tokenNoRole, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, `role "admin" is not permitted to access this operation`, decodeError(t, rec))
}

func TestRouter_MeRequiresCaller(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/me", tokenTrialCand, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var me userView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "trial@example.com", me.Email)

	rec = f.do(t, http.MethodGet, "/v1/me/subscription", tokenTrialCand, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sub subscriptionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	assert.Equal(t, "trialing", sub.Current.Status)
	assert.Equal(t, "free", sub.Referrer.Status)
}

func TestRouter_RegisterUserIssuesToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/users", "", `{"email":"a@example.com","name":"A","role":"referrer"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var body registerUserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "token-new-user", body.Token)
	assert.Equal(t, "referrer", body.User.Role)

	rec = f.do(t, http.MethodPost, "/v1/users", "", `{"email":"a@example.com","name":"A","role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_PlansAreUnrestricted(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/plans?role=candidate", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/plans?role=admin", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_MetricsExposeDecisions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.do(t, http.MethodPost, "/v1/decks", tokenFreeCandidate, `{"title":"x"}`)

	rec := f.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `referral_access_decisions_total{operation="decks.create",outcome="insufficient_subscription"} 1`)
}

func TestRouter_ReferrerCannotCreateDeck(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/v1/decks", tokenActiveRef, `{"title":"Not mine to make"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, deck.ErrNotCandidate.Error(), decodeError(t, rec))
	assert.NotContains(t, f.decks.decks, "deck-new")
}

func TestRouter_PublishAndDeleteDeck(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/decks/deck-pub/publish", tokenTrialCand, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, deck.ErrNotOwner.Error(), decodeError(t, rec))

	rec = f.do(t, http.MethodPost, "/v1/decks/deck-draft/publish", tokenTrialCand, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var published deckView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &published))
	assert.Equal(t, "published", published.Status)

	rec = f.do(t, http.MethodPost, "/v1/decks/deck-draft/publish", tokenTrialCand, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/decks/deck-missing/publish", tokenTrialCand, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/v1/decks/deck-pub", tokenTrialCand, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodDelete, "/v1/decks/deck-draft", tokenTrialCand, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotContains(t, f.decks.decks, "deck-draft")

	rec = f.do(t, http.MethodDelete, "/v1/decks/deck-pub", tokenFreeCandidate, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "this operation requires a candidate subscription that is active or trialing", decodeError(t, rec))
}

func TestRouter_ReviewResponse(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/responses/resp-other/review", tokenActiveRef, `{"decision":"accepted"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, response.ErrNotRecipient.Error(), decodeError(t, rec))

	rec = f.do(t, http.MethodPost, "/v1/responses/resp-reviewed/review", tokenActiveRef, `{"decision":"accepted"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/responses/resp-missing/review", tokenActiveRef, `{"decision":"accepted"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/responses/resp-open/review", tokenActiveRef, `{"decision":"submitted"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/responses/resp-open/review", tokenActiveRef, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/responses/resp-open/review", tokenActiveRef, `{"decision":"accepted"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var reviewed responseView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reviewed))
	assert.Equal(t, "accepted", reviewed.Status)
}

func TestRouter_UpdateMeSwitchesRole(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/me", tokenTrialCand, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var before userView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &before))
	assert.Equal(t, "trialing", before.SubscriptionStatus)

	rec = f.do(t, http.MethodPatch, "/v1/me", tokenTrialCand, `{"role":"referrer","name":"Renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var after userView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	assert.Equal(t, "referrer", after.Role)
	assert.Equal(t, "Renamed", after.Name)
	assert.Equal(t, "free", after.SubscriptionStatus)

	rec = f.do(t, http.MethodPatch, "/v1/me", tokenTrialCand, `{"role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPatch, "/v1/me", "", `{"name":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_MySubscriptionUnknownAccount(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/me/subscription", tokenActiveRef, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/me/subscription", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_DeleteMe(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.do(t, http.MethodDelete, "/v1/me", tokenTrialCand, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotContains(t, f.users.users, "u-trial")

	rec = f.do(t, http.MethodDelete, "/v1/me", tokenTrialCand, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/v1/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ListReferrers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/referrers?page_size=5", tokenTrialCand, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page pageView[referrerView]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, referrerView{ID: "u-ref", Name: "Referrer"}, page.Items[0])
	assert.Equal(t, "next", page.NextPageToken)
	assert.NotContains(t, rec.Body.String(), "ref@example.com")

	require.NotNil(t, f.users.listInput.Role)
	assert.Equal(t, "referrer", *f.users.listInput.Role)
	require.NotNil(t, f.users.listInput.Status)
	assert.Equal(t, user.StatusActive, *f.users.listInput.Status)
	assert.Equal(t, 5, f.users.listInput.PageSize)

	rec = f.do(t, http.MethodGet, "/v1/referrers", tokenFreeCandidate, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/referrers?page_size=abc", tokenTrialCand, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
