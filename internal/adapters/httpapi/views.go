package httpapi

import (
	"time"

	"github.com/ogurasousui/referral-platform/internal/core/deck"
	"github.com/ogurasousui/referral-platform/internal/core/response"
	"github.com/ogurasousui/referral-platform/internal/core/subscription"
	"github.com/ogurasousui/referral-platform/internal/core/user"
)

type userView struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	Role               string    `json:"role"`
	Status             string    `json:"status"`
	SubscriptionStatus string    `json:"subscription_status,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toUserView(u *user.User, now time.Time) userView {
	view := userView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if track, ok := u.ActiveTrack(now); ok {
		view.SubscriptionStatus = string(track.Status)
	}
	return view
}

// referrerView は候補者に公開する紹介者の情報です。連絡先は含めません。
type referrerView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type trackView struct {
	Status          string     `json:"status"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	NextBillingDate *time.Time `json:"next_billing_date,omitempty"`
	Interval        string     `json:"interval,omitempty"`
}

func toTrackView(t subscription.Track) trackView {
	return trackView{
		Status:          string(t.Status),
		StartDate:       t.StartDate,
		EndDate:         t.EndDate,
		NextBillingDate: t.NextBillingDate,
		Interval:        string(t.Interval),
	}
}

type subscriptionView struct {
	Role      string    `json:"role"`
	Current   trackView `json:"current"`
	Referrer  trackView `json:"referrer"`
	Candidate trackView `json:"candidate"`
}

type planView struct {
	ID         string `json:"id"`
	Role       string `json:"role"`
	Name       string `json:"name"`
	Interval   string `json:"interval"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
}

func toPlanView(p *subscription.Plan) planView {
	return planView{
		ID:         p.ID,
		Role:       string(p.Role),
		Name:       p.Name,
		Interval:   string(p.Interval),
		PriceCents: p.PriceCents,
		Currency:   p.Currency,
	}
}

type deckView struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Summary   *string   `json:"summary,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toDeckView(d *deck.Deck) deckView {
	return deckView{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		Title:     d.Title,
		Summary:   d.Summary,
		Status:    string(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type responseView struct {
	ID          string     `json:"id"`
	ReferrerID  string     `json:"referrer_id"`
	CandidateID string     `json:"candidate_id"`
	Answer      string     `json:"answer"`
	Status      string     `json:"status"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toResponseView(r *response.Response) responseView {
	return responseView{
		ID:          r.ID,
		ReferrerID:  r.ReferrerID,
		CandidateID: r.CandidateID,
		Answer:      r.Answer,
		Status:      string(r.Status),
		ReviewedAt:  r.ReviewedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type pageView[T any] struct {
	Items         []T    `json:"items"`
	NextPageToken string `json:"next_page_token,omitempty"`
}
