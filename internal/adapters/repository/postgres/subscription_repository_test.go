package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/referral-platform/internal/core/access"
	"github.com/ogurasousui/referral-platform/internal/core/subscription"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var trackColumnNames = []string{
	"referrer_subscription_status", "referrer_subscription_start_date", "referrer_subscription_end_date",
	"referrer_next_billing_date", "referrer_billing_interval",
	"candidate_subscription_status", "candidate_subscription_start_date", "candidate_subscription_end_date",
	"candidate_next_billing_date", "candidate_billing_interval",
}

func TestSubscriptionRepository_LockTracks(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewSubscriptionRepository(mock)
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 14)

	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(trackColumnNames).AddRow(
			"free", nil, nil, nil, nil,
			"trialing", start, end, end, "monthly",
		))

	tracks, err := repo.LockTracks(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("LockTracks returned error: %v", err)
	}

	if tracks.Referrer.Status != subscription.StatusFree {
		t.Errorf("expected free referrer track, got %s", tracks.Referrer.Status)
	}
	if tracks.Candidate.Status != subscription.StatusTrialing {
		t.Errorf("expected trialing candidate track, got %s", tracks.Candidate.Status)
	}
	if tracks.Candidate.EndDate == nil || !tracks.Candidate.EndDate.Equal(end) {
		t.Errorf("expected candidate end %v, got %v", end, tracks.Candidate.EndDate)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubscriptionRepository_FindTracks_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewSubscriptionRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1`)).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.FindTracks(context.Background(), "missing"); !errors.Is(err, subscription.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubscriptionRepository_SaveTrack_WritesRoleColumns(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewSubscriptionRepository(mock)
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	mock.ExpectExec(regexp.QuoteMeta(`SET referrer_subscription_status = $1`)).
		WithArgs("active", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "monthly", pgxmock.AnyArg(), "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.SaveTrack(context.Background(), "user-1", access.RoleReferrer, subscription.Track{
		Status:          subscription.StatusActive,
		StartDate:       &start,
		EndDate:         &end,
		NextBillingDate: &end,
		Interval:        subscription.IntervalMonthly,
	})
	if err != nil {
		t.Fatalf("SaveTrack returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubscriptionRepository_SaveTrack_Errors(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewSubscriptionRepository(mock)

	if err := repo.SaveTrack(context.Background(), "user-1", access.Role("admin"), subscription.FreeTrack()); !errors.Is(err, subscription.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(`SET candidate_subscription_status = $1`)).
		WithArgs("free", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.SaveTrack(context.Background(), "missing", access.RoleCandidate, subscription.FreeTrack()); !errors.Is(err, subscription.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubscriptionRepository_ExpireOverdue(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewSubscriptionRepository(mock)
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`THEN 'canceled' ELSE referrer_subscription_status END`)).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	affected, err := repo.ExpireOverdue(context.Background(), now)
	if err != nil {
		t.Fatalf("ExpireOverdue returned error: %v", err)
	}
	if affected != 3 {
		t.Fatalf("expected 3 rows, got %d", affected)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubscriptionRepository_ListPlans_ByRole(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewSubscriptionRepository(mock)
	role := access.RoleCandidate
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE active AND role = $1`)).
		WithArgs("candidate").
		WillReturnRows(pgxmock.NewRows([]string{"id", "role", "name", "billing_interval", "price_cents", "currency", "active", "created_at"}).
			AddRow("plan-1", "candidate", "Candidate Monthly", "monthly", int64(1900), "USD", true, now).
			AddRow("plan-2", "candidate", "Candidate Yearly", "yearly", int64(19000), "USD", true, now))

	plans, err := repo.ListPlans(context.Background(), &role)
	if err != nil {
		t.Fatalf("ListPlans returned error: %v", err)
	}

	if len(plans) != 2 {
		t.Fatalf("expected 2 plans, got %d", len(plans))
	}
	if plans[1].Interval != subscription.IntervalYearly || plans[1].PriceCents != 19000 {
		t.Fatalf("unexpected plan %+v", plans[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
