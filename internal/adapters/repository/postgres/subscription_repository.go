package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/referral-platform/internal/core/access"
	"github.com/ogurasousui/referral-platform/internal/core/subscription"
	pgdb "github.com/ogurasousui/referral-platform/internal/platform/db/postgres"
)

const trackColumnList = `referrer_subscription_status, referrer_subscription_start_date, referrer_subscription_end_date,
               referrer_next_billing_date, referrer_billing_interval,
               candidate_subscription_status, candidate_subscription_start_date, candidate_subscription_end_date,
               candidate_next_billing_date, candidate_billing_interval`

const (
	saveReferrerTrackQuery = `
        UPDATE users
           SET referrer_subscription_status = $1,
               referrer_subscription_start_date = $2,
               referrer_subscription_end_date = $3,
               referrer_next_billing_date = $4,
               referrer_billing_interval = $5,
               updated_at = $6
         WHERE id = $7
    `
	saveCandidateTrackQuery = `
        UPDATE users
           SET candidate_subscription_status = $1,
               candidate_subscription_start_date = $2,
               candidate_subscription_end_date = $3,
               candidate_next_billing_date = $4,
               candidate_billing_interval = $5,
               updated_at = $6
         WHERE id = $7
    `
	expireOverdueQuery = `
        UPDATE users
           SET referrer_subscription_status = CASE WHEN referrer_subscription_status IN ('active', 'trialing', 'past_due')
                                                    AND referrer_subscription_end_date < $1
                                                   THEN 'canceled' ELSE referrer_subscription_status END,
               referrer_next_billing_date = CASE WHEN referrer_subscription_status IN ('active', 'trialing', 'past_due')
                                                  AND referrer_subscription_end_date < $1
                                                 THEN NULL ELSE referrer_next_billing_date END,
               candidate_subscription_status = CASE WHEN candidate_subscription_status IN ('active', 'trialing', 'past_due')
                                                     AND candidate_subscription_end_date < $1
                                                    THEN 'canceled' ELSE candidate_subscription_status END,
               candidate_next_billing_date = CASE WHEN candidate_subscription_status IN ('active', 'trialing', 'past_due')
                                                   AND candidate_subscription_end_date < $1
                                                  THEN NULL ELSE candidate_next_billing_date END,
               updated_at = $1
         WHERE (referrer_subscription_status IN ('active', 'trialing', 'past_due') AND referrer_subscription_end_date < $1)
            OR (candidate_subscription_status IN ('active', 'trialing', 'past_due') AND candidate_subscription_end_date < $1)
    `
)

// SubscriptionRepository は users テーブル上のロール別サブスクリプション列を扱います。
type SubscriptionRepository struct {
	pool pgdb.Queryer
	now  func() time.Time
}

// NewSubscriptionRepository は SubscriptionRepository を生成します。
func NewSubscriptionRepository(pool pgdb.Queryer) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

// FindTracks はユーザーの Tracks を取得します。
func (r *SubscriptionRepository) FindTracks(ctx context.Context, userID string) (*subscription.Tracks, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+trackColumnList+`
          FROM users
         WHERE id = $1
    `, userID)
	return scanTracks(row)
}

// LockTracks は行ロックを取得して Tracks を返します。トランザクション内で呼び出してください。
func (r *SubscriptionRepository) LockTracks(ctx context.Context, userID string) (*subscription.Tracks, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+trackColumnList+`
          FROM users
         WHERE id = $1
           FOR UPDATE
    `, userID)
	return scanTracks(row)
}

// SaveTrack は role に対応する列へ Track を書き込みます。
func (r *SubscriptionRepository) SaveTrack(ctx context.Context, userID string, role access.Role, track subscription.Track) error {
	var query string
	switch role {
	case access.RoleReferrer:
		query = saveReferrerTrackQuery
	case access.RoleCandidate:
		query = saveCandidateTrackQuery
	default:
		return subscription.ErrInvalidRole
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, query,
		string(track.Status),
		nullableTimestamp(track.StartDate),
		nullableTimestamp(track.EndDate),
		nullableTimestamp(track.NextBillingDate),
		nullableInterval(track.Interval),
		r.now(),
		userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return subscription.ErrAccountNotFound
	}
	return nil
}

// ExpireOverdue は now より前に終了日を迎えた課金中の Track を canceled に更新し、更新行数を返します。
func (r *SubscriptionRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, expireOverdueQuery, now.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListPlans は有効な料金プランを返します。role が nil の場合は全ロール分を返します。
func (r *SubscriptionRepository) ListPlans(ctx context.Context, role *access.Role) ([]*subscription.Plan, error) {
	query := `
        SELECT id, role, name, billing_interval, price_cents, currency, active, created_at
          FROM subscription_plans
         WHERE active`
	args := make([]any, 0, 1)
	if role != nil {
		query += ` AND role = $1`
		args = append(args, string(*role))
	}
	query += `
         ORDER BY role, price_cents, id
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*subscription.Plan
	for rows.Next() {
		var (
			p            subscription.Plan
			planRole     string
			planInterval string
		)
		if err := rows.Scan(&p.ID, &planRole, &p.Name, &planInterval, &p.PriceCents, &p.Currency, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Role = access.Role(planRole)
		p.Interval = subscription.Interval(planInterval)
		plans = append(plans, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

func scanTracks(row pgx.Row) (*subscription.Tracks, error) {
	var referrer, candidate trackColumns

	dest := append(referrer.dest(), candidate.dest()...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, subscription.ErrAccountNotFound
		}
		return nil, err
	}

	return &subscription.Tracks{
		Referrer:  referrer.track(),
		Candidate: candidate.track(),
	}, nil
}
