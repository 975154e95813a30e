package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/referral-platform/internal/core/access"
	"github.com/ogurasousui/referral-platform/internal/core/subscription"
	"github.com/ogurasousui/referral-platform/internal/core/user"
	pgdb "github.com/ogurasousui/referral-platform/internal/platform/db/postgres"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

const userColumns = `id, email, name, role, status,
               referrer_subscription_status, referrer_subscription_start_date, referrer_subscription_end_date,
               referrer_next_billing_date, referrer_billing_interval,
               candidate_subscription_status, candidate_subscription_start_date, candidate_subscription_end_date,
               candidate_next_billing_date, candidate_billing_interval,
               created_at, updated_at`

// UserRepository は PostgreSQL を利用したユーザー永続化の実装です。
type UserRepository struct {
	pool pgdb.Queryer
}

// NewUserRepository は UserRepository を生成します。
func NewUserRepository(pool pgdb.Queryer) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create はユーザーを新規作成します。
func (r *UserRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	ref, cand := u.Subscriptions.Referrer, u.Subscriptions.Candidate
	row := exec.QueryRow(ctx, `
        INSERT INTO users (email, name, role, status,
                           referrer_subscription_status, referrer_subscription_start_date, referrer_subscription_end_date,
                           referrer_next_billing_date, referrer_billing_interval,
                           candidate_subscription_status, candidate_subscription_start_date, candidate_subscription_end_date,
                           candidate_next_billing_date, candidate_billing_interval,
                           created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        RETURNING `+userColumns+`
    `, u.Email, u.Name, string(u.Role), string(u.Status),
		string(ref.Status), nullableTimestamp(ref.StartDate), nullableTimestamp(ref.EndDate), nullableTimestamp(ref.NextBillingDate), nullableInterval(ref.Interval),
		string(cand.Status), nullableTimestamp(cand.StartDate), nullableTimestamp(cand.EndDate), nullableTimestamp(cand.NextBillingDate), nullableInterval(cand.Interval),
		u.CreatedAt, u.UpdatedAt)

	created, err := scanUser(row)
	if err != nil {
		return nil, translatePgError(err)
	}
	return created, nil
}

// Update はユーザーのプロフィールとロールを更新します。サブスクリプション列は更新しません。
func (r *UserRepository) Update(ctx context.Context, u *user.User) (*user.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE users
           SET name = $1,
               status = $2,
               role = $3,
               updated_at = $4
         WHERE id = $5
        RETURNING `+userColumns+`
    `, u.Name, string(u.Status), string(u.Role), u.UpdatedAt, u.ID)

	updated, err := scanUser(row)
	if err != nil {
		return nil, translatePgError(err)
	}
	return updated, nil
}

// Delete はユーザーを削除します。
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translatePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// FindByID はIDでユーザーを取得します。
func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+userColumns+`
          FROM users
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanUser(row)
	if err != nil {
		return nil, translatePgError(err)
	}
	return found, nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+userColumns+`
          FROM users
         WHERE email = $1
         LIMIT 1
    `, email)

	found, err := scanUser(row)
	if err != nil {
		return nil, translatePgError(err)
	}
	return found, nil
}

// List はユーザーの一覧を取得します。
func (r *UserRepository) List(ctx context.Context, filter user.ListUsersFilter) ([]*user.User, string, error) {
	if filter.Limit <= 0 {
		return nil, "", user.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", user.ErrInvalidPageToken
	}

	args := make([]any, 0, 4)
	conditions := make([]string, 0, 2)

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.Role != nil {
		args = append(args, string(*filter.Role))
		conditions = append(conditions, "role = $"+strconv.Itoa(len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, filter.Limit+1)
	limitPlaceholder := "$" + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	offsetPlaceholder := "$" + strconv.Itoa(len(args))

	query := `
        SELECT ` + userColumns + `
          FROM users` + whereClause + `
         ORDER BY created_at DESC, id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translatePgError(err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		found, err := scanUser(rows)
		if err != nil {
			return nil, "", translatePgError(err)
		}
		users = append(users, found)
	}
	if err := rows.Err(); err != nil {
		return nil, "", translatePgError(err)
	}

	var nextToken string
	if len(users) > filter.Limit {
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
		users = users[:filter.Limit]
	}

	return users, nextToken, nil
}

type trackColumns struct {
	status          string
	startDate       sql.NullTime
	endDate         sql.NullTime
	nextBillingDate sql.NullTime
	interval        sql.NullString
}

func (c *trackColumns) dest() []any {
	return []any{&c.status, &c.startDate, &c.endDate, &c.nextBillingDate, &c.interval}
}

func (c *trackColumns) track() subscription.Track {
	return subscription.Track{
		Status:          subscription.Status(c.status),
		StartDate:       timePtr(c.startDate),
		EndDate:         timePtr(c.endDate),
		NextBillingDate: timePtr(c.nextBillingDate),
		Interval:        subscription.Interval(c.interval.String),
	}
}

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		id                   string
		email                string
		name                 string
		role                 string
		status               string
		referrer, candidate  trackColumns
		createdAt, updatedAt time.Time
	)

	dest := []any{&id, &email, &name, &role, &status}
	dest = append(dest, referrer.dest()...)
	dest = append(dest, candidate.dest()...)
	dest = append(dest, &createdAt, &updatedAt)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}

	return &user.User{
		ID:     id,
		Email:  email,
		Name:   name,
		Role:   access.Role(role),
		Status: user.Status(status),
		Subscriptions: subscription.Tracks{
			Referrer:  referrer.track(),
			Candidate: candidate.track(),
		},
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return user.ErrEmailAlreadyExists
		case checkViolationCode:
			if pgErr.ConstraintName == "users_role_check" {
				return user.ErrInvalidRole
			}
		}
	}
	return err
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableTimestamp(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC()
}

func nullableInterval(value subscription.Interval) any {
	if value == "" {
		return nil
	}
	return string(value)
}

func timePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time.UTC()
	return &t
}
