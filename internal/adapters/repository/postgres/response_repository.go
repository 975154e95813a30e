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
	"github.com/ogurasousui/referral-platform/internal/core/response"
	pgdb "github.com/ogurasousui/referral-platform/internal/platform/db/postgres"
)

// ResponseRepository は PostgreSQL を利用した要件回答の永続化実装です。
type ResponseRepository struct {
	pool pgdb.Queryer
}

// NewResponseRepository は ResponseRepository を生成します。
func NewResponseRepository(pool pgdb.Queryer) *ResponseRepository {
	return &ResponseRepository{pool: pool}
}

// Create は回答を新規作成します。
func (r *ResponseRepository) Create(ctx context.Context, resp *response.Response) (*response.Response, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO requirement_responses (referrer_id, candidate_id, answer, status, reviewed_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, referrer_id, candidate_id, answer, status, reviewed_at, created_at, updated_at
    `, resp.ReferrerID, resp.CandidateID, resp.Answer, string(resp.Status), nullableTimestamp(resp.ReviewedAt), resp.CreatedAt, resp.UpdatedAt)

	created, err := scanResponse(row)
	if err != nil {
		return nil, translateResponsePgError(err)
	}
	return created, nil
}

// Update は回答の審査状態を更新します。
func (r *ResponseRepository) Update(ctx context.Context, resp *response.Response) (*response.Response, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE requirement_responses
           SET status = $1,
               reviewed_at = $2,
               updated_at = $3
         WHERE id = $4
        RETURNING id, referrer_id, candidate_id, answer, status, reviewed_at, created_at, updated_at
    `, string(resp.Status), nullableTimestamp(resp.ReviewedAt), resp.UpdatedAt, resp.ID)

	updated, err := scanResponse(row)
	if err != nil {
		return nil, translateResponsePgError(err)
	}
	return updated, nil
}

// FindByID は ID で回答を取得します。
func (r *ResponseRepository) FindByID(ctx context.Context, id string) (*response.Response, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, referrer_id, candidate_id, answer, status, reviewed_at, created_at, updated_at
          FROM requirement_responses
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanResponse(row)
	if err != nil {
		return nil, translateResponsePgError(err)
	}
	return found, nil
}

// FindParticipantRole はユーザーの現在のロールを返します。
func (r *ResponseRepository) FindParticipantRole(ctx context.Context, userID string) (access.Role, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var role string
	if err := exec.QueryRow(ctx, `
        SELECT role
          FROM users
         WHERE id = $1
    `, userID).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", response.ErrParticipantNotFound
		}
		return "", err
	}
	return access.Role(role), nil
}

// List は回答の一覧を取得します。
func (r *ResponseRepository) List(ctx context.Context, filter response.ListResponsesFilter) ([]*response.Response, string, error) {
	if filter.Limit <= 0 {
		return nil, "", response.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", response.ErrInvalidPageToken
	}

	args := make([]any, 0, 5)
	conditions := make([]string, 0, 3)

	if filter.ReferrerID != nil {
		args = append(args, *filter.ReferrerID)
		conditions = append(conditions, "referrer_id = $"+strconv.Itoa(len(args)))
	}
	if filter.CandidateID != nil {
		args = append(args, *filter.CandidateID)
		conditions = append(conditions, "candidate_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
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
        SELECT id, referrer_id, candidate_id, answer, status, reviewed_at, created_at, updated_at
          FROM requirement_responses` + whereClause + `
         ORDER BY created_at DESC, id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateResponsePgError(err)
	}
	defer rows.Close()

	var responses []*response.Response
	for rows.Next() {
		found, err := scanResponse(rows)
		if err != nil {
			return nil, "", translateResponsePgError(err)
		}
		responses = append(responses, found)
	}
	if err := rows.Err(); err != nil {
		return nil, "", translateResponsePgError(err)
	}

	var nextToken string
	if len(responses) > filter.Limit {
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
		responses = responses[:filter.Limit]
	}

	return responses, nextToken, nil
}

func scanResponse(row pgx.Row) (*response.Response, error) {
	var (
		id                   string
		referrerID           string
		candidateID          string
		answer               string
		status               string
		reviewedAt           sql.NullTime
		createdAt, updatedAt time.Time
	)

	if err := row.Scan(&id, &referrerID, &candidateID, &answer, &status, &reviewedAt, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, response.ErrResponseNotFound
		}
		return nil, err
	}

	return &response.Response{
		ID:          id,
		ReferrerID:  referrerID,
		CandidateID: candidateID,
		Answer:      answer,
		Status:      response.Status(status),
		ReviewedAt:  timePtr(reviewedAt),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func translateResponsePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			return response.ErrParticipantNotFound
		case checkViolationCode:
			if pgErr.ConstraintName == "requirement_responses_distinct_check" {
				return response.ErrSelfResponse
			}
		}
	}
	return err
}
