package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/referral-platform/internal/core/access"
	"github.com/ogurasousui/referral-platform/internal/core/subscription"
	"github.com/ogurasousui/referral-platform/internal/core/user"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

type stubRow struct {
	scanFn func(dest ...interface{}) error
}

func (s stubRow) Scan(dest ...interface{}) error {
	return s.scanFn(dest...)
}

var userColumnNames = []string{
	"id", "email", "name", "role", "status",
	"referrer_subscription_status", "referrer_subscription_start_date", "referrer_subscription_end_date",
	"referrer_next_billing_date", "referrer_billing_interval",
	"candidate_subscription_status", "candidate_subscription_start_date", "candidate_subscription_end_date",
	"candidate_next_billing_date", "candidate_billing_interval",
	"created_at", "updated_at",
}

func freeUserRow(id, email string, role access.Role, now time.Time) []any {
	return []any{
		id, email, "User", string(role), string(user.StatusActive),
		"free", nil, nil, nil, nil,
		"free", nil, nil, nil, nil,
		now, now,
	}
}

func TestScanUser_Success(t *testing.T) {
	t.Parallel()

	createdAt := time.Now().UTC()
	start := createdAt.Add(-24 * time.Hour)
	end := start.AddDate(0, 1, 0)

	row := stubRow{scanFn: func(dest ...interface{}) error {
		if len(dest) != 17 {
			return errors.New("unexpected dest length")
		}
		*(dest[0].(*string)) = "user-1"
		*(dest[1].(*string)) = "user@example.com"
		*(dest[2].(*string)) = "User"
		*(dest[3].(*string)) = string(access.RoleReferrer)
		*(dest[4].(*string)) = string(user.StatusActive)

		*(dest[5].(*string)) = string(subscription.StatusActive)
		*(dest[6].(*sql.NullTime)) = sql.NullTime{Time: start, Valid: true}
		*(dest[7].(*sql.NullTime)) = sql.NullTime{Time: end, Valid: true}
		*(dest[8].(*sql.NullTime)) = sql.NullTime{Time: end, Valid: true}
		*(dest[9].(*sql.NullString)) = sql.NullString{String: "monthly", Valid: true}

		*(dest[10].(*string)) = string(subscription.StatusFree)

		*(dest[15].(*time.Time)) = createdAt
		*(dest[16].(*time.Time)) = createdAt
		return nil
	}}

	u, err := scanUser(row)
	if err != nil {
		t.Fatalf("scanUser returned error: %v", err)
	}

	if u.ID != "user-1" || u.Role != access.RoleReferrer {
		t.Fatalf("unexpected user %+v", u)
	}

	ref := u.Subscriptions.Referrer
	if ref.Status != subscription.StatusActive || ref.Interval != subscription.IntervalMonthly {
		t.Fatalf("unexpected referrer track %+v", ref)
	}
	if ref.EndDate == nil || !ref.EndDate.Equal(end) {
		t.Fatalf("expected end date %v, got %v", end, ref.EndDate)
	}

	cand := u.Subscriptions.Candidate
	if cand.Status != subscription.StatusFree || cand.StartDate != nil || cand.Interval != "" {
		t.Fatalf("unexpected candidate track %+v", cand)
	}
}

func TestScanUser_NoRows(t *testing.T) {
	t.Parallel()

	row := stubRow{scanFn: func(dest ...interface{}) error {
		return pgx.ErrNoRows
	}}

	_, err := scanUser(row)
	if !errors.Is(err, user.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestTranslatePgError(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: uniqueViolationCode}
	if !errors.Is(translatePgError(pgErr), user.ErrEmailAlreadyExists) {
		t.Fatalf("expected email exists error mapping")
	}

	roleErr := &pgconn.PgError{Code: checkViolationCode, ConstraintName: "users_role_check"}
	if !errors.Is(translatePgError(roleErr), user.ErrInvalidRole) {
		t.Fatalf("expected invalid role error mapping")
	}

	otherErr := errors.New("random")
	if translatePgError(otherErr) != otherErr {
		t.Fatalf("unexpected translation for generic error")
	}
}

func TestUserRepository_FindByID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1`)).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(userColumnNames).AddRow(freeUserRow("user-1", "user@example.com", access.RoleCandidate, now)...))

	found, err := repo.FindByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}

	if found.Role != access.RoleCandidate {
		t.Fatalf("expected candidate role, got %s", found.Role)
	}
	if found.Subscriptions.Candidate.Status != subscription.StatusFree {
		t.Fatalf("expected free candidate track, got %s", found.Subscriptions.Candidate.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_List_WithNextToken(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	query := regexp.QuoteMeta(`
          FROM users
         ORDER BY created_at DESC, id DESC
         LIMIT $1
        OFFSET $2
    `)

	now := time.Now().UTC()
	rows := pgxmock.NewRows(userColumnNames).
		AddRow(freeUserRow("user-1", "user1@example.com", access.RoleCandidate, now)...).
		AddRow(freeUserRow("user-2", "user2@example.com", access.RoleReferrer, now)...).
		AddRow(freeUserRow("user-3", "user3@example.com", access.RoleCandidate, now)...)

	mock.ExpectQuery(query).
		WithArgs(3, 0).
		WillReturnRows(rows)

	users, nextToken, err := repo.List(context.Background(), user.ListUsersFilter{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}

	if nextToken != "2" {
		t.Fatalf("expected next token '2', got %s", nextToken)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_List_WithStatusAndRoleFilter(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)
	active := user.StatusActive
	referrer := access.RoleReferrer

	query := regexp.QuoteMeta(`FROM users WHERE status = $1 AND role = $2`)

	now := time.Now().UTC()
	rows := pgxmock.NewRows(userColumnNames).
		AddRow(freeUserRow("user-5", "ref@example.com", access.RoleReferrer, now)...)

	mock.ExpectQuery(query).
		WithArgs("active", "referrer", 3, 4).
		WillReturnRows(rows)

	users, nextToken, err := repo.List(context.Background(), user.ListUsersFilter{Limit: 2, Offset: 4, Status: &active, Role: &referrer})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if nextToken != "" {
		t.Fatalf("expected empty next token, got %s", nextToken)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_List_InvalidInput(t *testing.T) {
	t.Parallel()

	repo := NewUserRepository(nil)

	if _, _, err := repo.List(context.Background(), user.ListUsersFilter{Limit: 0}); !errors.Is(err, user.ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}
	if _, _, err := repo.List(context.Background(), user.ListUsersFilter{Limit: 1, Offset: -1}); !errors.Is(err, user.ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestUserRepository_Delete_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, user.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
