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
	"github.com/ogurasousui/referral-platform/internal/core/deck"
	pgdb "github.com/ogurasousui/referral-platform/internal/platform/db/postgres"
)

// DeckRepository は PostgreSQL を利用したデッキ永続化の実装です。
type DeckRepository struct {
	pool pgdb.Queryer
}

// NewDeckRepository は DeckRepository を生成します。
func NewDeckRepository(pool pgdb.Queryer) *DeckRepository {
	return &DeckRepository{pool: pool}
}

// Create はデッキを新規作成します。
func (r *DeckRepository) Create(ctx context.Context, d *deck.Deck) (*deck.Deck, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO decks (owner_id, title, summary, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, owner_id, title, summary, status, created_at, updated_at
    `, d.OwnerID, d.Title, nullableString(d.Summary), string(d.Status), d.CreatedAt, d.UpdatedAt)

	created, err := scanDeck(row)
	if err != nil {
		return nil, translateDeckPgError(err)
	}
	return created, nil
}

// Update はデッキを更新します。
func (r *DeckRepository) Update(ctx context.Context, d *deck.Deck) (*deck.Deck, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE decks
           SET title = $1,
               summary = $2,
               status = $3,
               updated_at = $4
         WHERE id = $5
        RETURNING id, owner_id, title, summary, status, created_at, updated_at
    `, d.Title, nullableString(d.Summary), string(d.Status), d.UpdatedAt, d.ID)

	updated, err := scanDeck(row)
	if err != nil {
		return nil, translateDeckPgError(err)
	}
	return updated, nil
}

// Delete はデッキを削除します。
func (r *DeckRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM decks WHERE id = $1`, id)
	if err != nil {
		return translateDeckPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return deck.ErrDeckNotFound
	}
	return nil
}

// FindByID は ID でデッキを取得します。
func (r *DeckRepository) FindByID(ctx context.Context, id string) (*deck.Deck, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, owner_id, title, summary, status, created_at, updated_at
          FROM decks
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanDeck(row)
	if err != nil {
		return nil, translateDeckPgError(err)
	}
	return found, nil
}

// List はデッキの一覧を取得します。
func (r *DeckRepository) List(ctx context.Context, filter deck.ListDecksFilter) ([]*deck.Deck, string, error) {
	if filter.Limit <= 0 {
		return nil, "", deck.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", deck.ErrInvalidPageToken
	}

	args := make([]any, 0, 4)
	conditions := make([]string, 0, 2)

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		conditions = append(conditions, "owner_id = $"+strconv.Itoa(len(args)))
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
        SELECT id, owner_id, title, summary, status, created_at, updated_at
          FROM decks` + whereClause + `
         ORDER BY created_at DESC, id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateDeckPgError(err)
	}
	defer rows.Close()

	var decks []*deck.Deck
	for rows.Next() {
		found, err := scanDeck(rows)
		if err != nil {
			return nil, "", translateDeckPgError(err)
		}
		decks = append(decks, found)
	}
	if err := rows.Err(); err != nil {
		return nil, "", translateDeckPgError(err)
	}

	var nextToken string
	if len(decks) > filter.Limit {
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
		decks = decks[:filter.Limit]
	}

	return decks, nextToken, nil
}

func scanDeck(row pgx.Row) (*deck.Deck, error) {
	var (
		id                   string
		ownerID              string
		title                string
		summary              sql.NullString
		status               string
		createdAt, updatedAt time.Time
	)

	if err := row.Scan(&id, &ownerID, &title, &summary, &status, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, deck.ErrDeckNotFound
		}
		return nil, err
	}

	var summaryPtr *string
	if summary.Valid {
		s := summary.String
		summaryPtr = &s
	}

	return &deck.Deck{
		ID:        id,
		OwnerID:   ownerID,
		Title:     title,
		Summary:   summaryPtr,
		Status:    deck.Status(status),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func translateDeckPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
		return deck.ErrOwnerNotFound
	}
	return err
}
