package deck

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ogurasousui/referral-platform/internal/core/access"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
	maxTitleLength      = 200
)

// Service はデッキに関するユースケースをまとめます。
// サブスクリプションによるアクセス制御は呼び出し側 (アダプタ) で行います。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
}

// UseCase はデッキユースケースの公開インターフェースです。
type UseCase interface {
	CreateDeck(ctx context.Context, in CreateDeckInput) (*Deck, error)
	GetDeck(ctx context.Context, in GetDeckInput) (*Deck, error)
	ListDecks(ctx context.Context, in ListDecksInput) (*ListDecksResult, error)
	PublishDeck(ctx context.Context, in PublishDeckInput) (*Deck, error)
	DeleteDeck(ctx context.Context, in DeleteDeckInput) error
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx}
}

// CreateDeckInput はデッキ作成時の入力です。
// OwnerRole は作成者の現在のロールで、候補者のみ作成できます。
type CreateDeckInput struct {
	OwnerID   string
	OwnerRole access.Role
	Title     string
	Summary   *string
}

// GetDeckInput はデッキ取得時の入力です。
type GetDeckInput struct {
	ID string
}

// ListDecksInput は一覧取得時の入力です。
// OwnerID を指定した場合は下書きを含むそのユーザーのデッキを、省略時は公開済みのデッキを返します。
type ListDecksInput struct {
	PageSize  int
	PageToken string
	OwnerID   *string
}

// ListDecksResult は一覧取得結果を表します。
type ListDecksResult struct {
	Decks         []*Deck
	NextPageToken string
}

// PublishDeckInput はデッキ公開時の入力です。
type PublishDeckInput struct {
	ID      string
	ActorID string
}

// DeleteDeckInput はデッキ削除時の入力です。
type DeleteDeckInput struct {
	ID      string
	ActorID string
}

// CreateDeck は下書き状態のデッキを作成します。
func (s *Service) CreateDeck(ctx context.Context, in CreateDeckInput) (*Deck, error) {
	if err := validateID(in.OwnerID); err != nil {
		return nil, fmt.Errorf("owner_id: %w", err)
	}
	if in.OwnerRole != access.RoleCandidate {
		return nil, ErrNotCandidate
	}

	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}

	var created *Deck
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &Deck{
			OwnerID:   in.OwnerID,
			Title:     title,
			Summary:   normalizeSummary(in.Summary),
			Status:    StatusDraft,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// GetDeck は ID でデッキを取得します。
func (s *Service) GetDeck(ctx context.Context, in GetDeckInput) (*Deck, error) {
	if err := validateID(in.ID); err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}

	var found *Deck
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		d, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		found = d
		return nil
	}); err != nil {
		return nil, err
	}
	return found, nil
}

// ListDecks はデッキの一覧を取得します。
func (s *Service) ListDecks(ctx context.Context, in ListDecksInput) (*ListDecksResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	filter := ListDecksFilter{Limit: limit, Offset: offset}
	if in.OwnerID != nil {
		if err := validateID(*in.OwnerID); err != nil {
			return nil, fmt.Errorf("owner_id: %w", err)
		}
		owner := *in.OwnerID
		filter.OwnerID = &owner
	} else {
		published := StatusPublished
		filter.Status = &published
	}

	var result *ListDecksResult
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		decks, next, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		result = &ListDecksResult{Decks: decks, NextPageToken: next}
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// PublishDeck は所有者のデッキを公開します。
func (s *Service) PublishDeck(ctx context.Context, in PublishDeckInput) (*Deck, error) {
	if err := validateID(in.ID); err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}

	var published *Deck
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		if existing.OwnerID != in.ActorID {
			return ErrNotOwner
		}
		if existing.Status == StatusPublished {
			return ErrAlreadyPublished
		}

		existing.Status = StatusPublished
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}
		published = result
		return nil
	}); err != nil {
		return nil, err
	}
	return published, nil
}

// DeleteDeck は所有者のデッキを削除します。
func (s *Service) DeleteDeck(ctx context.Context, in DeleteDeckInput) error {
	if err := validateID(in.ID); err != nil {
		return fmt.Errorf("id: %w", err)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		if existing.OwnerID != in.ActorID {
			return ErrNotOwner
		}
		return s.repo.Delete(txCtx, in.ID)
	})
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" || utf8.RuneCountInString(title) > maxTitleLength {
		return "", ErrInvalidTitle
	}
	return title, nil
}

func normalizeSummary(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
