package subscription

import (
	"context"
	"fmt"
	"strings"
	"time"

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

// UseCase はサブスクリプションユースケースの公開インターフェースです。
type UseCase interface {
	ApplyEvent(ctx context.Context, ev Event) (*Track, error)
	GetTracks(ctx context.Context, in GetTracksInput) (*Tracks, error)
	ExpireOverdue(ctx context.Context) (int64, error)
	ListPlans(ctx context.Context, in ListPlansInput) ([]*Plan, error)
}

// Service はサブスクリプション状態の更新と参照をまとめます。
// 状態の更新は請求イベント経由でのみ行います。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
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

// GetTracksInput は Tracks 取得時の入力です。
type GetTracksInput struct {
	UserID string
}

// ListPlansInput はプラン一覧取得時の入力です。空の Role は全ロールを対象にします。
type ListPlansInput struct {
	Role string
}

// ApplyEvent は請求イベントを該当ロールの Track に適用します。
// 読み込みから保存までを 1 つの読み書きトランザクション内で行います。
func (s *Service) ApplyEvent(ctx context.Context, ev Event) (*Track, error) {
	if err := validateID(ev.UserID); err != nil {
		return nil, fmt.Errorf("user_id: %w", ErrInvalidEvent)
	}
	if !ev.Role.Known() {
		return nil, fmt.Errorf("role %q: %w", ev.Role, ErrInvalidEvent)
	}

	var applied Track
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		tracks, err := s.repo.LockTracks(txCtx, ev.UserID)
		if err != nil {
			return err
		}

		current, _ := tracks.For(ev.Role)
		next, err := current.Apply(ev, s.clock.Now())
		if err != nil {
			return err
		}

		if err := s.repo.SaveTrack(txCtx, ev.UserID, ev.Role, next); err != nil {
			return err
		}

		applied = next
		return nil
	}); err != nil {
		return nil, err
	}

	return &applied, nil
}

// GetTracks はユーザーの Tracks を現在時刻で正規化して返します。
func (s *Service) GetTracks(ctx context.Context, in GetTracksInput) (*Tracks, error) {
	if err := validateID(in.UserID); err != nil {
		return nil, err
	}

	var tracks *Tracks
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindTracks(txCtx, in.UserID)
		if err != nil {
			return err
		}
		normalized := found.Normalize(s.clock.Now())
		tracks = &normalized
		return nil
	}); err != nil {
		return nil, err
	}

	return tracks, nil
}

// ExpireOverdue は終了日を過ぎた Track を一括で canceled にします。
func (s *Service) ExpireOverdue(ctx context.Context) (int64, error) {
	var affected int64
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		n, err := s.repo.ExpireOverdue(txCtx, s.clock.Now())
		if err != nil {
			return err
		}
		affected = n
		return nil
	}); err != nil {
		return 0, err
	}
	return affected, nil
}

// ListPlans は提供中のプランを返します。
func (s *Service) ListPlans(ctx context.Context, in ListPlansInput) ([]*Plan, error) {
	var rolePtr *access.Role
	if strings.TrimSpace(in.Role) != "" {
		role, err := access.ParseRole(in.Role)
		if err != nil {
			return nil, ErrInvalidRole
		}
		rolePtr = &role
	}

	var plans []*Plan
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.ListPlans(txCtx, rolePtr)
		if err != nil {
			return err
		}
		plans = found
		return nil
	}); err != nil {
		return nil, err
	}
	return plans, nil
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
