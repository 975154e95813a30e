package subscription

import (
	"context"
	"time"

	"github.com/ogurasousui/referral-platform/internal/core/access"
)

// Repository はサブスクリプション状態の永続化を行うインターフェースです。
type Repository interface {
	FindTracks(ctx context.Context, userID string) (*Tracks, error)
	// LockTracks は更新のために行ロックを取得した上で Tracks を返します。
	LockTracks(ctx context.Context, userID string) (*Tracks, error)
	SaveTrack(ctx context.Context, userID string, role access.Role, track Track) error
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	ListPlans(ctx context.Context, role *access.Role) ([]*Plan, error)
}
