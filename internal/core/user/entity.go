package user

import (
	"time"

	"github.com/ogurasousui/referral-platform/internal/core/access"
	"github.com/ogurasousui/referral-platform/internal/core/subscription"
)

// Status はユーザーアカウントの状態を表します。
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// User はユーザーエンティティです。
// Subscriptions はロールごとに独立して保持され、Role に対応する側のみが有効です。
type User struct {
	ID            string
	Email         string
	Name          string
	Role          access.Role
	Status        Status
	Subscriptions subscription.Tracks
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ActiveTrack は現在のロールに対応する Track を now 時点で正規化して返します。
func (u *User) ActiveTrack(now time.Time) (subscription.Track, bool) {
	return u.Subscriptions.Normalize(now).For(u.Role)
}

// Caller はアクセス判定用の呼び出し元を now 時点の状態で構築します。
// 終了日を過ぎた Track は canceled として扱われます。
func (u *User) Caller(now time.Time) *access.Caller {
	tracks := u.Subscriptions.Normalize(now)
	return &access.Caller{
		UserID:                      u.ID,
		Role:                        u.Role,
		ReferrerSubscriptionStatus:  string(tracks.Referrer.Status),
		CandidateSubscriptionStatus: string(tracks.Candidate.Status),
	}
}
