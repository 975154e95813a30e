package subscription

import (
	"time"

	"github.com/ogurasousui/referral-platform/internal/core/access"
)

// Status はロールごとのサブスクリプション状態を表します。
type Status string

const (
	StatusFree     Status = "free"
	StatusTrialing Status = "trialing"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
)

// Interval は請求サイクルを表します。
type Interval string

const (
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

// Valid は既知の請求サイクルであれば true を返します。
func (i Interval) Valid() bool {
	switch i {
	case IntervalMonthly, IntervalYearly:
		return true
	default:
		return false
	}
}

// After は from から 1 サイクル後の時刻を返します。
func (i Interval) After(from time.Time) time.Time {
	if i == IntervalYearly {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}

// Track はロール単位のサブスクリプション状態です。
type Track struct {
	Status          Status
	StartDate       *time.Time
	EndDate         *time.Time
	NextBillingDate *time.Time
	Interval        Interval
}

// FreeTrack は未契約状態の Track を返します。
func FreeTrack() Track {
	return Track{Status: StatusFree}
}

// Normalize は終了日を過ぎた課金中の Track を canceled に揃えます。
// 変更があった場合は true を返します。
func (t Track) Normalize(now time.Time) (Track, bool) {
	switch t.Status {
	case StatusActive, StatusTrialing, StatusPastDue:
	default:
		return t, false
	}
	if t.EndDate == nil || !t.EndDate.Before(now) {
		return t, false
	}
	t.Status = StatusCanceled
	t.NextBillingDate = nil
	return t, true
}

// Tracks はユーザーが持つ 2 つの独立した Track です。
// 参照されるのはユーザーの現在のロールに対応する側のみです。
type Tracks struct {
	Referrer  Track
	Candidate Track
}

// For は role に対応する Track を返します。
func (t Tracks) For(role access.Role) (Track, bool) {
	switch role {
	case access.RoleReferrer:
		return t.Referrer, true
	case access.RoleCandidate:
		return t.Candidate, true
	default:
		return Track{}, false
	}
}

// With は role に対応する Track を差し替えた Tracks を返します。
func (t Tracks) With(role access.Role, track Track) (Tracks, bool) {
	switch role {
	case access.RoleReferrer:
		t.Referrer = track
	case access.RoleCandidate:
		t.Candidate = track
	default:
		return t, false
	}
	return t, true
}

// Normalize は両方の Track を now 時点で正規化します。
func (t Tracks) Normalize(now time.Time) Tracks {
	t.Referrer, _ = t.Referrer.Normalize(now)
	t.Candidate, _ = t.Candidate.Normalize(now)
	return t
}

// Plan はロールごとに提供される料金プランです。
type Plan struct {
	ID         string
	Role       access.Role
	Name       string
	Interval   Interval
	PriceCents int64
	Currency   string
	Active     bool
	CreatedAt  time.Time
}
