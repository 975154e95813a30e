package subscription

import (
	"fmt"
	"time"

	"github.com/ogurasousui/referral-platform/internal/core/access"
)

const defaultTrialDays = 14

// EventKind は請求イベントの種類です。
type EventKind string

const (
	EventPurchased     EventKind = "purchased"
	EventTrialStarted  EventKind = "trial_started"
	EventRenewed       EventKind = "renewed"
	EventPaymentFailed EventKind = "payment_failed"
	EventCanceled      EventKind = "canceled"
	EventExpired       EventKind = "expired"
)

// Event は決済基盤から届く請求イベントです。
type Event struct {
	UserID     string      `json:"user_id"`
	Role       access.Role `json:"role"`
	Kind       EventKind   `json:"kind"`
	Interval   Interval    `json:"interval,omitempty"`
	TrialDays  int         `json:"trial_days,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Apply は ev を適用した新しい Track を返します。t 自体は変更しません。
func (t Track) Apply(ev Event, now time.Time) (Track, error) {
	at := ev.OccurredAt
	if at.IsZero() {
		at = now
	}

	next := t
	switch ev.Kind {
	case EventPurchased:
		if !ev.Interval.Valid() {
			return t, fmt.Errorf("interval %q: %w", ev.Interval, ErrInvalidEvent)
		}
		end := ev.Interval.After(at)
		next = Track{
			Status:          StatusActive,
			StartDate:       timePtr(at),
			EndDate:         timePtr(end),
			NextBillingDate: timePtr(end),
			Interval:        ev.Interval,
		}
	case EventTrialStarted:
		days := ev.TrialDays
		if days <= 0 {
			days = defaultTrialDays
		}
		interval := ev.Interval
		if interval == "" {
			interval = IntervalMonthly
		}
		if !interval.Valid() {
			return t, fmt.Errorf("interval %q: %w", ev.Interval, ErrInvalidEvent)
		}
		end := at.AddDate(0, 0, days)
		next = Track{
			Status:          StatusTrialing,
			StartDate:       timePtr(at),
			EndDate:         timePtr(end),
			NextBillingDate: timePtr(end),
			Interval:        interval,
		}
	case EventRenewed:
		interval := ev.Interval
		if interval == "" {
			interval = t.Interval
		}
		if !interval.Valid() {
			return t, fmt.Errorf("interval %q: %w", interval, ErrInvalidEvent)
		}
		from := at
		if t.EndDate != nil && t.EndDate.After(from) {
			from = *t.EndDate
		}
		end := interval.After(from)
		next.Status = StatusActive
		next.Interval = interval
		next.EndDate = timePtr(end)
		next.NextBillingDate = timePtr(end)
		if next.StartDate == nil {
			next.StartDate = timePtr(at)
		}
	case EventPaymentFailed:
		next.Status = StatusPastDue
	case EventCanceled:
		next.Status = StatusCanceled
		next.NextBillingDate = nil
	case EventExpired:
		next.Status = StatusCanceled
		next.NextBillingDate = nil
		if next.EndDate == nil || next.EndDate.After(at) {
			next.EndDate = timePtr(at)
		}
	default:
		return t, fmt.Errorf("kind %q: %w", ev.Kind, ErrInvalidEvent)
	}

	normalized, _ := next.Normalize(now)
	return normalized, nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
