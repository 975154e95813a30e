package handler

import (
	"context"
	"time"

	"github.com/ogurasousui/referral-platform/internal/core/subscription"
	"google.golang.org/protobuf/types/known/structpb"
)

// SubscriptionGrpcHandler は platform.v1.SubscriptionService を実装します。
type SubscriptionGrpcHandler struct {
	uc subscription.UseCase
}

// NewSubscriptionGrpcHandler は SubscriptionGrpcHandler を生成します。
func NewSubscriptionGrpcHandler(uc subscription.UseCase) *SubscriptionGrpcHandler {
	return &SubscriptionGrpcHandler{uc: uc}
}

// GetSubscription は呼び出し元の現在ロールに対応するサブスクリプション状態を返却します。
func (h *SubscriptionGrpcHandler) GetSubscription(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	tracks, err := h.uc.GetTracks(ctx, subscription.GetTracksInput{UserID: caller.UserID})
	if err != nil {
		return nil, toStatusError(err)
	}

	fields := map[string]any{
		"role":      caller.Role.String(),
		"referrer":  trackFields(tracks.Referrer),
		"candidate": trackFields(tracks.Candidate),
	}
	if current, ok := tracks.For(caller.Role); ok {
		fields["current"] = trackFields(current)
	}

	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, toStatusError(err)
	}
	return resp, nil
}

func trackFields(t subscription.Track) map[string]any {
	fields := map[string]any{"status": string(t.Status)}
	if t.Interval != "" {
		fields["interval"] = string(t.Interval)
	}
	putTime(fields, "start_date", t.StartDate)
	putTime(fields, "end_date", t.EndDate)
	putTime(fields, "next_billing_date", t.NextBillingDate)
	return fields
}

func putTime(fields map[string]any, key string, t *time.Time) {
	if t != nil {
		fields[key] = t.UTC().Format(time.RFC3339)
	}
}
