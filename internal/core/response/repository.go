package response

import (
	"context"

	"github.com/ogurasousui/referral-platform/internal/core/access"
)

// Repository は回答の永続化を行うインターフェースです。
type Repository interface {
	Create(ctx context.Context, r *Response) (*Response, error)
	Update(ctx context.Context, r *Response) (*Response, error)
	FindByID(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, filter ListResponsesFilter) ([]*Response, string, error)
	// FindParticipantRole は回答の当事者となるユーザーの現在のロールを返します。
	FindParticipantRole(ctx context.Context, userID string) (access.Role, error)
}

// ListResponsesFilter は一覧取得時の検索条件を表します。
type ListResponsesFilter struct {
	Limit       int
	Offset      int
	ReferrerID  *string
	CandidateID *string
	Status      *Status
}
