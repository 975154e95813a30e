package handler

import (
	"context"
	"math"
	"time"

	"github.com/ogurasousui/referral-platform/internal/core/deck"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// DeckGrpcHandler は platform.v1.DeckService を実装します。
type DeckGrpcHandler struct {
	uc deck.UseCase
}

// NewDeckGrpcHandler は DeckGrpcHandler を生成します。
func NewDeckGrpcHandler(uc deck.UseCase) *DeckGrpcHandler {
	return &DeckGrpcHandler{uc: uc}
}

// GetDeck は ID でデッキを取得します。下書きは所有者にのみ返却します。
func (h *DeckGrpcHandler) GetDeck(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	id := req.GetFields()["id"].GetStringValue()
	d, err := h.uc.GetDeck(ctx, deck.GetDeckInput{ID: id})
	if err != nil {
		return nil, toStatusError(err)
	}
	if d.Status != deck.StatusPublished && d.OwnerID != caller.UserID {
		return nil, toStatusError(deck.ErrDeckNotFound)
	}

	return toDeckStruct(d)
}

// ListDecks は公開済みデッキ、または mine 指定時は呼び出し元のデッキを返却します。
func (h *DeckGrpcHandler) ListDecks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	fields := req.GetFields()
	pageSize, err := pageSizeField(fields["page_size"])
	if err != nil {
		return nil, err
	}
	in := deck.ListDecksInput{
		PageSize:  pageSize,
		PageToken: fields["page_token"].GetStringValue(),
	}
	if fields["mine"].GetBoolValue() {
		ownerID := caller.UserID
		in.OwnerID = &ownerID
	}

	result, err := h.uc.ListDecks(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	decks := make([]any, 0, len(result.Decks))
	for _, d := range result.Decks {
		decks = append(decks, deckFields(d))
	}
	resp, err := structpb.NewStruct(map[string]any{
		"decks":           decks,
		"next_page_token": result.NextPageToken,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// pageSizeField は page_size を整数として取り出します。
// 未指定は 0 とし、小数や範囲外の値は InvalidArgument になります。
func pageSizeField(v *structpb.Value) (int, error) {
	if v == nil {
		return 0, nil
	}
	switch v.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return 0, nil
	case *structpb.Value_NumberValue:
	default:
		return 0, status.Error(codes.InvalidArgument, deck.ErrInvalidPageSize.Error())
	}

	n := v.GetNumberValue()
	if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) || n < 0 || n > math.MaxInt32 {
		return 0, status.Error(codes.InvalidArgument, deck.ErrInvalidPageSize.Error())
	}
	return int(n), nil
}

func toDeckStruct(d *deck.Deck) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(deckFields(d))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

func deckFields(d *deck.Deck) map[string]any {
	fields := map[string]any{
		"id":         d.ID,
		"owner_id":   d.OwnerID,
		"title":      d.Title,
		"status":     string(d.Status),
		"created_at": d.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at": d.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if d.Summary != nil {
		fields["summary"] = *d.Summary
	}
	return fields
}
