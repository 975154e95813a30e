package deck

import "context"

// Repository はデッキの永続化を行うインターフェースです。
type Repository interface {
	Create(ctx context.Context, deck *Deck) (*Deck, error)
	Update(ctx context.Context, deck *Deck) (*Deck, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Deck, error)
	List(ctx context.Context, filter ListDecksFilter) ([]*Deck, string, error)
}

// ListDecksFilter は一覧取得時の検索条件を表します。
type ListDecksFilter struct {
	Limit   int
	Offset  int
	OwnerID *string
	Status  *Status
}
