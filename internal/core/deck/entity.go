package deck

import "time"

// Status はデッキの公開状態を表します。
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Deck は候補者が作成する紹介用デッキです。
type Deck struct {
	ID        string
	OwnerID   string
	Title     string
	Summary   *string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}
