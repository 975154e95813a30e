package response

import "time"

// Status は要件への回答の審査状態を表します。
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
)

// Response は候補者が紹介者の募集要件に対して提出する回答です。
type Response struct {
	ID          string
	ReferrerID  string
	CandidateID string
	Answer      string
	Status      Status
	ReviewedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
