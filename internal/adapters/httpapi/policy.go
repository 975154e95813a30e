package httpapi

import "github.com/ogurasousui/referral-platform/internal/core/access"

// 要件グループ名。chi のルートグループと一対一に対応します。
const (
	GroupDecks     = "decks"
	GroupResponses = "responses"
)

// 操作名。設定ファイルの access.operations から参照されます。
const (
	OpDecksCreate     = "decks.create"
	OpDecksList       = "decks.list"
	OpDecksGet        = "decks.get"
	OpDecksPublish    = "decks.publish"
	OpDecksDelete     = "decks.delete"
	OpResponsesSubmit = "responses.submit"
	OpResponsesList   = "responses.list"
	OpResponsesReview = "responses.review"
	OpReferrersList   = "responses.referrers"
)

// DefaultPolicy は HTTP API の組み込み要件です。
func DefaultPolicy() *access.Policy {
	return access.NewPolicy().
		RequireGroup(GroupDecks, "active", "trialing").
		RequireOperation(OpDecksGet).
		RequireGroup(GroupResponses, "active").
		RequireOperation(OpResponsesSubmit, "active", "trialing").
		RequireOperation(OpReferrersList, "active", "trialing")
}
