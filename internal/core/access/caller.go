package access

// Caller は認証済みの呼び出し元です。
// 両ロールのサブスクリプション状態を保持しますが、参照されるのは Role に対応する側のみです。
type Caller struct {
	UserID                      string
	Role                        Role
	ReferrerSubscriptionStatus  string
	CandidateSubscriptionStatus string
}
