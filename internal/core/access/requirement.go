package access

import "strings"

// Requirement は操作が受け付けるサブスクリプション状態の順序付きリストです。
// 空の Requirement は制限なしを意味します。
type Requirement []string

// Require は Requirement を宣言します。
// 宣言時に状態文字列の検証は行わないため、未知の値は単に一致しません。
func Require(statuses ...string) Requirement {
	req := make(Requirement, len(statuses))
	copy(req, statuses)
	return req
}

// Empty は制限がない場合に true を返します。
func (r Requirement) Empty() bool {
	return len(r) == 0
}

// Allows は status がいずれかの要件と完全一致する場合に true を返します。
func (r Requirement) Allows(status string) bool {
	for _, s := range r {
		if s == status {
			return true
		}
	}
	return false
}

// Describe は要件を conjunction で連結した文字列を返します。
// 例: ["active", "trialing", "past_due"] → "active, trialing or past_due"
func (r Requirement) Describe(conjunction string) string {
	switch len(r) {
	case 0:
		return ""
	case 1:
		return r[0]
	default:
		head := strings.Join(r[:len(r)-1], ", ")
		return head + " " + conjunction + " " + r[len(r)-1]
	}
}
