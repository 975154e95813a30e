package access

import (
	"fmt"
	"strings"
)

// Role はユーザーが現在利用しているロールを表します。
// ユーザーは常に単一のロールのみを保持します。
type Role string

const (
	RoleReferrer  Role = "referrer"
	RoleCandidate Role = "candidate"
)

// ParseRole は文字列をロールへ変換します。
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Known() {
		return "", fmt.Errorf("%q: %w", raw, ErrUnknownRole)
	}
	return role, nil
}

// Known は既知のロールであれば true を返します。
func (r Role) Known() bool {
	switch r {
	case RoleReferrer, RoleCandidate:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
