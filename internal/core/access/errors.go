package access

import "errors"

var (
	// ErrForbidden はアクセスが拒否された場合に返却されます。
	ErrForbidden = errors.New("forbidden")
	// ErrUnknownRole は未知のロールが指定された場合に返却されます。
	ErrUnknownRole = errors.New("unknown role")
)

// DenialKind は拒否理由の種類です。
type DenialKind int

const (
	// DenialInsufficientSubscription はサブスクリプション状態が要件を満たさないことを表します。
	DenialInsufficientSubscription DenialKind = iota + 1
	// DenialUnrecognizedRole は呼び出し元のロールが判定対象外であることを表します。
	DenialUnrecognizedRole
)

// ForbiddenError は利用者に提示可能なメッセージを持つ拒否エラーです。
type ForbiddenError struct {
	Kind      DenialKind
	Operation Operation
	Role      Role
	Required  Requirement
	Message   string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}
