package subscription

import "errors"

var (
	// ErrAccountNotFound はサブスクリプションを保持するユーザーが存在しない場合に返却されます。
	ErrAccountNotFound = errors.New("subscription account not found")
	// ErrInvalidEvent は請求イベントが不正な場合に返却されます。
	ErrInvalidEvent = errors.New("invalid billing event")
	// ErrInvalidRole はロールが不正な場合に返却されます。
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errors.New("invalid id")
)
