package deck

import "errors"

var (
	// ErrDeckNotFound はデッキが存在しない場合に返却されます。
	ErrDeckNotFound = errors.New("deck not found")
	// ErrOwnerNotFound は所有者となるユーザーが存在しない場合に返却されます。
	ErrOwnerNotFound = errors.New("deck owner not found")
	// ErrNotCandidate は候補者以外がデッキを作成しようとした場合に返却されます。
	ErrNotCandidate = errors.New("only candidates can own decks")
	// ErrNotOwner は所有者以外が変更しようとした場合に返却されます。
	ErrNotOwner = errors.New("deck is owned by another user")
	// ErrInvalidTitle はタイトルが不正な場合に返却されます。
	ErrInvalidTitle = errors.New("invalid title")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errors.New("invalid id")
	// ErrAlreadyPublished は公開済みのデッキを再公開しようとした場合に返却されます。
	ErrAlreadyPublished = errors.New("deck already published")
	// ErrInvalidPageSize は一覧取得時のページサイズが不正な場合に返却されます。
	ErrInvalidPageSize = errors.New("invalid page size")
	// ErrInvalidPageToken は一覧取得時のページトークンが不正な場合に返却されます。
	ErrInvalidPageToken = errors.New("invalid page token")
)
