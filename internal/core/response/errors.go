package response

import "errors"

var (
	// ErrResponseNotFound は回答が存在しない場合に返却されます。
	ErrResponseNotFound = errors.New("requirement response not found")
	// ErrParticipantNotFound は紹介者または候補者が存在しない場合に返却されます。
	ErrParticipantNotFound = errors.New("referrer or candidate not found")
	// ErrInvalidAnswer は回答本文が不正な場合に返却されます。
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errors.New("invalid id")
	// ErrInvalidRole はロールが不正な場合に返却されます。
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidDecision は審査結果が不正な場合に返却されます。
	ErrInvalidDecision = errors.New("invalid decision")
	// ErrSelfResponse は自分自身に回答しようとした場合に返却されます。
	ErrSelfResponse = errors.New("cannot respond to own requirement")
	// ErrNotRecipient は宛先の紹介者以外が審査しようとした場合に返却されます。
	ErrNotRecipient = errors.New("response is addressed to another referrer")
	// ErrAlreadyReviewed は審査済みの回答を再審査しようとした場合に返却されます。
	ErrAlreadyReviewed = errors.New("response already reviewed")
	// ErrInvalidPageSize は一覧取得時のページサイズが不正な場合に返却されます。
	ErrInvalidPageSize = errors.New("invalid page size")
	// ErrInvalidPageToken は一覧取得時のページトークンが不正な場合に返却されます。
	ErrInvalidPageToken = errors.New("invalid page token")
)
