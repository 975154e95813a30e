package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ogurasousui/referral-platform/internal/core/access"
	"github.com/ogurasousui/referral-platform/internal/core/user"
	"github.com/rs/zerolog"
)

// UserGetter はユーザーを ID で取得します。
type UserGetter interface {
	GetUser(ctx context.Context, in user.GetUserInput) (*user.User, error)
}

// Resolver は Authorization ヘッダーから呼び出し元を組み立てます。
// サブスクリプション状態はリクエストごとにデータベースから読み直されます。
type Resolver struct {
	tokens *Tokens
	users  UserGetter
	now    func() time.Time
	logger zerolog.Logger
}

// NewResolver は Resolver を生成します。
func NewResolver(tokens *Tokens, users UserGetter, logger zerolog.Logger) *Resolver {
	return &Resolver{
		tokens: tokens,
		users:  users,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// Resolve はヘッダー値から呼び出し元を返します。
// ヘッダーが空の場合は (nil, nil) を返し、未認証の呼び出しとして扱います。
func (r *Resolver) Resolve(ctx context.Context, header string) (*access.Caller, error) {
	if strings.TrimSpace(header) == "" {
		return nil, nil
	}

	token, ok := BearerToken(header)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, err := r.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	u, err := r.users.GetUser(ctx, user.GetUserInput{ID: userID})
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) || errors.Is(err, user.ErrInvalidID) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	if u.Status != user.StatusActive {
		r.logger.Debug().Str("user_id", u.ID).Msg("inactive user presented a token")
		return nil, ErrUnknownUser
	}

	return u.Caller(r.now()), nil
}

type callerContextKey struct{}

// WithCaller は呼び出し元をコンテキストに格納します。
func WithCaller(ctx context.Context, caller *access.Caller) context.Context {
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// CallerFromContext はコンテキストに格納された呼び出し元を返します。未認証の場合は nil です。
func CallerFromContext(ctx context.Context) *access.Caller {
	caller, _ := ctx.Value(callerContextKey{}).(*access.Caller)
	return caller
}
