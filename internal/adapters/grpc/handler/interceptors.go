package handler

import (
	"context"
	"strings"

	"github.com/ogurasousui/referral-platform/internal/adapters/auth"
	"github.com/ogurasousui/referral-platform/internal/core/access"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// CallerResolver は authorization メタデータから呼び出し元を解決します。
type CallerResolver interface {
	Resolve(ctx context.Context, header string) (*access.Caller, error)
}

// Gate は保護対象操作の呼び出し可否を判定します。
type Gate interface {
	Evaluate(op access.Operation, caller *access.Caller) (bool, error)
}

// DefaultPolicy は gRPC API の組み込み要件です。グループはサービス名、操作は完全修飾メソッド名です。
func DefaultPolicy() *access.Policy {
	return access.NewPolicy().
		RequireGroup(DeckServiceName, "active", "trialing").
		RequireOperation(GetDeckMethod)
}

// AuthUnaryInterceptor は呼び出し元をコンテキストに格納します。
// メタデータがない場合は未認証のまま後続に渡します。
func AuthUnaryInterceptor(resolver CallerResolver) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get("authorization"); len(values) > 0 {
				header = values[0]
			}
		}

		caller, err := resolver.Resolve(ctx, header)
		if err != nil {
			return nil, toStatusError(err)
		}
		if caller != nil {
			ctx = auth.WithCaller(ctx, caller)
		}
		return next(ctx, req)
	}
}

// GuardUnaryInterceptor はハンドラ実行前にサブスクリプション要件を評価します。
func GuardUnaryInterceptor(gate Gate) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		op := access.Operation{Group: serviceName(info.FullMethod), Name: info.FullMethod}
		allowed, err := gate.Evaluate(op, auth.CallerFromContext(ctx))
		if err != nil {
			return nil, toStatusError(err)
		}
		if !allowed {
			return nil, status.Error(codes.PermissionDenied, "forbidden")
		}
		return next(ctx, req)
	}
}

func serviceName(fullMethod string) string {
	trimmed := strings.TrimPrefix(fullMethod, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[:idx]
	}
	return trimmed
}

func requireCaller(ctx context.Context) (*access.Caller, error) {
	caller := auth.CallerFromContext(ctx)
	if caller == nil {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	return caller, nil
}
