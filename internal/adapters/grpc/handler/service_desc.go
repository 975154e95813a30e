package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// サービス名は要件グループ名としても使われます。
const (
	SubscriptionServiceName = "platform.v1.SubscriptionService"
	DeckServiceName         = "platform.v1.DeckService"
)

// 完全修飾メソッド名は操作名としても使われます。
const (
	GetSubscriptionMethod = "/" + SubscriptionServiceName + "/GetSubscription"
	GetDeckMethod         = "/" + DeckServiceName + "/GetDeck"
	ListDecksMethod       = "/" + DeckServiceName + "/ListDecks"
)

// SubscriptionServiceServer は platform.v1.SubscriptionService のサーバーです。
type SubscriptionServiceServer interface {
	GetSubscription(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// DeckServiceServer は platform.v1.DeckService のサーバーです。
type DeckServiceServer interface {
	GetDeck(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListDecks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// SubscriptionServiceDesc は platform.v1.SubscriptionService の定義です。
var SubscriptionServiceDesc = grpc.ServiceDesc{
	ServiceName: SubscriptionServiceName,
	HandlerType: (*SubscriptionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetSubscription",
			Handler: unaryHandler(GetSubscriptionMethod, func(srv any, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
				return srv.(SubscriptionServiceServer).GetSubscription(ctx, req)
			}),
		},
	},
	Metadata: "platform/v1/platform.proto",
}

// DeckServiceDesc は platform.v1.DeckService の定義です。
var DeckServiceDesc = grpc.ServiceDesc{
	ServiceName: DeckServiceName,
	HandlerType: (*DeckServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetDeck",
			Handler: unaryHandler(GetDeckMethod, func(srv any, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
				return srv.(DeckServiceServer).GetDeck(ctx, req)
			}),
		},
		{
			MethodName: "ListDecks",
			Handler: unaryHandler(ListDecksMethod, func(srv any, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
				return srv.(DeckServiceServer).ListDecks(ctx, req)
			}),
		},
	},
	Metadata: "platform/v1/platform.proto",
}

type structMethod func(srv any, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv, ctx, req.(*structpb.Struct))
		})
	}
}

// RegisterSubscriptionServiceServer は SubscriptionService を登録します。
func RegisterSubscriptionServiceServer(s grpc.ServiceRegistrar, srv SubscriptionServiceServer) {
	s.RegisterService(&SubscriptionServiceDesc, srv)
}

// RegisterDeckServiceServer は DeckService を登録します。
func RegisterDeckServiceServer(s grpc.ServiceRegistrar, srv DeckServiceServer) {
	s.RegisterService(&DeckServiceDesc, srv)
}
