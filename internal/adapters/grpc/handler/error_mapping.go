package handler

import (
	"errors"

	"github.com/ogurasousui/referral-platform/internal/adapters/auth"
	"github.com/ogurasousui/referral-platform/internal/core/access"
	"github.com/ogurasousui/referral-platform/internal/core/deck"
	"github.com/ogurasousui/referral-platform/internal/core/subscription"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toStatusError(err error) error {
	var forbidden *access.ForbiddenError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &forbidden):
		return status.Error(codes.PermissionDenied, forbidden.Message)
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUnknownUser):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, deck.ErrInvalidID),
		errors.Is(err, deck.ErrInvalidPageSize),
		errors.Is(err, deck.ErrInvalidPageToken),
		errors.Is(err, subscription.ErrInvalidID),
		errors.Is(err, subscription.ErrInvalidRole):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, deck.ErrDeckNotFound), errors.Is(err, subscription.ErrAccountNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
