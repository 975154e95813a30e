package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ogurasousui/referral-platform/internal/adapters/auth"
	"github.com/ogurasousui/referral-platform/internal/core/access"
	"github.com/ogurasousui/referral-platform/internal/core/deck"
	"github.com/ogurasousui/referral-platform/internal/core/response"
	"github.com/ogurasousui/referral-platform/internal/core/subscription"
	"github.com/ogurasousui/referral-platform/internal/core/user"
	"github.com/rs/zerolog"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeError はドメインエラーを HTTP ステータスへ変換して書き込みます。
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var forbidden *access.ForbiddenError
	switch {
	case errors.As(err, &forbidden):
		writeErrorMessage(w, http.StatusForbidden, forbidden.Message)
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUnknownUser):
		writeErrorMessage(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, deck.ErrDeckNotFound),
		errors.Is(err, response.ErrResponseNotFound),
		errors.Is(err, response.ErrParticipantNotFound),
		errors.Is(err, subscription.ErrAccountNotFound):
		writeErrorMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, user.ErrEmailAlreadyExists),
		errors.Is(err, deck.ErrAlreadyPublished),
		errors.Is(err, response.ErrAlreadyReviewed):
		writeErrorMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, deck.ErrNotOwner),
		errors.Is(err, deck.ErrNotCandidate),
		errors.Is(err, response.ErrNotRecipient):
		writeErrorMessage(w, http.StatusForbidden, err.Error())
	case isInvalidArgument(err):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error().Err(err).Msg("unhandled error")
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func isInvalidArgument(err error) bool {
	for _, target := range []error{
		user.ErrInvalidEmail, user.ErrInvalidName, user.ErrInvalidStatus, user.ErrInvalidRole,
		user.ErrInvalidID, user.ErrInvalidPageSize, user.ErrInvalidPageToken,
		deck.ErrInvalidTitle, deck.ErrInvalidID, deck.ErrInvalidPageSize, deck.ErrInvalidPageToken,
		deck.ErrOwnerNotFound,
		response.ErrInvalidAnswer, response.ErrInvalidID, response.ErrInvalidRole, response.ErrInvalidDecision,
		response.ErrSelfResponse, response.ErrInvalidPageSize, response.ErrInvalidPageToken,
		subscription.ErrInvalidRole, subscription.ErrInvalidID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
