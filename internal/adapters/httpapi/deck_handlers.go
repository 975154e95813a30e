package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ogurasousui/referral-platform/internal/adapters/auth"
	"github.com/ogurasousui/referral-platform/internal/core/deck"
)

type createDeckRequest struct {
	Title   string  `json:"title"`
	Summary *string `json:"summary"`
}

func (s *server) createDeck(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req createDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.deps.Decks.CreateDeck(r.Context(), deck.CreateDeckInput{
		OwnerID:   caller.UserID,
		OwnerRole: caller.Role,
		Title:     req.Title,
		Summary:   req.Summary,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDeckView(created))
}

func (s *server) listDecks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := deck.ListDecksInput{PageToken: q.Get("page_token")}

	if raw := q.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, deck.ErrInvalidPageSize.Error())
			return
		}
		in.PageSize = size
	}

	if mine, _ := strconv.ParseBool(q.Get("mine")); mine {
		caller, ok := requireCaller(w, r)
		if !ok {
			return
		}
		owner := caller.UserID
		in.OwnerID = &owner
	}

	result, err := s.deps.Decks.ListDecks(r.Context(), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	views := make([]deckView, 0, len(result.Decks))
	for _, d := range result.Decks {
		views = append(views, toDeckView(d))
	}
	writeJSON(w, http.StatusOK, pageView[deckView]{Items: views, NextPageToken: result.NextPageToken})
}

// getDeck は公開済みのデッキを返します。下書きは所有者にのみ返します。
func (s *server) getDeck(w http.ResponseWriter, r *http.Request) {
	found, err := s.deps.Decks.GetDeck(r.Context(), deck.GetDeckInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	if found.Status != deck.StatusPublished {
		caller := auth.CallerFromContext(r.Context())
		if caller == nil || caller.UserID != found.OwnerID {
			writeError(w, s.logger, deck.ErrDeckNotFound)
			return
		}
	}
	writeJSON(w, http.StatusOK, toDeckView(found))
}

func (s *server) publishDeck(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	published, err := s.deps.Decks.PublishDeck(r.Context(), deck.PublishDeckInput{ID: chi.URLParam(r, "id"), ActorID: caller.UserID})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeckView(published))
}

func (s *server) deleteDeck(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	if err := s.deps.Decks.DeleteDeck(r.Context(), deck.DeleteDeckInput{ID: chi.URLParam(r, "id"), ActorID: caller.UserID}); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
