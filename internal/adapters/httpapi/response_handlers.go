package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ogurasousui/referral-platform/internal/core/access"
	"github.com/ogurasousui/referral-platform/internal/core/response"
)

type submitResponseRequest struct {
	ReferrerID string `json:"referrer_id"`
	Answer     string `json:"answer"`
}

func (s *server) submitResponse(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if caller.Role != access.RoleCandidate {
		writeErrorMessage(w, http.StatusForbidden, "only candidates can submit responses")
		return
	}

	var req submitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.deps.Responses.SubmitResponse(r.Context(), response.SubmitResponseInput{
		CandidateID: caller.UserID,
		ReferrerID:  req.ReferrerID,
		Answer:      req.Answer,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponseView(created))
}

func (s *server) listResponses(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	in := response.ListResponsesInput{ActorID: caller.UserID, Role: caller.Role, PageToken: q.Get("page_token")}

	if raw := q.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, response.ErrInvalidPageSize.Error())
			return
		}
		in.PageSize = size
	}
	if raw := q.Get("status"); raw != "" {
		status := response.Status(raw)
		in.Status = &status
	}

	result, err := s.deps.Responses.ListResponses(r.Context(), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	views := make([]responseView, 0, len(result.Responses))
	for _, resp := range result.Responses {
		views = append(views, toResponseView(resp))
	}
	writeJSON(w, http.StatusOK, pageView[responseView]{Items: views, NextPageToken: result.NextPageToken})
}

type reviewResponseRequest struct {
	Decision string `json:"decision"`
}

func (s *server) reviewResponse(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req reviewResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reviewed, err := s.deps.Responses.ReviewResponse(r.Context(), response.ReviewResponseInput{
		ID:         chi.URLParam(r, "id"),
		ReviewerID: caller.UserID,
		Decision:   response.Status(req.Decision),
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponseView(reviewed))
}
