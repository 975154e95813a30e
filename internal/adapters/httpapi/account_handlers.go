package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ogurasousui/referral-platform/internal/core/access"
	"github.com/ogurasousui/referral-platform/internal/core/subscription"
	"github.com/ogurasousui/referral-platform/internal/core/user"
)

type registerUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type registerUserResponse struct {
	User      userView  `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *server) registerUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.deps.Users.CreateUser(r.Context(), user.CreateUserInput{Email: req.Email, Name: req.Name, Role: req.Role})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	token, expiresAt, err := s.deps.Tokens.Issue(created.ID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerUserResponse{User: toUserView(created, s.now()), Token: token, ExpiresAt: expiresAt})
}

func (s *server) getMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	found, err := s.deps.Users.GetUser(r.Context(), user.GetUserInput{ID: caller.UserID})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(found, s.now()))
}

type updateMeRequest struct {
	Name *string `json:"name"`
	Role *string `json:"role"`
}

func (s *server) updateMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req updateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.deps.Users.UpdateUser(r.Context(), user.UpdateUserInput{ID: caller.UserID, Name: req.Name, Role: req.Role})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(updated, s.now()))
}

// deleteMe は呼び出し元のアカウントを削除します。デッキと回答も合わせて削除されます。
func (s *server) deleteMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	if err := s.deps.Users.DeleteUser(r.Context(), user.DeleteUserInput{ID: caller.UserID}); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listReferrers は回答の宛先となる有効な紹介者の一覧を返します。
func (s *server) listReferrers(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireCaller(w, r); !ok {
		return
	}

	q := r.URL.Query()
	role := string(access.RoleReferrer)
	status := user.StatusActive
	in := user.ListUsersInput{PageToken: q.Get("page_token"), Role: &role, Status: &status}
	if raw := q.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, user.ErrInvalidPageSize.Error())
			return
		}
		in.PageSize = size
	}

	result, err := s.deps.Users.ListUsers(r.Context(), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	views := make([]referrerView, 0, len(result.Users))
	for _, u := range result.Users {
		views = append(views, referrerView{ID: u.ID, Name: u.Name})
	}
	writeJSON(w, http.StatusOK, pageView[referrerView]{Items: views, NextPageToken: result.NextPageToken})
}

func (s *server) getMySubscription(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	tracks, err := s.deps.Subscriptions.GetTracks(r.Context(), subscription.GetTracksInput{UserID: caller.UserID})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	current, _ := tracks.For(caller.Role)
	writeJSON(w, http.StatusOK, subscriptionView{
		Role:      string(caller.Role),
		Current:   toTrackView(current),
		Referrer:  toTrackView(tracks.Referrer),
		Candidate: toTrackView(tracks.Candidate),
	})
}

func (s *server) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.deps.Subscriptions.ListPlans(r.Context(), subscription.ListPlansInput{Role: r.URL.Query().Get("role")})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	views := make([]planView, 0, len(plans))
	for _, p := range plans {
		views = append(views, toPlanView(p))
	}
	writeJSON(w, http.StatusOK, pageView[planView]{Items: views})
}
