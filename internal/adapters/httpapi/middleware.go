package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ogurasousui/referral-platform/internal/adapters/auth"
	"github.com/ogurasousui/referral-platform/internal/core/access"
	"github.com/ogurasousui/referral-platform/internal/platform/logging"
)

const requestIDHeader = "X-Request-ID"

func (s *server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, id := logging.WithRequestID(r.Context(), r.Header.Get(requestIDHeader))
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		elapsed := time.Since(start)

		s.deps.Metrics.ObserveHTTPRequest(r.Method, route, status, elapsed)
		reqLogger := logging.FromContext(r.Context(), s.logger)
		reqLogger.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("request served")
	})
}

// authenticate は呼び出し元を解決してコンテキストに格納します。
// ヘッダーがない場合は未認証のまま後続に渡し、不正なトークンは 401 とします。
func (s *server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := s.deps.Resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		if caller != nil {
			r = r.WithContext(auth.WithCaller(r.Context(), caller))
		}
		next.ServeHTTP(w, r)
	})
}

// guard はハンドラ実行前にサブスクリプション要件を評価します。
func (s *server) guard(group, name string) func(http.Handler) http.Handler {
	op := access.Operation{Group: group, Name: name}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := s.deps.Gate.Evaluate(op, auth.CallerFromContext(r.Context()))
			if err != nil {
				writeError(w, s.logger, err)
				return
			}
			if !allowed {
				writeErrorMessage(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requireCaller(w http.ResponseWriter, r *http.Request) (*access.Caller, bool) {
	caller := auth.CallerFromContext(r.Context())
	if caller == nil {
		writeErrorMessage(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return caller, true
}
