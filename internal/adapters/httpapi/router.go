package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ogurasousui/referral-platform/internal/core/access"
	"github.com/ogurasousui/referral-platform/internal/core/deck"
	"github.com/ogurasousui/referral-platform/internal/core/response"
	"github.com/ogurasousui/referral-platform/internal/core/subscription"
	"github.com/ogurasousui/referral-platform/internal/core/user"
	"github.com/ogurasousui/referral-platform/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// CallerResolver は Authorization ヘッダーから呼び出し元を解決します。
type CallerResolver interface {
	Resolve(ctx context.Context, header string) (*access.Caller, error)
}

// TokenIssuer はユーザー登録時にアクセストークンを発行します。
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

// Gate は保護対象操作の呼び出し可否を判定します。
type Gate interface {
	Evaluate(op access.Operation, caller *access.Caller) (bool, error)
}

// Dependencies は HTTP API が利用するユースケースと基盤部品です。
type Dependencies struct {
	Users          user.UseCase
	Subscriptions  subscription.UseCase
	Decks          deck.UseCase
	Responses      response.UseCase
	Resolver       CallerResolver
	Tokens         TokenIssuer
	Gate           Gate
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Logger         zerolog.Logger
	AllowedOrigins []string
}

type server struct {
	deps   Dependencies
	logger zerolog.Logger
	now    func() time.Time
}

// NewRouter は HTTP API のルーターを構築します。
// deck と response のルートグループはそれぞれ要件グループ decks / responses に対応します。
func NewRouter(deps Dependencies) http.Handler {
	s := &server{
		deps:   deps,
		logger: deps.Logger.With().Str("component", "http").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestContext)
	r.Use(s.observe)
	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/plans", s.listPlans)
		r.Post("/users", s.registerUser)

		r.Route("/me", func(r chi.Router) {
			r.Get("/", s.getMe)
			r.Patch("/", s.updateMe)
			r.Delete("/", s.deleteMe)
			r.Get("/subscription", s.getMySubscription)
		})

		r.Route("/decks", func(r chi.Router) {
			r.With(s.guard(GroupDecks, OpDecksCreate)).Post("/", s.createDeck)
			r.With(s.guard(GroupDecks, OpDecksList)).Get("/", s.listDecks)
			r.With(s.guard(GroupDecks, OpDecksGet)).Get("/{id}", s.getDeck)
			r.With(s.guard(GroupDecks, OpDecksPublish)).Post("/{id}/publish", s.publishDeck)
			r.With(s.guard(GroupDecks, OpDecksDelete)).Delete("/{id}", s.deleteDeck)
		})

		r.With(s.guard(GroupResponses, OpReferrersList)).Get("/referrers", s.listReferrers)

		r.Route("/responses", func(r chi.Router) {
			r.With(s.guard(GroupResponses, OpResponsesSubmit)).Post("/", s.submitResponse)
			r.With(s.guard(GroupResponses, OpResponsesList)).Get("/", s.listResponses)
			r.With(s.guard(GroupResponses, OpResponsesReview)).Post("/{id}/review", s.reviewResponse)
		})
	})

	return r
}
