package access

import (
	"fmt"

	"github.com/rs/zerolog"
)

const defaultConjunction = "or"

// Outcome は判定結果の分類です。
type Outcome string

const (
	OutcomeUnrestricted             Outcome = "unrestricted"
	OutcomeAllowed                  Outcome = "allowed"
	OutcomeUnauthenticated          Outcome = "unauthenticated"
	OutcomeInsufficientSubscription Outcome = "insufficient_subscription"
	OutcomeUnrecognizedRole         Outcome = "unrecognized_role"
)

// Recorder は判定結果を記録します。
type Recorder interface {
	RecordDecision(op Operation, outcome Outcome)
}

type noopRecorder struct{}

func (noopRecorder) RecordDecision(Operation, Outcome) {}

// Option は Evaluator の設定を変更します。
type Option func(*Evaluator)

// WithConjunction は拒否メッセージで要件を連結する語を指定します。
func WithConjunction(word string) Option {
	return func(e *Evaluator) {
		if word != "" {
			e.conjunction = word
		}
	}
}

// WithRecorder は判定結果の記録先を指定します。
func WithRecorder(r Recorder) Option {
	return func(e *Evaluator) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithLogger は拒否時のログ出力先を指定します。
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// Evaluator は保護対象操作の呼び出しごとに許可・拒否を判定します。
// 判定結果はキャッシュせず、呼び出し元の状態も変更しません。
type Evaluator struct {
	policy      *Policy
	conjunction string
	recorder    Recorder
	logger      zerolog.Logger
}

// NewEvaluator は Evaluator を生成します。
func NewEvaluator(policy *Policy, opts ...Option) *Evaluator {
	e := &Evaluator{
		policy:      policy,
		conjunction: defaultConjunction,
		recorder:    noopRecorder{},
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate は op に対する caller のアクセス可否を返します。
//
// 要件が宣言されていない、または空の場合は caller に関係なく許可します。
// caller が nil の場合はエラーを返さずに false を返します。
// ロールが判定対象外、または状態が要件に含まれない場合は *ForbiddenError を返します。
func (e *Evaluator) Evaluate(op Operation, caller *Caller) (bool, error) {
	req, declared := e.policy.Resolve(op)
	if !declared || req.Empty() {
		e.recorder.RecordDecision(op, OutcomeUnrestricted)
		return true, nil
	}

	if caller == nil {
		e.recorder.RecordDecision(op, OutcomeUnauthenticated)
		e.logger.Debug().Str("operation", op.String()).Msg("access denied: no caller")
		return false, nil
	}

	var status string
	switch caller.Role {
	case RoleReferrer:
		status = caller.ReferrerSubscriptionStatus
	case RoleCandidate:
		status = caller.CandidateSubscriptionStatus
	default:
		e.recorder.RecordDecision(op, OutcomeUnrecognizedRole)
		e.logger.Debug().
			Str("operation", op.String()).
			Str("user_id", caller.UserID).
			Str("role", string(caller.Role)).
			Msg("access denied: unrecognized role")
		return false, &ForbiddenError{
			Kind:      DenialUnrecognizedRole,
			Operation: op,
			Role:      caller.Role,
			Required:  Require(req...),
			Message:   fmt.Sprintf("role %q is not permitted to access this operation", string(caller.Role)),
		}
	}

	if req.Allows(status) {
		e.recorder.RecordDecision(op, OutcomeAllowed)
		return true, nil
	}

	e.recorder.RecordDecision(op, OutcomeInsufficientSubscription)
	e.logger.Debug().
		Str("operation", op.String()).
		Str("user_id", caller.UserID).
		Str("role", string(caller.Role)).
		Str("status", status).
		Strs("required", req).
		Msg("access denied: insufficient subscription")

	return false, &ForbiddenError{
		Kind:      DenialInsufficientSubscription,
		Operation: op,
		Role:      caller.Role,
		Required:  Require(req...),
		Message:   fmt.Sprintf("this operation requires a %s subscription that is %s", caller.Role, req.Describe(e.conjunction)),
	}
}
