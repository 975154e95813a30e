package response

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ogurasousui/referral-platform/internal/core/access"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
	maxAnswerLength     = 4000
)

// Service は要件への回答に関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
}

// UseCase は回答ユースケースの公開インターフェースです。
type UseCase interface {
	SubmitResponse(ctx context.Context, in SubmitResponseInput) (*Response, error)
	ListResponses(ctx context.Context, in ListResponsesInput) (*ListResponsesResult, error)
	ReviewResponse(ctx context.Context, in ReviewResponseInput) (*Response, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx}
}

// SubmitResponseInput は回答提出時の入力です。
type SubmitResponseInput struct {
	CandidateID string
	ReferrerID  string
	Answer      string
}

// ListResponsesInput は一覧取得時の入力です。
// Role が referrer の場合は受け取った回答を、candidate の場合は提出した回答を返します。
type ListResponsesInput struct {
	ActorID   string
	Role      access.Role
	Status    *Status
	PageSize  int
	PageToken string
}

// ListResponsesResult は一覧取得結果を表します。
type ListResponsesResult struct {
	Responses     []*Response
	NextPageToken string
}

// ReviewResponseInput は審査時の入力です。
type ReviewResponseInput struct {
	ID         string
	ReviewerID string
	Decision   Status
}

// SubmitResponse は回答を提出します。
func (s *Service) SubmitResponse(ctx context.Context, in SubmitResponseInput) (*Response, error) {
	if err := validateID(in.CandidateID); err != nil {
		return nil, fmt.Errorf("candidate_id: %w", err)
	}
	if err := validateID(in.ReferrerID); err != nil {
		return nil, fmt.Errorf("referrer_id: %w", err)
	}
	if in.CandidateID == in.ReferrerID {
		return nil, ErrSelfResponse
	}

	answer := strings.TrimSpace(in.Answer)
	if answer == "" || utf8.RuneCountInString(answer) > maxAnswerLength {
		return nil, ErrInvalidAnswer
	}

	var created *Response
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.checkParticipants(txCtx, in.CandidateID, in.ReferrerID); err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &Response{
			ReferrerID:  in.ReferrerID,
			CandidateID: in.CandidateID,
			Answer:      answer,
			Status:      StatusSubmitted,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}
	return created, nil
}

// checkParticipants は送信者が候補者、宛先が紹介者であることを確認します。
// 宛先が紹介者でない場合は存在しない宛先として扱います。
func (s *Service) checkParticipants(ctx context.Context, candidateID, referrerID string) error {
	role, err := s.repo.FindParticipantRole(ctx, candidateID)
	if err != nil {
		return fmt.Errorf("candidate_id: %w", err)
	}
	if role != access.RoleCandidate {
		return fmt.Errorf("candidate_id: %w", ErrInvalidRole)
	}

	role, err = s.repo.FindParticipantRole(ctx, referrerID)
	if err != nil {
		return fmt.Errorf("referrer_id: %w", err)
	}
	if role != access.RoleReferrer {
		return fmt.Errorf("referrer_id: %w", ErrParticipantNotFound)
	}
	return nil
}

// ListResponses は呼び出し元のロールに応じた回答一覧を返します。
func (s *Service) ListResponses(ctx context.Context, in ListResponsesInput) (*ListResponsesResult, error) {
	if err := validateID(in.ActorID); err != nil {
		return nil, fmt.Errorf("actor_id: %w", err)
	}

	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	filter := ListResponsesFilter{Limit: limit, Offset: offset}
	actor := in.ActorID
	switch in.Role {
	case access.RoleReferrer:
		filter.ReferrerID = &actor
	case access.RoleCandidate:
		filter.CandidateID = &actor
	default:
		return nil, ErrInvalidRole
	}

	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return nil, ErrInvalidDecision
		}
		status := *in.Status
		filter.Status = &status
	}

	var result *ListResponsesResult
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		responses, next, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		result = &ListResponsesResult{Responses: responses, NextPageToken: next}
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// ReviewResponse は宛先の紹介者が回答を承認または却下します。
func (s *Service) ReviewResponse(ctx context.Context, in ReviewResponseInput) (*Response, error) {
	if err := validateID(in.ID); err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	if in.Decision != StatusAccepted && in.Decision != StatusRejected {
		return nil, ErrInvalidDecision
	}

	var reviewed *Response
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		if existing.ReferrerID != in.ReviewerID {
			return ErrNotRecipient
		}
		if existing.Status != StatusSubmitted {
			return ErrAlreadyReviewed
		}

		now := s.clock.Now()
		existing.Status = in.Decision
		existing.ReviewedAt = &now
		existing.UpdatedAt = now

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}
		reviewed = result
		return nil
	}); err != nil {
		return nil, err
	}
	return reviewed, nil
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusSubmitted, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
