package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ogurasousui/referral-platform/internal/core/subscription"
	"github.com/ogurasousui/referral-platform/internal/platform/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// RoutingKeyPrefix は請求イベントのルーティングキー接頭辞です。
const RoutingKeyPrefix = "subscription."

const (
	resultApplied  = "applied"
	resultRejected = "rejected"
	resultRetried  = "retried"
)

// EventApplier は請求イベントをサブスクリプションに適用します。
type EventApplier interface {
	ApplyEvent(ctx context.Context, ev subscription.Event) (*subscription.Track, error)
}

// EventRecorder は処理結果を記録します。
type EventRecorder interface {
	RecordBillingEvent(kind, result string)
}

type noopRecorder struct{}

func (noopRecorder) RecordBillingEvent(string, string) {}

// Consumer は請求イベントを購読してサブスクリプション状態へ反映します。
type Consumer struct {
	cfg      config.RabbitMQConfig
	applier  EventApplier
	recorder EventRecorder
	logger   zerolog.Logger
}

// NewConsumer は Consumer を生成します。recorder が nil の場合は記録しません。
func NewConsumer(cfg config.RabbitMQConfig, applier EventApplier, recorder EventRecorder, logger zerolog.Logger) *Consumer {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Consumer{
		cfg:      cfg,
		applier:  applier,
		recorder: recorder,
		logger:   logger.With().Str("component", "billing_consumer").Logger(),
	}
}

// Run はブローカーへ接続し、ctx がキャンセルされるまでメッセージを処理します。
func (c *Consumer) Run(ctx context.Context) error {
	amqpURL, err := sanitizeURL(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq url: %w", err)
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	msgs, err := c.subscribe(ch)
	if err != nil {
		return err
	}

	c.logger.Info().
		Str("exchange", c.cfg.Exchange).
		Str("queue", c.cfg.Queue).
		Msg("billing consumer started")

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr := <-closed:
			if amqpErr == nil {
				return nil
			}
			return fmt.Errorf("rabbitmq connection closed: %w", amqpErr)
		case d, ok := <-msgs:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			c.Handle(ctx, d)
		}
	}
}

func (c *Consumer) subscribe(ch *amqp.Channel) (<-chan amqp.Delivery, error) {
	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	if err := ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", c.cfg.Exchange, err)
	}
	q, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", c.cfg.Queue, err)
	}
	if err := ch.QueueBind(q.Name, RoutingKeyPrefix+"*", c.cfg.Exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue %s: %w", q.Name, err)
	}
	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", q.Name, err)
	}
	return msgs, nil
}

// Handle は 1 件のメッセージを処理して ack/reject/nack を返します。
// 解釈できないイベントは再投入せずに破棄し、それ以外の失敗は再投入します。
func (c *Consumer) Handle(ctx context.Context, d amqp.Delivery) {
	kind := strings.TrimPrefix(d.RoutingKey, RoutingKeyPrefix)

	ev, err := decodeEvent(d.Body, kind)
	if err != nil {
		c.logger.Warn().Err(err).Str("routing_key", d.RoutingKey).Msg("discarding malformed billing event")
		c.recorder.RecordBillingEvent(kind, resultRejected)
		_ = d.Reject(false)
		return
	}

	track, err := c.applier.ApplyEvent(ctx, ev)
	switch {
	case err == nil:
		c.logger.Info().
			Str("user_id", ev.UserID).
			Str("role", ev.Role.String()).
			Str("kind", string(ev.Kind)).
			Str("status", string(track.Status)).
			Msg("billing event applied")
		c.recorder.RecordBillingEvent(string(ev.Kind), resultApplied)
		_ = d.Ack(false)
	case errors.Is(err, subscription.ErrInvalidEvent), errors.Is(err, subscription.ErrAccountNotFound):
		c.logger.Warn().Err(err).Str("user_id", ev.UserID).Str("kind", string(ev.Kind)).Msg("discarding billing event")
		c.recorder.RecordBillingEvent(string(ev.Kind), resultRejected)
		_ = d.Reject(false)
	default:
		c.logger.Error().Err(err).Str("user_id", ev.UserID).Str("kind", string(ev.Kind)).Msg("billing event failed; requeueing")
		c.recorder.RecordBillingEvent(string(ev.Kind), resultRetried)
		_ = d.Nack(false, true)
	}
}

// decodeEvent は本文を Event に変換します。本文に kind がない場合はルーティングキーの値を使います。
func decodeEvent(body []byte, routingKind string) (subscription.Event, error) {
	var ev subscription.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return subscription.Event{}, fmt.Errorf("decode billing event: %w", err)
	}
	if ev.Kind == "" {
		ev.Kind = subscription.EventKind(routingKind)
	}
	if ev.Kind == "" {
		return subscription.Event{}, errors.New("billing event has no kind")
	}
	return ev, nil
}

func sanitizeURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	parsed, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
		return "", fmt.Errorf("invalid AMQP scheme: %q", parsed.Scheme)
	}
	return clean, nil
}
