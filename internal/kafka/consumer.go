package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Gunvolt24/shop_pricing/internal/ports"
	"github.com/Gunvolt24/shop_pricing/pkg/metrics"
	"github.com/segmentio/kafka-go"
)

var _ ports.MessageConsumer = (*Consumer)(nil)

// reader — минимальный контракт над kafka.Reader, подменяется моком в тестах.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Config() kafka.ReaderConfig
	Close() error
}

// messageHandler — разбор события подтверждения заказа и фиксация использования промокода.
type messageHandler interface {
	HandleOrderConfirmed(ctx context.Context, raw []byte) error
}

// Consumer читает топик подтверждённых заказов с ручным коммитом оффсетов.
// Семантика at-least-once: повторная доставка безопасна, т.к. фиксация
// использования идемпотентна по order_id.
type Consumer struct {
	reader         reader
	handler        messageHandler
	log            ports.Logger
	processTimeout time.Duration
	fetchRetry     *backoff
	handleRetry    *backoff // повторы обработки одного и того же сообщения
	closeOnce      sync.Once
}

// NewConsumer — конструктор; невалидная конфигурация возвращается ошибкой.
func NewConsumer(cfg *ConsumerConfig, handler messageHandler, log ports.Logger) (*Consumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := cfg.withDefaults()
	return newConsumer(kafka.NewReader(c.ReaderConfig()), handler, log, c, time.Now().UnixNano()), nil
}

func newConsumer(r reader, handler messageHandler, log ports.Logger, cfg ConsumerConfig, seed int64) *Consumer {
	return &Consumer{
		reader:         r,
		handler:        handler,
		log:            log,
		processTimeout: cfg.ProcessTimeout,
		fetchRetry:     newBackoff(cfg.RetryInitial, cfg.RetryMax, seed),
		handleRetry:    newBackoff(min(cfg.RetryInitial, 500*time.Millisecond), cfg.RetryMax, seed+1),
	}
}

// Run — основной цикл до отмены контекста:
//   - успешная фиксация → коммит;
//   - невалидное событие или окончательный отказ (код не найден, лимит исчерпан) → лог и коммит;
//   - временная ошибка (БД, таймаут) → повтор того же сообщения с backoff, следующее
//     не читается: коммит более позднего оффсета сдвинул бы группу и за это сообщение.
func (c *Consumer) Run(ctx context.Context) error {
	rc := c.reader.Config()
	c.log.Infof(ctx, "order consumer started topic=%s group_id=%s brokers=%v", rc.Topic, rc.GroupID, rc.Brokers)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			delay := c.fetchRetry.next()
			c.log.Warnf(ctx, "fetch failed: %v (will retry in %s)", err, delay)
			if !sleepCtx(ctx, delay) {
				return ctx.Err()
			}
			continue
		}

		c.fetchRetry.reset()
		metrics.KafkaMessagesConsumed.WithLabelValues(rc.Topic).Inc()

		if !c.process(ctx, rc.Topic, &msg) {
			// остановка посреди повторов: оффсет не коммитим, после рестарта сообщение придёт снова
			return ctx.Err()
		}
		c.commitSafely(ctx, &msg)
	}
}

// process — обработка сообщения до окончательного исхода; false — контекст отменён раньше.
func (c *Consumer) process(ctx context.Context, topic string, msg *kafka.Message) bool {
	c.handleRetry.reset()
	for !c.handleMessage(ctx, topic, msg) {
		if !sleepCtx(ctx, c.handleRetry.next()) {
			return false
		}
	}
	return true
}

// Close закрывает reader; повторные вызовы возвращают nil.
func (c *Consumer) Close() (retErr error) {
	c.closeOnce.Do(func() {
		if err := c.reader.Close(); err != nil {
			retErr = fmt.Errorf("close kafka reader: %w", err)
		}
	})
	return retErr
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
