package kafka

import (
	"context"
	"errors"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/pkg/ctxmeta"
	"github.com/Gunvolt24/shop_pricing/pkg/metrics"
	"github.com/segmentio/kafka-go"
)

// Исходы неудачной обработки (метка outcome).
const (
	outcomeInvalid  = "invalid"  // событие не разбирается; коммитим
	outcomeRejected = "rejected" // код не найден или лимит исчерпан; коммитим
	outcomeRetry    = "retry"    // временная ошибка; повтор того же сообщения
)

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return outcomeInvalid
	case domain.IsExpected(err):
		return outcomeRejected
	default:
		return outcomeRetry
	}
}

// handleMessage — обработка одного события; true — оффсет нужно закоммитить.
// Ключ сообщения — order_id (так публикует сервис заказов), он попадает в контекст логов
// ещё до разбора тела.
func (c *Consumer) handleMessage(ctx context.Context, topic string, msg *kafka.Message) bool {
	ctx = ctxmeta.WithOrderID(ctx, string(msg.Key))

	procCtx, cancel := context.WithTimeout(ctx, c.processTimeout)
	err := c.handler.HandleOrderConfirmed(procCtx, msg.Value)
	cancel()

	if err == nil {
		metrics.KafkaMessagesProcessed.WithLabelValues(topic).Inc()
		return true
	}

	outcome := outcomeOf(err)
	metrics.KafkaMessagesFailed.WithLabelValues(topic, outcome).Inc()

	if outcome == outcomeRetry {
		c.log.Warnf(ctx, "order event failed partition=%d offset=%d: %v (will retry)",
			msg.Partition, msg.Offset, err)
		return false
	}
	if reason, ok := domain.IneligibilityOf(err); ok {
		c.log.Warnf(ctx, "redemption rejected partition=%d offset=%d reason=%s (skipped)", msg.Partition, msg.Offset, reason)
	} else {
		c.log.Warnf(ctx, "order event %s partition=%d offset=%d: %v (skipped)", outcome, msg.Partition, msg.Offset, err)
	}
	return true
}

func (c *Consumer) commitSafely(ctx context.Context, msg *kafka.Message) {
	if err := c.reader.CommitMessages(ctx, *msg); err != nil {
		c.log.Warnf(ctx, "commit failed partition=%d offset=%d: %v", msg.Partition, msg.Offset, err)
	}
}
