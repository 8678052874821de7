//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
)

// UniqueTopicAndGroup — уникальные topic/group для теста: "<base>-<UniqSuffix>".
func UniqueTopicAndGroup(base string) (topic, group string) {
	name := base + "-" + UniqSuffix()
	return name, name + "-g"
}

// EnsureTopic создаёт однопартиционный топик подтверждённых заказов (существующий — не ошибка)
// и ждёт его появления в метаданных. broker: "host:port", "PLAINTEXT://host:port" или список через запятую.
func EnsureTopic(ctx context.Context, broker, topic string) error {
	addr := bootstrapAddr(broker)

	conn, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	ctrl, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("controller: %w", err)
	}
	admin, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(ctrl.Host, strconv.Itoa(ctrl.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer admin.Close()

	err = admin.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	return waitTopicReady(ctx, addr, topic, 5*time.Second)
}

// PublishOrderConfirmed пишет события с ключом order_id — так их публикует сервис заказов.
func PublishOrderConfirmed(ctx context.Context, brokers []string, topic string, events ...domain.OrderConfirmed) error {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		raw, err := json.Marshal(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{Key: []byte(e.OrderID), Value: raw})
	}
	return publish(ctx, brokers, topic, msgs...)
}

// PublishRaw — произвольное тело (для проверки пропуска мусора).
func PublishRaw(ctx context.Context, brokers []string, topic, key string, payload []byte) error {
	return publish(ctx, brokers, topic, kafka.Message{Key: []byte(key), Value: payload})
}

func publish(ctx context.Context, brokers []string, topic string, msgs ...kafka.Message) error {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
	}
	defer w.Close()
	return w.WriteMessages(ctx, msgs...)
}

// bootstrapAddr — первый адрес bootstrap-строки без схемы.
func bootstrapAddr(raw string) string {
	first := strings.TrimSpace(strings.Split(raw, ",")[0])
	if u, err := url.Parse(first); err == nil && u.Scheme != "" && u.Host != "" {
		return u.Host
	}
	return first
}

func waitTopicReady(ctx context.Context, broker, topic string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		var err error
		if c, dErr := kafka.DialContext(ctx, "tcp", broker); dErr == nil {
			parts, pErr := c.ReadPartitions(topic)
			_ = c.Close()
			if pErr == nil && len(parts) > 0 {
				return nil
			}
			err = pErr
		} else {
			err = dErr
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("topic %q not ready: %w", topic, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}
