package ports

import "context"

// MessageConsumer - фоновый потребитель сообщений (Kafka).
type MessageConsumer interface {
	Run(ctx context.Context) error
	Close() error
}
