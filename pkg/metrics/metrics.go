package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	KafkaMessagesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Order events fetched from Kafka",
		},
		[]string{"topic"},
	)
	KafkaMessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_processed_total",
			Help: "Order events applied (redemption recorded or no code)",
		},
		[]string{"topic"},
	)
	KafkaMessagesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_failed_total",
			Help: "Order events that were not applied, by outcome",
		},
		[]string{"topic", "outcome"}, // invalid|rejected|retry
	)
)

var (
	CacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discount_cache_operations_total",
			Help: "Discount definition cache operations",
		},
		[]string{"op"}, // hit|miss|evicted|expired|invalidated
	)
	CacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "discount_cache_size",
			Help: "Number of discount definitions currently in cache",
		},
	)
)

var (
	CartRecomputations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cart_recomputations_total",
			Help: "Number of cart total recomputations",
		},
	)
	CartStaleItems = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cart_stale_items_total",
			Help: "Cart items excluded from totals because the product no longer resolves",
		},
	)
	CatalogLookupFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_lookup_failures_total",
			Help: "Catalog lookups that failed or timed out",
		},
	)
	DiscountValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discount_validations_total",
			Help: "Discount code validations by outcome",
		},
		[]string{"outcome"}, // ok|not_found|inactive|expired|...
	)
	DiscountRedemptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discount_redemptions_total",
			Help: "Discount redemption attempts by outcome",
		},
		[]string{"outcome"}, // ok|replayed|limit_reached|customer_limit_reached|not_found|error
	)
)

var (
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

var registerOnce sync.Once

// MustRegister регистрирует метрики в DefaultRegisterer; повторные вызовы ничего не делают.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			KafkaMessagesConsumed, KafkaMessagesProcessed, KafkaMessagesFailed,
			CacheOps, CacheSize,
			CartRecomputations, CartStaleItems, CatalogLookupFailures,
			DiscountValidations, DiscountRedemptions,
			HTTPRequestDuration,
		)
	})
}
