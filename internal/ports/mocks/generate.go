//go:generate mockgen -source=../cart_repository.go     -destination=./mock_cart_repository.go     -package=mocks
//go:generate mockgen -source=../discount_repository.go -destination=./mock_discount_repository.go -package=mocks
//go:generate mockgen -source=../catalog.go             -destination=./mock_catalog.go             -package=mocks
//go:generate mockgen -source=../discount_cache.go      -destination=./mock_discount_cache.go      -package=mocks
//go:generate mockgen -source=../validator.go           -destination=./mock_validator.go           -package=mocks
//go:generate mockgen -source=../logger.go              -destination=./mock_logger.go              -package=mocks
//go:generate mockgen -source=../message_consumer.go    -destination=./mock_message_consumer.go    -package=mocks
//go:generate mockgen -source=../services.go            -destination=./mock_services.go            -package=mocks

package mocks
