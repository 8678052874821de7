package usecase

import (
	"time"

	"github.com/Gunvolt24/shop_pricing/internal/ports"
)

var _ ports.Clock = SystemClock{}

// SystemClock — системное время в UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
