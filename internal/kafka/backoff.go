package kafka

import (
	"math/rand"
	"time"
)

// backoff — экспоненциальная задержка повторов (чтение, обработка) с equal-jitter:
// половина интервала фиксирована, вторая половина случайна. Не потокобезопасен,
// используется только из цикла Run.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
	rnd     *rand.Rand
}

func newBackoff(initial, maxDelay time.Duration, seed int64) *backoff {
	return &backoff{
		initial: initial,
		max:     maxDelay,
		current: initial,
		rnd:     rand.New(rand.NewSource(seed)),
	}
}

// next — задержка перед очередным повтором; следующий интервал удваивается до max.
func (b *backoff) next() time.Duration {
	d := b.jitter(b.current)
	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return d
}

// reset — после успешного чтения снова начинаем с initial.
func (b *backoff) reset() { b.current = b.initial }

func (b *backoff) jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	return half + time.Duration(b.rnd.Int63n(int64(d-half)+1))
}
