// ABOUTME: Exponential backoff for the reconnect supervisor
// ABOUTME: Doubles from a minimum up to a cap and resets after a healthy connection
package spotlink

import "time"

const (
	DefaultMinBackoff = 500 * time.Millisecond
	DefaultMaxBackoff = 30 * time.Second
)

type backoff struct {
	floor, ceiling time.Duration
	next           time.Duration
}

func newBackoff(floor, ceiling time.Duration) *backoff {
	if floor <= 0 {
		floor = DefaultMinBackoff
	}
	if ceiling < floor {
		ceiling = floor
	}
	return &backoff{floor: floor, ceiling: ceiling, next: floor}
}

// Next returns the delay before the following attempt.
func (b *backoff) Next() time.Duration {
	d := b.next
	b.next *= 2
	if b.next > b.ceiling {
		b.next = b.ceiling
	}
	return d
}

func (b *backoff) Reset() {
	b.next = b.floor
}
