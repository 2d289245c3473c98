package fulfill

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces a minimum interval between outbound replies per chat.
// The limiter map is shared between the event loop and the issuance workers,
// so a worker reply and a dispatcher reply for the same chat pace each other.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	limiters map[int64]*rate.Limiter
}

// NewThrottle creates a throttle with the given minimum reply interval.
// A non-positive interval disables throttling.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{
		interval: interval,
		limiters: make(map[int64]*rate.Limiter),
	}
}

// Wait blocks until a reply may be sent on the chat, then records the send
// slot. Chats never delay each other.
func (t *Throttle) Wait(ctx context.Context, chatID int64) {
	if t.interval <= 0 {
		return
	}
	_ = t.limiterFor(chatID).Wait(ctx)
}

func (t *Throttle) limiterFor(chatID int64) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	lim, ok := t.limiters[chatID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(t.interval), 1)
		t.limiters[chatID] = lim
	}
	return lim
}
