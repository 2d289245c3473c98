package ops

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/tinechelovec/funpay-premium-bot/internal/fulfill"
)

const subscriberBuffer = 32

// Broadcaster fans pipeline activity out to connected websocket subscribers.
// Publishing never blocks: a subscriber that cannot keep up loses events.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan fulfill.Activity]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan fulfill.Activity]struct{})}
}

// Publish delivers an activity to every subscriber, dropping it for slow ones.
func (b *Broadcaster) Publish(a fulfill.Activity) {
	if a.At.IsZero() {
		a.At = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- a:
		default:
		}
	}
}

func (b *Broadcaster) subscribe() chan fulfill.Activity {
	ch := make(chan fulfill.Activity, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broadcaster) unsubscribe(ch chan fulfill.Activity) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// ServeHTTP upgrades the request to a websocket and streams activity until
// the client disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("failed to accept feed websocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "feed closed"); closeErr != nil {
			slog.Debug("failed to close feed websocket", "error", closeErr)
		}
	}()

	ch := b.subscribe()
	defer b.unsubscribe(ch)

	// Write-only endpoint: CloseRead keeps control frames processed and
	// cancels the context when the client disconnects.
	ctx := ws.CloseRead(r.Context())
	for {
		select {
		case a := <-ch:
			if err := writeJSON(ctx, ws, a); err != nil {
				slog.Debug("feed subscriber write failed", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
