package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/tinechelovec/funpay-premium-bot/internal/domain"
	"github.com/tinechelovec/funpay-premium-bot/internal/fulfill"
	"github.com/tinechelovec/funpay-premium-bot/internal/store"
)

type fakeJournal struct {
	entries []*domain.JournalEntry
	err     error
}

func (f *fakeJournal) Record(_ context.Context, e *domain.JournalEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeJournal) Recent(_ context.Context, _ int) ([]*domain.JournalEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func (f *fakeJournal) Ping(_ context.Context) error { return nil }
func (f *fakeJournal) Close() error                 { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *store.Conversations, *Broadcaster) {
	t.Helper()

	conversations := store.NewConversations()
	feed := NewBroadcaster()
	journal := &fakeJournal{entries: []*domain.JournalEntry{
		{OrderID: "A1", Nick: "bob", Months: 3, Outcome: domain.OutcomeIssued},
	}}
	srv := httptest.NewServer(NewServer(conversations, journal, feed).Router())
	t.Cleanup(srv.Close)
	return srv, conversations, feed
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)
	res, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", res.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	srv, conversations, _ := newTestServer(t)
	conversations.Bind(&domain.Conversation{BuyerID: 200, ChatID: 7, OrderID: "A1", Phase: domain.PhaseAwaitingNick})

	res, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("Status request failed: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", res.StatusCode)
	}

	var status statusResponse
	if err := json.NewDecoder(res.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	if status.ActiveConversations != 1 {
		t.Errorf("Expected 1 active conversation, got %d", status.ActiveConversations)
	}
	if len(status.RecentFulfillments) != 1 || status.RecentFulfillments[0].OrderID != "A1" {
		t.Errorf("Unexpected recent fulfillments: %+v", status.RecentFulfillments)
	}
}

func subscriberCount(b *Broadcaster) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func TestFeedUnsubscribesOnClientClose(t *testing.T) {
	t.Parallel()

	srv, _, feed := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ws, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):]+"/ws/feed", nil)
	if err != nil {
		t.Fatalf("Failed to dial feed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for subscriberCount(feed) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// A disconnect must release the handler without waiting for the next
	// publish.
	if err := ws.Close(websocket.StatusNormalClosure, "bye"); err != nil {
		t.Fatalf("Failed to close feed socket: %v", err)
	}
	for subscriberCount(feed) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("Subscriber lingered after the client disconnected")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFeedStreamsActivity(t *testing.T) {
	t.Parallel()

	srv, _, feed := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ws, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):]+"/ws/feed", nil)
	if err != nil {
		t.Fatalf("Failed to dial feed: %v", err)
	}
	defer ws.Close(websocket.StatusNormalClosure, "done")

	// The subscriber registers inside the handler goroutine; publish until it
	// is connected.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			feed.Publish(fulfill.Activity{Kind: "issued", ChatID: 7, OrderID: "A1"})
			time.Sleep(10 * time.Millisecond)
		}
	}()
	defer func() { cancel(); <-done }()

	_, data, err := ws.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read feed frame: %v", err)
	}
	var got fulfill.Activity
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Failed to decode feed frame: %v", err)
	}
	if got.Kind != "issued" || got.OrderID != "A1" {
		t.Errorf("Unexpected activity: %+v", got)
	}
	if got.At.IsZero() {
		t.Error("Expected the activity to carry a timestamp")
	}
}
