package funpay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/tinechelovec/funpay-premium-bot/internal/domain"
)

const defaultPollDelay = 3 * time.Second

// Runner long-polls the marketplace for updates and turns them into domain
// events on a single channel, preserving delivery order.
type Runner struct {
	client    *Client
	pollDelay time.Duration
	tag       string
}

// NewRunner creates a Runner for the given client.
func NewRunner(client *Client) *Runner {
	return &Runner{client: client, pollDelay: defaultPollDelay}
}

type runnerUpdate struct {
	Tag    string `json:"tag"`
	Events []struct {
		Type  string `json:"type"` // "new_order" | "new_message"
		Order *struct {
			ID            string `json:"id"`
			Title         string `json:"title"`
			BuyerID       int64  `json:"buyer_id"`
			BuyerUsername string `json:"buyer_username"`
			ChatID        int64  `json:"chat_id"`
			SubcategoryID int64  `json:"subcategory_id"`
		} `json:"order,omitempty"`
		Message *struct {
			ChatID   int64  `json:"chat_id"`
			AuthorID int64  `json:"author_id"`
			Text     string `json:"text"`
		} `json:"message,omitempty"`
	} `json:"events"`
}

// Events starts the long-poll loop and returns the event channel. The channel
// closes when ctx is cancelled. Poll failures are logged and retried after
// the poll delay; they never close the stream.
func (r *Runner) Events(ctx context.Context) <-chan domain.Event {
	out := make(chan domain.Event)
	go func() {
		defer close(out)
		for {
			update, err := r.poll(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				r.client.logger.Error("runner poll failed", "error", err)
			} else {
				r.tag = update.Tag
				for _, ev := range r.convert(update) {
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
			select {
			case <-time.After(r.pollDelay):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (r *Runner) poll(ctx context.Context) (*runnerUpdate, error) {
	form := url.Values{
		"tag":     {r.tag},
		"user_id": {strconv.FormatInt(r.client.userID, 10)},
	}
	raw, err := r.client.postForm(ctx, "/runner/", form)
	if err != nil {
		return nil, fmt.Errorf("runner poll: %w", err)
	}
	var update runnerUpdate
	if err := json.Unmarshal(raw, &update); err != nil {
		return nil, fmt.Errorf("decode runner update: %w", err)
	}
	return &update, nil
}

func (r *Runner) convert(update *runnerUpdate) []domain.Event {
	var events []domain.Event
	for _, ev := range update.Events {
		switch {
		case ev.Type == "new_order" && ev.Order != nil:
			events = append(events, domain.NewOrderEvent{Order: domain.Order{
				ID:            ev.Order.ID,
				Title:         ev.Order.Title,
				BuyerID:       ev.Order.BuyerID,
				BuyerUsername: ev.Order.BuyerUsername,
				ChatID:        ev.Order.ChatID,
				SubcategoryID: ev.Order.SubcategoryID,
			}})
		case ev.Type == "new_message" && ev.Message != nil:
			events = append(events, domain.NewMessageEvent{Message: domain.Message{
				ChatID:   ev.Message.ChatID,
				AuthorID: ev.Message.AuthorID,
				Text:     ev.Message.Text,
			}})
		}
	}
	return events
}
