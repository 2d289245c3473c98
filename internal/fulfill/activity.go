package fulfill

import "time"

// Activity is one pipeline happening, published to the ops live feed.
type Activity struct {
	Kind    string    `json:"kind"`
	ChatID  int64     `json:"chat_id,omitempty"`
	OrderID string    `json:"order_id,omitempty"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

// ActivitySink receives pipeline activity. Publishing must never block the
// event loop.
type ActivitySink interface {
	Publish(a Activity)
}

type noopSink struct{}

func (noopSink) Publish(Activity) {}
