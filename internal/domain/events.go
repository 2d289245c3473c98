package domain

// Event is a marketplace update consumed by the dispatcher. Events arrive in
// delivery order on a single channel.
type Event interface {
	eventMarker()
}

// NewOrderEvent signals that a buyer paid for an order.
type NewOrderEvent struct {
	Order Order
}

// NewMessageEvent signals a new chat message.
type NewMessageEvent struct {
	Message Message
}

func (NewOrderEvent) eventMarker()   {}
func (NewMessageEvent) eventMarker() {}
