package store

import (
	"testing"

	"github.com/tinechelovec/funpay-premium-bot/internal/domain"
)

func newConv(buyerID, chatID int64, orderID string) *domain.Conversation {
	return &domain.Conversation{
		BuyerID: buyerID,
		ChatID:  chatID,
		OrderID: orderID,
		Months:  3,
		Phase:   domain.PhaseAwaitingNick,
	}
}

func TestConversationsBindAndLookup(t *testing.T) {
	t.Parallel()

	s := NewConversations()
	conv := newConv(10, 100, "A1")
	s.Bind(conv)

	if got := s.Lookup(100, 0); got != conv {
		t.Errorf("Lookup by chat: expected %v, got %v", conv, got)
	}
	if got := s.Lookup(0, 10); got != conv {
		t.Errorf("Lookup by buyer: expected %v, got %v", conv, got)
	}
	if s.Len() != 1 {
		t.Errorf("Expected 1 conversation, got %d", s.Len())
	}
}

func TestConversationsPopByChatClearsBothIndices(t *testing.T) {
	t.Parallel()

	s := NewConversations()
	s.Bind(newConv(10, 100, "A1"))

	if got := s.PopByChat(100); got == nil {
		t.Fatal("Expected conversation from PopByChat")
	}
	if got := s.Lookup(100, 10); got != nil {
		t.Errorf("Expected nil after pop, got %v", got)
	}
	if got := s.PopByBuyer(10); got != nil {
		t.Errorf("Expected nil from PopByBuyer after PopByChat, got %v", got)
	}
}

func TestConversationsPopByBuyerClearsBothIndices(t *testing.T) {
	t.Parallel()

	s := NewConversations()
	s.Bind(newConv(10, 100, "A1"))

	if got := s.PopByBuyer(10); got == nil {
		t.Fatal("Expected conversation from PopByBuyer")
	}
	if got := s.PopByChat(100); got != nil {
		t.Errorf("Expected nil from PopByChat after PopByBuyer, got %v", got)
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty store, got %d", s.Len())
	}
}

func TestConversationsDoublePop(t *testing.T) {
	t.Parallel()

	s := NewConversations()
	s.Bind(newConv(10, 100, "A1"))

	if got := s.PopByChat(100); got == nil {
		t.Fatal("Expected conversation from first pop")
	}
	if got := s.PopByChat(100); got != nil {
		t.Errorf("Expected nil from second pop, got %v", got)
	}
}

func TestConversationsBindOverwrites(t *testing.T) {
	t.Parallel()

	s := NewConversations()
	s.Bind(newConv(10, 100, "A1"))
	s.Bind(newConv(10, 100, "B2"))

	got := s.Lookup(100, 10)
	if got == nil || got.OrderID != "B2" {
		t.Fatalf("Expected last order to win, got %v", got)
	}
	if s.Len() != 1 {
		t.Errorf("Expected 1 conversation after overwrite, got %d", s.Len())
	}
}

func TestConversationsBindReplacesCrossKeyedState(t *testing.T) {
	t.Parallel()

	// A buyer rebinding under a different chat must not leave the old
	// chat index pointing at a stale conversation.
	s := NewConversations()
	s.Bind(newConv(10, 100, "A1"))
	s.Bind(newConv(10, 200, "B2"))

	if got := s.Lookup(100, 0); got != nil {
		t.Errorf("Expected stale chat key to be cleared, got %v", got)
	}
	got := s.Lookup(200, 10)
	if got == nil || got.OrderID != "B2" {
		t.Fatalf("Expected rebound conversation, got %v", got)
	}
	if s.Len() != 1 {
		t.Errorf("Expected 1 conversation, got %d", s.Len())
	}
}
