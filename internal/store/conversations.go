package store

import (
	"sync"

	"github.com/tinechelovec/funpay-premium-bot/internal/domain"
)

// Conversations holds active purchase conversations, indexed by both chat id
// and buyer id. The two indices always point at the same entries: removing by
// either key removes the mirrored one.
type Conversations struct {
	mu      sync.Mutex
	byChat  map[int64]*domain.Conversation
	byBuyer map[int64]*domain.Conversation
}

// NewConversations creates an empty conversation store.
func NewConversations() *Conversations {
	return &Conversations{
		byChat:  make(map[int64]*domain.Conversation),
		byBuyer: make(map[int64]*domain.Conversation),
	}
}

// Bind inserts a conversation under both keys. An existing conversation for
// the same chat or buyer is replaced (last order wins).
func (s *Conversations) Bind(conv *domain.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byChat[conv.ChatID]; ok {
		delete(s.byBuyer, old.BuyerID)
	}
	if old, ok := s.byBuyer[conv.BuyerID]; ok {
		delete(s.byChat, old.ChatID)
	}
	s.byChat[conv.ChatID] = conv
	s.byBuyer[conv.BuyerID] = conv
}

// PopByChat removes and returns the conversation bound to chatID, clearing
// both indices. Returns nil if no conversation is bound.
func (s *Conversations) PopByChat(chatID int64) *domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.byChat[chatID]
	if !ok {
		return nil
	}
	delete(s.byChat, chatID)
	delete(s.byBuyer, conv.BuyerID)
	return conv
}

// PopByBuyer removes and returns the conversation bound to buyerID, clearing
// both indices. Returns nil if no conversation is bound.
func (s *Conversations) PopByBuyer(buyerID int64) *domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.byBuyer[buyerID]
	if !ok {
		return nil
	}
	delete(s.byBuyer, buyerID)
	delete(s.byChat, conv.ChatID)
	return conv
}

// Lookup returns the conversation reachable by either key, preferring the
// chat-keyed entry. Returns nil if neither key is bound.
func (s *Conversations) Lookup(chatID, buyerID int64) *domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.byChat[chatID]; ok {
		return conv
	}
	return s.byBuyer[buyerID]
}

// Len returns the number of active conversations.
func (s *Conversations) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byChat)
}
