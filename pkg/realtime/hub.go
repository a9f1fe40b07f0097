package realtime

import (
	"sync"

	"nomorewaste/domain"
)

// Hub owns one Channel per household with connected members.
type Hub struct {
	mu       sync.Mutex
	channels map[string]*Channel
}

func NewHub() *Hub {
	return &Hub{channels: make(map[string]*Channel)}
}

func (h *Hub) GetOrCreateChannel(fridgeID string) *Channel {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.channels[fridgeID]; ok {
		return c
	}
	c := NewChannel(fridgeID)
	h.channels[fridgeID] = c
	return c
}

// Join adds the client to its household's channel. It holds the hub lock so a concurrent
// Leave cannot drop the channel between lookup and join.
func (h *Hub) Join(fridgeID string, client *Client) *Channel {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.channels[fridgeID]
	if !ok {
		c = NewChannel(fridgeID)
		h.channels[fridgeID] = c
	}
	c.Join(client)
	return c
}

// Leave removes the session and drops the channel once nobody is listening.
func (h *Hub) Leave(fridgeID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.channels[fridgeID]
	if !ok {
		return
	}
	if c.Leave(sessionID) == 0 {
		delete(h.channels, fridgeID)
	}
}

// EvictMember closes every session userID has open on fridgeID's feed.
func (h *Hub) EvictMember(fridgeID, userID string) {
	h.evict(fridgeID, func(cl *Client) bool { return cl.UserID == userID })
}

// EvictFridge closes every session on fridgeID's feed.
func (h *Hub) EvictFridge(fridgeID string) {
	h.evict(fridgeID, func(*Client) bool { return true })
}

func (h *Hub) evict(fridgeID string, match func(*Client) bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.channels[fridgeID]
	if !ok {
		return
	}
	if c.Evict(match) == 0 {
		delete(h.channels, fridgeID)
	}
}

// Publish delivers ev to the household it belongs to. Households with nobody connected
// are skipped.
func (h *Hub) Publish(ev domain.ChangeEvent) {
	h.mu.Lock()
	c := h.channels[ev.FridgeID]
	h.mu.Unlock()

	eventsPublished.WithLabelValues(ev.Table).Inc()
	if c == nil {
		return
	}
	c.Broadcast(ev)
}

func (h *Hub) Channels() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels)
}
