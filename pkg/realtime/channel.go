package realtime

import (
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"nomorewaste/domain"
)

// Channel is the set of live sessions watching one household, keyed by session id.
type Channel struct {
	FridgeID string

	mu       sync.RWMutex
	sessions map[string]*Client
}

func NewChannel(fridgeID string) *Channel {
	return &Channel{FridgeID: fridgeID, sessions: make(map[string]*Client)}
}

func (c *Channel) Join(client *Client) {
	if client == nil || client.SessionID == "" {
		return
	}
	c.mu.Lock()
	c.sessions[client.SessionID] = client
	c.mu.Unlock()
	log.Infof("realtime: session %s joined fridge %s", client.SessionID, c.FridgeID)
}

// Leave drops one session and returns how many are left. The client is stopped only after
// it is out of the map.
func (c *Channel) Leave(sessionID string) int {
	if gone := c.remove(func(cl *Client) bool { return cl.SessionID == sessionID }, (*Client).Close); len(gone) > 0 {
		log.Infof("realtime: session %s left fridge %s", sessionID, c.FridgeID)
	}
	return c.Len()
}

// Evict stops every session matching the predicate and returns how many are left.
func (c *Channel) Evict(match func(*Client) bool) int {
	for _, cl := range c.remove(match, (*Client).Evict) {
		log.Infof("realtime: evicted session %s of %s from fridge %s", cl.SessionID, cl.UserID, c.FridgeID)
	}
	return c.Len()
}

func (c *Channel) remove(match func(*Client) bool, stop func(*Client)) []*Client {
	var out []*Client
	c.mu.Lock()
	for id, cl := range c.sessions {
		if match(cl) {
			out = append(out, cl)
			delete(c.sessions, id)
		}
	}
	c.mu.Unlock()

	for _, cl := range out {
		stop(cl)
	}
	return out
}

func (c *Channel) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// Broadcast never waits on a session. A full queue loses the event; that member's next
// re-fetch fills the gap.
func (c *Channel) Broadcast(ev domain.ChangeEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, cl := range c.sessions {
		if cl.offer(ev) {
			eventsDelivered.Inc()
			continue
		}
		select {
		case <-cl.Done():
		default:
			eventsDropped.Inc()
			log.Warnf("realtime: dropped %s %s for session %s", ev.Type, ev.Table, cl.SessionID)
		}
	}
}
