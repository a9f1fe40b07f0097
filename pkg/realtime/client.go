package realtime

import (
	"sync"

	"nomorewaste/domain"
)

// Client is a member's live feed session. The gateway drains Send; everyone else only
// offers to it.
type Client struct {
	SessionID string
	UserID    string
	Send      chan domain.ChangeEvent

	once    sync.Once
	stopped chan struct{}
	reason  string
}

func NewClient(userID, sessionID string, sendQueueSize int) *Client {
	if sendQueueSize <= 0 {
		sendQueueSize = defaultSendQueueSize
	}
	return &Client{
		SessionID: sessionID,
		UserID:    userID,
		Send:      make(chan domain.ChangeEvent, sendQueueSize),
		stopped:   make(chan struct{}),
	}
}

// Done is closed once the session has been stopped.
func (c *Client) Done() <-chan struct{} {
	return c.stopped
}

// Close stops the session. Send stays open: a broadcaster racing with Close must not panic.
func (c *Client) Close() {
	c.stop("")
}

// Evict stops the session because the member lost access to the household.
func (c *Client) Evict() {
	c.stop(evictedReason)
}

// Evicted reports whether the session was stopped by Evict.
func (c *Client) Evicted() bool {
	select {
	case <-c.stopped:
		return c.reason == evictedReason
	default:
		return false
	}
}

func (c *Client) stop(reason string) {
	c.once.Do(func() {
		c.reason = reason
		close(c.stopped)
	})
}

// offer queues ev without blocking. It reports false when the session is stopped or its
// queue is full.
func (c *Client) offer(ev domain.ChangeEvent) bool {
	select {
	case <-c.stopped:
		return false
	default:
	}
	select {
	case c.Send <- ev:
		return true
	default:
		return false
	}
}
