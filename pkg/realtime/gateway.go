package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/gofiber/fiber/v2/log"

	"nomorewaste/domain"
	"nomorewaste/pkg/ids"
)

type (
	// TokenValidator resolves a bearer token to a member id and e-mail.
	TokenValidator interface {
		GetUserIDByToken(token string) (string, string, error)
	}

	// FridgeResolver finds the household a member belongs to.
	FridgeResolver interface {
		FridgeIDFor(ctx context.Context, userID string) (string, error)
	}

	GatewayOption func(*Gateway)
)

// WithOriginPatterns authorizes cross-origin browser connections from the given host patterns.
func WithOriginPatterns(patterns ...string) GatewayOption {
	return func(g *Gateway) { g.originPatterns = patterns }
}

func WithHeartbeat(every, timeout time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.heartbeatEvery = every
		g.heartbeatTimeout = timeout
	}
}

func WithSendQueueSize(n int) GatewayOption {
	return func(g *Gateway) { g.sendQueueSize = n }
}

// Gateway upgrades authenticated members to a websocket carrying their household's
// change events. The feed is one-way: inbound data frames are not expected.
type Gateway struct {
	hub     *Hub
	tokens  TokenValidator
	members FridgeResolver

	originPatterns   []string
	heartbeatEvery   time.Duration
	heartbeatTimeout time.Duration
	sendQueueSize    int
}

func NewGateway(hub *Hub, tokens TokenValidator, members FridgeResolver, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		hub:              hub,
		tokens:           tokens,
		members:          members,
		heartbeatEvery:   heartbeatInterval,
		heartbeatTimeout: heartbeatTimeout,
		sendQueueSize:    defaultSendQueueSize,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func bearerToken(r *http.Request) string {
	if t := strings.TrimSpace(r.URL.Query().Get("token")); t != "" {
		return t
	}
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		http.Error(w, domain.ErrTokenNotFound.Error(), http.StatusUnauthorized)
		return
	}
	userID, _, err := g.tokens.GetUserIDByToken(token)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	fridgeID, err := g.members.FridgeIDFor(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{Subprotocol},
		OriginPatterns: g.originPatterns,
	})
	if err != nil {
		log.Errorf("realtime: accept: %v", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	if sp := conn.Subprotocol(); sp != Subprotocol {
		log.Infof("realtime: reject subprotocol %q", sp)
		_ = conn.Close(websocket.StatusPolicyViolation, "subprotocol "+Subprotocol+" required")
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	client := NewClient(userID, ids.NewULID(time.Now()), g.sendQueueSize)
	g.hub.Join(fridgeID, client)
	sessionsActive.Inc()

	// CloseRead keeps control frames flowing and cancels ctx when the peer goes away.
	ctx, cancel := context.WithCancel(conn.CloseRead(r.Context()))
	defer cancel()

	var closeOnce sync.Once
	shutdown := func(code websocket.StatusCode, reason string) {
		closeOnce.Do(func() {
			g.hub.Leave(fridgeID, client.SessionID)
			sessionsActive.Dec()
			client.Close()
			_ = conn.Close(code, reason)
			cancel()
		})
	}
	defer shutdown(websocket.StatusNormalClosure, "bye")

	go g.heartbeat(ctx, conn, client, shutdown)

	for {
		select {
		case <-ctx.Done():
			return
		case <-client.Done():
			if client.Evicted() {
				shutdown(websocket.StatusPolicyViolation, evictedReason)
			}
			return
		case ev := <-client.Send:
			if err := writeEvent(ctx, conn, ev); err != nil {
				log.Infof("realtime: write to session %s: %v", client.SessionID, err)
				shutdown(websocket.StatusAbnormalClosure, "write failed")
				return
			}
		}
	}
}

func (g *Gateway) heartbeat(ctx context.Context, conn *websocket.Conn, client *Client, shutdown func(websocket.StatusCode, string)) {
	t := time.NewTicker(g.heartbeatEvery)
	defer t.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-client.Done():
			return
		case <-t.C:
			hbCtx, hbCancel := context.WithTimeout(ctx, g.heartbeatTimeout)
			err := conn.Ping(hbCtx)
			hbCancel()

			if err != nil {
				failures++
				log.Infof("realtime: ping session %s failed (%d): %v", client.SessionID, failures, err)
				if failures >= maxPingFailures {
					shutdown(websocket.StatusGoingAway, "heartbeat failed")
					return
				}
				continue
			}
			failures = 0
		}
	}
}

func writeEvent(parent context.Context, conn *websocket.Conn, ev domain.ChangeEvent) error {
	ctx, cancel := context.WithTimeout(parent, writeTimeout)
	defer cancel()

	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, b)
}
