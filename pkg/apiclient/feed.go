package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/gofiber/fiber/v2/log"

	"nomorewaste/domain"
	"nomorewaste/pkg/realtime"
)

const maxEventBytes = 64 << 10

// Feed subscribes to a household's change events over the websocket gateway.
type Feed struct {
	wsURL  string
	token  string
	client *http.Client
}

// NewFeed dials wsURL, which may be given with an http(s) or ws(s) scheme. A bare host
// URL gets the /ws path.
func NewFeed(wsURL, token string, client *http.Client) *Feed {
	return &Feed{wsURL: wsURL, token: token, client: client}
}

func (f *Feed) endpoint() (string, error) {
	u, err := url.Parse(f.wsURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Subscribe connects and streams events until ctx ends or the connection drops, then
// closes the returned channel.
func (f *Feed) Subscribe(ctx context.Context) (<-chan domain.ChangeEvent, error) {
	endpoint, err := f.endpoint()
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+f.token)

	conn, resp, err := websocket.Dial(ctx, endpoint, &websocket.DialOptions{
		HTTPClient:   f.client,
		HTTPHeader:   header,
		Subprotocols: []string{realtime.Subprotocol},
	})
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return nil, errors.Join(domain.ErrTokenInvalid, err)
			case http.StatusForbidden:
				return nil, errors.Join(domain.ErrNotAMember, err)
			}
		}
		return nil, err
	}
	if conn.Subprotocol() != realtime.Subprotocol {
		_ = conn.Close(websocket.StatusPolicyViolation, "unexpected subprotocol")
		return nil, errors.New("feed: server did not accept subprotocol " + realtime.Subprotocol)
	}
	conn.SetReadLimit(maxEventBytes)

	events := make(chan domain.ChangeEvent, 64)
	go func() {
		defer close(events)
		defer conn.Close(websocket.StatusNormalClosure, "")
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				if ctx.Err() == nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
					log.Infof("feed: read: %v", err)
				}
				return
			}
			if typ != websocket.MessageText {
				continue
			}
			var ev domain.ChangeEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				log.Warnf("feed: bad frame %s: %v", strings.TrimSpace(string(data)), err)
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}
