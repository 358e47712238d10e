package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/sakif/flashgig/internal/model"
)

// Topics selects which events a Feed receives. At least one must be set.
type Topics struct {
	User      string
	ProjectID string
}

// Feed is a live event stream from GET /ws.
type Feed struct {
	conn *websocket.Conn
}

// Subscribe opens the websocket feed. The dial is bounded by ctx, not by the
// client's HTTP timeout; the returned Feed lives until Close or until the
// context passed to Next is done.
func (c *Client) Subscribe(ctx context.Context, topics Topics) (*Feed, error) {
	if topics.User == "" && topics.ProjectID == "" {
		return nil, &Error{Kind: KindValidation, Message: "a user or project is required"}
	}

	q := url.Values{}
	if topics.User != "" {
		q.Set("user", topics.User)
	}
	if topics.ProjectID != "" {
		q.Set("project_id", topics.ProjectID)
	}

	u := c.BaseURL + "/ws?" + q.Encode()
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}

	opts := &websocket.DialOptions{HTTPHeader: http.Header{}}
	if c.Token != "" {
		opts.HTTPHeader.Set("Authorization", "Bearer "+c.Token)
	}

	conn, resp, err := websocket.Dial(ctx, u, opts)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, errorFromResponse(resp)
		}
		return nil, &Error{Kind: KindTransport, Message: transportMessage(err), Err: err}
	}
	return &Feed{conn: conn}, nil
}

// Next blocks until the next event arrives. Once the server closes the
// stream every call fails with KindTransport.
func (f *Feed) Next(ctx context.Context) (model.Event, error) {
	var ev model.Event
	if err := wsjson.Read(ctx, f.conn, &ev); err != nil {
		if status := websocket.CloseStatus(err); status != -1 {
			return ev, &Error{Kind: KindTransport, Message: "feed closed: " + status.String(), Err: err}
		}
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return ev, &Error{Kind: KindDecode, Message: "invalid event", Err: err}
		}
		return ev, &Error{Kind: KindTransport, Message: transportMessage(err), Err: err}
	}
	return ev, nil
}

func (f *Feed) Close() error {
	return f.conn.Close(websocket.StatusNormalClosure, "")
}
