package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kilianp07/leafdash/auth"
	"github.com/kilianp07/leafdash/config"
	coremetrics "github.com/kilianp07/leafdash/core/metrics"
	"github.com/kilianp07/leafdash/core/model"
	"github.com/kilianp07/leafdash/infra/logger"
)

// WebSocketPush receives realtime_update frames from the telemetry API.
type WebSocketPush struct {
	url       string
	dialer    *websocket.Dialer
	reconnect time.Duration
	creds     *auth.ClientCred
	state     *ConnFSM
	log       logger.Logger
	now       func() time.Time
}

// NewWebSocketPush derives the socket URL from the API base URL.
func NewWebSocketPush(cfg config.SourceConfig, sink coremetrics.MetricsSink) (*WebSocketPush, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = path.Join("/", u.Path, cfg.WebSocketPath)
	log := logger.New("source-websocket")
	w := &WebSocketPush{
		url:       u.String(),
		dialer:    &websocket.Dialer{HandshakeTimeout: cfg.Timeout()},
		reconnect: cfg.ReconnectDelay(),
		log:       log,
		now:       time.Now,
	}
	if cfg.Auth.Enabled() {
		w.creds = auth.NewClientCred(cfg.Auth)
	}
	w.state = NewConnFSM(stateReporter("websocket", log, sink))
	return w, nil
}

func (w *WebSocketPush) Name() string { return "websocket" }

// URL returns the socket address.
func (w *WebSocketPush) URL() string { return w.url }

// State returns the connection state.
func (w *WebSocketPush) State() string { return w.state.Current() }

func (w *WebSocketPush) Connected() bool { return w.state.Connected() }

// Run keeps a session open until ctx is done, waiting the reconnect delay
// after every failure.
func (w *WebSocketPush) Run(ctx context.Context, emit Emit) error {
	for {
		if err := w.session(ctx, emit); err != nil && ctx.Err() == nil {
			w.log.Warnf("websocket session: %v", err)
		}
		_ = w.state.Fire(context.Background(), EventDrop)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.reconnect):
		}
	}
}

func (w *WebSocketPush) session(ctx context.Context, emit Emit) error {
	_ = w.state.Fire(ctx, EventDial)
	header := http.Header{}
	if w.creds != nil {
		tok, err := w.creds.GetToken()
		if err != nil {
			return err
		}
		header.Set("Authorization", "Bearer "+tok)
	}
	conn, _, err := w.dialer.DialContext(ctx, w.url, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", w.url, err)
	}
	defer conn.Close()
	_ = w.state.Fire(ctx, EventOpen)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	if err := conn.WriteJSON(Frame{Event: EventSubscribeRealtime}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			w.log.Warnf("drop malformed frame: %v", err)
			continue
		}
		switch f.Event {
		case EventConnectionResponse:
			_ = w.state.Fire(ctx, EventSubscribe)
		case EventRealtimeUpdate:
			_ = w.state.Fire(ctx, EventSubscribe)
			env, err := model.NewEnvelope(model.OriginPush, w.now(), f.Data)
			if err != nil {
				w.log.Warnf("drop malformed realtime_update: %v", err)
				continue
			}
			emit(env)
		default:
			w.log.Debugf("ignoring %q frame", f.Event)
		}
	}
}
