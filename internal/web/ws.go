package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"StockSeer/internal/chart"
	"StockSeer/internal/model"
	"StockSeer/internal/pipeline"
)

const (
	wsReadTimeout  = 90 * time.Second
	wsPingInterval = 45 * time.Second
	wsWriteTimeout = 10 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin:       func(*http.Request) bool { return true },
	EnableCompression: true,
}

// wsRequest asks for a forecast.
type wsRequest struct {
	Ticker string `json:"ticker"`
	Months int    `json:"months"`
}

// wsMessage is sent to the client. Type is "status", "history", "result"
// or "error".
type wsMessage struct {
	Type    string            `json:"type"`
	Seq     int               `json:"seq"`
	Text    string            `json:"text,omitempty"`
	Kind    string            `json:"kind,omitempty"`
	Result  *forecastResponse `json:"result,omitempty"`
	Charts  []chart.Snippet   `json:"charts,omitempty"`
	History *historyMessage   `json:"history,omitempty"`
}

type historyMessage struct {
	Ticker       string                   `json:"ticker"`
	Observations int                      `json:"observations"`
	Tail         []model.PriceObservation `json:"tail"`
}

// wsSession runs one request at a time per connection. A newer request
// cancels the one in flight and its result is never delivered.
type wsSession struct {
	srv  *Server
	conn *websocket.Conn
	out  chan wsMessage

	mu     sync.Mutex
	seq    int
	cancel context.CancelFunc
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WARN] websocket upgrade: %v", err)
		return
	}
	defer conn.Close()
	s.metrics.SessionOpened()
	defer s.metrics.SessionClosed()

	sess := &wsSession{srv: s, conn: conn, out: make(chan wsMessage, 16)}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.writeLoop(ctx)
	}()

	sess.readLoop(ctx)
	sess.supersede()
	cancel()
	<-done
}

func (ws *wsSession) readLoop(ctx context.Context) {
	_ = ws.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	ws.conn.SetPongHandler(func(string) error {
		return ws.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})
	for {
		mt, data, err := ws.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WARN] websocket read: %v", err)
			}
			return
		}
		_ = ws.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		if mt != websocket.TextMessage {
			continue
		}
		var req wsRequest
		if err := json.Unmarshal(data, &req); err != nil {
			ws.send(ctx, wsMessage{Type: "error", Kind: model.KindInvalidParameter, Text: "malformed request: " + err.Error()})
			continue
		}
		seq, runCtx := ws.begin(ctx)
		go ws.run(runCtx, seq, pipeline.Params{Ticker: req.Ticker, Months: req.Months})
	}
}

// begin cancels the previous request and returns the new sequence number.
func (ws *wsSession) begin(ctx context.Context) (int, context.Context) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.cancel != nil {
		ws.cancel()
	}
	ws.seq++
	runCtx, cancel := context.WithCancel(ctx)
	ws.cancel = cancel
	return ws.seq, runCtx
}

func (ws *wsSession) supersede() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.cancel != nil {
		ws.cancel()
	}
}

func (ws *wsSession) current(seq int) bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.seq == seq
}

// emit delivers msg only while seq is still the latest request.
func (ws *wsSession) emit(ctx context.Context, seq int, msg wsMessage) {
	if !ws.current(seq) {
		return
	}
	msg.Seq = seq
	ws.send(ctx, msg)
}

func (ws *wsSession) send(ctx context.Context, msg wsMessage) {
	select {
	case ws.out <- msg:
	case <-ctx.Done():
	}
}

func (ws *wsSession) fail(ctx context.Context, seq int, err error) {
	ws.emit(ctx, seq, wsMessage{Type: "error", Kind: model.Kind(err), Text: err.Error()})
}

func (ws *wsSession) run(ctx context.Context, seq int, params pipeline.Params) {
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		ws.fail(ctx, seq, err)
		return
	}

	ws.emit(ctx, seq, wsMessage{Type: "status", Text: "Loading data..."})
	series, err := ws.srv.pipeline.History(ctx, params.Ticker)
	if err != nil {
		ws.fail(ctx, seq, err)
		return
	}
	ws.emit(ctx, seq, wsMessage{Type: "status", Text: "Loading data... completed"})
	ws.emit(ctx, seq, wsMessage{Type: "history", History: &historyMessage{
		Ticker:       series.Ticker,
		Observations: series.Len(),
		Tail:         series.Tail(pipeline.DefaultTail),
	}})

	// History is cached now, so the run only fits the model.
	res, err := ws.srv.pipeline.Run(ctx, params)
	if err != nil {
		ws.fail(ctx, seq, err)
		return
	}
	resp := newForecastResponse(res, pipeline.DefaultTail)
	ws.emit(ctx, seq, wsMessage{Type: "result", Result: &resp, Charts: chart.Snippets(res.Series, res.Forecast)})
}

func (ws *wsSession) writeLoop(ctx context.Context) {
	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	for {
		select {
		case msg := <-ws.out:
			_ = ws.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := ws.conn.WriteJSON(msg); err != nil {
				log.Printf("[WARN] websocket write: %v", err)
				return
			}
		case <-ping.C:
			_ = ws.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := ws.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			_ = ws.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		}
	}
}
