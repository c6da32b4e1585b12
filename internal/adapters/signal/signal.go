package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avern/huddle/internal/app/orch"
	"github.com/avern/huddle/internal/core"
)

// SignalWSController owns the per-participant WebSocket lifecycle and feeds
// parsed events into the orchestrator.
type SignalWSController struct {
	Orch    *orch.Orchestrator
	Limiter *JoinRateLimiter

	readLimit  int64
	sendBuffer int
	pingPeriod time.Duration
}

func NewSignalWSController(o *orch.Orchestrator, limiter *JoinRateLimiter, readLimit int64, sendBuffer int, pingPeriod time.Duration) *SignalWSController {
	return &SignalWSController{
		Orch:       o,
		Limiter:    limiter,
		readLimit:  readLimit,
		sendBuffer: sendBuffer,
		pingPeriod: pingPeriod,
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and binds a new connection handle into
// the coordinator. One live socket per handle; the handle comes from the
// client-token cookie set by the HTTP layer.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	if sid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing client token"})
		return
	}
	if _, live := ctl.Orch.Registry.Conn(sid); live {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("handle already has a live socket, rejecting")
		c.JSON(http.StatusConflict, gin.H{"error": "already connected"})
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.sendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	if !ctl.Orch.Connect(sid, conn, cancel) {
		// Lost the race against another socket for the same handle. Drop
		// this transport without starting pumps, so its teardown can never
		// touch the live session's state.
		cancel()
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "already connected")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = ws.Close()
		return
	}

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}
