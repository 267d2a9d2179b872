package realtime

import (
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Araz9999/naxtap-sub005/logger"
	"github.com/Araz9999/naxtap-sub005/tools/errs"
	"github.com/Araz9999/naxtap-sub005/tools/ids"
)

// Config tunes one gateway instance.
type Config struct {
	GatewayID     string
	NodeID        int64         // id-generator node, 0..ids.MaxNode
	PingInterval  time.Duration // ws control ping cadence (server side)
	WriteWait     time.Duration // per-frame write deadline
	SendBuffer    int           // per-connection outbound queue length
	FanoutWorkers int
	FanoutQueue   int
}

func (c *Config) norm() {
	if c.NodeID <= 0 {
		c.NodeID = 1
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 25 * time.Second
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 256
	}
	if c.FanoutWorkers <= 0 {
		c.FanoutWorkers = 4
	}
	if c.FanoutQueue <= 0 {
		c.FanoutQueue = 4096
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true }, // origin policy enforced by middleware
}

// Gateway wires the registry, router, presence broadcaster and dispatcher
// over websocket transport. One instance per process.
type Gateway struct {
	cfg      Config
	reg      *Registry
	rooms    *Router
	presence *PresenceBroadcaster
	disp     *Dispatcher
	fanout   *Fanout
	verifier TokenVerifier
	idgen    *ids.Generator
}

func NewGateway(cfg Config, verifier TokenVerifier, sink PresenceSink) *Gateway {
	cfg.norm()
	reg := NewRegistry()
	fanout := NewFanout(cfg.FanoutWorkers, cfg.FanoutQueue)
	g := &Gateway{
		cfg:      cfg,
		reg:      reg,
		rooms:    NewRouter(reg, fanout),
		presence: NewPresenceBroadcaster(reg, fanout, sink),
		disp:     NewDispatcher(),
		fanout:   fanout,
		verifier: verifier,
		idgen:    ids.New(cfg.NodeID),
	}
	return g
}

func (g *Gateway) Registry() *Registry            { return g.reg }
func (g *Gateway) Rooms() *Router                 { return g.rooms }
func (g *Gateway) Presence() *PresenceBroadcaster { return g.presence }
func (g *Gateway) Dispatcher() *Dispatcher        { return g.disp }
func (g *Gateway) Verifier() TokenVerifier        { return g.verifier }
func (g *Gateway) GatewayID() string              { return g.cfg.GatewayID }

// RegisterHandlers installs the closed handler set. Kept separate from
// NewGateway so the handlers package can depend on realtime without a cycle.
func (g *Gateway) RegisterHandlers(hs ...Handler) {
	for _, h := range hs {
		g.disp.Register(h)
	}
}

// HandleWS upgrades the request and runs the connection until the transport
// closes. Read loop and write pump follow the one-reader/one-writer model
// gorilla requires.
func (g *Gateway) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade error: %v", err)
		return
	}

	conn := &Conn{
		ID:   g.cfg.GatewayID + "-" + g.idgen.NextString(),
		Send: make(chan []byte, g.cfg.SendBuffer),
	}
	g.reg.Register(conn)
	logger.Debug("[ws] connection open", zap.String("conn_id", conn.ID))

	pumpDone := make(chan struct{})
	go g.writePump(ws, conn, pumpDone)
	g.readLoop(ws, conn)

	// close path: snapshot rooms, drop registry entry, fan out member-left,
	// re-check presence, in that order. Send stays open so an in-flight fanout
	// job holding this conn cannot panic; Close signals the pump instead.
	userID, rooms, last, ok := g.reg.Unregister(conn.ID)
	if ok {
		g.rooms.LeaveAll(conn.ID, userID, rooms)
		g.presence.HandleClosed(userID, last)
	}
	conn.Close()
	<-pumpDone
	logger.Debug("[ws] connection closed",
		zap.String("conn_id", conn.ID), zap.String("user_id", userID))
}

func (g *Gateway) readLoop(ws *websocket.Conn, conn *Conn) {
	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Debug("[ws] peer closed", zap.String("conn_id", conn.ID))
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Info("[ws] read timeout", zap.String("conn_id", conn.ID), zap.Error(rerr))
			} else {
				logger.Info("[ws] read error", zap.String("conn_id", conn.ID), zap.Error(rerr))
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			logger.Warn("[ws] bad frame", zap.String("conn_id", conn.ID), zap.Error(perr))
			g.Ack(conn, EvtError, BuildError(errs.CodeBadPayload, "malformed frame"))
			continue
		}

		if derr := g.disp.Dispatch(&Context{S: g}, conn, frame); derr != nil {
			// event-level failures are reported to the sender only and are
			// never fatal to the connection
			logger.Warn("[ws] event rejected",
				zap.String("conn_id", conn.ID),
				zap.String("event", string(frame.Event)),
				zap.Error(derr))
			if ce := errs.AsCode(derr); ce != nil {
				g.Ack(conn, EvtError, BuildError(ce.Code, ce.Msg))
			} else {
				g.Ack(conn, EvtError, BuildError(errs.CodeBadPayload, "event rejected"))
			}
		}
	}
}

// writePump is the single writer for the connection: it drains Send, keeps
// the websocket alive with control pings, and closes the socket when the
// close path signals conn.Done.
func (g *Gateway) writePump(ws *websocket.Conn, conn *Conn, pumpDone chan struct{}) {
	ticker := time.NewTicker(g.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = ws.SetWriteDeadline(time.Now().Add(g.cfg.WriteWait))
		_ = ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = ws.Close()
		close(pumpDone)
	}()

	for {
		select {
		case <-conn.Done():
			return
		case payload := <-conn.Send:
			_ = ws.SetWriteDeadline(time.Now().Add(g.cfg.WriteWait))
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Info("[ws] write error", zap.String("conn_id", conn.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, []byte("ping"),
				time.Now().Add(g.cfg.WriteWait)); err != nil {
				logger.Info("[ws] ping error", zap.String("conn_id", conn.ID), zap.Error(err))
				return
			}
		}
	}
}

// Ack sends an event to a single connection, non-blocking.
func (g *Gateway) Ack(conn *Conn, event EventType, data map[string]any) {
	payload, err := EncodeFrame(event, data)
	if err != nil {
		logger.Errorf("[ws] encode %s: %v", event, err)
		return
	}
	select {
	case conn.Send <- payload:
	default:
		logger.Warn("[ws] send queue full, drop ack",
			zap.String("conn_id", conn.ID), zap.String("event", string(event)))
	}
}

// DirectSend delivers an event to every live connection of userID. A target
// with no connections is a silent drop; the caller cannot distinguish
// "delivered" from "offline".
func (g *Gateway) DirectSend(userID string, event EventType, data map[string]any) {
	conns := g.reg.FindConnections(userID)
	if len(conns) == 0 {
		logger.Debug("[ws] direct-send target offline",
			zap.String("user_id", userID), zap.String("event", string(event)))
		return
	}
	payload, err := EncodeFrame(event, data)
	if err != nil {
		logger.Errorf("[ws] encode %s: %v", event, err)
		return
	}
	g.fanout.Broadcast(conns, payload)
}

// ---- push surface for non-realtime code paths (HTTP handlers, NATS bridge) ----

// SendMessageNotification pushes a just-persisted message to the recipient's
// live connections.
func (g *Gateway) SendMessageNotification(userID string, payload map[string]any) {
	g.DirectSend(userID, EvtMessageNew, payload)
}

// SendCallNotification pushes call signaling to the target identity.
func (g *Gateway) SendCallNotification(userID string, payload map[string]any) {
	g.DirectSend(userID, EvtCallIncoming, payload)
}

// SendLiveChatNotification broadcasts a live-chat event to a conversation
// room, nobody excluded.
func (g *Gateway) SendLiveChatNotification(roomID string, payload map[string]any) {
	g.rooms.Broadcast(roomID, EvtLiveChatMessage, payload, "")
}
