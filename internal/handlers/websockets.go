package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"home_climate/internal/relay"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 16 // 64 KB, a reading with every zone fits comfortably

	roleQueryParam = "role"
)

// Upgrader for HTTP -> WebSocket. Consider tightening CheckOrigin in production.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origins once the app is served from a fixed host
}

// wsPeer is a relay peer backed by one websocket connection. Outbound
// envelopes are queued and written by the connection's writer loop.
type wsPeer struct {
	id      string
	role    relay.Role
	send    chan relay.Envelope
	done    chan struct{}
	once    sync.Once
	session *relay.UploadSession
}

func newWSPeer(role relay.Role, buffer int) *wsPeer {
	p := &wsPeer{
		id:   uuid.NewString(),
		role: role,
		send: make(chan relay.Envelope, buffer),
		done: make(chan struct{}),
	}
	if role == relay.RoleFieldNode {
		p.session = relay.NewUploadSession()
	}
	return p
}

func (p *wsPeer) ID() string { return p.id }

func (p *wsPeer) Role() relay.Role { return p.role }

func (p *wsPeer) UploadSession() *relay.UploadSession { return p.session }

// Send never blocks: a peer that cannot keep up loses the envelope.
func (p *wsPeer) Send(env relay.Envelope) error {
	select {
	case <-p.done:
		return relay.ErrPeerClosed
	default:
	}
	select {
	case p.send <- env:
		return nil
	default:
		return relay.ErrPeerSlow
	}
}

func (p *wsPeer) close() {
	p.once.Do(func() { close(p.done) })
}

// peerRole decides the role of a connecting peer. A field node must present
// the configured device key.
func (h *Handler) peerRole(c *gin.Context) (relay.Role, int, string) {
	switch c.Query(roleQueryParam) {
	case "", string(relay.RoleClient):
		return relay.RoleClient, http.StatusOK, ""
	case string(relay.RoleFieldNode):
		if !h.isDevice(c) {
			return "", http.StatusUnauthorized, "invalid or missing device key"
		}
		return relay.RoleFieldNode, http.StatusOK, ""
	default:
		return "", http.StatusBadRequest, "unknown role"
	}
}

func (h *Handler) wsConnect(c *gin.Context) {
	if h.hub == nil || h.relay == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "relay not available"})
		return
	}
	role, code, msg := h.peerRole(c)
	if code != http.StatusOK {
		if h.log != nil {
			h.log.Infow("ws_rejected", "role", c.Query(roleQueryParam), "reason", msg, "remote", c.ClientIP())
		}
		c.AbortWithStatusJSON(code, gin.H{"error": msg})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "role", role, "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	// Only an open socket joins the hub, so presence notices never announce
	// a field node whose handshake failed.
	peer := newWSPeer(role, h.opts.SendBuffer)
	h.hub.Register(peer)
	defer func() {
		h.hub.Unregister(peer)
		peer.close()
	}()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := c.Request.Context()

	// Reader goroutine dispatches inbound events and detects disconnects.
	done := make(chan struct{})
	go h.startReader(ctx, conn, peer, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	// Writer/select loop.
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "peer_id", peer.ID(), "err", err)
				}
				return
			}
		case env := <-peer.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(env); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "peer_id", peer.ID(), "type", env.Type, "err", err)
				}
				return
			}
		}
	}
}

// Helper: startReader decodes inbound frames and hands them to the relay
// until the connection closes.
func (h *Handler) startReader(ctx context.Context, conn *websocket.Conn, peer *wsPeer, done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "peer_id", peer.ID(), "err", err)
			}
			return
		}

		var msg relay.Message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			_ = peer.Send(relay.Envelope{Type: relay.EventError, Error: "malformed message"})
			continue
		}
		// Failures are already reported to the peer as error envelopes.
		_ = h.relay.Dispatch(ctx, peer, msg)
	}
}
