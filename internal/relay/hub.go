package relay

import (
	"errors"
	"sync"

	"home_climate/internal/logger"
)

// Role is fixed when a peer connects and decides which events it may send.
type Role string

const (
	RoleClient    Role = "client"
	RoleFieldNode Role = "field-node"
)

// ErrPeerClosed is returned by Send once a peer has gone away.
var ErrPeerClosed = errors.New("peer closed")

// ErrPeerSlow is returned by Send when a peer's outbound buffer is full.
var ErrPeerSlow = errors.New("peer send buffer full")

// Envelope is the wire shape of every relay message.
type Envelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Peer is one live connection to the relay.
type Peer interface {
	ID() string
	Role() Role
	Send(env Envelope) error
}

// Publisher delivers an envelope to every connected peer.
type Publisher interface {
	Broadcast(env Envelope)
}

// Hub tracks connected peers and fans broadcasts out to them.
type Hub struct {
	mu    sync.RWMutex
	peers map[string]Peer
	log   *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		peers: make(map[string]Peer),
		log:   log.Component("hub"),
	}
}

// Register adds the peer. A field node joining is announced to everyone.
func (h *Hub) Register(p Peer) {
	h.mu.Lock()
	h.peers[p.ID()] = p
	h.mu.Unlock()

	connectedPeers.WithLabelValues(string(p.Role())).Inc()
	h.log.Infow("peer_registered", "peer_id", p.ID(), "role", p.Role())

	if p.Role() == RoleFieldNode {
		h.Broadcast(Envelope{Type: BroadcastFieldNodeOnline, Data: nodePresence{PeerID: p.ID(), Connected: true}})
	}
}

// Unregister removes the peer. Unknown peers are ignored.
func (h *Hub) Unregister(p Peer) {
	h.mu.Lock()
	_, ok := h.peers[p.ID()]
	delete(h.peers, p.ID())
	h.mu.Unlock()
	if !ok {
		return
	}

	connectedPeers.WithLabelValues(string(p.Role())).Dec()
	h.log.Infow("peer_unregistered", "peer_id", p.ID(), "role", p.Role())

	if p.Role() == RoleFieldNode {
		h.Broadcast(Envelope{Type: BroadcastFieldNodeOffline, Data: nodePresence{PeerID: p.ID(), Connected: false}})
	}
}

// Broadcast sends env to every registered peer. A failing peer does not stop
// delivery to the others.
func (h *Hub) Broadcast(env Envelope) {
	for _, p := range h.snapshot() {
		if err := p.Send(env); err != nil {
			h.log.Warnw("broadcast_send_failed", "peer_id", p.ID(), "type", env.Type, "err", err)
		}
	}
}

// Count returns the number of connected peers with the given role.
func (h *Hub) Count(role Role) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, p := range h.peers {
		if p.Role() == role {
			n++
		}
	}
	return n
}

func (h *Hub) snapshot() []Peer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Peer, 0, len(h.peers))
	for _, p := range h.peers {
		out = append(out, p)
	}
	return out
}

type nodePresence struct {
	PeerID    string `json:"peerId"`
	Connected bool   `json:"connected"`
}
