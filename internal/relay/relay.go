package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"home_climate/internal/logger"
	"home_climate/internal/service"
)

var (
	ErrForbidden    = errors.New("event not allowed for this peer")
	ErrUnknownEvent = errors.New("unknown event")
	ErrBadPayload   = errors.New("malformed payload")
	ErrNoSession    = errors.New("peer has no upload session")
)

// Message is one inbound frame, decoded up to its payload.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// call is the context a handler runs with.
type call struct {
	peer  Peer
	event string
	data  json.RawMessage
}

// decode unmarshals the payload into v. An absent payload leaves v untouched.
func (c call) decode(v any) error {
	if len(c.data) == 0 || string(c.data) == "null" {
		return nil
	}
	if err := json.Unmarshal(c.data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}

// payload returns the raw data for verbatim forwarding.
func (c call) payload() any {
	if len(c.data) == 0 {
		return nil
	}
	return c.data
}

type handlerFunc func(ctx context.Context, c call) error

type route struct {
	from   Role
	handle handlerFunc
}

// Relay routes inbound events to the state machine, the store and the
// connected peers.
type Relay struct {
	services *service.Service
	pub      Publisher
	log      *logger.Logger
	routes   map[string]route
}

func New(services *service.Service, pub Publisher, log *logger.Logger) *Relay {
	r := &Relay{
		services: services,
		pub:      pub,
		log:      log.Component("relay"),
	}
	r.routes = make(map[string]route)
	r.registerClimateRoutes()
	r.registerProgramRoutes()
	r.registerHomeRoutes()
	return r
}

func (r *Relay) on(event string, from Role, h handlerFunc) {
	r.routes[event] = route{from: from, handle: h}
}

// Dispatch handles one message from peer. Errors are reported back to the
// sender as an error envelope and returned for logging.
func (r *Relay) Dispatch(ctx context.Context, peer Peer, msg Message) error {
	rt, ok := r.routes[msg.Type]
	if !ok {
		relayMessages.WithLabelValues("unknown", "rejected").Inc()
		return r.fail(peer, msg.Type, fmt.Errorf("%w: %q", ErrUnknownEvent, msg.Type))
	}
	if rt.from != peer.Role() {
		relayMessages.WithLabelValues(msg.Type, "forbidden").Inc()
		return r.fail(peer, msg.Type, fmt.Errorf("%w: %s may not send %q", ErrForbidden, peer.Role(), msg.Type))
	}

	if err := rt.handle(ctx, call{peer: peer, event: msg.Type, data: msg.Data}); err != nil {
		relayMessages.WithLabelValues(msg.Type, "error").Inc()
		return r.fail(peer, msg.Type, err)
	}
	relayMessages.WithLabelValues(msg.Type, "ok").Inc()
	return nil
}

// Handles reports whether event has a route. Transports use it to reject
// garbage before dispatch.
func (r *Relay) Handles(event string) bool {
	_, ok := r.routes[event]
	return ok
}

func (r *Relay) fail(peer Peer, event string, err error) error {
	r.log.Warnw("relay_event_failed", "peer_id", peer.ID(), "role", peer.Role(), "type", event, "err", err)
	if sendErr := peer.Send(Envelope{Type: EventError, Data: map[string]string{"event": event}, Error: err.Error()}); sendErr != nil {
		r.log.Infow("relay_error_reply_failed", "peer_id", peer.ID(), "err", sendErr)
	}
	return err
}

func (r *Relay) broadcast(typ string, data any) {
	r.pub.Broadcast(Envelope{Type: typ, Data: data})
}

// forward broadcasts the payload verbatim under another event name.
func (r *Relay) forward(to string) handlerFunc {
	return func(_ context.Context, c call) error {
		r.broadcast(to, c.payload())
		return nil
	}
}
