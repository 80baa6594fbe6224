package signaling

import (
	"encoding/json"
	"errors"
	"log/slog"
)

var ErrMissingPayload = errors.New("missing signaling payload")

// Peer is the delivery endpoint the router fans out to. The socket layer's
// registry entries satisfy it; tests substitute recording fakes.
type Peer interface {
	ID() string
	Send(event string, data any) error
}

// PeerSet is every currently connected peer, used for explicit-target
// lookup and for the broadcast fallback. It is passed in explicitly so the
// relay never reaches for an ambient connection list.
type PeerSet interface {
	Get(id string) (Peer, bool)
	All() []Peer
}

// RoomResolver scopes delivery to a room's current members. Membership is
// the authority: a sender does not need to have joined the room itself.
type RoomResolver interface {
	Members(code string) []string
}

// Kind names the three negotiation messages the router forwards. The kind
// doubles as the wire event and as the payload field the original clients
// expect ("offer" rides in data.offer, and so on).
type Kind string

const (
	KindOffer     Kind = "offer"
	KindAnswer    Kind = "answer"
	KindCandidate Kind = "ice_candidate"
)

// payloadField is the data key carrying the opaque negotiation object.
func (k Kind) payloadField() string {
	if k == KindCandidate {
		return "candidate"
	}
	return string(k)
}

// Request is one inbound negotiation message with its addressing hints.
type Request struct {
	Kind           Kind
	Payload        json.RawMessage
	RoomCode       string
	TargetSocketID string
}

// Router forwards offer/answer/ICE messages without inspecting them. It
// holds no state of its own; room membership and the peer set are owned by
// its collaborators.
type Router struct {
	peers  PeerSet
	rooms  RoomResolver
	logger *slog.Logger
}

func NewRouter(peers PeerSet, rooms RoomResolver, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		peers:  peers,
		rooms:  rooms,
		logger: logger,
	}
}

// Relay resolves the delivery set and forwards the payload, re-stamped
// with the sender's id so the recipient can answer with an explicit
// target. Resolution order: room members, explicit target, everyone else.
// Delivery is fire-and-forget; a failed write to one recipient never
// surfaces to the sender.
func (r *Router) Relay(sender Peer, req Request) error {
	if isEmptyPayload(req.Payload) {
		return ErrMissingPayload
	}

	forwarded := map[string]any{
		req.Kind.payloadField(): req.Payload,
		"from_socket_id":        sender.ID(),
	}

	switch {
	case req.RoomCode != "":
		forwarded["room_code"] = req.RoomCode
		delivered := 0
		for _, id := range r.rooms.Members(req.RoomCode) {
			if id == sender.ID() {
				continue
			}
			peer, ok := r.peers.Get(id)
			if !ok {
				continue
			}
			r.send(peer, req.Kind, forwarded)
			delivered++
		}
		r.logger.Debug("relayed to room",
			slog.String("kind", string(req.Kind)),
			slog.String("room_code", req.RoomCode),
			slog.Int("delivered", delivered))

	case req.TargetSocketID != "":
		// No existence check: a vanished target drops the message.
		if peer, ok := r.peers.Get(req.TargetSocketID); ok {
			r.send(peer, req.Kind, forwarded)
		}

	default:
		for _, peer := range r.peers.All() {
			if peer.ID() == sender.ID() {
				continue
			}
			r.send(peer, req.Kind, forwarded)
		}
	}
	return nil
}

func (r *Router) send(peer Peer, kind Kind, data map[string]any) {
	if err := peer.Send(string(kind), data); err != nil {
		r.logger.Warn("relay delivery failed",
			slog.String("kind", string(kind)),
			slog.String("to", peer.ID()),
			slog.String("err", err.Error()))
	}
}

func isEmptyPayload(p json.RawMessage) bool {
	switch string(p) {
	case "", "null":
		return true
	}
	return false
}
