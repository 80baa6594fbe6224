package socket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/webwatch/platform/internal/config"
	"github.com/webwatch/platform/internal/room"
	"github.com/webwatch/platform/internal/signaling"
	"github.com/webwatch/platform/pkg/protocol"
	"github.com/webwatch/platform/pkg/wsutils"
)

type socketController struct {
	registry    *Registry
	directories *room.Directories
	router      *signaling.Router
	frames      *signaling.FrameRelay
	upgrader    websocket.Upgrader
	readLimit   int64
	logger      *slog.Logger
}

// SocketHandler upgrades the request and serves the connection until it
// closes. All events of one connection are handled here in arrival order;
// concurrency only exists across connections.
func (ctrl *socketController) SocketHandler(c echo.Context) error {
	conn, err := ctrl.upgrader.Upgrade(c.Response().Writer, c.Request(), nil)
	if err != nil {
		ctrl.logger.Error(fmt.Sprintf("Unable upgrade request %s", c.Request().RemoteAddr))
		return err
	}

	w := wsutils.NewThreadSafeWriter(conn)
	defer w.Close()
	conn.SetReadLimit(ctrl.readLimit)

	peer := ctrl.registry.Add(w)
	defer ctrl.teardown(peer)

	ctrl.logger.Info("client connected", slog.String("socket_id", peer.ID()))
	peer.Send(EventConnected, okReply("Connected to signaling server"))

	for {
		var env Envelope
		if err := w.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ctrl.logger.Warn("read failed",
					slog.String("socket_id", peer.ID()),
					slog.String("err", err.Error()))
			}
			return nil
		}
		ctrl.dispatch(peer, env)
	}
}

// dispatch routes one inbound event. Every handler converts its failures
// into a reply to this peer only; nothing here may take the connection
// down or leak an error to other room members.
func (ctrl *socketController) dispatch(peer *Peer, env Envelope) {
	switch env.Event {
	case EventJoinRoom:
		ctrl.handleJoinRoom(peer, env.Data)
	case EventLeaveRoom:
		ctrl.handleLeaveRoom(peer, env.Data)
	case EventRoomStatus:
		ctrl.handleRoomStatus(peer, env.Data)
	case EventOffer:
		ctrl.handleSignal(peer, signaling.KindOffer, env.Data)
	case EventAnswer:
		ctrl.handleSignal(peer, signaling.KindAnswer, env.Data)
	case EventIceCandidate:
		ctrl.handleSignal(peer, signaling.KindCandidate, env.Data)
	case EventJoinFallback:
		ctrl.handleFallbackJoin(peer, env.Data)
	case EventFallbackFrame:
		ctrl.handleFallbackFrame(peer, env.Data)
	case EventLeaveFallback:
		ctrl.handleFallbackLeave(peer, env.Data)
	case EventPing:
		peer.Send(EventPong, &pongReply{
			Message:      "pong",
			OriginalData: env.Data,
			Status:       statusOK,
		})
	case EventMessage:
		peer.Send(EventMessageResponse, &messageResponseReply{
			Echo:   env.Data,
			Status: statusOK,
		})
	default:
		ctrl.logger.Warn("unknown event",
			slog.String("socket_id", peer.ID()),
			slog.String("event", env.Event))
	}
}

// decode unmarshals an event payload, treating an absent data field the
// same as an empty object so the field-level validation answers instead
// of a parse error.
func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (ctrl *socketController) handleJoinRoom(peer *Peer, data json.RawMessage) {
	var req joinRoomRequest
	if err := decode(data, &req); err != nil {
		peer.Send(EventJoinError, errorReply(msgInternalError))
		return
	}

	res, err := ctrl.directories.Rooms.Join(req.Code, peer.ID(), room.Role(req.Type))
	if err != nil {
		peer.Send(EventJoinError, errorReply(joinErrorMessage(err)))
		return
	}

	ctrl.logger.Info("joined room",
		slog.String("socket_id", peer.ID()),
		slog.String("room_code", res.Code),
		slog.String("device_type", string(res.Role)),
		slog.Int("total_clients", res.TotalClients()))

	peer.Send(EventJoinSuccess, &joinSuccessReply{
		Message:       fmt.Sprintf("Joined room %s", res.Code),
		RoomCode:      res.Code,
		DeviceType:    string(res.Role),
		ClientsInRoom: res.TotalClients(),
		Status:        statusOK,
	})

	// Everyone in the room, the new joiner included, learns the new count.
	ctrl.broadcastUpdate(res.Code, res.Members, fmt.Sprintf("%s joined the room", res.Role))
}

func (ctrl *socketController) handleLeaveRoom(peer *Peer, data json.RawMessage) {
	var req leaveRoomRequest
	if err := decode(data, &req); err != nil {
		peer.Send(EventLeaveError, errorReply(msgInternalError))
		return
	}

	res, err := ctrl.directories.Rooms.Leave(req.Code, peer.ID())
	if err != nil {
		peer.Send(EventLeaveError, errorReply(msgRoomCodeRequired))
		return
	}

	peer.Send(EventLeaveSuccess, &leaveSuccessReply{
		Message:  fmt.Sprintf("Left room %s", res.Code),
		RoomCode: res.Code,
		Status:   statusOK,
	})

	if res.Removed && !res.Deleted {
		ctrl.broadcastUpdate(res.Code, res.Members, "A client left the room")
	}
	if res.Deleted {
		ctrl.logger.Info("room deleted",
			slog.String("room_code", res.Code),
			slog.String("reason", "last member left"))
	}
}

func (ctrl *socketController) handleRoomStatus(peer *Peer, data json.RawMessage) {
	var req roomStatusRequest
	if err := decode(data, &req); err != nil {
		peer.Send(EventRoomStatusError, errorReply(msgInternalError))
		return
	}
	if req.Code == "" {
		peer.Send(EventRoomStatusError, errorReply(msgRoomCodeRequired))
		return
	}

	st := ctrl.directories.Rooms.Status(req.Code)
	peer.Send(EventRoomStatusReply, &roomStatusReply{
		RoomCode:     st.Code,
		TotalClients: len(st.Members),
		Clients:      st.Members,
		Exists:       st.Exists,
		Status:       statusOK,
	})
}

func (ctrl *socketController) handleSignal(peer *Peer, kind signaling.Kind, data json.RawMessage) {
	var req signalRequest
	if err := decode(data, &req); err != nil {
		peer.Send(EventSignalingError, errorReply(msgInternalError))
		return
	}

	var payload json.RawMessage
	switch kind {
	case signaling.KindOffer:
		payload = req.Offer
	case signaling.KindAnswer:
		payload = req.Answer
	case signaling.KindCandidate:
		payload = req.Candidate
	}

	err := ctrl.router.Relay(peer, signaling.Request{
		Kind:           kind,
		Payload:        payload,
		RoomCode:       req.RoomCode,
		TargetSocketID: req.TargetSocketID,
	})
	if err != nil {
		peer.Send(EventSignalingError, errorReply(signalErrorMessage(kind)))
		return
	}

	// ICE candidates arrive in bulk; acknowledging each one doubles the
	// chatter for no benefit.
	switch kind {
	case signaling.KindOffer:
		peer.Send(EventOfferSent, okReply("Offer successfully forwarded"))
	case signaling.KindAnswer:
		peer.Send(EventAnswerSent, okReply("Answer successfully forwarded"))
	}
}

func (ctrl *socketController) handleFallbackJoin(peer *Peer, data json.RawMessage) {
	var req fallbackJoinRequest
	if err := decode(data, &req); err != nil {
		peer.Send(EventFallbackError, errorReply(msgInternalError))
		return
	}

	res, err := ctrl.directories.Fallback.Join(req.RoomCode, peer.ID(), room.Role(req.Type))
	if err != nil {
		peer.Send(EventFallbackError, errorReply(joinErrorMessage(err)))
		return
	}

	ctrl.logger.Info("joined fallback room",
		slog.String("socket_id", peer.ID()),
		slog.String("room_code", res.Code),
		slog.String("device_type", string(res.Role)))

	peer.Send(EventFallbackJoined, &fallbackJoinedReply{
		RoomCode:   res.Code,
		DeviceType: string(res.Role),
		Status:     statusOK,
	})
}

func (ctrl *socketController) handleFallbackFrame(peer *Peer, data json.RawMessage) {
	var frame signaling.Frame
	if err := decode(data, &frame); err != nil {
		// Throughput path: a malformed frame is dropped, not answered.
		return
	}
	ctrl.frames.Forward(peer, frame)
}

func (ctrl *socketController) handleFallbackLeave(peer *Peer, data json.RawMessage) {
	var req fallbackLeaveRequest
	if err := decode(data, &req); err != nil {
		return
	}
	res, err := ctrl.directories.Fallback.Leave(req.RoomCode, peer.ID())
	if err != nil {
		return
	}
	if res.Removed && !res.Deleted {
		ctrl.broadcastUpdate(res.Code, res.Members, "A client left the room")
	}
}

// teardown purges a disconnected peer from both namespaces and notifies
// every room that kept members. The registry entry goes first so relays
// stop resolving the id while the purge runs.
func (ctrl *socketController) teardown(peer *Peer) {
	ctrl.registry.Remove(peer.ID())

	cleaned := 0
	for _, dir := range []*room.Directory{ctrl.directories.Rooms, ctrl.directories.Fallback} {
		for _, res := range dir.Purge(peer.ID()) {
			cleaned++
			if !res.Deleted {
				ctrl.broadcastUpdate(res.Code, res.Members, "A client disconnected")
			}
		}
	}

	ctrl.logger.Info("client disconnected",
		slog.String("socket_id", peer.ID()),
		slog.Int("rooms_cleaned", cleaned))
}

func (ctrl *socketController) broadcastUpdate(code string, members []string, message string) {
	update := &roomUpdateReply{
		Message:      message,
		RoomCode:     code,
		TotalClients: len(members),
		Status:       statusOK,
	}
	for _, id := range members {
		peer, ok := ctrl.registry.Get(id)
		if !ok {
			continue
		}
		if err := peer.Send(EventRoomUpdate, update); err != nil {
			ctrl.logger.Warn("room_update delivery failed",
				slog.String("room_code", code),
				slog.String("to", id))
		}
	}
}

func joinErrorMessage(err error) string {
	switch err {
	case room.ErrInvalidRoomCode:
		return msgInvalidRoomCode
	case room.ErrRoomNotFound:
		return msgRoomNotFound
	}
	return msgInternalError
}

func signalErrorMessage(kind signaling.Kind) string {
	switch kind {
	case signaling.KindOffer:
		return "Offer data missing!"
	case signaling.KindAnswer:
		return "Answer data missing!"
	case signaling.KindCandidate:
		return "ICE candidate data missing!"
	}
	return msgInternalError
}

func (ctrl *socketController) Resolve(router *echo.Echo) error {
	router.GET("/ws", ctrl.SocketHandler)
	return nil
}

var _ protocol.HttpResolvable = (*socketController)(nil)

type socketControllerParams struct {
	fx.In

	Registry    *Registry
	Directories *room.Directories
	Router      *signaling.Router
	Frames      *signaling.FrameRelay
	Config      *config.Config
	Logger      *slog.Logger
}

func NewSocketController(params socketControllerParams) *socketController {
	return &socketController{
		registry:    params.Registry,
		directories: params.Directories,
		router:      params.Router,
		frames:      params.Frames,
		readLimit:   params.Config.Socket.ReadLimit,
		logger:      params.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Pairing codes gate room access; the transport accepts any
				// origin the same way the CORS layer does.
				return true
			},
		},
	}
}
