package socket

import "encoding/json"

// Envelope is the wire format in both directions: an event name plus an
// event-specific data object.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client-sent events.
const (
	EventJoinRoom      = "join_room"
	EventLeaveRoom     = "leave_room"
	EventRoomStatus    = "get_room_status"
	EventOffer         = "offer"
	EventAnswer        = "answer"
	EventIceCandidate  = "ice_candidate"
	EventJoinFallback  = "join_fallback_room"
	EventFallbackFrame = "fallback_frame"
	EventLeaveFallback = "leave_fallback_room"
	EventPing          = "ping"
	EventMessage       = "message"
)

// Server-sent events.
const (
	EventConnected       = "connected"
	EventJoinSuccess     = "join_room_success"
	EventJoinError       = "join_room_error"
	EventLeaveSuccess    = "leave_room_success"
	EventLeaveError      = "leave_room_error"
	EventRoomUpdate      = "room_update"
	EventRoomStatusReply = "room_status"
	EventRoomStatusError = "room_status_error"
	EventOfferSent       = "offer_sent"
	EventAnswerSent      = "answer_sent"
	EventSignalingError  = "signaling_error"
	EventFallbackJoined  = "fallback_joined"
	EventFallbackError   = "fallback_error"
	EventPong            = "pong"
	EventMessageResponse = "message_response"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

type joinRoomRequest struct {
	Code string `json:"code"`
	Type string `json:"type"`
}

type leaveRoomRequest struct {
	Code string `json:"code"`
}

type roomStatusRequest struct {
	Code string `json:"code"`
}

// signalRequest covers offer, answer and ice_candidate; exactly one of the
// payload fields is set depending on the event.
type signalRequest struct {
	Offer          json.RawMessage `json:"offer"`
	Answer         json.RawMessage `json:"answer"`
	Candidate      json.RawMessage `json:"candidate"`
	RoomCode       string          `json:"room_code"`
	TargetSocketID string          `json:"target_socket_id"`
}

type fallbackJoinRequest struct {
	RoomCode string `json:"room_code"`
	Type     string `json:"type"`
}

type fallbackLeaveRequest struct {
	RoomCode string `json:"room_code"`
}

type statusReply struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

func errorReply(message string) *statusReply {
	return &statusReply{Message: message, Status: statusError}
}

func okReply(message string) *statusReply {
	return &statusReply{Message: message, Status: statusOK}
}

type joinSuccessReply struct {
	Message       string `json:"message"`
	RoomCode      string `json:"room_code"`
	DeviceType    string `json:"device_type"`
	ClientsInRoom int    `json:"clients_in_room"`
	Status        string `json:"status"`
}

type leaveSuccessReply struct {
	Message  string `json:"message"`
	RoomCode string `json:"room_code"`
	Status   string `json:"status"`
}

type roomUpdateReply struct {
	Message      string `json:"message"`
	RoomCode     string `json:"room_code"`
	TotalClients int    `json:"total_clients"`
	Status       string `json:"status"`
}

type roomStatusReply struct {
	RoomCode     string   `json:"room_code"`
	TotalClients int      `json:"total_clients"`
	Clients      []string `json:"clients"`
	Exists       bool     `json:"exists"`
	Status       string   `json:"status"`
}

type fallbackJoinedReply struct {
	RoomCode   string `json:"room_code"`
	DeviceType string `json:"device_type"`
	Status     string `json:"status"`
}

type pongReply struct {
	Message      string          `json:"message"`
	OriginalData json.RawMessage `json:"original_data,omitempty"`
	Status       string          `json:"status"`
}

type messageResponseReply struct {
	Echo   json.RawMessage `json:"echo,omitempty"`
	Status string          `json:"status"`
}

// User-facing error texts, matched by the dashboard frontend.
const (
	msgInvalidRoomCode  = "Invalid room code! 6-digit code required."
	msgRoomNotFound     = "Room not found! Please check the code."
	msgRoomCodeRequired = "Room code required!"
	msgInternalError    = "Internal server error"
)
