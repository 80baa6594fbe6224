package signaling

import (
	"log/slog"
)

// Frame is one encoded video frame on the degraded path. The payload is a
// base64 string the relay never decodes.
type Frame struct {
	RoomCode  string  `json:"room_code"`
	FrameData string  `json:"frame_data"`
	Timestamp float64 `json:"timestamp,omitempty"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
}

// FrameRelay fans frames out to the other members of a fallback room.
// Frames arrive at a steady cadence and a dropped one is harmless, so
// every failure here is a silent no-op rather than an error reply.
type FrameRelay struct {
	peers  PeerSet
	rooms  RoomResolver
	logger *slog.Logger
}

func NewFrameRelay(peers PeerSet, rooms RoomResolver, logger *slog.Logger) *FrameRelay {
	if logger == nil {
		logger = slog.Default()
	}
	return &FrameRelay{
		peers:  peers,
		rooms:  rooms,
		logger: logger,
	}
}

// Forward sends the frame to every other member of its fallback room.
// No acknowledgment goes back to the sender.
func (f *FrameRelay) Forward(sender Peer, frame Frame) {
	if frame.RoomCode == "" || frame.FrameData == "" {
		return
	}
	if frame.Width == 0 {
		frame.Width = 640
	}
	if frame.Height == 0 {
		frame.Height = 480
	}

	for _, id := range f.rooms.Members(frame.RoomCode) {
		if id == sender.ID() {
			continue
		}
		peer, ok := f.peers.Get(id)
		if !ok {
			continue
		}
		if err := peer.Send("fallback_frame", frame); err != nil {
			f.logger.Debug("fallback frame dropped",
				slog.String("room_code", frame.RoomCode),
				slog.String("to", peer.ID()))
		}
	}
}
