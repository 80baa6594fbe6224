package socket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/webwatch/platform/internal/room"
	"github.com/webwatch/platform/internal/signaling"
)

type fakeConn struct {
	mu     sync.Mutex
	events []Envelope
}

func (c *fakeConn) WriteJSON(val any) error {
	env, ok := val.(*Envelope)
	if !ok {
		return nil
	}
	c.mu.Lock()
	c.events = append(c.events, *env)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error { return nil }

// last returns the most recent occurrence of event, decoded into a map.
func (c *fakeConn) last(t *testing.T, event string) map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Event == event {
			var data map[string]any
			if err := json.Unmarshal(c.events[i].Data, &data); err != nil {
				t.Fatalf("decode %s data: %v", event, err)
			}
			return data
		}
	}
	return nil
}

func (c *fakeConn) count(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, env := range c.events {
		if env.Event == event {
			n++
		}
	}
	return n
}

func newTestController() *socketController {
	registry := NewRegistry()
	directories := room.NewDirectories()
	logger := slog.Default()
	return &socketController{
		registry:    registry,
		directories: directories,
		router:      signaling.NewRouter(registry, directories.Rooms, logger),
		frames:      signaling.NewFrameRelay(registry, directories.Fallback, logger),
		readLimit:   4 * 1024 * 1024,
		logger:      logger,
	}
}

func connect(ctrl *socketController) (*Peer, *fakeConn) {
	conn := &fakeConn{}
	return ctrl.registry.Add(conn), conn
}

func send(ctrl *socketController, peer *Peer, event, data string) {
	ctrl.dispatch(peer, Envelope{Event: event, Data: json.RawMessage(data)})
}

func TestPairingFlow(t *testing.T) {
	ctrl := newTestController()
	viewer, viewerConn := connect(ctrl)
	camera, cameraConn := connect(ctrl)

	send(ctrl, viewer, EventJoinRoom, `{"code":"482913","type":"viewer"}`)
	success := viewerConn.last(t, EventJoinSuccess)
	if success == nil {
		t.Fatal("viewer got no join_room_success")
	}
	if success["clients_in_room"].(float64) != 1 {
		t.Errorf("clients_in_room = %v, want 1", success["clients_in_room"])
	}

	send(ctrl, camera, EventJoinRoom, `{"code":"482913","type":"camera"}`)
	if cameraConn.last(t, EventJoinSuccess) == nil {
		t.Fatal("camera got no join_room_success")
	}

	for name, conn := range map[string]*fakeConn{"viewer": viewerConn, "camera": cameraConn} {
		update := conn.last(t, EventRoomUpdate)
		if update == nil {
			t.Fatalf("%s got no room_update", name)
		}
		if update["total_clients"].(float64) != 2 {
			t.Errorf("%s room_update total_clients = %v, want 2", name, update["total_clients"])
		}
	}

	// Viewer sends an offer into the room; the camera is the only
	// recipient and the viewer gets the ack.
	send(ctrl, viewer, EventOffer, `{"offer":{"sdp":"v=0"},"room_code":"482913"}`)
	relayed := cameraConn.last(t, EventOffer)
	if relayed == nil {
		t.Fatal("camera got no relayed offer")
	}
	if relayed["from_socket_id"] != viewer.ID() {
		t.Errorf("from_socket_id = %v, want %s", relayed["from_socket_id"], viewer.ID())
	}
	if viewerConn.last(t, EventOfferSent) == nil {
		t.Error("viewer got no offer_sent ack")
	}
	if viewerConn.count(EventOffer) != 0 {
		t.Error("offer echoed back to its sender")
	}

	// Camera disconnects; the viewer sees the shrunken room.
	ctrl.teardown(camera)
	update := viewerConn.last(t, EventRoomUpdate)
	if update["total_clients"].(float64) != 1 {
		t.Errorf("after disconnect total_clients = %v, want 1", update["total_clients"])
	}

	// Viewer leaves; the room is gone.
	send(ctrl, viewer, EventLeaveRoom, `{"code":"482913"}`)
	if viewerConn.last(t, EventLeaveSuccess) == nil {
		t.Fatal("viewer got no leave_room_success")
	}
	send(ctrl, viewer, EventRoomStatus, `{"code":"482913"}`)
	st := viewerConn.last(t, EventRoomStatusReply)
	if st == nil {
		t.Fatal("viewer got no room_status")
	}
	if st["exists"].(bool) || st["total_clients"].(float64) != 0 {
		t.Errorf("room_status after delete = %v, want exists=false total=0", st)
	}
}

func TestJoinRoom_CameraWithoutViewer(t *testing.T) {
	ctrl := newTestController()
	camera, cameraConn := connect(ctrl)

	send(ctrl, camera, EventJoinRoom, `{"code":"000111","type":"camera"}`)
	reply := cameraConn.last(t, EventJoinError)
	if reply == nil {
		t.Fatal("camera got no join_room_error")
	}
	if reply["message"] != msgRoomNotFound {
		t.Errorf("message = %v, want %q", reply["message"], msgRoomNotFound)
	}

	send(ctrl, camera, EventRoomStatus, `{"code":"000111"}`)
	st := cameraConn.last(t, EventRoomStatusReply)
	if st["exists"].(bool) {
		t.Error("failed camera join created the room")
	}
}

func TestJoinRoom_InvalidCode(t *testing.T) {
	ctrl := newTestController()
	viewer, conn := connect(ctrl)

	send(ctrl, viewer, EventJoinRoom, `{"code":"12345"}`)
	reply := conn.last(t, EventJoinError)
	if reply == nil {
		t.Fatal("no join_room_error for a 5-digit code")
	}
	if reply["message"] != msgInvalidRoomCode {
		t.Errorf("message = %v, want %q", reply["message"], msgInvalidRoomCode)
	}
}

func TestSignal_MissingPayload(t *testing.T) {
	ctrl := newTestController()
	viewer, conn := connect(ctrl)
	other, otherConn := connect(ctrl)
	_ = other

	send(ctrl, viewer, EventOffer, `{"room_code":"482913"}`)
	reply := conn.last(t, EventSignalingError)
	if reply == nil {
		t.Fatal("no signaling_error for a payload-less offer")
	}
	if reply["message"] != "Offer data missing!" {
		t.Errorf("message = %v", reply["message"])
	}
	if otherConn.count(EventOffer) != 0 {
		t.Error("payload-less offer was relayed")
	}
}

func TestSignal_IceCandidateHasNoAck(t *testing.T) {
	ctrl := newTestController()
	a, aConn := connect(ctrl)
	b, bConn := connect(ctrl)

	send(ctrl, a, EventIceCandidate, `{"candidate":{"sdpMid":"0"},"target_socket_id":"`+b.ID()+`"}`)
	if bConn.count(EventIceCandidate) != 1 {
		t.Errorf("target got %d candidates, want 1", bConn.count(EventIceCandidate))
	}
	if len(aConn.events) != 0 {
		t.Errorf("sender got an unexpected reply: %v", aConn.events)
	}
}

func TestSignal_BroadcastFallback(t *testing.T) {
	ctrl := newTestController()
	a, _ := connect(ctrl)
	b, bConn := connect(ctrl)
	c, cConn := connect(ctrl)
	_, _ = b, c

	send(ctrl, a, EventAnswer, `{"answer":{"sdp":"v=0"}}`)
	if bConn.count(EventAnswer) != 1 || cConn.count(EventAnswer) != 1 {
		t.Errorf("broadcast fallback delivery b=%d c=%d, want 1/1",
			bConn.count(EventAnswer), cConn.count(EventAnswer))
	}
}

func TestFallbackFlow(t *testing.T) {
	ctrl := newTestController()
	camera, cameraConn := connect(ctrl)
	viewer, viewerConn := connect(ctrl)

	// The camera may open a fallback room first; no viewer-creates rule.
	send(ctrl, camera, EventJoinFallback, `{"room_code":"482913","type":"camera"}`)
	joined := cameraConn.last(t, EventFallbackJoined)
	if joined == nil {
		t.Fatal("camera got no fallback_joined")
	}
	if joined["room_code"] != "482913" {
		t.Errorf("room_code = %v", joined["room_code"])
	}

	send(ctrl, viewer, EventJoinFallback, `{"room_code":"482913","type":"viewer"}`)

	send(ctrl, camera, EventFallbackFrame,
		`{"room_code":"482913","frame_data":"aGVsbG8=","timestamp":1717171717,"width":1280,"height":720}`)

	frame := viewerConn.last(t, EventFallbackFrame)
	if frame == nil {
		t.Fatal("viewer got no fallback_frame")
	}
	if frame["width"].(float64) != 1280 || frame["height"].(float64) != 720 {
		t.Errorf("frame dimensions = %vx%v, want 1280x720", frame["width"], frame["height"])
	}
	if cameraConn.count(EventFallbackFrame) != 0 {
		t.Error("frame echoed back to the camera")
	}
	// No ack on the frame path.
	if cameraConn.count(EventOfferSent)+cameraConn.count(EventAnswerSent) != 0 {
		t.Error("frame relay produced an ack")
	}

	// Leaving the fallback room stops delivery.
	send(ctrl, viewer, EventLeaveFallback, `{"room_code":"482913"}`)
	send(ctrl, camera, EventFallbackFrame,
		`{"room_code":"482913","frame_data":"aGVsbG8="}`)
	if viewerConn.count(EventFallbackFrame) != 1 {
		t.Errorf("viewer got %d frames after leaving, want 1", viewerConn.count(EventFallbackFrame))
	}
}

func TestTeardown_PurgesBothNamespaces(t *testing.T) {
	ctrl := newTestController()
	camera, _ := connect(ctrl)
	viewer, viewerConn := connect(ctrl)

	send(ctrl, viewer, EventJoinRoom, `{"code":"482913","type":"viewer"}`)
	send(ctrl, camera, EventJoinRoom, `{"code":"482913","type":"camera"}`)
	send(ctrl, viewer, EventJoinFallback, `{"room_code":"482913"}`)
	send(ctrl, camera, EventJoinFallback, `{"room_code":"482913"}`)

	ctrl.teardown(camera)

	if st := ctrl.directories.Rooms.Status("482913"); len(st.Members) != 1 {
		t.Errorf("signaling room members after teardown = %v", st.Members)
	}
	if st := ctrl.directories.Fallback.Status("482913"); len(st.Members) != 1 {
		t.Errorf("fallback room members after teardown = %v", st.Members)
	}
	if _, ok := ctrl.registry.Get(camera.ID()); ok {
		t.Error("registry still resolves the disconnected peer")
	}
	if update := viewerConn.last(t, EventRoomUpdate); update == nil {
		t.Error("survivor got no room_update after the disconnect")
	}
}

func TestPingPong(t *testing.T) {
	ctrl := newTestController()
	peer, conn := connect(ctrl)

	send(ctrl, peer, EventPing, `{"probe":1}`)
	pong := conn.last(t, EventPong)
	if pong == nil {
		t.Fatal("no pong reply")
	}
	if pong["status"] != "ok" {
		t.Errorf("pong status = %v", pong["status"])
	}
}

func TestRegistry_Lifecycle(t *testing.T) {
	registry := NewRegistry()
	conn := &fakeConn{}

	peer := registry.Add(conn)
	if peer.ID() == "" {
		t.Fatal("peer id is empty")
	}
	if registry.Len() != 1 {
		t.Errorf("Len = %d, want 1", registry.Len())
	}
	if _, ok := registry.Get(peer.ID()); !ok {
		t.Error("Get failed for a live peer")
	}

	second := registry.Add(&fakeConn{})
	if second.ID() == peer.ID() {
		t.Error("two peers share an id")
	}

	registry.Remove(peer.ID())
	if _, ok := registry.Get(peer.ID()); ok {
		t.Error("Get succeeded for a removed peer")
	}
	if got := len(registry.All()); got != 1 {
		t.Errorf("All returned %d peers, want 1", got)
	}
}
