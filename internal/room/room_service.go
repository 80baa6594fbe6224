package room

import (
	"errors"
	"strings"
	"sync"
)

var (
	ErrInvalidRoomCode = errors.New("invalid room code")
	ErrRoomNotFound    = errors.New("room not found")
)

// Role is the device type a connection announces when joining.
type Role string

const (
	RoleCamera Role = "camera"
	RoleViewer Role = "viewer"
)

// CreatePolicy decides who may open a room by joining an unused code.
type CreatePolicy int

const (
	// ViewerCreates: a viewer/dashboard opens the room; a camera joining an
	// unknown code is rejected so a mistyped code fails fast on the phone.
	ViewerCreates CreatePolicy = iota

	// AnyCreates: whoever arrives first opens the room. Used by the
	// degraded frame path, where the camera may reconnect before the
	// dashboard does.
	AnyCreates
)

// Directory maps 6-digit room codes to their live members. A room exists
// if and only if it has at least one member; the last leave deletes it.
//
// The directory mutex only guards the code map. Every room carries its own
// mutex, so mutations on different codes never contend.
type Directory struct {
	policy CreatePolicy

	mu    sync.RWMutex
	rooms map[string]*room
}

type room struct {
	mu sync.Mutex

	// Join order is kept so status snapshots list members the way they
	// arrived, oldest first.
	members []string

	// gone marks a room that was emptied and unlinked from the directory
	// while another goroutine still holds a pointer to it.
	gone bool
}

func NewDirectory(policy CreatePolicy) *Directory {
	return &Directory{
		policy: policy,
		rooms:  make(map[string]*room),
	}
}

// JoinResult is the membership snapshot taken at the moment of the join.
type JoinResult struct {
	Code    string
	Role    Role
	Members []string
}

// TotalClients is the member count the join/update events carry.
func (r *JoinResult) TotalClients() int { return len(r.Members) }

// ValidCode reports whether code is exactly six ASCII digits.
func ValidCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// Join adds connID to the room identified by code, creating the room when
// the policy allows it. Re-joining a room the connection is already in is
// a no-op, not an error.
func (d *Directory) Join(code string, connID string, role Role) (*JoinResult, error) {
	code = strings.TrimSpace(code)
	if !ValidCode(code) {
		return nil, ErrInvalidRoomCode
	}
	if role == "" {
		role = RoleViewer
	}

	for {
		d.mu.Lock()
		r, ok := d.rooms[code]
		if !ok {
			if d.policy == ViewerCreates && role == RoleCamera {
				d.mu.Unlock()
				return nil, ErrRoomNotFound
			}
			r = &room{}
			d.rooms[code] = r
		}
		d.mu.Unlock()

		r.mu.Lock()
		if r.gone {
			// Lost a race against the delete-on-empty path; the code no
			// longer maps to this room. Start over.
			r.mu.Unlock()
			continue
		}
		if !r.has(connID) {
			r.members = append(r.members, connID)
		}
		res := &JoinResult{
			Code:    code,
			Role:    role,
			Members: r.snapshot(),
		}
		r.mu.Unlock()
		return res, nil
	}
}

// LeaveResult reports what a removal did to the room.
type LeaveResult struct {
	Code string

	// Removed is false when the connection was not a member; the leave is
	// still reported as success to the caller.
	Removed bool

	// Deleted is true when the room emptied out and was dropped. Members
	// is nil in that case — there is no one left to notify.
	Deleted bool
	Members []string
}

// Leave removes connID from the room if present, deleting the room when it
// becomes empty. An unknown code or a non-member leave is a no-op.
func (d *Directory) Leave(code string, connID string) (*LeaveResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidRoomCode
	}

	d.mu.RLock()
	r, ok := d.rooms[code]
	d.mu.RUnlock()
	if !ok {
		return &LeaveResult{Code: code}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gone || !r.has(connID) {
		return &LeaveResult{Code: code}, nil
	}
	r.remove(connID)
	res := &LeaveResult{Code: code, Removed: true}
	if len(r.members) == 0 {
		r.gone = true
		res.Deleted = true
		d.unlink(code, r)
	} else {
		res.Members = r.snapshot()
	}
	return res, nil
}

// Status is a read-only snapshot. Unknown codes report Exists=false and an
// empty member list instead of an error.
type Status struct {
	Code    string
	Exists  bool
	Members []string
}

func (d *Directory) Status(code string) *Status {
	code = strings.TrimSpace(code)

	d.mu.RLock()
	r, ok := d.rooms[code]
	d.mu.RUnlock()
	if !ok {
		return &Status{Code: code, Members: []string{}}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gone {
		return &Status{Code: code, Members: []string{}}
	}
	return &Status{Code: code, Exists: true, Members: r.snapshot()}
}

// Members returns the current member ids of a room, or nil for an unknown
// code. This is the lookup the signaling relay scopes its delivery with.
func (d *Directory) Members(code string) []string {
	s := d.Status(code)
	if !s.Exists {
		return nil
	}
	return s.Members
}

// Purge removes connID from every room it is a member of. It returns one
// LeaveResult per affected room so the caller can notify the survivors.
// This is the disconnect path and must leave no stale membership behind.
func (d *Directory) Purge(connID string) []*LeaveResult {
	d.mu.RLock()
	codes := make([]string, 0, len(d.rooms))
	for code := range d.rooms {
		codes = append(codes, code)
	}
	d.mu.RUnlock()

	var results []*LeaveResult
	for _, code := range codes {
		res, err := d.Leave(code, connID)
		if err != nil || !res.Removed {
			continue
		}
		results = append(results, res)
	}
	return results
}

// unlink drops the code→room mapping. Caller holds r.mu; the directory
// lock is taken second here and never the other way around.
func (d *Directory) unlink(code string, r *room) {
	d.mu.Lock()
	if cur, ok := d.rooms[code]; ok && cur == r {
		delete(d.rooms, code)
	}
	d.mu.Unlock()
}

func (r *room) has(connID string) bool {
	for _, id := range r.members {
		if id == connID {
			return true
		}
	}
	return false
}

func (r *room) remove(connID string) {
	for i, id := range r.members {
		if id == connID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return
		}
	}
}

func (r *room) snapshot() []string {
	out := make([]string, len(r.members))
	copy(out, r.members)
	return out
}
