package domain

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xenitV1/owl-chat/internal/infrastructure/validate"
)

const (
	defaultCapacity = 50
	joinCodeLength  = 6

	joinCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var charsetLen = big.NewInt(int64(len(joinCodeChars)))

// Room is the durable room record: metadata plus membership and roles.
// Live connection state is tracked separately by the websocket registry
// and does not survive a server restart. Membership is read by HTTP
// handlers and the core's persistence goroutines concurrently, so
// Members and Owner are guarded by mu; use the methods rather than the
// fields once a room is shared.
type Room struct {
	mu sync.RWMutex

	ID        string    `json:"id"`
	Name      string    `json:"name"`
	JoinCode  string    `json:"joinCode"`
	Owner     *Member   `json:"owner"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"createdAt"`
	Members   []Member  `json:"members"`
}

type RoomRepository interface {
	Create(ctx context.Context, room *Room) error
	GetByID(ctx context.Context, id string) (*Room, error)
	GetByJoinCode(ctx context.Context, joinCode string) (*Room, error)
	Delete(ctx context.Context, room *Room) (*Room, error)
	Update(ctx context.Context, room *Room) error
	RemoveMember(ctx context.Context, roomID string, memberID string) (*Member, error)
}

var validateRoomName = validate.Field("room name",
	validate.Required(),
	validate.LengthBetween(1, 64),
)

func NewRoom(name string, owner *Member, capacity int) (*Room, error) {
	if owner == nil || owner.User == nil {
		return nil, ErrInvalidInput
	}
	name = strings.TrimSpace(name)
	if err := validateRoomName(name); err != nil {
		return nil, err
	}
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	code, err := generateJoinCode()
	if err != nil {
		return nil, err
	}

	owner.Role = RoleOwner

	room := &Room{
		ID:        uuid.NewString(),
		Name:      name,
		JoinCode:  code,
		Owner:     owner,
		Capacity:  capacity,
		CreatedAt: time.Now(),
		Members:   make([]Member, 0, capacity),
	}

	if err := room.AddMember(owner); err != nil {
		return nil, err
	}

	return room, nil
}

func (r *Room) AddMember(m *Member) error {
	if m == nil {
		return ErrMemberNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Members) >= r.Capacity {
		return ErrRoomFull
	}
	for _, existing := range r.Members {
		if existing.Token == m.Token {
			return ErrAlreadyInRoom
		}
	}
	r.Members = append(r.Members, *m)
	return nil
}

// FindMemberByID returns a copy, so the caller holds no reference into
// the membership slice.
func (r *Room) FindMemberByID(memberToken string) *Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.Members {
		if r.Members[i].Token == memberToken {
			m := r.Members[i]
			return &m
		}
	}
	return nil
}

func (r *Room) FindMemberByUserID(userID string) *Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.Members {
		if r.Members[i].User != nil && r.Members[i].User.ID == userID {
			m := r.Members[i]
			return &m
		}
	}
	return nil
}

// MemberList copies the membership for safe iteration while other
// requests join or leave.
func (r *Room) MemberList() []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Member, len(r.Members))
	copy(out, r.Members)
	return out
}

// OwnerMember returns a copy of the current owner, or nil for an empty
// room.
func (r *Room) OwnerMember() *Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Owner == nil {
		return nil
	}
	o := *r.Owner
	return &o
}

func (r *Room) IsOwner(member *Member) bool {
	if member == nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.Owner != nil && r.Owner.User.ID == member.User.ID
}

func (r *Room) RemoveMember(m *Member) error {
	return r.LeaveAndAutoPromote(m)
}

// LeaveAndAutoPromote removes a member; if the owner left, the first
// remaining member is promoted.
func (r *Room) LeaveAndAutoPromote(m *Member) error {
	if m == nil {
		return ErrMemberNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, mem := range r.Members {
		if mem.User.ID == m.User.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrMemberNotFound
	}

	// Swap-remove to keep O(1)
	r.Members[idx] = r.Members[len(r.Members)-1]
	r.Members = r.Members[:len(r.Members)-1]

	if r.Owner != nil && r.Owner.User.ID == m.User.ID {
		if len(r.Members) > 0 {
			r.Members[0].Role = RoleOwner
			r.Owner = &r.Members[0]
		} else {
			r.Owner = nil
		}
	}
	return nil
}

func generateJoinCode() (string, error) {
	var sb strings.Builder
	sb.Grow(joinCodeLength)

	for i := 0; i < joinCodeLength; i++ {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", err
		}
		sb.WriteByte(joinCodeChars[n.Int64()])
	}

	return sb.String(), nil
}
