package repository

import (
	"context"
	"sync"
	"time"

	"github.com/xenitV1/owl-chat/internal/domain"
)

type roomEntry struct {
	room *domain.Room
	seen time.Time
}

// roomRepository keeps live rooms in memory, indexed by id and join
// code. Rooms idle past idleAfter are evicted lazily on the next write,
// and the total count is bounded by capacity.
type roomRepository struct {
	mu        sync.RWMutex
	byID      map[string]*roomEntry
	byCode    map[string]string // join code -> room id
	capacity  uint
	idleAfter time.Duration
}

func NewRoomRepository(capacity uint, idleAfter time.Duration) domain.RoomRepository {
	if capacity == 0 {
		capacity = 100
	}
	if idleAfter == 0 {
		idleAfter = 30 * time.Minute
	}

	return &roomRepository{
		byID:      make(map[string]*roomEntry),
		byCode:    make(map[string]string),
		capacity:  capacity,
		idleAfter: idleAfter,
	}
}

// dropLocked removes a room and its join-code index entry.
func (r *roomRepository) dropLocked(id string) {
	if entry, ok := r.byID[id]; ok {
		delete(r.byCode, entry.room.JoinCode)
		delete(r.byID, id)
	}
}

func (r *roomRepository) evictIdleLocked() {
	cutoff := time.Now().Add(-r.idleAfter)
	for id, entry := range r.byID {
		if entry.seen.Before(cutoff) {
			r.dropLocked(id)
		}
	}
}

func (r *roomRepository) enforceCapacityLocked() {
	for uint(len(r.byID)) > r.capacity {
		var oldestID string
		var oldest time.Time
		for id, entry := range r.byID {
			if oldestID == "" || entry.seen.Before(oldest) {
				oldestID, oldest = id, entry.seen
			}
		}
		r.dropLocked(oldestID)
	}
}

func (r *roomRepository) Create(ctx context.Context, room *domain.Room) error {
	if room == nil || room.ID == "" || room.JoinCode == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictIdleLocked()

	if _, exists := r.byID[room.ID]; exists {
		return domain.ErrRoomAlreadyExists
	}
	if _, exists := r.byCode[room.JoinCode]; exists {
		return domain.ErrRoomAlreadyExists
	}

	r.byID[room.ID] = &roomEntry{room: room, seen: time.Now()}
	r.byCode[room.JoinCode] = room.ID

	r.enforceCapacityLocked()

	return nil
}

func (r *roomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.byID[id]
	if !exists {
		return nil, domain.ErrRoomNotFound
	}
	entry.seen = time.Now()

	return entry.room, nil
}

func (r *roomRepository) GetByJoinCode(ctx context.Context, joinCode string) (*domain.Room, error) {
	if joinCode == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, exists := r.byCode[joinCode]
	if !exists {
		return nil, domain.ErrRoomNotFound
	}
	entry := r.byID[id]
	entry.seen = time.Now()

	return entry.room, nil
}

func (r *roomRepository) Delete(ctx context.Context, room *domain.Room) (*domain.Room, error) {
	if room == nil || room.ID == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.byID[room.ID]
	if !exists {
		return nil, domain.ErrRoomNotFound
	}
	r.dropLocked(room.ID)

	return entry.room, nil
}

func (r *roomRepository) Update(ctx context.Context, room *domain.Room) error {
	if room == nil || room.ID == "" || room.JoinCode == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.byID[room.ID]
	if !exists {
		return domain.ErrRoomNotFound
	}

	// The join code is immutable once issued.
	if entry.room.JoinCode != room.JoinCode {
		return domain.ErrInvalidInput
	}

	entry.room = room
	entry.seen = time.Now()

	return nil
}

func (r *roomRepository) RemoveMember(ctx context.Context, roomID string, memberToken string) (*domain.Member, error) {
	room, err := r.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	member := room.FindMemberByID(memberToken)
	if member == nil {
		return nil, domain.ErrMemberNotFound
	}

	if err := room.LeaveAndAutoPromote(member); err != nil {
		return nil, err
	}

	return member, nil
}
