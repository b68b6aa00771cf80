package domain

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

func testMember(t *testing.T, name string, role Role) *Member {
	t.Helper()
	user, err := NewUser(name)
	if err != nil {
		t.Fatal(err)
	}
	return NewMember("token-"+name, user, role)
}

func TestNewRoom(t *testing.T) {
	owner := testMember(t, "alice", RoleOwner)

	room, err := NewRoom("  general  ", owner, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if room.Name != "general" {
		t.Errorf("expected trimmed name, got %q", room.Name)
	}
	if room.Capacity != 50 {
		t.Errorf("expected default capacity 50, got %d", room.Capacity)
	}
	if len(room.JoinCode) != 6 {
		t.Errorf("expected 6 character join code, got %q", room.JoinCode)
	}
	for _, r := range room.JoinCode {
		if !strings.ContainsRune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789", r) {
			t.Errorf("join code contains ambiguous character %q", r)
		}
	}
	if len(room.Members) != 1 {
		t.Fatalf("expected owner to be a member, got %d members", len(room.Members))
	}
	if room.Owner.Role != RoleOwner {
		t.Errorf("expected owner role, got %q", room.Owner.Role)
	}
}

func TestRoom_AddMember(t *testing.T) {
	owner := testMember(t, "alice", RoleOwner)
	room, err := NewRoom("general", owner, 2)
	if err != nil {
		t.Fatal(err)
	}

	bob := testMember(t, "bobby", RoleMember)
	if err := room.AddMember(bob); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if err := room.AddMember(bob); err != ErrAlreadyInRoom {
		t.Errorf("expected ErrAlreadyInRoom, got %v", err)
	}

	carol := testMember(t, "carol", RoleMember)
	if err := room.AddMember(carol); err != ErrRoomFull {
		t.Errorf("expected ErrRoomFull at capacity, got %v", err)
	}
}

func TestRoom_LeaveAndAutoPromote(t *testing.T) {
	owner := testMember(t, "alice", RoleOwner)
	room, err := NewRoom("general", owner, 10)
	if err != nil {
		t.Fatal(err)
	}

	bob := testMember(t, "bobby", RoleMember)
	if err := room.AddMember(bob); err != nil {
		t.Fatal(err)
	}

	if err := room.LeaveAndAutoPromote(room.FindMemberByUserID(owner.User.ID)); err != nil {
		t.Fatalf("leave failed: %v", err)
	}

	if room.Owner == nil || room.Owner.User.Name != "bobby" {
		t.Fatal("expected remaining member to be promoted to owner")
	}
	if room.Owner.Role != RoleOwner {
		t.Errorf("expected promoted member to carry the owner role, got %q", room.Owner.Role)
	}

	if err := room.LeaveAndAutoPromote(room.Owner); err != nil {
		t.Fatalf("final leave failed: %v", err)
	}
	if room.Owner != nil {
		t.Error("expected no owner in an empty room")
	}

	if err := room.LeaveAndAutoPromote(bob); err != ErrMemberNotFound {
		t.Errorf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestRoom_ConcurrentMembershipAccess(t *testing.T) {
	owner := testMember(t, "alice", RoleOwner)
	room, err := NewRoom("general", owner, 64)
	if err != nil {
		t.Fatal(err)
	}

	// Joins race membership reads the way HTTP handlers race the
	// persistence goroutines; run under -race.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		m := testMember(t, fmt.Sprintf("user%02d", i), RoleMember)
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := room.AddMember(m); err != nil {
				t.Errorf("add failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			room.FindMemberByUserID(m.User.ID)
			room.MemberList()
			room.OwnerMember()
		}()
	}
	wg.Wait()

	if got := len(room.MemberList()); got != 17 {
		t.Errorf("expected 17 members after concurrent joins, got %d", got)
	}
	if found := room.FindMemberByUserID(owner.User.ID); found == nil {
		t.Error("owner missing from membership")
	} else {
		// The finder hands back a copy; mutating it must not write
		// through to the room.
		found.Role = RoleMember
		if room.OwnerMember().Role != RoleOwner {
			t.Error("expected finder results to be detached copies")
		}
	}
}

func TestMember_CanDelete(t *testing.T) {
	owner := testMember(t, "alice", RoleOwner)
	mod := testMember(t, "bobby", RoleModerator)
	member := testMember(t, "carol", RoleMember)

	if !member.CanDelete(member.User.ID) {
		t.Error("members may delete their own messages")
	}
	if member.CanDelete(owner.User.ID) {
		t.Error("members may not delete others' messages")
	}
	if !mod.CanDelete(member.User.ID) {
		t.Error("moderators may delete any message")
	}
	if !owner.CanDelete(member.User.ID) {
		t.Error("owners may delete any message")
	}
}
