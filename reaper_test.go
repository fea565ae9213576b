package main

import (
	"testing"
	"time"
)

func startedTwoPlayerRoom(t *testing.T, h *Hub) (code string, alice, bob *Client) {
	t.Helper()
	alice, aliceConn := connect(h)
	code = createRoom(t, h, alice, aliceConn, "Alice")
	bob, _ = connect(h)
	joinRoom(t, h, bob, code, "Bob")
	setMinPlayers(t, h, alice, code, 2)
	h.HandleMessage(alice, cmd(t, "startGame", map[string]interface{}{"code": code}))
	if aliceConn.count("gameStarted") != 1 {
		t.Fatal("game did not start")
	}
	return code, alice, bob
}

func TestReapStaleStartedRoom(t *testing.T) {
	h := NewHub()
	code, alice, bob := startedTwoPlayerRoom(t, h)

	h.HandleDisconnect(alice)
	h.HandleDisconnect(bob)

	// Still inside the grace period.
	if n := h.reapStaleRooms(time.Now()); n != 0 {
		t.Fatalf("reaped %d rooms inside the grace period", n)
	}
	if _, ok := h.store.Get(code); !ok {
		t.Fatal("room reaped too early")
	}

	// Past the grace period the room and its bindings go.
	if n := h.reapStaleRooms(time.Now().Add(reapGrace + time.Minute)); n != 1 {
		t.Fatalf("expected 1 reaped room, got %d", n)
	}
	if _, ok := h.store.Get(code); ok {
		t.Error("stale room survived the reaper")
	}
	if _, ok := h.store.RoomCodeFor(alice.ID); ok {
		t.Error("stale connection binding survived the reaper")
	}
}

func TestReapKeepsRoomsWithConnectedPlayers(t *testing.T) {
	h := NewHub()
	code, _, bob := startedTwoPlayerRoom(t, h)

	h.HandleDisconnect(bob) // Alice is still connected

	if n := h.reapStaleRooms(time.Now().Add(reapGrace + time.Minute)); n != 0 {
		t.Fatalf("reaped %d rooms that still have a connected player", n)
	}
	if _, ok := h.store.Get(code); !ok {
		t.Error("active room was reaped")
	}
}

func TestReapIgnoresWaitingRooms(t *testing.T) {
	h := NewHub()
	alice, aliceConn := connect(h)
	code := createRoom(t, h, alice, aliceConn, "Alice")

	room, _ := h.store.Get(code)
	room.MarkDisconnected(alice.ID)

	if n := h.reapStaleRooms(time.Now().Add(24 * time.Hour)); n != 0 {
		t.Fatalf("reaped %d rooms that never started", n)
	}
	if _, ok := h.store.Get(code); !ok {
		t.Error("waiting room was reaped")
	}
}
