package main

import (
	"math/rand"
	"strings"
	"sync"
)

const (
	roomCodeLength = 6
	roomCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// RoomStore owns every room plus the connection→room registry used to
// route disconnects. All access goes through its methods; callers never
// touch the maps directly.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	conns map[string]string // connection id -> room code
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*Room),
		conns: make(map[string]string),
	}
}

// normalizeCode uppercases a user-typed room code. Applied at every
// entry point so join and rejoin agree on the key.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func randomCode() string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = roomCodeChars[rand.Intn(len(roomCodeChars))]
	}
	return string(code)
}

// generateCodeLocked retries until the code is free among live rooms.
// With 36^6 codes the loop effectively never repeats.
func (s *RoomStore) generateCodeLocked() string {
	for {
		code := randomCode()
		if _, taken := s.rooms[code]; !taken {
			return code
		}
	}
}

// CreateRoom makes a room with the creator seated as its sole, ready
// player and registers the creator's connection.
func (s *RoomStore) CreateRoom(connID, creatorName string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := s.generateCodeLocked()
	room := newRoom(code, connID, creatorName)
	s.rooms[code] = room
	s.conns[connID] = code
	return room
}

func (s *RoomStore) Get(code string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[normalizeCode(code)]
	return room, ok
}

// Remove deletes a room unconditionally. Idempotent.
func (s *RoomStore) Remove(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, normalizeCode(code))
}

// DeleteIfEmpty drops the room once its last player is gone, but only
// if the game never started; started rooms are kept for reconnects and
// cleaned up by the reaper.
func (s *RoomStore) DeleteIfEmpty(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code = normalizeCode(code)
	room, ok := s.rooms[code]
	if !ok {
		return
	}
	if room.deletable() {
		delete(s.rooms, code)
	}
}

// Bind records which room a connection belongs to.
func (s *RoomStore) Bind(connID, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[connID] = normalizeCode(code)
}

func (s *RoomStore) Unbind(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, connID)
}

// RoomCodeFor looks up the room a connection was last bound to.
func (s *RoomStore) RoomCodeFor(connID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.conns[connID]
	return code, ok
}

// Rooms returns a snapshot of all live rooms.
func (s *RoomStore) Rooms() []*Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
