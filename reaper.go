package main

import (
	"log"
	"time"
)

const (
	reapInterval = time.Minute
	reapGrace    = 10 * time.Minute
)

// runReaper periodically removes started rooms whose players have all
// been disconnected past the grace period. Rooms that never started are
// already deleted the moment they empty out; without this, started
// rooms would live forever.
func (h *Hub) runReaper() {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for range ticker.C {
		if n := h.reapStaleRooms(time.Now()); n > 0 {
			log.Printf("🗑️ Reaped %d stale room(s)\n", n)
		}
	}
}

func (h *Hub) reapStaleRooms(now time.Time) int {
	reaped := 0
	for _, room := range h.store.Rooms() {
		if !room.stale(now, reapGrace) {
			continue
		}
		for _, id := range room.MemberIDs() {
			h.store.Unbind(id)
		}
		h.store.Remove(room.Code)
		reaped++
		log.Printf("🗑️ Room %s reaped (all players gone)\n", room.Code)
	}
	return reaped
}
