package main

import (
	"errors"
	"fmt"
	"time"
)

const maxPlayers = 12

var (
	errRoomFull       = errors.New("room is full")
	errDuplicateName  = errors.New("that name is already taken")
	errNotCreator     = errors.New("only the room creator can change settings")
	errAlreadyStarted = errors.New("game already started")
)

func newRoom(code, creatorID, creatorName string) *Room {
	now := time.Now()
	return &Room{
		Code:      code,
		CreatorID: creatorID,
		Players: map[string]*Player{
			creatorID: {
				ConnectionID: creatorID,
				Name:         creatorName,
				IsAlive:      true,
				IsReady:      true, // creator is auto-ready
				Connected:    true,
				JoinedAt:     now,
			},
		},
		Settings:  defaultSettings(),
		GameState: GameState{Phase: PhaseWaiting},
		CreatedAt: now,
	}
}

// AddPlayer seats a new player and returns the roster of everyone else,
// captured under the same lock so the joiner's snapshot and the
// insertion are atomic together.
func (r *Room) AddPlayer(connID, name string) ([]PlayerInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Players) >= maxPlayers {
		return nil, errRoomFull
	}
	for _, p := range r.Players {
		if p.Name == name {
			return nil, errDuplicateName
		}
	}

	others := make([]PlayerInfo, 0, len(r.Players))
	for _, p := range r.Players {
		others = append(others, playerInfo(p))
	}

	r.Players[connID] = &Player{
		ConnectionID: connID,
		Name:         name,
		IsAlive:      true,
		Connected:    true,
		JoinedAt:     time.Now(),
	}
	return others, nil
}

// RemovePlayer deletes the player entry and reports the removed name.
// The caller decides whether the room itself should go too.
func (r *Room) RemovePlayer(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.Players[connID]
	if !ok {
		return "", false
	}
	delete(r.Players, connID)
	return p.Name, true
}

// Rebind re-keys a player found by display name under a new connection
// id. Role, alive and ready state survive; this is a reconnect, not a
// fresh join.
func (r *Room) Rebind(name, newConnID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for oldID, p := range r.Players {
		if p.Name != name {
			continue
		}
		delete(r.Players, oldID)
		p.ConnectionID = newConnID
		p.Connected = true
		p.DisconnectedAt = time.Time{}
		r.Players[newConnID] = p
		if r.GameState.GameMasterID == oldID {
			r.GameState.GameMasterID = newConnID
		}
		return oldID, true
	}
	return "", false
}

// MarkDisconnected flags a player as gone without unseating them, so a
// started game can take them back later.
func (r *Room) MarkDisconnected(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.Players[connID]
	if !ok {
		return false
	}
	p.Connected = false
	p.DisconnectedAt = time.Now()
	return true
}

// HandleDrop applies the disconnect policy in one step: in a started
// game the player keeps their seat and is flagged disconnected, before
// the start they are removed outright.
func (r *Room) HandleDrop(connID string) (name string, kept, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, present := r.Players[connID]
	if !present {
		return "", false, false
	}
	if r.GameState.IsStarted {
		p.Connected = false
		p.DisconnectedAt = time.Now()
		return p.Name, true, true
	}
	delete(r.Players, connID)
	return p.Name, false, true
}

// UpdateSettings replaces the settings wholesale. Creator only.
func (r *Room) UpdateSettings(requesterID string, settings RoomSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.CreatorID {
		return errNotCreator
	}
	r.Settings = settings
	return nil
}

// IsModerator reports whether the connection may kick players, drive
// phases or log game events: the creator or the assigned game master.
func (r *Room) IsModerator(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return connID == r.CreatorID || (r.GameState.GameMasterID != "" && connID == r.GameState.GameMasterID)
}

func (r *Room) PlayerName(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Players[connID]
	if !ok {
		return "", false
	}
	return p.Name, true
}

// PlayerSnapshot returns a copy of one player's record.
func (r *Room) PlayerSnapshot(connID string) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Players[connID]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// MemberIDs snapshots the current broadcast set.
func (r *Room) MemberIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.Players))
	for id := range r.Players {
		ids = append(ids, id)
	}
	return ids
}

func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Players)
}

// View builds the public snapshot sent to a rejoining player.
func (r *Room) View() RoomView {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := make([]PlayerInfo, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, playerInfo(p))
	}
	return RoomView{
		Code:      r.Code,
		CreatorID: r.CreatorID,
		Players:   players,
		Settings:  r.Settings,
		GameState: r.GameState,
	}
}

// Start runs role assignment and moves the room into the night phase.
// It is a one-way gate: a second call fails and roles stay as dealt.
func (r *Room) Start() ([]roleGrant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.GameState.IsStarted {
		return nil, errAlreadyStarted
	}
	if len(r.Players) < r.Settings.MinPlayers {
		return nil, fmt.Errorf("at least %d players are needed to start", r.Settings.MinPlayers)
	}

	ids := make([]string, 0, len(r.Players))
	for id := range r.Players {
		ids = append(ids, id)
	}

	assigned := assignRoles(ids, r.Settings)
	for id, role := range assigned {
		r.Players[id].Role = role
	}

	if r.Settings.GameMasterMode == "player" {
		r.GameState.GameMasterID = pickGameMaster(ids)
	}

	r.GameState.IsStarted = true
	r.GameState.Phase = PhaseNight
	r.GameState.PhaseStartTime = time.Now()
	r.GameState.PhaseTimeLimit = phaseDuration(PhaseNight)

	grants := make([]roleGrant, 0, len(ids))
	for _, id := range ids {
		grants = append(grants, roleGrant{
			ConnID:       id,
			Role:         assigned[id],
			IsGameMaster: id == r.GameState.GameMasterID,
		})
	}
	return grants, nil
}

// SetPhase moves the room to the given phase and returns its advisory
// duration. Callers validate the phase name first.
func (r *Room) SetPhase(phase string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	duration := phaseDuration(phase)
	r.GameState.Phase = phase
	r.GameState.PhaseStartTime = time.Now()
	r.GameState.PhaseTimeLimit = duration
	return duration
}

// deletable is true for rooms that never started and have no players.
func (r *Room) deletable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Players) == 0 && !r.GameState.IsStarted
}

// stale is true for started rooms whose players have all been gone past
// the grace period; the reaper removes those.
func (r *Room) stale(now time.Time, grace time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.GameState.IsStarted {
		return false
	}
	for _, p := range r.Players {
		if p.Connected || now.Sub(p.DisconnectedAt) <= grace {
			return false
		}
	}
	return true
}

func playerInfo(p *Player) PlayerInfo {
	return PlayerInfo{
		ID:        p.ConnectionID,
		Name:      p.Name,
		IsReady:   p.IsReady,
		IsAlive:   p.IsAlive,
		Connected: p.Connected,
	}
}
