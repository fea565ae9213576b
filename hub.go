package main

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Hub is the session coordinator: it owns the live connections, routes
// inbound commands through the room store and the game rules, and fans
// the results back out. Per-room mutations serialize on the room's own
// lock; rooms never block each other.
type Hub struct {
	store   *RoomStore
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		store:   NewRoomStore(),
		clients: make(map[string]*Client),
	}
}

// Register assigns the connection its id and confirms it to the caller.
func (h *Hub) Register(conn wsConn) *Client {
	client := &Client{
		ID:   uuid.New().String(),
		Conn: conn,
	}

	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	client.Send(Message{
		Type: "connected",
		Data: map[string]string{"connectionId": client.ID},
	})
	log.Printf("🔌 Client connected [%s]\n", client.ID)
	return client
}

func (h *Hub) client(id string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	return c, ok
}

// sendTo unicasts to a connection if it is still live. Delivery to a
// dead connection is a logged no-op, never an error to the sender.
func (h *Hub) sendTo(connID string, msg Message) {
	target, ok := h.client(connID)
	if !ok {
		log.Printf("📭 Dropping %s for dead connection %s\n", msg.Type, connID)
		return
	}
	if err := target.Send(msg); err != nil {
		log.Printf("Error sending %s to client %s: %v\n", msg.Type, connID, err)
	}
}

func (h *Hub) sendError(c *Client, text string) {
	if err := c.Send(Message{Type: "error", Data: map[string]string{"message": text}}); err != nil {
		log.Printf("Error sending error to client %s: %v\n", c.ID, err)
	}
}

// broadcast fans a message out to every member of the room. The member
// set is snapshotted under the room lock; the writes happen outside it,
// and one slow or dead recipient never stalls the rest.
func (h *Hub) broadcast(room *Room, msg Message) {
	h.broadcastExcept(room, "", msg)
}

func (h *Hub) broadcastExcept(room *Room, exceptID string, msg Message) {
	for _, id := range room.MemberIDs() {
		if id == exceptID {
			continue
		}
		target, ok := h.client(id)
		if !ok {
			continue
		}
		if err := target.Send(msg); err != nil {
			log.Printf("Error broadcasting %s to client %s: %v\n", msg.Type, id, err)
		}
	}
}

// HandleMessage dispatches one inbound command. Every failure path ends
// in an error unicast to the caller, scoped to that caller's room.
func (h *Hub) HandleMessage(c *Client, msg clientMessage) {
	code := normalizeCode(msg.Data.Code)

	switch msg.Type {
	case "createRoom":
		h.handleCreateRoom(c, msg.Data.Name)
	case "joinRoom":
		h.handleJoinRoom(c, code, msg.Data.Name)
	case "rejoinRoom":
		h.handleRejoinRoom(c, code, msg.Data.Name)
	case "leaveRoom":
		h.handleLeaveRoom(c, code)
	case "updateSettings":
		h.handleUpdateSettings(c, code, msg.Data.Settings)
	case "chat":
		h.handleChat(c, code, msg.Data.Text)
	case "offer", "answer", "iceCandidate":
		h.handleSignal(c, msg.Type, msg.Data.TargetID, msg.Data.Payload)
	case "startGame":
		h.handleStartGame(c, code)
	case "changePhase":
		h.handleChangePhase(c, code, msg.Data.Phase)
	case "gameEvent":
		h.handleGameEvent(c, code, msg.Data.Text)
	case "kickPlayer":
		h.handleKickPlayer(c, code, msg.Data.TargetID)
	default:
		log.Printf("Unknown message type %q from client %s\n", msg.Type, c.ID)
	}
}

func (h *Hub) handleCreateRoom(c *Client, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		h.sendError(c, "name is required")
		return
	}

	room := h.store.CreateRoom(c.ID, name)
	c.Send(Message{Type: "roomCreated", Data: map[string]string{"code": room.Code}})
	log.Printf("✅ Room %s created by %s [%s]\n", room.Code, name, c.ID)
}

func (h *Hub) handleJoinRoom(c *Client, code, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		h.sendError(c, "name is required")
		return
	}

	room, ok := h.store.Get(code)
	if !ok {
		h.sendError(c, "room not found")
		return
	}

	others, err := room.AddPlayer(c.ID, name)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}
	h.store.Bind(c.ID, room.Code)

	c.Send(Message{Type: "existingPlayers", Data: others})
	h.broadcastExcept(room, c.ID, Message{
		Type: "playerJoined",
		Data: map[string]string{"id": c.ID, "name": name},
	})
	log.Printf("👤 %s [%s] joined room %s (%d players)\n", name, c.ID, room.Code, room.PlayerCount())
}

func (h *Hub) handleRejoinRoom(c *Client, code, name string) {
	room, ok := h.store.Get(code)
	if !ok {
		h.sendError(c, "room not found")
		return
	}

	oldID, ok := room.Rebind(strings.TrimSpace(name), c.ID)
	if !ok {
		h.sendError(c, "player not found")
		return
	}
	h.store.Unbind(oldID)
	h.store.Bind(c.ID, room.Code)

	p, _ := room.PlayerSnapshot(c.ID)
	view := room.View()
	c.Send(Message{Type: "rejoined", Data: map[string]interface{}{
		"room":         view,
		"role":         p.Role,
		"isGameMaster": view.GameState.GameMasterID == c.ID,
	}})

	// A rejoin is not a fresh join: the others only see the status flip.
	h.broadcastExcept(room, c.ID, Message{
		Type: "playerStatus",
		Data: map[string]string{"id": c.ID, "status": "connected"},
	})
	log.Printf("🔄 %s rejoined room %s as [%s] (was [%s])\n", name, room.Code, c.ID, oldID)
}

func (h *Hub) handleLeaveRoom(c *Client, code string) {
	room, ok := h.store.Get(code)
	if !ok {
		h.sendError(c, "room not found")
		return
	}

	name, ok := room.RemovePlayer(c.ID)
	if !ok {
		return
	}
	h.store.Unbind(c.ID)

	h.broadcast(room, Message{Type: "playerLeft", Data: map[string]string{"id": c.ID}})
	h.store.DeleteIfEmpty(room.Code)
	log.Printf("👋 %s [%s] left room %s\n", name, c.ID, room.Code)
}

func (h *Hub) handleUpdateSettings(c *Client, code string, settings *RoomSettings) {
	room, ok := h.store.Get(code)
	if !ok {
		h.sendError(c, "room not found")
		return
	}
	if settings == nil {
		h.sendError(c, "settings are required")
		return
	}

	if err := room.UpdateSettings(c.ID, *settings); err != nil {
		h.sendError(c, err.Error())
		return
	}

	h.broadcast(room, Message{Type: "settingsUpdated", Data: *settings})
	log.Printf("⚙️ Settings updated for room %s\n", room.Code)
}

func (h *Hub) handleChat(c *Client, code, text string) {
	room, ok := h.store.Get(code)
	if !ok {
		h.sendError(c, "room not found")
		return
	}

	sender, ok := room.PlayerName(c.ID)
	if !ok {
		// Chat from a non-member is dropped; only the log sees it.
		log.Printf("💬 Dropping chat from non-member [%s] for room %s\n", c.ID, room.Code)
		return
	}

	h.broadcast(room, Message{Type: "chat", Data: ChatMessage{
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}})
}

// handleSignal relays a WebRTC payload to one target connection. The
// payload is opaque; the hub only stamps the sender's id onto it.
func (h *Hub) handleSignal(c *Client, kind, targetID, payload string) {
	h.sendTo(targetID, Message{Type: kind, Data: map[string]string{
		"fromId":  c.ID,
		"payload": payload,
	}})
}

func (h *Hub) handleStartGame(c *Client, code string) {
	room, ok := h.store.Get(code)
	if !ok {
		h.sendError(c, "room not found")
		return
	}

	grants, err := room.Start()
	if err != nil {
		h.sendError(c, err.Error())
		return
	}

	// Roles are strictly per-recipient; they never ride a broadcast.
	for _, grant := range grants {
		h.sendTo(grant.ConnID, Message{Type: "gameStarted", Data: map[string]interface{}{
			"role":         grant.Role,
			"isGameMaster": grant.IsGameMaster,
		}})
	}

	h.broadcast(room, Message{Type: "phaseChanged", Data: map[string]interface{}{
		"phase":    PhaseNight,
		"duration": phaseDuration(PhaseNight),
	}})
	log.Printf("🎮 Game started in room %s with %d players\n", room.Code, len(grants))
}

func (h *Hub) handleChangePhase(c *Client, code, phase string) {
	room, ok := h.store.Get(code)
	if !ok {
		h.sendError(c, "room not found")
		return
	}
	if !room.IsModerator(c.ID) {
		h.sendError(c, "only the creator or game master can change the phase")
		return
	}
	if !validPhase(phase) {
		h.sendError(c, "unknown phase")
		return
	}

	duration := room.SetPhase(phase)
	h.broadcast(room, Message{Type: "phaseChanged", Data: map[string]interface{}{
		"phase":    phase,
		"duration": duration,
	}})
	log.Printf("🌙 Room %s phase changed to %s\n", room.Code, phase)
}

func (h *Hub) handleGameEvent(c *Client, code, text string) {
	room, ok := h.store.Get(code)
	if !ok {
		h.sendError(c, "room not found")
		return
	}
	if !room.IsModerator(c.ID) {
		h.sendError(c, "only the creator or game master can log events")
		return
	}

	h.broadcast(room, Message{Type: "gameEvent", Data: GameEvent{
		Message:   text,
		Icon:      "📢",
		Timestamp: time.Now().UTC(),
	}})
}

func (h *Hub) handleKickPlayer(c *Client, code, targetID string) {
	room, ok := h.store.Get(code)
	if !ok {
		h.sendError(c, "room not found")
		return
	}
	if !room.IsModerator(c.ID) {
		h.sendError(c, "you are not allowed to kick players")
		return
	}

	name, ok := room.RemovePlayer(targetID)
	if !ok {
		h.sendError(c, "player not found")
		return
	}
	h.store.Unbind(targetID)

	// The target is already out of the member set, so the room broadcast
	// cannot reach them; the kick notice goes direct.
	h.broadcast(room, Message{Type: "playerLeft", Data: map[string]string{"id": targetID}})
	h.sendTo(targetID, Message{Type: "kicked", Data: map[string]string{"reason": "you were removed from the game"}})
	log.Printf("❌ %s [%s] kicked from room %s\n", name, targetID, room.Code)
}

// HandleDisconnect runs when a connection drops. Started games keep the
// player record around for a rejoin; waiting rooms drop it outright.
func (h *Hub) HandleDisconnect(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	h.mu.Unlock()
	log.Printf("🔌 Client disconnected [%s]\n", c.ID)

	code, ok := h.store.RoomCodeFor(c.ID)
	if !ok {
		return
	}
	room, ok := h.store.Get(code)
	if !ok {
		return
	}

	name, kept, ok := room.HandleDrop(c.ID)
	if !ok {
		return
	}

	if kept {
		h.broadcastExcept(room, c.ID, Message{
			Type: "playerStatus",
			Data: map[string]string{"id": c.ID, "status": "disconnected"},
		})
		log.Printf("⏸️ %s [%s] disconnected from started room %s, keeping seat\n", name, c.ID, room.Code)
		return
	}

	h.store.Unbind(c.ID)
	h.broadcast(room, Message{Type: "playerLeft", Data: map[string]string{"id": c.ID}})
	h.store.DeleteIfEmpty(room.Code)
	log.Printf("👋 %s [%s] left room %s on disconnect\n", name, c.ID, room.Code)
}
