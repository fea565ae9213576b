package main

import (
	"sync"
	"time"
)

// wsConn is the part of *websocket.Conn the server writes through.
type wsConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Client is one live connection. Writes go through Send so that only one
// goroutine writes to the socket at a time.
type Client struct {
	ID   string
	Conn wsConn
	mu   sync.Mutex
}

func (c *Client) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteJSON(msg)
}

type Player struct {
	ConnectionID   string    `json:"connectionId"`
	Name           string    `json:"name"`
	Role           string    `json:"role,omitempty"`
	IsAlive        bool      `json:"isAlive"`
	IsReady        bool      `json:"isReady"`
	Connected      bool      `json:"connected"`
	JoinedAt       time.Time `json:"joinedAt"`
	DisconnectedAt time.Time `json:"-"`
}

type RoomSettings struct {
	MinPlayers     int            `json:"minPlayers"`
	GameTheme      string         `json:"gameTheme"`
	GameMasterMode string         `json:"gameMasterMode"` // "auto" or "player"
	VideoEnabled   bool           `json:"videoEnabled"`
	AudioEnabled   bool           `json:"audioEnabled"`
	VideoQuality   string         `json:"videoQuality"` // low, medium, high
	Roles          map[string]int `json:"roles"`
}

func defaultSettings() RoomSettings {
	return RoomSettings{
		MinPlayers:     4,
		GameTheme:      "classic",
		GameMasterMode: "auto",
		VideoEnabled:   true,
		AudioEnabled:   true,
		VideoQuality:   "medium",
		Roles:          map[string]int{},
	}
}

type GameState struct {
	IsStarted      bool      `json:"isStarted"`
	Phase          string    `json:"phase"` // waiting, night, day, voting, defense
	PhaseStartTime time.Time `json:"phaseStartTime"`
	PhaseTimeLimit int       `json:"phaseTimeLimit"` // seconds
	GameMasterID   string    `json:"gameMasterId,omitempty"`
}

type Room struct {
	Code      string
	CreatorID string
	Players   map[string]*Player
	Settings  RoomSettings
	GameState GameState
	CreatedAt time.Time
	mu        sync.Mutex
}

// Message is the JSON envelope for everything on the wire.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// clientMessage is the inbound envelope. Data carries the union of all
// command fields; each handler reads the ones it needs.
type clientMessage struct {
	Type string `json:"type"`
	Data struct {
		Code     string        `json:"code"`
		Name     string        `json:"name"`
		Text     string        `json:"text"`
		TargetID string        `json:"targetId"`
		Payload  string        `json:"payload"`
		Phase    string        `json:"phase"`
		Settings *RoomSettings `json:"settings"`
	} `json:"data"`
}

// PlayerInfo is the public view of a player. Roles are never in here;
// they only travel in per-recipient gameStarted/rejoined messages.
type PlayerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsReady   bool   `json:"isReady"`
	IsAlive   bool   `json:"isAlive"`
	Connected bool   `json:"connected"`
}

// RoomView is the room snapshot sent to a rejoining player.
type RoomView struct {
	Code      string       `json:"code"`
	CreatorID string       `json:"creatorId"`
	Players   []PlayerInfo `json:"players"`
	Settings  RoomSettings `json:"settings"`
	GameState GameState    `json:"gameState"`
}

type ChatMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type GameEvent struct {
	Message   string    `json:"message"`
	Icon      string    `json:"icon"`
	Timestamp time.Time `json:"timestamp"`
}

// roleGrant is one player's private share of a game start.
type roleGrant struct {
	ConnID       string
	Role         string
	IsGameMaster bool
}
