package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Story entry types.
const (
	EntryNarration    = "narration"
	EntryPlayerAction = "player_action"
	EntryNPCAction    = "npc_action"
	EntrySystem       = "system"
)

// GameSession is one continuous adventure instance tied to one user and
// one character.
type GameSession struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64  `gorm:"index:idx_session_user;not null" json:"user_id"`
	CharacterID int64  `gorm:"not null" json:"character_id"`
	SessionName string `gorm:"size:200;not null" json:"session_name"`

	WorldSetting    string `gorm:"size:100;default:'fantasy'" json:"world_setting"`
	DifficultyLevel string `gorm:"size:20;default:'normal'" json:"difficulty_level"`

	CurrentScene    string `gorm:"type:text" json:"current_scene"`
	CurrentLocation string `gorm:"size:200" json:"current_location"`
	StoryContext    string `gorm:"type:text" json:"story_context"`

	StoryLog      datatypes.JSON `json:"story_log"`
	PlayerActions datatypes.JSON `json:"player_actions"`

	WorldState      datatypes.JSON `json:"world_state"`
	ActiveQuests    datatypes.JSON `json:"active_quests"`
	CompletedQuests datatypes.JSON `json:"completed_quests"`
	// NextQuestID is a session-scoped monotonic quest id counter.
	NextQuestID int64 `gorm:"default:1" json:"-"`

	AIPersonality string `gorm:"size:50;default:'balanced'" json:"ai_personality"`
	AIDifficulty  string `gorm:"size:20;default:'normal'" json:"ai_difficulty"`

	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	LastPlayed time.Time `json:"last_played"`

	NPCs []NPC `gorm:"foreignKey:GameSessionID;constraint:OnDelete:CASCADE" json:"-"`
}

// StoryEntry is one event in the session's append-only story log.
// Insertion order is the log's total order.
type StoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"` // narration | player_action | npc_action | system
	Content   string    `json:"content"`
	Actor     string    `json:"actor,omitempty"`
}

// PlayerAction is one entry in the session's player-action log.
type PlayerAction struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Result    string    `json:"result,omitempty"`
}

// Quest is one mission, active or completed.
type Quest struct {
	ID          int64                  `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Reward      map[string]interface{} `json:"reward,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

// Story decodes the story-log blob.
func (s *GameSession) Story() []StoryEntry {
	var out []StoryEntry
	if len(s.StoryLog) > 0 {
		_ = json.Unmarshal(s.StoryLog, &out)
	}
	return out
}

// SetStory encodes the story-log blob.
func (s *GameSession) SetStory(entries []StoryEntry) {
	data, _ := json.Marshal(entries)
	s.StoryLog = datatypes.JSON(data)
}

// Actions decodes the player-action blob.
func (s *GameSession) Actions() []PlayerAction {
	var out []PlayerAction
	if len(s.PlayerActions) > 0 {
		_ = json.Unmarshal(s.PlayerActions, &out)
	}
	return out
}

// SetActions encodes the player-action blob.
func (s *GameSession) SetActions(actions []PlayerAction) {
	data, _ := json.Marshal(actions)
	s.PlayerActions = datatypes.JSON(data)
}

// State decodes the world-state blob.
func (s *GameSession) State() map[string]interface{} {
	out := map[string]interface{}{}
	if len(s.WorldState) > 0 {
		_ = json.Unmarshal(s.WorldState, &out)
	}
	return out
}

// SetState encodes the world-state blob.
func (s *GameSession) SetState(state map[string]interface{}) {
	data, _ := json.Marshal(state)
	s.WorldState = datatypes.JSON(data)
}

// Active decodes the active-quest blob.
func (s *GameSession) Active() []Quest {
	return decodeQuests(s.ActiveQuests)
}

// SetActive encodes the active-quest blob.
func (s *GameSession) SetActive(quests []Quest) {
	data, _ := json.Marshal(quests)
	s.ActiveQuests = datatypes.JSON(data)
}

// Completed decodes the completed-quest blob.
func (s *GameSession) Completed() []Quest {
	return decodeQuests(s.CompletedQuests)
}

// SetCompleted encodes the completed-quest blob.
func (s *GameSession) SetCompleted(quests []Quest) {
	data, _ := json.Marshal(quests)
	s.CompletedQuests = datatypes.JSON(data)
}

func decodeQuests(blob datatypes.JSON) []Quest {
	var out []Quest
	if len(blob) > 0 {
		_ = json.Unmarshal(blob, &out)
	}
	return out
}
