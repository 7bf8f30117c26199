package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// NPC is a non-player character owned by a GameSession. Deleting the
// session deletes its NPCs.
type NPC struct {
	ID            int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	GameSessionID int64  `gorm:"index:idx_npc_session;not null" json:"game_session_id"`
	Name          string `gorm:"size:100;not null" json:"name"`
	Race          string `gorm:"size:50;not null" json:"race"`
	Occupation    string `gorm:"size:100" json:"occupation"`

	Strength     int `gorm:"default:10" json:"strength"`
	Dexterity    int `gorm:"default:10" json:"dexterity"`
	Constitution int `gorm:"default:10" json:"constitution"`
	Intelligence int `gorm:"default:10" json:"intelligence"`
	Wisdom       int `gorm:"default:10" json:"wisdom"`
	Charisma     int `gorm:"default:10" json:"charisma"`

	PersonalityTraits datatypes.JSON `json:"personality_traits"`
	GoalsShortTerm    datatypes.JSON `json:"goals_short_term"`
	GoalsLongTerm     datatypes.JSON `json:"goals_long_term"`
	Fears             datatypes.JSON `json:"fears"`
	Relationships     datatypes.JSON `json:"relationships"` // entity name → disposition

	MemoryLog          datatypes.JSON `json:"memory_log"`
	InteractionHistory datatypes.JSON `json:"interaction_history"`

	CurrentLocation string `gorm:"size:200" json:"current_location"`
	CurrentActivity string `gorm:"size:200" json:"current_activity"`
	Mood            string `gorm:"size:50;default:'neutral'" json:"mood"`

	SkillPoints   int            `gorm:"default:0" json:"skill_points"`
	LearnedSkills datatypes.JSON `json:"learned_skills"`
	Reputation    int            `gorm:"default:0" json:"reputation"` // clamped to [-100, 100]

	PhysicalDescription string `gorm:"type:text" json:"physical_description"`
	ClothingDescription string `gorm:"type:text" json:"clothing_description"`

	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	LastInteraction time.Time `json:"last_interaction"`
}

// MemoryEntry is one timestamped event in an NPC's memory or interaction log.
type MemoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
}

// Traits decodes the personality-traits blob.
func (n *NPC) Traits() []string {
	return decodeStrings(n.PersonalityTraits)
}

// ShortTermGoals decodes the short-term goals blob.
func (n *NPC) ShortTermGoals() []string {
	return decodeStrings(n.GoalsShortTerm)
}

// LongTermGoals decodes the long-term goals blob.
func (n *NPC) LongTermGoals() []string {
	return decodeStrings(n.GoalsLongTerm)
}

// FearList decodes the fears blob.
func (n *NPC) FearList() []string {
	return decodeStrings(n.Fears)
}

// SetTraits encodes the personality-traits blob.
func (n *NPC) SetTraits(traits []string) {
	data, _ := json.Marshal(traits)
	n.PersonalityTraits = datatypes.JSON(data)
}

// SetShortTermGoals encodes the short-term goals blob.
func (n *NPC) SetShortTermGoals(goals []string) {
	data, _ := json.Marshal(goals)
	n.GoalsShortTerm = datatypes.JSON(data)
}

// SetLongTermGoals encodes the long-term goals blob.
func (n *NPC) SetLongTermGoals(goals []string) {
	data, _ := json.Marshal(goals)
	n.GoalsLongTerm = datatypes.JSON(data)
}

// SetFearList encodes the fears blob.
func (n *NPC) SetFearList(fears []string) {
	data, _ := json.Marshal(fears)
	n.Fears = datatypes.JSON(data)
}

// RelationshipMap decodes the relationships blob.
func (n *NPC) RelationshipMap() map[string]string {
	out := map[string]string{}
	if len(n.Relationships) > 0 {
		_ = json.Unmarshal(n.Relationships, &out)
	}
	return out
}

// SetRelationshipMap encodes the relationships blob.
func (n *NPC) SetRelationshipMap(rels map[string]string) {
	data, _ := json.Marshal(rels)
	n.Relationships = datatypes.JSON(data)
}

// Memories decodes the memory-log blob.
func (n *NPC) Memories() []MemoryEntry {
	return decodeEntries(n.MemoryLog)
}

// SetMemories encodes the memory-log blob.
func (n *NPC) SetMemories(entries []MemoryEntry) {
	data, _ := json.Marshal(entries)
	n.MemoryLog = datatypes.JSON(data)
}

// Interactions decodes the interaction-history blob.
func (n *NPC) Interactions() []MemoryEntry {
	return decodeEntries(n.InteractionHistory)
}

// SetInteractions encodes the interaction-history blob.
func (n *NPC) SetInteractions(entries []MemoryEntry) {
	data, _ := json.Marshal(entries)
	n.InteractionHistory = datatypes.JSON(data)
}

// Skills decodes the learned-skills blob.
func (n *NPC) Skills() []string {
	return decodeStrings(n.LearnedSkills)
}

// SetSkills encodes the learned-skills blob.
func (n *NPC) SetSkills(skills []string) {
	data, _ := json.Marshal(skills)
	n.LearnedSkills = datatypes.JSON(data)
}

// KnowsSkill reports whether the NPC has already learned the given skill.
func (n *NPC) KnowsSkill(skill string) bool {
	for _, s := range n.Skills() {
		if s == skill {
			return true
		}
	}
	return false
}

// ClampReputation bounds reputation to [-100, 100].
func (n *NPC) ClampReputation() {
	if n.Reputation > 100 {
		n.Reputation = 100
	}
	if n.Reputation < -100 {
		n.Reputation = -100
	}
}

func decodeStrings(blob datatypes.JSON) []string {
	var out []string
	if len(blob) > 0 {
		_ = json.Unmarshal(blob, &out)
	}
	return out
}

func decodeEntries(blob datatypes.JSON) []MemoryEntry {
	var out []MemoryEntry
	if len(blob) > 0 {
		_ = json.Unmarshal(blob, &out)
	}
	return out
}
