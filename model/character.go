package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Character is a player character owned by a User.
//
// Collection-shaped fields (inventory, equipment, known NPCs, advantages)
// are stored as JSON blob columns; the typed accessors below give them
// their logical shape.
type Character struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64  `gorm:"index:idx_char_user;not null" json:"user_id"`
	Name       string `gorm:"size:100;not null" json:"name"`
	Race       string `gorm:"size:50;not null" json:"race"`
	Class      string `gorm:"size:50;not null" json:"class"`
	Level      int    `gorm:"default:1" json:"level"`
	Experience int    `gorm:"default:0" json:"experience"`

	Strength     int `gorm:"default:10" json:"strength"`
	Dexterity    int `gorm:"default:10" json:"dexterity"`
	Constitution int `gorm:"default:10" json:"constitution"`
	Intelligence int `gorm:"default:10" json:"intelligence"`
	Wisdom       int `gorm:"default:10" json:"wisdom"`
	Charisma     int `gorm:"default:10" json:"charisma"`

	CurrentHP int `gorm:"default:10" json:"current_hp"`
	MaxHP     int `gorm:"default:10" json:"max_hp"`
	CurrentMP int `gorm:"default:10" json:"current_mp"`
	MaxMP     int `gorm:"default:10" json:"max_mp"`

	Advantages    datatypes.JSON `json:"advantages"`
	Disadvantages datatypes.JSON `json:"disadvantages"`

	Equipment datatypes.JSON `json:"equipment"` // slot → equipped item
	Inventory datatypes.JSON `json:"inventory"`
	// NextItemID is a monotonic counter so inventory item IDs stay unique
	// even after removals.
	NextItemID int64 `gorm:"default:1" json:"-"`
	Gold       int64 `gorm:"default:100" json:"gold"`

	KnownNPCs datatypes.JSON `json:"known_npcs"`

	Background      string `gorm:"type:text" json:"background"`
	Notes           string `gorm:"type:text" json:"notes"`
	CurrentLocation string `gorm:"size:200;default:'Vila Inicial'" json:"current_location"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// InventoryItem is one entry in a character's bag.
type InventoryItem struct {
	ID          int64                  `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Type        string                 `json:"type"`
	Quantity    int                    `json:"quantity"`
	Value       int                    `json:"value"`
	Rarity      string                 `json:"rarity"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
	AcquiredAt  time.Time              `json:"acquired_at"`
}

// KnownNPC records a character's relationship with an NPC they have met.
// At most one record exists per NPC; re-meeting updates it in place.
type KnownNPC struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Race            string    `json:"race"`
	Occupation      string    `json:"occupation"`
	LocationMet     string    `json:"location_met"`
	Relationship    string    `json:"relationship"` // friendly | neutral | hostile
	Notes           string    `json:"notes"`
	MetAt           time.Time `json:"met_at"`
	LastInteraction time.Time `json:"last_interaction"`
}

// Items decodes the inventory blob. An empty or missing blob yields nil.
func (c *Character) Items() []InventoryItem {
	var items []InventoryItem
	if len(c.Inventory) > 0 {
		_ = json.Unmarshal(c.Inventory, &items)
	}
	return items
}

// SetItems encodes the inventory blob.
func (c *Character) SetItems(items []InventoryItem) {
	data, _ := json.Marshal(items)
	c.Inventory = datatypes.JSON(data)
}

// NPCRecords decodes the known-NPC blob.
func (c *Character) NPCRecords() []KnownNPC {
	var npcs []KnownNPC
	if len(c.KnownNPCs) > 0 {
		_ = json.Unmarshal(c.KnownNPCs, &npcs)
	}
	return npcs
}

// SetNPCRecords encodes the known-NPC blob.
func (c *Character) SetNPCRecords(npcs []KnownNPC) {
	data, _ := json.Marshal(npcs)
	c.KnownNPCs = datatypes.JSON(data)
}

// AdvantageList decodes the advantages blob.
func (c *Character) AdvantageList() []string {
	var out []string
	if len(c.Advantages) > 0 {
		_ = json.Unmarshal(c.Advantages, &out)
	}
	return out
}

// SetAdvantageList encodes the advantages blob.
func (c *Character) SetAdvantageList(ids []string) {
	data, _ := json.Marshal(ids)
	c.Advantages = datatypes.JSON(data)
}

// DisadvantageList decodes the disadvantages blob.
func (c *Character) DisadvantageList() []string {
	var out []string
	if len(c.Disadvantages) > 0 {
		_ = json.Unmarshal(c.Disadvantages, &out)
	}
	return out
}

// SetDisadvantageList encodes the disadvantages blob.
func (c *Character) SetDisadvantageList(ids []string) {
	data, _ := json.Marshal(ids)
	c.Disadvantages = datatypes.JSON(data)
}

// EquipmentMap decodes the equipment blob (slot name to item).
func (c *Character) EquipmentMap() map[string]InventoryItem {
	out := make(map[string]InventoryItem)
	if len(c.Equipment) > 0 {
		_ = json.Unmarshal(c.Equipment, &out)
	}
	return out
}

// SetEquipmentMap encodes the equipment blob.
func (c *Character) SetEquipmentMap(eq map[string]InventoryItem) {
	data, _ := json.Marshal(eq)
	c.Equipment = datatypes.JSON(data)
}

// CanAfford reports whether the character holds at least cost gold.
func (c *Character) CanAfford(cost int64) bool {
	return c.Gold >= cost
}

// AttributeScore returns the named attribute's score; ok is false for
// unknown names.
func (c *Character) AttributeScore(name string) (score int, ok bool) {
	switch name {
	case "strength":
		return c.Strength, true
	case "dexterity":
		return c.Dexterity, true
	case "constitution":
		return c.Constitution, true
	case "intelligence":
		return c.Intelligence, true
	case "wisdom":
		return c.Wisdom, true
	case "charisma":
		return c.Charisma, true
	}
	return 0, false
}
