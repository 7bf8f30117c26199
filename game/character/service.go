// Package character implements player character management: creation with
// racial and class modifiers, inventory, gold, and the character's record
// of NPCs they have met.
package character

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GustavoPerpetuo2002/rpg-backend/config"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/rules"
	"github.com/GustavoPerpetuo2002/rpg-backend/model"
)

var (
	ErrNotFound         = errors.New("character not found")
	ErrInvalidRace      = errors.New("invalid race")
	ErrInvalidClass     = errors.New("invalid class")
	ErrInsufficientGold = errors.New("insufficient gold")

	// ErrItemNotFound is returned by callers that revalidate an item id
	// under the row lock, such as the shop's sell.
	ErrItemNotFound = errors.New("item not found in inventory")
)

// Service manages characters. All reads and writes are scoped to the
// owning user.
type Service struct {
	db     *gorm.DB
	cfg    config.GameConfig
	logger *zap.Logger
}

// NewService creates a character Service.
func NewService(db *gorm.DB, cfg config.GameConfig, logger *zap.Logger) *Service {
	return &Service{db: db, cfg: cfg, logger: logger}
}

// Tx runs fn inside one database transaction. Callers that need several
// ledger changes to commit or roll back together (the shop's buy and
// sell) load the character with GetForUpdate and save it once inside fn.
func (svc *Service) Tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return svc.db.WithContext(ctx).Transaction(fn)
}

// GetForUpdate loads a character inside tx, holding its row lock until
// the transaction ends. SQLite ignores the lock clause; MySQL needs it
// so concurrent spends cannot both read the same balance.
func GetForUpdate(tx *gorm.DB, userID, charID int64) (*model.Character, error) {
	var ch model.Character
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", charID, userID).
		First(&ch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// ApplyAddItem appends an item to the loaded character, assigning the
// next value of the monotonic item counter and filling defaults. The
// caller persists the character.
func ApplyAddItem(ch *model.Character, item model.InventoryItem) model.InventoryItem {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	if item.Type == "" {
		item.Type = "misc"
	}
	if item.Rarity == "" {
		item.Rarity = "common"
	}
	item.ID = ch.NextItemID
	item.AcquiredAt = time.Now().UTC()
	ch.NextItemID++
	ch.SetItems(append(ch.Items(), item))
	return item
}

// ApplyRemoveItem removes quantity units of an item from the loaded
// character. An entry whose stored quantity is at most the requested
// quantity goes away entirely. Returns false when the id is absent.
func ApplyRemoveItem(ch *model.Character, itemID int64, quantity int) bool {
	items := ch.Items()
	for i := range items {
		if items[i].ID != itemID {
			continue
		}
		if items[i].Quantity <= quantity {
			items = append(items[:i], items[i+1:]...)
		} else {
			items[i].Quantity -= quantity
		}
		ch.SetItems(items)
		return true
	}
	return false
}

// CreateInput carries the character creation sheet.
type CreateInput struct {
	Name            string         `json:"name"`
	Race            string         `json:"race"`
	Class           string         `json:"character_class"`
	AttributePoints map[string]int `json:"attribute_points"`
	Advantages      []string       `json:"advantages"`
	Disadvantages   []string       `json:"disadvantages"`
	Background      string         `json:"background"`
	Notes           string         `json:"notes"`
}

// Create builds a new character. Attributes start at 10, racial bonuses
// and penalties apply, then the player's distributed points. Hit points
// are 10 + constitution + the class HP bonus; mana is 10 + intelligence +
// the class MP bonus.
func (svc *Service) Create(ctx context.Context, userID int64, in CreateInput) (*model.Character, error) {
	race, ok := rules.Race(in.Race)
	if !ok {
		return nil, ErrInvalidRace
	}
	class, ok := rules.Class(in.Class)
	if !ok {
		return nil, ErrInvalidClass
	}

	attrs := map[string]int{
		rules.Strength:     10,
		rules.Dexterity:    10,
		rules.Constitution: 10,
		rules.Intelligence: 10,
		rules.Wisdom:       10,
		rules.Charisma:     10,
	}
	for attr, bonus := range race.Bonuses {
		attrs[attr] += bonus
	}
	for attr, penalty := range race.Penalties {
		attrs[attr] += penalty
	}
	for attr, points := range in.AttributePoints {
		if rules.IsAttribute(attr) {
			attrs[attr] += points
		}
	}

	hp := 10 + attrs[rules.Constitution] + class.HPBonus
	mp := 10 + attrs[rules.Intelligence] + class.MPBonus

	gold := int64(svc.cfg.StartingGold)
	if gold <= 0 {
		gold = 100
	}
	location := svc.cfg.StartingLocation
	if location == "" {
		location = "Vila Inicial"
	}

	ch := &model.Character{
		UserID:          userID,
		Name:            in.Name,
		Race:            in.Race,
		Class:           in.Class,
		Level:           1,
		Strength:        attrs[rules.Strength],
		Dexterity:       attrs[rules.Dexterity],
		Constitution:    attrs[rules.Constitution],
		Intelligence:    attrs[rules.Intelligence],
		Wisdom:          attrs[rules.Wisdom],
		Charisma:        attrs[rules.Charisma],
		CurrentHP:       hp,
		MaxHP:           hp,
		CurrentMP:       mp,
		MaxMP:           mp,
		NextItemID:      1,
		Gold:            gold,
		Background:      in.Background,
		Notes:           in.Notes,
		CurrentLocation: location,
	}
	ch.SetAdvantageList(in.Advantages)
	ch.SetDisadvantageList(in.Disadvantages)
	ch.SetItems(nil)
	ch.SetNPCRecords(nil)
	ch.SetEquipmentMap(map[string]model.InventoryItem{})

	if err := svc.db.WithContext(ctx).Create(ch).Error; err != nil {
		return nil, err
	}

	svc.logger.Info("character created",
		zap.Int64("user_id", userID),
		zap.Int64("character_id", ch.ID),
		zap.String("race", in.Race),
		zap.String("class", in.Class))
	return ch, nil
}

// Get returns one character owned by userID.
func (svc *Service) Get(ctx context.Context, userID, charID int64) (*model.Character, error) {
	var ch model.Character
	err := svc.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", charID, userID).
		First(&ch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// List returns all characters owned by userID.
func (svc *Service) List(ctx context.Context, userID int64) ([]model.Character, error) {
	var chars []model.Character
	err := svc.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&chars).Error
	return chars, err
}

// UpdateInput carries partial character updates. Nil fields are left
// untouched.
type UpdateInput struct {
	Name          *string                        `json:"name"`
	Background    *string                        `json:"background"`
	Notes         *string                        `json:"notes"`
	CurrentHP     *int                           `json:"current_hp"`
	CurrentMP     *int                           `json:"current_mp"`
	Strength      *int                           `json:"strength"`
	Dexterity     *int                           `json:"dexterity"`
	Constitution  *int                           `json:"constitution"`
	Intelligence  *int                           `json:"intelligence"`
	Wisdom        *int                           `json:"wisdom"`
	Charisma      *int                           `json:"charisma"`
	Location      *string                        `json:"current_location"`
	Advantages    *[]string                      `json:"advantages"`
	Disadvantages *[]string                      `json:"disadvantages"`
	Equipment     *map[string]model.InventoryItem `json:"equipment"`
	Inventory     *[]model.InventoryItem         `json:"inventory"`
}

// Update applies a partial update to a character.
func (svc *Service) Update(ctx context.Context, userID, charID int64, in UpdateInput) (*model.Character, error) {
	var out *model.Character
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ch, err := GetForUpdate(tx, userID, charID)
		if err != nil {
			return err
		}

		setStr := func(dst *string, src *string) {
			if src != nil {
				*dst = *src
			}
		}
		setInt := func(dst *int, src *int) {
			if src != nil {
				*dst = *src
			}
		}
		setStr(&ch.Name, in.Name)
		setStr(&ch.Background, in.Background)
		setStr(&ch.Notes, in.Notes)
		setStr(&ch.CurrentLocation, in.Location)
		setInt(&ch.CurrentHP, in.CurrentHP)
		setInt(&ch.CurrentMP, in.CurrentMP)
		setInt(&ch.Strength, in.Strength)
		setInt(&ch.Dexterity, in.Dexterity)
		setInt(&ch.Constitution, in.Constitution)
		setInt(&ch.Intelligence, in.Intelligence)
		setInt(&ch.Wisdom, in.Wisdom)
		setInt(&ch.Charisma, in.Charisma)
		if in.Advantages != nil {
			ch.SetAdvantageList(*in.Advantages)
		}
		if in.Disadvantages != nil {
			ch.SetDisadvantageList(*in.Disadvantages)
		}
		if in.Equipment != nil {
			ch.SetEquipmentMap(*in.Equipment)
		}
		if in.Inventory != nil {
			ch.SetItems(*in.Inventory)
		}

		if err := tx.Save(ch).Error; err != nil {
			return err
		}
		out = ch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a character owned by userID.
func (svc *Service) Delete(ctx context.Context, userID, charID int64) error {
	res := svc.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", charID, userID).
		Delete(&model.Character{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddItem appends an item to the inventory. The item receives the next
// value of the character's monotonic item counter, so IDs never repeat
// even after removals.
func (svc *Service) AddItem(ctx context.Context, userID, charID int64, item model.InventoryItem) (*model.Character, error) {
	var out *model.Character
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ch, err := GetForUpdate(tx, userID, charID)
		if err != nil {
			return err
		}
		ApplyAddItem(ch, item)
		if err := tx.Save(ch).Error; err != nil {
			return err
		}
		out = ch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveItem removes quantity units of an item. When the stored quantity
// is less than or equal to the requested quantity the whole entry goes
// away; otherwise the quantity is decremented. An unknown item id is a
// silent no-op.
func (svc *Service) RemoveItem(ctx context.Context, userID, charID, itemID int64, quantity int) (*model.Character, error) {
	if quantity <= 0 {
		quantity = 1
	}
	var out *model.Character
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ch, err := GetForUpdate(tx, userID, charID)
		if err != nil {
			return err
		}
		if !ApplyRemoveItem(ch, itemID, quantity) {
			out = ch
			return nil
		}
		if err := tx.Save(ch).Error; err != nil {
			return err
		}
		out = ch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SpendGold deducts amount from the character's gold. The balance never
// goes negative; an unaffordable spend fails with ErrInsufficientGold.
func (svc *Service) SpendGold(ctx context.Context, userID, charID, amount int64) (*model.Character, error) {
	var out *model.Character
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ch, err := GetForUpdate(tx, userID, charID)
		if err != nil {
			return err
		}
		if !ch.CanAfford(amount) {
			return ErrInsufficientGold
		}
		ch.Gold -= amount
		if err := tx.Save(ch).Error; err != nil {
			return err
		}
		out = ch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EarnGold adds amount to the character's gold.
func (svc *Service) EarnGold(ctx context.Context, userID, charID, amount int64) (*model.Character, error) {
	var out *model.Character
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ch, err := GetForUpdate(tx, userID, charID)
		if err != nil {
			return err
		}
		ch.Gold += amount
		if err := tx.Save(ch).Error; err != nil {
			return err
		}
		out = ch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddKnownNPC records that the character has met an NPC. Meeting the same
// NPC again updates the existing record in place, so at most one record
// exists per NPC.
func (svc *Service) AddKnownNPC(ctx context.Context, userID, charID int64, rec model.KnownNPC) (*model.Character, error) {
	var out *model.Character
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ch, err := GetForUpdate(tx, userID, charID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		npcs := ch.NPCRecords()
		updated := false
		for i := range npcs {
			if npcs[i].ID != rec.ID {
				continue
			}
			npcs[i].Name = rec.Name
			if rec.Race != "" {
				npcs[i].Race = rec.Race
			}
			if rec.Occupation != "" {
				npcs[i].Occupation = rec.Occupation
			}
			if rec.Relationship != "" {
				npcs[i].Relationship = rec.Relationship
			}
			if rec.Notes != "" {
				npcs[i].Notes = rec.Notes
			}
			npcs[i].LastInteraction = now
			updated = true
			break
		}
		if !updated {
			if rec.LocationMet == "" {
				rec.LocationMet = ch.CurrentLocation
			}
			if rec.Relationship == "" {
				rec.Relationship = "neutral"
			}
			rec.MetAt = now
			rec.LastInteraction = now
			npcs = append(npcs, rec)
		}
		ch.SetNPCRecords(npcs)

		if err := tx.Save(ch).Error; err != nil {
			return err
		}
		out = ch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateNPCRelationship changes the stored relationship with a known NPC
// and stamps the interaction time. Unknown NPC IDs are a no-op.
func (svc *Service) UpdateNPCRelationship(ctx context.Context, userID, charID, npcID int64, relationship, notes string) (*model.Character, error) {
	var out *model.Character
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ch, err := GetForUpdate(tx, userID, charID)
		if err != nil {
			return err
		}

		npcs := ch.NPCRecords()
		for i := range npcs {
			if npcs[i].ID != npcID {
				continue
			}
			npcs[i].Relationship = relationship
			npcs[i].LastInteraction = time.Now().UTC()
			if notes != "" {
				npcs[i].Notes = notes
			}
			break
		}
		ch.SetNPCRecords(npcs)

		if err := tx.Save(ch).Error; err != nil {
			return err
		}
		out = ch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
