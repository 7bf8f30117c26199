// Package shop implements AI-generated shops and the buy/sell flow
// against a character's gold and inventory.
package shop

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/GustavoPerpetuo2002/rpg-backend/ai"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/character"
	"github.com/GustavoPerpetuo2002/rpg-backend/model"
)

// ErrInsufficientQuantity is returned when a sale asks for more units
// than the inventory holds.
var ErrInsufficientQuantity = errors.New("insufficient quantity in inventory")

// Item is one entry on a shop's shelf.
type Item struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Type        string                 `json:"type"`
	Price       int64                  `json:"price"`
	Rarity      string                 `json:"rarity"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
}

// Shop is one generated storefront.
type Shop struct {
	Location    string    `json:"location"`
	Type        string    `json:"type"`
	Items       []Item    `json:"items"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Type describes one kind of shop the player can visit.
type Type struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Types returns the shop type catalog.
func Types() map[string]Type {
	return map[string]Type{
		"general":    {Name: "Loja Geral", Description: "Variedade de itens básicos e úteis", Icon: "🏪"},
		"blacksmith": {Name: "Ferraria", Description: "Armas e armaduras de qualidade", Icon: "⚒️"},
		"alchemist":  {Name: "Alquimista", Description: "Poções, pergaminhos e componentes mágicos", Icon: "🧪"},
		"magic_shop": {Name: "Loja Mágica", Description: "Itens encantados e artefatos místicos", Icon: "🔮"},
		"tavern":     {Name: "Taverna", Description: "Comida, bebida e informações", Icon: "🍺"},
		"temple":     {Name: "Templo", Description: "Bênçãos, cura e itens sagrados", Icon: "⛪"},
	}
}

// Service generates shops and executes purchases and sales.
type Service struct {
	ai     ai.Client
	chars  *character.Service
	logger *zap.Logger
}

// NewService creates a shop Service.
func NewService(aiClient ai.Client, chars *character.Service, logger *zap.Logger) *Service {
	return &Service{ai: aiClient, chars: chars, logger: logger}
}

// Generate builds a shop at the character's current location, scaled to
// their level. The AI is asked for a JSON item list; a static catalog
// with location-based prices backs it up when the model fails or returns
// garbage.
func (svc *Service) Generate(ctx context.Context, ch *model.Character, shopType string) *Shop {
	if shopType == "" {
		shopType = "general"
	}
	shop := &Shop{
		Location:    ch.CurrentLocation,
		Type:        shopType,
		GeneratedAt: time.Now().UTC(),
	}

	raw, err := svc.ai.Generate(ctx, ai.Request{
		System:      ai.ShopSystemPrompt,
		Prompt:      ai.ShopPrompt(ch.CurrentLocation, ch.Level, shopType),
		Temperature: ai.TempNarrative,
		MaxTokens:   ai.TokensDetailed,
	})
	if err == nil {
		if items, ok := parseItems(raw); ok {
			shop.Items = items
			return shop
		}
		svc.logger.Warn("shop response was not valid JSON, using fallback",
			zap.String("location", ch.CurrentLocation))
	} else {
		svc.logger.Warn("shop generation fell back",
			zap.String("location", ch.CurrentLocation),
			zap.Error(err))
	}

	shop.Items = fallbackItems(ch.CurrentLocation, ch.Level)
	return shop
}

// parseItems extracts the first {...} span from the model output and
// decodes its item list. Models often wrap JSON in prose or fences.
func parseItems(raw string) ([]Item, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, false
	}
	var payload struct {
		Items []Item `json:"items"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, false
	}
	if len(payload.Items) == 0 {
		return nil, false
	}
	return payload.Items, true
}

// locationPricing maps location keywords to price multipliers. The first
// keyword found as a substring of the location wins.
var locationPricing = []struct {
	keyword    string
	multiplier float64
}{
	{"capital", 1.5},
	{"torre", 1.3},
	{"dungeon", 1.2},
	{"cidade", 1.0},
	{"floresta", 0.9},
	{"vila", 0.8},
}

func locationMultiplier(location string) float64 {
	loc := strings.ToLower(location)
	for _, lp := range locationPricing {
		if strings.Contains(loc, lp.keyword) {
			return lp.multiplier
		}
	}
	return 1.0
}

// fallbackItems returns the static catalog, scaled by level and the
// location multiplier. Prices truncate toward zero.
func fallbackItems(location string, level int) []Item {
	lv := int64(level)
	base := []Item{
		{
			Name: "Espada de Ferro", Type: "weapon", Rarity: "common",
			Description: "Uma espada bem forjada de ferro puro. Confiável e afiada.",
			Price:       50 + lv*10,
			Properties:  map[string]interface{}{"damage": "+1", "durability": "Alta"},
		},
		{
			Name: "Poção de Cura Menor", Type: "potion", Rarity: "common",
			Description: "Uma poção vermelha que restaura vitalidade. Sabor de frutas vermelhas.",
			Price:       25 + lv*5,
			Properties:  map[string]interface{}{"healing": "1d8+2", "uses": "1"},
		},
		{
			Name: "Armadura de Couro", Type: "armor", Rarity: "common",
			Description: "Armadura leve feita de couro curtido. Oferece proteção básica.",
			Price:       75 + lv*15,
			Properties:  map[string]interface{}{"defense": "+2", "weight": "Leve"},
		},
		{
			Name: "Pergaminho de Luz", Type: "scroll", Rarity: "uncommon",
			Description: "Um pergaminho que emite uma luz suave quando ativado.",
			Price:       30 + lv*8,
			Properties:  map[string]interface{}{"spell": "Luz", "duration": "1 hora"},
		},
		{
			Name: "Anel de Proteção", Type: "accessory", Rarity: "uncommon",
			Description: "Um anel simples que oferece proteção mágica contra ataques menores.",
			Price:       100 + lv*20,
			Properties:  map[string]interface{}{"defense": "+1", "magic_resistance": "5%"},
		},
		{
			Name: "Corda Élfica", Type: "misc", Rarity: "uncommon",
			Description: "Corda leve e resistente feita pelos elfos. Nunca se desgasta.",
			Price:       40 + lv*5,
			Properties:  map[string]interface{}{"length": "15 metros", "special": "Indestrutível"},
		},
	}

	mult := locationMultiplier(location)
	for i := range base {
		base[i].Price = int64(float64(base[i].Price) * mult)
	}
	return base
}

// PurchaseResult is the outcome of a buy or sell.
type PurchaseResult struct {
	Character *model.Character `json:"character"`
	Total     int64            `json:"total"`
}

// Buy charges quantity × price and places the item in the character's
// inventory, committing both as one transaction. The item's resale
// value is its purchase price.
func (svc *Service) Buy(ctx context.Context, userID, charID int64, item Item, quantity int) (*PurchaseResult, error) {
	if quantity <= 0 {
		quantity = 1
	}
	total := item.Price * int64(quantity)

	var out *model.Character
	err := svc.chars.Tx(ctx, func(tx *gorm.DB) error {
		ch, err := character.GetForUpdate(tx, userID, charID)
		if err != nil {
			return err
		}
		if !ch.CanAfford(total) {
			return character.ErrInsufficientGold
		}
		ch.Gold -= total
		character.ApplyAddItem(ch, model.InventoryItem{
			Name:        item.Name,
			Description: item.Description,
			Type:        item.Type,
			Quantity:    quantity,
			Value:       int(item.Price),
			Rarity:      item.Rarity,
			Properties:  item.Properties,
		})
		if err := tx.Save(ch).Error; err != nil {
			return err
		}
		out = ch
		return nil
	})
	if err != nil {
		return nil, err
	}

	svc.logger.Info("item purchased",
		zap.Int64("character_id", charID),
		zap.String("item", item.Name),
		zap.Int("quantity", quantity),
		zap.Int64("total", total))
	return &PurchaseResult{Character: out, Total: total}, nil
}

// SellPrice is half the item's value, truncated toward zero.
func SellPrice(item model.InventoryItem) int64 {
	return int64(float64(item.Value) * 0.5)
}

// Sell removes quantity units from the inventory and credits half the
// item's value per unit, committing both as one transaction. The item
// is revalidated under the row lock so a concurrent sale cannot double
// the payout.
func (svc *Service) Sell(ctx context.Context, userID, charID, itemID int64, quantity int) (*PurchaseResult, error) {
	if quantity <= 0 {
		quantity = 1
	}

	var out *model.Character
	var total int64
	var itemName string
	err := svc.chars.Tx(ctx, func(tx *gorm.DB) error {
		ch, err := character.GetForUpdate(tx, userID, charID)
		if err != nil {
			return err
		}
		items := ch.Items()
		var item *model.InventoryItem
		for i := range items {
			if items[i].ID == itemID {
				item = &items[i]
				break
			}
		}
		if item == nil {
			return character.ErrItemNotFound
		}
		if item.Quantity < quantity {
			return ErrInsufficientQuantity
		}

		total = SellPrice(*item) * int64(quantity)
		itemName = item.Name
		character.ApplyRemoveItem(ch, itemID, quantity)
		ch.Gold += total
		if err := tx.Save(ch).Error; err != nil {
			return err
		}
		out = ch
		return nil
	})
	if err != nil {
		return nil, err
	}

	svc.logger.Info("item sold",
		zap.Int64("character_id", charID),
		zap.String("item", itemName),
		zap.Int("quantity", quantity),
		zap.Int64("total", total))
	return &PurchaseResult{Character: out, Total: total}, nil
}
