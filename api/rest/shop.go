package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GustavoPerpetuo2002/rpg-backend/audit"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/character"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/shop"
	mw "github.com/GustavoPerpetuo2002/rpg-backend/middleware"
)

// ShopHandler handles shop generation and the buy/sell endpoints.
type ShopHandler struct {
	shops *shop.Service
	chars *character.Service
	audit *audit.Service
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(shops *shop.Service, chars *character.Service, auditSvc *audit.Service) *ShopHandler {
	return &ShopHandler{shops: shops, chars: chars, audit: auditSvc}
}

// Types handles GET /api/shop/types.
func (h *ShopHandler) Types(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"shop_types": shop.Types()})
}

type generateRequest struct {
	CharacterID int64  `json:"character_id" binding:"required"`
	ShopType    string `json:"shop_type"`
}

// Generate handles POST /api/shop/generate — builds a shop at the
// character's current location.
func (h *ShopHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ch, err := h.chars.Get(c.Request.Context(), mw.GetUserID(c), req.CharacterID)
	if err != nil {
		characterError(c, err)
		return
	}
	generated := h.shops.Generate(c.Request.Context(), ch, req.ShopType)
	c.JSON(http.StatusOK, gin.H{"shop": generated})
}

type buyRequest struct {
	CharacterID int64     `json:"character_id" binding:"required"`
	Item        shop.Item `json:"item" binding:"required"`
	Quantity    int       `json:"quantity"`
}

// Buy handles POST /api/shop/buy.
func (h *ShopHandler) Buy(c *gin.Context) {
	var req buyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Item.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item name is required"})
		return
	}

	userID := mw.GetUserID(c)
	res, err := h.shops.Buy(c.Request.Context(), userID, req.CharacterID, req.Item, req.Quantity)
	if err != nil {
		shopError(c, err)
		return
	}

	h.audit.Log(audit.Entry{
		TraceID:     mw.GetTraceID(c),
		UserID:      &userID,
		CharacterID: &req.CharacterID,
		Action:      "shop.buy",
		Detail:      map[string]interface{}{"item": req.Item.Name, "quantity": req.Quantity},
		GoldDelta:   -res.Total,
		IP:          c.ClientIP(),
	})
	c.JSON(http.StatusOK, gin.H{
		"message":   "purchase completed",
		"total":     res.Total,
		"character": res.Character,
	})
}

type sellRequest struct {
	CharacterID int64 `json:"character_id" binding:"required"`
	ItemID      int64 `json:"item_id" binding:"required"`
	Quantity    int   `json:"quantity"`
}

// Sell handles POST /api/shop/sell.
func (h *ShopHandler) Sell(c *gin.Context) {
	var req sellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := mw.GetUserID(c)
	res, err := h.shops.Sell(c.Request.Context(), userID, req.CharacterID, req.ItemID, req.Quantity)
	if err != nil {
		shopError(c, err)
		return
	}

	h.audit.Log(audit.Entry{
		TraceID:     mw.GetTraceID(c),
		UserID:      &userID,
		CharacterID: &req.CharacterID,
		Action:      "shop.sell",
		Detail:      map[string]interface{}{"item_id": req.ItemID, "quantity": req.Quantity},
		GoldDelta:   res.Total,
		IP:          c.ClientIP(),
	})
	c.JSON(http.StatusOK, gin.H{
		"message":   "sale completed",
		"total":     res.Total,
		"character": res.Character,
	})
}

func shopError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, character.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
	case errors.Is(err, character.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
	case errors.Is(err, character.ErrInsufficientGold):
		c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient gold"})
	case errors.Is(err, shop.ErrInsufficientQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient quantity"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
