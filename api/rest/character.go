package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GustavoPerpetuo2002/rpg-backend/audit"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/character"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/rules"
	mw "github.com/GustavoPerpetuo2002/rpg-backend/middleware"
)

// CharacterHandler handles character CRUD and the creation reference data.
type CharacterHandler struct {
	chars *character.Service
	audit *audit.Service
}

// NewCharacterHandler creates a new CharacterHandler.
func NewCharacterHandler(chars *character.Service, auditSvc *audit.Service) *CharacterHandler {
	return &CharacterHandler{chars: chars, audit: auditSvc}
}

// ReferenceData handles GET /api/characters/reference. It is public:
// the creation screen needs it before login.
func (h *CharacterHandler) ReferenceData(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"races":         rules.Races(),
		"classes":       rules.Classes(),
		"advantages":    rules.Advantages(),
		"disadvantages": rules.Disadvantages(),
	})
}

// List handles GET /api/characters.
func (h *CharacterHandler) List(c *gin.Context) {
	chars, err := h.chars.List(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": chars})
}

// Get handles GET /api/characters/:id.
func (h *CharacterHandler) Get(c *gin.Context) {
	charID, ok := pathID(c, "id")
	if !ok {
		return
	}
	ch, err := h.chars.Get(c.Request.Context(), mw.GetUserID(c), charID)
	if err != nil {
		characterError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"character": ch})
}

// Create handles POST /api/characters.
func (h *CharacterHandler) Create(c *gin.Context) {
	var in character.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if in.Name == "" || in.Race == "" || in.Class == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, race and character_class are required"})
		return
	}

	userID := mw.GetUserID(c)
	ch, err := h.chars.Create(c.Request.Context(), userID, in)
	if err != nil {
		characterError(c, err)
		return
	}

	h.audit.Log(audit.Entry{
		TraceID:     mw.GetTraceID(c),
		UserID:      &userID,
		CharacterID: &ch.ID,
		Action:      "character.create",
		Detail:      map[string]string{"name": ch.Name, "race": ch.Race, "class": ch.Class},
		IP:          c.ClientIP(),
	})
	c.JSON(http.StatusCreated, gin.H{
		"message":   "character created",
		"character": ch,
	})
}

// Update handles PUT /api/characters/:id.
func (h *CharacterHandler) Update(c *gin.Context) {
	charID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in character.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ch, err := h.chars.Update(c.Request.Context(), mw.GetUserID(c), charID, in)
	if err != nil {
		characterError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "character updated",
		"character": ch,
	})
}

// Delete handles DELETE /api/characters/:id.
func (h *CharacterHandler) Delete(c *gin.Context) {
	charID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID := mw.GetUserID(c)
	if err := h.chars.Delete(c.Request.Context(), userID, charID); err != nil {
		characterError(c, err)
		return
	}
	h.audit.Log(audit.Entry{
		TraceID:     mw.GetTraceID(c),
		UserID:      &userID,
		CharacterID: &charID,
		Action:      "character.delete",
		IP:          c.ClientIP(),
	})
	c.JSON(http.StatusOK, gin.H{"message": "character deleted"})
}

// pathID parses an int64 path parameter, replying 400 on garbage.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func characterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, character.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
	case errors.Is(err, character.ErrInvalidRace):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid race"})
	case errors.Is(err, character.ErrInvalidClass):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character class"})
	case errors.Is(err, character.ErrInsufficientGold):
		c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient gold"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
