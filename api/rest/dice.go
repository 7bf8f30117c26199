package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GustavoPerpetuo2002/rpg-backend/game/character"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/dice"
	mw "github.com/GustavoPerpetuo2002/rpg-backend/middleware"
)

// DiceHandler handles dice roll endpoints.
type DiceHandler struct {
	roller *dice.Roller
	chars  *character.Service
}

// NewDiceHandler creates a new DiceHandler.
func NewDiceHandler(roller *dice.Roller, chars *character.Service) *DiceHandler {
	return &DiceHandler{roller: roller, chars: chars}
}

type rollRequest struct {
	Notation string `json:"notation" binding:"required"`
	Label    string `json:"label"`
}

// Roll handles POST /api/dice/roll.
func (h *DiceHandler) Roll(c *gin.Context) {
	var req rollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.roller.Roll(req.Notation)
	if err != nil {
		diceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"label":  req.Label,
		"result": res,
	})
}

// RollSimple handles GET /api/dice/roll/:notation.
func (h *DiceHandler) RollSimple(c *gin.Context) {
	res, err := h.roller.Roll(c.Param("notation"))
	if err != nil {
		diceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res})
}

type multiRollRequest struct {
	Rolls []rollRequest `json:"rolls" binding:"required"`
}

type multiRollEntry struct {
	Index    int          `json:"index"`
	Label    string       `json:"label,omitempty"`
	Result   *dice.Result `json:"result,omitempty"`
	Error    string       `json:"error,omitempty"`
	Notation string       `json:"notation"`
}

// RollMultiple handles POST /api/dice/roll-multiple. Each entry succeeds
// or fails on its own; one bad notation does not reject the batch.
func (h *DiceHandler) RollMultiple(c *gin.Context) {
	var req multiRollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Rolls) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one roll is required"})
		return
	}
	if len(req.Rolls) > dice.MaxBatch {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many rolls in one request"})
		return
	}

	entries := make([]multiRollEntry, 0, len(req.Rolls))
	for i, roll := range req.Rolls {
		entry := multiRollEntry{Index: i, Label: roll.Label, Notation: roll.Notation}
		if res, err := h.roller.Roll(roll.Notation); err != nil {
			entry.Error = err.Error()
		} else {
			entry.Result = &res
		}
		entries = append(entries, entry)
	}
	c.JSON(http.StatusOK, gin.H{"results": entries})
}

type attributeTestRequest struct {
	CharacterID int64  `json:"character_id" binding:"required"`
	Attribute   string `json:"attribute" binding:"required"`
	Difficulty  int    `json:"difficulty"`
}

// AttributeTest handles POST /api/dice/test — 1d20 + the character's
// attribute modifier against a difficulty (default 10).
func (h *DiceHandler) AttributeTest(c *gin.Context) {
	var req attributeTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Difficulty == 0 {
		req.Difficulty = 10
	}

	ch, err := h.chars.Get(c.Request.Context(), mw.GetUserID(c), req.CharacterID)
	if err != nil {
		characterError(c, err)
		return
	}
	score, ok := ch.AttributeScore(req.Attribute)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attribute"})
		return
	}

	res := h.roller.Test(dice.AttributeModifier(score), req.Difficulty)
	c.JSON(http.StatusOK, gin.H{
		"attribute": req.Attribute,
		"score":     score,
		"result":    res,
	})
}

// Presets handles GET /api/dice/presets.
func (h *DiceHandler) Presets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": dice.Presets()})
}

func diceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dice.ErrInvalidNotation), errors.Is(err, dice.ErrLimitExceeded):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
