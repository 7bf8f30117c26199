package rest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GustavoPerpetuo2002/rpg-backend/audit"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/character"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/npc"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/session"
	mw "github.com/GustavoPerpetuo2002/rpg-backend/middleware"
	"github.com/GustavoPerpetuo2002/rpg-backend/model"
)

// GameHandler handles game sessions, the action loop, quests and NPCs.
type GameHandler struct {
	sessions *session.Service
	npcs     *npc.Service
	chars    *character.Service
	audit    *audit.Service
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(sessions *session.Service, npcs *npc.Service, chars *character.Service, auditSvc *audit.Service) *GameHandler {
	return &GameHandler{sessions: sessions, npcs: npcs, chars: chars, audit: auditSvc}
}

// ListSessions handles GET /api/game/sessions.
func (h *GameHandler) ListSessions(c *gin.Context) {
	sessions, err := h.sessions.List(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// CreateSession handles POST /api/game/sessions.
func (h *GameHandler) CreateSession(c *gin.Context) {
	var in session.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if in.SessionName == "" || in.CharacterID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_name and character_id are required"})
		return
	}

	userID := mw.GetUserID(c)
	sess, err := h.sessions.Create(c.Request.Context(), userID, in)
	if err != nil {
		sessionError(c, err)
		return
	}

	h.audit.Log(audit.Entry{
		TraceID:     mw.GetTraceID(c),
		UserID:      &userID,
		CharacterID: &sess.CharacterID,
		SessionID:   &sess.ID,
		Action:      "session.create",
		Detail:      map[string]string{"name": sess.SessionName},
		IP:          c.ClientIP(),
	})
	c.JSON(http.StatusCreated, gin.H{
		"message": "game session created",
		"session": sess,
	})
}

// GetSession handles GET /api/game/sessions/:id.
func (h *GameHandler) GetSession(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	sess, err := h.sessions.Get(c.Request.Context(), mw.GetUserID(c), sessionID)
	if err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// DeleteSession handles DELETE /api/game/sessions/:id.
func (h *GameHandler) DeleteSession(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID := mw.GetUserID(c)
	if err := h.sessions.Delete(c.Request.Context(), userID, sessionID); err != nil {
		sessionError(c, err)
		return
	}
	h.audit.Log(audit.Entry{
		TraceID:   mw.GetTraceID(c),
		UserID:    &userID,
		SessionID: &sessionID,
		Action:    "session.delete",
		IP:        c.ClientIP(),
	})
	c.JSON(http.StatusOK, gin.H{"message": "game session deleted"})
}

type actionRequest struct {
	Action string `json:"action" binding:"required"`
}

// PlayerAction handles POST /api/game/sessions/:id/action — one turn of
// the game loop.
func (h *GameHandler) PlayerAction(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := mw.GetUserID(c)
	res, err := h.sessions.RecordPlayerAction(c.Request.Context(), userID, sessionID, req.Action)
	if err != nil {
		sessionError(c, err)
		return
	}

	h.audit.Log(audit.Entry{
		TraceID:   mw.GetTraceID(c),
		UserID:    &userID,
		SessionID: &sessionID,
		Action:    "session.player_action",
		Detail:    map[string]interface{}{"action": req.Action, "npc_turns": len(res.NPCActions)},
		IP:        c.ClientIP(),
	})
	c.JSON(http.StatusOK, gin.H{
		"message":     "action processed",
		"ai_response": res.Narration,
		"npc_actions": res.NPCActions,
		"session":     res.Session,
	})
}

// SaveSession handles POST /api/game/sessions/:id/save.
func (h *GameHandler) SaveSession(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.sessions.Save(c.Request.Context(), mw.GetUserID(c), sessionID); err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "game saved"})
}

// ListNPCs handles GET /api/game/sessions/:id/npcs.
func (h *GameHandler) ListNPCs(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	// Ownership check before exposing session NPCs.
	if _, err := h.sessions.Get(c.Request.Context(), mw.GetUserID(c), sessionID); err != nil {
		sessionError(c, err)
		return
	}
	npcs, err := h.npcs.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"npcs": npcs})
}

// CreateNPC handles POST /api/game/sessions/:id/npcs.
func (h *GameHandler) CreateNPC(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in npc.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if in.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	sess, err := h.sessions.Get(c.Request.Context(), mw.GetUserID(c), sessionID)
	if err != nil {
		sessionError(c, err)
		return
	}
	created, err := h.npcs.Create(c.Request.Context(), sess, in)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	// The session's character has now met this NPC.
	userID := mw.GetUserID(c)
	if _, err := h.chars.AddKnownNPC(c.Request.Context(), userID, sess.CharacterID, model.KnownNPC{
		ID:           created.ID,
		Name:         created.Name,
		Race:         created.Race,
		Occupation:   created.Occupation,
		LocationMet:  created.CurrentLocation,
		Relationship: "neutral",
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "npc created",
		"npc":     created,
	})
}

// EvolveNPCs handles POST /api/game/sessions/:id/npcs/update-all — one
// autonomous evolution pass over every NPC in the session.
func (h *GameHandler) EvolveNPCs(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.sessions.Get(c.Request.Context(), mw.GetUserID(c), sessionID); err != nil {
		sessionError(c, err)
		return
	}
	updates, err := h.npcs.EvolveAll(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if len(updates) > 0 {
		content := "O mundo se move: " + strings.Join(updates, "; ")
		if err := h.sessions.AddSystemEntry(c.Request.Context(), mw.GetUserID(c), sessionID, content); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "npcs updated",
		"updates": updates,
	})
}

// AddQuest handles POST /api/game/sessions/:id/quests.
func (h *GameHandler) AddQuest(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in session.QuestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if in.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	sess, err := h.sessions.AddQuest(c.Request.Context(), mw.GetUserID(c), sessionID, in)
	if err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "quest added",
		"session": sess,
	})
}

// CompleteQuest handles POST /api/game/sessions/:id/quests/:quest_id/complete.
func (h *GameHandler) CompleteQuest(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	questID, ok := pathID(c, "quest_id")
	if !ok {
		return
	}
	sess, err := h.sessions.CompleteQuest(c.Request.Context(), mw.GetUserID(c), sessionID, questID)
	if err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "quest completed",
		"session": sess,
	})
}

type worldStateRequest struct {
	Key   string      `json:"key" binding:"required"`
	Value interface{} `json:"value"`
}

// UpdateWorldState handles PUT /api/game/sessions/:id/world-state.
func (h *GameHandler) UpdateWorldState(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req worldStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.sessions.UpdateWorldState(c.Request.Context(), mw.GetUserID(c), sessionID, req.Key, req.Value)
	if err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "world state updated",
		"session": sess,
	})
}

func sessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "game session not found"})
	case errors.Is(err, session.ErrCharacterNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
	case errors.Is(err, npc.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "npc not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
