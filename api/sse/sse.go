package sse

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GustavoPerpetuo2002/rpg-backend/cache"
	"github.com/GustavoPerpetuo2002/rpg-backend/config"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/session"
	mw "github.com/GustavoPerpetuo2002/rpg-backend/middleware"
)

const announceChannel = "announce"

// Handler handles the SSE endpoints.
type Handler struct {
	pubsub   cache.PubSub
	sessions *session.Service
	sec      config.SecurityConfig
	c        cache.Cache
	logger   *zap.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(pubsub cache.PubSub, sessions *session.Service, c cache.Cache, sec config.SecurityConfig, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, sessions: sessions, sec: sec, c: c, logger: logger}
}

// ServeStory handles GET /sse/sessions/:id/story?token=<jwt>.
// It streams story entries for one game session as they are written, so
// the client can render the narrative without polling.
func (h *Handler) ServeStory(c *gin.Context) {
	claims, ok := h.authenticate(c)
	if !ok {
		return
	}
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	if _, err := h.sessions.Get(c.Request.Context(), claims.UserID, sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "game session not found"})
		return
	}
	h.stream(c, session.StoryChannel(sessionID), "story")
}

// ServeAnnounce handles GET /sse/announce?token=<jwt>.
// It delivers system announcements published to the "announce" channel.
func (h *Handler) ServeAnnounce(c *gin.Context) {
	if _, ok := h.authenticate(c); !ok {
		return
	}
	h.stream(c, announceChannel, "announce")
}

// Announce publishes an announcement message to all SSE subscribers.
func (h *Handler) Announce(ctx context.Context, message string) error {
	return h.pubsub.Publish(ctx, announceChannel, message)
}

func (h *Handler) authenticate(c *gin.Context) (*mw.Claims, bool) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return nil, false
	}

	claims, err := mw.ParseToken(tokenStr, h.sec.JWTSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return nil, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	exists, err := h.c.Exists(ctx, "session:"+tokenStr)
	if err != nil || !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return nil, false
	}
	return claims, true
}

func (h *Handler) stream(c *gin.Context, channel, event string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	subCtx, subCancel := context.WithCancel(c.Request.Context())
	defer subCancel()

	msgCh, unsub, err := h.pubsub.Subscribe(subCtx, channel)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.String("channel", channel), zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer unsub()

	// Send initial connected event.
	fmt.Fprintf(c.Writer, "event: connected\ndata: {}\n\n")
	c.Writer.Flush()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, msg.Payload)
			c.Writer.Flush()

		case <-ticker.C:
			// Keepalive comment to prevent proxy timeouts.
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}
