package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GustavoPerpetuo2002/rpg-backend/ai"
	apirest "github.com/GustavoPerpetuo2002/rpg-backend/api/rest"
	"github.com/GustavoPerpetuo2002/rpg-backend/api/sse"
	"github.com/GustavoPerpetuo2002/rpg-backend/audit"
	"github.com/GustavoPerpetuo2002/rpg-backend/cache"
	"github.com/GustavoPerpetuo2002/rpg-backend/config"
	dbadapter "github.com/GustavoPerpetuo2002/rpg-backend/db"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/character"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/dice"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/npc"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/session"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/shop"
	mw "github.com/GustavoPerpetuo2002/rpg-backend/middleware"
	"github.com/GustavoPerpetuo2002/rpg-backend/model"
	"github.com/GustavoPerpetuo2002/rpg-backend/scheduler"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Cache / PubSub ----
	c, err := cache.NewCache(cfg.Cache)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cfg.Cache)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- AI ----
	var aiClient ai.Client
	if cfg.AI.APIKey != "" {
		gemini, err := ai.NewGemini(context.Background(), cfg.AI, logger)
		if err != nil {
			log.Fatalf("ai: %v", err)
		}
		aiClient = gemini
		logger.Info("AI client initialized", zap.String("model", cfg.AI.Model))
	} else {
		aiClient = ai.Disabled{}
		logger.Warn("ai.api_key is not set; narrative generation uses fallback text")
	}
	defer aiClient.Close()

	// ---- Game Services ----
	charSvc := character.NewService(db, cfg.Game, logger)
	npcSvc := npc.NewService(db, aiClient, nil, cfg.Game.NPCMemoryLimit, logger)
	sessionSvc := session.NewService(db, aiClient, npcSvc, pubsub, nil, logger)
	shopSvc := shop.NewService(aiClient, charSvc, logger)
	roller := dice.NewRoller(nil)

	// ---- Background world processes ----
	// NPCs in recently played sessions keep living between requests.
	sched := scheduler.New(logger)
	defer sched.Stop()
	sched.Every("npc_evolution", 10*time.Minute, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		ids, err := sessionSvc.ActiveSessionIDs(ctx, time.Now().Add(-time.Hour))
		if err != nil {
			logger.Warn("npc evolution pass failed", zap.Error(err))
			return
		}
		for _, id := range ids {
			if _, err := npcSvc.EvolveAll(ctx, id); err != nil {
				logger.Warn("npc evolution failed",
					zap.Int64("session_id", id),
					zap.Error(err))
			}
		}
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, cfg.Security, auditSvc)
	charH := apirest.NewCharacterHandler(charSvc, auditSvc)
	gameH := apirest.NewGameHandler(sessionSvc, npcSvc, charSvc, auditSvc)
	shopH := apirest.NewShopHandler(shopSvc, charSvc, auditSvc)
	diceH := apirest.NewDiceHandler(roller, charSvc)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/register", authH.Register)
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.GET("/me", mw.Auth(cfg.Security, c), authH.Me)

		// Static reference catalogs have no auth; the character builder
		// and shop UI need them before an account exists.
		api.GET("/characters/reference", charH.ReferenceData)
		api.GET("/shop/types", shopH.Types)

		charsG := api.Group("/characters")
		charsG.Use(mw.Auth(cfg.Security, c))
		charsG.GET("", charH.List)
		charsG.POST("", charH.Create)
		charsG.GET("/:id", charH.Get)
		charsG.PUT("/:id", charH.Update)
		charsG.DELETE("/:id", charH.Delete)

		gameG := api.Group("/game")
		gameG.Use(mw.Auth(cfg.Security, c))
		gameG.GET("/sessions", gameH.ListSessions)
		gameG.POST("/sessions", gameH.CreateSession)
		gameG.GET("/sessions/:id", gameH.GetSession)
		gameG.DELETE("/sessions/:id", gameH.DeleteSession)
		gameG.POST("/sessions/:id/action", gameH.PlayerAction)
		gameG.POST("/sessions/:id/save", gameH.SaveSession)
		gameG.GET("/sessions/:id/npcs", gameH.ListNPCs)
		gameG.POST("/sessions/:id/npcs", gameH.CreateNPC)
		gameG.POST("/sessions/:id/npcs/update-all", gameH.EvolveNPCs)
		gameG.POST("/sessions/:id/quests", gameH.AddQuest)
		gameG.POST("/sessions/:id/quests/:quest_id/complete", gameH.CompleteQuest)
		gameG.PUT("/sessions/:id/world-state", gameH.UpdateWorldState)

		shopG := api.Group("/shop")
		shopG.Use(mw.Auth(cfg.Security, c))
		shopG.POST("/generate", shopH.Generate)
		shopG.POST("/buy", shopH.Buy)
		shopG.POST("/sell", shopH.Sell)

		diceG := api.Group("/dice")
		diceG.Use(mw.Auth(cfg.Security, c))
		diceG.POST("/roll", diceH.Roll)
		diceG.GET("/roll/:notation", diceH.RollSimple)
		diceG.POST("/roll-multiple", diceH.RollMultiple)
		diceG.POST("/test", diceH.AttributeTest)
		diceG.GET("/presets", diceH.Presets)
	}

	// ---- SSE ----
	sseH := sse.NewHandler(pubsub, sessionSvc, c, cfg.Security, logger)
	r.GET("/sse/announce", sseH.ServeAnnounce)
	r.GET("/sse/sessions/:id/story", sseH.ServeStory)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
