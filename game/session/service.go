// Package session implements narrative game sessions: the append-only
// story log, the player action loop with AI narration and autonomous NPC
// turns, quests, and world state.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/GustavoPerpetuo2002/rpg-backend/ai"
	"github.com/GustavoPerpetuo2002/rpg-backend/cache"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/npc"
	"github.com/GustavoPerpetuo2002/rpg-backend/model"
)

var (
	ErrNotFound          = errors.New("game session not found")
	ErrCharacterNotFound = errors.New("character not found")
)

// NPC turn chances in the player action loop.
const (
	npcTurnChance   = 0.3 // chance any NPCs act this turn
	npcActionChance = 0.5 // per-NPC chance, first two NPCs only
	maxNPCTurns     = 2
	contextTail     = 5 // story entries fed back to the AI
)

// StoryChannel names the pub/sub channel carrying a session's story
// entries.
func StoryChannel(sessionID int64) string {
	return fmt.Sprintf("session:%d:story", sessionID)
}

// Service manages game sessions. Mutations of one session serialize on a
// per-session mutex so concurrent player actions cannot interleave their
// read-modify-write of the story log.
type Service struct {
	db     *gorm.DB
	ai     ai.Client
	npcs   *npc.Service
	pubsub cache.PubSub
	logger *zap.Logger
	locks  *keyedMutex

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService creates a session Service. The random source drives the NPC
// turn rolls and is injected for deterministic tests.
func NewService(db *gorm.DB, aiClient ai.Client, npcs *npc.Service, ps cache.PubSub, rng *rand.Rand, logger *zap.Logger) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		db:     db,
		ai:     aiClient,
		npcs:   npcs,
		pubsub: ps,
		logger: logger,
		locks:  newKeyedMutex(),
		rng:    rng,
	}
}

// CreateInput carries the settings for a new adventure.
type CreateInput struct {
	SessionName     string `json:"session_name"`
	CharacterID     int64  `json:"character_id"`
	WorldSetting    string `json:"world_setting"`
	DifficultyLevel string `json:"difficulty_level"`
	AIPersonality   string `json:"ai_personality"`
	AIDifficulty    string `json:"ai_difficulty"`
}

// Create starts a new session for one of the user's characters and asks
// the AI for an opening scene. The intro becomes the current scene and
// the first story entry.
func (svc *Service) Create(ctx context.Context, userID int64, in CreateInput) (*model.GameSession, error) {
	var ch model.Character
	err := svc.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", in.CharacterID, userID).
		First(&ch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCharacterNotFound
	}
	if err != nil {
		return nil, err
	}

	sess := &model.GameSession{
		UserID:          userID,
		CharacterID:     in.CharacterID,
		SessionName:     in.SessionName,
		WorldSetting:    defaultStr(in.WorldSetting, "fantasy"),
		DifficultyLevel: defaultStr(in.DifficultyLevel, "normal"),
		AIPersonality:   defaultStr(in.AIPersonality, "balanced"),
		AIDifficulty:    defaultStr(in.AIDifficulty, "normal"),
		CurrentLocation: ch.CurrentLocation,
		NextQuestID:     1,
		LastPlayed:      time.Now().UTC(),
	}
	sess.SetStory(nil)
	sess.SetActions(nil)
	sess.SetState(map[string]interface{}{})
	sess.SetActive(nil)
	sess.SetCompleted(nil)

	intro, err := svc.ai.Generate(ctx, ai.Request{
		System:      ai.NarrativeSystem(sess.AIPersonality, ""),
		Prompt:      ai.SessionIntroPrompt(ch.Name, ch.Level, ch.Race, ch.Class, sess.WorldSetting, sess.DifficultyLevel),
		Temperature: ai.TempNarrative,
		MaxTokens:   ai.TokensMedium,
	})
	if err != nil {
		svc.logger.Warn("session intro fell back", zap.Error(err))
		intro = fmt.Sprintf("A aventura de %s começa em %s. O mundo aguarda seus primeiros passos.", ch.Name, sess.CurrentLocation)
	}

	sess.CurrentScene = intro
	sess.StoryContext = fmt.Sprintf("Aventura iniciada com %s", ch.Name)
	entry := svc.appendStory(sess, model.EntryNarration, intro, "")

	if err := svc.db.WithContext(ctx).Create(sess).Error; err != nil {
		return nil, err
	}
	svc.publish(ctx, sess.ID, entry)

	svc.logger.Info("game session created",
		zap.Int64("user_id", userID),
		zap.Int64("session_id", sess.ID),
		zap.Int64("character_id", in.CharacterID))
	return sess, nil
}

// Get returns one session owned by userID.
func (svc *Service) Get(ctx context.Context, userID, sessionID int64) (*model.GameSession, error) {
	var sess model.GameSession
	err := svc.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// List returns all of the user's sessions, most recently played first.
func (svc *Service) List(ctx context.Context, userID int64) ([]model.GameSession, error) {
	var sessions []model.GameSession
	err := svc.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_played DESC").
		Find(&sessions).Error
	return sessions, err
}

// ActiveSessionIDs lists sessions played since the cutoff, regardless of
// owner. The background NPC evolution pass uses it to skip dormant worlds.
func (svc *Service) ActiveSessionIDs(ctx context.Context, since time.Time) ([]int64, error) {
	var ids []int64
	err := svc.db.WithContext(ctx).
		Model(&model.GameSession{}).
		Where("last_played >= ?", since).
		Pluck("id", &ids).Error
	return ids, err
}

// Delete removes a session and all of its NPCs.
func (svc *Service) Delete(ctx context.Context, userID, sessionID int64) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sess model.GameSession
		err := tx.Where("id = ? AND user_id = ?", sessionID, userID).First(&sess).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Where("game_session_id = ?", sessionID).Delete(&model.NPC{}).Error; err != nil {
			return err
		}
		return tx.Delete(&sess).Error
	})
}

// NPCActionResult is one autonomous NPC turn taken during a player action.
type NPCActionResult struct {
	NPCName string `json:"npc_name"`
	Action  string `json:"action"`
}

// ActionResult is the outcome of one player action.
type ActionResult struct {
	Session    *model.GameSession `json:"session"`
	Narration  string             `json:"ai_response"`
	NPCActions []NPCActionResult  `json:"npc_actions"`
}

// RecordPlayerAction runs one turn of the game loop: log the player's
// action, have the AI narrate the outcome with the last story entries as
// context, then roll for autonomous NPC turns (30% chance any act, the
// first two NPCs each act with 50% probability). All session writes land
// in one transaction under the per-session lock.
func (svc *Service) RecordPlayerAction(ctx context.Context, userID, sessionID int64, action string) (*ActionResult, error) {
	unlock := svc.locks.Lock(sessionID)
	defer unlock()

	sess, err := svc.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	actions := append(sess.Actions(), model.PlayerAction{
		Timestamp: time.Now().UTC(),
		Action:    action,
	})
	sess.SetActions(actions)
	entries := []model.StoryEntry{
		svc.appendStory(sess, model.EntryPlayerAction, action, "Jogador"),
	}

	story := sess.Story()
	tail := story
	if len(tail) > contextTail {
		tail = tail[len(tail)-contextTail:]
	}
	narration, err := svc.ai.Generate(ctx, ai.Request{
		System:      ai.NarrativeSystem(sess.AIPersonality, ai.SessionContext(sess.StoryContext, sess.CurrentScene, sess.CurrentLocation, tail)),
		Prompt:      ai.PlayerActionPrompt(action),
		Temperature: ai.TempNarrative,
		MaxTokens:   ai.TokensMedium,
	})
	if err != nil {
		svc.logger.Warn("action narration fell back",
			zap.Int64("session_id", sessionID),
			zap.Error(err))
		narration = "O mundo reage em silêncio à sua ação, aguardando o próximo movimento."
	}
	entries = append(entries, svc.appendStory(sess, model.EntryNarration, narration, ""))
	sess.CurrentScene = narration
	sess.LastPlayed = time.Now().UTC()

	var npcActions []NPCActionResult
	var acted []*model.NPC
	if svc.roll() < npcTurnChance {
		npcs, err := svc.npcs.ListBySession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if len(npcs) > maxNPCTurns {
			npcs = npcs[:maxNPCTurns]
		}
		for i := range npcs {
			if svc.roll() >= npcActionChance {
				continue
			}
			act := svc.npcs.AutonomousAction(ctx, &npcs[i], sess)
			svc.npcs.AppendInteraction(&npcs[i], "Agiu durante o turno do jogador: "+act)
			acted = append(acted, &npcs[i])
			npcActions = append(npcActions, NPCActionResult{NPCName: npcs[i].Name, Action: act})
			entries = append(entries, svc.appendStory(sess, model.EntryNPCAction, act, npcs[i].Name))
		}
	}

	// The whole turn commits or none of it does, NPC logs included.
	err = svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, n := range acted {
			if err := tx.Save(n).Error; err != nil {
				return err
			}
		}
		return tx.Save(sess).Error
	})
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		svc.publish(ctx, sessionID, e)
	}

	return &ActionResult{Session: sess, Narration: narration, NPCActions: npcActions}, nil
}

// AddStoryEntry appends one typed entry to the session's story log and
// publishes it on the session's story channel. Insertion order is the
// log's total order.
func (svc *Service) AddStoryEntry(ctx context.Context, userID, sessionID int64, entryType, content, actor string) error {
	unlock := svc.locks.Lock(sessionID)
	defer unlock()

	sess, err := svc.Get(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	entry := svc.appendStory(sess, entryType, content, actor)
	if err := svc.db.WithContext(ctx).Save(sess).Error; err != nil {
		return err
	}
	svc.publish(ctx, sessionID, entry)
	return nil
}

// AddSystemEntry appends a system-typed story entry, for events like
// purchases and quest updates that are not narration.
func (svc *Service) AddSystemEntry(ctx context.Context, userID, sessionID int64, content string) error {
	return svc.AddStoryEntry(ctx, userID, sessionID, model.EntrySystem, content, "")
}

// Save stamps the session as just played.
func (svc *Service) Save(ctx context.Context, userID, sessionID int64) error {
	res := svc.db.WithContext(ctx).Model(&model.GameSession{}).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Update("last_played", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// QuestInput carries a new quest.
type QuestInput struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Reward      map[string]interface{} `json:"reward"`
}

// AddQuest appends a quest to the active list. Quest IDs come from the
// session's monotonic counter and are never reused, even after quests
// complete.
func (svc *Service) AddQuest(ctx context.Context, userID, sessionID int64, in QuestInput) (*model.GameSession, error) {
	unlock := svc.locks.Lock(sessionID)
	defer unlock()

	sess, err := svc.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	quest := model.Quest{
		ID:          sess.NextQuestID,
		Name:        in.Name,
		Description: in.Description,
		Reward:      in.Reward,
		CreatedAt:   time.Now().UTC(),
	}
	sess.NextQuestID++
	sess.SetActive(append(sess.Active(), quest))

	if err := svc.db.WithContext(ctx).Save(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

// CompleteQuest moves a quest from the active to the completed list and
// stamps its completion time.
func (svc *Service) CompleteQuest(ctx context.Context, userID, sessionID, questID int64) (*model.GameSession, error) {
	unlock := svc.locks.Lock(sessionID)
	defer unlock()

	sess, err := svc.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	active := sess.Active()
	found := false
	for i := range active {
		if active[i].ID != questID {
			continue
		}
		now := time.Now().UTC()
		quest := active[i]
		quest.CompletedAt = &now
		sess.SetCompleted(append(sess.Completed(), quest))
		active = append(active[:i], active[i+1:]...)
		found = true
		break
	}
	// Unknown quest ids are a silent no-op.
	if !found {
		return sess, nil
	}
	sess.SetActive(active)

	if err := svc.db.WithContext(ctx).Save(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

// UpdateWorldState sets one key of the session's world state object.
func (svc *Service) UpdateWorldState(ctx context.Context, userID, sessionID int64, key string, value interface{}) (*model.GameSession, error) {
	unlock := svc.locks.Lock(sessionID)
	defer unlock()

	sess, err := svc.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	state := sess.State()
	state[key] = value
	sess.SetState(state)

	if err := svc.db.WithContext(ctx).Save(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

// appendStory appends an entry to the in-memory story log and returns it.
// The caller persists and publishes.
func (svc *Service) appendStory(sess *model.GameSession, entryType, content, actor string) model.StoryEntry {
	entry := model.StoryEntry{
		Timestamp: time.Now().UTC(),
		Type:      entryType,
		Content:   content,
		Actor:     actor,
	}
	sess.SetStory(append(sess.Story(), entry))
	return entry
}

func (svc *Service) publish(ctx context.Context, sessionID int64, entry model.StoryEntry) {
	if svc.pubsub == nil {
		return
	}
	payload, _ := json.Marshal(entry)
	if err := svc.pubsub.Publish(ctx, StoryChannel(sessionID), string(payload)); err != nil {
		svc.logger.Warn("story publish failed",
			zap.Int64("session_id", sessionID),
			zap.Error(err))
	}
}

func (svc *Service) roll() float64 {
	svc.rngMu.Lock()
	defer svc.rngMu.Unlock()
	return svc.rng.Float64()
}

func defaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
