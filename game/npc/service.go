// Package npc implements session NPCs: creation, memory and interaction
// logs, AI-driven autonomous actions, and the background evolution that
// lets NPCs pick up skills and shift mood over time.
package npc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/GustavoPerpetuo2002/rpg-backend/ai"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/rules"
	"github.com/GustavoPerpetuo2002/rpg-backend/model"
)

// ErrNotFound is returned when an NPC does not exist in the session.
var ErrNotFound = errors.New("npc not found")

// Evolution chances, checked independently per NPC per pass.
const (
	skillPointChance = 0.10
	newSkillChance   = 0.05
	moodShiftChance  = 0.20
)

// Service manages NPCs. The random source is injected so evolution is
// deterministic under test; it is guarded by a mutex because *rand.Rand
// is not safe for concurrent use.
type Service struct {
	db          *gorm.DB
	ai          ai.Client
	memoryLimit int
	logger      *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService creates an NPC Service. memoryLimit caps the memory and
// interaction logs; values <= 0 fall back to 200.
func NewService(db *gorm.DB, aiClient ai.Client, rng *rand.Rand, memoryLimit int, logger *zap.Logger) *Service {
	if memoryLimit <= 0 {
		memoryLimit = 200
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		db:          db,
		ai:          aiClient,
		memoryLimit: memoryLimit,
		logger:      logger,
		rng:         rng,
	}
}

// CreateInput carries a new NPC's sheet. Unset attributes default to 10.
type CreateInput struct {
	Name                string         `json:"name"`
	Race                string         `json:"race"`
	Occupation          string         `json:"occupation"`
	Location            string         `json:"current_location"`
	Activity            string         `json:"current_activity"`
	Attributes          map[string]int `json:"attributes"`
	Traits              []string       `json:"personality_traits"`
	ShortTermGoals      []string       `json:"goals_short_term"`
	LongTermGoals       []string       `json:"goals_long_term"`
	Fears               []string       `json:"fears"`
	PhysicalDescription string         `json:"physical_description"`
	ClothingDescription string         `json:"clothing_description"`
}

// Create adds an NPC to a session. The session's current location is
// used when the input has none.
func (svc *Service) Create(ctx context.Context, sess *model.GameSession, in CreateInput) (*model.NPC, error) {
	race := in.Race
	if race == "" {
		race = "human"
	}
	location := in.Location
	if location == "" {
		location = sess.CurrentLocation
	}
	activity := in.Activity
	if activity == "" {
		activity = "Explorando"
	}

	n := &model.NPC{
		GameSessionID:       sess.ID,
		Name:                in.Name,
		Race:                race,
		Occupation:          in.Occupation,
		Strength:            10,
		Dexterity:           10,
		Constitution:        10,
		Intelligence:        10,
		Wisdom:              10,
		Charisma:            10,
		CurrentLocation:     location,
		CurrentActivity:     activity,
		Mood:                "neutral",
		PhysicalDescription: in.PhysicalDescription,
		ClothingDescription: in.ClothingDescription,
		LastInteraction:     time.Now().UTC(),
	}
	for attr, value := range in.Attributes {
		switch attr {
		case rules.Strength:
			n.Strength = value
		case rules.Dexterity:
			n.Dexterity = value
		case rules.Constitution:
			n.Constitution = value
		case rules.Intelligence:
			n.Intelligence = value
		case rules.Wisdom:
			n.Wisdom = value
		case rules.Charisma:
			n.Charisma = value
		}
	}
	n.SetTraits(in.Traits)
	n.SetShortTermGoals(in.ShortTermGoals)
	n.SetLongTermGoals(in.LongTermGoals)
	n.SetFearList(in.Fears)
	n.SetRelationshipMap(map[string]string{})
	n.SetMemories(nil)
	n.SetInteractions(nil)
	n.SetSkills(nil)

	if err := svc.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, err
	}
	svc.logger.Info("npc created",
		zap.Int64("session_id", sess.ID),
		zap.Int64("npc_id", n.ID),
		zap.String("name", n.Name))
	return n, nil
}

// Get returns one NPC belonging to the session.
func (svc *Service) Get(ctx context.Context, sessionID, npcID int64) (*model.NPC, error) {
	var n model.NPC
	err := svc.db.WithContext(ctx).
		Where("id = ? AND game_session_id = ?", npcID, sessionID).
		First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListBySession returns all NPCs in a session.
func (svc *Service) ListBySession(ctx context.Context, sessionID int64) ([]model.NPC, error) {
	var npcs []model.NPC
	err := svc.db.WithContext(ctx).
		Where("game_session_id = ?", sessionID).
		Order("id").
		Find(&npcs).Error
	return npcs, err
}

// AppendMemory appends a timestamped event to the NPC's memory log in
// memory, keeping only the most recent entries up to the configured
// limit. The caller persists the NPC, so the write can join a larger
// transaction.
func (svc *Service) AppendMemory(n *model.NPC, event string) {
	memories := append(n.Memories(), model.MemoryEntry{
		Timestamp: time.Now().UTC(),
		Event:     event,
	})
	if len(memories) > svc.memoryLimit {
		memories = memories[len(memories)-svc.memoryLimit:]
	}
	n.SetMemories(memories)
}

// AppendInteraction appends a timestamped entry to the interaction
// history in memory, capped like the memory log. The caller persists
// the NPC.
func (svc *Service) AppendInteraction(n *model.NPC, interaction string) {
	entries := append(n.Interactions(), model.MemoryEntry{
		Timestamp: time.Now().UTC(),
		Event:     interaction,
	})
	if len(entries) > svc.memoryLimit {
		entries = entries[len(entries)-svc.memoryLimit:]
	}
	n.SetInteractions(entries)
	n.LastInteraction = time.Now().UTC()
}

// AddMemory appends to the memory log and saves the NPC.
func (svc *Service) AddMemory(ctx context.Context, n *model.NPC, event string) error {
	svc.AppendMemory(n, event)
	return svc.db.WithContext(ctx).Save(n).Error
}

// AddInteraction appends to the interaction history and saves the NPC.
func (svc *Service) AddInteraction(ctx context.Context, n *model.NPC, interaction string) error {
	svc.AppendInteraction(n, interaction)
	return svc.db.WithContext(ctx).Save(n).Error
}

// AdjustReputation shifts the NPC's reputation by delta, clamped to
// [-100, 100].
func (svc *Service) AdjustReputation(ctx context.Context, sessionID, npcID int64, delta int) (*model.NPC, error) {
	n, err := svc.Get(ctx, sessionID, npcID)
	if err != nil {
		return nil, err
	}
	n.Reputation += delta
	n.ClampReputation()
	if err := svc.db.WithContext(ctx).Save(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

// AutonomousAction asks the AI for an action this NPC would take on its
// own, records it in the NPC's in-memory log, and returns the action
// text. The caller persists the NPC together with the rest of the turn.
// When the model is unavailable a canned fallback keeps the game moving.
func (svc *Service) AutonomousAction(ctx context.Context, n *model.NPC, sess *model.GameSession) string {
	prompt := ai.NPCActionPrompt(ai.NPCContext{
		Name:            n.Name,
		Race:            n.Race,
		Occupation:      n.Occupation,
		Traits:          n.Traits(),
		ShortTermGoals:  n.ShortTermGoals(),
		LongTermGoals:   n.LongTermGoals(),
		Location:        n.CurrentLocation,
		CurrentActivity: n.CurrentActivity,
		Mood:            n.Mood,
		Relationships:   n.RelationshipMap(),
		StoryContext:    sess.StoryContext,
		StoryLocation:   sess.CurrentLocation,
	})

	action, err := svc.ai.Generate(ctx, ai.Request{
		System:      ai.NarrativeSystem("creative", sess.StoryContext),
		Prompt:      prompt,
		Temperature: ai.TempWorldEvents,
		MaxTokens:   ai.TokensDetailed,
	})
	if err != nil {
		svc.logger.Warn("npc autonomous action fell back",
			zap.Int64("npc_id", n.ID),
			zap.Error(err))
		action = fmt.Sprintf("%s continua suas atividades normais, perdido em pensamentos sobre seus próprios desejos e preocupações.", n.Name)
	}

	n.LastInteraction = time.Now().UTC()
	svc.AppendMemory(n, "Ação autônoma: "+action)
	return action
}

// Evolve runs one evolution pass on a single NPC: an independent chance
// to gain a skill point, learn one of the catalog skills it does not
// know yet, and shift mood. It returns human-readable update lines.
func (svc *Service) Evolve(ctx context.Context, n *model.NPC) ([]string, error) {
	var updates []string

	if svc.roll() < skillPointChance {
		n.SkillPoints++
	}

	if svc.roll() < newSkillChance {
		var available []string
		for _, s := range rules.NPCSkills() {
			if !n.KnowsSkill(s) {
				available = append(available, s)
			}
		}
		if len(available) > 0 {
			skill := available[svc.pick(len(available))]
			n.SetSkills(append(n.Skills(), skill))
			updates = append(updates, fmt.Sprintf("%s aprendeu %s", n.Name, skill))
		}
	}

	if svc.roll() < moodShiftChance {
		moods := rules.NPCMoods()
		n.Mood = moods[svc.pick(len(moods))]
		updates = append(updates, fmt.Sprintf("%s está se sentindo %s", n.Name, n.Mood))
	}

	if err := svc.db.WithContext(ctx).Save(n).Error; err != nil {
		return nil, err
	}
	return updates, nil
}

// EvolveAll runs an evolution pass over every NPC in the session.
func (svc *Service) EvolveAll(ctx context.Context, sessionID int64) ([]string, error) {
	npcs, err := svc.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var updates []string
	for i := range npcs {
		u, err := svc.Evolve(ctx, &npcs[i])
		if err != nil {
			return nil, err
		}
		updates = append(updates, u...)
	}
	return updates, nil
}

func (svc *Service) roll() float64 {
	svc.rngMu.Lock()
	defer svc.rngMu.Unlock()
	return svc.rng.Float64()
}

func (svc *Service) pick(n int) int {
	svc.rngMu.Lock()
	defer svc.rngMu.Unlock()
	return svc.rng.Intn(n)
}
