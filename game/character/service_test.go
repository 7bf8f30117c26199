package character

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GustavoPerpetuo2002/rpg-backend/config"
	"github.com/GustavoPerpetuo2002/rpg-backend/model"
	"github.com/GustavoPerpetuo2002/rpg-backend/testutil"
)

func newService(t *testing.T) *Service {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewService(db, config.GameConfig{StartingGold: 100, StartingLocation: "Vila Inicial"}, testutil.Logger())
}

func createElfMage(t *testing.T, svc *Service) *model.Character {
	t.Helper()
	ch, err := svc.Create(context.Background(), 1, CreateInput{
		Name:            "Lyra",
		Race:            "elf",
		Class:           "mage",
		AttributePoints: map[string]int{"intelligence": 2},
	})
	require.NoError(t, err)
	return ch
}

func TestCreate_ElfMageAttributes(t *testing.T) {
	svc := newService(t)
	ch := createElfMage(t, svc)

	// Base 10, elf +2 dex +1 int +1 wis, plus 2 distributed into int.
	assert.Equal(t, 10, ch.Strength)
	assert.Equal(t, 12, ch.Dexterity)
	assert.Equal(t, 10, ch.Constitution)
	assert.Equal(t, 13, ch.Intelligence)
	assert.Equal(t, 11, ch.Wisdom)
	assert.Equal(t, 10, ch.Charisma)

	// HP = 10 + con + class bonus (mage: 0); MP = 10 + int + class bonus (mage: 15).
	assert.Equal(t, 20, ch.MaxHP)
	assert.Equal(t, 20, ch.CurrentHP)
	assert.Equal(t, 38, ch.MaxMP)
	assert.Equal(t, 38, ch.CurrentMP)

	assert.Equal(t, int64(100), ch.Gold)
	assert.Equal(t, "Vila Inicial", ch.CurrentLocation)
}

func TestCreate_OrcPenaltiesApply(t *testing.T) {
	svc := newService(t)
	ch, err := svc.Create(context.Background(), 1, CreateInput{
		Name: "Grok", Race: "orc", Class: "warrior",
	})
	require.NoError(t, err)

	assert.Equal(t, 13, ch.Strength)
	assert.Equal(t, 11, ch.Constitution)
	assert.Equal(t, 9, ch.Intelligence)
	assert.Equal(t, 9, ch.Charisma)
	// Warrior: hp bonus 10.
	assert.Equal(t, 10+11+10, ch.MaxHP)
}

func TestCreate_InvalidRaceOrClass(t *testing.T) {
	svc := newService(t)
	_, err := svc.Create(context.Background(), 1, CreateInput{Name: "X", Race: "goblin", Class: "mage"})
	assert.ErrorIs(t, err, ErrInvalidRace)

	_, err = svc.Create(context.Background(), 1, CreateInput{Name: "X", Race: "elf", Class: "bard"})
	assert.ErrorIs(t, err, ErrInvalidClass)
}

func TestGet_ScopedToOwner(t *testing.T) {
	svc := newService(t)
	ch := createElfMage(t, svc)

	_, err := svc.Get(context.Background(), 2, ch.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.Get(context.Background(), 1, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, ch.Name, got.Name)
}

func TestSpendGold_InsufficientFails(t *testing.T) {
	svc := newService(t)
	ch := createElfMage(t, svc)

	_, err := svc.SpendGold(context.Background(), 1, ch.ID, 150)
	assert.ErrorIs(t, err, ErrInsufficientGold)

	// Balance untouched after a failed spend.
	got, err := svc.Get(context.Background(), 1, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Gold)

	got, err = svc.SpendGold(context.Background(), 1, ch.ID, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(40), got.Gold)

	got, err = svc.EarnGold(context.Background(), 1, ch.ID, 25)
	require.NoError(t, err)
	assert.Equal(t, int64(65), got.Gold)
}

func TestGetForUpdate_ScopedToOwner(t *testing.T) {
	svc := newService(t)
	ch := createElfMage(t, svc)

	require.NoError(t, svc.Tx(context.Background(), func(tx *gorm.DB) error {
		got, err := GetForUpdate(tx, 1, ch.ID)
		require.NoError(t, err)
		assert.Equal(t, "Lyra", got.Name)

		_, err = GetForUpdate(tx, 2, ch.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	}))
}

func TestAddItem_MonotonicIDs(t *testing.T) {
	svc := newService(t)
	ch := createElfMage(t, svc)

	got, err := svc.AddItem(context.Background(), 1, ch.ID, model.InventoryItem{Name: "Espada de Ferro", Quantity: 1, Value: 50})
	require.NoError(t, err)
	got, err = svc.AddItem(context.Background(), 1, got.ID, model.InventoryItem{Name: "Poção de Cura Menor", Quantity: 3, Value: 25})
	require.NoError(t, err)

	items := got.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, int64(2), items[1].ID)

	// Remove the first item entirely; the next item keeps a fresh ID.
	got, err = svc.RemoveItem(context.Background(), 1, ch.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, got.Items(), 1)

	got, err = svc.AddItem(context.Background(), 1, ch.ID, model.InventoryItem{Name: "Corda Élfica", Quantity: 1})
	require.NoError(t, err)
	items = got.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(3), items[1].ID, "item IDs must never be reused")
}

func TestRemoveItem_QuantitySemantics(t *testing.T) {
	svc := newService(t)
	ch := createElfMage(t, svc)

	got, err := svc.AddItem(context.Background(), 1, ch.ID, model.InventoryItem{Name: "Poção", Quantity: 5})
	require.NoError(t, err)
	itemID := got.Items()[0].ID

	// Partial removal decrements.
	got, err = svc.RemoveItem(context.Background(), 1, ch.ID, itemID, 2)
	require.NoError(t, err)
	require.Len(t, got.Items(), 1)
	assert.Equal(t, 3, got.Items()[0].Quantity)

	// Removing at least the stored quantity drops the entry.
	got, err = svc.RemoveItem(context.Background(), 1, ch.ID, itemID, 10)
	require.NoError(t, err)
	assert.Empty(t, got.Items())

	// Unknown item ids are a silent no-op.
	got, err = svc.RemoveItem(context.Background(), 1, ch.ID, itemID, 1)
	require.NoError(t, err)
	assert.Empty(t, got.Items())
}

func TestAddKnownNPC_UpsertsByID(t *testing.T) {
	svc := newService(t)
	ch := createElfMage(t, svc)

	got, err := svc.AddKnownNPC(context.Background(), 1, ch.ID, model.KnownNPC{ID: 7, Name: "Aldric", Occupation: "ferreiro"})
	require.NoError(t, err)
	npcs := got.NPCRecords()
	require.Len(t, npcs, 1)
	assert.Equal(t, "neutral", npcs[0].Relationship)
	assert.Equal(t, "Vila Inicial", npcs[0].LocationMet)
	metAt := npcs[0].MetAt

	// Meeting again updates in place, never duplicates.
	got, err = svc.AddKnownNPC(context.Background(), 1, ch.ID, model.KnownNPC{ID: 7, Name: "Aldric", Relationship: "friendly"})
	require.NoError(t, err)
	npcs = got.NPCRecords()
	require.Len(t, npcs, 1)
	assert.Equal(t, "friendly", npcs[0].Relationship)
	assert.Equal(t, metAt, npcs[0].MetAt)
	assert.True(t, npcs[0].LastInteraction.After(metAt) || npcs[0].LastInteraction.Equal(metAt))
}

func TestUpdateNPCRelationship(t *testing.T) {
	svc := newService(t)
	ch := createElfMage(t, svc)

	_, err := svc.AddKnownNPC(context.Background(), 1, ch.ID, model.KnownNPC{ID: 3, Name: "Mira"})
	require.NoError(t, err)

	got, err := svc.UpdateNPCRelationship(context.Background(), 1, ch.ID, 3, "hostile", "roubou a carroça")
	require.NoError(t, err)
	npcs := got.NPCRecords()
	require.Len(t, npcs, 1)
	assert.Equal(t, "hostile", npcs[0].Relationship)
	assert.Equal(t, "roubou a carroça", npcs[0].Notes)
}

func TestUpdate_PartialFields(t *testing.T) {
	svc := newService(t)
	ch := createElfMage(t, svc)

	name := "Lyra Stormsong"
	hp := 12
	got, err := svc.Update(context.Background(), 1, ch.ID, UpdateInput{Name: &name, CurrentHP: &hp})
	require.NoError(t, err)
	assert.Equal(t, "Lyra Stormsong", got.Name)
	assert.Equal(t, 12, got.CurrentHP)
	// Untouched fields survive.
	assert.Equal(t, 13, got.Intelligence)
}

func TestDelete(t *testing.T) {
	svc := newService(t)
	ch := createElfMage(t, svc)

	require.ErrorIs(t, svc.Delete(context.Background(), 2, ch.ID), ErrNotFound)
	require.NoError(t, svc.Delete(context.Background(), 1, ch.ID))
	_, err := svc.Get(context.Background(), 1, ch.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
