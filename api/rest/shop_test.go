package rest_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GustavoPerpetuo2002/rpg-backend/api/rest"
	"github.com/GustavoPerpetuo2002/rpg-backend/audit"
	"github.com/GustavoPerpetuo2002/rpg-backend/config"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/character"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/shop"
	mw "github.com/GustavoPerpetuo2002/rpg-backend/middleware"
	"github.com/GustavoPerpetuo2002/rpg-backend/testutil"
)

func newShopRouter(t *testing.T, stub *testutil.StubAI) *gin.Engine {
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	sec := testSecurity()
	auditSvc := audit.New(db, testutil.Logger())
	t.Cleanup(func() { auditSvc.Stop(nil) })

	chars := character.NewService(db, config.GameConfig{}, testutil.Logger())
	shops := shop.NewService(stub, chars, testutil.Logger())

	authH := rest.NewAuthHandler(db, c, sec, auditSvc)
	charH := rest.NewCharacterHandler(chars, auditSvc)
	shopH := rest.NewShopHandler(shops, chars, auditSvc)

	r := gin.New()
	r.POST("/api/auth/register", authH.Register)
	charsG := r.Group("/api/characters", mw.Auth(sec, c))
	charsG.POST("", charH.Create)
	charsG.GET("/:id", charH.Get)
	g := r.Group("/api/shop", mw.Auth(sec, c))
	g.GET("/types", shopH.Types)
	g.POST("/generate", shopH.Generate)
	g.POST("/buy", shopH.Buy)
	g.POST("/sell", shopH.Sell)
	return r
}

func TestShopTypes(t *testing.T) {
	r := newShopRouter(t, &testutil.StubAI{})
	token := registerUser(t, r, "alice")

	w := getJSON(r, "/api/shop/types", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	types := decodeBody(t, w)["shop_types"].(map[string]interface{})
	assert.Len(t, types, 6)
	assert.Contains(t, types, "blacksmith")
}

func TestGenerateShopFallback(t *testing.T) {
	// AI down → the static catalog with location pricing backs it up.
	stub := &testutil.StubAI{Err: errors.New("model offline")}
	r := newShopRouter(t, stub)
	token := registerUser(t, r, "bob")
	charID := createCharacter(t, r, token, "Bor")

	w := postJSON(r, "/api/shop/generate", map[string]interface{}{
		"character_id": charID,
		"shop_type":    "blacksmith",
	}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	generated := decodeBody(t, w)["shop"].(map[string]interface{})
	assert.Equal(t, "blacksmith", generated["type"])
	assert.Equal(t, "Vila Inicial", generated["location"])
	items := generated["items"].([]interface{})
	require.NotEmpty(t, items)
	// Level 1 sword is 60, scaled by the vila multiplier 0.8.
	first := items[0].(map[string]interface{})
	assert.Equal(t, "Espada de Ferro", first["name"])
	assert.EqualValues(t, 48, first["price"])
}

func TestGenerateShopFromModelJSON(t *testing.T) {
	stub := &testutil.StubAI{Responses: []string{
		"Aqui está a loja:\n```json\n{\"items\":[{\"name\":\"Adaga Fina\",\"description\":\"Lâmina leve\",\"type\":\"weapon\",\"price\":35,\"rarity\":\"common\"}]}\n```",
	}}
	r := newShopRouter(t, stub)
	token := registerUser(t, r, "carol")
	charID := createCharacter(t, r, token, "Cal")

	w := postJSON(r, "/api/shop/generate", map[string]interface{}{
		"character_id": charID,
	}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	generated := decodeBody(t, w)["shop"].(map[string]interface{})
	assert.Equal(t, "general", generated["type"])
	items := generated["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Adaga Fina", items[0].(map[string]interface{})["name"])
}

func TestBuyItem(t *testing.T) {
	r := newShopRouter(t, &testutil.StubAI{})
	token := registerUser(t, r, "dave")
	charID := createCharacter(t, r, token, "Dov")

	w := postJSON(r, "/api/shop/buy", map[string]interface{}{
		"character_id": charID,
		"quantity":     1,
		"item": map[string]interface{}{
			"name":  "Poção de Cura",
			"type":  "potion",
			"price": 30,
		},
	}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	assert.EqualValues(t, 30, resp["total"])
	ch := resp["character"].(map[string]interface{})
	assert.EqualValues(t, 70, ch["gold"])
	inv := ch["inventory"].([]interface{})
	require.Len(t, inv, 1)
	bought := inv[0].(map[string]interface{})
	assert.Equal(t, "Poção de Cura", bought["name"])
	// Resale value is the purchase price.
	assert.EqualValues(t, 30, bought["value"])
}

func TestBuyInsufficientGold(t *testing.T) {
	r := newShopRouter(t, &testutil.StubAI{})
	token := registerUser(t, r, "erin")
	charID := createCharacter(t, r, token, "Eri")

	w := postJSON(r, "/api/shop/buy", map[string]interface{}{
		"character_id": charID,
		"item": map[string]interface{}{
			"name":  "Armadura de Placas",
			"price": 5000,
		},
	}, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSellItem(t *testing.T) {
	r := newShopRouter(t, &testutil.StubAI{})
	token := registerUser(t, r, "frank")
	charID := createCharacter(t, r, token, "Fra")

	// Buy for 45, sell back for half (22, truncated).
	w := postJSON(r, "/api/shop/buy", map[string]interface{}{
		"character_id": charID,
		"item": map[string]interface{}{
			"name":  "Escudo de Madeira",
			"price": 45,
		},
	}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	ch := decodeBody(t, w)["character"].(map[string]interface{})
	inv := ch["inventory"].([]interface{})
	itemID := int64(inv[0].(map[string]interface{})["id"].(float64))

	w2 := postJSON(r, "/api/shop/sell", map[string]interface{}{
		"character_id": charID,
		"item_id":      itemID,
	}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w2.Code)

	resp := decodeBody(t, w2)
	assert.EqualValues(t, 22, resp["total"])
	ch2 := resp["character"].(map[string]interface{})
	assert.EqualValues(t, 77, ch2["gold"]) // 100 - 45 + 22
	assert.Empty(t, ch2["inventory"])
}

func TestSellUnknownItem(t *testing.T) {
	r := newShopRouter(t, &testutil.StubAI{})
	token := registerUser(t, r, "grace")
	charID := createCharacter(t, r, token, "Gra")

	w := postJSON(r, "/api/shop/sell", map[string]interface{}{
		"character_id": charID,
		"item_id":      42,
	}, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
