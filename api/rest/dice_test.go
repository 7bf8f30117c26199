package rest_test

import (
	"math/rand"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GustavoPerpetuo2002/rpg-backend/api/rest"
	"github.com/GustavoPerpetuo2002/rpg-backend/audit"
	"github.com/GustavoPerpetuo2002/rpg-backend/config"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/character"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/dice"
	mw "github.com/GustavoPerpetuo2002/rpg-backend/middleware"
	"github.com/GustavoPerpetuo2002/rpg-backend/testutil"
)

func newDiceRouter(t *testing.T) *gin.Engine {
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	sec := testSecurity()
	auditSvc := audit.New(db, testutil.Logger())
	t.Cleanup(func() { auditSvc.Stop(nil) })

	chars := character.NewService(db, config.GameConfig{}, testutil.Logger())
	authH := rest.NewAuthHandler(db, c, sec, auditSvc)
	charH := rest.NewCharacterHandler(chars, auditSvc)
	h := rest.NewDiceHandler(dice.NewRoller(rand.New(rand.NewSource(1))), chars)

	r := gin.New()
	r.POST("/api/auth/register", authH.Register)
	charsG := r.Group("/api/characters", mw.Auth(sec, c))
	charsG.POST("", charH.Create)
	r.POST("/api/dice/roll", h.Roll)
	r.GET("/api/dice/roll/:notation", h.RollSimple)
	r.POST("/api/dice/roll-multiple", h.RollMultiple)
	r.POST("/api/dice/test", mw.Auth(sec, c), h.AttributeTest)
	r.GET("/api/dice/presets", h.Presets)
	return r
}

func TestDiceRoll(t *testing.T) {
	r := newDiceRouter(t)

	w := postJSON(r, "/api/dice/roll", map[string]string{
		"notation": "3d6+2",
		"label":    "teste de força",
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, "teste de força", resp["label"])
	res := resp["result"].(map[string]interface{})
	rolls := res["rolls"].([]interface{})
	assert.Len(t, rolls, 3)
	total := res["total"].(float64)
	assert.GreaterOrEqual(t, total, float64(5))  // 3×1 + 2
	assert.LessOrEqual(t, total, float64(20))    // 3×6 + 2
}

func TestDiceRollInvalidNotation(t *testing.T) {
	r := newDiceRouter(t)

	w := postJSON(r, "/api/dice/roll", map[string]string{"notation": "d6"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w2 := postJSON(r, "/api/dice/roll", map[string]string{"notation": "2x8"})
	assert.Equal(t, http.StatusBadRequest, w2.Code)
}

func TestDiceRollLimits(t *testing.T) {
	r := newDiceRouter(t)

	w := postJSON(r, "/api/dice/roll", map[string]string{"notation": "101d6"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w2 := postJSON(r, "/api/dice/roll", map[string]string{"notation": "1d1001"})
	assert.Equal(t, http.StatusBadRequest, w2.Code)
}

func TestDiceRollSimple(t *testing.T) {
	r := newDiceRouter(t)

	w := getJSON(r, "/api/dice/roll/1d20")
	require.Equal(t, http.StatusOK, w.Code)
	res := decodeBody(t, w)["result"].(map[string]interface{})
	total := res["total"].(float64)
	assert.GreaterOrEqual(t, total, float64(1))
	assert.LessOrEqual(t, total, float64(20))
}

func TestDiceRollMultiple(t *testing.T) {
	r := newDiceRouter(t)

	w := postJSON(r, "/api/dice/roll-multiple", map[string]interface{}{
		"rolls": []map[string]string{
			{"notation": "1d20", "label": "ataque"},
			{"notation": "garbage", "label": "inválido"},
			{"notation": "2d6+1"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	results := decodeBody(t, w)["results"].([]interface{})
	require.Len(t, results, 3)

	first := results[0].(map[string]interface{})
	assert.Equal(t, "ataque", first["label"])
	assert.NotNil(t, first["result"])
	assert.Empty(t, first["error"])

	// A bad entry fails alone; the batch still succeeds.
	second := results[1].(map[string]interface{})
	assert.NotEmpty(t, second["error"])
	assert.Nil(t, second["result"])

	third := results[2].(map[string]interface{})
	assert.NotNil(t, third["result"])
}

func TestDiceRollMultipleTooMany(t *testing.T) {
	r := newDiceRouter(t)

	rolls := make([]map[string]string, 21)
	for i := range rolls {
		rolls[i] = map[string]string{"notation": "1d6"}
	}
	w := postJSON(r, "/api/dice/roll-multiple", map[string]interface{}{"rolls": rolls})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDiceRollMultipleEmpty(t *testing.T) {
	r := newDiceRouter(t)

	w := postJSON(r, "/api/dice/roll-multiple", map[string]interface{}{"rolls": []map[string]string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDicePresets(t *testing.T) {
	r := newDiceRouter(t)

	w := getJSON(r, "/api/dice/presets")
	require.Equal(t, http.StatusOK, w.Code)
	presets := decodeBody(t, w)["presets"].(map[string]interface{})
	assert.Contains(t, presets, "common")
	assert.Contains(t, presets, "combat")
	assert.Contains(t, presets, "attributes")
	assert.Contains(t, presets, "magic")
}

func TestAttributeTest(t *testing.T) {
	r := newDiceRouter(t)
	token := registerUser(t, r, "rolador")
	charID := createCharacter(t, r, token, "Borin")

	w := postJSON(r, "/api/dice/test", map[string]interface{}{
		"character_id": charID,
		"attribute":    "strength",
		"difficulty":   12,
	}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "strength", body["attribute"])
	assert.Equal(t, float64(11), body["score"])

	res := body["result"].(map[string]interface{})
	roll := res["roll"].(float64)
	assert.GreaterOrEqual(t, roll, float64(1))
	assert.LessOrEqual(t, roll, float64(20))
	assert.Equal(t, float64(0), res["modifier"])
	assert.Equal(t, roll, res["total"])
	assert.Equal(t, float64(12), res["difficulty"])
}

func TestAttributeTestDefaultDifficulty(t *testing.T) {
	r := newDiceRouter(t)
	token := registerUser(t, r, "rolador2")
	charID := createCharacter(t, r, token, "Elenna")

	w := postJSON(r, "/api/dice/test", map[string]interface{}{
		"character_id": charID,
		"attribute":    "wisdom",
	}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	res := decodeBody(t, w)["result"].(map[string]interface{})
	assert.Equal(t, float64(10), res["difficulty"])
}

func TestAttributeTestInvalidAttribute(t *testing.T) {
	r := newDiceRouter(t)
	token := registerUser(t, r, "rolador3")
	charID := createCharacter(t, r, token, "Thorn")

	w := postJSON(r, "/api/dice/test", map[string]interface{}{
		"character_id": charID,
		"attribute":    "sorte",
	}, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttributeTestUnknownCharacter(t *testing.T) {
	r := newDiceRouter(t)
	token := registerUser(t, r, "rolador4")

	w := postJSON(r, "/api/dice/test", map[string]interface{}{
		"character_id": 999,
		"attribute":    "strength",
	}, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
