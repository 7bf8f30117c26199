package rest_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GustavoPerpetuo2002/rpg-backend/api/rest"
	"github.com/GustavoPerpetuo2002/rpg-backend/audit"
	"github.com/GustavoPerpetuo2002/rpg-backend/config"
	"github.com/GustavoPerpetuo2002/rpg-backend/game/character"
	mw "github.com/GustavoPerpetuo2002/rpg-backend/middleware"
	"github.com/GustavoPerpetuo2002/rpg-backend/testutil"
)

func newCharacterRouter(t *testing.T) *gin.Engine {
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	sec := testSecurity()
	auditSvc := audit.New(db, testutil.Logger())
	t.Cleanup(func() { auditSvc.Stop(nil) })

	chars := character.NewService(db, config.GameConfig{}, testutil.Logger())
	authH := rest.NewAuthHandler(db, c, sec, auditSvc)
	charH := rest.NewCharacterHandler(chars, auditSvc)

	r := gin.New()
	r.POST("/api/auth/register", authH.Register)
	r.GET("/api/characters/reference", charH.ReferenceData)
	g := r.Group("/api/characters", mw.Auth(sec, c))
	g.GET("", charH.List)
	g.POST("", charH.Create)
	g.GET("/:id", charH.Get)
	g.PUT("/:id", charH.Update)
	g.DELETE("/:id", charH.Delete)
	return r
}

// registerUser creates an account through the API and returns its token.
func registerUser(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	w := postJSON(r, "/api/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "pass1234",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return decodeBody(t, w)["token"].(string)
}

func TestReferenceDataIsPublic(t *testing.T) {
	r := newCharacterRouter(t)

	w := getJSON(r, "/api/characters/reference")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)

	races := resp["races"].(map[string]interface{})
	assert.Len(t, races, 8)
	assert.Contains(t, races, "elf")
	classes := resp["classes"].(map[string]interface{})
	assert.Len(t, classes, 5)
	assert.Contains(t, classes, "mage")
	assert.NotEmpty(t, resp["advantages"])
	assert.NotEmpty(t, resp["disadvantages"])
}

func TestCreateCharacter(t *testing.T) {
	r := newCharacterRouter(t)
	token := registerUser(t, r, "alice")

	w := postJSON(r, "/api/characters", map[string]interface{}{
		"name":            "Lyra",
		"race":            "elf",
		"character_class": "mage",
		"attribute_points": map[string]int{
			"intelligence": 3,
			"wisdom":       1,
		},
	}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusCreated, w.Code)

	ch := decodeBody(t, w)["character"].(map[string]interface{})
	assert.Equal(t, "Lyra", ch["name"])
	// Elf racial bonuses on top of base 10, plus distributed points.
	assert.EqualValues(t, 14, ch["intelligence"]) // 10 + 1 racial + 3 points
	assert.EqualValues(t, 12, ch["dexterity"])    // 10 + 2 racial
	assert.EqualValues(t, 12, ch["wisdom"])       // 10 + 1 racial + 1 point
	assert.EqualValues(t, 20, ch["max_hp"])       // 10 + CON 10, mages add no HP
	assert.EqualValues(t, 39, ch["max_mp"])       // 10 + INT 14 + mage bonus 15
	assert.EqualValues(t, 100, ch["gold"])
	assert.Equal(t, "Vila Inicial", ch["current_location"])
}

func TestCreateCharacterInvalidRace(t *testing.T) {
	r := newCharacterRouter(t)
	token := registerUser(t, r, "bob")

	w := postJSON(r, "/api/characters", map[string]interface{}{
		"name": "X", "race": "vampire", "character_class": "mage",
	}, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateCharacterMissingFields(t *testing.T) {
	r := newCharacterRouter(t)
	token := registerUser(t, r, "carol")

	w := postJSON(r, "/api/characters", map[string]interface{}{
		"name": "Nameless",
	}, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListCharactersScopedToOwner(t *testing.T) {
	r := newCharacterRouter(t)
	tokenA := registerUser(t, r, "dave")
	tokenB := registerUser(t, r, "erin")

	w := postJSON(r, "/api/characters", map[string]interface{}{
		"name": "Thorin", "race": "dwarf", "character_class": "warrior",
	}, "Authorization", "Bearer "+tokenA)
	require.Equal(t, http.StatusCreated, w.Code)

	wA := getJSON(r, "/api/characters", "Authorization", "Bearer "+tokenA)
	require.Equal(t, http.StatusOK, wA.Code)
	assert.Len(t, decodeBody(t, wA)["characters"], 1)

	wB := getJSON(r, "/api/characters", "Authorization", "Bearer "+tokenB)
	require.Equal(t, http.StatusOK, wB.Code)
	assert.Empty(t, decodeBody(t, wB)["characters"])
}

func TestGetCharacterOfAnotherUser(t *testing.T) {
	r := newCharacterRouter(t)
	tokenA := registerUser(t, r, "frank")
	tokenB := registerUser(t, r, "grace")

	w := postJSON(r, "/api/characters", map[string]interface{}{
		"name": "Pip", "race": "halfling", "character_class": "rogue",
	}, "Authorization", "Bearer "+tokenA)
	require.Equal(t, http.StatusCreated, w.Code)
	ch := decodeBody(t, w)["character"].(map[string]interface{})
	id := int64(ch["id"].(float64))

	w2 := getJSON(r, fmt.Sprintf("/api/characters/%d", id), "Authorization", "Bearer "+tokenB)
	assert.Equal(t, http.StatusNotFound, w2.Code)
}

func TestUpdateCharacter(t *testing.T) {
	r := newCharacterRouter(t)
	token := registerUser(t, r, "henry")

	w := postJSON(r, "/api/characters", map[string]interface{}{
		"name": "Kael", "race": "human", "character_class": "ranger",
	}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusCreated, w.Code)
	ch := decodeBody(t, w)["character"].(map[string]interface{})
	id := int64(ch["id"].(float64))

	w2 := doJSON(r, http.MethodPut, fmt.Sprintf("/api/characters/%d", id), map[string]interface{}{
		"notes":            "rastreador experiente",
		"current_location": "Floresta Sombria",
	}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w2.Code)
	updated := decodeBody(t, w2)["character"].(map[string]interface{})
	assert.Equal(t, "rastreador experiente", updated["notes"])
	assert.Equal(t, "Floresta Sombria", updated["current_location"])
	// Untouched fields survive a partial update.
	assert.Equal(t, "Kael", updated["name"])
}

func TestDeleteCharacter(t *testing.T) {
	r := newCharacterRouter(t)
	token := registerUser(t, r, "iris")

	w := postJSON(r, "/api/characters", map[string]interface{}{
		"name": "Brim", "race": "orc", "character_class": "warrior",
	}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusCreated, w.Code)
	ch := decodeBody(t, w)["character"].(map[string]interface{})
	id := int64(ch["id"].(float64))

	w2 := doJSON(r, http.MethodDelete, fmt.Sprintf("/api/characters/%d", id), nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w2.Code)

	w3 := getJSON(r, fmt.Sprintf("/api/characters/%d", id), "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusNotFound, w3.Code)
}

func TestCharacterBadID(t *testing.T) {
	r := newCharacterRouter(t)
	token := registerUser(t, r, "jack")

	w := getJSON(r, "/api/characters/abc", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
