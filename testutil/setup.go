// Package testutil provides shared test fixtures: an in-memory database,
// local cache and pub/sub, and a scripted AI client.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/GustavoPerpetuo2002/rpg-backend/ai"
	"github.com/GustavoPerpetuo2002/rpg-backend/cache"
	"github.com/GustavoPerpetuo2002/rpg-backend/config"
	dbadapter "github.com/GustavoPerpetuo2002/rpg-backend/db"
	"github.com/GustavoPerpetuo2002/rpg-backend/model"
)

// SetupTestDB creates an in-memory sqlite DB and runs AutoMigrate.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode:       dbadapter.ModeSQLite,
		SQLitePath: ":memory:",
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	return db
}

// SetupTestCache creates LocalCache and LocalPubSub (no Redis required).
func SetupTestCache(t *testing.T) (cache.Cache, cache.PubSub) {
	t.Helper()
	cfg := config.CacheConfig{} // empty RedisAddr → local implementations
	c, err := cache.NewCache(cfg)
	require.NoError(t, err, "SetupTestCache: NewCache")
	ps, err := cache.NewPubSub(cfg)
	require.NoError(t, err, "SetupTestCache: NewPubSub")
	return c, ps
}

// Logger returns a no-op logger for tests.
func Logger() *zap.Logger {
	return zap.NewNop()
}

// StubAI is an ai.Client returning scripted responses. When the script
// runs out it keeps returning the last response; with no script it
// returns a fixed placeholder. A non-nil Err takes precedence.
type StubAI struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Requests  []ai.Request
	next      int
}

// Generate records the request and returns the next scripted response.
func (s *StubAI) Generate(_ context.Context, req ai.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, req)
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.Responses) == 0 {
		return "narrated scene", nil
	}
	resp := s.Responses[s.next]
	if s.next < len(s.Responses)-1 {
		s.next++
	}
	return resp, nil
}

// Close implements ai.Client.
func (s *StubAI) Close() error { return nil }

// Calls reports how many Generate calls were made.
func (s *StubAI) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}
