package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rcliao/learning-beast/internal/catalog"
	"github.com/rcliao/learning-beast/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// steppingClock moves forward by step every time it is read.
type steppingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// peek reads the live record without going through expiry checks.
func peek(t *testing.T, store *Store, id string) model.Session {
	t.Helper()
	rec, err := store.lookup(id)
	require.NoError(t, err)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.sess.Clone()
}

func newTestCatalog(t *testing.T, questions []model.Question, nodes []model.LearningNode) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(questions, nodes)
	require.NoError(t, err)
	return c
}

// creativityQuestions returns n questions that each weigh creativity 1.0.
func creativityQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:       string(rune('a'+i)) + "-question",
			Prompt:   "prompt",
			Category: "creativity",
			Weights:  map[string]float64{"creativity": 1.0},
		}
	}
	return qs
}

func testNodes() []model.LearningNode {
	return []model.LearningNode{
		{ID: "A", Title: "a", Category: "analysis", RewardOnCompletion: 10, NextNodes: []string{"ghost", "B"}},
		{ID: "B", Title: "b", Category: "wellbeing", RewardOnCompletion: 4, NextNodes: []string{"C"}},
		{ID: "C", Title: "c", Category: "creativity", RewardOnCompletion: 7},
		{ID: "D", Title: "d", Category: "creativity", RewardOnCompletion: 1, NextNodes: []string{"ghost"}},
	}
}

type testEnv struct {
	clock  *fakeClock
	store  *Store
	engine *Engine
}

func newTestEnv(t *testing.T, questions []model.Question, nodes []model.LearningNode) *testEnv {
	t.Helper()
	clock := newFakeClock()
	store := NewStore(StoreOptions{TTL: 90 * time.Minute, Shards: 4, Now: clock.Now})
	eng := NewEngine(newTestCatalog(t, questions, nodes), store, zap.NewNop(), nil)
	return &testEnv{clock: clock, store: store, engine: eng}
}

func (env *testEnv) start(t *testing.T) string {
	t.Helper()
	id, _, err := env.engine.StartSession("")
	require.NoError(t, err)
	return id
}

func (env *testEnv) answerAll(t *testing.T, id string) {
	t.Helper()
	for _, q := range env.engine.catalog.Questions() {
		_, err := env.engine.SubmitAnswer(id, q.ID, "ok")
		require.NoError(t, err)
	}
}
