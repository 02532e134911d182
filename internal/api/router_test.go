package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rcliao/learning-beast/internal/catalog"
	"github.com/rcliao/learning-beast/internal/model"
	"github.com/rcliao/learning-beast/internal/session"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testServer struct {
	t      *testing.T
	clock  *testClock
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cat, err := catalog.New(
		[]model.Question{
			{ID: "q1", Prompt: "Make something?", Category: "creativity", Weights: map[string]float64{"creativity": 1}},
			{ID: "q2", Prompt: "Solve something?", Category: "analysis", Weights: map[string]float64{"analysis": 0.5}},
		},
		[]model.LearningNode{
			{ID: "n-logic", Title: "Logic", Category: "analysis", RewardOnCompletion: 5, NextNodes: []string{"n-art"}},
			{ID: "n-art", Title: "Art", Category: "creativity", RewardOnCompletion: 10, NextNodes: []string{"ghost", "n-logic"}},
		},
	)
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := session.NewStore(session.StoreOptions{TTL: 90 * time.Minute, Shards: 2, Now: clock.Now})
	reg := prometheus.NewRegistry()
	metrics := session.NewMetrics(reg, store)
	engine := session.NewEngine(cat, store, zap.NewNop(), metrics)

	return &testServer{
		t:     t,
		clock: clock,
		router: NewRouter(engine, zap.NewNop(), Options{
			AllowedOrigins:     []string{"http://localhost:5173"},
			StartRatePerMinute: 0,
			Gatherer:           reg,
		}),
	}
}

func (s *testServer) do(method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) start(name string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/session/start?display_name="+name, "", nil)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[startResponse](s.t, rec)
	require.Len(s.t, resp.SessionID, 32)
	return resp.SessionID
}

func TestOnboardingThroughHTTP(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/session/start?display_name=Ada", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	started := decode[startResponse](t, rec)
	require.NotNil(t, started.Question)
	assert.Equal(t, "q1", started.Question.ID)
	id := started.SessionID

	rec = s.do(http.MethodPost, "/session/"+id+"/question/q1", `{"answer":"I paint <b>"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	answered := decode[answerQuestionResponse](t, rec)
	assert.Equal(t, "q1", answered.Answered.ID)
	require.NotNil(t, answered.NextQuestion)
	assert.Equal(t, "q2", answered.NextQuestion.ID)

	rec = s.do(http.MethodPost, "/session/"+id+"/question/q1", `{"answer":"again"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "already_answered", decode[errorResponse](t, rec).Error)

	rec = s.do(http.MethodPost, "/session/"+id+"/question/q2", `{"answer":"puzzles"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[answerQuestionResponse](t, rec).NextQuestion)

	rec = s.do(http.MethodGet, "/session/"+id+"/question", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, OnboardingCompleteMessage, decode[messageResponse](t, rec).Message)

	rec = s.do(http.MethodGet, "/profile/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[session.ProfileView](t, rec)
	assert.Equal(t, "Ada", view.Profile.DisplayName)
	assert.Equal(t, 1.0, view.Profile.Preferences["creativity"])
	assert.Equal(t, 0.5, view.Profile.Preferences["analysis"])
	assert.Equal(t, "n-art", view.CurrentNodeID)
}

func TestNodeRoutes(t *testing.T) {
	s := newTestServer(t)
	id := s.start("")
	hdr := map[string]string{SessionHeader: id}

	rec := s.do(http.MethodGet, "/node/n-art", "", hdr)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Art", decode[model.LearningNode](t, rec).Title)

	rec = s.do(http.MethodPost, "/node/n-art/answer", `{"answer":"done","confidence":1}`, hdr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[session.NodeAnswerResult](t, rec)
	assert.Equal(t, "done", res.SanitizedAnswer)
	assert.Equal(t, "n-logic", res.NextNodeID)

	// Default confidence 0.7 on 5 points floors to 3.
	rec = s.do(http.MethodPost, "/node/n-logic/answer", `{"answer":"ok"}`, hdr)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/profile/"+id, "", nil)
	view := decode[session.ProfileView](t, rec)
	assert.Equal(t, 13, view.RewardPoints)
	assert.Equal(t, []string{"n-art", "n-logic"}, view.Profile.CompletedNodes)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	id := s.start("")
	hdr := map[string]string{SessionHeader: id}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		header map[string]string
		status int
		kind   string
	}{
		{"unknown session", http.MethodGet, "/session/nope/question", "", nil, http.StatusNotFound, "not_found"},
		{"unknown question", http.MethodPost, "/session/" + id + "/question/q9", `{"answer":"x"}`, nil, http.StatusNotFound, "not_found"},
		{"unknown node", http.MethodGet, "/node/ghost", "", hdr, http.StatusNotFound, "not_found"},
		{"missing header", http.MethodGet, "/node/n-art", "", nil, http.StatusUnauthorized, "missing_session"},
		{"missing header on answer", http.MethodPost, "/node/n-art/answer", `{"answer":"x"}`, nil, http.StatusUnauthorized, "missing_session"},
		{"confidence too high", http.MethodPost, "/node/n-art/answer", `{"answer":"x","confidence":2}`, hdr, http.StatusBadRequest, "invalid_input"},
		{"malformed body", http.MethodPost, "/session/" + id + "/question/q1", `{"answer":`, nil, http.StatusBadRequest, "invalid_input"},
		{"missing answer", http.MethodPost, "/session/" + id + "/question/q1", `{}`, nil, http.StatusBadRequest, "invalid_input"},
		{"missing node answer", http.MethodPost, "/node/n-art/answer", `{"confidence":0.9}`, hdr, http.StatusBadRequest, "invalid_input"},
		{"empty body", http.MethodPost, "/session/" + id + "/question/q1", "", nil, http.StatusBadRequest, "invalid_input"},
		{"display name too long", http.MethodPost, "/session/start?display_name=" + strings.Repeat("a", 81), "", nil, http.StatusBadRequest, "invalid_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, tt.body, tt.header)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[errorResponse](t, rec)
			assert.Equal(t, tt.kind, resp.Error)
			assert.Equal(t, tt.status, resp.Code)
		})
	}
}

func TestAnswerBodiesIgnoreUnknownFields(t *testing.T) {
	s := newTestServer(t)
	id := s.start("")

	rec := s.do(http.MethodPost, "/session/"+id+"/question/q1", `{"answer":"","mood":"sunny"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "q1", decode[answerQuestionResponse](t, rec).Answered.ID)

	rec = s.do(http.MethodPost, "/node/n-art/answer", `{"answer":"done","extra":[1,2]}`, map[string]string{SessionHeader: id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestExpiredSessionIsUnauthorized(t *testing.T) {
	s := newTestServer(t)
	id := s.start("")
	s.clock.Advance(90*time.Minute + time.Second)

	for _, path := range []string{"/session/" + id + "/question", "/profile/" + id} {
		rec := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "expired", decode[errorResponse](t, rec).Error)
	}
	rec := s.do(http.MethodGet, "/node/n-art", "", map[string]string{SessionHeader: id})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	s.start("")

	rec := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "learning_sessions_started_total 1")
	assert.Contains(t, rec.Body.String(), "learning_sessions_active 1")
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodOptions, "/session/start", "", map[string]string{
		"Origin":                        "http://localhost:5173",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = s.do(http.MethodOptions, "/session/start", "", map[string]string{
		"Origin":                        "http://evil.example",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStartRateLimit(t *testing.T) {
	s := newTestServer(t)
	cat, err := catalog.New(nil, nil)
	require.NoError(t, err)
	store := session.NewStore(session.StoreOptions{})
	s.router = NewRouter(session.NewEngine(cat, store, nil, nil), nil, Options{StartRatePerMinute: 2})

	for i := 0; i < 2; i++ {
		rec := s.do(http.MethodPost, "/session/start", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := s.do(http.MethodPost, "/session/start", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Other routes are not limited.
	rec = s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
