package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rcliao/learning-beast/internal/catalog"
	"github.com/rcliao/learning-beast/internal/model"
	"github.com/rcliao/learning-beast/internal/security"
)

// Engine runs onboarding and learning-path operations against a Store and a
// read-only catalog. All mutations of a session go through Store.Update.
type Engine struct {
	catalog catalog.Provider
	store   *Store
	logger  *zap.Logger
	metrics *Metrics
}

// NewEngine creates an Engine. logger and metrics may be nil.
func NewEngine(p catalog.Provider, store *Store, logger *zap.Logger, metrics *Metrics) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{catalog: p, store: store, logger: logger, metrics: metrics}
}

// ProfileView is the learner profile together with session progress.
type ProfileView struct {
	Profile       model.LearnerProfile `json:"profile"`
	RewardPoints  int                  `json:"reward_points"`
	CurrentNodeID string               `json:"current_node,omitempty"`
}

// NodeAnswerResult is the outcome of answering a node.
type NodeAnswerResult struct {
	Node            model.LearningNode `json:"node"`
	SanitizedAnswer string             `json:"sanitized_answer"`
	NextNodeID      string             `json:"next_node_id,omitempty"`
}

// StartSession creates a session and returns its id with the first
// onboarding question, or nil when the catalog has no questions.
func (e *Engine) StartSession(displayName string) (string, *model.Question, error) {
	name, err := security.SanitizeDisplayName(displayName)
	if err != nil {
		return "", nil, e.fail("start", err)
	}
	questions := e.catalog.Questions()
	// With no questions the session is complete from the start, so the
	// first node is chosen before the session becomes visible.
	sess, err := e.store.CreateWith(name, func(s *model.Session) {
		if len(questions) == 0 {
			s.CurrentNodeID, _ = chooseFirstNode(s.Profile.Preferences, e.catalog.Nodes())
		}
	})
	if err != nil {
		return "", nil, e.fail("start", err)
	}
	e.metrics.sessionStarted()
	e.logger.Debug("session started", zap.String("session", shortID(sess.ID)))

	return sess.ID, e.questionAt(sess.QuestionIndex), nil
}

// AnswerQuestion sanitizes rawAnswer, records it and returns the answered
// question with the next one (nil once onboarding is complete).
func (e *Engine) AnswerQuestion(sessionID, questionID, rawAnswer string) (model.Question, *model.Question, error) {
	answer, err := security.SanitizeFreeText(rawAnswer)
	if err != nil {
		return model.Question{}, nil, e.fail("answer_question", err)
	}
	return e.submitAnswer(sessionID, questionID, answer)
}

// AnswerNode sanitizes rawAnswer, turns confidence into a reward
// multiplier and completes the node.
func (e *Engine) AnswerNode(sessionID, nodeID, rawAnswer string, confidence *float64) (*NodeAnswerResult, error) {
	answer, err := security.SanitizeFreeText(rawAnswer)
	if err != nil {
		return nil, e.fail("answer_node", err)
	}
	multiplier, err := security.RewardMultiplier(confidence)
	if err != nil {
		return nil, e.fail("answer_node", err)
	}
	node, next, err := e.submitNodeAnswer(sessionID, nodeID, multiplier)
	if err != nil {
		return nil, err
	}
	return &NodeAnswerResult{Node: node, SanitizedAnswer: answer, NextNodeID: next}, nil
}

// Profile returns a snapshot of the learner profile.
func (e *Engine) Profile(sessionID string) (model.LearnerProfile, error) {
	sess, err := e.store.Get(sessionID)
	if err != nil {
		return model.LearnerProfile{}, e.fail("profile", err)
	}
	return sess.Profile, nil
}

// GetProfile returns the profile with reward points and current node, all
// read from the same snapshot.
func (e *Engine) GetProfile(sessionID string) (*ProfileView, error) {
	sess, err := e.store.Get(sessionID)
	if err != nil {
		return nil, e.fail("profile", err)
	}
	return &ProfileView{
		Profile:       sess.Profile,
		RewardPoints:  sess.RewardPoints,
		CurrentNodeID: sess.CurrentNodeID,
	}, nil
}

func (e *Engine) fail(op string, err error) error {
	kind := model.KindOf(err)
	e.metrics.operationFailed(op, kind)
	if kind == "internal" {
		e.logger.Error("operation failed", zap.String("op", op), zap.Error(err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// shortID keeps session tokens out of logs.
func shortID(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[:6] + "…"
}
