package session

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/rcliao/learning-beast/internal/catalog"
	"github.com/rcliao/learning-beast/internal/model"
)

// chooseFirstNode picks the starting node from a preference vector. Keys are
// ranked by score with ties broken by model.KeyLess; for each key in turn the
// first node of that category in catalog order wins. If no category matches,
// the first node in catalog order is used. ok is false for an empty catalog.
func chooseFirstNode(prefs map[string]float64, nodes []model.LearningNode) (string, bool) {
	if len(nodes) == 0 {
		return "", false
	}
	for _, rp := range model.RankPreferences(prefs) {
		for _, n := range nodes {
			if n.Category == rp.Key {
				return n.ID, true
			}
		}
	}
	return nodes[0].ID, true
}

// nextNode follows node's successor list and returns the first id that
// resolves in the catalog. Dangling ids are skipped.
func nextNode(node model.LearningNode, p catalog.Provider) (string, bool) {
	for _, id := range node.NextNodes {
		if _, ok := p.Node(id); ok {
			return id, true
		}
	}
	return "", false
}

// GetNode returns nodeID and makes it the session's current node. This is
// direct addressing: the node need not be connected to the current one.
func (e *Engine) GetNode(sessionID, nodeID string) (model.LearningNode, error) {
	var node model.LearningNode
	err := e.store.Update(sessionID, func(s *model.Session) error {
		n, ok := e.catalog.Node(nodeID)
		if !ok {
			return fmt.Errorf("node %q: %w", nodeID, model.ErrNotFound)
		}
		s.CurrentNodeID = n.ID
		node = n
		return nil
	})
	if err != nil {
		return model.LearningNode{}, e.fail("get_node", err)
	}
	return node, nil
}

// SubmitNodeAnswer completes nodeID and moves the session along the graph.
// Rewards are granted once per node: floor(reward * multiplier) on the first
// completion, nothing afterwards.
func (e *Engine) SubmitNodeAnswer(sessionID, nodeID string, multiplier float64) (model.LearningNode, error) {
	node, _, err := e.submitNodeAnswer(sessionID, nodeID, multiplier)
	return node, err
}

func (e *Engine) submitNodeAnswer(sessionID, nodeID string, multiplier float64) (model.LearningNode, string, error) {
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier < 0 {
		return model.LearningNode{}, "", e.fail("answer_node",
			fmt.Errorf("reward multiplier %v: %w", multiplier, model.ErrInvalidInput))
	}

	var (
		node   model.LearningNode
		next   string
		earned int
		first  bool
	)
	err := e.store.Update(sessionID, func(s *model.Session) error {
		n, ok := e.catalog.Node(nodeID)
		if !ok {
			return fmt.Errorf("node %q: %w", nodeID, model.ErrNotFound)
		}
		if !s.Profile.HasCompleted(n.ID) {
			first = true
			earned = int(math.Floor(float64(n.RewardOnCompletion) * multiplier))
			s.Profile.CompletedNodes = append(s.Profile.CompletedNodes, n.ID)
			s.RewardPoints += earned
		}
		next, _ = nextNode(n, e.catalog)
		s.CurrentNodeID = next
		node = n
		return nil
	})
	if err != nil {
		return model.LearningNode{}, "", e.fail("answer_node", err)
	}

	if first {
		e.metrics.nodeCompleted(earned)
		e.logger.Debug("node completed",
			zap.String("session", shortID(sessionID)),
			zap.String("node", node.ID),
			zap.Int("reward", earned),
			zap.String("next", next))
	}
	return node, next, nil
}
