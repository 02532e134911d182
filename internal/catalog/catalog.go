// Package catalog provides the read-only question and node catalog, loaded
// from JSON/YAML fixtures or from a SQLite catalog database.
package catalog

import (
	"fmt"

	"github.com/rcliao/learning-beast/internal/model"
	"github.com/rcliao/learning-beast/internal/security"
)

// Provider is the read-only view of a catalog used by the session engine.
// Implementations must be immutable after construction; returned values
// must not be modified by callers.
type Provider interface {
	// Questions returns the onboarding questions in serving order.
	Questions() []model.Question

	// Question looks up a question by id anywhere in the catalog.
	Question(id string) (model.Question, bool)

	// Nodes returns all learning nodes in catalog order.
	Nodes() []model.LearningNode

	// Node looks up a node by id.
	Node(id string) (model.LearningNode, bool)
}

// Catalog is the in-memory Provider.
type Catalog struct {
	questions   []model.Question
	questionIdx map[string]int
	nodes       []model.LearningNode
	nodeIdx     map[string]int
}

var _ Provider = (*Catalog)(nil)

// New validates questions and nodes and builds a Catalog. Order is kept as
// given: it is the serving order for questions and the scan order for nodes.
func New(questions []model.Question, nodes []model.LearningNode) (*Catalog, error) {
	c := &Catalog{
		questions:   append([]model.Question{}, questions...),
		questionIdx: make(map[string]int, len(questions)),
		nodes:       append([]model.LearningNode{}, nodes...),
		nodeIdx:     make(map[string]int, len(nodes)),
	}

	for i, q := range c.questions {
		if err := validateStruct(q); err != nil {
			return nil, fmt.Errorf("question %d (%q): %w", i, q.ID, err)
		}
		for k, w := range q.Weights {
			if err := security.CheckWeight(k, w); err != nil {
				return nil, fmt.Errorf("question %q: %w", q.ID, err)
			}
		}
		if _, dup := c.questionIdx[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q: %w", q.ID, model.ErrInvalidInput)
		}
		c.questionIdx[q.ID] = i
	}

	for i, n := range c.nodes {
		if err := validateStruct(n); err != nil {
			return nil, fmt.Errorf("node %d (%q): %w", i, n.ID, err)
		}
		if _, dup := c.nodeIdx[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q: %w", n.ID, model.ErrInvalidInput)
		}
		c.nodeIdx[n.ID] = i
	}

	return c, nil
}

func (c *Catalog) Questions() []model.Question {
	return c.questions
}

func (c *Catalog) Question(id string) (model.Question, bool) {
	i, ok := c.questionIdx[id]
	if !ok {
		return model.Question{}, false
	}
	return c.questions[i], true
}

func (c *Catalog) Nodes() []model.LearningNode {
	return c.nodes
}

func (c *Catalog) Node(id string) (model.LearningNode, bool) {
	i, ok := c.nodeIdx[id]
	if !ok {
		return model.LearningNode{}, false
	}
	return c.nodes[i], true
}
