package catalog

import (
	"context"
	"os"
	"sort"

	"github.com/rcliao/learning-beast/internal/model"
)

// Stats holds catalog statistics.
type Stats struct {
	Questions   int             `json:"questions"`
	Nodes       int             `json:"nodes"`
	Categories  []CategoryStats `json:"categories"`
	Dangling    []Edge          `json:"dangling_edges,omitempty"`
	Unreachable []string        `json:"unreachable_nodes,omitempty"`
	// Unmatched lists node categories that are neither a known preference
	// key nor weighted by any question. Such nodes are only ever picked as
	// the fallback first node or opened directly.
	Unmatched   []string      `json:"unmatched_categories,omitempty"`
	DBPath      string        `json:"db_path,omitempty"`
	DBSizeBytes int64         `json:"db_size_bytes,omitempty"`
	LastImport  *ImportResult `json:"last_import,omitempty"`
}

// CategoryStats holds per-category counts.
type CategoryStats struct {
	Category  string `json:"category"`
	Questions int    `json:"questions"`
	Nodes     int    `json:"nodes"`
}

// Edge is a successor reference from one node to another.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Summarize computes statistics for any Provider. A node is unreachable
// when no other node lists it as a successor; such nodes can still be the
// first node or be opened directly.
func Summarize(p Provider) *Stats {
	st := &Stats{
		Questions: len(p.Questions()),
		Nodes:     len(p.Nodes()),
	}

	byCat := map[string]*CategoryStats{}
	cat := func(name string) *CategoryStats {
		c, ok := byCat[name]
		if !ok {
			c = &CategoryStats{Category: name}
			byCat[name] = c
		}
		return c
	}
	weighted := map[string]bool{}
	for _, q := range p.Questions() {
		cat(q.Category).Questions++
		for k := range q.Weights {
			weighted[k] = true
		}
	}

	referenced := map[string]bool{}
	for _, n := range p.Nodes() {
		cat(n.Category).Nodes++
		for _, to := range n.NextNodes {
			if _, ok := p.Node(to); !ok {
				st.Dangling = append(st.Dangling, Edge{From: n.ID, To: to})
				continue
			}
			if to != n.ID {
				referenced[to] = true
			}
		}
	}
	for _, n := range p.Nodes() {
		if !referenced[n.ID] {
			st.Unreachable = append(st.Unreachable, n.ID)
		}
	}

	for _, c := range byCat {
		st.Categories = append(st.Categories, *c)
		if c.Nodes > 0 && c.Category != "" && !model.IsKnownPreference(c.Category) && !weighted[c.Category] {
			st.Unmatched = append(st.Unmatched, c.Category)
		}
	}
	sort.Strings(st.Unmatched)
	sort.Slice(st.Categories, func(i, j int) bool {
		return st.Categories[i].Category < st.Categories[j].Category
	})
	return st
}

// Stats returns catalog statistics plus database details.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	c, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	st := Summarize(c)
	st.DBPath = dbPath

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	st.LastImport, err = s.LastImport(ctx)
	if err != nil {
		return st, err
	}
	return st, nil
}
