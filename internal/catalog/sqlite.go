package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/learning-beast/internal/model"
)

// SQLiteStore keeps a catalog in a SQLite database. The database is written
// only by Import; the engine reads it once through Load.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite catalog database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS imports (
		id          TEXT PRIMARY KEY,
		source      TEXT NOT NULL,
		questions   INTEGER NOT NULL,
		nodes       INTEGER NOT NULL,
		created_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS questions (
		id             TEXT PRIMARY KEY,
		seq            INTEGER NOT NULL,
		prompt         TEXT NOT NULL,
		follow_up      TEXT NOT NULL DEFAULT '',
		category       TEXT NOT NULL DEFAULT '',
		weights        TEXT,
		sample_answers TEXT,
		import_id      TEXT NOT NULL REFERENCES imports(id)
	);
	CREATE INDEX IF NOT EXISTS idx_questions_seq ON questions(seq);

	CREATE TABLE IF NOT EXISTS nodes (
		id                   TEXT PRIMARY KEY,
		seq                  INTEGER NOT NULL,
		title                TEXT NOT NULL,
		summary              TEXT NOT NULL DEFAULT '',
		category             TEXT NOT NULL DEFAULT '',
		activity_type        TEXT NOT NULL DEFAULT '',
		content              TEXT NOT NULL DEFAULT '',
		estimated_minutes    INTEGER NOT NULL DEFAULT 0,
		reward_on_completion INTEGER NOT NULL DEFAULT 0,
		import_id            TEXT NOT NULL REFERENCES imports(id)
	);
	CREATE INDEX IF NOT EXISTS idx_nodes_seq ON nodes(seq);
	CREATE INDEX IF NOT EXISTS idx_nodes_category ON nodes(category);

	CREATE TABLE IF NOT EXISTS node_edges (
		from_id  TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		pos      INTEGER NOT NULL,
		to_id    TEXT NOT NULL,
		PRIMARY KEY (from_id, pos)
	);
	CREATE INDEX IF NOT EXISTS idx_edges_to ON node_edges(to_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ImportResult describes one catalog import.
type ImportResult struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Questions int    `json:"questions"`
	Nodes     int    `json:"nodes"`
	CreatedAt string `json:"created_at"`
}

// Import validates the catalog and replaces the stored one in a single
// transaction. source is recorded for auditing (usually the fixture dir).
func (s *SQLiteStore) Import(ctx context.Context, source string, questions []model.Question, nodes []model.LearningNode) (*ImportResult, error) {
	if _, err := New(questions, nodes); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	id := s.newID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM node_edges`, `DELETE FROM nodes`, `DELETE FROM questions`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("clear catalog: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO imports (id, source, questions, nodes, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, source, len(questions), len(nodes), now)
	if err != nil {
		return nil, fmt.Errorf("insert import: %w", err)
	}

	for i, q := range questions {
		weights, err := json.Marshal(q.Weights)
		if err != nil {
			return nil, fmt.Errorf("encode weights for %q: %w", q.ID, err)
		}
		samples, err := json.Marshal(q.SampleAnswers)
		if err != nil {
			return nil, fmt.Errorf("encode sample answers for %q: %w", q.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO questions (id, seq, prompt, follow_up, category, weights, sample_answers, import_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			q.ID, i, q.Prompt, q.FollowUp, q.Category, string(weights), string(samples), id)
		if err != nil {
			return nil, fmt.Errorf("insert question %q: %w", q.ID, err)
		}
	}

	for i, n := range nodes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO nodes (id, seq, title, summary, category, activity_type, content,
			                    estimated_minutes, reward_on_completion, import_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			n.ID, i, n.Title, n.Summary, n.Category, n.ActivityType, n.Content,
			n.EstimatedMinutes, n.RewardOnCompletion, id)
		if err != nil {
			return nil, fmt.Errorf("insert node %q: %w", n.ID, err)
		}
	}

	// Edges go in after every node exists; to_id is not a foreign key so
	// dangling successors survive the round trip.
	for _, n := range nodes {
		for pos, to := range n.NextNodes {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO node_edges (from_id, pos, to_id) VALUES (?, ?, ?)`,
				n.ID, pos, to)
			if err != nil {
				return nil, fmt.Errorf("insert edge %s->%s: %w", n.ID, to, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &ImportResult{
		ID:        id,
		Source:    source,
		Questions: len(questions),
		Nodes:     len(nodes),
		CreatedAt: now,
	}, nil
}

// Load reads the stored catalog back into memory.
func (s *SQLiteStore) Load(ctx context.Context) (*Catalog, error) {
	questions, err := s.loadQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	nodes, err := s.loadNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}
	if len(questions) == 0 && len(nodes) == 0 {
		return nil, fmt.Errorf("catalog database is empty; run import first")
	}
	return New(questions, nodes)
}

func (s *SQLiteStore) loadQuestions(ctx context.Context) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, prompt, follow_up, category, weights, sample_answers
		 FROM questions ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *SQLiteStore) loadNodes(ctx context.Context) ([]model.LearningNode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, summary, category, activity_type, content, estimated_minutes, reward_on_completion
		 FROM nodes ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []model.LearningNode
	for rows.Next() {
		var n model.LearningNode
		if err := rows.Scan(&n.ID, &n.Title, &n.Summary, &n.Category, &n.ActivityType,
			&n.Content, &n.EstimatedMinutes, &n.RewardOnCompletion); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	edges, err := s.loadEdges(ctx)
	if err != nil {
		return nil, err
	}
	for i := range nodes {
		nodes[i].NextNodes = edges[nodes[i].ID]
	}
	return nodes, nil
}

func (s *SQLiteStore) loadEdges(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT from_id, to_id FROM node_edges ORDER BY from_id, pos`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	edges := map[string][]string{}
	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return nil, err
		}
		edges[from] = append(edges[from], to)
	}
	return edges, rows.Err()
}

// LastImport returns the most recent import, or nil if none.
func (s *SQLiteStore) LastImport(ctx context.Context) (*ImportResult, error) {
	var r ImportResult
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, questions, nodes, created_at FROM imports
		 ORDER BY rowid DESC LIMIT 1`).
		Scan(&r.ID, &r.Source, &r.Questions, &r.Nodes, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row scanner) (model.Question, error) {
	var q model.Question
	var weights, samples sql.NullString

	if err := row.Scan(&q.ID, &q.Prompt, &q.FollowUp, &q.Category, &weights, &samples); err != nil {
		return q, err
	}
	if weights.Valid {
		if err := json.Unmarshal([]byte(weights.String), &q.Weights); err != nil {
			return q, fmt.Errorf("decode weights for %q: %w", q.ID, err)
		}
	}
	if samples.Valid {
		if err := json.Unmarshal([]byte(samples.String), &q.SampleAnswers); err != nil {
			return q, fmt.Errorf("decode sample answers for %q: %w", q.ID, err)
		}
	}
	return q, nil
}
