// Package session implements the onboarding session state machine: the
// session store, preference accumulation, the question flow and the node
// graph navigator.
package session

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rcliao/learning-beast/internal/model"
	"github.com/rcliao/learning-beast/internal/security"
)

const (
	DefaultTTL    = 90 * time.Minute
	DefaultShards = 32
)

// StoreOptions configures a Store. Zero values fall back to defaults.
type StoreOptions struct {
	TTL    time.Duration
	Shards int
	Now    func() time.Time
	NewID  func() (string, error)
}

// Store holds live sessions in memory. Membership is sharded by id and each
// session has its own lock, so operations on one session are serialized
// while different sessions never wait on each other.
type Store struct {
	ttl    time.Duration
	now    func() time.Time
	newID  func() (string, error)
	shards []*shard
}

type shard struct {
	mu      sync.RWMutex
	records map[string]*record
}

type record struct {
	expiresAt time.Time

	mu   sync.Mutex
	sess model.Session
}

// NewStore creates an empty Store.
func NewStore(opts StoreOptions) *Store {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Shards <= 0 {
		opts.Shards = DefaultShards
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = security.NewSessionToken
	}

	s := &Store{
		ttl:    opts.TTL,
		now:    opts.Now,
		newID:  opts.NewID,
		shards: make([]*shard, opts.Shards),
	}
	for i := range s.shards {
		s.shards[i] = &shard{records: map[string]*record{}}
	}
	return s
}

func (s *Store) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Create starts a new session with a zeroed preference vector and returns a
// snapshot of it.
func (s *Store) Create(displayName string) (model.Session, error) {
	return s.CreateWith(displayName, nil)
}

// CreateWith is Create with init applied to the session before it is
// inserted, so the caller's setup and the insert are one step. init may be nil.
func (s *Store) CreateWith(displayName string, init func(*model.Session)) (model.Session, error) {
	now := s.now().UTC()
	sess := model.Session{
		Profile: model.LearnerProfile{
			DisplayName:    displayName,
			Preferences:    model.NewPreferenceVector(),
			CompletedNodes: []string{},
		},
		AnsweredQuestions: []string{},
		ConversationLog:   []model.Turn{},
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.ttl),
	}

	// Collisions are astronomically unlikely; retry a few times anyway so a
	// fresh session can never overwrite a live one.
	for attempt := 0; attempt < 3; attempt++ {
		id, err := s.newID()
		if err != nil {
			return model.Session{}, fmt.Errorf("generate session id: %w", err)
		}
		sh := s.shardFor(id)
		sh.mu.Lock()
		if _, taken := sh.records[id]; taken {
			sh.mu.Unlock()
			continue
		}
		sess.ID = id
		if init != nil {
			init(&sess)
		}
		sh.records[id] = &record{expiresAt: sess.ExpiresAt, sess: sess}
		sh.mu.Unlock()
		return sess.Clone(), nil
	}
	return model.Session{}, fmt.Errorf("generate session id: too many collisions")
}

func (s *Store) lookup(id string) (*record, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	rec, ok := sh.records[id]
	sh.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session: %w", model.ErrNotFound)
	}
	return rec, nil
}

// Get returns a snapshot of the session. It fails with ErrNotFound when the
// id is unknown and ErrExpired once the session is past its expiry.
func (s *Store) Get(id string) (model.Session, error) {
	var out model.Session
	err := s.Update(id, func(sess *model.Session) error {
		out = sess.Clone()
		return nil
	})
	return out, err
}

// Update runs fn on the live session while holding its lock. fn must
// validate before it mutates: an error from fn is returned as is and the
// session must be left as fn found it.
func (s *Store) Update(id string, fn func(*model.Session) error) error {
	rec, err := s.lookup(id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if s.now().After(rec.expiresAt) {
		return fmt.Errorf("session: %w", model.ErrExpired)
	}
	return fn(&rec.sess)
}

// Sweep removes every session that is past its expiry and returns how many
// were removed. Expiry is fixed at Create, so the per-session lock is not
// needed here.
func (s *Store) Sweep() int {
	now := s.now()
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, rec := range sh.records {
			if now.After(rec.expiresAt) {
				delete(sh.records, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len returns the number of sessions held, expired or not.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.records)
		sh.mu.RUnlock()
	}
	return n
}
