package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/learning-beast/internal/model"
)

func TestStoreCreate(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(StoreOptions{TTL: 30 * time.Minute, Now: clock.Now})

	sess, err := s.Create("Ada")
	require.NoError(t, err)
	assert.Len(t, sess.ID, 32)
	assert.Equal(t, "Ada", sess.Profile.DisplayName)
	assert.Equal(t, model.NewPreferenceVector(), sess.Profile.Preferences)
	assert.Equal(t, clock.Now(), sess.CreatedAt)
	assert.Equal(t, clock.Now().Add(30*time.Minute), sess.ExpiresAt)
	assert.Zero(t, sess.QuestionIndex)
	assert.Zero(t, sess.RewardPoints)
	assert.Empty(t, sess.CurrentNodeID)
	assert.Equal(t, 1, s.Len())
}

func TestStoreCreateRetriesCollision(t *testing.T) {
	ids := []string{"same", "same", "other"}
	s := NewStore(StoreOptions{NewID: func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}})

	first, err := s.Create("")
	require.NoError(t, err)
	second, err := s.Create("")
	require.NoError(t, err)
	assert.Equal(t, "same", first.ID)
	assert.Equal(t, "other", second.ID)
}

func TestStoreCreateIDError(t *testing.T) {
	s := NewStore(StoreOptions{NewID: func() (string, error) { return "", errors.New("no entropy") }})
	_, err := s.Create("")
	assert.ErrorContains(t, err, "no entropy")
	assert.Zero(t, s.Len())
}

func TestStoreGetNotFound(t *testing.T) {
	s := NewStore(StoreOptions{})
	_, err := s.Get("missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStoreExpiry(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(StoreOptions{TTL: time.Minute, Now: clock.Now})
	sess, err := s.Create("")
	require.NoError(t, err)

	// Usable up to and including the expiry instant.
	clock.Advance(time.Minute)
	_, err = s.Get(sess.ID)
	require.NoError(t, err)

	clock.Advance(time.Nanosecond)
	_, err = s.Get(sess.ID)
	assert.ErrorIs(t, err, model.ErrExpired)

	called := false
	err = s.Update(sess.ID, func(*model.Session) error { called = true; return nil })
	assert.ErrorIs(t, err, model.ErrExpired)
	assert.False(t, called)
}

func TestStoreGetReturnsSnapshot(t *testing.T) {
	s := NewStore(StoreOptions{})
	sess, err := s.Create("")
	require.NoError(t, err)

	snap, err := s.Get(sess.ID)
	require.NoError(t, err)
	snap.Profile.Preferences["creativity"] = 42
	snap.RewardPoints = 99

	again, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Zero(t, again.Profile.Preferences["creativity"])
	assert.Zero(t, again.RewardPoints)
}

func TestStoreSweep(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(StoreOptions{TTL: time.Minute, Now: clock.Now})

	old, err := s.Create("")
	require.NoError(t, err)
	clock.Advance(45 * time.Second)
	fresh, err := s.Create("")
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())

	_, err = s.Get(old.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestStoreUpdateSerializesPerSession(t *testing.T) {
	s := NewStore(StoreOptions{Shards: 2})
	sess, err := s.Create("")
	require.NoError(t, err)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Update(sess.ID, func(s *model.Session) error {
				s.RewardPoints++
				s.Profile.Preferences["analysis"] += 1
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, got.RewardPoints)
	assert.Equal(t, float64(workers), got.Profile.Preferences["analysis"])
}
