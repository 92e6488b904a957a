// internal/session/store.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "onboarding-engine/internal/common/errors"
)

const keyPrefix = "onboarding:session:"

// Store persists session snapshots in Redis so a restarted engine instance
// can resume in-progress sessions.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{redis: rdb, ttl: ttl}
}

// Save writes the JSON snapshot, refreshing the TTL.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, keyPrefix+sess.ID, data, s.ttl).Err()
}

// Load returns the snapshot for id, or a SESSION_NOT_FOUND error.
func (s *Store) Load(ctx context.Context, id string) (*Session, error) {
	data, err := s.redis.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NewSessionNotFoundError(id)
		}
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	if sess.Answers == nil {
		sess.Answers = make(map[string]Answer)
	}
	return &sess, nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.redis.Del(ctx, keyPrefix+id).Err()
}
