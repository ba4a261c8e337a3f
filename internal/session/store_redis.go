package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"veil/pkg/domain"
	"veil/pkg/platform/sentinel"
)

const (
	sessionKeyPrefix      = "veil:session:"
	companySessionsPrefix = "veil:company-sessions:"
	expiryIndexKey        = "veil:sessions:expiry"
	minimumKeyTTL         = time.Second
)

// RedisStore keeps sessions as JSON values whose key TTL matches the session
// expiry. A sorted set scored by expiry lets the reaper find sessions whose
// keys Redis has already evicted, and a per-company set indexes live ids.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

type RedisOption func(*RedisStore)

// WithRedisClock replaces time.Now when computing key TTLs.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) { s.now = now }
}

func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// redisSession is the stored shape; it carries the real user id that
// Session keeps unexported.
type redisSession struct {
	Session
	RealUserID string `json:"real_user_id,omitempty"`
}

func sessionKey(id domain.SessionID) string { return sessionKeyPrefix + id.String() }

func companyKey(id domain.CompanyID) string { return companySessionsPrefix + id.String() }

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	payload, err := json.Marshal(redisSession{Session: *sess, RealUserID: sess.realUserID})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl < minimumKeyTTL {
		ttl = minimumKeyTTL
	}
	id := sess.ID.String()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sess.ID), payload, ttl)
		pipe.ZAdd(ctx, expiryIndexKey, redis.Z{Score: float64(sess.ExpiresAt.Unix()), Member: id})
		pipe.SAdd(ctx, companyKey(sess.CompanyID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id domain.SessionID) (*Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var stored redisSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	sess := stored.Session
	sess.realUserID = stored.RealUserID
	return &sess, nil
}

// Delete removes the session and its index entries. A session whose key has
// already expired is still removed from the indexes.
func (s *RedisStore) Delete(ctx context.Context, id domain.SessionID) error {
	var companyID domain.CompanyID
	if sess, err := s.Get(ctx, id); err == nil {
		companyID = sess.CompanyID
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}

	var del, zrem *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, sessionKey(id))
		zrem = pipe.ZRem(ctx, expiryIndexKey, id.String())
		if !companyID.IsNil() {
			pipe.SRem(ctx, companyKey(companyID), id.String())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if del.Val() == 0 && zrem.Val() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *RedisStore) ListExpired(ctx context.Context, now time.Time) ([]domain.SessionID, error) {
	// Score is whole seconds; a session expiring within the current second is
	// not yet past its expiry instant and is left for the next sweep.
	members, err := s.client.ZRangeByScore(ctx, expiryIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list expired sessions: %w", err)
	}
	ids := make([]domain.SessionID, 0, len(members))
	for _, m := range members {
		u, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		ids = append(ids, domain.SessionID(u))
	}
	return ids, nil
}

// CompanySessions lists the live session ids of a company.
func (s *RedisStore) CompanySessions(ctx context.Context, companyID domain.CompanyID) ([]string, error) {
	ids, err := s.client.SMembers(ctx, companyKey(companyID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list company sessions: %w", err)
	}
	return ids, nil
}
