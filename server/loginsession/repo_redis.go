package loginsession

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jrsteele09/go-matchmaking-backoffice/internal/errors"
	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "backoffice:session:"

// RedisLoginSessionRepo keeps sessions in Redis so tokens survive restarts
// and are shared between replicas. Keys expire with the session.
type RedisLoginSessionRepo struct {
	client *redis.Client
	now    func() time.Time
}

var _ Repo = (*RedisLoginSessionRepo)(nil)

func NewRedisLoginSessionRepo(client *redis.Client) *RedisLoginSessionRepo {
	return &RedisLoginSessionRepo{client: client, now: time.Now}
}

// NewRedisClient parses a redis:// URL and checks the server answers
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "NewRedisClient ParseURL")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, pkgerrors.Wrap(err, "NewRedisClient Ping")
	}
	return client, nil
}

func (r *RedisLoginSessionRepo) Upsert(ctx context.Context, sessionID string, session Session) error {
	if sessionID == "" {
		return pkgerrors.New("sessionID is required")
	}

	var ttl time.Duration
	if !session.ExpiresAt.IsZero() {
		ttl = session.ExpiresAt.Sub(r.now())
		if ttl <= 0 {
			return r.Delete(ctx, sessionID)
		}
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(err, "RedisLoginSessionRepo.Upsert Marshal")
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+sessionID, payload, ttl).Err(); err != nil {
		return pkgerrors.Wrap(err, "RedisLoginSessionRepo.Upsert Set")
	}
	return nil
}

func (r *RedisLoginSessionRepo) Get(ctx context.Context, sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, pkgerrors.New("sessionID is required")
	}

	payload, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, errors.ErrSlotEmpty
	}
	if err != nil {
		return Session{}, pkgerrors.Wrap(err, "RedisLoginSessionRepo.Get")
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return Session{}, pkgerrors.Wrap(err, "RedisLoginSessionRepo.Get Unmarshal")
	}
	if session.Expired(r.now()) {
		return Session{}, errors.ErrSlotEmpty
	}
	return session, nil
}

func (r *RedisLoginSessionRepo) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New("sessionID is required")
	}
	if err := r.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return pkgerrors.Wrap(err, "RedisLoginSessionRepo.Delete")
	}
	return nil
}
