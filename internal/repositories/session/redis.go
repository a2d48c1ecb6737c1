package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/KirkDiggler/gamenight/internal/common/clock"
	"github.com/KirkDiggler/gamenight/internal/common/uuid"
	"github.com/KirkDiggler/gamenight/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// Key prefixes for Redis
	sessionKeyPrefix = "session:"
	sessionIndexKey  = "sessions"
)

// Config holds configuration for the Redis session repository
type Config struct {
	// Redis client
	RedisClient *redis.Client

	// Clock stamps createdAt and updatedAt. Defaults to the system clock.
	Clock clock.Clock

	// UUIDGenerator assigns storage IDs. Defaults to random UUIDs.
	UUIDGenerator uuid.UUID
}

// redisRepository implements the Repository interface using Redis.
// Each session is a JSON document under session:<id>; the sessions set
// indexes every stored ID.
type redisRepository struct {
	client *redis.Client
	clock  clock.Clock
	uuid   uuid.UUID
}

// NewRedis creates a new Redis-backed session repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	// Validate config
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	// Test connection
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	repo := &redisRepository{
		client: cfg.RedisClient,
		clock:  cfg.Clock,
		uuid:   cfg.UUIDGenerator,
	}
	if repo.clock == nil {
		repo.clock = clock.New()
	}
	if repo.uuid == nil {
		repo.uuid = uuid.New()
	}

	return repo, nil
}

func (r *redisRepository) key(id string) string {
	return fmt.Sprintf("%s%s", sessionKeyPrefix, id)
}

// getFunc is satisfied by both the client's and a transaction's Get
type getFunc func(ctx context.Context, key string) *redis.StringCmd

func (r *redisRepository) getRecord(ctx context.Context, get getFunc, id string) (*sessionRecord, error) {
	sessionJSON, err := get(ctx, r.key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var record sessionRecord
	if err := json.Unmarshal([]byte(sessionJSON), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &record, nil
}

// writeRecord queues the document and its index entry on a transaction pipeline
func (r *redisRepository) writeRecord(ctx context.Context, tx *redis.Tx, record *sessionRecord) error {
	sessionJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(record.ID), sessionJSON, 0)
		pipe.SAdd(ctx, sessionIndexKey, record.ID)
		return nil
	})
	return err
}

// watch runs fn in a WATCH/MULTI transaction on key. When another client
// writes key before EXEC, fn runs again against the new value, so the
// caller's find-and-modify lands atomically on top of the concurrent write.
func (r *redisRepository) watch(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	for {
		err := r.client.Watch(ctx, fn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// ListSessions retrieves all sessions from Redis
func (r *redisRepository) ListSessions(ctx context.Context, input *ListSessionsInput) (*ListSessionsOutput, error) {
	ids, err := r.client.SMembers(ctx, sessionIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session IDs: %w", err)
	}

	if len(ids) == 0 {
		return &ListSessionsOutput{
			Sessions: []*models.Session{},
		}, nil
	}

	// Fetch every document in one round trip
	pipe := r.client.Pipeline()
	commands := make(map[string]*redis.StringCmd, len(ids))
	for _, id := range ids {
		commands[id] = pipe.Get(ctx, r.key(id))
	}

	_, err = pipe.Exec(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}

	sessions := make([]*models.Session, 0, len(ids))
	for id, cmd := range commands {
		sessionJSON, err := cmd.Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Deleted between reading the index and fetching the document
				continue
			}
			return nil, fmt.Errorf("failed to get session %s: %w", id, err)
		}

		var record sessionRecord
		if err := json.Unmarshal([]byte(sessionJSON), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session %s: %w", id, err)
		}

		sessions = append(sessions, record.toModel())
	}

	sortSessions(sessions)

	return &ListSessionsOutput{
		Sessions: sessions,
	}, nil
}

// CreateSession persists a new session, failing if the ID is already taken
func (r *redisRepository) CreateSession(ctx context.Context, input *CreateSessionInput) (*models.Session, error) {
	if input == nil || input.Session == nil {
		return nil, errors.New("input and session cannot be nil")
	}

	if err := input.Session.Validate(); err != nil {
		return nil, err
	}

	record := newRecord(input.Session, r.uuid.NewUUID(), r.clock.Now())
	key := r.key(record.ID)

	err := r.watch(ctx, key, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("failed to check session: %w", err)
		}
		if exists > 0 {
			return ErrSessionExists
		}

		return r.writeRecord(ctx, tx, record)
	})
	if err != nil {
		if errors.Is(err, ErrSessionExists) {
			return nil, ErrSessionExists
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return record.toModel(), nil
}

// ReplaceSession applies changes to an existing session or creates it
func (r *redisRepository) ReplaceSession(ctx context.Context, input *ReplaceSessionInput) (*ReplaceSessionOutput, error) {
	if input == nil || input.ID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	key := r.key(input.ID)
	var (
		record  *sessionRecord
		created bool
	)

	err := r.watch(ctx, key, func(tx *redis.Tx) error {
		now := r.clock.Now()

		current, err := r.getRecord(ctx, tx.Get, input.ID)
		switch {
		case errors.Is(err, ErrSessionNotFound):
			created = true
			session := &models.Session{ID: input.ID}
			input.Changes.Apply(session)
			record = newRecord(session, r.uuid.NewUUID(), now)
		case err != nil:
			return err
		default:
			created = false
			session := current.toModel()
			input.Changes.Apply(session)
			record = recordFromModel(session)
			record.Revision++
			record.UpdatedAt = now
		}

		return r.writeRecord(ctx, tx, record)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace session: %w", err)
	}

	return &ReplaceSessionOutput{
		Session: record.toModel(),
		Created: created,
	}, nil
}

// DeleteSession removes a session from Redis
func (r *redisRepository) DeleteSession(ctx context.Context, input *DeleteSessionInput) (*models.Session, error) {
	if input == nil || input.ID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	key := r.key(input.ID)
	var removed *sessionRecord

	err := r.watch(ctx, key, func(tx *redis.Tx) error {
		current, err := r.getRecord(ctx, tx.Get, input.ID)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, sessionIndexKey, input.ID)
			return nil
		})
		if err != nil {
			return err
		}

		removed = current
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to delete session: %w", err)
	}

	return removed.toModel(), nil
}

// GetSession retrieves a session by ID from Redis
func (r *redisRepository) GetSession(ctx context.Context, input *GetSessionInput) (*models.Session, error) {
	if input == nil || input.ID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	record, err := r.getRecord(ctx, r.client.Get, input.ID)
	if err != nil {
		return nil, err
	}

	return record.toModel(), nil
}

// UpdateSession saves the mutable fields of a session if its revision still matches
func (r *redisRepository) UpdateSession(ctx context.Context, input *UpdateSessionInput) (*models.Session, error) {
	if input == nil || input.Session == nil || input.Session.ID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	key := r.key(input.Session.ID)
	var record *sessionRecord

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := r.getRecord(ctx, tx.Get, input.Session.ID)
		if err != nil {
			return err
		}

		if current.Revision != input.Session.Revision {
			return ErrRevisionMismatch
		}

		record = recordFromModel(input.Session)
		record.StorageID = current.StorageID
		record.CreatedAt = current.CreatedAt
		record.Revision = current.Revision + 1
		record.UpdatedAt = r.clock.Now()

		return r.writeRecord(ctx, tx, record)
	}, key)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			return nil, ErrSessionNotFound
		case errors.Is(err, ErrRevisionMismatch), errors.Is(err, redis.TxFailedErr):
			return nil, ErrRevisionMismatch
		default:
			return nil, fmt.Errorf("failed to update session: %w", err)
		}
	}

	return record.toModel(), nil
}
