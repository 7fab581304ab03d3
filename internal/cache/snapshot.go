package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/healthlens/risk-engine/internal/domain"
)

// SnapshotCache stores assessment sessions per user: one "latest" entry
// plus a bounded most-recent-first history list. Entries carry their own
// expiry alongside the Redis TTL so stale payloads are detected even if
// the backend ignores TTLs.
type SnapshotCache struct {
	kv           KVStore
	defaultTTL   time.Duration
	historyLimit int
	log          *logrus.Logger
}

// cachedSession wraps a stored session with cache metadata.
type cachedSession struct {
	Session   *domain.AssessmentSession `json:"session"`
	CachedAt  time.Time                 `json:"cached_at"`
	ExpiresAt time.Time                 `json:"expires_at"`
}

// NewSnapshotCache creates a session cache over a KV backend.
func NewSnapshotCache(kv KVStore, defaultTTL time.Duration, historyLimit int, logger *logrus.Logger) *SnapshotCache {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &SnapshotCache{
		kv:           kv,
		defaultTTL:   defaultTTL,
		historyLimit: historyLimit,
		log:          logger,
	}
}

// SaveSession stores the session as the user's latest entry and prepends
// it to the history list, replacing any history entry in the same hour
// bucket and trimming to the configured limit.
func (c *SnapshotCache) SaveSession(ctx context.Context, session *domain.AssessmentSession) error {
	now := time.Now()
	entry := cachedSession{
		Session:   session,
		CachedAt:  now,
		ExpiresAt: now.Add(c.defaultTTL),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := c.kv.Set(ctx, latestKey(session.UserID), string(data), c.defaultTTL); err != nil {
		return fmt.Errorf("failed to cache latest session: %w", err)
	}

	history, _ := c.History(ctx, session.UserID)
	merged := make([]*domain.AssessmentSession, 0, len(history)+1)
	merged = append(merged, session)
	for _, old := range history {
		if old.Key().Equal(session.Key()) {
			continue // same hour bucket, replaced by the new session
		}
		merged = append(merged, old)
		if len(merged) >= c.historyLimit {
			break
		}
	}

	historyData, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := c.kv.Set(ctx, historyKey(session.UserID), string(historyData), c.defaultTTL); err != nil {
		return fmt.Errorf("failed to cache session history: %w", err)
	}

	return nil
}

// Latest retrieves the user's most recent cached session, or nil on a
// miss. Expired or corrupt entries are dropped and treated as misses.
func (c *SnapshotCache) Latest(ctx context.Context, userID string) (*domain.AssessmentSession, error) {
	key := latestKey(userID)

	val, err := c.kv.Get(ctx, key)
	if err == ErrCacheMiss {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest session: %w", err)
	}

	var entry cachedSession
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		c.log.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Warn("Dropping corrupt cached session")
		c.kv.Del(ctx, key)
		return nil, nil
	}

	if time.Now().After(entry.ExpiresAt) {
		c.kv.Del(ctx, key)
		return nil, nil
	}

	return entry.Session, nil
}

// History retrieves the user's cached session list, newest first.
// Individual entries that fail to parse are dropped and counted, never
// fatal: historical data must not block an assessment.
func (c *SnapshotCache) History(ctx context.Context, userID string) ([]*domain.AssessmentSession, error) {
	val, err := c.kv.Get(ctx, historyKey(userID))
	if err == ErrCacheMiss {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session history: %w", err)
	}

	// Decode entry by entry so one bad element doesn't discard the rest.
	var rawEntries []json.RawMessage
	if err := json.Unmarshal([]byte(val), &rawEntries); err != nil {
		c.log.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Warn("Dropping corrupt session history blob")
		c.kv.Del(ctx, historyKey(userID))
		return nil, nil
	}

	sessions := make([]*domain.AssessmentSession, 0, len(rawEntries))
	dropped := 0
	for _, raw := range rawEntries {
		session := &domain.AssessmentSession{}
		if err := json.Unmarshal(raw, session); err != nil || session.Timestamp.IsZero() {
			dropped++
			continue
		}
		sessions = append(sessions, session)
	}

	if dropped > 0 {
		c.log.WithFields(logrus.Fields{
			"user_id": userID,
			"dropped": dropped,
		}).Warn("Dropped unparseable history entries")
	}

	return sessions, nil
}

// Invalidate removes all cached sessions for a user.
func (c *SnapshotCache) Invalidate(ctx context.Context, userID string) error {
	return c.kv.Del(ctx, latestKey(userID), historyKey(userID))
}

func latestKey(userID string) string {
	return "assessment:latest:" + userID
}

func historyKey(userID string) string {
	return "assessment:history:" + userID
}
