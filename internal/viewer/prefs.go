// Package viewer holds per-viewer preferences: the remembered author
// name/email for comment submissions and the set of comment ids the viewer
// has liked. The liked set exists only for optimistic UI state; the comment
// store never trusts it — the durable idempotency guard is the like table's
// uniqueness constraint.
package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/redis/go-redis/v9"
)

// MaxLikedIDs caps the liked set so a hostile client cannot grow the
// preference blob without bound.
const MaxLikedIDs = 1000

// Preferences is the explicit schema replacing ad-hoc browser-local keys.
type Preferences struct {
	Name            string   `json:"name,omitempty"`
	Email           string   `json:"email,omitempty"`
	LikedCommentIDs []string `json:"liked_comment_ids"`
}

// Sentinel errors
var (
	ErrInvalidEmail = errors.New("email is not a valid address")
	ErrNameTooLong  = errors.New("name exceeds 100 characters")
	ErrTooManyLikes = errors.New("liked set exceeds limit")
)

// Validate normalizes and checks a preference payload.
func (p *Preferences) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)

	if utf8.RuneCountInString(p.Name) > 100 {
		return ErrNameTooLong
	}
	if p.Email != "" {
		addr, err := mail.ParseAddress(p.Email)
		if err != nil || addr.Address != p.Email {
			return ErrInvalidEmail
		}
	}
	if len(p.LikedCommentIDs) > MaxLikedIDs {
		return ErrTooManyLikes
	}
	if p.LikedCommentIDs == nil {
		p.LikedCommentIDs = []string{}
	}
	return nil
}

// PrefStore persists viewer preferences keyed by the client-generated
// opaque viewer identifier.
type PrefStore interface {
	Get(ctx context.Context, viewerID string) (Preferences, error)
	Put(ctx context.Context, viewerID string, p Preferences) error
}

// ── Redis implementation ───────────────────────────────────────────────────

// RedisPrefStore keeps preferences in Redis with a sliding TTL; viewers who
// stop visiting age out naturally.
type RedisPrefStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisPrefStore(url string, ttl time.Duration) (*RedisPrefStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisPrefStore{Client: redis.NewClient(opt), TTL: ttl}, nil
}

func prefKey(viewerID string) string { return "viewer:prefs:" + viewerID }

func (s *RedisPrefStore) Get(ctx context.Context, viewerID string) (Preferences, error) {
	val, err := s.Client.Get(ctx, prefKey(viewerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Preferences{LikedCommentIDs: []string{}}, nil
		}
		return Preferences{}, err
	}
	var p Preferences
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return Preferences{}, err
	}
	// Refresh the TTL on read.
	_ = s.Client.Expire(ctx, prefKey(viewerID), s.TTL).Err()
	return p, nil
}

func (s *RedisPrefStore) Put(ctx context.Context, viewerID string, p Preferences) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, prefKey(viewerID), b, s.TTL).Err()
}

// ── In-memory implementation ───────────────────────────────────────────────

// InMemoryPrefStore is a development-only in-memory implementation.
type InMemoryPrefStore struct {
	mu    sync.RWMutex
	prefs map[string]Preferences
}

func NewInMemoryPrefStore() *InMemoryPrefStore {
	return &InMemoryPrefStore{prefs: make(map[string]Preferences)}
}

func (s *InMemoryPrefStore) Get(_ context.Context, viewerID string) (Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prefs[viewerID]
	if !ok {
		return Preferences{LikedCommentIDs: []string{}}, nil
	}
	return p, nil
}

func (s *InMemoryPrefStore) Put(_ context.Context, viewerID string, p Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[viewerID] = p
	return nil
}
