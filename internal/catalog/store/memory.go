package store

import (
	"context"
	"crypto/subtle"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryCatalogStore is a development-only in-memory implementation.
type InMemoryCatalogStore struct {
	mu        sync.RWMutex
	series    map[string]Series
	episodes  map[string][]Episode // series_id -> episodes
	adminCode string
}

func NewInMemoryCatalogStore(adminCode string) *InMemoryCatalogStore {
	return &InMemoryCatalogStore{
		series:    make(map[string]Series),
		episodes:  make(map[string][]Episode),
		adminCode: adminCode,
	}
}

// SeedSeries inserts a series row directly; used by dev mode and tests.
// Editorial creation is out of scope for the service itself.
func (s *InMemoryCatalogStore) SeedSeries(sr Series) Series {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sr.ID == "" {
		sr.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if sr.CreatedAt.IsZero() {
		sr.CreatedAt = now
	}
	if sr.UpdatedAt.IsZero() {
		sr.UpdatedAt = now
	}
	if sr.Status == "" {
		sr.Status = StatusOngoing
	}
	s.series[sr.ID] = sr
	return sr
}

// SeedEpisode inserts an episode row directly; used by dev mode and tests.
func (s *InMemoryCatalogStore) SeedEpisode(ep Episode) Episode {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ep.ID == "" {
		ep.ID = uuid.NewString()
	}
	s.episodes[ep.SeriesID] = append(s.episodes[ep.SeriesID], ep)
	return ep
}

func (s *InMemoryCatalogStore) ListSeries(_ context.Context, limit, offset int) ([]Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	all := make([]Series, 0, len(s.series))
	for _, sr := range s.series {
		all = append(all, sr)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].UpdatedAt.Equal(all[j].UpdatedAt) {
			return all[i].UpdatedAt.After(all[j].UpdatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if offset >= len(all) {
		return []Series{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *InMemoryCatalogStore) GetSeries(_ context.Context, id string) (Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sr, ok := s.series[id]
	if !ok {
		return Series{}, ErrSeriesNotFound
	}
	return sr, nil
}

func (s *InMemoryCatalogStore) ListEpisodes(_ context.Context, seriesID string) ([]Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eps := append([]Episode(nil), s.episodes[seriesID]...)
	sort.Slice(eps, func(i, j int) bool {
		if eps[i].Season != eps[j].Season {
			return eps[i].Season < eps[j].Season
		}
		return eps[i].Number < eps[j].Number
	})
	return eps, nil
}

func (s *InMemoryCatalogStore) IncrementView(_ context.Context, seriesID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sr, ok := s.series[seriesID]
	if !ok {
		return ErrSeriesNotFound
	}
	sr.Views++
	s.series[seriesID] = sr
	return nil
}

func (s *InMemoryCatalogStore) RateSeries(_ context.Context, seriesID string, score int) (Series, error) {
	if score < 1 || score > 10 {
		return Series{}, ErrInvalidScore
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sr, ok := s.series[seriesID]
	if !ok {
		return Series{}, ErrSeriesNotFound
	}
	sr.RatingSum += int64(score)
	sr.RatingCount++
	s.series[seriesID] = sr
	return sr, nil
}

func (s *InMemoryCatalogStore) UpdateStatus(_ context.Context, adminCode, seriesID, status string) error {
	if subtle.ConstantTimeCompare([]byte(adminCode), []byte(s.adminCode)) != 1 {
		return ErrBadAdminCode
	}
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sr, ok := s.series[seriesID]
	if !ok {
		return ErrSeriesNotFound
	}
	sr.Status = status
	sr.UpdatedAt = time.Now().UTC()
	s.series[seriesID] = sr
	return nil
}
