package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryCommentStore is a development-only in-memory implementation.
// Series and episode existence checks run against a registry seeded by the
// caller, standing in for the foreign keys Postgres enforces.
type InMemoryCommentStore struct {
	mu       sync.RWMutex
	comments map[string]Comment
	likes    map[string]map[string]struct{} // comment_id -> user_identifier set
	series   map[string]map[string]struct{} // series_id -> episode id set
}

func NewInMemoryCommentStore() *InMemoryCommentStore {
	return &InMemoryCommentStore{
		comments: make(map[string]Comment),
		likes:    make(map[string]map[string]struct{}),
		series:   make(map[string]map[string]struct{}),
	}
}

// RegisterSeries marks a series id as existing.
func (s *InMemoryCommentStore) RegisterSeries(seriesID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.series[seriesID] == nil {
		s.series[seriesID] = make(map[string]struct{})
	}
}

// RegisterEpisode marks an episode id as belonging to a series.
func (s *InMemoryCommentStore) RegisterEpisode(seriesID, episodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.series[seriesID] == nil {
		s.series[seriesID] = make(map[string]struct{})
	}
	s.series[seriesID][episodeID] = struct{}{}
}

func (s *InMemoryCommentStore) Create(_ context.Context, in CreateCommentInput) (Comment, error) {
	in, err := in.normalize()
	if err != nil {
		return Comment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	episodes, ok := s.series[in.SeriesID]
	if !ok {
		return Comment{}, ErrSeriesNotFound
	}
	if in.EpisodeID != nil {
		if _, ok := episodes[*in.EpisodeID]; !ok {
			return Comment{}, ErrEpisodeNotFound
		}
	}
	if in.ParentID != nil {
		parent, ok := s.comments[*in.ParentID]
		if !ok || parent.SeriesID != in.SeriesID {
			return Comment{}, ErrParentNotFound
		}
		if parent.ParentID != nil {
			return Comment{}, ErrParentNotTopLevel
		}
	}

	now := time.Now().UTC()
	c := Comment{
		ID:          uuid.NewString(),
		SeriesID:    in.SeriesID,
		EpisodeID:   in.EpisodeID,
		ParentID:    in.ParentID,
		Content:     in.Content,
		AuthorName:  in.AuthorName,
		AuthorEmail: emailOrNil(in.AuthorEmail),
		LikesCount:  0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.comments[c.ID] = c
	return c, nil
}

func (s *InMemoryCommentStore) ToggleLike(_ context.Context, commentID, userIdentifier string) (ToggleResult, error) {
	userIdentifier = trimIdentifier(userIdentifier)
	if userIdentifier == "" {
		return ToggleResult{}, ErrEmptyUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok {
		return ToggleResult{}, ErrCommentNotFound
	}
	if s.likes[commentID] == nil {
		s.likes[commentID] = make(map[string]struct{})
	}

	var res ToggleResult
	if _, liked := s.likes[commentID][userIdentifier]; liked {
		delete(s.likes[commentID], userIdentifier)
		if c.LikesCount > 0 {
			c.LikesCount--
		}
		res = ToggleResult{Action: ActionUnliked, LikesCount: c.LikesCount, UserLiked: false, SeriesID: c.SeriesID}
	} else {
		s.likes[commentID][userIdentifier] = struct{}{}
		c.LikesCount++
		res = ToggleResult{Action: ActionLiked, LikesCount: c.LikesCount, UserLiked: true, SeriesID: c.SeriesID}
	}
	s.comments[commentID] = c
	return res, nil
}

func (s *InMemoryCommentStore) ListWithStats(_ context.Context, q ListQuery) ([]CommentWithStats, error) {
	q = clampPage(q)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var roots []Comment
	for _, c := range s.comments {
		if c.SeriesID != q.SeriesID || c.ParentID != nil {
			continue
		}
		if q.EpisodeID != nil && (c.EpisodeID == nil || *c.EpisodeID != *q.EpisodeID) {
			continue
		}
		roots = append(roots, c)
	}
	sort.Slice(roots, func(i, j int) bool {
		if !roots[i].CreatedAt.Equal(roots[j].CreatedAt) {
			return roots[i].CreatedAt.After(roots[j].CreatedAt)
		}
		return roots[i].ID > roots[j].ID
	})

	if q.Offset >= len(roots) {
		return []CommentWithStats{}, nil
	}
	roots = roots[q.Offset:]
	if len(roots) > q.Limit {
		roots = roots[:q.Limit]
	}

	out := make([]CommentWithStats, len(roots))
	for i, root := range roots {
		count := 0
		for _, c := range s.comments {
			if c.ParentID != nil && *c.ParentID == root.ID {
				count++
			}
		}
		out[i] = CommentWithStats{Comment: root, ReplyCount: count}
	}
	return out, nil
}

func (s *InMemoryCommentStore) ListReplies(_ context.Context, parentID string) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Comment{}
	for _, c := range s.comments {
		if c.ParentID != nil && *c.ParentID == parentID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
