package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const commentColumns = `id, series_id, episode_id, parent_id, content, author_name,
author_email, likes_count, created_at, updated_at`

// PostgresCommentStore persists comments in Postgres.
type PostgresCommentStore struct {
	pool *pgxpool.Pool
}

// NewPostgresCommentStore creates a store backed by Postgres.
func NewPostgresCommentStore(pool *pgxpool.Pool) *PostgresCommentStore {
	return &PostgresCommentStore{pool: pool}
}

func (s *PostgresCommentStore) Create(ctx context.Context, in CreateCommentInput) (Comment, error) {
	in, err := in.normalize()
	if err != nil {
		return Comment{}, err
	}

	seriesID, err := uuid.Parse(in.SeriesID)
	if err != nil {
		return Comment{}, ErrSeriesNotFound
	}

	var seriesExists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM series WHERE id=$1)`, seriesID).Scan(&seriesExists); err != nil {
		return Comment{}, err
	}
	if !seriesExists {
		return Comment{}, ErrSeriesNotFound
	}

	if in.EpisodeID != nil {
		epID, err := uuid.Parse(*in.EpisodeID)
		if err != nil {
			return Comment{}, ErrEpisodeNotFound
		}
		var ok bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM episodes WHERE id=$1 AND series_id=$2)`,
			epID, seriesID).Scan(&ok); err != nil {
			return Comment{}, err
		}
		if !ok {
			return Comment{}, ErrEpisodeNotFound
		}
	}

	if in.ParentID != nil {
		pid, err := uuid.Parse(*in.ParentID)
		if err != nil {
			return Comment{}, ErrParentNotFound
		}
		var parentSeries string
		var parentParent *string
		err = s.pool.QueryRow(ctx,
			`SELECT series_id, parent_id FROM comments WHERE id=$1`, pid).
			Scan(&parentSeries, &parentParent)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Comment{}, ErrParentNotFound
			}
			return Comment{}, err
		}
		if parentSeries != in.SeriesID {
			return Comment{}, ErrParentNotFound
		}
		if parentParent != nil {
			return Comment{}, ErrParentNotTopLevel
		}
	}

	row := s.pool.QueryRow(ctx, `
INSERT INTO comments (series_id, episode_id, parent_id, content, author_name, author_email)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+commentColumns,
		seriesID, in.EpisodeID, in.ParentID, in.Content, in.AuthorName, emailOrNil(in.AuthorEmail))

	var out Comment
	if err := scanComment(row, &out); err != nil {
		return Comment{}, err
	}
	return out, nil
}

func (s *PostgresCommentStore) ToggleLike(ctx context.Context, commentID, userIdentifier string) (ToggleResult, error) {
	userIdentifier = trimIdentifier(userIdentifier)
	if userIdentifier == "" {
		return ToggleResult{}, ErrEmptyUserID
	}
	cid, err := uuid.Parse(commentID)
	if err != nil {
		return ToggleResult{}, ErrCommentNotFound
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ToggleResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var res ToggleResult
	if err := tx.QueryRow(ctx,
		`SELECT series_id FROM comments WHERE id=$1`, cid).Scan(&res.SeriesID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ToggleResult{}, ErrCommentNotFound
		}
		return ToggleResult{}, err
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM comment_likes WHERE comment_id=$1 AND user_identifier=$2`,
		cid, userIdentifier)
	if err != nil {
		return ToggleResult{}, err
	}

	if tag.RowsAffected() > 0 {
		res.Action = ActionUnliked
		res.UserLiked = false
		err = tx.QueryRow(ctx,
			`UPDATE comments SET likes_count = GREATEST(likes_count - 1, 0) WHERE id=$1 RETURNING likes_count`,
			cid).Scan(&res.LikesCount)
	} else {
		// The unique constraint on (comment_id, user_identifier) makes a
		// duplicate like from a racing toggle a no-op.
		ins, insErr := tx.Exec(ctx, `
INSERT INTO comment_likes (comment_id, user_identifier) VALUES ($1, $2)
ON CONFLICT (comment_id, user_identifier) DO NOTHING`,
			cid, userIdentifier)
		if insErr != nil {
			return ToggleResult{}, insErr
		}
		res.Action = ActionLiked
		res.UserLiked = true
		if ins.RowsAffected() > 0 {
			err = tx.QueryRow(ctx,
				`UPDATE comments SET likes_count = likes_count + 1 WHERE id=$1 RETURNING likes_count`,
				cid).Scan(&res.LikesCount)
		} else {
			err = tx.QueryRow(ctx,
				`SELECT likes_count FROM comments WHERE id=$1`, cid).Scan(&res.LikesCount)
		}
	}
	if err != nil {
		return ToggleResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return ToggleResult{}, err
	}
	return res, nil
}

func (s *PostgresCommentStore) ListWithStats(ctx context.Context, q ListQuery) ([]CommentWithStats, error) {
	q = clampPage(q)

	seriesID, err := uuid.Parse(q.SeriesID)
	if err != nil {
		return []CommentWithStats{}, nil
	}

	var episodeID *uuid.UUID
	if q.EpisodeID != nil {
		epID, err := uuid.Parse(*q.EpisodeID)
		if err != nil {
			return []CommentWithStats{}, nil
		}
		episodeID = &epID
	}

	rows, err := s.pool.Query(ctx, `
SELECT c.id, c.series_id, c.episode_id, c.parent_id, c.content, c.author_name,
       c.author_email, c.likes_count, c.created_at, c.updated_at,
       (SELECT count(*) FROM comments r WHERE r.parent_id = c.id) AS reply_count
FROM comments c
WHERE c.series_id = $1
  AND c.parent_id IS NULL
  AND ($2::uuid IS NULL OR c.episode_id = $2::uuid)
ORDER BY c.created_at DESC, c.id DESC
LIMIT $3 OFFSET $4`,
		seriesID, episodeID, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CommentWithStats{}
	for rows.Next() {
		var cs CommentWithStats
		if err := rows.Scan(&cs.ID, &cs.SeriesID, &cs.EpisodeID, &cs.ParentID,
			&cs.Content, &cs.AuthorName, &cs.AuthorEmail, &cs.LikesCount,
			&cs.CreatedAt, &cs.UpdatedAt, &cs.ReplyCount); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (s *PostgresCommentStore) ListReplies(ctx context.Context, parentID string) ([]Comment, error) {
	pid, err := uuid.Parse(parentID)
	if err != nil {
		return []Comment{}, nil
	}
	rows, err := s.pool.Query(ctx, `
SELECT `+commentColumns+`
FROM comments WHERE parent_id=$1 ORDER BY created_at ASC, id ASC`, pid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		var c Comment
		if err := scanComment(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanComment(row pgx.Row, c *Comment) error {
	return row.Scan(&c.ID, &c.SeriesID, &c.EpisodeID, &c.ParentID,
		&c.Content, &c.AuthorName, &c.AuthorEmail, &c.LikesCount,
		&c.CreatedAt, &c.UpdatedAt)
}
