package store

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const seriesColumns = `id, title, description, cover_image, youtube_playlist_id,
dailymotion_playlist_id, views, rating_sum, rating_count, status, created_at, updated_at`

const episodeColumns = `id, series_id, title, season, episode_number, youtube_video_id, dailymotion_video_id`

// PostgresCatalogStore is the production Postgres-backed implementation.
type PostgresCatalogStore struct {
	db        *pgxpool.Pool
	adminCode string
}

func NewPostgresCatalogStore(db *pgxpool.Pool, adminCode string) *PostgresCatalogStore {
	return &PostgresCatalogStore{db: db, adminCode: adminCode}
}

func (s *PostgresCatalogStore) ListSeries(ctx context.Context, limit, offset int) ([]Series, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.Query(ctx, `
SELECT `+seriesColumns+`
FROM series ORDER BY updated_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Series
	for rows.Next() {
		var sr Series
		if err := scanSeries(rows, &sr); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

func (s *PostgresCatalogStore) GetSeries(ctx context.Context, id string) (Series, error) {
	sid, err := uuid.Parse(id)
	if err != nil {
		return Series{}, ErrSeriesNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT `+seriesColumns+` FROM series WHERE id=$1`, sid)
	var sr Series
	if err := scanSeries(row, &sr); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Series{}, ErrSeriesNotFound
		}
		return Series{}, err
	}
	return sr, nil
}

func (s *PostgresCatalogStore) ListEpisodes(ctx context.Context, seriesID string) ([]Episode, error) {
	sid, err := uuid.Parse(seriesID)
	if err != nil {
		return nil, ErrSeriesNotFound
	}
	rows, err := s.db.Query(ctx, `
SELECT `+episodeColumns+`
FROM episodes WHERE series_id=$1 ORDER BY season ASC, episode_number ASC`, sid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Episode
	for rows.Next() {
		var ep Episode
		if err := rows.Scan(&ep.ID, &ep.SeriesID, &ep.Title, &ep.Season, &ep.Number,
			&ep.YouTubeVideoID, &ep.DailymotionVideoID); err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

func (s *PostgresCatalogStore) IncrementView(ctx context.Context, seriesID string) error {
	sid, err := uuid.Parse(seriesID)
	if err != nil {
		return ErrSeriesNotFound
	}
	tag, err := s.db.Exec(ctx, `UPDATE series SET views = views + 1 WHERE id=$1`, sid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSeriesNotFound
	}
	return nil
}

func (s *PostgresCatalogStore) RateSeries(ctx context.Context, seriesID string, score int) (Series, error) {
	if score < 1 || score > 10 {
		return Series{}, ErrInvalidScore
	}
	sid, err := uuid.Parse(seriesID)
	if err != nil {
		return Series{}, ErrSeriesNotFound
	}
	row := s.db.QueryRow(ctx, `
UPDATE series SET rating_sum = rating_sum + $2, rating_count = rating_count + 1
WHERE id=$1
RETURNING `+seriesColumns, sid, score)
	var sr Series
	if err := scanSeries(row, &sr); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Series{}, ErrSeriesNotFound
		}
		return Series{}, err
	}
	return sr, nil
}

func (s *PostgresCatalogStore) UpdateStatus(ctx context.Context, adminCode, seriesID, status string) error {
	if subtle.ConstantTimeCompare([]byte(adminCode), []byte(s.adminCode)) != 1 {
		return ErrBadAdminCode
	}
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}
	sid, err := uuid.Parse(seriesID)
	if err != nil {
		return ErrSeriesNotFound
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE series SET status=$2, updated_at=now() WHERE id=$1`, sid, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSeriesNotFound
	}
	return nil
}

func scanSeries(row pgx.Row, sr *Series) error {
	return row.Scan(&sr.ID, &sr.Title, &sr.Description, &sr.CoverImage,
		&sr.YouTubePlaylistID, &sr.DailymotionPlaylistID,
		&sr.Views, &sr.RatingSum, &sr.RatingCount, &sr.Status,
		&sr.CreatedAt, &sr.UpdatedAt)
}
