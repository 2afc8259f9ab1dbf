package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mlezi/darasa/core/school"
)

type mediaRow struct {
	ID        string      `db:"id"`
	Title     string      `db:"title"`
	URL       string      `db:"url"`
	Kind      string      `db:"kind"`
	Date      null.Time   `db:"date"`
	AuthorID  null.String `db:"author_id"`
	CreatedAt null.Time   `db:"created_at"`
}

func (r mediaRow) toDomain() school.MediaItem {
	return school.MediaItem{
		ID:        r.ID,
		Title:     r.Title,
		URL:       r.URL,
		Kind:      r.Kind,
		Date:      r.Date.Time,
		AuthorID:  r.AuthorID.String,
		CreatedAt: r.CreatedAt.Time,
	}
}

type mediaRepository struct {
	db *sqlx.DB
}

var _ school.MediaRepository = (*mediaRepository)(nil) // interface compliance check

func NewMediaRepository(db *sqlx.DB) *mediaRepository {
	return &mediaRepository{db: db}
}

func (repo mediaRepository) CreateMediaItem(ctx context.Context, item school.MediaItem) (school.MediaItem, error) {
	item.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO media (id, title, url, kind, date, author_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		item.ID, item.Title, item.URL, item.Kind, item.Date,
		null.NewString(item.AuthorID, item.AuthorID != ""),
		item.CreatedAt)
	if err != nil {
		return school.MediaItem{}, errors.Wrap(err, "inserting media item")
	}
	return item, nil
}

func (repo mediaRepository) GetMediaItem(ctx context.Context, id string) (school.MediaItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.MediaItem{}, school.ErrMediaNotFound
	}
	var row mediaRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM media WHERE id = $1`, id); err != nil {
		return school.MediaItem{}, trapNoRowsErr(err, school.ErrMediaNotFound, "finding media item")
	}
	return row.toDomain(), nil
}

func (repo mediaRepository) QueryMediaItems(ctx context.Context) ([]school.MediaItem, error) {
	var rows []mediaRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM media ORDER BY date DESC`); err != nil {
		return nil, errors.Wrap(err, "querying media items")
	}
	items := make([]school.MediaItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return items, nil
}

func (repo mediaRepository) DeleteMediaItemsByID(ctx context.Context, ids []string) (int, error) {
	cnt, err := deleteByID(ctx, repo.db, `DELETE FROM media WHERE id IN (?)`, ids)
	return cnt, errors.Wrap(err, "deleting media items")
}
