package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mlezi/darasa/core/school"
)

type announcementRow struct {
	ID        string      `db:"id"`
	Title     string      `db:"title"`
	Content   string      `db:"content"`
	Scope     string      `db:"scope"`
	ClassID   null.String `db:"class_id"`
	AuthorID  null.String `db:"author_id"`
	CreatedAt null.Time   `db:"created_at"`
}

func (r announcementRow) toDomain() school.Announcement {
	return school.Announcement{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Scope:     r.Scope,
		ClassID:   r.ClassID.String,
		AuthorID:  r.AuthorID.String,
		CreatedAt: r.CreatedAt.Time,
	}
}

type announcementRepository struct {
	db *sqlx.DB
}

var _ school.AnnouncementRepository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *sqlx.DB) *announcementRepository {
	return &announcementRepository{db: db}
}

func (repo announcementRepository) CreateAnnouncement(ctx context.Context, ann school.Announcement) (school.Announcement, error) {
	ann.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO announcement (id, title, content, scope, class_id, author_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ann.ID, ann.Title, ann.Content, ann.Scope,
		null.NewString(ann.ClassID, ann.ClassID != ""),
		null.NewString(ann.AuthorID, ann.AuthorID != ""),
		ann.CreatedAt)
	if err != nil {
		return school.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return ann, nil
}

func (repo announcementRepository) GetAnnouncement(ctx context.Context, id string) (school.Announcement, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.Announcement{}, school.ErrAnnouncementNotFound
	}
	var row announcementRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM announcement WHERE id = $1`, id); err != nil {
		return school.Announcement{}, trapNoRowsErr(err, school.ErrAnnouncementNotFound, "finding announcement")
	}
	return row.toDomain(), nil
}

func (repo announcementRepository) QueryAnnouncements(ctx context.Context, filter school.AnnouncementFilter) ([]school.Announcement, error) {
	q := `SELECT * FROM announcement`
	var args []interface{}

	switch {
	case filter.GlobalOnly:
		q += ` WHERE scope = 'global'`
	case len(filter.ClassIDs) > 0:
		q += ` WHERE scope = 'global' OR class_id IN (?)`
		args = append(args, filter.ClassIDs)
	}
	q += ` ORDER BY created_at DESC`

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "expanding IN clause")
	}
	var rows []announcementRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}

	anns := make([]school.Announcement, 0, len(rows))
	for _, row := range rows {
		anns = append(anns, row.toDomain())
	}
	return anns, nil
}

func (repo announcementRepository) UpdateAnnouncement(ctx context.Context, ann school.Announcement) (school.Announcement, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE announcement SET title = $1, content = $2 WHERE id = $3`,
		ann.Title, ann.Content, ann.ID)
	if err != nil {
		return school.Announcement{}, errors.Wrap(err, "updating announcement")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return school.Announcement{}, school.ErrAnnouncementNotFound
	}
	return ann, nil
}

func (repo announcementRepository) DeleteAnnouncementsByID(ctx context.Context, ids []string) (int, error) {
	cnt, err := deleteByID(ctx, repo.db, `DELETE FROM announcement WHERE id IN (?)`, ids)
	return cnt, errors.Wrap(err, "deleting announcements")
}
