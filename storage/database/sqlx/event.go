package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mlezi/darasa/core/school"
)

type eventRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	Date        null.Time   `db:"date"`
	AuthorID    null.String `db:"author_id"`
	CreatedAt   null.Time   `db:"created_at"`
}

func (r eventRow) toDomain() school.Event {
	return school.Event{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Date:        r.Date.Time,
		AuthorID:    r.AuthorID.String,
		CreatedAt:   r.CreatedAt.Time,
	}
}

type eventRepository struct {
	db *sqlx.DB
}

var _ school.EventRepository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *sqlx.DB) *eventRepository {
	return &eventRepository{db: db}
}

func (repo eventRepository) CreateEvent(ctx context.Context, evt school.Event) (school.Event, error) {
	evt.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO event (id, title, description, date, author_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		evt.ID, evt.Title, evt.Description, evt.Date,
		null.NewString(evt.AuthorID, evt.AuthorID != ""),
		evt.CreatedAt)
	if err != nil {
		return school.Event{}, errors.Wrap(err, "inserting event")
	}
	return evt, nil
}

func (repo eventRepository) GetEvent(ctx context.Context, id string) (school.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.Event{}, school.ErrEventNotFound
	}
	var row eventRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM event WHERE id = $1`, id); err != nil {
		return school.Event{}, trapNoRowsErr(err, school.ErrEventNotFound, "finding event")
	}
	return row.toDomain(), nil
}

func (repo eventRepository) QueryEvents(ctx context.Context) ([]school.Event, error) {
	var rows []eventRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM event ORDER BY date`); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	events := make([]school.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toDomain())
	}
	return events, nil
}

func (repo eventRepository) UpdateEvent(ctx context.Context, evt school.Event) (school.Event, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE event SET title = $1, description = $2, date = $3 WHERE id = $4`,
		evt.Title, evt.Description, evt.Date, evt.ID)
	if err != nil {
		return school.Event{}, errors.Wrap(err, "updating event")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return school.Event{}, school.ErrEventNotFound
	}
	return evt, nil
}

func (repo eventRepository) DeleteEventsByID(ctx context.Context, ids []string) (int, error) {
	cnt, err := deleteByID(ctx, repo.db, `DELETE FROM event WHERE id IN (?)`, ids)
	return cnt, errors.Wrap(err, "deleting events")
}
