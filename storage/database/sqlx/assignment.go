package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mlezi/darasa/core/school"
)

type assignmentRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	ClassID     string      `db:"class_id"`
	AuthorID    null.String `db:"author_id"`
	DueAt       null.Time   `db:"due_at"`
	CreatedAt   null.Time   `db:"created_at"`
	UpdatedAt   null.Time   `db:"updated_at"`
}

func (r assignmentRow) toDomain() school.Assignment {
	return school.Assignment{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		ClassID:     r.ClassID,
		AuthorID:    r.AuthorID.String,
		DueAt:       r.DueAt.Time,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

type submissionRow struct {
	ID           string      `db:"id"`
	AssignmentID string      `db:"assignment_id"`
	StudentID    string      `db:"student_id"`
	Body         null.String `db:"body"`
	FileURL      null.String `db:"file_url"`
	CreatedAt    null.Time   `db:"created_at"`
}

func (r submissionRow) toDomain() school.Submission {
	return school.Submission{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		StudentID:    r.StudentID,
		Text:         r.Body.String,
		FileURL:      r.FileURL.String,
		CreatedAt:    r.CreatedAt.Time,
	}
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ school.AssignmentRepository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, asg school.Assignment) (school.Assignment, error) {
	asg.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO assignment (id, title, description, class_id, author_id, due_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		asg.ID, asg.Title, asg.Description, asg.ClassID,
		null.NewString(asg.AuthorID, asg.AuthorID != ""),
		asg.DueAt, asg.CreatedAt, asg.UpdatedAt)
	if err != nil {
		return school.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return asg, nil
}

func (repo assignmentRepository) GetAssignment(ctx context.Context, id string) (school.Assignment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.Assignment{}, school.ErrAssignmentNotFound
	}
	var row assignmentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM assignment WHERE id = $1`, id); err != nil {
		return school.Assignment{}, trapNoRowsErr(err, school.ErrAssignmentNotFound, "finding assignment")
	}
	return row.toDomain(), nil
}

func (repo assignmentRepository) QueryAssignments(ctx context.Context, filter school.AssignmentFilter) ([]school.Assignment, error) {
	q := `SELECT * FROM assignment`
	var conds []string
	var args []interface{}

	if len(filter.ClassIDs) > 0 {
		conds = append(conds, `class_id IN (?)`)
		args = append(args, filter.ClassIDs)
	}
	if filter.AuthorID != "" {
		conds = append(conds, `author_id = ?`)
		args = append(args, filter.AuthorID)
	}
	for i, cond := range conds {
		if i == 0 {
			q += ` WHERE ` + cond
		} else {
			q += ` AND ` + cond
		}
	}
	q += ` ORDER BY due_at`

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "expanding IN clause")
	}
	var rows []assignmentRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}

	asgs := make([]school.Assignment, 0, len(rows))
	for _, row := range rows {
		asgs = append(asgs, row.toDomain())
	}
	return asgs, nil
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, asg school.Assignment) (school.Assignment, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE assignment SET title = $1, description = $2, due_at = $3, updated_at = $4
		WHERE id = $5`,
		asg.Title, asg.Description, asg.DueAt, asg.UpdatedAt, asg.ID)
	if err != nil {
		return school.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return school.Assignment{}, school.ErrAssignmentNotFound
	}
	return asg, nil
}

func (repo assignmentRepository) DeleteAssignmentsByID(ctx context.Context, ids []string) (int, error) {
	cnt, err := deleteByID(ctx, repo.db, `DELETE FROM assignment WHERE id IN (?)`, ids)
	return cnt, errors.Wrap(err, "deleting assignments")
}

// UpsertSubmission replaces any prior submission by the same student on the
// same assignment (last write wins). The conflict path keeps the existing
// row's id, so it is read back instead of trusting the candidate one.
func (repo assignmentRepository) UpsertSubmission(ctx context.Context, sub school.Submission) (school.Submission, error) {
	err := repo.db.GetContext(ctx, &sub.ID, `
		INSERT INTO submission (id, assignment_id, student_id, body, file_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (assignment_id, student_id)
		DO UPDATE SET body = EXCLUDED.body, file_url = EXCLUDED.file_url, created_at = EXCLUDED.created_at
		RETURNING id`,
		uuid.New().String(), sub.AssignmentID, sub.StudentID,
		null.NewString(sub.Text, sub.Text != ""),
		null.NewString(sub.FileURL, sub.FileURL != ""),
		sub.CreatedAt)
	if err != nil {
		return school.Submission{}, errors.Wrap(err, "upserting submission")
	}
	return sub, nil
}

func (repo assignmentRepository) QuerySubmissions(ctx context.Context, assignmentID string) ([]school.Submission, error) {
	var rows []submissionRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM submission WHERE assignment_id = $1 ORDER BY created_at`, assignmentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]school.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.toDomain())
	}
	return subs, nil
}
