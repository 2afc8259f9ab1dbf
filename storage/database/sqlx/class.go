package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mlezi/darasa/core/school"
	"github.com/mlezi/darasa/core/user"
)

type classRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt null.Time `db:"created_at"`
	UpdatedAt null.Time `db:"updated_at"`
}

func (r classRow) toDomain() school.Class {
	return school.Class{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
}

type classRepository struct {
	db *sqlx.DB
}

var _ school.ClassRepository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *sqlx.DB) *classRepository {
	return &classRepository{db: db}
}

func (repo classRepository) CreateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	cls.ID = uuid.New().String()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO class_group (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`, cls.ID, cls.Name, cls.CreatedAt, cls.UpdatedAt)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "inserting class")
	}
	if err = setMembers(ctx, tx, cls); err != nil {
		return school.Class{}, err
	}
	if err = tx.Commit(); err != nil {
		return school.Class{}, errors.Wrap(err, "committing tx")
	}
	return cls, nil
}

func (repo classRepository) GetClass(ctx context.Context, id string) (school.Class, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.Class{}, school.ErrClassNotFound
	}
	var row classRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM class_group WHERE id = $1`, id); err != nil {
		return school.Class{}, trapNoRowsErr(err, school.ErrClassNotFound, "finding class")
	}
	cls := row.toDomain()
	if err := repo.loadMembers(ctx, &cls); err != nil {
		return school.Class{}, err
	}
	return cls, nil
}

func (repo classRepository) QueryClasses(ctx context.Context, filter school.ClassFilter) ([]school.Class, error) {
	q := `SELECT * FROM class_group`
	var args []interface{}
	if filter.MemberID != "" {
		q = `SELECT cg.* FROM class_group cg
			JOIN class_member cm ON cm.class_id = cg.id
			WHERE cm.user_id = $1`
		args = append(args, filter.MemberID)
	}
	q += ` ORDER BY name`

	var rows []classRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}

	classes := make([]school.Class, 0, len(rows))
	for _, row := range rows {
		cls := row.toDomain()
		if err := repo.loadMembers(ctx, &cls); err != nil {
			return nil, err
		}
		classes = append(classes, cls)
	}
	return classes, nil
}

func (repo classRepository) UpdateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE class_group SET name = $1, updated_at = $2 WHERE id = $3`,
		cls.Name, cls.UpdatedAt, cls.ID)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "updating class")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return school.Class{}, school.ErrClassNotFound
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM class_member WHERE class_id = $1`, cls.ID); err != nil {
		return school.Class{}, errors.Wrap(err, "clearing class members")
	}
	if err = setMembers(ctx, tx, cls); err != nil {
		return school.Class{}, err
	}
	if err = tx.Commit(); err != nil {
		return school.Class{}, errors.Wrap(err, "committing tx")
	}
	return cls, nil
}

// DeleteClassesByID removes classes and their membership rows. Announcements
// and assignments referencing the class are left untouched.
func (repo classRepository) DeleteClassesByID(ctx context.Context, ids []string) (int, error) {
	cnt, err := deleteByID(ctx, repo.db, `DELETE FROM class_group WHERE id IN (?)`, ids)
	return cnt, errors.Wrap(err, "deleting classes")
}

func setMembers(ctx context.Context, tx *sqlx.Tx, cls school.Class) error {
	insert := func(userIDs []string, role string) error {
		for _, uid := range userIDs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO class_member (class_id, user_id, member_role)
				VALUES ($1, $2, $3)
				ON CONFLICT (class_id, user_id) DO UPDATE SET member_role = $3`,
				cls.ID, uid, role)
			if err != nil {
				return errors.Wrapf(err, "adding class %s %s", role, uid)
			}
		}
		return nil
	}
	if err := insert(cls.TeacherIDs, user.RoleTeacher); err != nil {
		return err
	}
	return insert(cls.StudentIDs, user.RoleStudent)
}

func (repo classRepository) loadMembers(ctx context.Context, cls *school.Class) error {
	var rows []struct {
		UserID     string `db:"user_id"`
		MemberRole string `db:"member_role"`
	}
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT user_id, member_role FROM class_member WHERE class_id = $1`, cls.ID)
	if err != nil {
		return errors.Wrap(err, "loading class members")
	}
	cls.TeacherIDs = make([]string, 0)
	cls.StudentIDs = make([]string, 0)
	for _, row := range rows {
		if row.MemberRole == user.RoleTeacher {
			cls.TeacherIDs = append(cls.TeacherIDs, row.UserID)
		} else {
			cls.StudentIDs = append(cls.StudentIDs, row.UserID)
		}
	}
	return nil
}
