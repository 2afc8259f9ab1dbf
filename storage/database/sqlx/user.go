package sqlxrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mlezi/darasa/core"
	"github.com/mlezi/darasa/core/user"
)

type userRow struct {
	ID           string     `db:"id"`
	Name         string     `db:"name"`
	Email        string     `db:"email"`
	Role         string     `db:"role"`
	IsActive     null.Bool  `db:"is_active"`
	PasswordHash null.Bytes `db:"password_hash"`
	CreatedAt    null.Time  `db:"created_at"`
	UpdatedAt    null.Time  `db:"updated_at"`
	LastLogin    null.Time  `db:"last_login"`
}

func (r userRow) toDomain() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         r.Role,
		IsActive:     r.IsActive.Ptr(),
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
		LastLogin:    r.LastLogin.Time,
	}
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         usr.Role,
		IsActive:     null.BoolFromPtr(usr.IsActive),
		PasswordHash: null.BytesFrom(usr.PasswordHash),
		CreatedAt:    null.NewTime(usr.CreatedAt.UTC(), !usr.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(usr.UpdatedAt.UTC(), !usr.UpdatedAt.IsZero()),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	q := `SELECT EXISTS (SELECT 1 FROM "user" WHERE email = ?`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q += ` AND id NOT IN (?)`
		args = append(args, ids)
	}
	q += `)`

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return errors.Wrap(err, "expanding IN clause")
	}
	var exists bool
	if err = repo.db.GetContext(ctx, &exists, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := newUserRow(usr)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO "user" (id, name, email, role, is_active, password_hash, created_at, updated_at, last_login)
		VALUES (:id, :name, :email, :role, :is_active, :password_hash, :created_at, :updated_at, :last_login)`, row)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	q := `SELECT * FROM "user"`
	var conds []string
	var args []interface{}

	if filter != nil {
		// users with Name or Email matching the search keyword
		if filter.Search != "" {
			conds = append(conds, `(name ILIKE ? OR email ILIKE ?)`)
			val := "%" + filter.Search + "%"
			args = append(args, val, val)
		}
		if len(filter.Roles) > 0 {
			conds = append(conds, `role IN (?)`)
			args = append(args, filter.Roles)
		}
		if filter.IsActive != nil {
			conds = append(conds, `is_active = ?`)
			args = append(args, *filter.IsActive)
		}
		if !filter.CreatedFrom.IsZero() {
			conds = append(conds, `created_at >= ?`)
			args = append(args, filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			conds = append(conds, `created_at <= ?`)
			args = append(args, filter.CreatedTo.UTC())
		}
	}
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, ` AND `)
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		q += ` ORDER BY ` + strings.Join(orderList, ", ")
	} else {
		q += ` ORDER BY created_at DESC`
	}

	q, inArgs, err := sqlx.In(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "expanding IN clause")
	}
	var rows []userRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), inArgs...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	users := make([]user.User, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
		ids = append(ids, row.ID)
	}
	memberships, err := repo.classIDsByUser(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].ClassIDs = memberships[users[i].ID]
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var row userRow
	var err error

	switch {
	case filter.ID != "":
		if _, err = uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE id = $1`, filter.ID)
	case filter.Email != "":
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE email = $1`, filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}

	usr := row.toDomain()
	memberships, err := repo.classIDsByUser(ctx, []string{usr.ID})
	if err != nil {
		return user.User{}, err
	}
	usr.ClassIDs = memberships[usr.ID]
	return usr, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := newUserRow(usr)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE "user"
		SET name = :name, email = :email, role = :role, is_active = :is_active,
		    password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`, row)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	return repo.UpdateUser(ctx, usr)
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string) (int, error) {
	cnt, err := deleteByID(ctx, repo.db, `DELETE FROM "user" WHERE id IN (?)`, ids)
	return cnt, errors.Wrap(err, "deleting users")
}

// classIDsByUser fetches class memberships for the given user ids.
func (repo userRepository) classIDsByUser(ctx context.Context, userIDs []string) (map[string][]string, error) {
	memberships := make(map[string][]string, len(userIDs))
	if len(userIDs) == 0 {
		return memberships, nil
	}

	q, args, err := sqlx.In(`SELECT user_id, class_id FROM class_member WHERE user_id IN (?)`, userIDs)
	if err != nil {
		return nil, errors.Wrap(err, "expanding IN clause")
	}
	var rows []struct {
		UserID  string `db:"user_id"`
		ClassID string `db:"class_id"`
	}
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("querying memberships for %d users", len(userIDs)))
	}
	for _, row := range rows {
		memberships[row.UserID] = append(memberships[row.UserID], row.ClassID)
	}
	return memberships, nil
}
