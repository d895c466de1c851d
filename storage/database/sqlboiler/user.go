package boiledrepos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/user"
)

const userColumns = `id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login`

var userOrderColumns = map[string]string{
	"name":       "name",
	"username":   "username",
	"email":      "email",
	"created_at": "created_at",
	"last_login": "last_login",
}

type userRow struct {
	ID           string            `boil:"id"`
	Name         string            `boil:"name"`
	Username     null.String       `boil:"username"`
	Email        null.String       `boil:"email"`
	IsActive     bool              `boil:"is_active"`
	Roles        types.StringArray `boil:"roles"`
	PasswordHash []byte            `boil:"password_hash"`
	CreatedAt    time.Time         `boil:"created_at"`
	UpdatedAt    time.Time         `boil:"updated_at"`
	LastLogin    null.Time         `boil:"last_login"`
}

func boilUser(usr user.User) userRow {
	roles := usr.Roles
	if roles == nil {
		roles = []string{}
	}
	hash := usr.PasswordHash
	if hash == nil {
		hash = []byte{}
	}
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     null.NewString(usr.Username, usr.Username != ""),
		Email:        null.NewString(usr.Email, usr.Email != ""),
		IsActive:     usr.Active(),
		Roles:        roles,
		PasswordHash: hash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (r userRow) unboil() user.User {
	active := r.IsActive
	usr := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username.String,
		Email:        r.Email.String,
		IsActive:     &active,
		Roles:        []string(r.Roles),
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time.UTC()
	}
	return usr
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

// trapUniqueErr maps unique violations to user.ErrUsernameExists or user.ErrEmailExists.
func (repo userRepository) trapUniqueErr(err error, msg string) error {
	if pqErr, ok := pqError(err); ok && pqErr.Code == uniqueViolation {
		switch pqErr.Constraint {
		case "user_username_key":
			return user.ErrUsernameExists
		case "user_email_key":
			return user.ErrEmailExists
		}
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email, excludedID string) error {
	var rows []struct {
		Username null.String `boil:"username"`
		Email    null.String `boil:"email"`
	}
	q := `SELECT username, email FROM "user" WHERE (username = $1 OR email = $2) AND id::text <> $3`
	err := queries.Raw(q, null.NewString(username, username != ""), null.NewString(email, email != ""), excludedID).
		Bind(ctx, repo.exec, &rows)
	if err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, r := range rows {
		if username != "" && r.Username.String == username {
			return user.ErrUsernameExists
		}
	}
	if len(rows) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	r := boilUser(usr)
	q := `INSERT INTO "user" (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := queries.Raw(q,
		r.ID, r.Name, r.Username, r.Email, r.IsActive, r.Roles, r.PasswordHash, r.CreatedAt, r.UpdatedAt, r.LastLogin,
	).ExecContext(ctx, repo.exec)
	if err != nil {
		return user.User{}, repo.trapUniqueErr(err, "inserting user")
	}
	return r.unboil(), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			conds = append(conds, fmt.Sprintf("(name ILIKE %s OR username ILIKE %s OR email ILIKE %s)", p, p, p))
		}
		if len(filter.Roles) > 0 {
			conds = append(conds, "roles && "+arg(pq.Array(filter.Roles)))
		}
		if filter.IsActive != nil {
			conds = append(conds, "is_active = "+arg(*filter.IsActive))
		}
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "username", Ascending: true}}
	}
	q := `SELECT ` + userColumns + ` FROM "user"` + whereClause(conds) + orderClause(ordering, userOrderColumns, "id ASC")

	var rows []userRow
	if err := queries.Raw(q, args...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.unboil())
	}
	return users, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	var r userRow
	q := `SELECT ` + userColumns + ` FROM "user" WHERE id = $1`
	if err := queries.Raw(q, id).Bind(ctx, repo.exec, &r); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by ID")
	}
	return r.unboil(), nil
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, uname string) (user.User, error) {
	if uname == "" {
		return user.User{}, user.ErrNotFound
	}
	var r userRow
	q := `SELECT ` + userColumns + ` FROM "user" WHERE username = $1 OR email = $1 LIMIT 1`
	if err := queries.Raw(q, uname).Bind(ctx, repo.exec, &r); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return r.unboil(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	if _, err := uuid.Parse(usr.ID); err != nil {
		return user.User{}, user.ErrNotFound
	}
	r := boilUser(usr)
	q := `UPDATE "user" SET name = $2, username = $3, email = $4, is_active = $5, roles = $6,
		password_hash = $7, updated_at = $8, last_login = $9 WHERE id = $1`
	res, err := queries.Raw(q,
		r.ID, r.Name, r.Username, r.Email, r.IsActive, r.Roles, r.PasswordHash, r.UpdatedAt, r.LastLogin,
	).ExecContext(ctx, repo.exec)
	if err != nil {
		return user.User{}, repo.trapUniqueErr(err, "updating user")
	}
	if err = checkAffected(res, nil, user.ErrNotFound, "updating user"); err != nil {
		return user.User{}, err
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) (int, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	q, args, err := inQuery(`DELETE FROM "user" WHERE id IN (?)`, valid)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	res, err := queries.Raw(q, args...).ExecContext(ctx, repo.exec)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	return int(cnt), nil
}
