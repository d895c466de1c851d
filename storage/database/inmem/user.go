package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func copyUser(usr user.User) user.User {
	if usr.Roles != nil {
		usr.Roles = append([]string(nil), usr.Roles...)
	}
	if usr.IsActive != nil {
		active := *usr.IsActive
		usr.IsActive = &active
	}
	return usr
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email, excludedID string) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if usr.ID == excludedID {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr = copyUser(usr)
	usr.ID = uuid.New().String()
	repo.db.users[usr.ID] = &usr
	return copyUser(usr), nil
}

// userLess compares users on a DBOrdering field; unknown fields compare by username.
func userLess(a, b user.User, field string) (less, equal bool) {
	switch field {
	case "name":
		x, y := strings.ToLower(a.Name), strings.ToLower(b.Name)
		return x < y, x == y
	case "email":
		return a.Email < b.Email, a.Email == b.Email
	case "created_at":
		return a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
	case "last_login":
		return a.LastLogin.Before(b.LastLogin), a.LastLogin.Equal(b.LastLogin)
	default:
		return a.Username < b.Username, a.Username == b.Username
	}
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		if filter.Match(*usr) {
			users = append(users, copyUser(*usr))
		}
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "username", Ascending: true}}
	}
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range ordering {
			less, equal := userLess(users[i], users[j], ord.Field)
			if equal {
				continue
			}
			return less == ord.Ascending
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return copyUser(*usr), nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsernameOrEmail(_ context.Context, uname string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if uname == "" {
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.db.users {
		if usr.Username == uname || usr.Email == uname {
			return copyUser(*usr), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	usr = copyUser(usr)
	repo.db.users[usr.ID] = &usr
	return copyUser(usr), nil
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.users[id]; ok {
			delete(repo.db.users, id)
			cnt++
		}
	}
	return cnt, nil
}
